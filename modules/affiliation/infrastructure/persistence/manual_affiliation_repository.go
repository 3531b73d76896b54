package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/manual"
	"github.com/atrium-hq/atrium/pkg/composables"
)

const (
	manualAffiliationSelectQuery = `
        SELECT
            a.id,
            a.tenant_id,
            a.member_id,
            a.segment_id,
            a.organization_id,
            a.date_start,
            a.date_end,
            a.created_at,
            a.updated_at
        FROM manual_affiliations a`

	manualAffiliationUpsertQuery = `
        INSERT INTO manual_affiliations (id, tenant_id, member_id, segment_id, organization_id, date_start, date_end, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        ON CONFLICT (member_id, segment_id, COALESCE(date_start, 'epoch'::timestamptz))
        DO UPDATE SET organization_id = EXCLUDED.organization_id, date_end = EXCLUDED.date_end, updated_at = NOW()
        RETURNING id, tenant_id, member_id, segment_id, organization_id, date_start, date_end, created_at, updated_at`

	manualAffiliationDeleteQuery = `DELETE FROM manual_affiliations WHERE tenant_id = $1 AND id = $2`

	manualAffiliationByIDQuery = manualAffiliationSelectQuery + `
        WHERE a.tenant_id = $1 AND a.id = $2`

	// Dated overrides outrank an all-time override, hence NULLS LAST.
	manualAffiliationCoveringQuery = manualAffiliationSelectQuery + `
        WHERE a.tenant_id = $1 AND a.member_id = $2 AND a.segment_id = $3
          AND (a.date_start IS NULL OR a.date_start <= $4)
          AND (a.date_end IS NULL OR a.date_end >= $4)
        ORDER BY a.date_start DESC NULLS LAST, a.id ASC
        LIMIT 1`

	manualAffiliationListQuery = manualAffiliationSelectQuery + `
        WHERE a.tenant_id = $1 AND a.member_id = $2
        ORDER BY a.segment_id, a.date_start DESC NULLS LAST`

	manualAffiliationMoveQuery = `
        UPDATE manual_affiliations
        SET organization_id = $3, updated_at = NOW()
        WHERE tenant_id = $1 AND organization_id = $2
        RETURNING member_id`
)

type PgManualAffiliationRepository struct{}

func NewManualAffiliationRepository() manual.Repository {
	return &PgManualAffiliationRepository{}
}

func (g *PgManualAffiliationRepository) Upsert(ctx context.Context, a manual.ManualAffiliation) (manual.ManualAffiliation, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return manual.ManualAffiliation{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return manual.ManualAffiliation{}, err
	}

	id := a.ID()
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := tx.QueryRow(ctx, manualAffiliationUpsertQuery,
		id, tenantID, a.MemberID(), a.SegmentID(), a.OrganizationID(), a.DateStart(), a.DateEnd())
	written, err := scanManualAffiliation(row)
	if err != nil {
		return manual.ManualAffiliation{}, errors.Wrap(err, "upsert manual affiliation")
	}
	return written, nil
}

func (g *PgManualAffiliationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, manualAffiliationDeleteQuery, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return manual.ErrNotFound
	}
	return nil
}

func (g *PgManualAffiliationRepository) GetByID(ctx context.Context, id uuid.UUID) (manual.ManualAffiliation, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return manual.ManualAffiliation{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return manual.ManualAffiliation{}, err
	}

	a, err := scanManualAffiliation(tx.QueryRow(ctx, manualAffiliationByIDQuery, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return manual.ManualAffiliation{}, manual.ErrNotFound
		}
		return manual.ManualAffiliation{}, err
	}
	return a, nil
}

func (g *PgManualAffiliationRepository) FindCovering(ctx context.Context, memberID, segmentID uuid.UUID, ts time.Time) (manual.ManualAffiliation, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return manual.ManualAffiliation{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return manual.ManualAffiliation{}, err
	}

	row := tx.QueryRow(ctx, manualAffiliationCoveringQuery, tenantID, memberID, segmentID, ts)
	a, err := scanManualAffiliation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return manual.ManualAffiliation{}, manual.ErrNotFound
		}
		return manual.ManualAffiliation{}, err
	}
	return a, nil
}

func (g *PgManualAffiliationRepository) ListForMember(ctx context.Context, memberID uuid.UUID) ([]manual.ManualAffiliation, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, manualAffiliationListQuery, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []manual.ManualAffiliation
	for rows.Next() {
		a, err := scanManualAffiliation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (g *PgManualAffiliationRepository) ReassignOrganization(ctx context.Context, fromOrgID, toOrgID uuid.UUID) ([]uuid.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, manualAffiliationMoveQuery, tenantID, fromOrgID, toOrgID)
	if err != nil {
		return nil, err
	}
	affected := make(map[uuid.UUID]struct{})
	if err := collectMemberIDs(rows, affected); err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(affected))
	for id := range affected {
		out = append(out, id)
	}
	return out, nil
}

func scanManualAffiliation(row pgx.Row) (manual.ManualAffiliation, error) {
	var (
		id             uuid.UUID
		tenantID       uuid.UUID
		memberID       uuid.UUID
		segmentID      uuid.UUID
		organizationID uuid.NullUUID
		dateStart      *time.Time
		dateEnd        *time.Time
		createdAt      time.Time
		updatedAt      time.Time
	)
	if err := row.Scan(&id, &tenantID, &memberID, &segmentID, &organizationID, &dateStart, &dateEnd, &createdAt, &updatedAt); err != nil {
		return manual.ManualAffiliation{}, err
	}
	return manual.Hydrate(id, tenantID, memberID, segmentID, organizationID, dateStart, dateEnd, createdAt, updatedAt), nil
}
