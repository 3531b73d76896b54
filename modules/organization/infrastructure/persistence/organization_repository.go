package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atrium-hq/atrium/modules/organization/domain/aggregates/organization"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/repo"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

const (
	orgFindQuery = `
        SELECT
            o.id,
            o.tenant_id,
            o.display_name,
            o.created_at,
            o.updated_at
        FROM organizations o`

	orgCountQuery = `SELECT COUNT(o.id) FROM organizations o`

	orgInsertQuery = `
        INSERT INTO organizations (id, tenant_id, display_name, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, tenant_id, display_name, created_at, updated_at`

	orgDeleteQuery = `DELETE FROM organizations WHERE id = $1 AND tenant_id = $2`

	orgIdentityListQuery = `
        SELECT organization_id, platform, name
        FROM organization_identities
        WHERE tenant_id = $1 AND organization_id = ANY($2)
        ORDER BY organization_id, platform, name`

	orgIdentityInsertQuery = `
        INSERT INTO organization_identities (organization_id, tenant_id, platform, name)
        VALUES ($1, $2, $3, $4)`

	orgIdentityMoveQuery = `
        UPDATE organization_identities
        SET organization_id = $1
        WHERE tenant_id = $2 AND organization_id = $3 AND platform = $4 AND name = $5`

	orgSegmentMoveQuery = `
        UPDATE organization_segments os
        SET organization_id = $1
        WHERE os.tenant_id = $2 AND os.organization_id = $3
          AND NOT EXISTS (
            SELECT 1 FROM organization_segments dup
            WHERE dup.tenant_id = $2 AND dup.organization_id = $1 AND dup.segment_id = os.segment_id
          )`

	orgSegmentDeleteLeftoverQuery = `
        DELETE FROM organization_segments WHERE tenant_id = $1 AND organization_id = $2`
)

type PgOrganizationRepository struct{}

func NewOrganizationRepository() organization.Repository {
	return &PgOrganizationRepository{}
}

func (g *PgOrganizationRepository) GetPaginated(ctx context.Context, params *organization.FindParams) ([]organization.Organization, int64, error) {
	if params == nil {
		params = &organization.FindParams{}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := []string{"o.tenant_id = $1"}
	args := []any{tenantID}
	if q := strings.TrimSpace(params.Q); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("o.display_name ILIKE $%d", len(args)))
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := orgFindQuery +
		" WHERE " + strings.Join(where, " AND ") +
		" ORDER BY o.created_at DESC " +
		repo.FormatLimitOffset(limit, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanOrganizations(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := orgCountQuery + " WHERE " + strings.Join(where, " AND ")
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (g *PgOrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (organization.Organization, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return organization.Organization{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return organization.Organization{}, err
	}

	row := tx.QueryRow(ctx, orgFindQuery+" WHERE o.id = $1 AND o.tenant_id = $2", id, tenantID)
	o, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Organization{}, organization.ErrNotFound
		}
		return organization.Organization{}, err
	}

	identities, err := g.GetIdentities(ctx, []uuid.UUID{id})
	if err != nil {
		return organization.Organization{}, err
	}
	return o.WithIdentities(identities[id]), nil
}

func (g *PgOrganizationRepository) Create(ctx context.Context, o organization.Organization) (organization.Organization, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return organization.Organization{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return organization.Organization{}, err
	}

	id := o.ID()
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := tx.QueryRow(ctx, orgInsertQuery, id, tenantID, o.DisplayName())
	created, err := scanOrganization(row)
	if err != nil {
		return organization.Organization{}, errors.Wrap(err, "create organization")
	}

	for _, identity := range o.Identities() {
		if _, err := tx.Exec(ctx, orgIdentityInsertQuery, created.ID(), tenantID, identity.Platform, identity.Name); err != nil {
			return organization.Organization{}, err
		}
	}
	return created.WithIdentities(o.Identities()), nil
}

func (g *PgOrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, orgDeleteQuery, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return organization.ErrNotFound
	}
	return nil
}

func (g *PgOrganizationRepository) GetIdentities(ctx context.Context, orgIDs []uuid.UUID) (map[uuid.UUID][]organization.Identity, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, orgIdentityListQuery, tenantID, orgIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]organization.Identity, len(orgIDs))
	for rows.Next() {
		var orgID uuid.UUID
		var identity organization.Identity
		if err := rows.Scan(&orgID, &identity.Platform, &identity.Name); err != nil {
			return nil, err
		}
		out[orgID] = append(out[orgID], identity)
	}
	return out, rows.Err()
}

func (g *PgOrganizationRepository) MoveIdentities(ctx context.Context, fromID, toID uuid.UUID, identities []organization.Identity) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, identity := range identities {
		tag, err := tx.Exec(ctx, orgIdentityMoveQuery, toID, tenantID, fromID, identity.Platform, identity.Name)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return serrors.Consistency(
				"moving organization identity %s/%s from %s affected %d rows, expected exactly 1",
				identity.Platform, identity.Name, fromID, tag.RowsAffected(),
			)
		}
	}
	return nil
}

func (g *PgOrganizationRepository) MoveSegments(ctx context.Context, fromID, toID uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, orgSegmentMoveQuery, toID, tenantID, fromID); err != nil {
		return err
	}
	// rows the target already covered stay behind; drop them
	_, err = tx.Exec(ctx, orgSegmentDeleteLeftoverQuery, tenantID, fromID)
	return err
}

func scanOrganization(row pgx.Row) (organization.Organization, error) {
	var (
		id          uuid.UUID
		tenantID    uuid.UUID
		displayName string
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&id, &tenantID, &displayName, &createdAt, &updatedAt); err != nil {
		return organization.Organization{}, err
	}
	return organization.Hydrate(id, tenantID, displayName, nil, createdAt, updatedAt), nil
}

func scanOrganizations(rows pgx.Rows) ([]organization.Organization, error) {
	var out []organization.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
