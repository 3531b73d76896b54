package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atrium-hq/atrium/modules/activity/domain/aggregates/activity"
	affiliationsvc "github.com/atrium-hq/atrium/modules/affiliation/services"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/repo"
)

const (
	activitySelectQuery = `
        SELECT
            a.id,
            a.tenant_id,
            a.segment_id,
            a.member_id,
            a.organization_id,
            a.type,
            a.platform,
            a.timestamp,
            a.created_at,
            a.updated_at
        FROM activities a`

	activityCountQuery = `SELECT COUNT(a.id) FROM activities a`

	activityInsertQuery = `
        INSERT INTO activities (id, tenant_id, segment_id, member_id, organization_id, type, platform, timestamp, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING id, tenant_id, segment_id, member_id, organization_id, type, platform, timestamp, created_at, updated_at`

	activityMoveMemberQuery = `
        UPDATE activities
        SET member_id = $3, updated_at = NOW()
        WHERE tenant_id = $1 AND member_id = $2`

	activityMoveOrganizationQuery = `
        UPDATE activities
        SET organization_id = $3, updated_at = NOW()
        WHERE tenant_id = $1 AND organization_id = $2`

	activityAttributionTargetsQuery = `
        SELECT a.id, a.segment_id, a.timestamp, a.organization_id
        FROM activities a
        WHERE a.tenant_id = $1 AND a.member_id = $2
        ORDER BY a.timestamp`

	activityUpdateAttributionQuery = `
        UPDATE activities
        SET organization_id = $3, updated_at = NOW()
        WHERE tenant_id = $1 AND id = $2`
)

type PgActivityRepository struct{}

func NewActivityRepository() *PgActivityRepository {
	return &PgActivityRepository{}
}

func (g *PgActivityRepository) Create(ctx context.Context, a activity.Activity) (activity.Activity, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return activity.Activity{}, err
	}

	id := a.ID()
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := tx.QueryRow(ctx, activityInsertQuery,
		id, tenantID, a.SegmentID(), a.MemberID(), a.OrganizationID(),
		a.Type(), a.Platform(), a.Timestamp())
	created, err := scanActivity(row)
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "create activity")
	}
	return created, nil
}

func (g *PgActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (activity.Activity, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return activity.Activity{}, err
	}

	row := tx.QueryRow(ctx, activitySelectQuery+" WHERE a.tenant_id = $1 AND a.id = $2", tenantID, id)
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return activity.Activity{}, activity.ErrNotFound
		}
		return activity.Activity{}, err
	}
	return a, nil
}

func (g *PgActivityRepository) GetPaginated(ctx context.Context, params *activity.FindParams) ([]activity.Activity, int64, error) {
	if params == nil {
		params = &activity.FindParams{}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := " WHERE a.tenant_id = $1"
	args := []any{tenantID}
	if params.MemberID != uuid.Nil {
		args = append(args, params.MemberID)
		where += " AND a.member_id = $2"
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := tx.Query(ctx, activitySelectQuery+where+" ORDER BY a.timestamp DESC "+repo.FormatLimitOffset(limit, offset), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []activity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.QueryRow(ctx, activityCountQuery+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (g *PgActivityRepository) MoveBetweenMembers(ctx context.Context, fromID, toID uuid.UUID) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, activityMoveMemberQuery, tenantID, fromID, toID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (g *PgActivityRepository) ReassignOrganization(ctx context.Context, fromOrgID, toOrgID uuid.UUID) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, activityMoveOrganizationQuery, tenantID, fromOrgID, toOrgID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (g *PgActivityRepository) FindAttributionTargets(ctx context.Context, memberID uuid.UUID) ([]affiliationsvc.AttributionTarget, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, activityAttributionTargetsQuery, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []affiliationsvc.AttributionTarget
	for rows.Next() {
		var target affiliationsvc.AttributionTarget
		if err := rows.Scan(&target.ID, &target.SegmentID, &target.Timestamp, &target.OrganizationID); err != nil {
			return nil, err
		}
		out = append(out, target)
	}
	return out, rows.Err()
}

func (g *PgActivityRepository) UpdateAttribution(ctx context.Context, activityID uuid.UUID, organizationID uuid.NullUUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, activityUpdateAttributionQuery, tenantID, activityID, organizationID)
	return err
}

func scanActivity(row pgx.Row) (activity.Activity, error) {
	var (
		id             uuid.UUID
		tenantID       uuid.UUID
		segmentID      uuid.UUID
		memberID       uuid.UUID
		organizationID uuid.NullUUID
		activityType   string
		platform       string
		timestamp      time.Time
		createdAt      time.Time
		updatedAt      time.Time
	)
	if err := row.Scan(&id, &tenantID, &segmentID, &memberID, &organizationID, &activityType, &platform, &timestamp, &createdAt, &updatedAt); err != nil {
		return activity.Activity{}, err
	}
	return activity.Hydrate(id, tenantID, segmentID, memberID, organizationID, activityType, platform, timestamp, createdAt, updatedAt), nil
}
