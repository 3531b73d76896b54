package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/workexperience"
	"github.com/atrium-hq/atrium/pkg/composables"
)

const (
	workExperienceSelectQuery = `
        SELECT
            w.id,
            w.tenant_id,
            w.member_id,
            w.organization_id,
            w.title,
            w.date_start,
            w.date_end,
            w.source,
            w.created_at,
            w.updated_at,
            w.deleted_at
        FROM work_experiences w`

	workExperienceReturning = `
        RETURNING id, tenant_id, member_id, organization_id, title, date_start, date_end, source, created_at, updated_at, deleted_at`

	// Each interval shape carries its own partial unique index, so the
	// conflict target differs per shape. The DO UPDATE predicate keeps
	// low-trust sources from overwriting an existing row.
	workExperienceInsertUndatedQuery = `
        INSERT INTO work_experiences (id, tenant_id, member_id, organization_id, title, date_start, date_end, source, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NULL, NULL, $6, NOW(), NOW())
        ON CONFLICT (member_id, organization_id) WHERE deleted_at IS NULL AND date_start IS NULL
        DO UPDATE SET title = EXCLUDED.title, source = EXCLUDED.source, updated_at = NOW()
        WHERE $7` + workExperienceReturning

	workExperienceInsertOpenQuery = `
        INSERT INTO work_experiences (id, tenant_id, member_id, organization_id, title, date_start, date_end, source, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, NOW(), NOW())
        ON CONFLICT (member_id, organization_id, date_start) WHERE deleted_at IS NULL AND date_start IS NOT NULL AND date_end IS NULL
        DO UPDATE SET title = EXCLUDED.title, source = EXCLUDED.source, updated_at = NOW()
        WHERE $8` + workExperienceReturning

	workExperienceInsertClosedQuery = `
        INSERT INTO work_experiences (id, tenant_id, member_id, organization_id, title, date_start, date_end, source, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        ON CONFLICT (member_id, organization_id, date_start, date_end) WHERE deleted_at IS NULL AND date_end IS NOT NULL
        DO UPDATE SET title = EXCLUDED.title, source = EXCLUDED.source, updated_at = NOW()
        WHERE $9` + workExperienceReturning

	workExperienceDatedExistsQuery = `
        SELECT EXISTS(
            SELECT 1 FROM work_experiences
            WHERE tenant_id = $1 AND member_id = $2 AND organization_id = $3
              AND date_start IS NOT NULL AND deleted_at IS NULL)`

	workExperienceRetireUndatedQuery = `
        UPDATE work_experiences
        SET deleted_at = NOW(), updated_at = NOW()
        WHERE tenant_id = $1 AND member_id = $2 AND organization_id = $3
          AND date_start IS NULL AND deleted_at IS NULL`

	workExperienceSoftDeleteQuery = `
        UPDATE work_experiences
        SET deleted_at = NOW(), updated_at = NOW()
        WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`

	workExperienceByIDQuery = workExperienceSelectQuery + `
        WHERE w.tenant_id = $1 AND w.id = $2 AND w.deleted_at IS NULL`

	workExperienceCoveringQuery = workExperienceSelectQuery + `
        WHERE w.tenant_id = $1 AND w.member_id = $2 AND w.deleted_at IS NULL
          AND w.date_start IS NOT NULL AND w.date_start <= $3
          AND (w.date_end IS NULL OR w.date_end >= $3)
        ORDER BY w.date_start DESC, w.id ASC
        LIMIT 1`

	workExperienceRecentOpenQuery = workExperienceSelectQuery + `
        WHERE w.tenant_id = $1 AND w.member_id = $2 AND w.deleted_at IS NULL
          AND w.date_start IS NULL AND w.created_at <= $3
        ORDER BY w.created_at DESC, w.id ASC
        LIMIT 1`

	workExperienceEarliestUndatedQuery = workExperienceSelectQuery + `
        WHERE w.tenant_id = $1 AND w.member_id = $2 AND w.deleted_at IS NULL
          AND w.date_start IS NULL
        ORDER BY w.created_at ASC, w.id ASC
        LIMIT 1`

	workExperienceListQuery = workExperienceSelectQuery + `
        WHERE w.tenant_id = $1 AND w.member_id = $2 AND w.deleted_at IS NULL
        ORDER BY w.date_start DESC NULLS LAST, w.created_at DESC`

	// A loser row whose conflict key already exists live at the target
	// organization cannot move without violating a shape index; it is
	// retired instead.
	workExperienceRetireCollidingQuery = `
        UPDATE work_experiences w
        SET deleted_at = NOW(), updated_at = NOW()
        WHERE w.tenant_id = $1 AND w.organization_id = $2 AND w.deleted_at IS NULL
          AND EXISTS (
            SELECT 1 FROM work_experiences t
            WHERE t.tenant_id = w.tenant_id AND t.member_id = w.member_id
              AND t.organization_id = $3 AND t.deleted_at IS NULL
              AND t.date_start IS NOT DISTINCT FROM w.date_start
              AND t.date_end IS NOT DISTINCT FROM w.date_end)
        RETURNING w.member_id`

	workExperienceMoveQuery = `
        UPDATE work_experiences
        SET organization_id = $3, updated_at = NOW()
        WHERE tenant_id = $1 AND organization_id = $2 AND deleted_at IS NULL
        RETURNING member_id`
)

type PgWorkExperienceRepository struct{}

func NewWorkExperienceRepository() workexperience.Repository {
	return &PgWorkExperienceRepository{}
}

func (g *PgWorkExperienceRepository) Upsert(ctx context.Context, wx workexperience.WorkExperience) (workexperience.WorkExperience, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return workexperience.WorkExperience{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return workexperience.WorkExperience{}, err
	}

	id := wx.ID()
	if id == uuid.Nil {
		id = uuid.New()
	}
	highTrust := wx.Source().HighTrust()

	var row pgx.Row
	switch wx.Shape() {
	case workexperience.ShapeUndated:
		// Dated knowledge for the pair blocks an undated insert outright.
		var datedExists bool
		if err := tx.QueryRow(ctx, workExperienceDatedExistsQuery, tenantID, wx.MemberID(), wx.OrganizationID()).Scan(&datedExists); err != nil {
			return workexperience.WorkExperience{}, err
		}
		if datedExists {
			return workexperience.WorkExperience{}, nil
		}
		row = tx.QueryRow(ctx, workExperienceInsertUndatedQuery,
			id, tenantID, wx.MemberID(), wx.OrganizationID(), wx.Title(), wx.Source(), highTrust)
	case workexperience.ShapeOpen:
		if _, err := tx.Exec(ctx, workExperienceRetireUndatedQuery, tenantID, wx.MemberID(), wx.OrganizationID()); err != nil {
			return workexperience.WorkExperience{}, err
		}
		row = tx.QueryRow(ctx, workExperienceInsertOpenQuery,
			id, tenantID, wx.MemberID(), wx.OrganizationID(), wx.Title(), wx.DateStart(), wx.Source(), highTrust)
	default:
		if _, err := tx.Exec(ctx, workExperienceRetireUndatedQuery, tenantID, wx.MemberID(), wx.OrganizationID()); err != nil {
			return workexperience.WorkExperience{}, err
		}
		row = tx.QueryRow(ctx, workExperienceInsertClosedQuery,
			id, tenantID, wx.MemberID(), wx.OrganizationID(), wx.Title(), wx.DateStart(), wx.DateEnd(), wx.Source(), highTrust)
	}

	written, err := scanWorkExperience(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict with an existing row and a low-trust source:
			// the write is dropped silently.
			return workexperience.WorkExperience{}, nil
		}
		return workexperience.WorkExperience{}, errors.Wrap(err, "upsert work experience")
	}
	return written, nil
}

func (g *PgWorkExperienceRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, workExperienceSoftDeleteQuery, tenantID, id)
	return err
}

func (g *PgWorkExperienceRepository) GetByID(ctx context.Context, id uuid.UUID) (workexperience.WorkExperience, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return workexperience.WorkExperience{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return workexperience.WorkExperience{}, err
	}

	wx, err := scanWorkExperience(tx.QueryRow(ctx, workExperienceByIDQuery, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workexperience.WorkExperience{}, workexperience.ErrNotFound
		}
		return workexperience.WorkExperience{}, err
	}
	return wx, nil
}

func (g *PgWorkExperienceRepository) FindCoveringInterval(ctx context.Context, memberID uuid.UUID, ts time.Time) (workexperience.WorkExperience, error) {
	return g.findOne(ctx, workExperienceCoveringQuery, memberID, &ts)
}

func (g *PgWorkExperienceRepository) FindMostRecentOpenBefore(ctx context.Context, memberID uuid.UUID, ts time.Time) (workexperience.WorkExperience, error) {
	return g.findOne(ctx, workExperienceRecentOpenQuery, memberID, &ts)
}

func (g *PgWorkExperienceRepository) FindEarliestEverUndated(ctx context.Context, memberID uuid.UUID) (workexperience.WorkExperience, error) {
	return g.findOne(ctx, workExperienceEarliestUndatedQuery, memberID, nil)
}

func (g *PgWorkExperienceRepository) findOne(ctx context.Context, query string, memberID uuid.UUID, ts *time.Time) (workexperience.WorkExperience, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return workexperience.WorkExperience{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return workexperience.WorkExperience{}, err
	}

	args := []any{tenantID, memberID}
	if ts != nil {
		args = append(args, *ts)
	}
	wx, err := scanWorkExperience(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workexperience.WorkExperience{}, workexperience.ErrNotFound
		}
		return workexperience.WorkExperience{}, err
	}
	return wx, nil
}

func (g *PgWorkExperienceRepository) ListForMember(ctx context.Context, memberID uuid.UUID) ([]workexperience.WorkExperience, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, workExperienceListQuery, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workexperience.WorkExperience
	for rows.Next() {
		wx, err := scanWorkExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wx)
	}
	return out, rows.Err()
}

func (g *PgWorkExperienceRepository) ReassignOrganization(ctx context.Context, fromOrgID, toOrgID uuid.UUID) ([]uuid.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	affected := make(map[uuid.UUID]struct{})
	for _, query := range []string{workExperienceRetireCollidingQuery, workExperienceMoveQuery} {
		rows, err := tx.Query(ctx, query, tenantID, fromOrgID, toOrgID)
		if err != nil {
			return nil, err
		}
		if err := collectMemberIDs(rows, affected); err != nil {
			return nil, err
		}
	}

	out := make([]uuid.UUID, 0, len(affected))
	for id := range affected {
		out = append(out, id)
	}
	return out, nil
}

func collectMemberIDs(rows pgx.Rows, into map[uuid.UUID]struct{}) error {
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		into[id] = struct{}{}
	}
	return rows.Err()
}

func scanWorkExperience(row pgx.Row) (workexperience.WorkExperience, error) {
	var (
		id             uuid.UUID
		tenantID       uuid.UUID
		memberID       uuid.UUID
		organizationID uuid.UUID
		title          string
		dateStart      *time.Time
		dateEnd        *time.Time
		source         string
		createdAt      time.Time
		updatedAt      time.Time
		deletedAt      *time.Time
	)
	if err := row.Scan(&id, &tenantID, &memberID, &organizationID, &title, &dateStart, &dateEnd, &source, &createdAt, &updatedAt, &deletedAt); err != nil {
		return workexperience.WorkExperience{}, err
	}
	return workexperience.Hydrate(
		id, tenantID, memberID, organizationID,
		title, dateStart, dateEnd,
		workexperience.Source(source),
		createdAt, updatedAt, deletedAt,
	), nil
}
