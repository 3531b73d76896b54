package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atrium-hq/atrium/modules/member/domain/aggregates/member"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/repo"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

const (
	memberFindQuery = `
        SELECT
            m.id,
            m.tenant_id,
            m.display_name,
            m.emails,
            m.score,
            m.joined_at,
            m.created_at,
            m.updated_at
        FROM members m`

	memberCountQuery = `SELECT COUNT(m.id) FROM members m`

	memberInsertQuery = `
        INSERT INTO members (id, tenant_id, display_name, emails, score, joined_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING id, tenant_id, display_name, emails, score, joined_at, created_at, updated_at`

	memberUpdateProfileQuery = `
        UPDATE members
        SET display_name = $3, emails = $4, score = $5, joined_at = $6, updated_at = NOW()
        WHERE id = $1 AND tenant_id = $2`

	memberDeleteQuery = `DELETE FROM members WHERE id = $1 AND tenant_id = $2`

	identityListQuery = `
        SELECT member_id, platform, username, created_at
        FROM member_identities
        WHERE tenant_id = $1 AND member_id = ANY($2)
        ORDER BY member_id, platform, username`

	identityInsertQuery = `
        INSERT INTO member_identities (member_id, tenant_id, platform, username, created_at)
        VALUES ($1, $2, $3, $4, NOW())`

	identityMoveQuery = `
        UPDATE member_identities
        SET member_id = $1
        WHERE tenant_id = $2 AND member_id = $3 AND platform = $4 AND username = $5`

	memberByIdentityQuery = memberFindQuery + `
        JOIN member_identities mi ON mi.member_id = m.id
        WHERE m.tenant_id = $1 AND mi.platform = $2 AND mi.username = $3
        ORDER BY m.created_at`
)

type PgMemberRepository struct{}

func NewMemberRepository() member.Repository {
	return &PgMemberRepository{}
}

func (g *PgMemberRepository) GetPaginated(ctx context.Context, params *member.FindParams) ([]member.Member, int64, error) {
	if params == nil {
		params = &member.FindParams{}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := []string{"m.tenant_id = $1"}
	args := []any{tenantID}
	if q := strings.TrimSpace(params.Q); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("m.display_name ILIKE $%d", len(args)))
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := memberFindQuery +
		" WHERE " + strings.Join(where, " AND ") +
		" ORDER BY m.created_at DESC " +
		repo.FormatLimitOffset(limit, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanMembers(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := memberCountQuery + " WHERE " + strings.Join(where, " AND ")
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (g *PgMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (member.Member, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return member.Member{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return member.Member{}, err
	}

	row := tx.QueryRow(ctx, memberFindQuery+" WHERE m.id = $1 AND m.tenant_id = $2", id, tenantID)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member.Member{}, member.ErrNotFound
		}
		return member.Member{}, err
	}

	identities, err := g.GetIdentities(ctx, []uuid.UUID{id})
	if err != nil {
		return member.Member{}, err
	}
	return m.WithIdentities(identities[id]), nil
}

func (g *PgMemberRepository) GetByIdentity(ctx context.Context, platform, username string) ([]member.Member, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, memberByIdentityQuery, tenantID, platform, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMembers(rows)
}

func (g *PgMemberRepository) Create(ctx context.Context, m member.Member) (member.Member, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return member.Member{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return member.Member{}, err
	}

	id := m.ID()
	if id == uuid.Nil {
		id = uuid.New()
	}
	joinedAt := m.JoinedAt()
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}

	row := tx.QueryRow(ctx, memberInsertQuery, id, tenantID, m.DisplayName(), m.Emails(), m.Score(), joinedAt)
	created, err := scanMember(row)
	if err != nil {
		return member.Member{}, errors.Wrap(err, "create member")
	}

	for _, identity := range m.Identities() {
		if err := g.AddIdentity(ctx, created.ID(), identity); err != nil {
			return member.Member{}, err
		}
	}
	return created.WithIdentities(m.Identities()), nil
}

func (g *PgMemberRepository) UpdateProfile(ctx context.Context, m member.Member) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, memberUpdateProfileQuery, m.ID(), tenantID, m.DisplayName(), m.Emails(), m.Score(), m.JoinedAt())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return member.ErrNotFound
	}
	return nil
}

func (g *PgMemberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, memberDeleteQuery, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return member.ErrNotFound
	}
	return nil
}

func (g *PgMemberRepository) GetIdentities(ctx context.Context, memberIDs []uuid.UUID) (map[uuid.UUID][]member.Identity, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, identityListQuery, tenantID, memberIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]member.Identity, len(memberIDs))
	for rows.Next() {
		var memberID uuid.UUID
		var identity member.Identity
		if err := rows.Scan(&memberID, &identity.Platform, &identity.Username, &identity.CreatedAt); err != nil {
			return nil, err
		}
		out[memberID] = append(out[memberID], identity)
	}
	return out, rows.Err()
}

func (g *PgMemberRepository) AddIdentity(ctx context.Context, memberID uuid.UUID, identity member.Identity) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, identityInsertQuery, memberID, tenantID, identity.Platform, identity.Username)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return serrors.Conflict("identity %s/%s already attached to member", identity.Platform, identity.Username)
	}
	return err
}

func (g *PgMemberRepository) MoveIdentities(ctx context.Context, fromID, toID uuid.UUID, identities []member.Identity) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, identity := range identities {
		tag, err := tx.Exec(ctx, identityMoveQuery, toID, tenantID, fromID, identity.Platform, identity.Username)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return serrors.Consistency(
				"moving identity %s/%s from %s affected %d rows, expected exactly 1",
				identity.Platform, identity.Username, fromID, tag.RowsAffected(),
			)
		}
	}
	return nil
}

func scanMember(row pgx.Row) (member.Member, error) {
	var (
		id          uuid.UUID
		tenantID    uuid.UUID
		displayName string
		emails      []string
		score       int
		joinedAt    time.Time
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&id, &tenantID, &displayName, &emails, &score, &joinedAt, &createdAt, &updatedAt); err != nil {
		return member.Member{}, err
	}
	return member.Hydrate(id, tenantID, displayName, emails, score, joinedAt, nil, createdAt, updatedAt), nil
}

func scanMembers(rows pgx.Rows) ([]member.Member, error) {
	var out []member.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
