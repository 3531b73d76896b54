package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/modules/dedupe/domain/aggregates/suggestion"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/repo"
)

const (
	// Every scan excludes pairs already present in either ledger. Pairs
	// are compared in canonical order on both sides of the join.
	suggestionLedgerExclusion = `
          AND NOT EXISTS (
            SELECT 1 FROM member_merge_suggestions s
            WHERE s.member_id = LEAST(m1.id, m2.id) AND s.suggested_id = GREATEST(m1.id, m2.id))
          AND NOT EXISTS (
            SELECT 1 FROM member_merge_exclusions e
            WHERE e.member_id = LEAST(m1.id, m2.id) AND e.excluded_id = GREATEST(m1.id, m2.id))`

	suggestionByUsernameQuery = `
        SELECT DISTINCT m1.id, m2.id
        FROM members m1
        JOIN member_identities i1 ON i1.member_id = m1.id
        JOIN member_identities i2 ON i2.tenant_id = i1.tenant_id
            AND i2.username = i1.username
            AND i2.platform <> i1.platform
        JOIN members m2 ON m2.id = i2.member_id
        WHERE m1.tenant_id = $1 AND m1.created_at >= $2 AND m2.id <> m1.id` +
		suggestionLedgerExclusion

	suggestionByEmailQuery = `
        SELECT DISTINCT m1.id, m2.id
        FROM members m1
        JOIN members m2 ON m2.tenant_id = m1.tenant_id
            AND m2.id <> m1.id
            AND m1.emails && m2.emails
        WHERE m1.tenant_id = $1 AND m1.created_at >= $2
          AND array_length(m1.emails, 1) > 0` +
		suggestionLedgerExclusion

	suggestionBySimilarityQuery = `
        WITH recent AS (
            SELECT m.id
            FROM members m
            WHERE m.tenant_id = $1 AND m.created_at >= $2
            ORDER BY m.created_at DESC
            LIMIT $3
        )
        SELECT m1.id, m2.id, MAX(similarity(i1.username, i2.username))
        FROM recent r
        JOIN members m1 ON m1.id = r.id
        JOIN member_identities i1 ON i1.member_id = m1.id
        JOIN member_identities i2 ON i2.tenant_id = i1.tenant_id
            AND i2.platform <> i1.platform
            AND i2.member_id <> i1.member_id
            AND similarity(i1.username, i2.username) > 0.5
        JOIN members m2 ON m2.id = i2.member_id
        WHERE 1 = 1` +
		suggestionLedgerExclusion + `
        GROUP BY m1.id, m2.id`

	suggestionExistingQuery = `
        SELECT s.member_id, s.suggested_id
        FROM member_merge_suggestions s
        WHERE s.tenant_id = $1 AND (s.member_id, s.suggested_id) = ANY(
            SELECT unnest($2::uuid[]), unnest($3::uuid[]))
        UNION
        SELECT e.member_id, e.excluded_id
        FROM member_merge_exclusions e
        WHERE e.tenant_id = $1 AND (e.member_id, e.excluded_id) = ANY(
            SELECT unnest($2::uuid[]), unnest($3::uuid[]))`

	suggestionListQuery = `
        SELECT s.member_id, s.suggested_id, s.similarity, s.created_at, s.updated_at
        FROM member_merge_suggestions s
        WHERE s.tenant_id = $1
        ORDER BY s.similarity DESC, s.created_at DESC`

	suggestionCountQuery = `SELECT COUNT(*) FROM member_merge_suggestions s WHERE s.tenant_id = $1`

	suggestionRemovePairQuery = `
        DELETE FROM member_merge_suggestions
        WHERE tenant_id = $1 AND member_id = $2 AND suggested_id = $3`

	suggestionRemoveReferencingQuery = `
        DELETE FROM member_merge_suggestions
        WHERE tenant_id = $1 AND (member_id = $2 OR suggested_id = $2)`

	exclusionInsertQuery = `
        INSERT INTO member_merge_exclusions (tenant_id, member_id, excluded_id, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (member_id, excluded_id) DO NOTHING`
)

type PgSuggestionRepository struct{}

func NewSuggestionRepository() suggestion.Repository {
	return &PgSuggestionRepository{}
}

func (g *PgSuggestionRepository) ByUsername(ctx context.Context, windowStart time.Time) ([]suggestion.Candidate, error) {
	return g.scanCandidates(ctx, suggestionByUsernameQuery, windowStart)
}

func (g *PgSuggestionRepository) ByEmail(ctx context.Context, windowStart time.Time) ([]suggestion.Candidate, error) {
	return g.scanCandidates(ctx, suggestionByEmailQuery, windowStart)
}

func (g *PgSuggestionRepository) scanCandidates(ctx context.Context, query string, windowStart time.Time) ([]suggestion.Candidate, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, tenantID, windowStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []suggestion.Candidate
	for rows.Next() {
		var c suggestion.Candidate
		if err := rows.Scan(&c.MemberID, &c.OtherID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (g *PgSuggestionRepository) BySimilarity(ctx context.Context, windowStart time.Time, sampleLimit int) ([]suggestion.ScoredCandidate, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, suggestionBySimilarityQuery, tenantID, windowStart, sampleLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []suggestion.ScoredCandidate
	for rows.Next() {
		var c suggestion.ScoredCandidate
		if err := rows.Scan(&c.MemberID, &c.OtherID, &c.Similarity); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (g *PgSuggestionRepository) ExistingPairs(ctx context.Context, pairs []suggestion.Pair) (map[suggestion.Pair]struct{}, error) {
	if len(pairs) == 0 {
		return map[suggestion.Pair]struct{}{}, nil
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	left := make([]string, len(pairs))
	right := make([]string, len(pairs))
	for i, pair := range pairs {
		left[i] = pair.MemberID.String()
		right[i] = pair.SuggestedID.String()
	}

	rows, err := tx.Query(ctx, suggestionExistingQuery, tenantID, left, right)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[suggestion.Pair]struct{})
	for rows.Next() {
		var pair suggestion.Pair
		if err := rows.Scan(&pair.MemberID, &pair.SuggestedID); err != nil {
			return nil, err
		}
		out[pair] = struct{}{}
	}
	return out, rows.Err()
}

func (g *PgSuggestionRepository) InsertSuggestions(ctx context.Context, suggestions []suggestion.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	args := make([]any, 0, len(suggestions)*4)
	for _, s := range suggestions {
		args = append(args, tenantID, s.Pair.MemberID, s.Pair.SuggestedID, s.Similarity)
	}
	query := `
        INSERT INTO member_merge_suggestions (tenant_id, member_id, suggested_id, similarity, created_at, updated_at)
        SELECT v.tenant_id, v.member_id, v.suggested_id, v.similarity, NOW(), NOW()
        FROM (VALUES ` + repo.ValuesPlaceholders(len(suggestions), 4) + `) AS v(tenant_id, member_id, suggested_id, similarity)`

	_, err = tx.Exec(ctx, query, args...)
	return err
}

func (g *PgSuggestionRepository) GetPaginated(ctx context.Context, params *suggestion.FindParams) ([]suggestion.Suggestion, int64, error) {
	if params == nil {
		params = &suggestion.FindParams{}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := tx.Query(ctx, suggestionListQuery+" "+repo.FormatLimitOffset(limit, offset), tenantID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []suggestion.Suggestion
	for rows.Next() {
		var s suggestion.Suggestion
		if err := rows.Scan(&s.Pair.MemberID, &s.Pair.SuggestedID, &s.Similarity, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.QueryRow(ctx, suggestionCountQuery, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (g *PgSuggestionRepository) RemovePair(ctx context.Context, pair suggestion.Pair) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, suggestionRemovePairQuery, tenantID, pair.MemberID, pair.SuggestedID)
	return err
}

func (g *PgSuggestionRepository) RemoveReferencing(ctx context.Context, memberID uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, suggestionRemoveReferencingQuery, tenantID, memberID)
	return err
}

func (g *PgSuggestionRepository) AddExclusion(ctx context.Context, pair suggestion.Pair) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, exclusionInsertQuery, tenantID, pair.MemberID, pair.SuggestedID)
	return err
}
