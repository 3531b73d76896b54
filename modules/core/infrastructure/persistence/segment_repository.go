package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atrium-hq/atrium/modules/core/domain/entities/segment"
	"github.com/atrium-hq/atrium/pkg/composables"
)

const (
	segmentSelectQuery = `SELECT s.id, s.tenant_id, s.name, s.created_at FROM segments s`

	segmentInsertQuery = `
        INSERT INTO segments (id, tenant_id, name, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, tenant_id, name, created_at`
)

type PgSegmentRepository struct{}

func NewSegmentRepository() segment.Repository {
	return &PgSegmentRepository{}
}

func (g *PgSegmentRepository) Create(ctx context.Context, s segment.Segment) (segment.Segment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return segment.Segment{}, err
	}

	id := s.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := tx.QueryRow(ctx, segmentInsertQuery, id, s.TenantID, s.Name)
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.CreatedAt); err != nil {
		return segment.Segment{}, errors.Wrap(err, "create segment")
	}
	return s, nil
}

func (g *PgSegmentRepository) GetByID(ctx context.Context, id uuid.UUID) (segment.Segment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return segment.Segment{}, err
	}

	var s segment.Segment
	row := tx.QueryRow(ctx, segmentSelectQuery+" WHERE s.id = $1", id)
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return segment.Segment{}, segment.ErrNotFound
		}
		return segment.Segment{}, err
	}
	return s, nil
}

func (g *PgSegmentRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]segment.Segment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, segmentSelectQuery+" WHERE s.tenant_id = $1 ORDER BY s.created_at", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []segment.Segment
	for rows.Next() {
		var s segment.Segment
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
