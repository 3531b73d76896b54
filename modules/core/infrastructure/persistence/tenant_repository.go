package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atrium-hq/atrium/modules/core/domain/entities/tenant"
	"github.com/atrium-hq/atrium/pkg/composables"
)

const (
	tenantSelectQuery = `SELECT t.id, t.name, t.created_at, t.updated_at FROM tenants t`

	tenantInsertQuery = `
        INSERT INTO tenants (id, name, created_at, updated_at)
        VALUES ($1, $2, NOW(), NOW())
        RETURNING id, name, created_at, updated_at`
)

type PgTenantRepository struct{}

func NewTenantRepository() tenant.Repository {
	return &PgTenantRepository{}
}

func (g *PgTenantRepository) Create(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return tenant.Tenant{}, err
	}

	id := t.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := tx.QueryRow(ctx, tenantInsertQuery, id, t.Name)
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "create tenant")
	}
	return t, nil
}

func (g *PgTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return tenant.Tenant{}, err
	}

	var t tenant.Tenant
	row := tx.QueryRow(ctx, tenantSelectQuery+" WHERE t.id = $1", id)
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tenant.Tenant{}, tenant.ErrNotFound
		}
		return tenant.Tenant{}, err
	}
	return t, nil
}

func (g *PgTenantRepository) List(ctx context.Context) ([]tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, tenantSelectQuery+" ORDER BY t.created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tenant.Tenant
	for rows.Next() {
		var t tenant.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
