package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/pkg/serrors"
)

var ErrNotFound = serrors.NotFound("tenant not found")

type Tenant struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, t Tenant) (Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
}
