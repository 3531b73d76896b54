package segment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/pkg/serrors"
)

var ErrNotFound = serrors.NotFound("segment not found")

// Segment is the sub-tenant scope used by manual affiliation overrides
// and activity attribution.
type Segment struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, s Segment) (Segment, error)
	GetByID(ctx context.Context, id uuid.UUID) (Segment, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]Segment, error)
}
