package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/pkg/serrors"
)

var ErrNotFound = serrors.NotFound("activity not found")

type FindParams struct {
	MemberID uuid.UUID
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, a Activity) (Activity, error)
	GetByID(ctx context.Context, id uuid.UUID) (Activity, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Activity, int64, error)

	// MoveBetweenMembers reassigns every activity authored by one member
	// to another, tenant-scoped. Returns the number of rows moved.
	MoveBetweenMembers(ctx context.Context, fromID, toID uuid.UUID) (int64, error)

	// ReassignOrganization rewrites the attribution of activities
	// referencing one organization to another.
	ReassignOrganization(ctx context.Context, fromOrgID, toOrgID uuid.UUID) (int64, error)
}

type CreateDTO struct {
	MemberID  uuid.UUID `validate:"required"`
	Type      string    `validate:"required"`
	Platform  string    `validate:"required"`
	Timestamp time.Time `validate:"required"`
}
