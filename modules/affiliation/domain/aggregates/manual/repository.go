package manual

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/pkg/serrors"
)

var ErrNotFound = serrors.NotFound("manual affiliation not found")

type Repository interface {
	// Upsert replaces any existing override for the same
	// (member, segment, dateStart) window.
	Upsert(ctx context.Context, a ManualAffiliation) (ManualAffiliation, error)

	Delete(ctx context.Context, id uuid.UUID) error

	GetByID(ctx context.Context, id uuid.UUID) (ManualAffiliation, error)

	// FindCovering returns the override whose window contains ts,
	// preferring the latest dateStart and breaking ties on lowest id.
	FindCovering(ctx context.Context, memberID, segmentID uuid.UUID, ts time.Time) (ManualAffiliation, error)

	ListForMember(ctx context.Context, memberID uuid.UUID) ([]ManualAffiliation, error)

	// ReassignOrganization repoints overrides from one organization to
	// another and returns the distinct members affected.
	ReassignOrganization(ctx context.Context, fromOrgID, toOrgID uuid.UUID) ([]uuid.UUID, error)
}
