package workexperience

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/pkg/serrors"
)

var ErrNotFound = serrors.NotFound("work experience not found")

// Repository is the work experience side of the timeline store. Every
// read excludes soft-deleted rows.
type Repository interface {
	// Upsert writes one interval under the conflict key of its shape.
	// A dated insert supersedes any live undated row for the same
	// (member, organization) pair; an undated insert is dropped when a
	// live dated row already exists for the pair. On conflict only a
	// high-trust source overwrites title and dates. The returned entity
	// is zero when the write was dropped.
	Upsert(ctx context.Context, wx WorkExperience) (WorkExperience, error)

	// SoftDelete marks a row deleted. Deleting an already-deleted or
	// missing row is not an error.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// GetByID returns a live row by id.
	GetByID(ctx context.Context, id uuid.UUID) (WorkExperience, error)

	// FindCoveringInterval returns the live dated interval containing
	// ts, preferring the latest dateStart and breaking ties on lowest id.
	FindCoveringInterval(ctx context.Context, memberID uuid.UUID, ts time.Time) (WorkExperience, error)

	// FindMostRecentOpenBefore returns the live undated row with the
	// latest createdAt at or before ts.
	FindMostRecentOpenBefore(ctx context.Context, memberID uuid.UUID, ts time.Time) (WorkExperience, error)

	// FindEarliestEverUndated returns the live undated row with the
	// earliest createdAt, regardless of ts.
	FindEarliestEverUndated(ctx context.Context, memberID uuid.UUID) (WorkExperience, error)

	ListForMember(ctx context.Context, memberID uuid.UUID) ([]WorkExperience, error)

	// ReassignOrganization repoints live rows from one organization to
	// another. An undated row whose member already has a live undated
	// row at the target organization is soft-deleted instead of moved.
	// Returns the distinct members whose timelines changed.
	ReassignOrganization(ctx context.Context, fromOrgID, toOrgID uuid.UUID) ([]uuid.UUID, error)
}
