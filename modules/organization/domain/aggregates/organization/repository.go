package organization

import (
	"context"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/pkg/serrors"
)

var (
	ErrNotFound = serrors.NotFound("organization not found")
)

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Organization, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (Organization, error)
	Create(ctx context.Context, o Organization) (Organization, error)
	Delete(ctx context.Context, id uuid.UUID) error

	GetIdentities(ctx context.Context, orgIDs []uuid.UUID) (map[uuid.UUID][]Identity, error)
	// MoveIdentities reassigns each given identity from one organization to
	// another; every move must affect exactly one row or the caller's
	// transaction aborts with a consistency error.
	MoveIdentities(ctx context.Context, fromID, toID uuid.UUID, identities []Identity) error
	// MoveSegments merges segment membership of one organization into
	// another, dropping rows the target already has.
	MoveSegments(ctx context.Context, fromID, toID uuid.UUID) error
}

// DuplicateCandidate is a scored pair of organizations suspected to be the
// same real-world entity, produced by the fuzzy duplicate finder.
type DuplicateCandidate struct {
	PrimaryID   uuid.UUID
	SecondaryID uuid.UUID
	Similarity  float64
}
