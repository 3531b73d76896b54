package member

import (
	"context"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/pkg/serrors"
)

var (
	ErrNotFound = serrors.NotFound("member not found")
)

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Member, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (Member, error)
	// GetByIdentity returns the members owning the given (platform, username)
	// handle. More than one match is legitimate before a merge.
	GetByIdentity(ctx context.Context, platform, username string) ([]Member, error)
	Create(ctx context.Context, m Member) (Member, error)
	UpdateProfile(ctx context.Context, m Member) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetIdentities(ctx context.Context, memberIDs []uuid.UUID) (map[uuid.UUID][]Identity, error)
	AddIdentity(ctx context.Context, memberID uuid.UUID, identity Identity) error
	// MoveIdentities reassigns each given identity from one member to
	// another. Every single move must affect exactly one row; any other
	// count is a consistency error and the caller's transaction must abort.
	MoveIdentities(ctx context.Context, fromID, toID uuid.UUID, identities []Identity) error
}
