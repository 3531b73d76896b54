package suggestion

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/pkg/serrors"
)

var ErrNotFound = serrors.NotFound("merge suggestion not found")

// Candidate is a raw pair emitted by a scan strategy, not yet canonical.
type Candidate struct {
	MemberID uuid.UUID
	OtherID  uuid.UUID
}

// ScoredCandidate carries the raw similarity computed by the store.
type ScoredCandidate struct {
	Candidate
	Similarity float64
}

type FindParams struct {
	Limit  int
	Offset int
}

// Repository owns the suggestion and exclusion ledgers plus the three
// candidate scans. Scans already exclude pairs present in either ledger;
// the generator still rechecks before insert since a pair can be
// confirmed or rejected between scan and write.
type Repository interface {
	// ByUsername finds members created since windowStart sharing an
	// identical username on a different platform with another member.
	ByUsername(ctx context.Context, windowStart time.Time) ([]Candidate, error)

	// ByEmail finds members created since windowStart whose email sets
	// intersect another member's.
	ByEmail(ctx context.Context, windowStart time.Time) ([]Candidate, error)

	// BySimilarity computes trigram similarity between cross-platform
	// usernames over a bounded sample of recent members, keeping the
	// maximum raw score above 0.5 per pair.
	BySimilarity(ctx context.Context, windowStart time.Time, sampleLimit int) ([]ScoredCandidate, error)

	// ExistingPairs reports which of the given canonical pairs are
	// already present in the suggestion or exclusion ledger.
	ExistingPairs(ctx context.Context, pairs []Pair) (map[Pair]struct{}, error)

	InsertSuggestions(ctx context.Context, suggestions []Suggestion) error

	GetPaginated(ctx context.Context, params *FindParams) ([]Suggestion, int64, error)

	RemovePair(ctx context.Context, pair Pair) error

	// RemoveReferencing deletes every suggestion naming the member on
	// either side. Used after a merge retires the loser id.
	RemoveReferencing(ctx context.Context, memberID uuid.UUID) error

	AddExclusion(ctx context.Context, pair Pair) error
}
