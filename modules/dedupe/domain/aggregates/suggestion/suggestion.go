package suggestion

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Pair is an unordered member pair stored in canonical order, smaller
// uuid first, so (a,b) and (b,a) are the same row.
type Pair struct {
	MemberID    uuid.UUID
	SuggestedID uuid.UUID
}

func NewPair(a, b uuid.UUID) Pair {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return Pair{MemberID: a, SuggestedID: b}
}

func (p Pair) References(memberID uuid.UUID) bool {
	return p.MemberID == memberID || p.SuggestedID == memberID
}

// Suggestion is a scored candidate duplicate pair awaiting review.
type Suggestion struct {
	Pair       Pair
	Similarity float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
