package organization

import "github.com/google/uuid"

// MergedEvent fires after a confirmed organization merge commits.
type MergedEvent struct {
	TenantID uuid.UUID
	WinnerID uuid.UUID
	LoserID  uuid.UUID
	// AffectedMembers lists members whose work experiences or manual
	// affiliations were rewritten by the merge and need re-attribution.
	AffectedMembers []uuid.UUID
}
