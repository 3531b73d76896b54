package member

import "github.com/google/uuid"

type CreatedEvent struct {
	TenantID uuid.UUID
	Result   Member
}

// MergedEvent fires after a confirmed member merge commits. The loser no
// longer exists when subscribers run.
type MergedEvent struct {
	TenantID uuid.UUID
	WinnerID uuid.UUID
	LoserID  uuid.UUID
}
