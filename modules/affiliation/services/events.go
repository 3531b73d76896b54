package services

import "github.com/google/uuid"

// TimelineChangedEvent fires after any work experience or manual
// affiliation mutation. Subscribers recompute the member's activity
// attribution asynchronously.
type TimelineChangedEvent struct {
	TenantID uuid.UUID
	MemberID uuid.UUID
}
