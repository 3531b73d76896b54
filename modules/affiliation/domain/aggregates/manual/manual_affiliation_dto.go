package manual

import (
	"time"

	"github.com/google/uuid"
)

// SetDTO carries an explicit override. OrganizationID with Valid false
// means "deliberately no organization", which is still an override.
type SetDTO struct {
	MemberID       uuid.UUID `validate:"required"`
	SegmentID      uuid.UUID `validate:"required"`
	OrganizationID uuid.NullUUID
	DateStart      *time.Time
	DateEnd        *time.Time
}
