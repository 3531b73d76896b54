package manual

import (
	"time"

	"github.com/google/uuid"
)

// ManualAffiliation is a human-entered override of a member's affiliation
// within one segment. A null organization is a deliberate statement that
// the member acts as an individual there; it still wins over any inferred
// work experience.
type ManualAffiliation struct {
	id             uuid.UUID
	tenantID       uuid.UUID
	memberID       uuid.UUID
	segmentID      uuid.UUID
	organizationID uuid.NullUUID
	dateStart      *time.Time
	dateEnd        *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

func New(
	tenantID, memberID, segmentID uuid.UUID,
	organizationID uuid.NullUUID,
	dateStart, dateEnd *time.Time,
) ManualAffiliation {
	return ManualAffiliation{
		tenantID:       tenantID,
		memberID:       memberID,
		segmentID:      segmentID,
		organizationID: organizationID,
		dateStart:      dateStart,
		dateEnd:        dateEnd,
	}
}

func Hydrate(
	id, tenantID, memberID, segmentID uuid.UUID,
	organizationID uuid.NullUUID,
	dateStart, dateEnd *time.Time,
	createdAt, updatedAt time.Time,
) ManualAffiliation {
	return ManualAffiliation{
		id:             id,
		tenantID:       tenantID,
		memberID:       memberID,
		segmentID:      segmentID,
		organizationID: organizationID,
		dateStart:      dateStart,
		dateEnd:        dateEnd,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (a ManualAffiliation) ID() uuid.UUID                  { return a.id }
func (a ManualAffiliation) TenantID() uuid.UUID            { return a.tenantID }
func (a ManualAffiliation) MemberID() uuid.UUID            { return a.memberID }
func (a ManualAffiliation) SegmentID() uuid.UUID           { return a.segmentID }
func (a ManualAffiliation) OrganizationID() uuid.NullUUID  { return a.organizationID }
func (a ManualAffiliation) DateStart() *time.Time          { return a.dateStart }
func (a ManualAffiliation) DateEnd() *time.Time            { return a.dateEnd }
func (a ManualAffiliation) CreatedAt() time.Time           { return a.createdAt }
func (a ManualAffiliation) UpdatedAt() time.Time           { return a.updatedAt }
func (a ManualAffiliation) IsZero() bool                   { return a.memberID == uuid.Nil }

// Covers reports whether ts falls inside the override window. An override
// with no dates applies at every point in time.
func (a ManualAffiliation) Covers(ts time.Time) bool {
	if a.dateStart != nil && a.dateStart.After(ts) {
		return false
	}
	return a.dateEnd == nil || !a.dateEnd.Before(ts)
}
