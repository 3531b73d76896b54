package activity

import (
	"time"

	"github.com/google/uuid"
)

// Activity is a timestamped action a member took on some platform. The
// organization reference is derived attribution written by the affiliation
// resolver, never user input.
type Activity struct {
	id             uuid.UUID
	tenantID       uuid.UUID
	segmentID      uuid.UUID
	memberID       uuid.UUID
	organizationID uuid.NullUUID
	activityType   string
	platform       string
	timestamp      time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

func New(
	tenantID, segmentID, memberID uuid.UUID,
	activityType, platform string,
	timestamp time.Time,
) Activity {
	return Activity{
		tenantID:     tenantID,
		segmentID:    segmentID,
		memberID:     memberID,
		activityType: activityType,
		platform:     platform,
		timestamp:    timestamp,
	}
}

func Hydrate(
	id, tenantID, segmentID, memberID uuid.UUID,
	organizationID uuid.NullUUID,
	activityType, platform string,
	timestamp, createdAt, updatedAt time.Time,
) Activity {
	return Activity{
		id:             id,
		tenantID:       tenantID,
		segmentID:      segmentID,
		memberID:       memberID,
		organizationID: organizationID,
		activityType:   activityType,
		platform:       platform,
		timestamp:      timestamp,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (a Activity) ID() uuid.UUID                 { return a.id }
func (a Activity) TenantID() uuid.UUID           { return a.tenantID }
func (a Activity) SegmentID() uuid.UUID          { return a.segmentID }
func (a Activity) MemberID() uuid.UUID           { return a.memberID }
func (a Activity) OrganizationID() uuid.NullUUID { return a.organizationID }
func (a Activity) Type() string                  { return a.activityType }
func (a Activity) Platform() string              { return a.platform }
func (a Activity) Timestamp() time.Time          { return a.timestamp }
func (a Activity) CreatedAt() time.Time          { return a.createdAt }
func (a Activity) UpdatedAt() time.Time          { return a.updatedAt }
func (a Activity) IsZero() bool                  { return a.id == uuid.Nil }

func (a Activity) WithOrganizationID(organizationID uuid.NullUUID) Activity {
	a.organizationID = organizationID
	return a
}
