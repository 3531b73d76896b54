package workexperience

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies where a work experience row came from. Trust is
// strictly ordered: an explicit user edit outranks enrichment data, which
// outranks integration sync. Only the highest-trust source may overwrite
// an existing row on conflict.
type Source string

const (
	SourceUI          Source = "ui"
	SourceEnrichment  Source = "enrichment"
	SourceIntegration Source = "integration"
)

func (s Source) Valid() bool {
	switch s {
	case SourceUI, SourceEnrichment, SourceIntegration:
		return true
	}
	return false
}

// HighTrust reports whether this source is allowed to overwrite an
// existing row's title and dates on conflict.
func (s Source) HighTrust() bool { return s == SourceUI }

// Shape classifies an interval by which date fields are present. Each
// shape has its own conflict key in storage, so the set is closed.
type Shape string

const (
	// ShapeUndated has neither date. It means unknown-period membership
	// and is superseded by any dated row for the same pair.
	ShapeUndated Shape = "undated"
	// ShapeOpen has only a start date. The member is still employed.
	ShapeOpen Shape = "open"
	// ShapeClosed has both dates.
	ShapeClosed Shape = "closed"
)

type WorkExperience struct {
	id             uuid.UUID
	tenantID       uuid.UUID
	memberID       uuid.UUID
	organizationID uuid.UUID
	title          string
	dateStart      *time.Time
	dateEnd        *time.Time
	source         Source
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

func New(
	tenantID, memberID, organizationID uuid.UUID,
	title string,
	dateStart, dateEnd *time.Time,
	source Source,
) WorkExperience {
	return WorkExperience{
		tenantID:       tenantID,
		memberID:       memberID,
		organizationID: organizationID,
		title:          title,
		dateStart:      dateStart,
		dateEnd:        dateEnd,
		source:         source,
	}
}

func Hydrate(
	id, tenantID, memberID, organizationID uuid.UUID,
	title string,
	dateStart, dateEnd *time.Time,
	source Source,
	createdAt, updatedAt time.Time,
	deletedAt *time.Time,
) WorkExperience {
	return WorkExperience{
		id:             id,
		tenantID:       tenantID,
		memberID:       memberID,
		organizationID: organizationID,
		title:          title,
		dateStart:      dateStart,
		dateEnd:        dateEnd,
		source:         source,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		deletedAt:      deletedAt,
	}
}

func (w WorkExperience) ID() uuid.UUID             { return w.id }
func (w WorkExperience) TenantID() uuid.UUID       { return w.tenantID }
func (w WorkExperience) MemberID() uuid.UUID       { return w.memberID }
func (w WorkExperience) OrganizationID() uuid.UUID { return w.organizationID }
func (w WorkExperience) Title() string             { return w.title }
func (w WorkExperience) DateStart() *time.Time     { return w.dateStart }
func (w WorkExperience) DateEnd() *time.Time       { return w.dateEnd }
func (w WorkExperience) Source() Source            { return w.source }
func (w WorkExperience) CreatedAt() time.Time      { return w.createdAt }
func (w WorkExperience) UpdatedAt() time.Time      { return w.updatedAt }
func (w WorkExperience) DeletedAt() *time.Time     { return w.deletedAt }
func (w WorkExperience) IsZero() bool              { return w.memberID == uuid.Nil }
func (w WorkExperience) IsDeleted() bool           { return w.deletedAt != nil }

func (w WorkExperience) Shape() Shape {
	switch {
	case w.dateStart == nil:
		return ShapeUndated
	case w.dateEnd == nil:
		return ShapeOpen
	default:
		return ShapeClosed
	}
}

// Covers reports whether a dated interval contains ts. Undated rows
// never cover anything; they are matched by the createdAt fallbacks.
func (w WorkExperience) Covers(ts time.Time) bool {
	if w.dateStart == nil || w.dateStart.After(ts) {
		return false
	}
	return w.dateEnd == nil || !w.dateEnd.Before(ts)
}
