package workexperience

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type UpsertDTO struct {
	MemberID       uuid.UUID `validate:"required"`
	OrganizationID uuid.UUID `validate:"required"`
	Title          string
	DateStart      *time.Time
	DateEnd        *time.Time
	Source         string `validate:"required"`
}

func (d *UpsertDTO) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Source = strings.ToLower(strings.TrimSpace(d.Source))
}
