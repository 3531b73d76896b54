package member

import (
	"strings"
	"time"
)

type IdentityDTO struct {
	Platform string `json:"platform" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type CreateDTO struct {
	DisplayName string        `json:"displayName" validate:"required"`
	Emails      []string      `json:"emails" validate:"dive,email"`
	JoinedAt    *time.Time    `json:"joinedAt"`
	Identities  []IdentityDTO `json:"identities" validate:"min=1,dive"`
}

func (d *CreateDTO) Normalize() {
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	for i := range d.Emails {
		d.Emails[i] = strings.ToLower(strings.TrimSpace(d.Emails[i]))
	}
	for i := range d.Identities {
		d.Identities[i].Platform = strings.ToLower(strings.TrimSpace(d.Identities[i].Platform))
		d.Identities[i].Username = strings.TrimSpace(d.Identities[i].Username)
	}
}
