package viewmodels

import (
	"time"

	"github.com/atrium-hq/atrium/modules/member/domain/aggregates/member"
)

type Identity struct {
	Platform string `json:"platform"`
	Username string `json:"username"`
}

type Member struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Emails      []string   `json:"emails"`
	Score       int        `json:"score"`
	JoinedAt    time.Time  `json:"joinedAt"`
	Identities  []Identity `json:"identities"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func MemberFromEntity(m member.Member) *Member {
	identities := make([]Identity, 0, len(m.Identities()))
	for _, identity := range m.Identities() {
		identities = append(identities, Identity{
			Platform: identity.Platform,
			Username: identity.Username,
		})
	}
	return &Member{
		ID:          m.ID().String(),
		DisplayName: m.DisplayName(),
		Emails:      m.Emails(),
		Score:       m.Score(),
		JoinedAt:    m.JoinedAt(),
		Identities:  identities,
		CreatedAt:   m.CreatedAt(),
		UpdatedAt:   m.UpdatedAt(),
	}
}
