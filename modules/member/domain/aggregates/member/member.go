package member

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Identity is one platform-scoped handle of a member. (platform, username)
// is not unique across members until a merge collapses the duplicates.
type Identity struct {
	Platform  string
	Username  string
	CreatedAt time.Time
}

func (i Identity) Equal(other Identity) bool {
	return i.Platform == other.Platform && i.Username == other.Username
}

type Member struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	displayName string
	emails      []string
	score       int
	joinedAt    time.Time
	identities  []Identity
	createdAt   time.Time
	updatedAt   time.Time
}

func New(tenantID uuid.UUID, displayName string, joinedAt time.Time) Member {
	return Member{
		tenantID:    tenantID,
		displayName: strings.TrimSpace(displayName),
		joinedAt:    joinedAt,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	displayName string,
	emails []string,
	score int,
	joinedAt time.Time,
	identities []Identity,
	createdAt time.Time,
	updatedAt time.Time,
) Member {
	return Member{
		id:          id,
		tenantID:    tenantID,
		displayName: strings.TrimSpace(displayName),
		emails:      emails,
		score:       score,
		joinedAt:    joinedAt,
		identities:  identities,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (m Member) ID() uuid.UUID          { return m.id }
func (m Member) TenantID() uuid.UUID    { return m.tenantID }
func (m Member) DisplayName() string    { return m.displayName }
func (m Member) Emails() []string       { return m.emails }
func (m Member) Score() int             { return m.score }
func (m Member) JoinedAt() time.Time    { return m.joinedAt }
func (m Member) Identities() []Identity { return m.identities }
func (m Member) CreatedAt() time.Time   { return m.createdAt }
func (m Member) UpdatedAt() time.Time   { return m.updatedAt }
func (m Member) IsZero() bool           { return m.id == uuid.Nil }

func (m Member) WithEmails(emails []string) Member {
	m.emails = emails
	return m
}

func (m Member) WithScore(score int) Member {
	m.score = score
	return m
}

func (m Member) WithJoinedAt(joinedAt time.Time) Member {
	m.joinedAt = joinedAt
	return m
}

func (m Member) WithIdentities(identities []Identity) Member {
	m.identities = identities
	return m
}

func (m Member) HasIdentity(identity Identity) bool {
	for _, existing := range m.identities {
		if existing.Equal(identity) {
			return true
		}
	}
	return false
}

// epochSlack guards against placeholder joinedAt values derived from
// activities without a timestamp: anything at or before the Unix epoch
// (with a few days of slack for timezone skew) is not a real join date.
const epochSlack = 5 * 24 * time.Hour

func realJoinDate(t time.Time) bool {
	return t.Add(-epochSlack).Unix() > 0
}

// MergeProfile folds the loser's profile into the winner's: earliest real
// join date, union of emails, max score. The winner's display name always
// survives.
func MergeProfile(winner, loser Member) Member {
	switch {
	case !realJoinDate(winner.joinedAt) && realJoinDate(loser.joinedAt):
		winner.joinedAt = loser.joinedAt
	case realJoinDate(winner.joinedAt) && realJoinDate(loser.joinedAt):
		if loser.joinedAt.Before(winner.joinedAt) {
			winner.joinedAt = loser.joinedAt
		}
	}

	winner.emails = unionEmails(winner.emails, loser.emails)

	if loser.score > winner.score {
		winner.score = loser.score
	}
	return winner
}

func unionEmails(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, email := range list {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				continue
			}
			if _, ok := seen[email]; ok {
				continue
			}
			seen[email] = struct{}{}
			out = append(out, email)
		}
	}
	sort.Strings(out)
	return out
}
