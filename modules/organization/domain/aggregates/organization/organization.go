package organization

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Identity is a platform-scoped handle of an organization (e.g. a GitHub
// org slug or a LinkedIn company name).
type Identity struct {
	Platform string
	Name     string
}

func (i Identity) Equal(other Identity) bool {
	return i.Platform == other.Platform && i.Name == other.Name
}

type Organization struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	displayName string
	identities  []Identity
	createdAt   time.Time
	updatedAt   time.Time
}

func New(tenantID uuid.UUID, displayName string) Organization {
	return Organization{
		tenantID:    tenantID,
		displayName: strings.TrimSpace(displayName),
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	displayName string,
	identities []Identity,
	createdAt time.Time,
	updatedAt time.Time,
) Organization {
	return Organization{
		id:          id,
		tenantID:    tenantID,
		displayName: strings.TrimSpace(displayName),
		identities:  identities,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (o Organization) ID() uuid.UUID          { return o.id }
func (o Organization) TenantID() uuid.UUID    { return o.tenantID }
func (o Organization) DisplayName() string    { return o.displayName }
func (o Organization) Identities() []Identity { return o.identities }
func (o Organization) CreatedAt() time.Time   { return o.createdAt }
func (o Organization) UpdatedAt() time.Time   { return o.updatedAt }
func (o Organization) IsZero() bool           { return o.id == uuid.Nil }

func (o Organization) WithIdentities(identities []Identity) Organization {
	o.identities = identities
	return o
}

func (o Organization) HasIdentity(identity Identity) bool {
	for _, existing := range o.identities {
		if existing.Equal(identity) {
			return true
		}
	}
	return false
}
