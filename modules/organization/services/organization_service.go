package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/atrium-hq/atrium/modules/organization/domain/aggregates/organization"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/eventbus"
	"github.com/atrium-hq/atrium/pkg/metrics"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

// TimelineReassigner repoints timeline rows (work experiences or manual
// overrides) from one organization to another, preserving the timeline
// invariants. It reports the members whose timelines changed.
type TimelineReassigner interface {
	ReassignOrganization(ctx context.Context, fromOrgID, toOrgID uuid.UUID) ([]uuid.UUID, error)
}

// ActivityReassigner rewrites the derived attribution column of activities
// referencing a retired organization.
type ActivityReassigner interface {
	ReassignOrganization(ctx context.Context, fromOrgID, toOrgID uuid.UUID) (int64, error)
}

type OrganizationService struct {
	repo        organization.Repository
	experiences TimelineReassigner
	overrides   TimelineReassigner
	activities  ActivityReassigner
	publisher   eventbus.EventBus
}

func NewOrganizationService(
	repo organization.Repository,
	experiences TimelineReassigner,
	overrides TimelineReassigner,
	activities ActivityReassigner,
	publisher eventbus.EventBus,
) *OrganizationService {
	return &OrganizationService{
		repo:        repo,
		experiences: experiences,
		overrides:   overrides,
		activities:  activities,
		publisher:   publisher,
	}
}

func (s *OrganizationService) GetPaginated(ctx context.Context, params *organization.FindParams) ([]organization.Organization, int64, error) {
	return s.repo.GetPaginated(ctx, params)
}

func (s *OrganizationService) GetByID(ctx context.Context, id uuid.UUID) (organization.Organization, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *OrganizationService) Create(ctx context.Context, displayName string, identities []organization.Identity) (organization.Organization, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return organization.Organization{}, serrors.Validation("organization display name is required")
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return organization.Organization{}, err
	}
	entity := organization.New(tenantID, displayName).WithIdentities(identities)
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (organization.Organization, error) {
		return s.repo.Create(txCtx, entity)
	})
}

// Merge folds the loser organization into the winner: identities move over
// (duplicates are skipped), segment membership is merged, and every work
// experience, manual affiliation and activity referencing the loser is
// repointed. All of it commits atomically; the loser is deleted last.
func (s *OrganizationService) Merge(ctx context.Context, winnerID, loserID uuid.UUID) error {
	if winnerID == loserID {
		return serrors.Validation("cannot merge an organization into itself")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	var affected []uuid.UUID
	err = composables.InTenantTx(ctx, func(txCtx context.Context) error {
		winner, err := s.repo.GetByID(txCtx, winnerID)
		if err != nil {
			return err
		}
		loser, err := s.repo.GetByID(txCtx, loserID)
		if err != nil {
			return err
		}

		identitiesToMove := make([]organization.Identity, 0, len(loser.Identities()))
		for _, identity := range loser.Identities() {
			if !winner.HasIdentity(identity) {
				identitiesToMove = append(identitiesToMove, identity)
			}
		}
		if err := s.repo.MoveIdentities(txCtx, loserID, winnerID, identitiesToMove); err != nil {
			return err
		}

		if err := s.repo.MoveSegments(txCtx, loserID, winnerID); err != nil {
			return err
		}

		fromExperiences, err := s.experiences.ReassignOrganization(txCtx, loserID, winnerID)
		if err != nil {
			return err
		}
		fromOverrides, err := s.overrides.ReassignOrganization(txCtx, loserID, winnerID)
		if err != nil {
			return err
		}
		affected = mergeMemberIDs(fromExperiences, fromOverrides)

		if _, err := s.activities.ReassignOrganization(txCtx, loserID, winnerID); err != nil {
			return err
		}

		return s.repo.Delete(txCtx, loserID)
	})
	if err != nil {
		metrics.MergesExecuted.WithLabelValues("organization", "failed").Inc()
		return err
	}

	metrics.MergesExecuted.WithLabelValues("organization", "merged").Inc()
	s.publisher.Publish(&organization.MergedEvent{
		TenantID:        tenantID,
		WinnerID:        winnerID,
		LoserID:         loserID,
		AffectedMembers: affected,
	})
	return nil
}

// FindDuplicates scans a bounded window of organizations and scores display
// name pairs with a normalized Levenshtein similarity. Pairs scoring above
// 0.5 are reported, capped at 0.95 since a name match is never definitive.
func (s *OrganizationService) FindDuplicates(ctx context.Context, limit int) ([]organization.DuplicateCandidate, error) {
	if limit <= 0 {
		limit = 500
	}
	orgs, _, err := s.repo.GetPaginated(ctx, &organization.FindParams{Limit: limit})
	if err != nil {
		return nil, err
	}

	var out []organization.DuplicateCandidate
	for i := 0; i < len(orgs); i++ {
		for j := i + 1; j < len(orgs); j++ {
			score := nameSimilarity(orgs[i].DisplayName(), orgs[j].DisplayName())
			if score <= 0.5 {
				continue
			}
			if score > 0.95 {
				score = 0.95
			}
			a, b := orgs[i].ID(), orgs[j].ID()
			if strings.Compare(a.String(), b.String()) > 0 {
				a, b = b, a
			}
			out = append(out, organization.DuplicateCandidate{
				PrimaryID:   a,
				SecondaryID: b,
				Similarity:  score,
			})
		}
	}
	return out, nil
}

func mergeMemberIDs(groups ...[]uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, group := range groups {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func nameSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1 - float64(dist)/float64(longest)
}
