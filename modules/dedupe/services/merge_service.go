package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/modules/dedupe/domain/aggregates/suggestion"
	"github.com/atrium-hq/atrium/modules/member/domain/aggregates/member"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/eventbus"
	"github.com/atrium-hq/atrium/pkg/metrics"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

// ActivityMover reassigns all activities authored by one member to
// another inside the caller's transaction.
type ActivityMover interface {
	MoveBetweenMembers(ctx context.Context, fromID, toID uuid.UUID) (int64, error)
}

// MergeService executes confirmed merges and rejections. A merge moves
// identities and activities from the loser to the winner, folds the
// profile, cleans the suggestion ledger and deletes the loser, all in one
// transaction. A failed identity move aborts everything.
type MergeService struct {
	members     member.Repository
	activities  ActivityMover
	suggestions suggestion.Repository
	publisher   eventbus.EventBus
}

func NewMergeService(
	members member.Repository,
	activities ActivityMover,
	suggestions suggestion.Repository,
	publisher eventbus.EventBus,
) *MergeService {
	return &MergeService{
		members:     members,
		activities:  activities,
		suggestions: suggestions,
		publisher:   publisher,
	}
}

func (s *MergeService) ConfirmMerge(ctx context.Context, winnerID, loserID uuid.UUID) error {
	if winnerID == loserID {
		return serrors.Validation("cannot merge a member into itself")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	err = composables.InTenantTx(ctx, func(txCtx context.Context) error {
		winner, err := s.members.GetByID(txCtx, winnerID)
		if err != nil {
			return err
		}
		loser, err := s.members.GetByID(txCtx, loserID)
		if err != nil {
			return err
		}

		identitiesToMove := make([]member.Identity, 0, len(loser.Identities()))
		for _, identity := range loser.Identities() {
			if !winner.HasIdentity(identity) {
				identitiesToMove = append(identitiesToMove, identity)
			}
		}
		if err := s.members.MoveIdentities(txCtx, loserID, winnerID, identitiesToMove); err != nil {
			return err
		}

		if _, err := s.activities.MoveBetweenMembers(txCtx, loserID, winnerID); err != nil {
			return err
		}

		merged := member.MergeProfile(winner, loser)
		if err := s.members.UpdateProfile(txCtx, merged); err != nil {
			return err
		}

		if err := s.suggestions.RemovePair(txCtx, suggestion.NewPair(winnerID, loserID)); err != nil {
			return err
		}
		// Other suggestions naming the loser would dangle once the row
		// is gone.
		if err := s.suggestions.RemoveReferencing(txCtx, loserID); err != nil {
			return err
		}

		return s.members.Delete(txCtx, loserID)
	})
	if err != nil {
		metrics.MergesExecuted.WithLabelValues("member", "failed").Inc()
		return err
	}

	metrics.MergesExecuted.WithLabelValues("member", "merged").Inc()
	s.publisher.Publish(&member.MergedEvent{TenantID: tenantID, WinnerID: winnerID, LoserID: loserID})
	return nil
}

// RejectSuggestion removes the pair from the ledger and records it as
// never-to-merge. Terminal: no strategy re-proposes an excluded pair.
func (s *MergeService) RejectSuggestion(ctx context.Context, a, b uuid.UUID) error {
	if a == b {
		return serrors.Validation("cannot exclude a member against itself")
	}

	pair := suggestion.NewPair(a, b)
	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if err := s.suggestions.RemovePair(txCtx, pair); err != nil {
			return err
		}
		return s.suggestions.AddExclusion(txCtx, pair)
	})
	if err != nil {
		metrics.MergesExecuted.WithLabelValues("member", "reject_failed").Inc()
		return err
	}
	metrics.MergesExecuted.WithLabelValues("member", "rejected").Inc()
	return nil
}
