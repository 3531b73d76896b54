package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/manual"
	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/workexperience"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/metrics"
)

// AttributionTarget is the slice of an activity the resolver needs to
// rewrite its organization attribution.
type AttributionTarget struct {
	ID             uuid.UUID
	SegmentID      uuid.UUID
	Timestamp      time.Time
	OrganizationID uuid.NullUUID
}

// ActivityAttributionStore is implemented by the activity repository.
type ActivityAttributionStore interface {
	FindAttributionTargets(ctx context.Context, memberID uuid.UUID) ([]AttributionTarget, error)
	UpdateAttribution(ctx context.Context, activityID uuid.UUID, organizationID uuid.NullUUID) error
}

// AffiliationService resolves which organization a member's activity at a
// point in time belongs to. Resolution is a fixed priority chain over the
// timeline store; each rule either yields a result and stops the chain or
// passes to the next one. A manual override with a null organization is a
// result: it short-circuits every inferred rule.
type AffiliationService struct {
	experiences workexperience.Repository
	overrides   manual.Repository
	activities  ActivityAttributionStore
}

func NewAffiliationService(
	experiences workexperience.Repository,
	overrides manual.Repository,
	activities ActivityAttributionStore,
) *AffiliationService {
	return &AffiliationService{
		experiences: experiences,
		overrides:   overrides,
		activities:  activities,
	}
}

// Resolve applies, in order: manual override covering ts, dated interval
// covering ts, most recent undated row created at or before ts, earliest
// undated row ever. An invalid uuid means no organization.
func (s *AffiliationService) Resolve(ctx context.Context, memberID, segmentID uuid.UUID, ts time.Time) (uuid.NullUUID, error) {
	timer := prometheus.NewTimer(metrics.ResolveDuration)
	defer timer.ObserveDuration()

	override, err := s.overrides.FindCovering(ctx, memberID, segmentID, ts)
	switch {
	case err == nil:
		return override.OrganizationID(), nil
	case !errors.Is(err, manual.ErrNotFound):
		return uuid.NullUUID{}, err
	}

	for _, find := range []func() (workexperience.WorkExperience, error){
		func() (workexperience.WorkExperience, error) { return s.experiences.FindCoveringInterval(ctx, memberID, ts) },
		func() (workexperience.WorkExperience, error) {
			return s.experiences.FindMostRecentOpenBefore(ctx, memberID, ts)
		},
		func() (workexperience.WorkExperience, error) { return s.experiences.FindEarliestEverUndated(ctx, memberID) },
	} {
		wx, err := find()
		switch {
		case err == nil:
			return uuid.NullUUID{UUID: wx.OrganizationID(), Valid: true}, nil
		case !errors.Is(err, workexperience.ErrNotFound):
			return uuid.NullUUID{}, err
		}
	}

	return uuid.NullUUID{}, nil
}

// RecomputeForMember re-resolves every activity of the member and rewrites
// the attribution where it changed. Safe to re-run; a pass over an
// unchanged timeline writes nothing.
func (s *AffiliationService) RecomputeForMember(ctx context.Context, memberID uuid.UUID) (int64, error) {
	var rewritten int64
	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		targets, err := s.activities.FindAttributionTargets(txCtx, memberID)
		if err != nil {
			return errors.Wrap(err, "load attribution targets")
		}
		for _, target := range targets {
			resolved, err := s.Resolve(txCtx, memberID, target.SegmentID, target.Timestamp)
			if err != nil {
				return err
			}
			if resolved == target.OrganizationID {
				continue
			}
			if err := s.activities.UpdateAttribution(txCtx, target.ID, resolved); err != nil {
				return err
			}
			rewritten++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.RecomputedActivities.Add(float64(rewritten))
	return rewritten, nil
}
