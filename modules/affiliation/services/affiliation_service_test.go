package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/manual"
	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/workexperience"
	"github.com/atrium-hq/atrium/pkg/composables"
)

type fakeExperienceStore struct {
	rows []workexperience.WorkExperience
}

func (f *fakeExperienceStore) Upsert(_ context.Context, wx workexperience.WorkExperience) (workexperience.WorkExperience, error) {
	f.rows = append(f.rows, wx)
	return wx, nil
}

func (f *fakeExperienceStore) SoftDelete(context.Context, uuid.UUID) error { return nil }

func (f *fakeExperienceStore) GetByID(context.Context, uuid.UUID) (workexperience.WorkExperience, error) {
	return workexperience.WorkExperience{}, workexperience.ErrNotFound
}

func (f *fakeExperienceStore) FindCoveringInterval(_ context.Context, memberID uuid.UUID, ts time.Time) (workexperience.WorkExperience, error) {
	var matches []workexperience.WorkExperience
	for _, wx := range f.rows {
		if wx.MemberID() == memberID && !wx.IsDeleted() && wx.DateStart() != nil && wx.Covers(ts) {
			matches = append(matches, wx)
		}
	}
	if len(matches) == 0 {
		return workexperience.WorkExperience{}, workexperience.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DateStart().After(*matches[j].DateStart())
	})
	return matches[0], nil
}

func (f *fakeExperienceStore) FindMostRecentOpenBefore(_ context.Context, memberID uuid.UUID, ts time.Time) (workexperience.WorkExperience, error) {
	var best workexperience.WorkExperience
	for _, wx := range f.rows {
		if wx.MemberID() != memberID || wx.IsDeleted() || wx.DateStart() != nil || wx.CreatedAt().After(ts) {
			continue
		}
		if best.IsZero() || wx.CreatedAt().After(best.CreatedAt()) {
			best = wx
		}
	}
	if best.IsZero() {
		return workexperience.WorkExperience{}, workexperience.ErrNotFound
	}
	return best, nil
}

func (f *fakeExperienceStore) FindEarliestEverUndated(_ context.Context, memberID uuid.UUID) (workexperience.WorkExperience, error) {
	var best workexperience.WorkExperience
	for _, wx := range f.rows {
		if wx.MemberID() != memberID || wx.IsDeleted() || wx.DateStart() != nil {
			continue
		}
		if best.IsZero() || wx.CreatedAt().Before(best.CreatedAt()) {
			best = wx
		}
	}
	if best.IsZero() {
		return workexperience.WorkExperience{}, workexperience.ErrNotFound
	}
	return best, nil
}

func (f *fakeExperienceStore) ListForMember(_ context.Context, memberID uuid.UUID) ([]workexperience.WorkExperience, error) {
	var out []workexperience.WorkExperience
	for _, wx := range f.rows {
		if wx.MemberID() == memberID && !wx.IsDeleted() {
			out = append(out, wx)
		}
	}
	return out, nil
}

func (f *fakeExperienceStore) ReassignOrganization(context.Context, uuid.UUID, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeManualStore struct {
	rows []manual.ManualAffiliation
}

func (f *fakeManualStore) Upsert(_ context.Context, a manual.ManualAffiliation) (manual.ManualAffiliation, error) {
	f.rows = append(f.rows, a)
	return a, nil
}

func (f *fakeManualStore) Delete(context.Context, uuid.UUID) error { return nil }

func (f *fakeManualStore) GetByID(context.Context, uuid.UUID) (manual.ManualAffiliation, error) {
	return manual.ManualAffiliation{}, manual.ErrNotFound
}

func (f *fakeManualStore) FindCovering(_ context.Context, memberID, segmentID uuid.UUID, ts time.Time) (manual.ManualAffiliation, error) {
	for _, a := range f.rows {
		if a.MemberID() == memberID && a.SegmentID() == segmentID && a.Covers(ts) {
			return a, nil
		}
	}
	return manual.ManualAffiliation{}, manual.ErrNotFound
}

func (f *fakeManualStore) ListForMember(context.Context, uuid.UUID) ([]manual.ManualAffiliation, error) {
	return nil, nil
}

func (f *fakeManualStore) ReassignOrganization(context.Context, uuid.UUID, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeActivityStore struct {
	targets []AttributionTarget
	updated map[uuid.UUID]uuid.NullUUID
}

func (f *fakeActivityStore) FindAttributionTargets(context.Context, uuid.UUID) ([]AttributionTarget, error) {
	return f.targets, nil
}

func (f *fakeActivityStore) UpdateAttribution(_ context.Context, activityID uuid.UUID, organizationID uuid.NullUUID) error {
	if f.updated == nil {
		f.updated = make(map[uuid.UUID]uuid.NullUUID)
	}
	f.updated[activityID] = organizationID
	for i := range f.targets {
		if f.targets[i].ID == activityID {
			f.targets[i].OrganizationID = organizationID
		}
	}
	return nil
}

// stubTx satisfies pgx.Tx for context plumbing; no method is ever called.
type stubTx struct{ pgx.Tx }

func withStubTx(ctx context.Context) context.Context {
	return composables.WithTx(ctx, stubTx{})
}

func date(value string) time.Time {
	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return ts
}

func datePtr(value string) *time.Time {
	ts := date(value)
	return &ts
}

func undatedCreatedAt(tenantID, memberID, orgID uuid.UUID, createdAt time.Time) workexperience.WorkExperience {
	return workexperience.Hydrate(
		uuid.New(), tenantID, memberID, orgID,
		"", nil, nil,
		workexperience.SourceIntegration,
		createdAt, createdAt, nil,
	)
}

func TestResolve_ManualOverrideWinsOverEverything(t *testing.T) {
	tenantID := uuid.New()
	memberID := uuid.New()
	segmentID := uuid.New()
	manualOrg := uuid.New()
	intervalOrg := uuid.New()

	experiences := &fakeExperienceStore{}
	overrides := &fakeManualStore{}

	// All four signal types at once: a manual override, a covering dated
	// interval, a recent undated row and an old undated row.
	overrides.rows = append(overrides.rows, manual.Hydrate(
		uuid.New(), tenantID, memberID, segmentID,
		uuid.NullUUID{UUID: manualOrg, Valid: true},
		datePtr("2020-01-01"), nil,
		date("2020-01-01"), date("2020-01-01"),
	))
	experiences.rows = append(experiences.rows,
		workexperience.Hydrate(
			uuid.New(), tenantID, memberID, intervalOrg,
			"Engineer", datePtr("2020-01-01"), nil,
			workexperience.SourceUI,
			date("2020-01-01"), date("2020-01-01"), nil,
		),
		undatedCreatedAt(tenantID, memberID, uuid.New(), date("2020-02-01")),
		undatedCreatedAt(tenantID, memberID, uuid.New(), date("2019-01-01")),
	)

	svc := NewAffiliationService(experiences, overrides, &fakeActivityStore{})
	resolved, err := svc.Resolve(context.Background(), memberID, segmentID, date("2020-06-01"))
	require.NoError(t, err)
	require.True(t, resolved.Valid)
	require.Equal(t, manualOrg, resolved.UUID)
}

func TestResolve_ExplicitNullOverrideShortCircuits(t *testing.T) {
	tenantID := uuid.New()
	memberID := uuid.New()
	segmentID := uuid.New()

	experiences := &fakeExperienceStore{}
	overrides := &fakeManualStore{}

	overrides.rows = append(overrides.rows, manual.Hydrate(
		uuid.New(), tenantID, memberID, segmentID,
		uuid.NullUUID{},
		nil, nil,
		date("2020-01-01"), date("2020-01-01"),
	))
	experiences.rows = append(experiences.rows, workexperience.Hydrate(
		uuid.New(), tenantID, memberID, uuid.New(),
		"Engineer", datePtr("2020-01-01"), nil,
		workexperience.SourceUI,
		date("2020-01-01"), date("2020-01-01"), nil,
	))

	svc := NewAffiliationService(experiences, overrides, &fakeActivityStore{})
	resolved, err := svc.Resolve(context.Background(), memberID, segmentID, date("2020-06-01"))
	require.NoError(t, err)
	require.False(t, resolved.Valid, "an explicit no-organization override must suppress inferred rules")
}

func TestResolve_DatedIntervals(t *testing.T) {
	tenantID := uuid.New()
	memberID := uuid.New()
	segmentID := uuid.New()
	acme := uuid.New()
	beta := uuid.New()

	experiences := &fakeExperienceStore{}
	experiences.rows = append(experiences.rows,
		workexperience.Hydrate(
			uuid.New(), tenantID, memberID, acme,
			"", datePtr("2020-01-01"), datePtr("2020-06-01"),
			workexperience.SourceIntegration,
			date("2020-01-01"), date("2020-01-01"), nil,
		),
		workexperience.Hydrate(
			uuid.New(), tenantID, memberID, beta,
			"", datePtr("2020-06-01"), nil,
			workexperience.SourceIntegration,
			date("2020-06-01"), date("2020-06-01"), nil,
		),
	)

	svc := NewAffiliationService(experiences, &fakeManualStore{}, &fakeActivityStore{})

	resolved, err := svc.Resolve(context.Background(), memberID, segmentID, date("2020-03-01"))
	require.NoError(t, err)
	require.Equal(t, acme, resolved.UUID)

	resolved, err = svc.Resolve(context.Background(), memberID, segmentID, date("2021-01-01"))
	require.NoError(t, err)
	require.Equal(t, beta, resolved.UUID)

	// Boundary day: both intervals match, the later dateStart wins.
	resolved, err = svc.Resolve(context.Background(), memberID, segmentID, date("2020-06-01"))
	require.NoError(t, err)
	require.Equal(t, beta, resolved.UUID)
}

func TestResolve_UndatedFallbacks(t *testing.T) {
	tenantID := uuid.New()
	memberID := uuid.New()
	segmentID := uuid.New()
	acme := uuid.New()
	beta := uuid.New()

	experiences := &fakeExperienceStore{}
	experiences.rows = append(experiences.rows,
		undatedCreatedAt(tenantID, memberID, acme, date("2020-01-01")),
		undatedCreatedAt(tenantID, memberID, beta, date("2021-01-01")),
	)

	svc := NewAffiliationService(experiences, &fakeManualStore{}, &fakeActivityStore{})

	// Most recent undated row known before the activity.
	resolved, err := svc.Resolve(context.Background(), memberID, segmentID, date("2020-06-01"))
	require.NoError(t, err)
	require.Equal(t, acme, resolved.UUID)

	// Activity predating all recorded knowledge: earliest row, not latest.
	resolved, err = svc.Resolve(context.Background(), memberID, segmentID, date("2019-01-01"))
	require.NoError(t, err)
	require.Equal(t, acme, resolved.UUID)
}

func TestResolve_NoSignals(t *testing.T) {
	svc := NewAffiliationService(&fakeExperienceStore{}, &fakeManualStore{}, &fakeActivityStore{})
	resolved, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), date("2020-01-01"))
	require.NoError(t, err)
	require.False(t, resolved.Valid)
}

func TestRecomputeForMember_RewritesAndIsIdempotent(t *testing.T) {
	tenantID := uuid.New()
	memberID := uuid.New()
	segmentID := uuid.New()
	acme := uuid.New()

	experiences := &fakeExperienceStore{}
	experiences.rows = append(experiences.rows, undatedCreatedAt(tenantID, memberID, acme, date("2020-01-01")))

	stale := uuid.New()
	activities := &fakeActivityStore{
		targets: []AttributionTarget{
			{ID: uuid.New(), SegmentID: segmentID, Timestamp: date("2020-06-01")},
			{ID: stale, SegmentID: segmentID, Timestamp: date("2020-07-01"), OrganizationID: uuid.NullUUID{UUID: uuid.New(), Valid: true}},
			{ID: uuid.New(), SegmentID: segmentID, Timestamp: date("2020-08-01"), OrganizationID: uuid.NullUUID{UUID: acme, Valid: true}},
		},
	}

	svc := NewAffiliationService(experiences, &fakeManualStore{}, activities)
	ctx := withStubTx(context.Background())

	rewritten, err := svc.RecomputeForMember(ctx, memberID)
	require.NoError(t, err)
	require.EqualValues(t, 2, rewritten)
	require.Equal(t, uuid.NullUUID{UUID: acme, Valid: true}, activities.updated[stale])

	rewritten, err = svc.RecomputeForMember(ctx, memberID)
	require.NoError(t, err)
	require.EqualValues(t, 0, rewritten, "a second pass over an unchanged timeline writes nothing")
}
