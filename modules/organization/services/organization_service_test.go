package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/atrium-hq/atrium/modules/organization/domain/aggregates/organization"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

type mockOrgRepo struct {
	orgs map[uuid.UUID]organization.Organization

	movedIdentities []organization.Identity
	moveErr         error
	movedSegments   [][2]uuid.UUID
	deleted         []uuid.UUID
}

func (m *mockOrgRepo) GetPaginated(context.Context, *organization.FindParams) ([]organization.Organization, int64, error) {
	out := make([]organization.Organization, 0, len(m.orgs))
	for _, o := range m.orgs {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (m *mockOrgRepo) GetByID(_ context.Context, id uuid.UUID) (organization.Organization, error) {
	entity, ok := m.orgs[id]
	if !ok {
		return organization.Organization{}, organization.ErrNotFound
	}
	return entity, nil
}

func (m *mockOrgRepo) Create(_ context.Context, entity organization.Organization) (organization.Organization, error) {
	return entity, nil
}

func (m *mockOrgRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	delete(m.orgs, id)
	return nil
}

func (m *mockOrgRepo) GetIdentities(context.Context, []uuid.UUID) (map[uuid.UUID][]organization.Identity, error) {
	return nil, nil
}

func (m *mockOrgRepo) MoveIdentities(_ context.Context, _, _ uuid.UUID, identities []organization.Identity) error {
	if m.moveErr != nil {
		return m.moveErr
	}
	m.movedIdentities = append(m.movedIdentities, identities...)
	return nil
}

func (m *mockOrgRepo) MoveSegments(_ context.Context, fromID, toID uuid.UUID) error {
	m.movedSegments = append(m.movedSegments, [2]uuid.UUID{fromID, toID})
	return nil
}

type fakeTimelineReassigner struct {
	affected []uuid.UUID
	calls    [][2]uuid.UUID
}

func (f *fakeTimelineReassigner) ReassignOrganization(_ context.Context, fromID, toID uuid.UUID) ([]uuid.UUID, error) {
	f.calls = append(f.calls, [2]uuid.UUID{fromID, toID})
	return f.affected, nil
}

type fakeActivityReassigner struct {
	calls [][2]uuid.UUID
}

func (f *fakeActivityReassigner) ReassignOrganization(_ context.Context, fromID, toID uuid.UUID) (int64, error) {
	f.calls = append(f.calls, [2]uuid.UUID{fromID, toID})
	return 4, nil
}

type recordingBus struct {
	events []interface{}
}

func (b *recordingBus) Publish(args ...interface{}) { b.events = append(b.events, args...) }
func (b *recordingBus) Subscribe(interface{})       {}
func (b *recordingBus) Unsubscribe(interface{})     {}

type stubTx struct{ pgx.Tx }

func orgTestContext() context.Context {
	ctx := composables.WithTenantID(context.Background(), uuid.New())
	return composables.WithTx(ctx, stubTx{})
}

func hydrateOrg(tenantID uuid.UUID, name string, identities ...organization.Identity) organization.Organization {
	now := time.Now().UTC()
	return organization.Hydrate(uuid.New(), tenantID, name, identities, now, now)
}

func TestMerge_MovesEverythingAndDeletesLoser(t *testing.T) {
	tenantID := uuid.New()
	shared := organization.Identity{Platform: "github", Name: "acme"}
	only := organization.Identity{Platform: "linkedin", Name: "acme-corp"}

	winner := hydrateOrg(tenantID, "Acme Corp", shared)
	loser := hydrateOrg(tenantID, "ACME Corporation", shared, only)

	repo := &mockOrgRepo{orgs: map[uuid.UUID]organization.Organization{
		winner.ID(): winner,
		loser.ID():  loser,
	}}
	memberA, memberB := uuid.New(), uuid.New()
	experiences := &fakeTimelineReassigner{affected: []uuid.UUID{memberA, memberB}}
	overrides := &fakeTimelineReassigner{affected: []uuid.UUID{memberB}}
	activities := &fakeActivityReassigner{}
	bus := &recordingBus{}

	svc := NewOrganizationService(repo, experiences, overrides, activities, bus)
	require.NoError(t, svc.Merge(orgTestContext(), winner.ID(), loser.ID()))

	require.Equal(t, []organization.Identity{only}, repo.movedIdentities)
	require.Equal(t, [][2]uuid.UUID{{loser.ID(), winner.ID()}}, repo.movedSegments)
	require.Equal(t, [][2]uuid.UUID{{loser.ID(), winner.ID()}}, experiences.calls)
	require.Equal(t, [][2]uuid.UUID{{loser.ID(), winner.ID()}}, overrides.calls)
	require.Equal(t, [][2]uuid.UUID{{loser.ID(), winner.ID()}}, activities.calls)
	require.Equal(t, []uuid.UUID{loser.ID()}, repo.deleted)

	require.Len(t, bus.events, 1)
	event, ok := bus.events[0].(*organization.MergedEvent)
	require.True(t, ok)
	require.Equal(t, winner.ID(), event.WinnerID)
	require.Equal(t, loser.ID(), event.LoserID)
	// Members touched by both reassigners appear once.
	require.Equal(t, []uuid.UUID{memberA, memberB}, event.AffectedMembers)
}

func TestMerge_ConsistencyErrorAborts(t *testing.T) {
	tenantID := uuid.New()
	winner := hydrateOrg(tenantID, "Acme Corp")
	loser := hydrateOrg(tenantID, "Acme", organization.Identity{Platform: "github", Name: "acme"})

	repo := &mockOrgRepo{
		orgs: map[uuid.UUID]organization.Organization{
			winner.ID(): winner,
			loser.ID():  loser,
		},
		moveErr: serrors.Consistency("identity move affected 0 rows"),
	}
	svc := NewOrganizationService(repo, &fakeTimelineReassigner{}, &fakeTimelineReassigner{}, &fakeActivityReassigner{}, &recordingBus{})

	err := svc.Merge(orgTestContext(), winner.ID(), loser.ID())
	require.True(t, serrors.IsConsistency(err))
	require.Empty(t, repo.deleted)
}

func TestMerge_RejectsSelfMerge(t *testing.T) {
	svc := NewOrganizationService(&mockOrgRepo{}, &fakeTimelineReassigner{}, &fakeTimelineReassigner{}, &fakeActivityReassigner{}, &recordingBus{})
	id := uuid.New()
	err := svc.Merge(orgTestContext(), id, id)
	require.True(t, serrors.IsValidation(err))
}

func TestFindDuplicates_ScoresSimilarNames(t *testing.T) {
	tenantID := uuid.New()
	repo := &mockOrgRepo{orgs: map[uuid.UUID]organization.Organization{}}
	for _, name := range []string{"Acme Corp", "Acme Corp.", "Beta Labs"} {
		o := hydrateOrg(tenantID, name)
		repo.orgs[o.ID()] = o
	}

	svc := NewOrganizationService(repo, &fakeTimelineReassigner{}, &fakeTimelineReassigner{}, &fakeActivityReassigner{}, &recordingBus{})
	candidates, err := svc.FindDuplicates(orgTestContext(), 0)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	c := candidates[0]
	require.InDelta(t, 0.9, c.Similarity, 0.1)
	require.LessOrEqual(t, c.PrimaryID.String(), c.SecondaryID.String())
}

func TestNameSimilarity(t *testing.T) {
	require.Equal(t, 1.0, nameSimilarity("Acme", " acme "))
	require.Equal(t, 0.0, nameSimilarity("", "acme"))
	require.Greater(t, nameSimilarity("Acme Corp", "Acme Corp."), 0.8)
	require.Less(t, nameSimilarity("Acme Corp", "Beta Labs"), 0.3)
}
