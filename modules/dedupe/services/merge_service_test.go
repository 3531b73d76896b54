package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/atrium-hq/atrium/modules/dedupe/domain/aggregates/suggestion"
	"github.com/atrium-hq/atrium/modules/member/domain/aggregates/member"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

type mockMemberRepo struct {
	members map[uuid.UUID]member.Member

	movedIdentities []member.Identity
	moveErr         error
	updatedProfiles []member.Member
	deleted         []uuid.UUID
}

func (m *mockMemberRepo) GetPaginated(context.Context, *member.FindParams) ([]member.Member, int64, error) {
	return nil, 0, nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, id uuid.UUID) (member.Member, error) {
	entity, ok := m.members[id]
	if !ok {
		return member.Member{}, member.ErrNotFound
	}
	return entity, nil
}

func (m *mockMemberRepo) GetByIdentity(context.Context, string, string) ([]member.Member, error) {
	return nil, nil
}

func (m *mockMemberRepo) Create(_ context.Context, entity member.Member) (member.Member, error) {
	return entity, nil
}

func (m *mockMemberRepo) UpdateProfile(_ context.Context, entity member.Member) error {
	m.updatedProfiles = append(m.updatedProfiles, entity)
	m.members[entity.ID()] = entity
	return nil
}

func (m *mockMemberRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	delete(m.members, id)
	return nil
}

func (m *mockMemberRepo) GetIdentities(context.Context, []uuid.UUID) (map[uuid.UUID][]member.Identity, error) {
	return nil, nil
}

func (m *mockMemberRepo) AddIdentity(context.Context, uuid.UUID, member.Identity) error {
	return nil
}

func (m *mockMemberRepo) MoveIdentities(_ context.Context, _, _ uuid.UUID, identities []member.Identity) error {
	if m.moveErr != nil {
		return m.moveErr
	}
	m.movedIdentities = append(m.movedIdentities, identities...)
	return nil
}

type fakeActivityMover struct {
	moves [][2]uuid.UUID
}

func (f *fakeActivityMover) MoveBetweenMembers(_ context.Context, fromID, toID uuid.UUID) (int64, error) {
	f.moves = append(f.moves, [2]uuid.UUID{fromID, toID})
	return 3, nil
}

type recordingBus struct {
	events []interface{}
}

func (b *recordingBus) Publish(args ...interface{}) { b.events = append(b.events, args...) }
func (b *recordingBus) Subscribe(interface{})       {}
func (b *recordingBus) Unsubscribe(interface{})     {}

func hydrateMember(tenantID uuid.UUID, name string, emails []string, score int, joinedAt time.Time, identities []member.Identity) member.Member {
	now := time.Now().UTC()
	return member.Hydrate(uuid.New(), tenantID, name, emails, score, joinedAt, identities, now, now)
}

func TestConfirmMerge_MovesEverythingAndDeletesLoser(t *testing.T) {
	tenantID := uuid.New()
	shared := member.Identity{Platform: "github", Username: "ada"}
	only := member.Identity{Platform: "slack", Username: "ada.l"}

	winner := hydrateMember(tenantID, "Ada Lovelace", []string{"ada@acme.com"}, 10,
		time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), []member.Identity{shared})
	loser := hydrateMember(tenantID, "ada", []string{"ada@gmail.com", "ada@acme.com"}, 25,
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), []member.Identity{shared, only})

	members := &mockMemberRepo{members: map[uuid.UUID]member.Member{
		winner.ID(): winner,
		loser.ID():  loser,
	}}
	activities := &fakeActivityMover{}
	suggestions := &fakeSuggestionRepo{}
	bus := &recordingBus{}

	svc := NewMergeService(members, activities, suggestions, bus)
	require.NoError(t, svc.ConfirmMerge(dedupeTestContext(), winner.ID(), loser.ID()))

	// Only the identity the winner does not already hold moves.
	require.Equal(t, []member.Identity{only}, members.movedIdentities)
	require.Equal(t, [][2]uuid.UUID{{loser.ID(), winner.ID()}}, activities.moves)

	require.Len(t, members.updatedProfiles, 1)
	merged := members.updatedProfiles[0]
	require.Equal(t, "Ada Lovelace", merged.DisplayName())
	require.Equal(t, []string{"ada@acme.com", "ada@gmail.com"}, merged.Emails())
	require.Equal(t, 25, merged.Score())
	require.Equal(t, loser.JoinedAt(), merged.JoinedAt())

	require.Equal(t, []suggestion.Pair{suggestion.NewPair(winner.ID(), loser.ID())}, suggestions.removedPairs)
	require.Equal(t, []uuid.UUID{loser.ID()}, suggestions.removedReferencing)
	require.Equal(t, []uuid.UUID{loser.ID()}, members.deleted)

	require.Len(t, bus.events, 1)
	event, ok := bus.events[0].(*member.MergedEvent)
	require.True(t, ok)
	require.Equal(t, winner.ID(), event.WinnerID)
	require.Equal(t, loser.ID(), event.LoserID)
}

func TestConfirmMerge_ConsistencyErrorAborts(t *testing.T) {
	tenantID := uuid.New()
	winner := hydrateMember(tenantID, "a", nil, 0, time.Now().UTC(), nil)
	loser := hydrateMember(tenantID, "b", nil, 0, time.Now().UTC(),
		[]member.Identity{{Platform: "github", Username: "b"}})

	members := &mockMemberRepo{
		members: map[uuid.UUID]member.Member{winner.ID(): winner, loser.ID(): loser},
		moveErr: serrors.Consistency("identity move affected 0 rows"),
	}
	bus := &recordingBus{}
	svc := NewMergeService(members, &fakeActivityMover{}, &fakeSuggestionRepo{}, bus)

	err := svc.ConfirmMerge(dedupeTestContext(), winner.ID(), loser.ID())
	require.Error(t, err)
	require.True(t, serrors.IsConsistency(err))
	require.Empty(t, members.deleted)
	require.Empty(t, bus.events)
}

func TestConfirmMerge_RejectsSelfMerge(t *testing.T) {
	id := uuid.New()
	svc := NewMergeService(&mockMemberRepo{}, &fakeActivityMover{}, &fakeSuggestionRepo{}, &recordingBus{})

	err := svc.ConfirmMerge(dedupeTestContext(), id, id)
	require.True(t, serrors.IsValidation(err))
}

func TestRejectSuggestion_RemovesAndExcludes(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	suggestions := &fakeSuggestionRepo{}
	svc := NewMergeService(&mockMemberRepo{}, &fakeActivityMover{}, suggestions, &recordingBus{})

	require.NoError(t, svc.RejectSuggestion(dedupeTestContext(), b, a))

	want := suggestion.NewPair(a, b)
	require.Equal(t, []suggestion.Pair{want}, suggestions.removedPairs)
	require.Equal(t, []suggestion.Pair{want}, suggestions.exclusions)
}
