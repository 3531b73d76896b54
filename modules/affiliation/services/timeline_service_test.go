package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/manual"
	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/workexperience"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

type recordingBus struct {
	events []interface{}
}

func (b *recordingBus) Publish(args ...interface{}) { b.events = append(b.events, args...) }
func (b *recordingBus) Subscribe(interface{})       {}
func (b *recordingBus) Unsubscribe(interface{})     {}

func timelineTestContext() context.Context {
	ctx := composables.WithTenantID(context.Background(), uuid.New())
	return withStubTx(ctx)
}

func TestUpsertWorkExperience_RejectsEndWithoutStart(t *testing.T) {
	bus := &recordingBus{}
	svc := NewTimelineService(&fakeExperienceStore{}, &fakeManualStore{}, bus)

	_, err := svc.UpsertWorkExperience(timelineTestContext(), &workexperience.UpsertDTO{
		MemberID:       uuid.New(),
		OrganizationID: uuid.New(),
		DateEnd:        datePtr("2020-06-01"),
		Source:         "ui",
	})
	require.Error(t, err)
	require.True(t, serrors.IsValidation(err))
	require.Empty(t, bus.events)
}

func TestSetManualAffiliation_RejectsEndWithoutStart(t *testing.T) {
	bus := &recordingBus{}
	store := &fakeManualStore{}
	svc := NewTimelineService(&fakeExperienceStore{}, store, bus)

	_, err := svc.SetManualAffiliation(timelineTestContext(), &manual.SetDTO{
		MemberID:  uuid.New(),
		SegmentID: uuid.New(),
		DateEnd:   datePtr("2020-06-01"),
	})
	require.Error(t, err)
	require.True(t, serrors.IsValidation(err))
	require.Empty(t, store.rows)
	require.Empty(t, bus.events)
}

func TestUpsertWorkExperience_RejectsUnknownSource(t *testing.T) {
	svc := NewTimelineService(&fakeExperienceStore{}, &fakeManualStore{}, &recordingBus{})

	_, err := svc.UpsertWorkExperience(timelineTestContext(), &workexperience.UpsertDTO{
		MemberID:       uuid.New(),
		OrganizationID: uuid.New(),
		Source:         "crawler",
	})
	require.Error(t, err)
	require.True(t, serrors.IsValidation(err))
}

func TestUpsertWorkExperience_PublishesTimelineChange(t *testing.T) {
	bus := &recordingBus{}
	store := &fakeExperienceStore{}
	svc := NewTimelineService(store, &fakeManualStore{}, bus)

	memberID := uuid.New()
	written, err := svc.UpsertWorkExperience(timelineTestContext(), &workexperience.UpsertDTO{
		MemberID:       memberID,
		OrganizationID: uuid.New(),
		Title:          "Engineer",
		DateStart:      datePtr("2020-01-01"),
		Source:         "integration",
	})
	require.NoError(t, err)
	require.False(t, written.IsZero())
	require.Len(t, store.rows, 1)
	require.Len(t, bus.events, 1)

	event, ok := bus.events[0].(*TimelineChangedEvent)
	require.True(t, ok)
	require.Equal(t, memberID, event.MemberID)
}
