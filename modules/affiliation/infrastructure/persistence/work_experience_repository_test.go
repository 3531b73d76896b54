package persistence_test

import (
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/workexperience"
	"github.com/atrium-hq/atrium/modules/affiliation/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/member/domain/aggregates/member"
	memberpersistence "github.com/atrium-hq/atrium/modules/member/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/organization/domain/aggregates/organization"
	organizationpersistence "github.com/atrium-hq/atrium/modules/organization/infrastructure/persistence"
	"github.com/atrium-hq/atrium/pkg/configuration"
	"github.com/atrium-hq/atrium/pkg/itf"
)

func requirePostgres(tb testing.TB) {
	tb.Helper()
	c := configuration.Use()
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(c.Database.Host, c.Database.Port), time.Second)
	if err != nil {
		tb.Skip("postgres is not reachable, skipping integration test")
	}
	_ = conn.Close()
}

type timelineFixture struct {
	env      *itf.TestEnvironment
	repo     workexperience.Repository
	memberID uuid.UUID
	acmeID   uuid.UUID
	betaID   uuid.UUID
}

func setupTimelineFixture(tb testing.TB) *timelineFixture {
	tb.Helper()
	requirePostgres(tb)

	env := itf.NewTestContext().Build(tb)

	m, err := memberpersistence.NewMemberRepository().Create(
		env.Ctx, member.New(env.TenantID(), "Ada Lovelace", time.Now()),
	)
	require.NoError(tb, err)

	orgs := organizationpersistence.NewOrganizationRepository()
	acme, err := orgs.Create(env.Ctx, organization.New(env.TenantID(), "Acme Corp"))
	require.NoError(tb, err)
	beta, err := orgs.Create(env.Ctx, organization.New(env.TenantID(), "Beta Labs"))
	require.NoError(tb, err)

	return &timelineFixture{
		env:      env,
		repo:     persistence.NewWorkExperienceRepository(),
		memberID: m.ID(),
		acmeID:   acme.ID(),
		betaID:   beta.ID(),
	}
}

func TestWorkExperienceRepository_DatedSupersedesUndated(t *testing.T) {
	f := setupTimelineFixture(t)

	undated := workexperience.New(
		f.env.TenantID(), f.memberID, f.acmeID, "Engineer", nil, nil,
		workexperience.SourceEnrichment,
	)
	written, err := f.repo.Upsert(f.env.Ctx, undated)
	require.NoError(t, err)
	require.False(t, written.IsZero())

	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	dated := workexperience.New(
		f.env.TenantID(), f.memberID, f.acmeID, "Engineer", &start, nil,
		workexperience.SourceEnrichment,
	)
	_, err = f.repo.Upsert(f.env.Ctx, dated)
	require.NoError(t, err)

	// The undated row is retired: only the dated interval remains live.
	rows, err := f.repo.ListForMember(f.env.Ctx, f.memberID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, workexperience.ShapeOpen, rows[0].Shape())

	// With a live dated row present, a fresh undated write is dropped.
	dropped, err := f.repo.Upsert(f.env.Ctx, undated)
	require.NoError(t, err)
	require.True(t, dropped.IsZero())
}

func TestWorkExperienceRepository_ConflictTrustGate(t *testing.T) {
	f := setupTimelineFixture(t)

	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	base := workexperience.New(
		f.env.TenantID(), f.memberID, f.acmeID, "Engineer", &start, nil,
		workexperience.SourceEnrichment,
	)
	stored, err := f.repo.Upsert(f.env.Ctx, base)
	require.NoError(t, err)

	// Same conflict key from a low-trust source is dropped; the stored
	// row keeps its title.
	lowTrust := workexperience.New(
		f.env.TenantID(), f.memberID, f.acmeID, "Intern", &start, nil,
		workexperience.SourceIntegration,
	)
	dropped, err := f.repo.Upsert(f.env.Ctx, lowTrust)
	require.NoError(t, err)
	require.True(t, dropped.IsZero())

	kept, err := f.repo.GetByID(f.env.Ctx, stored.ID())
	require.NoError(t, err)
	require.Equal(t, "Engineer", kept.Title())

	// A user edit overwrites it.
	edited := workexperience.New(
		f.env.TenantID(), f.memberID, f.acmeID, "Staff Engineer", &start, nil,
		workexperience.SourceUI,
	)
	updated, err := f.repo.Upsert(f.env.Ctx, edited)
	require.NoError(t, err)
	require.Equal(t, "Staff Engineer", updated.Title())

	rows, err := f.repo.ListForMember(f.env.Ctx, f.memberID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWorkExperienceRepository_CoveringInterval(t *testing.T) {
	f := setupTimelineFixture(t)

	acmeStart := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	acmeEnd := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := f.repo.Upsert(f.env.Ctx, workexperience.New(
		f.env.TenantID(), f.memberID, f.acmeID, "", &acmeStart, &acmeEnd,
		workexperience.SourceEnrichment,
	))
	require.NoError(t, err)

	betaStart := acmeEnd
	_, err = f.repo.Upsert(f.env.Ctx, workexperience.New(
		f.env.TenantID(), f.memberID, f.betaID, "", &betaStart, nil,
		workexperience.SourceEnrichment,
	))
	require.NoError(t, err)

	// Inside the closed interval.
	wx, err := f.repo.FindCoveringInterval(f.env.Ctx, f.memberID, time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, f.acmeID, wx.OrganizationID())

	// On the boundary day both intervals cover; the later start wins.
	wx, err = f.repo.FindCoveringInterval(f.env.Ctx, f.memberID, acmeEnd)
	require.NoError(t, err)
	require.Equal(t, f.betaID, wx.OrganizationID())

	// Before every interval there is no covering row.
	_, err = f.repo.FindCoveringInterval(f.env.Ctx, f.memberID, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, workexperience.ErrNotFound)
}

func TestWorkExperienceRepository_SoftDeleteIsIdempotent(t *testing.T) {
	f := setupTimelineFixture(t)

	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	wx, err := f.repo.Upsert(f.env.Ctx, workexperience.New(
		f.env.TenantID(), f.memberID, f.acmeID, "", &start, nil,
		workexperience.SourceUI,
	))
	require.NoError(t, err)

	require.NoError(t, f.repo.SoftDelete(f.env.Ctx, wx.ID()))
	require.NoError(t, f.repo.SoftDelete(f.env.Ctx, wx.ID()))
	require.NoError(t, f.repo.SoftDelete(f.env.Ctx, uuid.New()))

	_, err = f.repo.GetByID(f.env.Ctx, wx.ID())
	require.ErrorIs(t, err, workexperience.ErrNotFound)
}
