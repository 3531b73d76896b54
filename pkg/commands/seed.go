package commands

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	activityaggregate "github.com/atrium-hq/atrium/modules/activity/domain/aggregates/activity"
	activityservices "github.com/atrium-hq/atrium/modules/activity/services"
	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/workexperience"
	affiliationservices "github.com/atrium-hq/atrium/modules/affiliation/services"
	coreservices "github.com/atrium-hq/atrium/modules/core/services"
	"github.com/atrium-hq/atrium/modules/member/domain/aggregates/member"
	memberservices "github.com/atrium-hq/atrium/modules/member/services"
	"github.com/atrium-hq/atrium/modules/organization/domain/aggregates/organization"
	organizationservices "github.com/atrium-hq/atrium/modules/organization/services"
	"github.com/atrium-hq/atrium/pkg/composables"
)

// SeedDatabase creates a demo tenant with a default segment, two
// organizations, three members with overlapping identities and a small
// activity history, enough to exercise resolution and merge suggestions.
func SeedDatabase(ctx context.Context) error {
	app, pool, err := setupApplication(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	tenants := app.Service(coreservices.TenantService{}).(*coreservices.TenantService)
	members := app.Service(memberservices.MemberService{}).(*memberservices.MemberService)
	organizations := app.Service(organizationservices.OrganizationService{}).(*organizationservices.OrganizationService)
	timelines := app.Service(affiliationservices.TimelineService{}).(*affiliationservices.TimelineService)
	activities := app.Service(activityservices.ActivityService{}).(*activityservices.ActivityService)

	scopedCtx := composables.WithPool(ctx, pool)

	tenant, err := tenants.CreateTenant(scopedCtx, "Demo Community")
	if err != nil {
		return errors.Wrap(err, "failed to seed tenant")
	}
	scopedCtx = composables.WithTenantID(scopedCtx, tenant.ID)

	segment, err := tenants.CreateSegment(scopedCtx, tenant.ID, "default")
	if err != nil {
		return errors.Wrap(err, "failed to seed segment")
	}
	scopedCtx = composables.WithSegmentID(scopedCtx, segment.ID)

	acme, err := organizations.Create(scopedCtx, "Acme Corp", []organization.Identity{
		{Platform: "github", Name: "acme"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to seed organization")
	}
	beta, err := organizations.Create(scopedCtx, "Beta Labs", nil)
	if err != nil {
		return errors.Wrap(err, "failed to seed organization")
	}

	joined := time.Now().AddDate(-2, 0, 0)
	seedMembers := []*member.CreateDTO{
		{
			DisplayName: "Ada Lovelace",
			Emails:      []string{"ada@example.com"},
			JoinedAt:    &joined,
			Identities: []member.IdentityDTO{
				{Platform: "github", Username: "ada"},
				{Platform: "slack", Username: "ada.lovelace"},
			},
		},
		{
			DisplayName: "Ada L.",
			Emails:      []string{"ada@example.com"},
			Identities: []member.IdentityDTO{
				{Platform: "discord", Username: "ada"},
			},
		},
		{
			DisplayName: "Grace Hopper",
			Emails:      []string{"grace@example.com"},
			Identities: []member.IdentityDTO{
				{Platform: "github", Username: "ghopper"},
			},
		},
	}

	start := time.Now().AddDate(-1, 0, 0)
	mid := time.Now().AddDate(0, -6, 0)
	for i, dto := range seedMembers {
		m, err := members.Create(scopedCtx, dto)
		if err != nil {
			return errors.Wrap(err, "failed to seed member")
		}

		if _, err := timelines.UpsertWorkExperience(scopedCtx, &workexperience.UpsertDTO{
			MemberID:       m.ID(),
			OrganizationID: acme.ID(),
			Title:          "Engineer",
			DateStart:      &start,
			DateEnd:        &mid,
			Source:         "ui",
		}); err != nil {
			return errors.Wrap(err, "failed to seed work experience")
		}
		if _, err := timelines.UpsertWorkExperience(scopedCtx, &workexperience.UpsertDTO{
			MemberID:       m.ID(),
			OrganizationID: beta.ID(),
			DateStart:      &mid,
			Source:         "enrichment",
		}); err != nil {
			return errors.Wrap(err, "failed to seed work experience")
		}

		for day := 0; day < 3+i; day++ {
			if _, err := activities.Create(scopedCtx, &activityaggregate.CreateDTO{
				MemberID:  m.ID(),
				Type:      "message",
				Platform:  "slack",
				Timestamp: time.Now().AddDate(0, 0, -day*30),
			}); err != nil {
				return errors.Wrap(err, "failed to seed activity")
			}
		}
	}

	app.Logger().WithField("tenant_id", tenant.ID).Info("demo data seeded")
	return nil
}
