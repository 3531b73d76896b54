package organization

import (
	"embed"

	activitypersistence "github.com/atrium-hq/atrium/modules/activity/infrastructure/persistence"
	affiliationpersistence "github.com/atrium-hq/atrium/modules/affiliation/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/organization/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/organization/presentation/controllers"
	"github.com/atrium-hq/atrium/modules/organization/services"
	"github.com/atrium-hq/atrium/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("organization", &migrationFiles, "infrastructure/persistence/schema")

	app.RegisterServices(
		services.NewOrganizationService(
			persistence.NewOrganizationRepository(),
			affiliationpersistence.NewWorkExperienceRepository(),
			affiliationpersistence.NewManualAffiliationRepository(),
			activitypersistence.NewActivityRepository(),
			app.EventPublisher(),
		),
	)

	app.RegisterControllers(
		controllers.NewOrganizationController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "organization"
}
