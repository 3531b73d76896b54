package affiliation

import (
	"embed"

	activitypersistence "github.com/atrium-hq/atrium/modules/activity/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/affiliation/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/affiliation/presentation/controllers"
	"github.com/atrium-hq/atrium/modules/affiliation/services"
	"github.com/atrium-hq/atrium/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("affiliation", &migrationFiles, "infrastructure/persistence/schema")

	experiences := persistence.NewWorkExperienceRepository()
	overrides := persistence.NewManualAffiliationRepository()

	affiliationService := services.NewAffiliationService(
		experiences,
		overrides,
		activitypersistence.NewActivityRepository(),
	)

	app.RegisterServices(
		affiliationService,
		services.NewTimelineService(experiences, overrides, app.EventPublisher()),
	)

	// Timeline edits and organization merges invalidate derived attribution,
	// recomputed asynchronously outside the originating transaction.
	services.NewRecomputeHandler(app.DB(), affiliationService, app.Logger()).
		Register(app.EventPublisher())

	app.RegisterControllers(
		controllers.NewAffiliationController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "affiliation"
}
