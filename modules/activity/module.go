package activity

import (
	"embed"

	"github.com/atrium-hq/atrium/modules/activity/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/activity/presentation/controllers"
	"github.com/atrium-hq/atrium/modules/activity/services"
	affiliationsvc "github.com/atrium-hq/atrium/modules/affiliation/services"
	"github.com/atrium-hq/atrium/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("activity", &migrationFiles, "infrastructure/persistence/schema")

	resolver := app.Service(affiliationsvc.AffiliationService{}).(*affiliationsvc.AffiliationService)

	app.RegisterServices(
		services.NewActivityService(persistence.NewActivityRepository(), resolver),
	)

	app.RegisterControllers(
		controllers.NewActivityController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "activity"
}
