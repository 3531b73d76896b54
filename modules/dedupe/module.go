package dedupe

import (
	"embed"

	"github.com/jonboulle/clockwork"

	activitypersistence "github.com/atrium-hq/atrium/modules/activity/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/dedupe/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/dedupe/presentation/controllers"
	"github.com/atrium-hq/atrium/modules/dedupe/services"
	memberpersistence "github.com/atrium-hq/atrium/modules/member/infrastructure/persistence"
	"github.com/atrium-hq/atrium/pkg/application"
	"github.com/atrium-hq/atrium/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("dedupe", &migrationFiles, "infrastructure/persistence/schema")

	suggestions := persistence.NewSuggestionRepository()

	app.RegisterServices(
		services.NewSuggestionService(
			suggestions,
			configuration.Use().Suggestions,
			clockwork.NewRealClock(),
			app.Logger(),
		),
		services.NewMergeService(
			memberpersistence.NewMemberRepository(),
			activitypersistence.NewActivityRepository(),
			suggestions,
			app.EventPublisher(),
		),
	)

	app.RegisterControllers(
		controllers.NewDedupeController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "dedupe"
}
