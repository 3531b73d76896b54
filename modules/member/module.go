package member

import (
	"embed"

	"github.com/atrium-hq/atrium/modules/member/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/member/presentation/controllers"
	"github.com/atrium-hq/atrium/modules/member/services"
	"github.com/atrium-hq/atrium/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("member", &migrationFiles, "infrastructure/persistence/schema")

	app.RegisterServices(
		services.NewMemberService(persistence.NewMemberRepository(), app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewMemberController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "member"
}
