package core

import (
	"embed"

	"github.com/atrium-hq/atrium/modules/core/infrastructure/persistence"
	"github.com/atrium-hq/atrium/modules/core/services"
	"github.com/atrium-hq/atrium/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("core", &migrationFiles, "infrastructure/persistence/schema")

	app.RegisterServices(
		services.NewTenantService(
			persistence.NewTenantRepository(),
			persistence.NewSegmentRepository(),
		),
	)

	return nil
}

func (m *Module) Name() string {
	return "core"
}
