package modules

import (
	"github.com/atrium-hq/atrium/modules/activity"
	"github.com/atrium-hq/atrium/modules/affiliation"
	"github.com/atrium-hq/atrium/modules/core"
	"github.com/atrium-hq/atrium/modules/dedupe"
	"github.com/atrium-hq/atrium/modules/member"
	"github.com/atrium-hq/atrium/modules/organization"
	"github.com/atrium-hq/atrium/pkg/application"
)

// BuiltInModules is ordered: schema migrations run in registration order, so
// every module appears after the modules whose tables it references, and the
// affiliation module registers its resolver before activity looks it up.
var BuiltInModules = []application.Module{
	core.NewModule(),
	member.NewModule(),
	organization.NewModule(),
	affiliation.NewModule(),
	dedupe.NewModule(),
	activity.NewModule(),
}

// Load registers every module against the application.
func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range append(BuiltInModules, externalModules...) {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
