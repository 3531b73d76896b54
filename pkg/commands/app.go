package commands

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-hq/atrium/modules"
	"github.com/atrium-hq/atrium/pkg/application"
	"github.com/atrium-hq/atrium/pkg/configuration"
	"github.com/atrium-hq/atrium/pkg/eventbus"
)

// setupApplication builds a fully wired application: database pool, event
// bus and every built-in module registered.
func setupApplication(ctx context.Context) (application.Application, *pgxpool.Pool, error) {
	conf := configuration.Use()

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to database")
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(conf.Logger()),
		Logger:   conf.Logger(),
	})
	if err := modules.Load(app); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "failed to load modules")
	}
	return app, pool, nil
}
