package commands

import (
	"context"

	"github.com/go-faster/errors"
)

// Migrate applies or rolls back every registered module schema. Supported
// subcommands are "up" and "down".
func Migrate(ctx context.Context, subcommand string) error {
	app, pool, err := setupApplication(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	switch subcommand {
	case "up":
		return app.Migrations().Run()
	case "down":
		return app.Migrations().Rollback()
	default:
		return errors.Errorf("unsupported migrate subcommand: %q", subcommand)
	}
}
