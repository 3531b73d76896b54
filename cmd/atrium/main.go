package main

import (
	"log"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/atrium-hq/atrium/pkg/commands"
	"github.com/atrium-hq/atrium/pkg/configuration"
	"github.com/atrium-hq/atrium/pkg/shared"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	if err := newRootCmd().Execute(); err != nil {
		configuration.Use().Unload()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "atrium",
		Short:         "Community member identity and attribution backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newSuggestCmd(),
		newRecomputeCmd(),
	)
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Serve(cmd.Context())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back module schema migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Migrate(cmd.Context(), args[0])
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.SeedDatabase(cmd.Context())
		},
	}
}

func newSuggestCmd() *cobra.Command {
	var windowHours float64
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Generate merge suggestions for every tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.GenerateSuggestions(cmd.Context(), windowHours)
		},
	}
	cmd.Flags().Float64Var(&windowHours, "window-hours", 0, "lookback window in hours (0 uses the configured default)")
	return cmd
}

func newRecomputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute <tenant-id> <member-id>",
		Short: "Recompute activity attribution for one member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := shared.ParseUUIDString(args[0])
			if err != nil {
				return err
			}
			memberID, err := shared.ParseUUIDString(args[1])
			if err != nil {
				return err
			}
			rewritten, err := commands.RecomputeMember(cmd.Context(), tenantID, memberID)
			if err != nil {
				return err
			}
			cmd.Printf("rewrote %d activities\n", rewritten)
			return nil
		},
	}
}
