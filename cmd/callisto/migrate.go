package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/storage"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

var migrateFlags struct {
	dryRun bool
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	Long: `Apply pending database schema migrations out-of-band.

In production with auto-migration enabled the startup guard applies
migrations before the gateway takes traffic. This command covers the
other cases: dev databases, operators who migrate during deploys, and
inspecting what would run.

Examples:
  # Apply pending migrations
  callisto migrate

  # List pending migrations without applying them
  callisto migrate --dry-run`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateFlags.dryRun, "dry-run", false, "list pending migrations without applying them")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.Get()

	logger, err := commandLogger()
	if err != nil {
		return cli.NewCommandError("migrate", err)
	}

	store, err := storage.Open(cfg.Database, logger)
	if err != nil {
		return cli.NewCommandError("migrate", fmt.Errorf("failed to open database: %w", err))
	}
	defer store.Close()

	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return cli.NewCommandError("migrate", err)
	}
	pending, err := store.Pending(ctx)
	if err != nil {
		return cli.NewCommandError("migrate", err)
	}

	if len(pending) == 0 {
		fmt.Printf("✓ Database schema up to date (version %d)\n", version)
		return nil
	}

	if migrateFlags.dryRun {
		fmt.Printf("Current schema version: %d\n", version)
		fmt.Printf("Pending migrations: %d\n", len(pending))
		for _, m := range pending {
			fmt.Printf("  %d: %s\n", m.Version, m.Description)
		}
		return nil
	}

	applied, err := store.RunMigrations(ctx)
	if err != nil {
		return cli.NewCommandError("migrate", fmt.Errorf("migration failed: %w", err))
	}

	newVersion, err := store.SchemaVersion(ctx)
	if err != nil {
		return cli.NewCommandError("migrate", err)
	}

	fmt.Printf("✓ Applied %d migrations (schema version %d -> %d)\n", applied, version, newVersion)
	return nil
}

// commandLogger builds the logger for one-shot commands: quiet by
// default, text debug output with --verbose.
func commandLogger() (*logging.Logger, error) {
	if !verbose {
		return logging.Discard(), nil
	}
	return logging.New(logging.Config{Level: "debug", Format: "text"})
}
