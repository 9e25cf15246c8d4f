package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/activity"
	"mercator-hq/callisto/pkg/cache"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/ratelimit"
	"mercator-hq/callisto/pkg/registry"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/startup"
	"mercator-hq/callisto/pkg/storage"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Callisto gateway",
	Long: `Start the Callisto gateway with the specified configuration.

The gateway tracks per-user request activity, serves the authenticated
status API, and enforces rate limits through the shared cache when one
is configured. In production mode with auto-migration enabled, the
startup guard verifies the database and applies migrations before the
listener starts.

Examples:
  # Start with default config
  callisto run

  # Start with custom config
  callisto run --config /etc/callisto/config.yaml

  # Override listen address
  callisto run --listen 0.0.0.0:8090

  # Validate config without starting the gateway
  callisto run --dry-run`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runGateway(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.Get()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:         cfg.Telemetry.Logging.Level,
		Format:        cfg.Telemetry.Logging.Format,
		AddSource:     cfg.Telemetry.Logging.AddSource,
		RedactSecrets: cfg.Telemetry.Logging.RedactSecrets,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// Shared lifecycle context: the first SIGINT/SIGTERM cancels it,
	// which drains the server and stops the background workers.
	ctx := cli.SetupSignalHandler()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	store, err := storage.Open(cfg.Database, logger)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to open database: %w", err))
	}
	defer store.Close()
	fmt.Printf("✓ Database open (%s)\n", cfg.Database.Path)

	guard := startup.New(store, cfg, logger)
	if guard.Required() {
		if err := guard.Run(ctx); err != nil {
			return cli.NewCommandError("run", err)
		}
		fmt.Println("✓ Startup guard passed")
	}

	userRegistry, err := registry.New(cfg.Registry, logger)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to load user registry: %w", err))
	}
	defer userRegistry.Close()
	userRegistry.Watch(ctx)
	fmt.Printf("✓ User registry loaded (%d users)\n", userRegistry.Count())

	cacheManager := cache.New(cfg.Cache, logger, collector)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cacheManager.Shutdown(shutdownCtx); err != nil {
			logger.Error("cache shutdown failed", "error", err)
		}
	}()

	limiter, err := ratelimit.New(cfg.RateLimit, cacheManager, logger, collector)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to build rate limiter: %w", err))
	}
	if limiter != nil {
		defer limiter.Close()
		fmt.Printf("✓ Rate limiting enabled (%d req/min)\n", cfg.RateLimit.RequestsPerMinute)
	}

	tracker := activity.New(cfg.Activity, store, logger, collector)

	sweeper := activity.NewSweeper(tracker, cfg.Activity, logger)
	if err := sweeper.Start(ctx); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to start activity sweeper: %w", err))
	}
	defer sweeper.Stop()

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck("database", store.Probe)
	checker.RegisterCheck("registry", func(ctx context.Context) error {
		if userRegistry.Count() == 0 {
			return fmt.Errorf("user registry empty")
		}
		return nil
	})
	if cfg.Cache.Enabled && cfg.Cache.CacheConfigured() {
		// Only a permanently failed cache degrades readiness; while it
		// is still connecting the gateway can serve.
		checker.RegisterCheck("cache", func(ctx context.Context) error {
			if cacheManager.State() == cache.StateFailed {
				return fmt.Errorf("shared cache permanently unavailable")
			}
			return nil
		})
	}

	srv := server.NewServer(cfg, server.Dependencies{
		Tracker:   tracker,
		Resolver:  userRegistry,
		Sessions:  auth.NewStaticStore(cfg.Auth.Sessions),
		Limiter:   limiter,
		Checker:   checker,
		Collector: collector,
		Logger:    logger,
	})

	fmt.Println()
	fmt.Printf("✓ Serving on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Status endpoint: http://%s/v1/activity/status\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Health.Enabled {
		fmt.Printf("✓ Health endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Health.ReadinessPath)
	}
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Mercator Callisto v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")
	fmt.Printf("✓ Mode: %s\n", cfg.Mode)
}
