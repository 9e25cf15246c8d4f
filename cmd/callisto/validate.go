package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without starting the gateway.

The file is loaded the same way the run command loads it: defaults are
applied, CALLISTO_* environment overrides are folded in, and the result
is validated. Field errors are listed individually.

Examples:
  # Validate the default config file
  callisto validate

  # Validate a specific file
  callisto validate --config /etc/callisto/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("✗ Configuration invalid (%d errors)\n", len(verr.Errors))
			for _, fieldErr := range verr.Errors {
				fmt.Printf("  - %s\n", fieldErr.Error())
			}
			return cli.NewConfigError("", "validation failed")
		}
		return cli.NewConfigError("", err.Error())
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  Mode:           %s\n", cfg.Mode)
	fmt.Printf("  Listen address: %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  Shared cache:   %s\n", onOff(cfg.Cache.Enabled && cfg.Cache.CacheConfigured()))
	fmt.Printf("  Rate limiting:  %s\n", onOff(cfg.RateLimit.Enabled))
	fmt.Printf("  Auth:           %s (%d sessions)\n", onOff(cfg.Auth.Enabled), len(cfg.Auth.Sessions))
	fmt.Printf("  Auto-migrate:   %s\n", onOff(cfg.Database.AutoMigrate))
	return nil
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
