package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Mercator Callisto - request activity gateway",
	Long: `Mercator Callisto is the operations core of an API platform node.

It tracks per-user in-flight request activity and serves it through an
authenticated status API, providing:
  - Per-user activity tracking with a safety sweep for abandoned requests
  - Distributed rate limiting with degrade-to-local fallback
  - SQLite-backed request history
  - A production startup guard (database probe + migrations)`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
