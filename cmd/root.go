// Package cmd defines the CLI commands for the summary-relay executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/summary-relay/internal/config"
	"github.com/JakeFAU/summary-relay/internal/server"
)

// buildApp is the application factory. Tests replace it to avoid signal
// handling or global logger changes.
var buildApp = server.Build

// newRootCmd creates the root command and attaches subcommands.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "summary-relay",
		Short: "Relay article summary requests to a workflow webhook.",
		Long: `summary-relay accepts an email address and article URL, validates them,
and forwards a correlated payload to the configured workflow webhook that
produces and emails the summary.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (env vars override)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return &cfg, nil
	}

	cmd.AddCommand(newServeCmd(load))
	cmd.AddCommand(newSubmitCmd(load))
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
