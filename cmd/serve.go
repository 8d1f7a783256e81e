package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/summary-relay/internal/config"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		Long: `Starts the HTTP API (/, /health, /submit, /metrics) and blocks until
SIGINT or SIGTERM, then drains in-flight requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			app, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("build application: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}
}
