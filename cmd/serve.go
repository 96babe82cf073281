package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dashlink/dashlink/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the OAuth endpoints",
		Long: `Starts the HTTP server hosting the OAuth authorization, callback and
token management endpoints.

Configuration is read from the directory given by --config-path
(default ~/.config/dashlink):
  - config.yaml     server, oauth and storage settings
  - providers.json  OAuth client registrations
  - .env            optional secrets (DASHLINK_ENCRYPTION_KEY, DASHLINK_STATE_SECRET, ...)

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.NewConfig(debug, configPath)
			cfg.LogFormat = logFormat
			cfg.LogOutput = cmd.ErrOrStderr()

			application, err := app.NewApplication(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run(cmd.Context())
		},
	}
}
