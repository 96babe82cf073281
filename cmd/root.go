package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/dashlink/dashlink/internal/config"
	"github.com/dashlink/dashlink/internal/oauth"
	"github.com/dashlink/dashlink/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates the configuration could not be loaded.
	ExitCodeConfigError = 2
	// ExitCodeNotConfigured indicates the requested provider has no client registration.
	ExitCodeNotConfigured = 3
	// ExitCodeNoCredentials indicates no token is linked to the data source.
	ExitCodeNoCredentials = 4
)

var (
	// configPath is the configuration directory; empty means ~/.config/dashlink.
	configPath string
	debug      bool
	logFormat  string
)

// errNoCredentials is returned by the credentials command when nothing is
// linked.
var errNoCredentials = errors.New("no credentials linked to data source")

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dashlink",
	Short: "OAuth token manager for dashboard data sources",
	Long: `dashlink manages OAuth tokens for dashboard data sources backed by
Google Analytics, BigQuery, Drive, Search Console, OneDrive, Dropbox and Box.

It serves the browser side of the authorization code flow, stores the
resulting tokens and hands out fresh bearer credentials, refreshing them
shortly before they expire.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level := logging.LevelWarn
		if debug {
			level = logging.LevelDebug
		}
		logging.Init(logging.Options{Level: level, Format: logging.Format(logFormat), Output: cmd.ErrOrStderr()})
	},
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a code derived from the
// returned error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "dashlink version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps an error onto the documented exit codes.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var cfgErr config.ConfigurationError
	var validationErrs config.ValidationErrors
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &validationErrs):
		return ExitCodeConfigError
	case errors.Is(err, oauth.ErrProviderNotConfigured), errors.Is(err, oauth.ErrUnknownProvider):
		return ExitCodeNotConfigured
	case errors.Is(err, errNoCredentials):
		return ExitCodeNoCredentials
	}
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", "", "Configuration directory (default ~/.config/dashlink)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatText), "Log format: text or json")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newProvidersCmd())
	rootCmd.AddCommand(newAuthURLCmd())
	rootCmd.AddCommand(newCredentialsCmd())
}

// loadConfig loads the configuration directory selected by --config-path.
func loadConfig() (config.Config, error) {
	dir := configPath
	if dir == "" {
		var err error
		if dir, err = config.DefaultConfigPath(); err != nil {
			return config.Config{}, err
		}
	}
	return config.LoadConfig(dir)
}
