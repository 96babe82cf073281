package app

import (
	"io"

	"github.com/dashlink/dashlink/internal/config"
	"github.com/dashlink/dashlink/pkg/logging"
)

// Config holds the application runtime settings that come from the
// command line rather than the configuration directory.
type Config struct {
	Debug bool

	// LogFormat is "text" or "json".
	LogFormat string

	// LogOutput defaults to stderr.
	LogOutput io.Writer

	// ConfigPath overrides the default ~/.config/dashlink directory.
	ConfigPath string

	// DashlinkConfig, when set, is used instead of loading ConfigPath.
	DashlinkConfig *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		LogFormat:  string(logging.FormatText),
		ConfigPath: configPath,
	}
}
