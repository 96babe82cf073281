package app

import (
	"context"
	"fmt"
	"os"

	"github.com/dashlink/dashlink/internal/config"
	"github.com/dashlink/dashlink/pkg/logging"
)

// Application bootstraps and runs dashlink.
type Application struct {
	config   *Config
	services *Services
}

// NewApplication initializes logging, loads the configuration directory
// and wires all services. It fails when the configuration is invalid or the
// token store cannot be opened; unusable provider entries are only logged.
func NewApplication(ctx context.Context, cfg *Config) (*Application, error) {
	initLogging(cfg)

	if cfg.DashlinkConfig == nil {
		dir := cfg.ConfigPath
		if dir == "" {
			var err error
			if dir, err = config.DefaultConfigPath(); err != nil {
				return nil, err
			}
		}
		loaded, err := config.LoadConfig(dir)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from %s", dir)
			return nil, fmt.Errorf("failed to load configuration from %s: %w", dir, err)
		}
		cfg.DashlinkConfig = &loaded
	}

	services, err := InitializeServices(ctx, *cfg.DashlinkConfig)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{config: cfg, services: services}, nil
}

func initLogging(cfg *Config) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	out := cfg.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logging.Init(logging.Options{Level: level, Format: logging.Format(cfg.LogFormat), Output: out})
}

// Services returns the wired services.
func (a *Application) Services() *Services {
	return a.services
}
