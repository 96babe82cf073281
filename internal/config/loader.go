package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dashlink/dashlink/pkg/logging"
)

const (
	userConfigDir  = ".config/dashlink"
	configFileName = "config.yaml"
	envFileName    = ".env"
)

// Environment variables overriding configuration values.
const (
	EnvEncryptionKey = "DASHLINK_ENCRYPTION_KEY"
	EnvRedisPassword = "DASHLINK_REDIS_PASSWORD"
	EnvStateSecret   = "DASHLINK_STATE_SECRET"
	EnvPort          = "DASHLINK_PORT"
)

// osUserHomeDir is swapped out in tests.
var osUserHomeDir = os.UserHomeDir

// DefaultConfigPath returns ~/.config/dashlink.
func DefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configPath on top of the defaults,
// applies environment overrides and validates the result.
func LoadConfig(configPath string) (Config, error) {
	cfg := DefaultConfig()
	cfg.Dir = configPath

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, ConfigurationError{FilePath: configFilePath, ErrorType: ErrorTypeIO, Message: err.Error()}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, ConfigurationError{
				FilePath:    configFilePath,
				ErrorType:   ErrorTypeParse,
				Message:     err.Error(),
				Suggestions: []string{"check the YAML indentation and that durations use units such as 30s or 1m"},
			}
		}
		cfg.Dir = configPath
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	env, err := LoadEnv(envFileName, filepath.Join(configPath, envFileName))
	if err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration in %s: %w", configFilePath, err)
	}
	return cfg, nil
}

// LoadEnv reads the given .env files. Missing files are skipped and later
// files take precedence over earlier ones.
func LoadEnv(paths ...string) (map[string]string, error) {
	env := make(map[string]string)
	for _, p := range paths {
		values, err := godotenv.Read(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, ConfigurationError{FilePath: p, ErrorType: ErrorTypeParse, Message: err.Error()}
		}
		logging.Debug("ConfigLoader", "Loaded %d values from %s", len(values), p)
		for k, v := range values {
			env[k] = v
		}
	}
	return env, nil
}

// lookupEnv prefers the process environment over .env values. Empty values
// count as unset.
func lookupEnv(env map[string]string, key string) (string, bool) {
	if v := os.Getenv(key); v != "" {
		return v, true
	}
	if v := env[key]; v != "" {
		return v, true
	}
	return "", false
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	if v, ok := lookupEnv(env, EnvEncryptionKey); ok {
		cfg.Storage.EncryptionKey = v
	}
	if v, ok := lookupEnv(env, EnvRedisPassword); ok {
		cfg.Storage.Redis.Password = v
	}
	if v, ok := lookupEnv(env, EnvStateSecret); ok {
		cfg.OAuth.StateSecret = v
	}
	if v, ok := lookupEnv(env, EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return ConfigurationError{
				FilePath:  EnvPort,
				ErrorType: ErrorTypeParse,
				Message:   fmt.Sprintf("invalid port %q", v),
			}
		}
		cfg.Server.Port = port
	}
	return nil
}

// ResolvePath returns p relative to the configuration directory unless it
// is already absolute.
func (c Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
