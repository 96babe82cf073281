package config

import "time"

const (
	// DefaultPort is the HTTP port the OAuth endpoints are served on.
	DefaultPort = 8095

	// DefaultBasePath prefixes every OAuth endpoint.
	DefaultBasePath = "/oauth"

	// DefaultUserHeader carries the application user id on inbound requests.
	DefaultUserHeader = "X-User-Id"

	DefaultProvidersFile = "providers.json"
	DefaultTokenFile     = "tokens.json"
)

// DefaultConfig returns the configuration used when no config.yaml exists.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            DefaultPort,
			BasePath:        DefaultBasePath,
			UserHeader:      DefaultUserHeader,
			ShutdownTimeout: 10 * time.Second,
		},
		OAuth: OAuthConfig{
			ProvidersFile: DefaultProvidersFile,
			GracePeriod:   time.Minute,
			HTTPTimeout:   30 * time.Second,
			StateTTL:      10 * time.Minute,
		},
		Storage: StorageConfig{
			Type: StorageMemory,
			File: FileStorageConfig{
				Path:  DefaultTokenFile,
				Watch: true,
			},
			Redis: RedisStorageConfig{
				Address: "localhost:6379",
				Prefix:  "dashlink",
			},
		},
	}
}
