package config

import "time"

// Config is the top-level configuration structure for dashlink.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	OAuth   OAuthConfig   `yaml:"oauth"`
	Storage StorageConfig `yaml:"storage"`

	// Dir is the directory the configuration was loaded from. Relative
	// paths in the configuration are resolved against it.
	Dir string `yaml:"-"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	BasePath        string        `yaml:"basePath" validate:"omitempty,startswith=/"`
	UserHeader      string        `yaml:"userHeader" validate:"required"`
	PublicURL       string        `yaml:"publicUrl,omitempty" validate:"omitempty,url"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty" validate:"gte=0"`
}

// OAuthConfig configures the token manager and its providers.
type OAuthConfig struct {
	ProvidersFile   string        `yaml:"providersFile,omitempty"`
	GracePeriod     time.Duration `yaml:"gracePeriod" validate:"gte=0"`
	HTTPTimeout     time.Duration `yaml:"httpTimeout" validate:"gte=0"`
	StateSecret     string        `yaml:"stateSecret,omitempty" validate:"omitempty,min=16"`
	StateTTL        time.Duration `yaml:"stateTTL" validate:"gte=0"`
	DefaultFinalURL string        `yaml:"defaultFinalUrl,omitempty" validate:"omitempty,url"`

	// AllowedRedirectOrigins lists extra origins final URLs may point at.
	// Redirect URI origins, the default final URL and server.publicUrl are
	// always allowed.
	AllowedRedirectOrigins []string `yaml:"allowedRedirectOrigins,omitempty" validate:"omitempty,dive,url"`

	Providers map[string]ProviderConfig `yaml:"providers,omitempty"`
}

// ProviderConfig is one client registration. Endpoints and scope are
// optional and default to the provider's well-known values.
type ProviderConfig struct {
	ClientID         string `yaml:"clientId" json:"clientId" validate:"required"`
	ClientSecret     string `yaml:"clientSecret" json:"clientSecret" validate:"required"`
	RedirectURI      string `yaml:"redirectUri" json:"redirectUri" validate:"required,url"`
	AuthEndpoint     string `yaml:"authEndpoint,omitempty" json:"authEndpoint,omitempty" validate:"omitempty,url"`
	TokenEndpoint    string `yaml:"tokenEndpoint,omitempty" json:"tokenEndpoint,omitempty" validate:"omitempty,url"`
	UserInfoEndpoint string `yaml:"userInfoEndpoint,omitempty" json:"userInfoEndpoint,omitempty" validate:"omitempty,url"`
	Scope            string `yaml:"scope,omitempty" json:"scope,omitempty"`
}

// StorageType selects the token store backend.
type StorageType string

const (
	StorageMemory StorageType = "memory"
	StorageFile   StorageType = "file"
	StorageRedis  StorageType = "redis"
)

// StorageConfig configures where tokens are kept.
type StorageConfig struct {
	Type StorageType `yaml:"type" validate:"oneof=memory file redis"`

	// EncryptionKey enables AES-GCM encryption of token secrets at rest.
	EncryptionKey string `yaml:"encryptionKey,omitempty"`

	File  FileStorageConfig  `yaml:"file"`
	Redis RedisStorageConfig `yaml:"redis"`
}

// FileStorageConfig configures the JSON file store.
type FileStorageConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// RedisStorageConfig configures the Redis store.
type RedisStorageConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix"`
}
