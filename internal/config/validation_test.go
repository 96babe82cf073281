package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "base path without slash",
			mutate:  func(c *Config) { c.Server.BasePath = "oauth" },
			wantErr: "server.basePath",
		},
		{
			name:    "negative grace period",
			mutate:  func(c *Config) { c.OAuth.GracePeriod = -1 },
			wantErr: "oauth.gracePeriod",
		},
		{
			name:    "short state secret",
			mutate:  func(c *Config) { c.OAuth.StateSecret = "short" },
			wantErr: "oauth.stateSecret",
		},
		{
			name:    "unknown storage",
			mutate:  func(c *Config) { c.Storage.Type = "etcd" },
			wantErr: "must be one of: memory, file, redis",
		},
		{
			name: "file store without path",
			mutate: func(c *Config) {
				c.Storage.Type = StorageFile
				c.Storage.File.Path = ""
			},
			wantErr: "storage.file.path",
		},
		{
			name: "redis store without address",
			mutate: func(c *Config) {
				c.Storage.Type = StorageRedis
				c.Storage.Redis.Address = " "
			},
			wantErr: "storage.redis.address",
		},
		{
			name:    "relative public url",
			mutate:  func(c *Config) { c.Server.PublicURL = "not a url" },
			wantErr: "server.publicUrl",
		},
		{
			name:    "malformed redirect origin",
			mutate:  func(c *Config) { c.OAuth.AllowedRedirectOrigins = []string{"https://ok.example.com", "nope"} },
			wantErr: "oauth.allowedRedirectOrigins[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateProvider(t *testing.T) {
	assert.NoError(t, ValidateProvider(ProviderConfig{ClientID: "a", ClientSecret: "b", RedirectURI: "https://app/cb"}))

	err := ValidateProvider(ProviderConfig{ClientID: "a", RedirectURI: "/cb"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clientSecret")
	assert.Contains(t, err.Error(), "redirectUri")
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.False(t, errs.HasErrors())
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("a", "is bad")
	assert.Equal(t, "field 'a': is bad", errs.Error())

	errs.Add("", "general failure")
	assert.Equal(t, "validation failed: field 'a': is bad; general failure", errs.Error())
}
