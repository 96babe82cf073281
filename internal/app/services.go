package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dashlink/dashlink/internal/config"
	"github.com/dashlink/dashlink/internal/oauth"
	"github.com/dashlink/dashlink/internal/server"
	"github.com/dashlink/dashlink/internal/tokenstore"
	"github.com/dashlink/dashlink/pkg/logging"
)

// Services holds the wired components of a running dashlink instance.
type Services struct {
	Config   config.Config
	Store    *tokenstore.Opened
	Registry *oauth.Registry
	Manager  *oauth.Manager
	Server   *server.HTTPServer

	// Watcher is set when the file store's directory is watched.
	Watcher *tokenstore.Watcher

	// Warnings lists the provider registrations that were skipped.
	Warnings *config.ConfigurationErrorCollection
}

// InitializeServices opens the token store and builds the manager and
// HTTP server described by cfg.
func InitializeServices(ctx context.Context, cfg config.Config) (*Services, error) {
	registry, warnings, err := LoadRegistry(cfg)
	if err != nil {
		return nil, err
	}
	if len(registry.List()) == 0 {
		logging.Warn("Bootstrap", "No OAuth providers configured; every authorization request will be rejected")
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	manager := NewManager(cfg, registry, store.Store)
	srv, err := server.New(cfg.Server, oauth.NewHandler(manager, server.RequestUser))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create http server: %w", err)
	}

	s := &Services{
		Config:   cfg,
		Store:    store,
		Registry: registry,
		Manager:  manager,
		Server:   srv,
		Warnings: warnings,
	}
	if store.File != nil && cfg.Storage.File.Watch {
		s.Watcher = tokenstore.NewWatcher(store.File, 0)
	}
	return s, nil
}

// OpenStore opens the token store backend selected by cfg.
func OpenStore(ctx context.Context, cfg config.Config) (*tokenstore.Opened, error) {
	store, err := tokenstore.Open(ctx, tokenstore.Options{
		Backend:  string(cfg.Storage.Type),
		FilePath: cfg.ResolvePath(cfg.Storage.File.Path),
		Redis: tokenstore.RedisConfig{
			Address:  cfg.Storage.Redis.Address,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			Prefix:   cfg.Storage.Redis.Prefix,
		},
		EncryptionKey: cfg.Storage.EncryptionKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	return store, nil
}

// LoadRegistry reads the provider registration document named by cfg and
// merges it with the inline providers.
func LoadRegistry(cfg config.Config) (*oauth.Registry, *config.ConfigurationErrorCollection, error) {
	path := cfg.ResolvePath(cfg.OAuth.ProvidersFile)
	fromFile, warnings, err := config.LoadProviders(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load provider registrations: %w", err)
	}
	registry, buildWarnings := config.BuildRegistry(cfg, fromFile, path)
	warnings.Merge(buildWarnings)
	return registry, warnings, nil
}

// NewManager builds the token manager for cfg. A configured state secret
// switches to HMAC-signed state.
func NewManager(cfg config.Config, registry *oauth.Registry, store oauth.TokenStore) *oauth.Manager {
	client := oauth.NewClient(oauth.WithHTTPClient(&http.Client{Timeout: cfg.OAuth.HTTPTimeout}))
	opts := []oauth.ManagerOption{
		oauth.WithGracePeriod(cfg.OAuth.GracePeriod),
		oauth.WithRefreshTimeout(cfg.OAuth.HTTPTimeout),
		oauth.WithProviderClient(client),
		oauth.WithDefaultFinalURL(cfg.OAuth.DefaultFinalURL),
		oauth.WithAllowedRedirectOrigins(redirectOrigins(cfg)...),
	}
	if cfg.OAuth.StateSecret != "" {
		opts = append(opts, oauth.WithStateProvider(
			oauth.NewSignedStateProvider([]byte(cfg.OAuth.StateSecret), cfg.OAuth.StateTTL, nil),
		))
		logging.Info("Bootstrap", "Using signed OAuth state (ttl %s)", cfg.OAuth.StateTTL)
	}
	return oauth.NewManager(registry, store, opts...)
}

func redirectOrigins(cfg config.Config) []string {
	origins := append([]string(nil), cfg.OAuth.AllowedRedirectOrigins...)
	if cfg.Server.PublicURL != "" {
		origins = append(origins, cfg.Server.PublicURL)
	}
	return origins
}

// Close releases the token store.
func (s *Services) Close() error {
	if s == nil || s.Store == nil {
		return nil
	}
	if err := s.Store.Close(); err != nil {
		return fmt.Errorf("failed to close token store: %w", err)
	}
	return nil
}
