package oauth

import (
	"sort"
	"sync"

	"github.com/dashlink/dashlink/pkg/logging"
)

// Registry maps provider types to their settings. It is populated at startup
// and read on every authorization and refresh.
type Registry struct {
	mu       sync.RWMutex
	settings map[ProviderType]ProviderSettings
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{settings: make(map[ProviderType]ProviderSettings)}
}

// Register stores s under its provider type, replacing any previous entry.
func (r *Registry) Register(s ProviderSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[s.ProviderType] = s
	logging.Info("OAuth", "Registered provider %s (redirect %s)", s.ProviderType, s.RedirectURI)
}

// RegisterProvider registers p using its default endpoints and scopes.
func (r *Registry) RegisterProvider(p ProviderType, clientID, clientSecret, redirectURI string) error {
	s, err := DefaultSettings(p, clientID, clientSecret, redirectURI)
	if err != nil {
		return err
	}
	r.Register(s)
	return nil
}

// Get returns the settings for p. The boolean is false when the provider is
// not configured.
func (r *Registry) Get(p ProviderType) (ProviderSettings, bool) {
	if r == nil {
		return ProviderSettings{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[p]
	return s, ok
}

// List returns all registered settings sorted by provider type.
func (r *Registry) List() []ProviderSettings {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderSettings, 0, len(r.settings))
	for _, s := range r.settings {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProviderType < out[j].ProviderType
	})
	return out
}
