package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dashlink/dashlink/internal/oauth"
	"github.com/dashlink/dashlink/pkg/logging"
)

// ProvidersDocument is the on-disk shape of the provider registrations.
// Entries are kept raw so that one malformed entry does not spoil the rest.
type ProvidersDocument struct {
	Providers map[string]json.RawMessage `json:"providers"`
}

// LoadProviders reads the provider registration document at path. A
// missing file yields no providers. Entries that cannot be decoded are
// reported in the returned collection and left out.
func LoadProviders(path string) (map[string]ProviderConfig, *ConfigurationErrorCollection, error) {
	warnings := NewConfigurationErrorCollection()
	if path == "" {
		return map[string]ProviderConfig{}, warnings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Info("ConfigLoader", "No provider registrations found at %s", path)
		return map[string]ProviderConfig{}, warnings, nil
	}
	if err != nil {
		return nil, nil, ConfigurationError{FilePath: path, ErrorType: ErrorTypeIO, Message: err.Error()}
	}

	var doc ProvidersDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, ConfigurationError{
			FilePath:    path,
			ErrorType:   ErrorTypeParse,
			Message:     err.Error(),
			Suggestions: []string{`the document must look like {"providers": {"GOOGLE_ANALYTICS": {...}}}`},
		}
	}

	providers := make(map[string]ProviderConfig, len(doc.Providers))
	for name, raw := range doc.Providers {
		var pc ProviderConfig
		if err := json.Unmarshal(raw, &pc); err != nil {
			warnings.Add(ConfigurationError{FilePath: path, Entry: name, ErrorType: ErrorTypeParse, Message: err.Error()})
			continue
		}
		providers[name] = pc
	}
	logging.Debug("ConfigLoader", "Read %d provider registrations from %s", len(providers), path)
	return providers, warnings, nil
}

// BuildRegistry registers every usable provider from the inline YAML
// providers and the registration document, the document winning when both
// name the same provider. Unusable entries are skipped with a warning.
func BuildRegistry(cfg Config, fromFile map[string]ProviderConfig, source string) (*oauth.Registry, *ConfigurationErrorCollection) {
	warnings := NewConfigurationErrorCollection()
	merged := make(map[oauth.ProviderType]providerEntry)

	add := func(entries map[string]ProviderConfig, origin string) {
		for name, pc := range entries {
			p, err := oauth.ParseProviderType(name)
			if err != nil {
				warnings.Add(ConfigurationError{
					FilePath:    origin,
					Entry:       name,
					ErrorType:   ErrorTypeUnknown,
					Message:     err.Error(),
					Suggestions: []string{fmt.Sprintf("supported providers: %v", oauth.AllProviderTypes())},
				})
				continue
			}
			merged[p] = providerEntry{name: name, origin: origin, config: pc}
		}
	}
	add(cfg.OAuth.Providers, "config.yaml")
	add(fromFile, source)

	types := make([]oauth.ProviderType, 0, len(merged))
	for p := range merged {
		types = append(types, p)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	registry := oauth.NewRegistry()
	for _, p := range types {
		entry := merged[p]
		settings, err := entry.settings(p)
		if err != nil {
			warnings.Add(ConfigurationError{FilePath: entry.origin, Entry: entry.name, ErrorType: ErrorTypeValidation, Message: err.Error()})
			continue
		}
		registry.Register(settings)
	}

	for _, w := range warnings.Errors {
		logging.Warn("ConfigLoader", "Skipping provider registration: %s", w.Error())
	}
	return registry, warnings
}

type providerEntry struct {
	name   string
	origin string
	config ProviderConfig
}

func (e providerEntry) settings(p oauth.ProviderType) (oauth.ProviderSettings, error) {
	if err := ValidateProvider(e.config); err != nil {
		return oauth.ProviderSettings{}, err
	}
	settings, err := oauth.DefaultSettings(p, e.config.ClientID, e.config.ClientSecret, e.config.RedirectURI)
	if err != nil {
		return oauth.ProviderSettings{}, err
	}
	if e.config.AuthEndpoint != "" {
		settings.AuthEndpoint = e.config.AuthEndpoint
	}
	if e.config.TokenEndpoint != "" {
		settings.TokenEndpoint = e.config.TokenEndpoint
	}
	if e.config.UserInfoEndpoint != "" {
		settings.UserInfoEndpoint = e.config.UserInfoEndpoint
	}
	if e.config.Scope != "" {
		settings.Scope = e.config.Scope
	}
	return settings, nil
}
