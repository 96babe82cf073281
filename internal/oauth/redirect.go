package oauth

import (
	"net/url"
	"strings"
)

// WithAllowedRedirectOrigins adds origins (scheme://host[:port]) that final
// URLs may point at, on top of the origins of the registered redirect URIs
// and of the default final URL. Entries that do not parse are ignored.
func WithAllowedRedirectOrigins(origins ...string) ManagerOption {
	return func(m *Manager) {
		for _, o := range origins {
			if origin, ok := originOf(o); ok {
				m.origins = append(m.origins, origin)
			}
		}
	}
}

// FinalURLAllowed reports whether the browser may be sent to raw after a
// callback. Empty values and same-host paths are always allowed; absolute
// URLs must be http(s) and share an origin with a registered redirect URI,
// the default final URL or an explicitly allowed origin.
func (m *Manager) FinalURLAllowed(raw string) bool {
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") && !strings.HasPrefix(raw, "/\\")
	}

	origin, ok := originOf(raw)
	if !ok {
		return false
	}
	for _, allowed := range m.allowedOrigins() {
		if allowed == origin {
			return true
		}
	}
	return false
}

func (m *Manager) allowedOrigins() []string {
	origins := append([]string(nil), m.origins...)
	if o, ok := originOf(m.finalURL); ok {
		origins = append(origins, o)
	}
	for _, s := range m.registry.List() {
		if o, ok := originOf(s.RedirectURI); ok {
			origins = append(origins, o)
		}
	}
	return origins
}

func originOf(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	return scheme + "://" + strings.ToLower(u.Host), true
}
