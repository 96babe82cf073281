package oauth

import "strings"

const (
	googleAuthEndpoint  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenEndpoint = "https://www.googleapis.com/oauth2/v4/token"

	oneDriveAuthEndpoint  = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	oneDriveTokenEndpoint = "https://login.microsoftonline.com/common/oauth2/v2.0/token"

	dropboxAuthEndpoint  = "https://www.dropbox.com/oauth2/authorize"
	dropboxTokenEndpoint = "https://api.dropbox.com/oauth2/token"

	boxAuthEndpoint  = "https://account.box.com/api/oauth2/authorize"
	boxTokenEndpoint = "https://api.box.com/oauth2/token"

	googleScopePrefix = "https://www.googleapis.com/auth/"
)

var defaultScopes = map[ProviderType]string{
	GoogleAnalytics:     googleScopes("userinfo.email", "userinfo.profile", "analytics.readonly"),
	GoogleAnalytics4:    googleScopes("userinfo.email", "analytics.readonly"),
	GoogleBigQuery:      googleScopes("userinfo.email", "userinfo.profile", "bigquery.readonly"),
	GoogleDrive:         googleScopes("userinfo.email", "userinfo.profile", "drive"),
	GoogleSearchConsole: googleScopes("userinfo.email", "webmasters.readonly", "userinfo.profile"),
	OneDrive:            "openid offline_access https://graph.microsoft.com/User.Read https://graph.microsoft.com/Files.ReadWrite.All",
}

func googleScopes(names ...string) string {
	scopes := make([]string, len(names))
	for i, n := range names {
		scopes[i] = googleScopePrefix + n
	}
	return strings.Join(scopes, " ")
}

// ProviderSettings holds the OAuth client registration for one provider.
type ProviderSettings struct {
	ProviderType  ProviderType `json:"providerType"`
	ClientID      string       `json:"clientId"`
	ClientSecret  string       `json:"clientSecret"`
	AuthEndpoint  string       `json:"authEndpoint"`
	TokenEndpoint string       `json:"tokenEndpoint"`
	// Scope is space separated; empty means the provider takes no scope.
	Scope       string `json:"scope,omitempty"`
	RedirectURI string `json:"redirectUri"`
	// UserInfoEndpoint overrides the provider's identity endpoint.
	UserInfoEndpoint string `json:"userInfoEndpoint,omitempty"`
}

// DefaultSettings returns the settings for p with the provider's well-known
// endpoints and scopes filled in.
func DefaultSettings(p ProviderType, clientID, clientSecret, redirectURI string) (ProviderSettings, error) {
	s := ProviderSettings{
		ProviderType: p,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		Scope:        defaultScopes[p],
	}

	switch {
	case p.IsGoogle():
		s.AuthEndpoint, s.TokenEndpoint = googleAuthEndpoint, googleTokenEndpoint
	case p == OneDrive:
		s.AuthEndpoint, s.TokenEndpoint = oneDriveAuthEndpoint, oneDriveTokenEndpoint
	case p == Dropbox:
		s.AuthEndpoint, s.TokenEndpoint = dropboxAuthEndpoint, dropboxTokenEndpoint
	case p == Box:
		s.AuthEndpoint, s.TokenEndpoint = boxAuthEndpoint, boxTokenEndpoint
	default:
		return ProviderSettings{}, ErrUnknownProvider
	}
	return s, nil
}
