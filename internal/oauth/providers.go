package oauth

import (
	"net/http"

	"golang.org/x/oauth2"
)

// providerStrategy holds what differs between providers. Everything else
// about the authorization code flow is shared.
type providerStrategy struct {
	authParams     []oauth2.AuthCodeOption
	userInfoMethod string
	userInfoURL    string
	idAttribute    string
	// keep limits the stored user info to these keys when set.
	keep []string
}

var googleStrategy = providerStrategy{
	authParams: []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	},
	userInfoMethod: http.MethodGet,
	userInfoURL:    "https://www.googleapis.com/oauth2/v3/userinfo",
	idAttribute:    "sub",
	keep:           []string{"sub", "email", "name"},
}

var strategies = map[ProviderType]providerStrategy{
	GoogleAnalytics:     googleStrategy,
	GoogleAnalytics4:    googleStrategy,
	GoogleBigQuery:      googleStrategy,
	GoogleDrive:         googleStrategy,
	GoogleSearchConsole: googleStrategy,
	OneDrive: {
		authParams:     []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "select_account")},
		userInfoMethod: http.MethodGet,
		userInfoURL:    "https://graph.microsoft.com/v1.0/me",
		idAttribute:    "id",
	},
	Dropbox: {
		authParams:     []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("force_reauthentication", "true")},
		userInfoMethod: http.MethodPost,
		userInfoURL:    "https://api.dropboxapi.com/2/users/get_current_account",
		idAttribute:    "account_id",
	},
	Box: {
		userInfoMethod: http.MethodGet,
		userInfoURL:    "https://api.box.com/2.0/users/me",
		idAttribute:    "id",
	},
}

func strategyFor(p ProviderType) (providerStrategy, bool) {
	s, ok := strategies[p]
	return s, ok
}

func (s providerStrategy) filter(info UserInfo) UserInfo {
	if len(s.keep) == 0 || info == nil {
		return info
	}
	out := make(UserInfo, len(s.keep))
	for _, k := range s.keep {
		if v, ok := info[k]; ok && v != nil {
			out[k] = v
		}
	}
	return out
}
