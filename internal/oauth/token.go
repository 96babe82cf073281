package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// Token is a stored OAuth credential for one user and provider.
type Token struct {
	ID           string `json:"id"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	// Expiration is absolute epoch milliseconds. Zero means the token never
	// expires.
	Expiration  int64    `json:"expiration"`
	IDToken     string   `json:"idToken,omitempty"`
	RedirectURI string   `json:"redirectUri,omitempty"`
	Scope       string   `json:"scope,omitempty"`
	UserInfo    UserInfo `json:"userInfo,omitempty"`
}

// Refreshed replaces the access token and expiration after a successful
// refresh. A non-empty refreshToken rotates the stored refresh token.
func (t *Token) Refreshed(accessToken string, expiration int64, refreshToken string) {
	t.AccessToken = accessToken
	t.Expiration = expiration
	if refreshToken != "" {
		t.RefreshToken = refreshToken
	}
}

// CanRefresh reports whether a refresh token is available.
func (t *Token) CanRefresh() bool {
	return t != nil && t.RefreshToken != ""
}

// ExpiresAt returns the expiration as a time, or the zero time for tokens
// that never expire.
func (t *Token) ExpiresAt() time.Time {
	if t.Expiration == 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.Expiration)
}

// Clone returns a deep copy.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	c := *t
	c.UserInfo = t.UserInfo.Clone()
	return &c
}

// OAuth2Token converts the token for use with golang.org/x/oauth2 clients.
func (t *Token) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt(),
	}
	if t.IDToken != "" {
		tok = tok.WithExtra(map[string]interface{}{"id_token": t.IDToken})
	}
	return tok
}

// ExpirationFor converts a relative expires_in (seconds) received at now
// into absolute epoch milliseconds. Non-positive values mean no expiry.
func ExpirationFor(now time.Time, expiresIn int64) int64 {
	if expiresIn <= 0 {
		return 0
	}
	return now.UnixMilli() + expiresIn*1000
}

// TokenResponse is the normalized body of a provider token endpoint.
type TokenResponse struct {
	AccessToken      string `json:"access_token,omitempty"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	ExpiresIn        int64  `json:"expires_in,omitempty"`
	Scope            string `json:"scope,omitempty"`
	TokenType        string `json:"token_type,omitempty"`
	IDToken          string `json:"id_token,omitempty"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`

	// ReceivedAt is stamped by the client when the response arrives.
	ReceivedAt time.Time `json:"-"`
}

// Failed reports whether the provider signalled an error.
func (r *TokenResponse) Failed() bool {
	return r.Error != ""
}

// Err returns the provider error as a *ProviderError, or nil.
func (r *TokenResponse) Err() error {
	if !r.Failed() {
		return nil
	}
	return &ProviderError{Code: r.Error, Description: r.ErrorDescription}
}

// Expiration returns the absolute expiration for the response relative to
// the moment it was received.
func (r *TokenResponse) Expiration() int64 {
	return ExpirationFor(r.ReceivedAt, r.ExpiresIn)
}

// NewToken builds a Token from a successful response.
func (r *TokenResponse) NewToken(redirectURI string) *Token {
	return &Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Expiration:   r.Expiration(),
		IDToken:      r.IDToken,
		RedirectURI:  redirectURI,
		Scope:        r.Scope,
	}
}
