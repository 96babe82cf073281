package oauth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// BearerCredential is what the data layer presents to a provider API.
type BearerCredential struct {
	AccessToken string
	// UserID is the provider subject id, or the application user id when
	// the provider did not report one.
	UserID string
}

// Header returns the Authorization header value.
func (c *BearerCredential) Header() string {
	return "Bearer " + c.AccessToken
}

// TokenSource returns a static token source for golang.org/x/oauth2 clients.
// It never refreshes; refresh is the Manager's job.
func (c *BearerCredential) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: c.AccessToken,
		TokenType:   "Bearer",
	})
}

// HTTPClient returns a client that authorizes every request with the
// credential.
func (c *BearerCredential) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, c.TokenSource())
}

func (c *BearerCredential) String() string {
	return fmt.Sprintf("BearerCredential{user=%s, token=%s}", c.UserID, NewRedactedToken(c.AccessToken))
}
