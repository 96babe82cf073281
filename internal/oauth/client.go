package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/dashlink/dashlink/pkg/logging"
)

// DefaultHTTPTimeout bounds every call to a provider endpoint.
const DefaultHTTPTimeout = 30 * time.Second

// ProviderClient performs the provider-specific HTTP calls of the
// authorization code flow.
type ProviderClient interface {
	// AuthorizationURL builds the consent screen URL carrying state.
	AuthorizationURL(settings ProviderSettings, state string) (string, error)

	// ExchangeCode trades an authorization code for tokens. A response with
	// Error set is returned without an error; err is reserved for
	// transport and decoding failures.
	ExchangeCode(ctx context.Context, settings ProviderSettings, code string) (*TokenResponse, error)

	// RefreshToken obtains a new access token. Same error contract as
	// ExchangeCode.
	RefreshToken(ctx context.Context, settings ProviderSettings, refreshToken string) (*TokenResponse, error)

	// FetchUserInfo returns the identity document for accessToken, or nil
	// when the provider answers with a non-success status.
	FetchUserInfo(ctx context.Context, settings ProviderSettings, accessToken string) (UserInfo, error)

	// TokenIdentifier returns the stable id for a token: the provider
	// subject when known, otherwise a fresh random id.
	TokenIdentifier(p ProviderType, token *Token) string
}

// Client is the default ProviderClient, dispatching on the provider
// strategy table.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClientClock sets the time source used to stamp token responses.
func WithClientClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a Client with a bounded HTTP timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizationURL implements ProviderClient.
func (c *Client) AuthorizationURL(settings ProviderSettings, state string) (string, error) {
	strategy, ok := strategyFor(settings.ProviderType)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, settings.ProviderType)
	}
	if _, err := url.Parse(settings.AuthEndpoint); err != nil || settings.AuthEndpoint == "" {
		return "", fmt.Errorf("invalid authorization endpoint %q", settings.AuthEndpoint)
	}

	cfg := oauth2.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		RedirectURL:  settings.RedirectURI,
		Scopes:       strings.Fields(settings.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  settings.AuthEndpoint,
			TokenURL: settings.TokenEndpoint,
		},
	}
	return cfg.AuthCodeURL(state, strategy.authParams...), nil
}

// ExchangeCode implements ProviderClient.
func (c *Client) ExchangeCode(ctx context.Context, settings ProviderSettings, code string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", settings.ClientID)
	data.Set("client_secret", settings.ClientSecret)
	if settings.RedirectURI != "" {
		data.Set("redirect_uri", settings.RedirectURI)
	}
	return c.tokenRequest(ctx, settings, data, "token exchange")
}

// RefreshToken implements ProviderClient.
func (c *Client) RefreshToken(ctx context.Context, settings ProviderSettings, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", settings.ClientID)
	data.Set("client_secret", settings.ClientSecret)
	return c.tokenRequest(ctx, settings, data, "token refresh")
}

func (c *Client) tokenRequest(ctx context.Context, settings ProviderSettings, data url.Values, action string) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", action, err)
	}
	defer resp.Body.Close()
	received := c.now()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", action, err)
	}

	var tr TokenResponse
	decodeErr := json.Unmarshal(body, &tr)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Providers report invalid_grant and friends with a 4xx and a JSON body.
		if decodeErr == nil && tr.Failed() {
			tr.ReceivedAt = received
			return &tr, nil
		}
		logging.Debug("OAuth", "%s for %s returned status %d", action, settings.ProviderType, resp.StatusCode)
		return nil, fmt.Errorf("%s failed with status %d", action, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", action, decodeErr)
	}

	tr.ReceivedAt = received
	return &tr, nil
}

// FetchUserInfo implements ProviderClient.
func (c *Client) FetchUserInfo(ctx context.Context, settings ProviderSettings, accessToken string) (UserInfo, error) {
	if accessToken == "" {
		return nil, nil
	}
	strategy, ok := strategyFor(settings.ProviderType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, settings.ProviderType)
	}
	endpoint := strategy.userInfoURL
	if settings.UserInfoEndpoint != "" {
		endpoint = settings.UserInfoEndpoint
	}

	var body io.Reader
	if strategy.userInfoMethod == http.MethodPost {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, strategy.userInfoMethod, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Debug("OAuth", "User info for %s returned status %d", settings.ProviderType, resp.StatusCode)
		return nil, nil
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return strategy.filter(info), nil
}

// TokenIdentifier implements ProviderClient.
func (c *Client) TokenIdentifier(p ProviderType, token *Token) string {
	if strategy, ok := strategyFor(p); ok && token != nil && token.UserInfo != nil {
		if id, ok := token.UserInfo[strategy.idAttribute].(string); ok && id != "" {
			return id
		}
	}
	return uuid.New().String()
}
