package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dashlink/dashlink/pkg/logging"
)

// DefaultGracePeriod is how long before its expiration a token is treated
// as expired.
const DefaultGracePeriod = time.Minute

// Manager coordinates authorization flows, token storage and credential
// resolution.
type Manager struct {
	registry       *Registry
	store          TokenStore
	client         ProviderClient
	states         StateProvider
	locks          *KeyedLock
	gracePeriod    time.Duration
	refreshTimeout time.Duration
	finalURL       string
	origins        []string
	now            func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithGracePeriod sets the expiry grace period. Negative values are ignored.
func WithGracePeriod(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d >= 0 {
			m.gracePeriod = d
		}
	}
}

// WithStateProvider replaces the default HashedUserStateProvider.
func WithStateProvider(p StateProvider) ManagerOption {
	return func(m *Manager) {
		if p != nil {
			m.states = p
		}
	}
}

// WithProviderClient replaces the HTTP provider client.
func WithProviderClient(c ProviderClient) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.client = c
		}
	}
}

// WithClock sets the time source for expiry checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRefreshTimeout bounds a single refresh call.
func WithRefreshTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.refreshTimeout = d
		}
	}
}

// WithDefaultFinalURL sets where browsers land after a callback whose
// authorization request named no final URL.
func WithDefaultFinalURL(u string) ManagerOption {
	return func(m *Manager) {
		m.finalURL = u
	}
}

// NewManager creates a Manager over registry and store.
func NewManager(registry *Registry, store TokenStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry:       registry,
		store:          store,
		states:         HashedUserStateProvider{},
		locks:          NewKeyedLock(),
		gracePeriod:    DefaultGracePeriod,
		refreshTimeout: DefaultHTTPTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.client == nil {
		m.client = NewClient(WithClientClock(m.now))
	}
	return m
}

// Registry returns the provider registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// GracePeriod returns the configured grace period.
func (m *Manager) GracePeriod() time.Duration {
	return m.gracePeriod
}

// IsExpired reports whether token must be refreshed before use. Tokens
// with no expiration never expire.
func (m *Manager) IsExpired(token *Token) bool {
	if token == nil || token.Expiration == 0 {
		return false
	}
	return m.now().UnixMilli() >= token.Expiration-m.gracePeriod.Milliseconds()
}

// AuthorizationURL returns the provider consent URL for user. dataSourceID
// and finalURL are optional and travel in the state parameter.
func (m *Manager) AuthorizationURL(user UserContext, provider ProviderType, dataSourceID, finalURL string) (string, error) {
	settings, ok := m.registry.Get(provider)
	if !ok {
		return "", &FlowError{Stage: FlowUnlinked, Provider: provider, Err: ErrProviderNotConfigured}
	}
	if !m.FinalURLAllowed(finalURL) {
		return "", &FlowError{Stage: FlowUnlinked, Provider: provider, Err: ErrFinalURLNotAllowed}
	}

	state, err := m.states.StateForAuthenticationRequest(user, map[string]string{
		StateKeyDataSourceID: dataSourceID,
		StateKeyFinalURL:     finalURL,
	})
	if err != nil {
		return "", &FlowError{Stage: FlowUnlinked, Provider: provider, Err: err}
	}
	encoded, err := EncodeState(state)
	if err != nil {
		return "", &FlowError{Stage: FlowUnlinked, Provider: provider, Err: err}
	}

	authURL, err := m.client.AuthorizationURL(settings, encoded)
	if err != nil {
		return "", &FlowError{Stage: FlowUnlinked, Provider: provider, Err: err}
	}
	logging.Debug("OAuth", "Authorization requested for %s by user %s", provider, logging.TruncateID(user.EffectiveID()))
	return authURL, nil
}

// AuthorizationResult describes a completed authorization.
type AuthorizationResult struct {
	Provider     ProviderType
	TokenID      string
	UserID       string
	DataSourceID string
	FinalURL     string
}

// CompleteAuthorization handles the provider's redirect: it validates
// state, exchanges code and stores the token. Failures are returned as
// *FlowError wrapping ErrProviderNotConfigured, ErrInvalidState,
// *StateValidationError, *ProviderError or a transport error. The error's
// Stage is the last state the flow reached before failing.
func (m *Manager) CompleteAuthorization(ctx context.Context, user UserContext, provider ProviderType, code, encodedState string) (*AuthorizationResult, error) {
	fail := func(stage FlowState, err error) (*AuthorizationResult, error) {
		logging.Warn("OAuth", "Authorization for %s failed in %s: %v", provider, stage, err)
		return nil, &FlowError{Stage: stage, Provider: provider, Err: err}
	}

	settings, ok := m.registry.Get(provider)
	if !ok {
		return fail(FlowAuthRequested, ErrProviderNotConfigured)
	}

	state, err := DecodeState(encodedState)
	if err != nil {
		return fail(FlowAuthRequested, err)
	}
	res := m.states.ValidateAuthenticationState(user, state)
	if !res.OK {
		msg := res.ErrorMessage
		if msg == "" {
			msg = "Invalid state"
		}
		return fail(FlowAuthRequested, &StateValidationError{Message: msg})
	}
	if res.UserID != "" {
		user = UserContext{UserID: res.UserID, Properties: user.Properties}
	}

	if code == "" {
		return fail(FlowAuthRequested, ErrMissingCode)
	}

	resp, err := m.client.ExchangeCode(ctx, settings, code)
	if err != nil {
		return fail(FlowCallbackReceived, err)
	}
	if resp.Failed() {
		return fail(FlowCallbackReceived, resp.Err())
	}
	if resp.AccessToken == "" {
		return fail(FlowCallbackReceived, &ProviderError{Code: "invalid_response", Description: "no access token received"})
	}

	token := resp.NewToken(settings.RedirectURI)
	info, err := m.client.FetchUserInfo(ctx, settings, token.AccessToken)
	if err != nil {
		logging.Warn("OAuth", "Could not fetch user info for %s: %v", provider, err)
	}
	token.UserInfo = info
	token.ID = m.client.TokenIdentifier(provider, token)

	userID := user.EffectiveID()
	if err := m.store.SaveToken(ctx, userID, provider, token); err != nil {
		return fail(FlowCallbackReceived, fmt.Errorf("failed to save token: %w", err))
	}

	dataSourceID := state[StateKeyDataSourceID]
	if dataSourceID != "" {
		if err := m.store.SetDataSourceToken(ctx, userID, dataSourceID, token.ID, provider); err != nil {
			return fail(FlowCallbackReceived, fmt.Errorf("failed to link data source: %w", err))
		}
	}

	logging.Info("OAuth", "Stored %s token %s for user %s", provider, logging.TruncateID(token.ID), logging.TruncateID(userID))
	return &AuthorizationResult{
		Provider:     provider,
		TokenID:      token.ID,
		UserID:       userID,
		DataSourceID: dataSourceID,
		FinalURL:     state[StateKeyFinalURL],
	}, nil
}

// AuthenticatedURL returns where the browser goes after a successful
// callback: finalURL when set and allowed, then the configured default, otherwise the
// provider's redirect URI with its callback segment swapped for
// "authenticated". The token id is appended as a path segment.
func (m *Manager) AuthenticatedURL(provider ProviderType, finalURL, tokenID string) string {
	if !m.FinalURLAllowed(finalURL) {
		logging.Warn("OAuth", "Ignoring final URL outside the allowed origins for %s", provider)
		finalURL = ""
	}
	base := finalURL
	if base == "" {
		base = m.finalURL
	}
	if base == "" {
		if settings, ok := m.registry.Get(provider); ok {
			base = DefaultAuthenticatedURL(settings.RedirectURI)
		}
	}
	if base == "" || tokenID == "" {
		return base
	}

	// Keep any query string after the appended segment.
	path, query, hasQuery := strings.Cut(base, "?")
	path = strings.TrimRight(path, "/") + "/" + tokenID
	if hasQuery {
		return path + "?" + query
	}
	return path
}

// DefaultAuthenticatedURL derives the landing page URL from a redirect URI.
func DefaultAuthenticatedURL(redirectURI string) string {
	if i := strings.LastIndex(redirectURI, "/callback"); i >= 0 {
		return redirectURI[:i] + "/authenticated" + redirectURI[i+len("/callback"):]
	}
	return strings.TrimRight(redirectURI, "/") + "/authenticated"
}

// ResolveCredentials returns the bearer credential linked to dataSourceID,
// refreshing the token first when it is expired. It returns nil when no
// token is linked or the store fails; refresh failures degrade to the
// stored access token.
func (m *Manager) ResolveCredentials(ctx context.Context, user UserContext, dataSourceID string, provider ProviderType) *BearerCredential {
	key := lockKey(user, dataSourceID, provider)
	h := m.locks.Acquire(key)
	defer m.locks.Release(h)

	token, err := m.store.GetDataSourceToken(ctx, user.EffectiveID(), dataSourceID, provider)
	if err != nil {
		logging.Error("OAuth", err, "Failed to resolve OAuth token for %s", provider)
		return nil
	}
	if token == nil {
		return nil
	}

	if m.IsExpired(token) {
		m.refresh(ctx, user, dataSourceID, provider, token)
	}

	return &BearerCredential{
		AccessToken: token.AccessToken,
		UserID:      UserIDFor(provider, token.UserInfo, user.UserID),
	}
}

// refresh must be called with the key's lock held. token is only modified
// when the provider returned a usable access token.
func (m *Manager) refresh(ctx context.Context, user UserContext, dataSourceID string, provider ProviderType, token *Token) {
	key := lockKey(user, dataSourceID, provider)
	if !token.CanRefresh() {
		logging.Warn("OAuth", "Token for %s is expired and has no refresh token", provider)
		return
	}
	settings, ok := m.registry.Get(provider)
	if !ok {
		logging.Warn("OAuth", "Cannot refresh token: provider %s not configured", provider)
		return
	}

	logging.Info("OAuth", "RefreshToken requested for %s", logging.TruncateID(key))
	start := m.now()

	ctx, cancel := context.WithTimeout(ctx, m.refreshTimeout)
	defer cancel()

	resp, err := m.client.RefreshToken(ctx, settings, token.RefreshToken)
	switch {
	case err != nil:
		logging.Error("OAuth", err, "Failed to refresh %s token", provider)
		return
	case resp.Failed():
		logging.Error("OAuth", resp.Err(), "Failed to refresh %s token", provider)
		return
	case resp.AccessToken == "":
		logging.Error("OAuth", errors.New("no access token received"), "Failed to refresh %s token", provider)
		return
	case resp.ExpiresIn <= 0:
		logging.Error("OAuth", errors.New("no expires_in received"), "Failed to refresh %s token", provider)
		return
	}

	refreshed := token.Clone()
	refreshed.Refreshed(resp.AccessToken, resp.Expiration(), resp.RefreshToken)
	if err := m.store.SaveToken(ctx, user.EffectiveID(), provider, refreshed); err != nil {
		logging.Error("OAuth", err, "Failed to persist refreshed %s token", provider)
		return
	}
	*token = *refreshed

	logging.Info("OAuth", "RefreshToken completed for %s in %s", logging.TruncateID(key), m.now().Sub(start))
}

// lockKey escapes each part so that distinct tuples never share a key.
func lockKey(user UserContext, dataSourceID string, provider ProviderType) string {
	return url.QueryEscape(user.EffectiveID()) + ":" + url.QueryEscape(dataSourceID) + ":" + string(provider)
}

// GetToken returns the stored token or nil.
func (m *Manager) GetToken(ctx context.Context, user UserContext, provider ProviderType, tokenID string) (*Token, error) {
	return m.store.GetToken(ctx, user.EffectiveID(), tokenID, provider)
}

// SaveToken stores token for user.
func (m *Manager) SaveToken(ctx context.Context, user UserContext, provider ProviderType, token *Token) error {
	return m.store.SaveToken(ctx, user.EffectiveID(), provider, token)
}

// GetUserInfo returns the identity document stored with tokenID. It returns
// ErrTokenNotFound when no such token exists.
func (m *Manager) GetUserInfo(ctx context.Context, user UserContext, provider ProviderType, tokenID string) (UserInfo, error) {
	token, err := m.store.GetToken(ctx, user.EffectiveID(), tokenID, provider)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}
	return token.UserInfo, nil
}

// LinkToken associates an existing token with dataSourceID.
func (m *Manager) LinkToken(ctx context.Context, user UserContext, provider ProviderType, tokenID, dataSourceID string) error {
	token, err := m.store.GetToken(ctx, user.EffectiveID(), tokenID, provider)
	if err != nil {
		return err
	}
	if token == nil {
		return ErrTokenNotFound
	}
	return m.store.SetDataSourceToken(ctx, user.EffectiveID(), dataSourceID, tokenID, provider)
}

// SetDataSourceToken links or, with an empty tokenID, unlinks a data source.
func (m *Manager) SetDataSourceToken(ctx context.Context, user UserContext, dataSourceID, tokenID string, provider ProviderType) error {
	return m.store.SetDataSourceToken(ctx, user.EffectiveID(), dataSourceID, tokenID, provider)
}

// DeleteToken removes a token. Data sources still pointing at it resolve to
// no credentials.
func (m *Manager) DeleteToken(ctx context.Context, user UserContext, tokenID string, provider ProviderType) error {
	if err := m.store.DeleteToken(ctx, user.EffectiveID(), tokenID, provider); err != nil {
		return err
	}
	logging.Info("OAuth", "Deleted %s token %s", provider, logging.TruncateID(tokenID))
	return nil
}

// DataSourceDeleted drops every token link of dataSourceID. Tokens stay in
// the store since other data sources may share them.
func (m *Manager) DataSourceDeleted(ctx context.Context, user UserContext, dataSourceID string, provider ProviderType) error {
	return m.store.DataSourceDeleted(ctx, user.EffectiveID(), dataSourceID, provider)
}
