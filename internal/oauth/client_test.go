package oauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlink/dashlink/internal/oauth"
	"github.com/dashlink/dashlink/internal/testing/mock"
	"github.com/dashlink/dashlink/internal/tokenstore"
)

func TestClient_AuthorizationURLParameters(t *testing.T) {
	tests := []struct {
		provider oauth.ProviderType
		want     map[string]string
		absent   []string
	}{
		{
			provider: oauth.GoogleAnalytics,
			want:     map[string]string{"access_type": "offline", "prompt": "consent"},
		},
		{
			provider: oauth.GoogleDrive,
			want:     map[string]string{"access_type": "offline", "prompt": "consent"},
		},
		{
			provider: oauth.OneDrive,
			want:     map[string]string{"prompt": "select_account"},
			absent:   []string{"access_type"},
		},
		{
			provider: oauth.Dropbox,
			want:     map[string]string{"force_reauthentication": "true"},
			absent:   []string{"access_type", "prompt"},
		},
		{
			provider: oauth.Box,
			absent:   []string{"access_type", "prompt", "force_reauthentication"},
		},
	}

	client := oauth.NewClient()
	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			settings, err := oauth.DefaultSettings(tt.provider, "cid", "secret", "https://app/cb")
			require.NoError(t, err)

			raw, err := client.AuthorizationURL(settings, "opaque-state")
			require.NoError(t, err)

			u, err := url.Parse(raw)
			require.NoError(t, err)
			q := u.Query()
			assert.Equal(t, "cid", q.Get("client_id"))
			assert.Equal(t, "https://app/cb", q.Get("redirect_uri"))
			assert.Equal(t, "code", q.Get("response_type"))
			assert.Equal(t, "opaque-state", q.Get("state"))
			assert.Empty(t, q.Get("client_secret"))
			for k, v := range tt.want {
				assert.Equal(t, v, q.Get(k), k)
			}
			for _, k := range tt.absent {
				assert.False(t, q.Has(k), "unexpected parameter %s", k)
			}
		})
	}
}

func TestClient_AuthorizationURLErrors(t *testing.T) {
	client := oauth.NewClient()

	_, err := client.AuthorizationURL(oauth.ProviderSettings{ProviderType: "NOPE", AuthEndpoint: "https://x"}, "s")
	assert.ErrorIs(t, err, oauth.ErrUnknownProvider)

	_, err = client.AuthorizationURL(oauth.ProviderSettings{ProviderType: oauth.Box}, "s")
	assert.Error(t, err)
}

func TestClient_ExchangeCode(t *testing.T) {
	clock := newClock()
	srv := mock.NewProviderServer(mock.ProviderServerConfig{})
	defer srv.Close()
	srv.IssueCode("good")

	client := oauth.NewClient(oauth.WithClientClock(clock.Now))
	settings := srv.Settings(oauth.GoogleAnalytics)

	resp, err := client.ExchangeCode(context.Background(), settings, "good")
	require.NoError(t, err)
	require.False(t, resp.Failed())
	assert.Equal(t, "access-1", resp.AccessToken)
	assert.Equal(t, "refresh-1", resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, clock.Now().UnixMilli()+3_600_000, resp.Expiration())
	assert.Equal(t, 1, srv.ExchangeCalls())

	// Codes are single use.
	resp, err = client.ExchangeCode(context.Background(), settings, "good")
	require.NoError(t, err)
	assert.True(t, resp.Failed())
	assert.Equal(t, "invalid_grant", resp.Error)
}

func TestClient_ExchangeCodeProviderErrors(t *testing.T) {
	srv := mock.NewProviderServer(mock.ProviderServerConfig{})
	defer srv.Close()
	client := oauth.NewClient()

	settings := srv.Settings(oauth.Box)
	settings.ClientSecret = "wrong"
	resp, err := client.ExchangeCode(context.Background(), settings, "whatever")
	require.NoError(t, err)
	assert.Equal(t, "invalid_client", resp.Error)

	srv.FailTokenRequests("access_denied", "user said no")
	srv.IssueCode("c1")
	resp, err = client.ExchangeCode(context.Background(), srv.Settings(oauth.Box), "c1")
	require.NoError(t, err)

	var providerErr *oauth.ProviderError
	require.ErrorAs(t, resp.Err(), &providerErr)
	assert.Equal(t, "access_denied", providerErr.Code)
	assert.Equal(t, "user said no", providerErr.Description)
}

func TestClient_NonJSONErrorIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	settings := oauth.ProviderSettings{ProviderType: oauth.Box, TokenEndpoint: srv.URL}
	resp, err := oauth.NewClient().ExchangeCode(context.Background(), settings, "code")
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	settings := oauth.ProviderSettings{ProviderType: oauth.Box, TokenEndpoint: srv.URL}
	_, err := oauth.NewClient().RefreshToken(context.Background(), settings, "rt")
	assert.Error(t, err)
}

func TestClient_RefreshToken(t *testing.T) {
	srv := mock.NewProviderServer(mock.ProviderServerConfig{RotateRefreshToken: true, TokenLifetime: 10 * time.Minute})
	defer srv.Close()
	srv.IssueRefreshToken("rt-0")

	client := oauth.NewClient()
	resp, err := client.RefreshToken(context.Background(), srv.Settings(oauth.OneDrive), "rt-0")
	require.NoError(t, err)
	assert.Equal(t, "access-1", resp.AccessToken)
	assert.Equal(t, "refresh-1", resp.RefreshToken)
	assert.Equal(t, int64(600), resp.ExpiresIn)

	// The rotated-out token is no longer accepted.
	resp, err = client.RefreshToken(context.Background(), srv.Settings(oauth.OneDrive), "rt-0")
	require.NoError(t, err)
	assert.Equal(t, "invalid_grant", resp.Error)

	_, err = client.RefreshToken(context.Background(), srv.Settings(oauth.OneDrive), "")
	assert.Error(t, err)
	assert.Equal(t, 2, srv.RefreshCalls())
}

func TestClient_FetchUserInfoFiltersGoogle(t *testing.T) {
	srv := mock.NewProviderServer(mock.ProviderServerConfig{
		UserInfo: map[string]interface{}{
			"sub":     "123",
			"email":   "a@example.com",
			"name":    "Ada",
			"picture": "https://img",
		},
	})
	defer srv.Close()
	client := oauth.NewClient()

	info, err := client.FetchUserInfo(context.Background(), srv.Settings(oauth.GoogleBigQuery), "at")
	require.NoError(t, err)
	assert.Equal(t, oauth.UserInfo{"sub": "123", "email": "a@example.com", "name": "Ada"}, info)

	info, err = client.FetchUserInfo(context.Background(), srv.Settings(oauth.Box), "at")
	require.NoError(t, err)
	assert.Contains(t, info, "picture", "only google documents are filtered")

	info, err = client.FetchUserInfo(context.Background(), srv.Settings(oauth.Box), "")
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Equal(t, 2, srv.UserInfoCalls())
}

func TestClient_FetchUserInfoRejected(t *testing.T) {
	srv := mock.NewProviderServer(mock.ProviderServerConfig{})
	defer srv.Close()

	info, err := oauth.NewClient().FetchUserInfo(context.Background(), srv.Settings(oauth.GoogleAnalytics), "at")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestClient_DropboxUserInfoUsesPost(t *testing.T) {
	var method, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account_id":"dbid:42","email":"d@example.com","name":{"display_name":"Dee"}}`))
	}))
	defer srv.Close()

	settings := oauth.ProviderSettings{ProviderType: oauth.Dropbox, UserInfoEndpoint: srv.URL}
	info, err := oauth.NewClient().FetchUserInfo(context.Background(), settings, "at")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "Bearer at", auth)
	assert.Equal(t, "dbid:42", info["account_id"])

	client := oauth.NewClient()
	assert.Equal(t, "dbid:42", client.TokenIdentifier(oauth.Dropbox, &oauth.Token{UserInfo: info}))
}

func TestClient_TokenIdentifier(t *testing.T) {
	client := oauth.NewClient()

	assert.Equal(t, "sub-1", client.TokenIdentifier(oauth.GoogleAnalytics4, &oauth.Token{UserInfo: oauth.UserInfo{"sub": "sub-1"}}))
	assert.Equal(t, "od-1", client.TokenIdentifier(oauth.OneDrive, &oauth.Token{UserInfo: oauth.UserInfo{"id": "od-1"}}))

	a := client.TokenIdentifier(oauth.GoogleAnalytics, &oauth.Token{})
	b := client.TokenIdentifier(oauth.GoogleAnalytics, nil)
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)

	// Non-string ids are not used.
	c := client.TokenIdentifier(oauth.Box, &oauth.Token{UserInfo: oauth.UserInfo{"id": 7.0}})
	assert.Len(t, c, 36)
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := mock.NewProviderServer(mock.ProviderServerConfig{RefreshDelay: 200 * time.Millisecond})
	defer srv.Close()
	srv.IssueRefreshToken("rt")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := oauth.NewClient().RefreshToken(ctx, srv.Settings(oauth.Box), "rt")
	assert.Error(t, err)
}

func TestClient_FullFlowAgainstProvider(t *testing.T) {
	clock := newClock()
	srv := mock.NewProviderServer(mock.ProviderServerConfig{
		UserInfo: map[string]interface{}{"id": "box-user", "login": "b@example.com", "name": "Bea"},
	})
	defer srv.Close()

	registry := oauth.NewRegistry()
	registry.Register(srv.Settings(oauth.Box))
	store := tokenstore.NewMemoryStore()
	m := oauth.NewManager(registry, store,
		oauth.WithClock(clock.Now),
		oauth.WithProviderClient(oauth.NewClient(oauth.WithClientClock(clock.Now))),
	)

	ctx := context.Background()
	user := oauth.NewUserContext("app-user")

	authURL, err := m.AuthorizationURL(user, oauth.Box, "ds-box", "")
	require.NoError(t, err)

	// Follow the consent redirect manually to pick up code and state.
	noFollow := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := noFollow.Get(authURL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)

	result, err := m.CompleteAuthorization(ctx, user, oauth.Box, loc.Query().Get("code"), loc.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "box-user", result.TokenID)

	cred := m.ResolveCredentials(ctx, user, "ds-box", oauth.Box)
	require.NotNil(t, cred)
	assert.Equal(t, "access-1", cred.AccessToken)
	assert.Equal(t, "box-user", cred.UserID)

	clock.Advance(time.Hour)
	cred = m.ResolveCredentials(ctx, user, "ds-box", oauth.Box)
	require.NotNil(t, cred)
	assert.Equal(t, "access-2", cred.AccessToken)
	assert.Equal(t, 1, srv.RefreshCalls())
}
