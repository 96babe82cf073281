package oauth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dashlink/dashlink/internal/oauth"
	"github.com/dashlink/dashlink/internal/testing/mock"
)

// stubClient is a ProviderClient with canned responses. URL building and
// token ids come from the real client.
type stubClient struct {
	real *oauth.Client
	now  func() time.Time

	mu           sync.Mutex
	exchangeResp *oauth.TokenResponse
	exchangeErr  error
	refreshResp  *oauth.TokenResponse
	refreshErr   error
	refreshDelay time.Duration
	userInfo     oauth.UserInfo
	userInfoErr  error
	lastRefresh  string

	exchangeCalls atomic.Int32
	refreshCalls  atomic.Int32
}

func newStubClient(now func() time.Time) *stubClient {
	return &stubClient{real: oauth.NewClient(), now: now}
}

func (s *stubClient) AuthorizationURL(settings oauth.ProviderSettings, state string) (string, error) {
	return s.real.AuthorizationURL(settings, state)
}

func (s *stubClient) ExchangeCode(_ context.Context, _ oauth.ProviderSettings, _ string) (*oauth.TokenResponse, error) {
	s.exchangeCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	if s.exchangeResp == nil {
		return nil, errors.New("no exchange response configured")
	}
	r := *s.exchangeResp
	r.ReceivedAt = s.now()
	return &r, nil
}

func (s *stubClient) RefreshToken(ctx context.Context, _ oauth.ProviderSettings, refreshToken string) (*oauth.TokenResponse, error) {
	s.refreshCalls.Add(1)
	s.mu.Lock()
	delay := s.refreshDelay
	s.lastRefresh = refreshToken
	resp, err := s.refreshResp, s.refreshErr
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("no refresh response configured")
	}
	r := *resp
	r.ReceivedAt = s.now()
	return &r, nil
}

func (s *stubClient) FetchUserInfo(_ context.Context, _ oauth.ProviderSettings, _ string) (oauth.UserInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userInfo.Clone(), s.userInfoErr
}

func (s *stubClient) TokenIdentifier(p oauth.ProviderType, token *oauth.Token) string {
	return s.real.TokenIdentifier(p, token)
}

func newClock() *mock.MockClock {
	return mock.NewMockClock(time.UnixMilli(1_700_000_000_000))
}

// failingStore fails every operation.
type failingStore struct{}

var errStoreDown = errors.New("store unavailable")

func (failingStore) GetToken(context.Context, string, string, oauth.ProviderType) (*oauth.Token, error) {
	return nil, errStoreDown
}
func (failingStore) SaveToken(context.Context, string, oauth.ProviderType, *oauth.Token) error {
	return errStoreDown
}
func (failingStore) DeleteToken(context.Context, string, string, oauth.ProviderType) error {
	return errStoreDown
}
func (failingStore) SetDataSourceToken(context.Context, string, string, string, oauth.ProviderType) error {
	return errStoreDown
}
func (failingStore) GetDataSourceToken(context.Context, string, string, oauth.ProviderType) (*oauth.Token, error) {
	return nil, errStoreDown
}
func (failingStore) DataSourceDeleted(context.Context, string, string, oauth.ProviderType) error {
	return errStoreDown
}
