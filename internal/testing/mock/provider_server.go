package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dashlink/dashlink/internal/oauth"
)

// ProviderServerConfig configures the fake provider.
type ProviderServerConfig struct {
	ClientID     string
	ClientSecret string

	// TokenLifetime is reported as expires_in. Defaults to one hour.
	TokenLifetime time.Duration

	// UserInfo is served from the user info endpoint. Nil yields a 401 there.
	UserInfo map[string]interface{}

	// RotateRefreshToken makes refresh responses carry a new refresh token.
	RotateRefreshToken bool

	// RefreshDelay is slept inside every refresh request.
	RefreshDelay time.Duration

	Clock Clock
}

// ProviderServer is an httptest server speaking the token endpoint and user
// info dialect of the supported providers.
type ProviderServer struct {
	config ProviderServerConfig
	server *httptest.Server

	mu       sync.Mutex
	codes    map[string]bool
	refresh  map[string]bool
	tokenErr *oauth.TokenResponse
	issued   int

	exchangeCalls atomic.Int32
	refreshCalls  atomic.Int32
	userInfoCalls atomic.Int32
}

// NewProviderServer starts a fake provider.
func NewProviderServer(cfg ProviderServerConfig) *ProviderServer {
	if cfg.ClientID == "" {
		cfg.ClientID = "test-client"
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = "test-secret"
	}
	if cfg.TokenLifetime == 0 {
		cfg.TokenLifetime = time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}

	s := &ProviderServer{
		config:  cfg,
		codes:   make(map[string]bool),
		refresh: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/authorize", s.handleAuthorize)
	mux.HandleFunc("/token", s.handleToken)
	mux.HandleFunc("/userinfo", s.handleUserInfo)
	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the server base URL.
func (s *ProviderServer) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *ProviderServer) Close() {
	s.server.Close()
}

// Settings returns provider settings pointing every endpoint at the fake.
func (s *ProviderServer) Settings(p oauth.ProviderType) oauth.ProviderSettings {
	return oauth.ProviderSettings{
		ProviderType:     p,
		ClientID:         s.config.ClientID,
		ClientSecret:     s.config.ClientSecret,
		AuthEndpoint:     s.server.URL + "/authorize",
		TokenEndpoint:    s.server.URL + "/token",
		UserInfoEndpoint: s.server.URL + "/userinfo",
		RedirectURI:      "https://app.example.com/oauth/" + string(p) + "/callback",
	}
}

// IssueCode registers an authorization code the token endpoint will accept.
func (s *ProviderServer) IssueCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = true
}

// IssueRefreshToken registers a refresh token the token endpoint will accept.
func (s *ProviderServer) IssueRefreshToken(rt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[rt] = true
}

// FailTokenRequests makes the token endpoint answer with the given error
// until called again with an empty code.
func (s *ProviderServer) FailTokenRequests(code, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == "" {
		s.tokenErr = nil
		return
	}
	s.tokenErr = &oauth.TokenResponse{Error: code, ErrorDescription: description}
}

// ExchangeCalls returns the number of authorization_code grants received.
func (s *ProviderServer) ExchangeCalls() int { return int(s.exchangeCalls.Load()) }

// RefreshCalls returns the number of refresh_token grants received.
func (s *ProviderServer) RefreshCalls() int { return int(s.refreshCalls.Load()) }

// UserInfoCalls returns the number of user info requests received.
func (s *ProviderServer) UserInfoCalls() int { return int(s.userInfoCalls.Load()) }

func (s *ProviderServer) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect_uri")
	if redirect == "" {
		http.Error(w, "missing redirect_uri", http.StatusBadRequest)
		return
	}
	code := fmt.Sprintf("code-%d", s.config.Clock.Now().UnixNano())
	s.IssueCode(code)

	sep := "?"
	if strings.Contains(redirect, "?") {
		sep = "&"
	}
	http.Redirect(w, r, redirect+sep+"code="+code+"&state="+r.URL.Query().Get("state"), http.StatusFound)
}

func (s *ProviderServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.writeToken(w, http.StatusBadRequest, oauth.TokenResponse{Error: "invalid_request"})
		return
	}
	if r.PostForm.Get("client_id") != s.config.ClientID || r.PostForm.Get("client_secret") != s.config.ClientSecret {
		s.writeToken(w, http.StatusUnauthorized, oauth.TokenResponse{Error: "invalid_client"})
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		s.exchangeCalls.Add(1)
		s.handleCodeGrant(w, r.PostForm.Get("code"))
	case "refresh_token":
		s.refreshCalls.Add(1)
		if s.config.RefreshDelay > 0 {
			time.Sleep(s.config.RefreshDelay)
		}
		s.handleRefreshGrant(w, r.PostForm.Get("refresh_token"))
	default:
		s.writeToken(w, http.StatusBadRequest, oauth.TokenResponse{Error: "unsupported_grant_type"})
	}
}

func (s *ProviderServer) handleCodeGrant(w http.ResponseWriter, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokenErr != nil {
		s.writeToken(w, http.StatusBadRequest, *s.tokenErr)
		return
	}
	if !s.codes[code] {
		s.writeToken(w, http.StatusBadRequest, oauth.TokenResponse{Error: "invalid_grant", ErrorDescription: "unknown code"})
		return
	}
	delete(s.codes, code)

	s.issued++
	rt := fmt.Sprintf("refresh-%d", s.issued)
	s.refresh[rt] = true
	s.writeToken(w, http.StatusOK, oauth.TokenResponse{
		AccessToken:  fmt.Sprintf("access-%d", s.issued),
		RefreshToken: rt,
		ExpiresIn:    int64(s.config.TokenLifetime / time.Second),
		TokenType:    "Bearer",
		Scope:        "openid",
	})
}

func (s *ProviderServer) handleRefreshGrant(w http.ResponseWriter, rt string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokenErr != nil {
		s.writeToken(w, http.StatusBadRequest, *s.tokenErr)
		return
	}
	if !s.refresh[rt] {
		s.writeToken(w, http.StatusBadRequest, oauth.TokenResponse{Error: "invalid_grant", ErrorDescription: "unknown refresh token"})
		return
	}

	s.issued++
	resp := oauth.TokenResponse{
		AccessToken: fmt.Sprintf("access-%d", s.issued),
		ExpiresIn:   int64(s.config.TokenLifetime / time.Second),
		TokenType:   "Bearer",
	}
	if s.config.RotateRefreshToken {
		delete(s.refresh, rt)
		resp.RefreshToken = fmt.Sprintf("refresh-%d", s.issued)
		s.refresh[resp.RefreshToken] = true
	}
	s.writeToken(w, http.StatusOK, resp)
}

func (s *ProviderServer) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	s.userInfoCalls.Add(1)
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") || s.config.UserInfo == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.config.UserInfo)
}

func (s *ProviderServer) writeToken(w http.ResponseWriter, status int, resp oauth.TokenResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
