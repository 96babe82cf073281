package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/dashlink/dashlink/internal/config"
	"github.com/dashlink/dashlink/internal/oauth"
	"github.com/dashlink/dashlink/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout bounds a response, including a provider token exchange.
	DefaultWriteTimeout = 60 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
	// DefaultShutdownTimeout is used when the configuration sets none.
	DefaultShutdownTimeout = 10 * time.Second
)

// HTTPServer serves the OAuth endpoints.
type HTTPServer struct {
	cfg        config.ServerConfig
	router     *mux.Router
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// New builds the router for handler. The server does not listen until Run.
func New(cfg config.ServerConfig, handler *oauth.Handler) (*HTTPServer, error) {
	if handler == nil {
		return nil, errors.New("oauth handler is required")
	}
	if cfg.PublicURL != "" {
		if err := validateHTTPSRequirement(cfg.PublicURL); err != nil {
			return nil, err
		}
	}

	router := mux.NewRouter()
	router.Use(accessLogMiddleware, userMiddleware(cfg.UserHeader))
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	base := router
	if p := strings.TrimRight(cfg.BasePath, "/"); p != "" {
		base = router.PathPrefix(p).Subrouter()
	}
	handler.RegisterRoutes(base)

	s := &HTTPServer{
		cfg:    cfg,
		router: router,
		ready:  make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	return s, nil
}

// Handler returns the root handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Ready is closed once the listener is bound.
func (s *HTTPServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or the configured one before Run.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Run listens and serves until ctx is cancelled, then shuts down
// gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	logging.Info("HTTP", "Serving OAuth endpoints on http://%s%s", ln.Addr(), s.cfg.BasePath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logging.Info("HTTP", "Shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	<-errCh
	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// validateHTTPSRequirement rejects plain HTTP public URLs except on
// loopback hosts, since provider redirects carry authorization codes.
func validateHTTPSRequirement(publicURL string) error {
	u, err := url.Parse(publicURL)
	if err != nil {
		return fmt.Errorf("invalid public URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("public URL must use HTTPS (got: %s). Use HTTPS or localhost for development", publicURL)
		}
		return nil
	}
	return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
}
