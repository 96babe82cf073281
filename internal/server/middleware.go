package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dashlink/dashlink/internal/oauth"
	"github.com/dashlink/dashlink/pkg/logging"
)

const requestIDHeader = "X-Request-Id"

// userMiddleware resolves the application user from header.
func userMiddleware(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := oauth.NewUserContext(strings.TrimSpace(r.Header.Get(header)))
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// accessLogMiddleware tags each request with an id and logs its outcome.
// Query strings are not logged since they carry codes and state.
func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		if rec.status >= http.StatusInternalServerError {
			logging.Warn("HTTP", "%s %s -> %d (%s) request=%s", r.Method, r.URL.Path, rec.status, time.Since(start), logging.TruncateID(id))
			return
		}
		logging.Debug("HTTP", "%s %s -> %d (%s) request=%s", r.Method, r.URL.Path, rec.status, time.Since(start), logging.TruncateID(id))
	})
}
