package server

import (
	"context"
	"net/http"

	"github.com/dashlink/dashlink/internal/oauth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	userContextKey contextKey = "dashlink_user"
	requestIDKey   contextKey = "dashlink_request_id"
)

// ContextWithUser returns a copy of ctx carrying user.
func ContextWithUser(ctx context.Context, user oauth.UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user stored by ContextWithUser.
func UserFromContext(ctx context.Context) (oauth.UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(oauth.UserContext)
	return user, ok
}

// RequestUser is the oauth.UserContextFunc for requests that went through
// the user middleware. Requests without a user resolve to the guest.
func RequestUser(r *http.Request) oauth.UserContext {
	user, _ := UserFromContext(r.Context())
	return user
}

// RequestIDFromContext returns the id assigned by the access log middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
