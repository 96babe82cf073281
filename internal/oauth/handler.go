package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dashlink/dashlink/pkg/logging"
)

// UserContextFunc derives the application user from an inbound request.
type UserContextFunc func(r *http.Request) UserContext

// HeaderUserContext reads the user id from the named request header.
func HeaderUserContext(header string) UserContextFunc {
	return func(r *http.Request) UserContext {
		return UserContext{UserID: r.Header.Get(header)}
	}
}

// ErrorResponse is the JSON body of every failed OAuth endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Handler serves the browser side of the authorization flow and the token
// management endpoints.
type Handler struct {
	manager *Manager
	userFn  UserContextFunc
}

// NewHandler creates a Handler. A nil userFn treats every request as the
// guest user.
func NewHandler(manager *Manager, userFn UserContextFunc) *Handler {
	if userFn == nil {
		userFn = func(*http.Request) UserContext { return UserContext{} }
	}
	return &Handler{manager: manager, userFn: userFn}
}

// RegisterRoutes mounts the endpoints on r. Literal segments are registered
// before the token id catch-alls.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{provider}/auth", h.handleAuth).Methods(http.MethodGet)
	r.HandleFunc("/{provider}/auth/{dataSourceId}", h.handleAuth).Methods(http.MethodGet)
	r.HandleFunc("/{provider}/callback", h.handleCallback).Methods(http.MethodGet)
	r.HandleFunc("/{provider}/authenticated", h.handleAuthenticated).Methods(http.MethodGet)
	r.HandleFunc("/{provider}/authenticated/{tokenId}", h.handleAuthenticated).Methods(http.MethodGet)
	r.HandleFunc("/{provider}/datasources/{dataSourceId}", h.handleDataSourceDeleted).Methods(http.MethodDelete)
	r.HandleFunc("/{provider}/{tokenId}", h.handleUserInfo).Methods(http.MethodGet)
	r.HandleFunc("/{provider}/{tokenId}", h.handleDeleteToken).Methods(http.MethodDelete)
	r.HandleFunc("/{provider}/{tokenId}/{dataSourceId}", h.handleLink).Methods(http.MethodPut)
}

func (h *Handler) provider(w http.ResponseWriter, r *http.Request) (ProviderType, bool) {
	p, err := ParseProviderType(mux.Vars(r)["provider"])
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_provider", err.Error())
		return "", false
	}
	return p, true
}

func (h *Handler) handleAuth(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	user := h.userFn(r)
	dataSourceID := mux.Vars(r)["dataSourceId"]
	finalURL := r.URL.Query().Get("finalUrl")

	authURL, err := h.manager.AuthorizationURL(user, p, dataSourceID, finalURL)
	if err != nil {
		h.writeFlowError(w, err)
		return
	}

	if r.URL.Query().Get("mode") == "url" {
		setSecurityHeaders(w)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(authURL))
		return
	}
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		desc := query.Get("error_description")
		logging.Warn("OAuth", "Provider %s returned error on callback: %s", p, errCode)
		writeError(w, http.StatusBadRequest, errCode, desc)
		return
	}

	result, err := h.manager.CompleteAuthorization(r.Context(), h.userFn(r), p, query.Get("code"), query.Get("state"))
	if err != nil {
		h.writeFlowError(w, err)
		return
	}

	target := h.manager.AuthenticatedURL(p, result.FinalURL, result.TokenID)
	if target == "" {
		h.renderAuthenticatedPage(w)
		return
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (h *Handler) handleAuthenticated(w http.ResponseWriter, r *http.Request) {
	h.renderAuthenticatedPage(w)
}

func (h *Handler) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	tokenID := mux.Vars(r)["tokenId"]

	info, err := h.manager.GetUserInfo(r.Context(), h.userFn(r), p, tokenID)
	if errors.Is(err, ErrTokenNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "token not found")
		return
	}
	if err != nil {
		logging.Error("OAuth", err, "Failed to load token %s", logging.TruncateID(tokenID))
		writeError(w, http.StatusInternalServerError, "server_error", "failed to load token")
		return
	}
	if info == nil {
		info = UserInfo{}
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) handleLink(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	err := h.manager.LinkToken(r.Context(), h.userFn(r), p, vars["tokenId"], vars["dataSourceId"])
	if errors.Is(err, ErrTokenNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "token not found")
		return
	}
	if err != nil {
		logging.Error("OAuth", err, "Failed to link token")
		writeError(w, http.StatusInternalServerError, "server_error", "failed to link token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	if err := h.manager.DeleteToken(r.Context(), h.userFn(r), mux.Vars(r)["tokenId"], p); err != nil {
		logging.Error("OAuth", err, "Failed to delete token")
		writeError(w, http.StatusInternalServerError, "server_error", "failed to delete token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDataSourceDeleted(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	if err := h.manager.DataSourceDeleted(r.Context(), h.userFn(r), mux.Vars(r)["dataSourceId"], p); err != nil {
		logging.Error("OAuth", err, "Failed to unlink data source")
		writeError(w, http.StatusInternalServerError, "server_error", "failed to unlink data source")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeFlowError maps manager errors onto HTTP statuses.
func (h *Handler) writeFlowError(w http.ResponseWriter, err error) {
	var stateErr *StateValidationError
	var providerErr *ProviderError

	switch {
	case errors.Is(err, ErrProviderNotConfigured), errors.Is(err, ErrUnknownProvider):
		writeError(w, http.StatusNotFound, "not_configured", "oauth provider not configured")
	case errors.As(err, &stateErr):
		writeError(w, http.StatusBadRequest, "invalid_state", stateErr.Message)
	case errors.Is(err, ErrInvalidState):
		writeError(w, http.StatusBadRequest, "invalid_state", "state parameter could not be decoded")
	case errors.Is(err, ErrMissingCode):
		writeError(w, http.StatusBadRequest, "invalid_request", "authorization code missing")
	case errors.Is(err, ErrFinalURLNotAllowed):
		writeError(w, http.StatusBadRequest, "invalid_request", "finalUrl is not an allowed redirect target")
	case errors.As(err, &providerErr):
		writeError(w, http.StatusBadRequest, providerErr.Code, providerErr.Description)
	default:
		logging.Error("OAuth", err, "Authorization flow failed")
		writeError(w, http.StatusBadGateway, "server_error", "failed to complete authorization with provider")
	}
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("OAuth", "Failed to write response: %v", err)
	}
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
}

func (h *Handler) renderAuthenticatedPage(w http.ResponseWriter) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Authentication complete</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; text-align: center; padding-top: 4rem; color: #333; }
    </style>
</head>
<body>
    <h1>Authentication complete</h1>
    <p>You can close this window</p>
</body>
</html>`)
}
