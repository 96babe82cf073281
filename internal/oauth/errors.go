package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotConfigured is returned when no settings are registered
	// for the requested provider.
	ErrProviderNotConfigured = errors.New("oauth provider not configured")

	// ErrUnknownProvider is returned for provider names outside the
	// supported set.
	ErrUnknownProvider = errors.New("unknown oauth provider")

	// ErrTokenNotFound is returned when a token id does not resolve to a
	// stored token.
	ErrTokenNotFound = errors.New("oauth token not found")

	// ErrInvalidState is returned when a state parameter cannot be decoded.
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrMissingCode is returned when a callback carries no authorization code.
	ErrMissingCode = errors.New("authorization code missing")

	// ErrFinalURLNotAllowed is returned when a final URL points outside the
	// allowed redirect origins.
	ErrFinalURLNotAllowed = errors.New("final url not allowed")
)

// ProviderError carries the error and error_description a provider
// returned from its token endpoint or callback redirect.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("oauth provider error: %s", e.Code)
	}
	return fmt.Sprintf("oauth provider error: %s: %s", e.Code, e.Description)
}

// StateValidationError reports that a callback's state did not bind to the
// requesting user.
type StateValidationError struct {
	Message string
}

func (e *StateValidationError) Error() string {
	return "oauth state validation failed: " + e.Message
}

// FlowState is a step of the authorization dance for one data source.
type FlowState string

const (
	FlowUnlinked         FlowState = "UNLINKED"
	FlowAuthRequested    FlowState = "AUTH_REQUESTED"
	FlowCallbackReceived FlowState = "CALLBACK_RECEIVED"
	FlowTokenSaved       FlowState = "TOKEN_SAVED"
	FlowFailed           FlowState = "FAILED"
)

// FlowError wraps a failure of the authorization flow with the state it
// was in when it failed. The flow itself is left in FlowFailed.
type FlowError struct {
	Stage    FlowState
	Provider ProviderType
	Err      error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("oauth flow for %s failed in %s: %v", e.Provider, e.Stage, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}
