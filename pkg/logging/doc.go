// Package logging provides the subsystem-tagged logging facade used across
// dashlink.
//
// It wraps log/slog with printf-style helpers so call sites read as
//
//	logging.Info("OAuth", "Refreshed token for provider %s", provider)
//	logging.Error("TokenStore", err, "Failed to persist document %s", path)
//
// Every record carries a "subsystem" attribute and, for Error, an "error"
// attribute. Output is text by default and JSON when Options.Format is
// FormatJSON.
//
// Secrets must never be passed to these helpers directly. Tokens are wrapped
// in oauth.RedactedToken and identifiers are shortened with TruncateID.
package logging
