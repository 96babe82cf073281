// Package oauth manages OAuth 2.0 tokens on behalf of dashboard data
// sources.
//
// A Manager drives the authorization code flow for the supported providers
// (Google Analytics, BigQuery, Drive and Search Console, OneDrive, Dropbox
// and Box), stores the resulting tokens through a TokenStore and hands out
// bearer credentials for the data sources they are linked to.
//
// # Flow
//
//	AuthorizationURL     -> consent screen, state carries the user hash
//	CompleteAuthorization -> state check, code exchange, user info, store
//	ResolveCredentials   -> linked token, refreshed when inside the grace window
//
// Refreshes are serialized per (user, data source, provider) through a
// KeyedLock, so concurrent resolutions share a single provider call.
//
// # HTTP
//
// Handler exposes the browser endpoints (auth, callback, authenticated) and
// the token management endpoints on a gorilla/mux router.
package oauth
