// Package tokenstore provides the oauth.TokenStore implementations used by
// dashlink.
//
// Three backends are available:
//
//   - MemoryStore keeps everything in process memory and loses it on restart.
//   - FileStore keeps a single JSON document on disk, rewritten atomically on
//     every change and reloaded when another process modifies it.
//   - RedisStore keeps one key per token and per data source link.
//
// FileStore and RedisStore can encrypt access, refresh and id tokens at rest
// with an Encryptor (AES-256-GCM, key derived with PBKDF2).
//
// All stores return copies from their getters, so the oauth.Manager can
// mutate a token during refresh and save it back without racing readers.
package tokenstore
