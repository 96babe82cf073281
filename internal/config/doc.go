// Package config loads the dashlink configuration.
//
// Configuration lives in a single directory, ~/.config/dashlink by default
// or the directory passed with --config-path:
//
//	config.yaml     server, oauth and storage settings
//	providers.json  OAuth client registrations, one entry per provider
//	.env            optional secrets, read with godotenv
//
// A missing config.yaml yields the defaults from DefaultConfig. Secrets can
// be supplied through the environment instead of the file:
//
//	DASHLINK_ENCRYPTION_KEY  storage.encryptionKey
//	DASHLINK_REDIS_PASSWORD  storage.redis.password
//	DASHLINK_STATE_SECRET    oauth.stateSecret
//	DASHLINK_PORT            server.port
//
// Provider registrations are read in the format
//
//	{"providers": {"GOOGLE_ANALYTICS": {"clientId": "...", "clientSecret": "...", "redirectUri": "..."}}}
//
// Entries that cannot be used are reported as ConfigurationError warnings
// and skipped, so a single bad entry never prevents startup.
package config
