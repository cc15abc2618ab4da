// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// sync server and the sync client. It is populated by merging values from
// environment variables, command-line flags and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds token, integrity and logging settings.
	App App `envPrefix:"APP_"`

	// Storage holds the server database and the client's local store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds listener addresses and timeouts.
	Server Server `envPrefix:"SERVER_"`

	// Sync holds batching and retry limits of the sync engine.
	Sync Sync `envPrefix:"SYNC_"`

	// Adapter holds the client's view of the server.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds intervals of background jobs on both sides.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file merged
	// on top of env and flags.
	JSONFilePath string `env:"CONFIG"`
}

// Storage groups the configuration for all storage backends.
type Storage struct {
	// DB holds the server's PostgreSQL connection settings.
	DB DB `envPrefix:"DB_"`

	// Local holds the client's SQLite database settings.
	Local Local `envPrefix:"LOCAL_"`
}

// App holds application-level values that control tokens, request
// integrity and logging.
type App struct {
	// TokenSignKey signs and verifies JWTs.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim of every issued JWT.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER" envDefault:"sync-server"`

	// AccessTokenDuration is the lifetime of access tokens.
	// Env: APP_ACCESS_TOKEN_DURATION
	AccessTokenDuration time.Duration `env:"ACCESS_TOKEN_DURATION" envDefault:"15m"`

	// RefreshTokenDuration is the lifetime of refresh credentials.
	// Env: APP_REFRESH_TOKEN_DURATION
	RefreshTokenDuration time.Duration `env:"REFRESH_TOKEN_DURATION" envDefault:"720h"`

	// HashKey is the HMAC key for push integrity hashes. Empty disables
	// signing on the client and verification on the server.
	// Env: APP_HASH_KEY
	HashKey string `env:"HASH_KEY"`

	// Version is reported by /api/version and sent as clientVersion.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// LogLevel is a zerolog level name.
	// Env: APP_LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL" envDefault:"debug"`

	// LogFile is the client's rotated log file.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the HTTP listen address, "host:port".
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// GRPCAddress is the gRPC health listen address, "host:port".
	// Env: SERVER_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`

	// RequestTimeout bounds a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// MaxServerChanges caps changes piggybacked on a push response.
	// Env: SERVER_MAX_SERVER_CHANGES
	MaxServerChanges int `env:"MAX_SERVER_CHANGES" envDefault:"100"`

	// SecureCookies marks the refresh cookie Secure.
	// Env: SERVER_SECURE_COOKIES
	SecureCookies bool `env:"SECURE_COOKIES"`
}

// DB holds connection settings for the server database.
type DB struct {
	// DSN is the PostgreSQL connection string.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Local holds the client's SQLite settings.
type Local struct {
	// Path is the SQLite database file.
	// Env: STORAGE_LOCAL_PATH
	Path string `env:"PATH" envDefault:"sync-client.db"`
}

// Sync holds the engine's batching and retry limits.
type Sync struct {
	// ChunkSize is the number of operations per push, 1..100.
	// Env: SYNC_CHUNK_SIZE
	ChunkSize int `env:"CHUNK_SIZE" envDefault:"100"`

	// MaxRetries is the number of failed attempts before an entity needs
	// manual intervention.
	// Env: SYNC_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES" envDefault:"3"`

	// PullLimit is the page size of pull, 1..1000.
	// Env: SYNC_PULL_LIMIT
	PullLimit int `env:"PULL_LIMIT" envDefault:"100"`

	// EntityTypes restricts pull to the listed types. Empty means all.
	// Env: SYNC_ENTITY_TYPES
	EntityTypes []string `env:"ENTITY_TYPES" envSeparator:","`

	// PushMode is "direct" (push endpoint) or "buffered" (enqueue+process).
	// Env: SYNC_PUSH_MODE
	PushMode string `env:"PUSH_MODE" envDefault:"direct"`

	// PrefilterDuplicates asks the server which operations were already
	// applied before pushing a chunk.
	// Env: SYNC_PREFILTER_DUPLICATES
	PrefilterDuplicates bool `env:"PREFILTER_DUPLICATES"`
}

// Adapter holds the client's outbound transport settings.
type Adapter struct {
	// ServerURL is the base URL of the sync server.
	// Env: ADAPTER_SERVER_URL
	ServerURL string `env:"SERVER_URL"`

	// RequestTimeout bounds every outbound call. A timed-out call is a
	// transport failure.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// CookieAuth refreshes with the refresh cookie instead of a bearer
	// refresh token.
	// Env: ADAPTER_COOKIE_AUTH
	CookieAuth bool `env:"COOKIE_AUTH"`
}

// Workers holds intervals of background jobs.
type Workers struct {
	// SyncInterval is the client's periodic sync cycle interval.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"5m"`

	// ConnectivityInterval is the client's ping interval.
	// Env: WORKERS_CONNECTIVITY_INTERVAL
	ConnectivityInterval time.Duration `env:"CONNECTIVITY_INTERVAL" envDefault:"30s"`

	// BackoffMin and BackoffMax bound the delay after a failed cycle.
	// Env: WORKERS_BACKOFF_MIN, WORKERS_BACKOFF_MAX
	BackoffMin time.Duration `env:"BACKOFF_MIN" envDefault:"1s"`
	BackoffMax time.Duration `env:"BACKOFF_MAX" envDefault:"5m"`

	// QueueInterval is how often the server drains its buffered queue.
	// Zero disables the server worker.
	// Env: WORKERS_QUEUE_INTERVAL
	QueueInterval time.Duration `env:"QUEUE_INTERVAL" envDefault:"10s"`
}

// GetStructuredConfig loads, merges, and validates the server configuration
// from all available sources in the following priority order
// (last source wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
