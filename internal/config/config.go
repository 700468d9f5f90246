// Package config loads service configuration from the environment. The
// backing store is selected by a single connection-string-style value.
package config

import (
	"os"
	"time"
)

const (
	// DefaultDatabaseURL lets the binary run with zero configuration.
	DefaultDatabaseURL = "wikisvc.db"
	DefaultAddr        = ":8000"
	DefaultLogLevel    = "info"

	// ShutdownTimeout bounds graceful drain on SIGINT/SIGTERM.
	ShutdownTimeout = 30 * time.Second
)

type Config struct {
	// DatabaseURL selects the backing store: postgres://..., mysql://...,
	// or a SQLite file path.
	DatabaseURL string

	// Addr is the network address the HTTP server binds to.
	Addr string

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string
}

// FromEnv reads DATABASE_URL, HTTP_ADDR, and LOG_LEVEL, falling back to
// defaults for anything unset.
func FromEnv() Config {
	return Config{
		DatabaseURL: envOr("DATABASE_URL", DefaultDatabaseURL),
		Addr:        envOr("HTTP_ADDR", DefaultAddr),
		LogLevel:    envOr("LOG_LEVEL", DefaultLogLevel),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
