// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package config loads and validates Marquee configuration.
//
// Configuration is layered with koanf, later layers overriding earlier ones:
//
//  1. Struct defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/marquee/config.yaml)
//  3. Mapped environment variables (PLEX_URL, JWT_SECRET, ROTATION_INTERVAL, ...)
//
// Collection groups are only read from the YAML file. Their order in the file
// is significant: earlier groups win cross-group dedup and visibility.
//
// A Holder keeps the active configuration behind an atomic pointer and
// re-runs Load when the YAML file changes.
package config

import (
	"time"

	"github.com/tomtom215/marquee/internal/rotation"
)

// Config is the complete application configuration.
type Config struct {
	Plex     PlexConfig                 `koanf:"plex"`
	Rotation RotationConfig             `koanf:"rotation"`
	Groups   []rotation.CollectionGroup `koanf:"groups" validate:"dive"`
	Database DatabaseConfig             `koanf:"database"`
	Ledger   LedgerConfig               `koanf:"ledger"`
	Server   ServerConfig               `koanf:"server"`
	Security SecurityConfig             `koanf:"security"`
	Logging  LoggingConfig              `koanf:"logging"`
}

// PlexConfig configures the media server connection.
type PlexConfig struct {
	URL         string `koanf:"url" validate:"omitempty,url"`
	Token       string `koanf:"token"`
	LibraryName string `koanf:"library_name" validate:"required"`

	// Mock serves an in-process demo library instead of a real server.
	Mock bool `koanf:"mock"`

	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond paces visibility updates. Zero disables pacing.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`

	// CollectionCacheTTL bounds how long library listings are reused for
	// validation and health checks. Zero disables caching.
	CollectionCacheTTL time.Duration `koanf:"collection_cache_ttl" validate:"gte=0"`
}

// RotationConfig holds global rotation settings.
type RotationConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Interval       time.Duration `koanf:"interval"`
	MaxCollections int           `koanf:"max_collections" validate:"gte=1"`

	// Seed fixes the random source. Zero seeds from the clock.
	Seed int64 `koanf:"seed"`

	// ScheduledDryRun makes timer-triggered rotations skip media server writes.
	ScheduledDryRun bool `koanf:"scheduled_dry_run"`

	// Strategy and AllowRepeats are accepted for compatibility and reported
	// by the API. Selection is always random with the gap rule.
	Strategy     string `koanf:"strategy" validate:"oneof=random"`
	AllowRepeats bool   `koanf:"allow_repeats"`
}

// Settings returns the engine settings derived from the configuration.
func (r RotationConfig) Settings() rotation.Settings {
	return rotation.Settings{MaxCollections: r.MaxCollections}
}

// DatabaseConfig configures the DuckDB rotation history store.
type DatabaseConfig struct {
	// Path is the database file. ":memory:" keeps history in memory.
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"`
}

// LedgerConfig configures simulation storage.
type LedgerConfig struct {
	Backend string `koanf:"backend" validate:"oneof=memory badger"`
	Path    string `koanf:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig configures authentication, CORS and rate limiting.
type SecurityConfig struct {
	AuthMode       string        `koanf:"auth_mode" validate:"oneof=none jwt"`
	AdminUsername  string        `koanf:"admin_username"`
	AdminPassword  string        `koanf:"admin_password"`
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled off"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}
