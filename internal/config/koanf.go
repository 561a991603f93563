// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
	"/etc/marquee/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Plex: PlexConfig{
			LibraryName:        "Movies",
			Timeout:            30 * time.Second,
			RequestsPerSecond:  5,
			CollectionCacheTTL: time.Minute,
		},
		Rotation: RotationConfig{
			Enabled:        true,
			Interval:       12 * time.Hour,
			MaxCollections: 5,
			Strategy:       "random",
		},
		Database: DatabaseConfig{
			Path:      "/data/marquee.duckdb",
			MaxMemory: "256MB",
		},
		Ledger: LedgerConfig{
			Backend: "badger",
			Path:    "/data/simulations",
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8485,
			Timeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AuthMode:          "none",
			AdminUsername:     "admin",
			SessionTimeout:    30 * 24 * time.Hour,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFile builds the configuration from defaults, the given config file and
// the environment, then validates it. An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	if err := applyGroupDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to apply group defaults: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ResolvePath returns the config file to load, or "" when none exists.
func ResolvePath() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// groupDefaults fill keys a group entry leaves out. Struct defaults cannot
// reach list elements, so they are applied to the raw maps.
var groupDefaults = map[string]interface{}{
	"enabled":         true,
	"max_picks":       1,
	"weight":          1,
	"visibility_home": true,
}

func applyGroupDefaults(k *koanf.Koanf) error {
	raw, ok := k.Get("groups").([]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	for i, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return fmt.Errorf("groups[%d] must be a mapping", i)
		}
		for key, def := range groupDefaults {
			if _, set := m[key]; !set {
				m[key] = def
			}
		}
	}
	return k.Set("groups", raw)
}

// envMappings maps environment variables to config paths. Unlisted
// variables are ignored.
var envMappings = map[string]string{
	"plex_url":                   "plex.url",
	"plex_token":                 "plex.token",
	"plex_library_name":          "plex.library_name",
	"plex_mock":                  "plex.mock",
	"plex_timeout":               "plex.timeout",
	"plex_requests_per_second":   "plex.requests_per_second",
	"plex_collection_cache_ttl":  "plex.collection_cache_ttl",
	"rotation_enabled":           "rotation.enabled",
	"rotation_interval":          "rotation.interval",
	"rotation_max_collections":   "rotation.max_collections",
	"rotation_seed":              "rotation.seed",
	"rotation_scheduled_dry_run": "rotation.scheduled_dry_run",
	"duckdb_path":                "database.path",
	"duckdb_max_memory":          "database.max_memory",
	"duckdb_threads":             "database.threads",
	"ledger_backend":             "ledger.backend",
	"ledger_path":                "ledger.path",
	"http_host":                  "server.host",
	"http_port":                  "server.port",
	"server_timeout":             "server.timeout",
	"auth_mode":                  "security.auth_mode",
	"admin_username":             "security.admin_username",
	"admin_password":             "security.admin_password",
	"jwt_secret":                 "security.jwt_secret",
	"session_timeout":            "security.session_timeout",
	"cors_origins":               "security.cors_origins",
	"rate_limit_requests":        "security.rate_limit_requests",
	"rate_limit_window":          "security.rate_limit_window",
	"disable_rate_limit":         "security.rate_limit_disabled",
	"log_level":                  "logging.level",
	"log_format":                 "logging.format",
	"log_caller":                 "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
