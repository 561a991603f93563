// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/rotation"
)

const sampleYAML = `
plex:
  url: http://plex.local:32400
  token: abc123
  library_name: Films
rotation:
  interval: 6h
  max_collections: 3
groups:
  - name: Holidays
    enabled: true
    min_picks: 1
    max_picks: 2
    min_gap_rotations: 2
    visibility_home: true
    visibility_shared: true
    date_range:
      start: "12-01"
      end: "01-15"
    collections:
      - Christmas Classics
      - Winter Wonderland
  - name: Always
    weight: 3
    collections: [Top Rated]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile_YAMLLayer(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Plex.LibraryName != "Films" || cfg.Plex.Token != "abc123" {
		t.Errorf("plex = %+v", cfg.Plex)
	}
	if cfg.Rotation.Interval != 6*time.Hour || cfg.Rotation.MaxCollections != 3 {
		t.Errorf("rotation = %+v", cfg.Rotation)
	}
	if !cfg.Rotation.Enabled || cfg.Server.Port != 8485 {
		t.Error("defaults not preserved for unset keys")
	}
	if len(cfg.Groups) != 2 || cfg.Groups[0].Name != "Holidays" || cfg.Groups[1].Name != "Always" {
		t.Fatalf("groups = %+v", cfg.Groups)
	}
	h := cfg.Groups[0]
	if h.DateRange == nil || h.DateRange.Start != "12-01" || h.DateRange.End != "01-15" {
		t.Errorf("date range = %+v", h.DateRange)
	}
	if !h.VisibilityHome || !h.VisibilityShared || h.VisibilityRecommended {
		t.Errorf("visibility = %+v", h.Visibility())
	}
	always := cfg.Groups[1]
	if always.Weight != 3 || always.DateRange != nil {
		t.Errorf("second group = %+v", always)
	}
	if !always.Enabled || always.MaxPicks != 1 || always.MinPicks != 0 || !always.VisibilityHome {
		t.Errorf("group defaults not applied: %+v", always)
	}
	if got := cfg.Rotation.Settings(); got != (rotation.Settings{MaxCollections: 3}) {
		t.Errorf("Settings() = %+v", got)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("PLEX_TOKEN", "from-env")
	t.Setenv("PLEX_URL", "http://env-plex:32400")
	t.Setenv("PLEX_COLLECTION_CACHE_TTL", "30s")
	t.Setenv("ROTATION_MAX_COLLECTIONS", "7")
	t.Setenv("ROTATION_INTERVAL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Plex.Token != "from-env" || cfg.Plex.URL != "http://env-plex:32400" || cfg.Plex.CollectionCacheTTL != 30*time.Second {
		t.Errorf("plex = %+v", cfg.Plex)
	}
	if cfg.Rotation.MaxCollections != 7 || cfg.Rotation.Interval != 2*time.Hour {
		t.Errorf("rotation = %+v", cfg.Rotation)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors = %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadFile_MockWithoutFile(t *testing.T) {
	t.Setenv("PLEX_MOCK", "true")
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !cfg.Plex.Mock || len(cfg.Groups) != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "bad month-day",
			body: strings.Replace(sampleYAML, `start: "12-01"`, `start: "13-01"`, 1),
			want: "date_range.start",
		},
		{
			name: "min above max",
			body: strings.Replace(sampleYAML, "min_picks: 1\n    max_picks: 2", "min_picks: 3\n    max_picks: 2", 1),
			want: "max_picks",
		},
		{
			name: "interval too short",
			body: strings.Replace(sampleYAML, "interval: 6h", "interval: 30m", 1),
			want: "rotation.interval",
		},
		{
			name: "missing token",
			body: strings.Replace(sampleYAML, "token: abc123", "token: \"\"", 1),
			want: "plex.token",
		},
		{
			name: "duplicate group name",
			body: strings.Replace(sampleYAML, "name: Always", "name: Holidays", 1),
			want: "duplicate group name",
		},
		{
			name: "jwt without secret",
			body: sampleYAML + "security:\n  auth_mode: jwt\n  admin_password: pw\n",
			want: "jwt_secret",
		},
		{
			name: "empty collections",
			body: sampleYAML + "  - name: Empty\n    enabled: true\n    collections: []\n",
			want: "collections",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	t.Setenv(ConfigPathEnvVar, path)
	if got := ResolvePath(); got != path {
		t.Errorf("ResolvePath() = %q, want %q", got, path)
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	h := NewHolder(cfg, path)

	var notified int
	h.OnChange(func(old, updated *Config) {
		notified++
		if old.Rotation.MaxCollections != 3 || updated.Rotation.MaxCollections != 4 {
			t.Errorf("old=%d updated=%d", old.Rotation.MaxCollections, updated.Rotation.MaxCollections)
		}
	})

	if err := os.WriteFile(path, []byte(strings.Replace(sampleYAML, "max_collections: 3", "max_collections: 4", 1)), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if h.Get().Rotation.MaxCollections != 4 || notified != 1 {
		t.Errorf("max=%d notified=%d", h.Get().Rotation.MaxCollections, notified)
	}

	// An invalid file keeps the previous configuration.
	if err := os.WriteFile(path, []byte(strings.Replace(sampleYAML, "max_collections: 3", "max_collections: 0", 1)), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if h.Get().Rotation.MaxCollections != 4 || notified != 1 {
		t.Errorf("failed reload changed state: max=%d notified=%d", h.Get().Rotation.MaxCollections, notified)
	}
}

func TestHolder_WatchWithoutFile(t *testing.T) {
	h := NewHolder(defaultConfig(), "")
	if err := h.Watch(); err != nil {
		t.Errorf("Watch without file: %v", err)
	}
	if h.Path() != "" {
		t.Error("expected empty path")
	}
	if err := h.Get().Validate(); err == nil || !strings.Contains(err.Error(), "plex.url") {
		t.Errorf("defaults without plex credentials should not validate, got %v", err)
	}
}
