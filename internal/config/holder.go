// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"sync"
	"sync/atomic"

	"github.com/tomtom215/marquee/internal/logging"
)

// Holder publishes the active configuration and notifies subscribers when a
// reload succeeds. A failed reload keeps the previous configuration.
type Holder struct {
	current atomic.Pointer[Config]
	path    string
	load    func(path string) (*Config, error)

	mu        sync.Mutex
	listeners []func(old, updated *Config)
}

// NewHolder wraps an initial configuration loaded from path.
func NewHolder(cfg *Config, path string) *Holder {
	h := &Holder{path: path, load: LoadFile}
	h.current.Store(cfg)
	return h
}

// Get returns the active configuration. Callers must treat it as read-only.
func (h *Holder) Get() *Config {
	return h.current.Load()
}

// Path returns the watched config file, or "" when running on defaults.
func (h *Holder) Path() string {
	return h.path
}

// OnChange registers fn to run after every successful reload.
func (h *Holder) OnChange(fn func(old, updated *Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload re-reads the configuration and swaps it in when valid.
func (h *Holder) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	updated, err := h.load(h.path)
	if err != nil {
		logging.Warn().Err(err).Str("path", h.path).Msg("Config reload failed, keeping previous configuration")
		return err
	}
	old := h.current.Swap(updated)
	logging.SetLevelString(updated.Logging.Level)
	logging.Info().Str("path", h.path).Int("groups", len(updated.Groups)).Msg("Configuration reloaded")

	for _, fn := range h.listeners {
		fn(old, updated)
	}
	return nil
}

// Watch reloads whenever the config file changes. It is a no-op without a file.
func (h *Holder) Watch() error {
	if h.path == "" {
		return nil
	}
	return WatchConfigFile(h.path, func() {
		_ = h.Reload()
	})
}
