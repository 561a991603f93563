// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/plex"
	"github.com/tomtom215/marquee/internal/scheduler"
	"github.com/tomtom215/marquee/internal/simulation"
)

// buildLedger opens the simulation store. The returned func releases it.
func buildLedger(cfg *config.LedgerConfig) (*simulation.Ledger, func(), error) {
	if cfg.Backend != "badger" {
		logging.Info().Msg("Simulation ledger kept in memory")
		return simulation.NewLedger(simulation.NewMemoryStore()), func() {}, nil
	}

	db, err := simulation.OpenBadger(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open simulation ledger: %w", err)
	}
	store, err := simulation.NewBadgerStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("open simulation ledger: %w", err)
	}
	logging.Info().Str("path", cfg.Path).Msg("Simulation ledger opened")

	closeFn := func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error releasing ledger sequence")
		}
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing simulation ledger")
		}
	}
	return simulation.NewLedger(store), closeFn, nil
}

// buildMediaServer returns the demo server in mock mode, otherwise a Plex
// client behind a circuit breaker. An unreachable server is logged, not fatal.
func buildMediaServer(ctx context.Context, cfg *config.PlexConfig) plex.MediaServer {
	if cfg.Mock {
		logging.Warn().Msg("Plex mock mode: rotations apply to an in-process demo library")
		return plex.NewMemoryServer()
	}

	client := plex.NewClient(cfg.URL, cfg.Token, cfg.Timeout)
	if v, err := client.Ping(ctx); err != nil {
		logging.Warn().Err(err).Str("url", cfg.URL).Msg("Plex server not reachable at startup")
	} else {
		logging.Info().Str("url", cfg.URL).Str("plex_version", v).Msg("Connected to Plex")
	}
	return plex.NewCircuitBreakerClient(client, plex.DefaultBreakerSettings())
}

func schedulerConfig(cfg *config.Config) scheduler.Config {
	return scheduler.Config{
		Enabled:  cfg.Rotation.Enabled,
		Interval: cfg.Rotation.Interval,
		DryRun:   cfg.Rotation.ScheduledDryRun,
	}
}
