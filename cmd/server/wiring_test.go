// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/plex"
	"github.com/tomtom215/marquee/internal/rotation"
	"github.com/tomtom215/marquee/internal/simulation"
)

func TestBuildLedger(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LedgerConfig
	}{
		{"memory", config.LedgerConfig{Backend: "memory"}},
		{"badger", config.LedgerConfig{Backend: "badger", Path: t.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, closeFn, err := buildLedger(&tt.cfg)
			if err != nil {
				t.Fatalf("buildLedger() error = %v", err)
			}
			defer closeFn()

			ctx := context.Background()
			sim, err := ledger.Create(ctx, &rotation.RotationResult{SelectedCollections: []string{"Nolan Collection"}})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if _, err := ledger.Apply(ctx, sim.ID); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if _, err := ledger.Apply(ctx, sim.ID); !errors.Is(err, simulation.ErrAlreadyApplied) {
				t.Errorf("second Apply() error = %v, want ErrAlreadyApplied", err)
			}
		})
	}
}

func TestBuildMediaServer(t *testing.T) {
	mock := buildMediaServer(context.Background(), &config.PlexConfig{Mock: true})
	if _, ok := mock.(*plex.MemoryServer); !ok {
		t.Fatalf("mock mode returned %T, want *plex.MemoryServer", mock)
	}
	if _, err := mock.SectionByName(context.Background(), "Movies"); err != nil {
		t.Errorf("demo library missing: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	live := buildMediaServer(ctx, &config.PlexConfig{URL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond})
	if _, ok := live.(*plex.CircuitBreakerClient); !ok {
		t.Errorf("plex mode returned %T, want *plex.CircuitBreakerClient", live)
	}
}

func TestSchedulerConfig(t *testing.T) {
	cfg := &config.Config{Rotation: config.RotationConfig{Enabled: true, Interval: 6 * time.Hour, ScheduledDryRun: true}}
	got := schedulerConfig(cfg)
	if !got.Enabled || got.Interval != 6*time.Hour || !got.DryRun {
		t.Errorf("schedulerConfig() = %+v", got)
	}
}
