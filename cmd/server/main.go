// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package main is the Marquee server.
//
// Marquee rotates which Plex collections are promoted to the Home, Shared Home
// and Recommended rows. Startup order:
//
//  1. Configuration (koanf: defaults, YAML file, environment)
//  2. Logging (zerolog)
//  3. Rotation history (DuckDB) and the simulation ledger (memory or Badger)
//  4. Media server client (Plex, or the in-process demo server when plex.mock is set)
//  5. Rotation service, scheduler and WebSocket hub
//  6. HTTP API
//  7. Supervisor tree, until SIGINT or SIGTERM
//
// Example:
//
//	export PLEX_URL=http://plex:32400
//	export PLEX_TOKEN=your-plex-token
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_PASSWORD=secure-password
//	./marquee
//
// Editing config.yaml while running reloads groups and rotation settings and
// reschedules the timer. Plex, database and security settings need a restart.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/marquee/internal/api"
	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/history"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/plex"
	"github.com/tomtom215/marquee/internal/scheduler"
	"github.com/tomtom215/marquee/internal/service"
	"github.com/tomtom215/marquee/internal/supervisor"
	"github.com/tomtom215/marquee/internal/supervisor/services"
	ws "github.com/tomtom215/marquee/internal/websocket"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Marquee exited with error")
	}
}

//nolint:gocyclo // sequential wiring
func run() error {
	path := config.ResolvePath()
	cfg, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("config_file", path).
		Str("library", cfg.Plex.LibraryName).
		Int("groups", len(cfg.Groups)).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Marquee")

	hist, err := history.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open rotation history: %w", err)
	}
	defer func() {
		if err := hist.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing history database")
		}
	}()

	ledger, closeLedger, err := buildLedger(&cfg.Ledger)
	if err != nil {
		return err
	}
	defer closeLedger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	media := buildMediaServer(ctx, &cfg.Plex)
	applier := plex.NewApplier(media, cfg.Plex.LibraryName, cfg.Plex.RequestsPerSecond,
		plex.WithCollectionCache(cfg.Plex.CollectionCacheTTL))

	holder := config.NewHolder(cfg, path)
	hub := ws.NewHub()
	svc := service.New(holder, hist, ledger, applier, service.WithNotifier(hub))

	sched := scheduler.New(svc, schedulerConfig(cfg))
	holder.OnChange(func(old, updated *config.Config) {
		sched.Reschedule(updated.Rotation.Interval, updated.Rotation.Enabled, updated.Rotation.ScheduledDryRun)
		if old.Plex != updated.Plex || old.Security.AuthMode != updated.Security.AuthMode {
			logging.Warn().Msg("Plex or security settings changed; restart Marquee to apply them")
		}
	})
	if err := holder.Watch(); err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable, hot reload disabled")
	}

	authn, err := auth.NewAuthenticator(&cfg.Security)
	if err != nil {
		return fmt.Errorf("configure authentication: %w", err)
	}

	handler := api.NewHandler(api.Deps{
		Rotator:   svc,
		Scheduler: sched,
		Auth:      authn,
		Database:  hist,
		Media:     applier,
		Clients:   hub,
		Version:   version,
	})
	router := api.NewRouter(handler,
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
		authn,
		ws.NewHandler(hub, cfg.Security.CORSOrigins),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddCoreService(services.NewHubService(hub))
	tree.AddCoreService(services.NewSchedulerService(sched))
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, u := range unstopped {
			logging.Warn().Str("service", u.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Marquee stopped")
	return nil
}
