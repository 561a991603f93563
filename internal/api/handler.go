// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"time"

	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/history"
	"github.com/tomtom215/marquee/internal/rotation"
	"github.com/tomtom215/marquee/internal/scheduler"
	"github.com/tomtom215/marquee/internal/service"
	"github.com/tomtom215/marquee/internal/simulation"
)

// Rotator is the rotation service as seen by the handlers. *service.Service
// satisfies it.
type Rotator interface {
	RunOnce(ctx context.Context, dryRun bool) (*service.Execution, error)
	Simulate(ctx context.Context) (*service.Execution, error)
	ApplySimulation(ctx context.Context, id int64) (*service.Execution, error)
	Simulation(ctx context.Context, id int64) (*simulation.Simulation, error)
	Simulations(ctx context.Context, limit int) ([]simulation.Simulation, error)
	Groups() []rotation.CollectionGroup
	Visibility() rotation.VisibilityMap
	ValidateGroups(ctx context.Context) ([]rotation.GroupIssues, error)
	History(ctx context.Context, limit int) ([]history.Record, error)
	LatestApplied(ctx context.Context) (*history.Record, error)
	Usage(ctx context.Context) ([]rotation.CollectionUsage, error)
	ClearHistory(ctx context.Context) error
	LastExecution() *service.Execution
}

// SchedulerStatus reports the rotation timer. *scheduler.Scheduler satisfies it.
type SchedulerStatus interface {
	Status() scheduler.Status
}

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MediaChecker probes the media server library. *plex.Applier satisfies it.
type MediaChecker interface {
	Library() string
	LibraryCollections(ctx context.Context) (map[string]struct{}, error)
}

// ClientCounter reports live WebSocket clients. *websocket.Hub satisfies it.
type ClientCounter interface {
	GetClientCount() int
}

// Deps are the collaborators of the API handlers. Rotator and Auth are
// required; the rest only enrich health output.
type Deps struct {
	Rotator   Rotator
	Scheduler SchedulerStatus
	Auth      *auth.Authenticator
	Database  Pinger
	Media     MediaChecker
	Clients   ClientCounter
	Version   string
}

// Handler serves the REST endpoints.
type Handler struct {
	rotator   Rotator
	scheduler SchedulerStatus
	auth      *auth.Authenticator
	db        Pinger
	media     MediaChecker
	clients   ClientCounter
	version   string
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps Deps) *Handler {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		rotator:   deps.Rotator,
		scheduler: deps.Scheduler,
		auth:      deps.Auth,
		db:        deps.Database,
		media:     deps.Media,
		clients:   deps.Clients,
		version:   version,
		startTime: time.Now(),
	}
}
