// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/marquee/internal/scheduler"
	"github.com/tomtom215/marquee/internal/service"
)

// healthCheckTimeout bounds each dependency probe.
const healthCheckTimeout = 5 * time.Second

// HealthComponent is the result of one dependency check.
type HealthComponent struct {
	OK      bool           `json:"ok"`
	Error   string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status           string                     `json:"status"`
	Version          string                     `json:"version"`
	UptimeSeconds    int64                      `json:"uptime_seconds"`
	AuthMode         string                     `json:"auth_mode"`
	Components       map[string]HealthComponent `json:"components"`
	Scheduler        *scheduler.Status          `json:"scheduler,omitempty"`
	LastExecution    *service.Execution         `json:"last_execution,omitempty"`
	WebSocketClients int                        `json:"websocket_clients"`
}

// Health checks the database and the media server. It always answers 200;
// the status field is "healthy" or "degraded".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	components := make(map[string]HealthComponent)

	if h.db != nil {
		components["database"] = probe(r.Context(), func(ctx context.Context) (map[string]any, error) {
			return nil, h.db.Ping(ctx)
		})
	}
	if h.media != nil {
		components["media_server"] = probe(r.Context(), func(ctx context.Context) (map[string]any, error) {
			cols, err := h.media.LibraryCollections(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"library": h.media.Library(), "collections": len(cols)}, nil
		})
	}

	status := HealthStatus{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Components:    components,
		LastExecution: h.rotator.LastExecution(),
	}
	for _, c := range components {
		if !c.OK {
			status.Status = "degraded"
		}
	}
	if h.auth != nil {
		status.AuthMode = h.auth.Mode()
	}
	if h.scheduler != nil {
		s := h.scheduler.Status()
		status.Scheduler = &s
	}
	if h.clients != nil {
		status.WebSocketClients = h.clients.GetClientCount()
	}

	respondJSON(w, r, http.StatusOK, status, start)
}

// HealthLive is the liveness probe: the process is serving HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"alive":          true,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}, time.Time{})
}

func probe(parent context.Context, check func(ctx context.Context) (map[string]any, error)) HealthComponent {
	ctx, cancel := context.WithTimeout(parent, healthCheckTimeout)
	defer cancel()

	details, err := check(ctx)
	if err != nil {
		return HealthComponent{OK: false, Error: err.Error()}
	}
	return HealthComponent{OK: true, Details: details}
}
