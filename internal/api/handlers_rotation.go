// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/rotation"
)

// listQuery bounds list endpoints.
type listQuery struct {
	Limit int `json:"limit" validate:"min=1,max=500"`
}

// CollectionPlacement is one row of the visibility preview.
type CollectionPlacement struct {
	Name       string              `json:"name"`
	Group      string              `json:"group"`
	Visibility rotation.Visibility `json:"visibility"`
	Active     bool                `json:"active"`
}

// RotationDryRun computes a rotation without touching the media server.
func (h *Handler) RotationDryRun(w http.ResponseWriter, r *http.Request) {
	h.runRotation(w, r, true)
}

// RotationRunNow computes and applies a rotation immediately.
func (h *Handler) RotationRunNow(w http.ResponseWriter, r *http.Request) {
	h.runRotation(w, r, false)
}

func (h *Handler) runRotation(w http.ResponseWriter, r *http.Request, dryRun bool) {
	start := time.Now()
	logging.Ctx(r.Context()).Info().Bool("dry_run", dryRun).Msg("Rotation requested via API")

	exec, err := h.rotator.RunOnce(r.Context(), dryRun)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, exec, start)
}

// RotationSimulate stores the next rotation in the simulation ledger.
func (h *Handler) RotationSimulate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	exec, err := h.rotator.Simulate(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, exec, start)
}

// SimulationApply applies a stored simulation.
func (h *Handler) SimulationApply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := simulationID(w, r)
	if !ok {
		return
	}

	exec, err := h.rotator.ApplySimulation(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, exec, start)
}

// SimulationGet returns one simulation.
func (h *Handler) SimulationGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := simulationID(w, r)
	if !ok {
		return
	}

	sim, err := h.rotator.Simulation(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sim, start)
}

// SimulationList returns recent simulations, newest first.
func (h *Handler) SimulationList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q, ok := parseListQuery(w, r, 20)
	if !ok {
		return
	}

	sims, err := h.rotator.Simulations(r.Context(), q.Limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, r, sims, len(sims), start)
}

// SchedulerStatus reports the rotation timer.
func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Scheduler is not running", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, h.scheduler.Status(), time.Time{})
}

// PreviewVisibility lists every configured collection with the placement it
// gets when selected, and whether the latest rotation featured it.
func (h *Handler) PreviewVisibility(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	active, err := h.activeCollections(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	owner := make(map[string]string)
	for _, g := range h.rotator.Groups() {
		for _, name := range g.Collections {
			if _, seen := owner[name]; !seen {
				owner[name] = g.Name
			}
		}
	}

	vis := h.rotator.Visibility()
	out := make([]CollectionPlacement, 0, len(vis))
	for _, name := range vis.Names() {
		_, isActive := active[name]
		out = append(out, CollectionPlacement{
			Name:       name,
			Group:      owner[name],
			Visibility: vis.Lookup(name),
			Active:     isActive,
		})
	}
	respondList(w, r, out, len(out), start)
}

// activeCollections returns the collections featured by the most recent
// successful live rotation.
func (h *Handler) activeCollections(ctx context.Context) (map[string]struct{}, error) {
	latest, err := h.rotator.LatestApplied(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[string]struct{})
	if latest == nil {
		return active, nil
	}
	for _, name := range latest.FeaturedCollections {
		active[name] = struct{}{}
	}
	return active, nil
}

// ActiveCollections lists the collections currently featured.
func (h *Handler) ActiveCollections(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	active, err := h.activeCollections(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	library := ""
	if h.media != nil {
		library = h.media.Library()
	}
	vis := h.rotator.Visibility()

	type activeCollection struct {
		Title      string              `json:"title"`
		Library    string              `json:"library,omitempty"`
		Visibility rotation.Visibility `json:"visibility"`
	}
	names := make([]string, 0, len(active))
	for name := range active {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]activeCollection, 0, len(names))
	for _, name := range names {
		out = append(out, activeCollection{Title: name, Library: library, Visibility: vis.Lookup(name)})
	}
	respondList(w, r, out, len(out), start)
}

func simulationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeBadRequest,
			"Simulation id must be a positive integer", map[string]any{"id": raw}, nil)
		return 0, false
	}
	return id, true
}

func parseListQuery(w http.ResponseWriter, r *http.Request, defaultLimit int) (listQuery, bool) {
	limit, ok := getIntParam(r, "limit", defaultLimit)
	if !ok {
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation,
			"limit must be an integer", map[string]any{"field": "limit"}, nil)
		return listQuery{}, false
	}
	q := listQuery{Limit: limit}
	if !validateRequest(w, r, &q) {
		return listQuery{}, false
	}
	return q, true
}
