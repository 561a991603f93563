// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/rotation"
)

// HistoryList returns recent rotation records, newest first.
func (h *Handler) HistoryList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q, ok := parseListQuery(w, r, 50)
	if !ok {
		return
	}

	records, err := h.rotator.History(r.Context(), q.Limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "Failed to load rotation history", err)
		return
	}
	respondList(w, r, records, len(records), start)
}

// HistoryUsage returns per-collection usage.
func (h *Handler) HistoryUsage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	usage, err := h.rotator.Usage(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "Failed to load collection usage", err)
		return
	}
	if usage == nil {
		usage = []rotation.CollectionUsage{}
	}
	respondList(w, r, usage, len(usage), start)
}

// HistoryClear wipes rotation history and usage.
func (h *Handler) HistoryClear(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.rotator.ClearHistory(r.Context()); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "Failed to clear rotation history", err)
		return
	}

	user := auth.AnonymousUser
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		user = claims.Username
	}
	logging.Ctx(r.Context()).Warn().Str("username", user).Msg("History cleared via API")

	respondJSON(w, r, http.StatusOK, map[string]any{"cleared": true}, start)
}
