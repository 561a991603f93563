// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/middleware"
)

// compressionLevel is the gzip level for JSON responses.
const compressionLevel = 5

// NewRouter mounts every route. ws serves the WebSocket upgrade and may be nil.
//
// Global middleware order: request ID, real IP, panic recovery, request log,
// CORS, metrics. Everything under /api/v1 is rate limited; everything except
// health and login requires a token when auth is enabled.
func NewRouter(h *Handler, mw *ChiMiddleware, authn *auth.Authenticator, ws http.Handler) http.Handler {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(mw.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())

		r.Get("/health", h.Health)
		r.Get("/health/live", h.HealthLive)
		r.With(mw.RateLimitCustom(RateLimitLogin)).Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware)

			if ws != nil {
				r.Get("/ws", ws.ServeHTTP)
			}

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Compress(compressionLevel))

				r.Get("/auth/me", h.Me)

				r.Route("/rotation", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(mw.RateLimitCustom(RateLimitWrite))
						r.Post("/dry-run", h.RotationDryRun)
						r.Post("/rotate-now", h.RotationRunNow)
						r.Post("/simulate", h.RotationSimulate)
						r.Post("/simulations/{id}/apply", h.SimulationApply)
					})
					r.Get("/simulations", h.SimulationList)
					r.Get("/simulations/{id}", h.SimulationGet)
					r.Get("/scheduler", h.SchedulerStatus)
					r.Get("/preview-visibility", h.PreviewVisibility)
				})

				r.Route("/history", func(r chi.Router) {
					r.Get("/", h.HistoryList)
					r.Get("/usage", h.HistoryUsage)
					r.With(mw.RateLimitCustom(RateLimitWrite)).Post("/clear", h.HistoryClear)
				})

				r.Get("/groups", h.GroupsList)
				r.Get("/groups/validate", h.GroupsValidate)
				r.Get("/collections/active", h.ActiveCollections)
			})
		})
	})

	return r
}
