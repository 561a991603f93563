// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package middleware provides the HTTP middleware shared by the Marquee API.

Every function here has the chi middleware signature
func(http.Handler) http.Handler so it can be mounted with r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.RequestLogger)

Components:

  - RequestID: honours an upstream X-Request-ID or generates a UUID, echoes it
    in the response and stores it (plus a fresh correlation ID) in the request
    context for logging.Ctx.
  - PrometheusMetrics: records request count, latency and in-flight requests.
    The endpoint label is the chi route pattern, so /api/v1/simulations/{id}
    stays a single series regardless of the ID requested.
  - RequestLogger: one structured zerolog line per request.
*/
package middleware
