// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Rotation Metrics
	RotationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotation_runs_total",
			Help: "Total number of rotation runs",
		},
		[]string{"mode", "outcome"}, // mode: scheduled, manual, dry_run, simulation, apply_simulation
	)

	RotationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rotation_duration_seconds",
			Help:    "Duration of a rotation run including media server updates",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	RotationSelectedCollections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rotation_selected_collections",
			Help: "Number of collections selected by the last rotation",
		},
	)

	RotationLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rotation_last_success_timestamp",
			Help: "Unix timestamp of the last successful rotation",
		},
	)

	RotationGroupSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotation_group_skips_total",
			Help: "Total number of groups that selected nothing, by reason",
		},
		[]string{"reason"},
	)

	// Simulation Metrics
	SimulationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulations_created_total",
			Help: "Total number of stored rotation simulations",
		},
	)

	SimulationsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulations_applied_total",
			Help: "Total number of simulations applied",
		},
	)

	SimulationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulations_rejected_total",
			Help: "Total number of rejected simulation applies",
		},
		[]string{"reason"}, // not_found, already_applied
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Media Server Metrics
	PlexRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plex_requests_total",
			Help: "Total number of Plex API requests",
		},
		[]string{"endpoint", "status"},
	)

	PlexRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plex_request_duration_seconds",
			Help:    "Duration of Plex API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	PlexVisibilityUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plex_visibility_updates_total",
			Help: "Total number of collection visibility updates sent to Plex",
		},
		[]string{"action"}, // promote, demote, skipped_missing, dry_run
	)

	PlexCollectionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plex_collection_cache_lookups_total",
			Help: "Total number of library collection cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Application Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordRotation records a finished rotation run.
func RecordRotation(mode, outcome string, duration time.Duration, selected int) {
	RotationRunsTotal.WithLabelValues(mode, outcome).Inc()
	RotationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if outcome == "success" {
		RotationSelectedCollections.Set(float64(selected))
		RotationLastSuccess.SetToCurrentTime()
	}
}

// RecordGroupSkip counts a group that selected nothing.
func RecordGroupSkip(reason string) {
	RotationGroupSkips.WithLabelValues(reason).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordPlexRequest records one Plex API call.
func RecordPlexRequest(endpoint, status string, duration time.Duration) {
	PlexRequestsTotal.WithLabelValues(endpoint, status).Inc()
	PlexRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements active request counter
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
