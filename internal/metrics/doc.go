// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package metrics provides Prometheus metrics collection and export for observability.

# Overview

The package provides metrics for:
  - Rotation runs, durations and selection counts
  - Per-group skip reasons
  - Simulation lifecycle (created, applied, rejected)
  - Rotation history queries (DuckDB)
  - Media server requests and circuit breaker state transitions
  - HTTP request latency and throughput
  - WebSocket connection counts

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8485/metrics

# Usage

Collectors are registered with the default registry through promauto on
package initialization. Components record through the Record* helpers:

	metrics.RecordRotation("scheduled", "success", time.Since(start), len(selected))
	metrics.RecordGroupSkip("inactive")
*/
package metrics
