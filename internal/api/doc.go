// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package api is the HTTP surface of Marquee.

Routes are mounted on a chi router by NewRouter. Everything under /api/v1
answers with the same envelope:

	{"status": "success", "data": ..., "metadata": {"timestamp": ..., "request_id": ...}}
	{"status": "error", "data": null, "metadata": {...}, "error": {"code": "NOT_FOUND", "message": "..."}}

Rotation endpoints:

	POST /api/v1/rotation/dry-run                 compute and record, leave the media server alone
	POST /api/v1/rotation/rotate-now              compute, apply and record
	POST /api/v1/rotation/simulate                compute and store in the simulation ledger
	POST /api/v1/rotation/simulations/{id}/apply  apply a stored simulation (once)
	GET  /api/v1/rotation/simulations             recent simulations
	GET  /api/v1/rotation/simulations/{id}        one simulation
	GET  /api/v1/rotation/scheduler               scheduler status
	GET  /api/v1/rotation/preview-visibility      per-collection placement

History, groups and collections:

	GET  /api/v1/history?limit=50
	GET  /api/v1/history/usage
	POST /api/v1/history/clear
	GET  /api/v1/groups
	GET  /api/v1/groups/validate
	GET  /api/v1/collections/active

Auth, health and streaming:

	POST /api/v1/auth/login
	GET  /api/v1/auth/me
	GET  /api/v1/health
	GET  /api/v1/health/live
	GET  /api/v1/ws
	GET  /metrics

Error mapping: unknown simulation 404 NOT_FOUND, second apply 409
SIMULATION_ALREADY_APPLIED, invalid group configuration or parameters 400
VALIDATION_ERROR, media server failures 502 MEDIA_SERVER_ERROR (503 while the
circuit breaker is open).
*/
package api
