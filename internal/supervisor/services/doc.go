// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package services adapts Marquee components to suture.Service.
//
// Each wrapper translates one lifecycle style into Serve(ctx) error:
//
//   - HTTPService: ListenAndServe / Shutdown
//   - HubService: RunWithContext
//   - SchedulerService: Start / Stop
//
// Every wrapper returns ctx.Err() on a requested shutdown and a wrapped error
// on failure, which tells suture to restart it.
package services
