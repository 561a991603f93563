// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package supervisor runs Marquee's long-lived services under a suture v4 tree.

	root ("marquee")
	├── core-layer
	│   ├── rotation-scheduler
	│   └── websocket-hub
	└── api-layer
	    └── http-server

A service that returns an error is restarted with suture's backoff. A crash
in the core layer never takes the HTTP server down with it, so the API keeps
answering health checks while the scheduler recovers.

Supervisor events are logged through sutureslog into the zerolog global
logger (see logging.NewSlogLogger).

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddCoreService(services.NewSchedulerService(sched))
	tree.AddCoreService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
