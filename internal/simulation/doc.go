// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package simulation stores computed rotations for deferred application.
//
// A simulation is created pending with an immutable snapshot of the full
// rotation result and transitions exactly once to applied:
//
//	pending --Apply--> applied (terminal)
//
// Applying an unknown id fails with ErrNotFound and applying twice fails with
// ErrAlreadyApplied. Neither failure mutates the stored record, and callers
// must surface the second failure rather than retry it.
//
// Snapshots are serialized when the simulation is created and decoded on each
// read, so later configuration changes never alter what Apply returns.
//
// Two stores are provided: MemoryStore for tests and ephemeral deployments and
// BadgerStore for durable storage across restarts.
package simulation
