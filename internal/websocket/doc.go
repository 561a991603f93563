// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package websocket pushes rotation events to connected dashboard clients.

The hub owns the client set and fans out every broadcast to the clients
subscribed to its type. Each client runs a read pump for control frames and
a write pump, which is the connection's only data writer.

Server frames are JSON objects {"type", "seq", "sent_at", "data"}. Events
carry a per-connection sequence number starting at 1; control replies carry
none.

Event types:

  - rotation_completed: a rotation or dry run finished
  - simulation_created: a simulation was stored in the ledger
  - simulation_applied: a stored simulation was pushed to the media server

Client frames:

  - {"type":"ping"} is answered with pong
  - {"type":"subscribe","events":[...]} limits delivery to the listed event
    types and is answered with subscribed; an empty list restores all events

Anything else is answered with an error frame. The third invalid frame
closes the connection with a policy-violation close code.

Broadcasts never block the caller. When the hub queue is full the message is
dropped and counted in websocket_errors_total.
*/
package websocket
