// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package plex talks to Plex Media Server to read library collections and
toggle where they are promoted.

Components:
  - Client: REST client with X-Plex-Token authentication and HTTP 429 backoff
  - CircuitBreakerClient: gobreaker wrapper that sheds load while Plex is down
  - MemoryServer: in-process demo library used when plex.mock is enabled
  - Applier: pushes a rotation selection to the server, one collection at a time

Every component that reads or writes the library satisfies MediaServer, so the
rotation service does not care which one it is given.

Visibility is managed through the hub endpoint:

	POST /hubs/sections/{sectionKey}/manage
	    ?metadataItemId={ratingKey}
	    &promotedToRecommended=0|1
	    &promotedToOwnHome=0|1
	    &promotedToSharedHome=0|1
*/
package plex
