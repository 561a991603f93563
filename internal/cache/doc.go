// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package cache provides a small thread-safe in-memory cache with TTL expiry.

It is used to reuse media server library listings between validation
requests and health probes so that read-only endpoints do not hit the media
server on every call. Writers invalidate entries after they change state.

# Usage

	c := cache.New[[]string](time.Minute)
	c.Set("library:Movies", titles)
	if titles, ok := c.Get("library:Movies"); ok {
	    // use cached titles
	}
	c.Delete("library:Movies")

Expiry is lazy: an expired entry is dropped when it is read, and every Set
prunes whatever else has expired. A TTL of zero or less disables storage,
so Get always misses.

# Statistics

Stats returns hit, miss and eviction counters; HitRate derives the hit
percentage from them.
*/
package cache
