// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package rotation implements the collection rotation selection engine.
//
// # Overview
//
// A rotation decides which configured collections are promoted on the media
// server for the next cycle. Groups are evaluated strictly in configured order:
//
//   - Date windows decide whether a group is active today (windows may wrap
//     across the year boundary, e.g. 12-01 to 01-15)
//   - The gap rule removes collections that appeared too recently, counted in
//     rotations rather than wall-clock time
//   - Each active group draws a random quota within its min/max picks, bounded
//     by the remaining global cap and the number of eligible candidates
//   - A collection claimed by an earlier group is never selected again by a
//     later group in the same rotation
//
// Every evaluated group produces a GroupSelectionResult. When a group selects
// nothing, its ReasonSkipped is always set to one of the SkipReason values.
//
// # Usage
//
//	rng := rand.New(rand.NewSource(seed))
//	result, err := rotation.Run(rotation.Input{
//	    Groups:   cfg.Groups,
//	    Settings: rotation.Settings{MaxCollections: 5},
//	    History:  historyCtx,
//	    Today:    rotation.DateOf(time.Now()),
//	    Rand:     rng,
//	})
//
//	visibility := rotation.BuildVisibilityMap(cfg.Groups)
//
// # Determinism
//
// The engine has no package-level state. Randomness comes only from the
// Source passed in Input, and "today" is always supplied by the caller, so a
// seeded source reproduces the same result for the same inputs.
//
// # Thread Safety
//
// Run and RunDry are safe for concurrent use as long as each call receives its
// own Source. Callers that read history, compute a rotation and record the
// result must serialize that whole sequence themselves.
package rotation
