// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package rotation

// IsEligible applies the gap rule to one collection of a group.
//
// The gap counts rotations globally, regardless of which group produced them.
// Collections with no recorded last rotation are always eligible.
func IsEligible(name string, g CollectionGroup, history HistoryContext) bool {
	if g.MinGapRotations <= 0 || history.MaxRotationID == 0 {
		return true
	}
	usage, ok := history.Usage[name]
	if !ok || usage.LastRotationID == nil {
		return true
	}
	return history.MaxRotationID-*usage.LastRotationID >= int64(g.MinGapRotations)
}
