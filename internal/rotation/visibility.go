// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package rotation

import "sort"

// Visibility holds the placement flags for a promoted collection.
type Visibility struct {
	Home        bool `json:"home"`
	Shared      bool `json:"shared"`
	Recommended bool `json:"recommended"`
}

// Any reports whether at least one placement is enabled.
func (v Visibility) Any() bool {
	return v.Home || v.Shared || v.Recommended
}

// VisibilityMap maps collection names to the visibility of the first group
// that lists them.
type VisibilityMap map[string]Visibility

// BuildVisibilityMap resolves visibility for every configured collection.
// Groups are walked in order and the first group to list a name wins.
func BuildVisibilityMap(groups []CollectionGroup) VisibilityMap {
	m := make(VisibilityMap)
	for _, g := range groups {
		vis := g.Visibility()
		for _, name := range g.Collections {
			if _, ok := m[name]; !ok {
				m[name] = vis
			}
		}
	}
	return m
}

// Lookup returns the visibility for name, or all-false when unknown.
func (m VisibilityMap) Lookup(name string) Visibility {
	return m[name]
}

// Names returns the configured collection names sorted alphabetically.
func (m VisibilityMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
