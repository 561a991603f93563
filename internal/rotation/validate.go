// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package rotation

// GroupIssues lists data-quality problems found in one group.
type GroupIssues struct {
	GroupName  string   `json:"group_name"`
	Duplicates []string `json:"duplicates,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	WindowErr  string   `json:"window_error,omitempty"`
}

// HasIssues reports whether anything was found.
func (i GroupIssues) HasIssues() bool {
	return len(i.Duplicates) > 0 || len(i.Missing) > 0 || i.WindowErr != ""
}

// DuplicateCollections returns names listed more than once within the group,
// in order of their first repetition.
func DuplicateCollections(g CollectionGroup) []string {
	seen := make(map[string]int, len(g.Collections))
	var dups []string
	for _, name := range g.Collections {
		seen[name]++
		if seen[name] == 2 {
			dups = append(dups, name)
		}
	}
	return dups
}

// Inspect reports duplicates, window errors and collections absent from
// known. A nil known set skips the missing-collection check.
func Inspect(groups []CollectionGroup, known map[string]struct{}) []GroupIssues {
	out := make([]GroupIssues, 0, len(groups))
	for _, g := range groups {
		issues := GroupIssues{GroupName: g.Name, Duplicates: DuplicateCollections(g)}
		if _, _, _, err := ParseWindow(g); err != nil {
			issues.WindowErr = err.Error()
		}
		if known != nil {
			for _, name := range g.Collections {
				if _, ok := known[name]; !ok {
					issues.Missing = append(issues.Missing, name)
				}
			}
		}
		out = append(out, issues)
	}
	return out
}
