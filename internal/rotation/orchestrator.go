// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package rotation

import (
	"errors"
	"fmt"
)

// Input carries everything a rotation computation depends on.
type Input struct {
	// Groups are evaluated in slice order. Order decides cross-group dedup
	// and visibility precedence.
	Groups   []CollectionGroup
	Settings Settings
	History  HistoryContext
	Today    Date
	Rand     Source
}

// Run computes a rotation using the supplied history for the gap rule.
//
// Configuration errors are returned before any selection happens. Groups that
// select nothing are not errors; their result carries a SkipReason.
func Run(in Input) (*RotationResult, error) {
	if in.Rand == nil {
		return nil, errors.New("rotation: nil random source")
	}
	if err := ValidateGroups(in.Groups); err != nil {
		return nil, err
	}

	remaining := in.Settings.MaxCollections
	result := &RotationResult{
		SelectedCollections: []string{},
		Groups:              make([]GroupSelectionResult, 0, len(in.Groups)),
		MaxGlobal:           in.Settings.MaxCollections,
		Today:               in.Today,
	}
	claimed := make(map[string]struct{})

	for i, g := range in.Groups {
		if remaining <= 0 {
			for _, rest := range in.Groups[i:] {
				result.Groups = append(result.Groups, capExhausted(rest))
			}
			break
		}

		// IsActive cannot fail here; windows were validated above.
		active, _ := IsActive(g, in.Today)
		if !active {
			result.Groups = append(result.Groups, GroupSelectionResult{
				GroupName:            g.Name,
				Active:               false,
				Evaluated:            true,
				MinPicks:             g.MinPicks,
				MaxPicks:             g.MaxPicks,
				AvailableCollections: cloneStrings(g.Collections),
				ChosenCollections:    []string{},
				ReasonSkipped:        reason(ReasonInactive),
			})
			continue
		}

		candidates := Candidates(g, claimed, in.History)
		chosen, why := Pick(g, candidates, remaining, in.Rand)
		if chosen == nil {
			chosen = []string{}
		}
		for _, name := range chosen {
			claimed[name] = struct{}{}
		}
		result.SelectedCollections = append(result.SelectedCollections, chosen...)
		remaining -= len(chosen)

		result.Groups = append(result.Groups, GroupSelectionResult{
			GroupName:            g.Name,
			Active:               true,
			Evaluated:            true,
			MinPicks:             g.MinPicks,
			MaxPicks:             g.MaxPicks,
			AvailableCollections: candidates,
			ChosenCollections:    chosen,
			PickedCount:          len(chosen),
			ReasonSkipped:        why,
		})
	}

	result.RemainingGlobal = remaining
	return result, nil
}

// RunDry computes a rotation that ignores history, treating every collection
// as never used. It matches Run whenever no rotation has been recorded.
func RunDry(in Input) (*RotationResult, error) {
	in.History = EmptyHistory()
	return Run(in)
}

// ValidateGroups checks quota bounds and date windows of every group.
func ValidateGroups(groups []CollectionGroup) error {
	for _, g := range groups {
		if g.MinPicks < 0 || g.MaxPicks < 0 {
			return fmt.Errorf("%w: %q has negative picks", ErrInvalidGroup, g.Name)
		}
		if g.MinPicks > g.MaxPicks {
			return fmt.Errorf("%w: %q min_picks %d exceeds max_picks %d", ErrInvalidGroup, g.Name, g.MinPicks, g.MaxPicks)
		}
		if _, _, _, err := ParseWindow(g); err != nil {
			return err
		}
	}
	return nil
}

func capExhausted(g CollectionGroup) GroupSelectionResult {
	return GroupSelectionResult{
		GroupName:            g.Name,
		Active:               false,
		Evaluated:            false,
		MinPicks:             g.MinPicks,
		MaxPicks:             g.MaxPicks,
		AvailableCollections: []string{},
		ChosenCollections:    []string{},
		ReasonSkipped:        reason(ReasonGlobalCapExhausted),
	}
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
