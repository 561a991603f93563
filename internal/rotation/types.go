// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package rotation

import (
	"fmt"
	"time"
)

// DateWindow is an optional seasonal window with "MM-DD" bounds.
// Start greater than End means the window wraps across New Year.
type DateWindow struct {
	Start string `json:"start" koanf:"start" yaml:"start" validate:"required,monthday"`
	End   string `json:"end" koanf:"end" yaml:"end" validate:"required,monthday"`
}

// CollectionGroup is a named bucket of candidate collections with its own
// quota, gap rule, visibility and optional date window.
type CollectionGroup struct {
	// Name identifies the group in results and logs.
	Name string `json:"name" koanf:"name" yaml:"name" validate:"required"`

	// Enabled groups are the only ones that can ever be active.
	Enabled bool `json:"enabled" koanf:"enabled" yaml:"enabled"`

	// MinPicks and MaxPicks are inclusive quota bounds for one rotation.
	MinPicks int `json:"min_picks" koanf:"min_picks" yaml:"min_picks" validate:"gte=0"`
	MaxPicks int `json:"max_picks" koanf:"max_picks" yaml:"max_picks" validate:"gte=0,gtefield=MinPicks"`

	// Weight is carried through configuration but not consulted by selection.
	Weight int `json:"weight" koanf:"weight" yaml:"weight" validate:"gte=0"`

	// MinGapRotations is the number of rotations that must elapse before a
	// collection from this group can be selected again. Zero disables the rule.
	MinGapRotations int `json:"min_gap_rotations" koanf:"min_gap_rotations" yaml:"min_gap_rotations" validate:"gte=0"`

	VisibilityHome        bool `json:"visibility_home" koanf:"visibility_home" yaml:"visibility_home"`
	VisibilityShared      bool `json:"visibility_shared" koanf:"visibility_shared" yaml:"visibility_shared"`
	VisibilityRecommended bool `json:"visibility_recommended" koanf:"visibility_recommended" yaml:"visibility_recommended"`

	// DateRange restricts the group to a seasonal window when set.
	DateRange *DateWindow `json:"date_range,omitempty" koanf:"date_range" yaml:"date_range,omitempty" validate:"omitempty"`

	// Collections lists member collection names in configured order.
	Collections []string `json:"collections" koanf:"collections" yaml:"collections" validate:"required,min=1,dive,required"`
}

// Visibility returns the placement flags configured for the group.
func (g CollectionGroup) Visibility() Visibility {
	return Visibility{
		Home:        g.VisibilityHome,
		Shared:      g.VisibilityShared,
		Recommended: g.VisibilityRecommended,
	}
}

// Settings are the global rotation settings consumed by the engine.
type Settings struct {
	// MaxCollections caps the total selections across all groups.
	MaxCollections int `json:"max_collections"`
}

// CollectionUsage is the usage record of a single collection.
type CollectionUsage struct {
	CollectionName string     `json:"collection_name"`
	LastRotationID *int64     `json:"last_rotation_id,omitempty"`
	LastRotatedAt  *time.Time `json:"last_rotated_at,omitempty"`
	TimesUsed      int        `json:"times_used"`
}

// HistoryContext is a read-only snapshot of rotation history taken once per
// computation. MaxRotationID is 0 when no rotation has been recorded.
type HistoryContext struct {
	MaxRotationID int64                      `json:"max_rotation_id"`
	Usage         map[string]CollectionUsage `json:"usage"`
}

// EmptyHistory returns a history context with no recorded rotations.
func EmptyHistory() HistoryContext {
	return HistoryContext{Usage: map[string]CollectionUsage{}}
}

// SkipReason explains why a group selected nothing.
type SkipReason string

const (
	// ReasonInactive means the group is disabled or outside its date window.
	ReasonInactive SkipReason = "inactive"
	// ReasonGlobalCapExhausted means the global cap was used up before this group.
	ReasonGlobalCapExhausted SkipReason = "global_cap_exhausted"
	// ReasonNoEligibleCandidates means dedup and the gap rule left nothing to pick.
	ReasonNoEligibleCandidates SkipReason = "no_eligible_candidates"
	// ReasonQuotaComputedZero means max picks or the remaining cap computed to zero.
	ReasonQuotaComputedZero SkipReason = "quota_computed_zero"
	// ReasonRandomRollZero means the random quota roll chose zero collections.
	ReasonRandomRollZero SkipReason = "random_roll_zero"
)

// Description returns a human-readable explanation for the reason.
func (r SkipReason) Description() string {
	switch r {
	case ReasonInactive:
		return "group inactive (disabled or outside date range)"
	case ReasonGlobalCapExhausted:
		return "global max collections already reached"
	case ReasonNoEligibleCandidates:
		return "no eligible collections (all used recently or already selected)"
	case ReasonQuotaComputedZero:
		return "group max picks or global cap prevented selection"
	case ReasonRandomRollZero:
		return "random selection chose 0 collections"
	default:
		return string(r)
	}
}

// GroupSelectionResult is the outcome for one evaluated group.
type GroupSelectionResult struct {
	GroupName string `json:"group_name"`
	Active    bool   `json:"active"`

	// Evaluated is false only when the group was skipped because the global
	// cap ran out before it was reached.
	Evaluated bool `json:"evaluated"`

	MinPicks int `json:"min_picks"`
	MaxPicks int `json:"max_picks"`

	// AvailableCollections is the candidate set after dedup and the gap rule
	// for active groups, and the configured members otherwise.
	AvailableCollections []string `json:"available_collections"`
	ChosenCollections    []string `json:"chosen_collections"`
	PickedCount          int      `json:"picked_count"`

	ReasonSkipped *SkipReason `json:"reason_skipped,omitempty"`
}

// Skipped reports whether the group selected nothing.
func (r GroupSelectionResult) Skipped() bool {
	return r.ReasonSkipped != nil
}

// RotationResult is the full decision for one rotation.
type RotationResult struct {
	// SelectedCollections is ordered by group iteration order, then by the
	// order each group drew its picks.
	SelectedCollections []string               `json:"selected_collections"`
	Groups              []GroupSelectionResult `json:"groups"`
	MaxGlobal           int                    `json:"max_global"`
	RemainingGlobal     int                    `json:"remaining_global"`
	Today               Date                   `json:"today"`
}

// Group returns the result for the named group, if one was recorded.
func (r *RotationResult) Group(name string) (GroupSelectionResult, bool) {
	for _, g := range r.Groups {
		if g.GroupName == name {
			return g, true
		}
	}
	return GroupSelectionResult{}, false
}

// Date is a calendar day without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// MonthDay returns the month/day part of the date.
func (d Date) MonthDay() MonthDay {
	return MonthDay{Month: int(d.Month), Day: d.Day}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	t, err := time.Parse(dateLayout, string(b))
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", string(b), err)
	}
	*d = DateOf(t)
	return nil
}
