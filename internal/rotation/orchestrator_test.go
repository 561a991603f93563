// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package rotation

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"
)

func input(groups []CollectionGroup, maxCollections int, seed int64) Input {
	return Input{
		Groups:   groups,
		Settings: Settings{MaxCollections: maxCollections},
		History:  EmptyHistory(),
		Today:    day(time.July, 1),
		Rand:     rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test source
	}
}

func TestRun_GlobalCapScenario(t *testing.T) {
	groups := []CollectionGroup{
		{Name: "A", Enabled: true, MinPicks: 1, MaxPicks: 1, Collections: []string{"X", "Y"}},
		{Name: "Second", Enabled: true, MinPicks: 1, MaxPicks: 2, Collections: []string{"P", "Q"}},
	}

	for seed := int64(0); seed < 50; seed++ {
		res, err := Run(input(groups, 1, seed))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(res.SelectedCollections) != 1 {
			t.Fatalf("selected %v, want exactly one", res.SelectedCollections)
		}
		if s := res.SelectedCollections[0]; s != "X" && s != "Y" {
			t.Fatalf("selected %q, want X or Y", s)
		}
		if res.RemainingGlobal != 0 || res.MaxGlobal != 1 {
			t.Fatalf("remaining=%d max=%d", res.RemainingGlobal, res.MaxGlobal)
		}
		second, ok := res.Group("Second")
		if !ok {
			t.Fatal("second group has no result")
		}
		if second.ReasonSkipped == nil || *second.ReasonSkipped != ReasonGlobalCapExhausted {
			t.Fatalf("second group reason = %v, want global cap exhausted", second.ReasonSkipped)
		}
		if second.Evaluated {
			t.Error("cap-exhausted group should not be marked evaluated")
		}
	}
}

func TestRun_GapFiltersCandidate(t *testing.T) {
	groups := []CollectionGroup{
		{Name: "B", Enabled: true, MinPicks: 1, MaxPicks: 2, MinGapRotations: 3, Collections: []string{"Z", "W"}},
	}
	in := input(groups, 5, 1)
	in.History = HistoryContext{
		MaxRotationID: 7,
		Usage:         map[string]CollectionUsage{"Z": {CollectionName: "Z", LastRotationID: id(5), TimesUsed: 1}},
	}

	for seed := int64(0); seed < 30; seed++ {
		in.Rand = rand.New(rand.NewSource(seed))
		res, err := Run(in)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		b, _ := res.Group("B")
		if !reflect.DeepEqual(b.AvailableCollections, []string{"W"}) {
			t.Fatalf("available = %v, want [W]", b.AvailableCollections)
		}
		for _, c := range res.SelectedCollections {
			if c == "Z" {
				t.Fatal("Z selected despite gap rule")
			}
		}
	}
}

func TestRun_DisabledGroupInactive(t *testing.T) {
	groups := []CollectionGroup{
		{Name: "C", Enabled: false, MinPicks: 1, MaxPicks: 1, Collections: []string{"M", "N"},
			DateRange: &DateWindow{Start: "01-01", End: "12-31"}},
	}
	res, err := Run(input(groups, 3, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	c, _ := res.Group("C")
	if c.Active || !c.Evaluated {
		t.Errorf("active=%v evaluated=%v", c.Active, c.Evaluated)
	}
	if c.ReasonSkipped == nil || *c.ReasonSkipped != ReasonInactive {
		t.Errorf("reason = %v, want inactive", c.ReasonSkipped)
	}
	if len(c.ChosenCollections) != 0 {
		t.Errorf("chosen = %v, want empty", c.ChosenCollections)
	}
	if !reflect.DeepEqual(c.AvailableCollections, []string{"M", "N"}) {
		t.Errorf("available = %v, want configured members", c.AvailableCollections)
	}
	if res.RemainingGlobal != 3 {
		t.Errorf("remaining = %d, want 3", res.RemainingGlobal)
	}
}

func TestRun_CrossGroupDedupFollowsOrder(t *testing.T) {
	groups := []CollectionGroup{
		{Name: "First", Enabled: true, MinPicks: 1, MaxPicks: 1, Collections: []string{"Shared"}},
		{Name: "Second", Enabled: true, MinPicks: 1, MaxPicks: 2, Collections: []string{"Shared", "Own"}},
	}
	res, err := Run(input(groups, 5, 3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(res.SelectedCollections[:1], []string{"Shared"}) {
		t.Fatalf("first selection = %v", res.SelectedCollections)
	}
	second, _ := res.Group("Second")
	if !reflect.DeepEqual(second.AvailableCollections, []string{"Own"}) {
		t.Errorf("second available = %v, want [Own]", second.AvailableCollections)
	}

	// Reversing the order hands the shared collection to the other group.
	reversed := []CollectionGroup{groups[1], groups[0]}
	res, err = Run(input(reversed, 5, 3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	first, _ := res.Group("First")
	if first.PickedCount == 1 && first.ChosenCollections[0] == "Shared" {
		second, _ := res.Group("Second")
		for _, c := range second.ChosenCollections {
			if c == "Shared" {
				t.Fatal("Shared chosen by both groups")
			}
		}
	}
}

func TestRun_NoEligibleCandidatesReason(t *testing.T) {
	groups := []CollectionGroup{
		{Name: "A", Enabled: true, MinPicks: 1, MaxPicks: 1, Collections: []string{"X"}},
		{Name: "B", Enabled: true, MinPicks: 1, MaxPicks: 1, Collections: []string{"X"}},
	}
	res, err := Run(input(groups, 5, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, _ := res.Group("B")
	if b.ReasonSkipped == nil || *b.ReasonSkipped != ReasonNoEligibleCandidates {
		t.Errorf("reason = %v, want no eligible candidates", b.ReasonSkipped)
	}
	if !b.Active || !b.Evaluated {
		t.Error("group B should be active and evaluated")
	}
}

func TestRun_Invariants(t *testing.T) {
	groups := []CollectionGroup{
		{Name: "Featured", Enabled: true, MinPicks: 1, MaxPicks: 3, Collections: []string{"A", "B", "C", "D"}},
		{Name: "Genres", Enabled: true, MinPicks: 0, MaxPicks: 2, Collections: []string{"C", "D", "E", "F"}},
		{Name: "Winter", Enabled: true, MinPicks: 1, MaxPicks: 2, Collections: []string{"G", "H"},
			DateRange: &DateWindow{Start: "12-01", End: "02-28"}},
		{Name: "Extras", Enabled: true, MinPicks: 2, MaxPicks: 4, Collections: []string{"A", "I", "J"}},
	}

	for seed := int64(0); seed < 200; seed++ {
		res, err := Run(input(groups, 5, seed))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(res.SelectedCollections) > 5 {
			t.Fatalf("seed %d: selected %d > cap", seed, len(res.SelectedCollections))
		}
		if res.RemainingGlobal != 5-len(res.SelectedCollections) {
			t.Fatalf("seed %d: remaining %d inconsistent", seed, res.RemainingGlobal)
		}
		seen := map[string]bool{}
		for _, c := range res.SelectedCollections {
			if seen[c] {
				t.Fatalf("seed %d: duplicate %q", seed, c)
			}
			seen[c] = true
		}

		remaining := 5
		var flat []string
		for _, g := range res.Groups {
			if g.PickedCount != len(g.ChosenCollections) {
				t.Fatalf("seed %d: group %s picked count mismatch", seed, g.GroupName)
			}
			if g.PickedCount == 0 {
				if g.ReasonSkipped == nil {
					t.Fatalf("seed %d: group %s chose nothing without reason", seed, g.GroupName)
				}
			} else {
				if g.ReasonSkipped != nil {
					t.Fatalf("seed %d: group %s has reason despite picks", seed, g.GroupName)
				}
				quotaMax := min(g.MaxPicks, remaining, len(g.AvailableCollections))
				if g.PickedCount < min(g.MinPicks, quotaMax) || g.PickedCount > quotaMax {
					t.Fatalf("seed %d: group %s picked %d outside bounds", seed, g.GroupName, g.PickedCount)
				}
			}
			remaining -= g.PickedCount
			flat = append(flat, g.ChosenCollections...)
		}
		if !reflect.DeepEqual(flat, res.SelectedCollections) {
			t.Fatalf("seed %d: selection order %v != group order %v", seed, res.SelectedCollections, flat)
		}

		winter, _ := res.Group("Winter")
		if winter.ReasonSkipped != nil && *winter.ReasonSkipped != ReasonInactive && *winter.ReasonSkipped != ReasonGlobalCapExhausted {
			t.Fatalf("seed %d: winter reason %v", seed, *winter.ReasonSkipped)
		}
	}
}

func TestRun_DuplicateMemberSelectedOnce(t *testing.T) {
	groups := []CollectionGroup{
		{Name: "Repeats", Enabled: true, MinPicks: 2, MaxPicks: 2, Collections: []string{"X", "X"}},
	}

	for seed := int64(0); seed < 20; seed++ {
		res, err := Run(input(groups, 5, seed))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if !reflect.DeepEqual(res.SelectedCollections, []string{"X"}) {
			t.Fatalf("seed %d: selected = %v, want [X]", seed, res.SelectedCollections)
		}
		if res.RemainingGlobal != 4 {
			t.Fatalf("seed %d: remaining = %d, want 4", seed, res.RemainingGlobal)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	groups := []CollectionGroup{
		{Name: "A", Enabled: true, MinPicks: 0, MaxPicks: 3, Collections: []string{"1", "2", "3", "4", "5"}},
		{Name: "B", Enabled: true, MinPicks: 1, MaxPicks: 2, Collections: []string{"6", "7", "8"}},
	}
	a, _ := Run(input(groups, 4, 99))
	b, _ := Run(input(groups, 4, 99))
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed produced different results:\n%+v\n%+v", a, b)
	}
}

func TestRunDry_MatchesRunWithEmptyHistory(t *testing.T) {
	groups := []CollectionGroup{
		{Name: "A", Enabled: true, MinPicks: 1, MaxPicks: 2, MinGapRotations: 5, Collections: []string{"X", "Y", "Z"}},
	}
	withHistory, err := Run(input(groups, 3, 11))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	in := input(groups, 3, 11)
	in.History = HistoryContext{
		MaxRotationID: 9,
		Usage:         map[string]CollectionUsage{"X": {LastRotationID: id(9)}, "Y": {LastRotationID: id(9)}, "Z": {LastRotationID: id(9)}},
	}
	dry, err := RunDry(in)
	if err != nil {
		t.Fatalf("RunDry: %v", err)
	}
	if !reflect.DeepEqual(withHistory, dry) {
		t.Errorf("dry result differs from empty-history result:\n%+v\n%+v", withHistory, dry)
	}
}

func TestRun_ConfigErrorsBeforeSelection(t *testing.T) {
	bad := []CollectionGroup{
		{Name: "OK", Enabled: true, MinPicks: 1, MaxPicks: 1, Collections: []string{"X"}},
		{Name: "Broken", Enabled: false, DateRange: &DateWindow{Start: "1201", End: "01-15"}, Collections: []string{"Y"}},
	}
	res, err := Run(input(bad, 3, 1))
	if res != nil {
		t.Error("no result expected on configuration error")
	}
	var werr *WindowError
	if !errors.As(err, &werr) || werr.Group != "Broken" {
		t.Fatalf("err = %v, want WindowError for Broken", err)
	}

	quota := []CollectionGroup{{Name: "Q", Enabled: true, MinPicks: 3, MaxPicks: 1, Collections: []string{"X"}}}
	if _, err := Run(input(quota, 3, 1)); !errors.Is(err, ErrInvalidGroup) {
		t.Errorf("err = %v, want ErrInvalidGroup", err)
	}

	in := input(quota, 3, 1)
	in.Rand = nil
	if _, err := Run(in); err == nil {
		t.Error("expected error for nil random source")
	}
}

func TestRun_ZeroCapSkipsEveryGroup(t *testing.T) {
	groups := []CollectionGroup{
		{Name: "A", Enabled: true, MaxPicks: 1, Collections: []string{"X"}},
		{Name: "B", Enabled: false, MaxPicks: 1, Collections: []string{"Y"}},
	}
	res, err := Run(input(groups, 0, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(res.Groups))
	}
	for _, g := range res.Groups {
		if g.ReasonSkipped == nil || *g.ReasonSkipped != ReasonGlobalCapExhausted {
			t.Errorf("group %s reason = %v", g.GroupName, g.ReasonSkipped)
		}
	}
	if len(res.SelectedCollections) != 0 {
		t.Errorf("selected = %v", res.SelectedCollections)
	}
}
