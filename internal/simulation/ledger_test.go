// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package simulation

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/rotation"
)

func sampleResult() *rotation.RotationResult {
	reason := rotation.ReasonGlobalCapExhausted
	return &rotation.RotationResult{
		SelectedCollections: []string{"X"},
		Groups: []rotation.GroupSelectionResult{
			{GroupName: "A", Active: true, Evaluated: true, MinPicks: 1, MaxPicks: 1,
				AvailableCollections: []string{"X", "Y"}, ChosenCollections: []string{"X"}, PickedCount: 1},
			{GroupName: "B", AvailableCollections: []string{}, ChosenCollections: []string{}, ReasonSkipped: &reason},
		},
		MaxGlobal:       1,
		RemainingGlobal: 0,
		Today:           rotation.Date{Year: 2025, Month: time.December, Day: 24},
	}
}

type storeFactory func(t *testing.T) Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"badger": func(t *testing.T) Store {
			t.Helper()
			db, err := OpenBadger("")
			if err != nil {
				t.Fatalf("OpenBadger: %v", err)
			}
			s, err := NewBadgerStore(db)
			if err != nil {
				t.Fatalf("NewBadgerStore: %v", err)
			}
			t.Cleanup(func() {
				_ = s.Close()
				_ = db.Close()
			})
			return s
		},
	}
}

func fixedClock() func() time.Time {
	now := time.Date(2025, 12, 24, 8, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func TestLedger_Lifecycle(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := NewLedger(factory(t), WithClock(fixedClock()))

			res := sampleResult()
			sim, err := ledger.Create(ctx, res)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if sim.ID <= 0 || sim.Applied || sim.AppliedAt != nil {
				t.Fatalf("new simulation = %+v", sim)
			}

			// Mutating the caller's result must not leak into the snapshot.
			res.SelectedCollections[0] = "MUTATED"
			res.Groups[0].ChosenCollections = nil

			applied, err := ledger.Apply(ctx, sim.ID)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !applied.Applied || applied.AppliedAt == nil {
				t.Fatalf("applied simulation = %+v", applied)
			}
			if !reflect.DeepEqual(applied.Result, *sampleResult()) {
				t.Errorf("snapshot changed:\n got %+v\nwant %+v", applied.Result, *sampleResult())
			}

			_, err = ledger.Apply(ctx, sim.ID)
			if !errors.Is(err, ErrAlreadyApplied) {
				t.Fatalf("second Apply error = %v, want ErrAlreadyApplied", err)
			}

			after, err := ledger.Get(ctx, sim.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !reflect.DeepEqual(after, applied) {
				t.Errorf("record changed by failed apply:\n got %+v\nwant %+v", after, applied)
			}
		})
	}
}

func TestLedger_NotFound(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ledger := NewLedger(factory(t))
			if _, err := ledger.Apply(context.Background(), 404); !errors.Is(err, ErrNotFound) {
				t.Errorf("Apply error = %v, want ErrNotFound", err)
			}
			if _, err := ledger.Get(context.Background(), 404); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestLedger_ListNewestFirst(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := NewLedger(factory(t))

			var ids []int64
			for i := 0; i < 4; i++ {
				sim, err := ledger.Create(ctx, sampleResult())
				if err != nil {
					t.Fatalf("Create: %v", err)
				}
				ids = append(ids, sim.ID)
			}
			for i := 1; i < len(ids); i++ {
				if ids[i] <= ids[i-1] {
					t.Fatalf("ids not increasing: %v", ids)
				}
			}

			all, err := ledger.List(ctx, 0)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(all) != 4 || all[0].ID != ids[3] || all[3].ID != ids[0] {
				t.Fatalf("List order = %v", simIDs(all))
			}

			limited, err := ledger.List(ctx, 2)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(limited) != 2 || limited[0].ID != ids[3] {
				t.Errorf("limited = %v", simIDs(limited))
			}
		})
	}
}

func TestLedger_ConcurrentApplyOnlyOnce(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := NewLedger(factory(t))
			sim, err := ledger.Create(ctx, sampleResult())
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			const workers = 8
			var wg sync.WaitGroup
			var mu sync.Mutex
			successes := 0
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := ledger.Apply(ctx, sim.ID)
					if err == nil {
						mu.Lock()
						successes++
						mu.Unlock()
						return
					}
					if !errors.Is(err, ErrAlreadyApplied) {
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			if successes != 1 {
				t.Errorf("successful applies = %d, want 1", successes)
			}
		})
	}
}

func TestLedger_CreateNil(t *testing.T) {
	if _, err := NewLedger(NewMemoryStore()).Create(context.Background(), nil); err == nil {
		t.Error("expected error for nil result")
	}
}

func simIDs(sims []Simulation) []int64 {
	out := make([]int64, len(sims))
	for i, s := range sims {
		out[i] = s.ID
	}
	return out
}
