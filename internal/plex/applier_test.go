// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/rotation"
)

type failingServer struct {
	*MemoryServer
	err error
}

func (f failingServer) UpdateVisibility(context.Context, string, string, rotation.Visibility) error {
	return f.err
}

func testVisibility() rotation.VisibilityMap {
	return rotation.BuildVisibilityMap([]rotation.CollectionGroup{
		{
			Name:           "Movies",
			Collections:    []string{"Nolan Collection", "Sci-Fi Essentials", "Not In Library"},
			VisibilityHome: true,
		},
		{
			Name:                  "Classics",
			Collections:           []string{"Criterion Collection"},
			VisibilityShared:      true,
			VisibilityRecommended: true,
		},
	})
}

func TestApplySelection(t *testing.T) {
	mem := NewMemoryServer()
	applier := NewApplier(mem, "Movies", 0)
	vis := testVisibility()

	// Pre-promote a collection that must be demoted.
	sec, _ := mem.SectionByName(context.Background(), "Movies")
	cols, _ := mem.Collections(context.Background(), sec.Key)
	_ = mem.UpdateVisibility(context.Background(), sec.Key, cols["Sci-Fi Essentials"].RatingKey, rotation.Visibility{Home: true})

	applied, err := applier.ApplySelection(context.Background(), vis.Names(),
		[]string{"Nolan Collection", "Criterion Collection"}, vis, false)
	if err != nil {
		t.Fatalf("ApplySelection() error = %v", err)
	}

	want := []string{"Criterion Collection", "Nolan Collection"}
	if !reflect.DeepEqual(applied, want) {
		t.Errorf("applied = %v, want %v", applied, want)
	}

	tests := []struct {
		name string
		want rotation.Visibility
	}{
		{"Nolan Collection", rotation.Visibility{Home: true}},
		{"Criterion Collection", rotation.Visibility{Shared: true, Recommended: true}},
		{"Sci-Fi Essentials", rotation.Visibility{}},
	}
	for _, tt := range tests {
		got, ok := mem.Visibility("Movies", tt.name)
		if !ok {
			t.Fatalf("%s missing from memory server", tt.name)
		}
		if got != tt.want {
			t.Errorf("%s visibility = %+v, want %+v", tt.name, got, tt.want)
		}
	}

	if got := mem.Promoted("Movies"); !reflect.DeepEqual(got, want) {
		t.Errorf("Promoted() = %v, want %v", got, want)
	}
}

func TestApplySelectionDryRun(t *testing.T) {
	mem := NewMemoryServer()
	applier := NewApplier(mem, "Movies", 0)
	vis := testVisibility()

	applied, err := applier.ApplySelection(context.Background(), vis.Names(), []string{"Sci-Fi Essentials"}, vis, true)
	if err != nil {
		t.Fatalf("ApplySelection() error = %v", err)
	}
	if !reflect.DeepEqual(applied, []string{"Sci-Fi Essentials"}) {
		t.Errorf("applied = %v", applied)
	}
	if mem.Updates() != 0 {
		t.Errorf("dry run wrote %d updates", mem.Updates())
	}
}

func TestApplySelectionSkipsMissing(t *testing.T) {
	mem := NewMemoryServer()
	applier := NewApplier(mem, "Movies", 0)
	vis := testVisibility()

	applied, err := applier.ApplySelection(context.Background(), vis.Names(), []string{"Not In Library"}, vis, false)
	if err != nil {
		t.Fatalf("ApplySelection() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied = %v, want none", applied)
	}
	// Three configured collections exist in the library and were demoted.
	if mem.Updates() != 3 {
		t.Errorf("updates = %d, want 3", mem.Updates())
	}
}

func TestApplySelectionErrors(t *testing.T) {
	vis := testVisibility()

	t.Run("unknown library", func(t *testing.T) {
		applier := NewApplier(NewMemoryServer(), "Music", 0)
		_, err := applier.ApplySelection(context.Background(), vis.Names(), nil, vis, false)
		if !errors.Is(err, ErrLibraryNotFound) {
			t.Errorf("error = %v, want ErrLibraryNotFound", err)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		boom := errors.New("boom")
		applier := NewApplier(failingServer{NewMemoryServer(), boom}, "Movies", 0)
		_, err := applier.ApplySelection(context.Background(), vis.Names(), nil, vis, false)
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want boom", err)
		}
	})
}

func TestLibraryCollections(t *testing.T) {
	applier := NewApplier(NewMemoryServer(), "TV Shows", 10)
	got, err := applier.LibraryCollections(context.Background())
	if err != nil {
		t.Fatalf("LibraryCollections() error = %v", err)
	}
	if len(got) != 5 {
		t.Errorf("LibraryCollections() = %d titles, want 5", len(got))
	}
	if _, ok := got["Anime Classics"]; !ok {
		t.Error("expected Anime Classics")
	}
	if applier.Library() != "TV Shows" {
		t.Errorf("Library() = %q", applier.Library())
	}
}

type countingServer struct {
	*MemoryServer
	lookups int
}

func (c *countingServer) SectionByName(ctx context.Context, name string) (*Section, error) {
	c.lookups++
	return c.MemoryServer.SectionByName(ctx, name)
}

func TestLibraryCollectionsCache(t *testing.T) {
	ctx := context.Background()
	srv := &countingServer{MemoryServer: NewMemoryServer()}
	applier := NewApplier(srv, "Movies", 0, WithCollectionCache(time.Minute))
	hits := metrics.PlexCollectionCacheLookups.WithLabelValues("hit")
	before := testutil.ToFloat64(hits)

	for i := 0; i < 3; i++ {
		if _, err := applier.LibraryCollections(ctx); err != nil {
			t.Fatalf("LibraryCollections() error = %v", err)
		}
	}
	if srv.lookups != 1 {
		t.Errorf("lookups = %d, want 1", srv.lookups)
	}
	if got := testutil.ToFloat64(hits) - before; got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}

	applier.InvalidateCollections()
	if _, err := applier.LibraryCollections(ctx); err != nil {
		t.Fatalf("LibraryCollections() error = %v", err)
	}
	if srv.lookups != 2 {
		t.Errorf("lookups after invalidate = %d, want 2", srv.lookups)
	}

	// ApplySelection reads fresh and refreshes the cached listing.
	vis := testVisibility()
	if _, err := applier.ApplySelection(ctx, vis.Names(), nil, vis, true); err != nil {
		t.Fatalf("ApplySelection() error = %v", err)
	}
	if _, err := applier.LibraryCollections(ctx); err != nil {
		t.Fatalf("LibraryCollections() error = %v", err)
	}
	if srv.lookups != 3 {
		t.Errorf("lookups after apply = %d, want 3", srv.lookups)
	}
}

func TestLibraryCollectionsUncached(t *testing.T) {
	srv := &countingServer{MemoryServer: NewMemoryServer()}
	applier := NewApplier(srv, "Movies", 0)

	for i := 0; i < 2; i++ {
		if _, err := applier.LibraryCollections(context.Background()); err != nil {
			t.Fatalf("LibraryCollections() error = %v", err)
		}
	}
	if srv.lookups != 2 {
		t.Errorf("lookups = %d, want 2", srv.lookups)
	}
}
