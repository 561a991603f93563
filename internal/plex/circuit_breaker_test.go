// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marquee/internal/rotation"
)

type flakyServer struct {
	*MemoryServer
	fail bool
}

func (f *flakyServer) Collections(ctx context.Context, sectionKey string) (map[string]Collection, error) {
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.MemoryServer.Collections(ctx, sectionKey)
}

func testBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		MinRequests: 3,
		FailureRate: 0.6,
	}
}

func TestCircuitBreakerPassesThrough(t *testing.T) {
	mem := NewMemoryServer()
	cbc := NewCircuitBreakerClient(mem, testBreakerSettings("test-pass"))
	ctx := context.Background()

	sec, err := cbc.SectionByName(ctx, "Movies")
	if err != nil {
		t.Fatalf("SectionByName() error = %v", err)
	}
	cols, err := cbc.Collections(ctx, sec.Key)
	if err != nil {
		t.Fatalf("Collections() error = %v", err)
	}
	if err := cbc.UpdateVisibility(ctx, sec.Key, cols["Nolan Collection"].RatingKey, rotation.Visibility{Home: true}); err != nil {
		t.Fatalf("UpdateVisibility() error = %v", err)
	}
	if v, _ := mem.Visibility("Movies", "Nolan Collection"); !v.Home {
		t.Error("update did not reach the wrapped server")
	}
	if cbc.State() != "closed" {
		t.Errorf("State() = %s, want closed", cbc.State())
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	flaky := &flakyServer{MemoryServer: NewMemoryServer(), fail: true}
	cbc := NewCircuitBreakerClient(flaky, testBreakerSettings("test-open"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cbc.Collections(ctx, "1"); err == nil {
			t.Fatal("expected failure from flaky server")
		}
	}
	if cbc.State() != "open" {
		t.Fatalf("State() = %s, want open", cbc.State())
	}

	flaky.fail = false
	_, err := cbc.Collections(ctx, "1")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
}

func TestCircuitBreakerIgnoresMissingLibrary(t *testing.T) {
	cbc := NewCircuitBreakerClient(NewMemoryServer(), testBreakerSettings("test-missing"))

	for i := 0; i < 5; i++ {
		_, err := cbc.SectionByName(context.Background(), "Music")
		if !errors.Is(err, ErrLibraryNotFound) {
			t.Fatalf("error = %v, want ErrLibraryNotFound", err)
		}
	}
	if cbc.State() != "closed" {
		t.Errorf("State() = %s, want closed", cbc.State())
	}
}
