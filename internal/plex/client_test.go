// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/rotation"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL+"/", "test-token", 5*time.Second)
	client.baseDelay = time.Millisecond
	return client
}

func TestClientAgainstMemoryServer(t *testing.T) {
	mem := NewMemoryServer()
	client := newTestClient(t, mem.Handler("test-token"))
	ctx := context.Background()

	version, err := client.Ping(ctx)
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if version == "" {
		t.Error("Ping() returned empty version")
	}

	sections, err := client.Sections(ctx)
	if err != nil {
		t.Fatalf("Sections() error = %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("Sections() returned %d sections, want 2", len(sections))
	}

	sec, err := client.SectionByName(ctx, "Movies")
	if err != nil {
		t.Fatalf("SectionByName() error = %v", err)
	}

	cols, err := client.Collections(ctx, sec.Key)
	if err != nil {
		t.Fatalf("Collections() error = %v", err)
	}
	nolan, ok := cols["Nolan Collection"]
	if !ok {
		t.Fatalf("Collections() missing Nolan Collection: %v", cols)
	}

	want := rotation.Visibility{Home: true, Recommended: true}
	if err := client.UpdateVisibility(ctx, sec.Key, nolan.RatingKey, want); err != nil {
		t.Fatalf("UpdateVisibility() error = %v", err)
	}
	got, _ := mem.Visibility("Movies", "Nolan Collection")
	if got != want {
		t.Errorf("visibility = %+v, want %+v", got, want)
	}
}

func TestClientSectionByNameMissing(t *testing.T) {
	client := newTestClient(t, NewMemoryServer().Handler("test-token"))

	_, err := client.SectionByName(context.Background(), "Music")
	if !errors.Is(err, ErrLibraryNotFound) {
		t.Errorf("SectionByName() error = %v, want ErrLibraryNotFound", err)
	}
}

func TestClientUnauthorized(t *testing.T) {
	server := httptest.NewServer(NewMemoryServer().Handler("right-token"))
	defer server.Close()

	client := NewClient(server.URL, "wrong-token", time.Second)
	if _, err := client.Sections(context.Background()); err == nil {
		t.Error("Sections() with bad token should fail")
	}
}

func TestClientUpdateVisibilityQuery(t *testing.T) {
	var gotQuery, gotMethod, gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))

	err := client.UpdateVisibility(context.Background(), "3", "3001", rotation.Visibility{Shared: true})
	if err != nil {
		t.Fatalf("UpdateVisibility() error = %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPath != "/hubs/sections/3/manage" {
		t.Errorf("path = %s", gotPath)
	}
	want := "metadataItemId=3001&promotedToOwnHome=0&promotedToRecommended=0&promotedToSharedHome=1"
	if gotQuery != want {
		t.Errorf("query = %s, want %s", gotQuery, want)
	}
}

func TestClientRateLimiting(t *testing.T) {
	t.Run("retries then succeeds", func(t *testing.T) {
		var attempts atomic.Int32
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"MediaContainer":{"size":0,"Directory":[]}}`))
		}))

		if _, err := client.Sections(context.Background()); err != nil {
			t.Fatalf("Sections() error = %v", err)
		}
		if attempts.Load() != 3 {
			t.Errorf("attempts = %d, want 3", attempts.Load())
		}
	})

	t.Run("honors Retry-After", func(t *testing.T) {
		var attempts atomic.Int32
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) == 1 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"MediaContainer":{"size":0,"Directory":[]}}`))
		}))
		client.baseDelay = time.Hour

		start := time.Now()
		if _, err := client.Sections(context.Background()); err != nil {
			t.Fatalf("Sections() error = %v", err)
		}
		if time.Since(start) > 5*time.Second {
			t.Error("Retry-After: 0 should override the base delay")
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var attempts atomic.Int32
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		if _, err := client.Sections(context.Background()); err == nil {
			t.Fatal("expected error after exhausting retries")
		}
		if attempts.Load() != maxRetries+1 {
			t.Errorf("attempts = %d, want %d", attempts.Load(), maxRetries+1)
		}
	})

	t.Run("context cancellation stops waiting", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		client.baseDelay = time.Hour

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := client.Sections(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want context.DeadlineExceeded", err)
		}
	})
}

func TestClientUnexpectedStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	if _, err := client.Sections(context.Background()); err == nil {
		t.Error("expected error for HTTP 500")
	}
}
