// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/rotation"
)

// Applier pushes rotation selections to one library of a media server.
type Applier struct {
	server  MediaServer
	library string
	limiter *rate.Limiter
	titles  *cache.Cache[map[string]struct{}]
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithCollectionCache reuses library listings in LibraryCollections for
// ttl. ApplySelection always reads fresh and refreshes the entry.
func WithCollectionCache(ttl time.Duration) ApplierOption {
	return func(a *Applier) {
		a.titles = cache.New[map[string]struct{}](ttl)
	}
}

// NewApplier creates an applier for the named library. requestsPerSecond
// paces visibility writes; zero or less disables pacing.
func NewApplier(server MediaServer, library string, requestsPerSecond float64, opts ...ApplierOption) *Applier {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	a := &Applier{
		server:  server,
		library: library,
		limiter: rate.NewLimiter(limit, 1),
		titles:  cache.New[map[string]struct{}](0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Library returns the library title this applier writes to.
func (a *Applier) Library() string {
	return a.library
}

// LibraryCollections returns the collection titles present in the library.
// The returned map is shared with the cache and must not be modified.
func (a *Applier) LibraryCollections(ctx context.Context) (map[string]struct{}, error) {
	if a.titles.Enabled() {
		if titles, ok := a.titles.Get(a.library); ok {
			metrics.PlexCollectionCacheLookups.WithLabelValues("hit").Inc()
			return titles, nil
		}
		metrics.PlexCollectionCacheLookups.WithLabelValues("miss").Inc()
	}
	_, cols, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	return a.titleSet(cols), nil
}

// InvalidateCollections drops the cached library listing.
func (a *Applier) InvalidateCollections() {
	a.titles.Delete(a.library)
}

func (a *Applier) titleSet(cols map[string]Collection) map[string]struct{} {
	out := make(map[string]struct{}, len(cols))
	for title := range cols {
		out[title] = struct{}{}
	}
	a.titles.Set(a.library, out)
	return out
}

func (a *Applier) load(ctx context.Context) (*Section, map[string]Collection, error) {
	sec, err := a.server.SectionByName(ctx, a.library)
	if err != nil {
		a.InvalidateCollections()
		return nil, nil, fmt.Errorf("resolve library %q: %w", a.library, err)
	}
	cols, err := a.server.Collections(ctx, sec.Key)
	if err != nil {
		a.InvalidateCollections()
		return nil, nil, fmt.Errorf("list collections of %q: %w", a.library, err)
	}
	return sec, cols, nil
}

// ApplySelection promotes the selected collections and demotes every other
// configured one. Configured names are processed in sorted order. Names not
// present in the library are logged and skipped. Selected collections take
// their flags from vis; unselected ones get all placements disabled.
//
// With dryRun set nothing is written. The returned list holds the selected
// collections that were (or would have been) promoted, sorted.
func (a *Applier) ApplySelection(ctx context.Context, configured, selected []string, vis rotation.VisibilityMap, dryRun bool) ([]string, error) {
	sec, cols, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	a.titleSet(cols)

	chosen := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		chosen[name] = struct{}{}
	}

	names := uniqueSorted(configured)
	applied := make([]string, 0, len(chosen))

	for _, name := range names {
		col, ok := cols[name]
		if !ok {
			logging.Warn().Str("collection", name).Str("library", a.library).Msg("Configured collection not found in library")
			metrics.PlexVisibilityUpdates.WithLabelValues("skipped_missing").Inc()
			continue
		}

		_, isSelected := chosen[name]
		target := rotation.Visibility{}
		if isSelected {
			target = vis.Lookup(name)
		}

		if dryRun {
			logging.Info().
				Str("collection", name).
				Bool("home", target.Home).
				Bool("shared", target.Shared).
				Bool("recommended", target.Recommended).
				Msg("[DRY RUN] Would update visibility")
			metrics.PlexVisibilityUpdates.WithLabelValues("dry_run").Inc()
		} else {
			if err := a.limiter.Wait(ctx); err != nil {
				return applied, err
			}
			if err := a.server.UpdateVisibility(ctx, sec.Key, col.RatingKey, target); err != nil {
				return applied, fmt.Errorf("update visibility of %q: %w", name, err)
			}
			action := "demote"
			if isSelected {
				action = "promote"
			}
			metrics.PlexVisibilityUpdates.WithLabelValues(action).Inc()
		}

		if isSelected {
			applied = append(applied, name)
		}
	}

	logging.Info().
		Strs("applied", applied).
		Bool("dry_run", dryRun).
		Str("library", a.library).
		Msg("Applied home screen selection")
	return applied, nil
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
