// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/rotation"
)

// MemoryServer is an in-process Plex library with sample collections.
// It implements MediaServer directly and also serves the subset of the
// Plex REST API that Client uses, so it can stand behind httptest.
type MemoryServer struct {
	mu       sync.RWMutex
	sections []Section
	// collections[sectionKey][title]
	collections map[string]map[string]*memoryCollection
	updates     int
}

type memoryCollection struct {
	Collection
	vis rotation.Visibility
}

var demoLibraries = []struct {
	title, kind string
	collections []string
}{
	{"Movies", "movie", []string{
		"Oscar Winners 2024",
		"80s Action Classics",
		"Criterion Collection",
		"Studio Ghibli Films",
		"Nolan Collection",
		"90s Crime Dramas",
		"Best Picture Winners",
		"Sci-Fi Essentials",
	}},
	{"TV Shows", "show", []string{
		"HBO Prestige Dramas",
		"90s Sitcoms",
		"Modern Comedy Classics",
		"British Comedy",
		"Anime Classics",
	}},
}

// NewMemoryServer returns a server pre-populated with demo libraries.
func NewMemoryServer() *MemoryServer {
	m := &MemoryServer{collections: make(map[string]map[string]*memoryCollection)}
	for _, lib := range demoLibraries {
		m.AddSection(lib.title, lib.kind, lib.collections...)
	}
	return m
}

// AddSection creates a library section holding the given collection titles
// and returns its key. Adding to an existing title appends collections.
func (m *MemoryServer) AddSection(title, kind string, collections ...string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ""
	for _, s := range m.sections {
		if s.Title == title {
			key = s.Key
		}
	}
	if key == "" {
		key = strconv.Itoa(len(m.sections) + 1)
		m.sections = append(m.sections, Section{Key: key, Title: title, Type: kind})
		m.collections[key] = make(map[string]*memoryCollection)
	}

	for _, name := range collections {
		if _, ok := m.collections[key][name]; ok {
			continue
		}
		ratingKey := fmt.Sprintf("%s%03d", key, len(m.collections[key])+1)
		m.collections[key][name] = &memoryCollection{
			Collection: Collection{RatingKey: ratingKey, Title: name},
		}
	}
	return key
}

// SectionByName implements MediaServer.
func (m *MemoryServer) SectionByName(_ context.Context, name string) (*Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sections {
		if s.Title == name {
			sec := s
			return &sec, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrLibraryNotFound, name)
}

// Collections implements MediaServer.
func (m *MemoryServer) Collections(_ context.Context, sectionKey string) (map[string]Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cols, ok := m.collections[sectionKey]
	if !ok {
		return nil, fmt.Errorf("section %q does not exist", sectionKey)
	}
	out := make(map[string]Collection, len(cols))
	for title, c := range cols {
		out[title] = c.Collection
	}
	return out, nil
}

// UpdateVisibility implements MediaServer.
func (m *MemoryServer) UpdateVisibility(_ context.Context, sectionKey, ratingKey string, vis rotation.Visibility) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.collections[sectionKey] {
		if c.RatingKey == ratingKey {
			c.vis = vis
			m.updates++
			logging.Debug().
				Str("collection", c.Title).
				Bool("home", vis.Home).
				Bool("shared", vis.Shared).
				Bool("recommended", vis.Recommended).
				Msg("[MOCK] Updated visibility")
			return nil
		}
	}
	return fmt.Errorf("collection %q not found in section %q", ratingKey, sectionKey)
}

// Visibility returns the current flags of a collection, looked up by section
// title and collection title.
func (m *MemoryServer) Visibility(library, collection string) (rotation.Visibility, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sections {
		if s.Title != library {
			continue
		}
		if c, ok := m.collections[s.Key][collection]; ok {
			return c.vis, true
		}
	}
	return rotation.Visibility{}, false
}

// Promoted lists the collections of a library with any placement enabled.
func (m *MemoryServer) Promoted(library string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, s := range m.sections {
		if s.Title != library {
			continue
		}
		for title, c := range m.collections[s.Key] {
			if c.vis.Any() {
				out = append(out, title)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Updates returns how many visibility writes have been accepted.
func (m *MemoryServer) Updates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updates
}

// Handler serves the Plex endpoints used by Client. Requests must carry
// the given token.
func (m *MemoryServer) Handler(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("X-Plex-Token") != token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/identity", func(w http.ResponseWriter, _ *http.Request) {
		var resp identityResponse
		resp.MediaContainer.MachineIdentifier = "marquee-demo"
		resp.MediaContainer.Version = "1.40.0.0000-demo"
		writeJSON(w, resp)
	})

	r.Get("/library/sections", func(w http.ResponseWriter, _ *http.Request) {
		m.mu.RLock()
		var resp sectionsResponse
		resp.MediaContainer.Directory = append([]Section(nil), m.sections...)
		resp.MediaContainer.Size = len(m.sections)
		m.mu.RUnlock()
		writeJSON(w, resp)
	})

	r.Get("/library/sections/{key}/collections", func(w http.ResponseWriter, req *http.Request) {
		cols, err := m.Collections(req.Context(), chi.URLParam(req, "key"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		var resp collectionsResponse
		for _, c := range cols {
			resp.MediaContainer.Metadata = append(resp.MediaContainer.Metadata, c)
		}
		sort.Slice(resp.MediaContainer.Metadata, func(i, j int) bool {
			return resp.MediaContainer.Metadata[i].RatingKey < resp.MediaContainer.Metadata[j].RatingKey
		})
		resp.MediaContainer.Size = len(cols)
		writeJSON(w, resp)
	})

	r.Post("/hubs/sections/{key}/manage", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		vis := rotation.Visibility{
			Home:        q.Get("promotedToOwnHome") == "1",
			Shared:      q.Get("promotedToSharedHome") == "1",
			Recommended: q.Get("promotedToRecommended") == "1",
		}
		if err := m.UpdateVisibility(req.Context(), chi.URLParam(req, "key"), q.Get("metadataItemId"), vis); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("[MOCK] Failed to encode response")
	}
}
