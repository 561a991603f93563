// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package simulation

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps simulations in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int64]Record)}
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, rec Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	rec.Snapshot = append([]byte(nil), rec.Snapshot...)
	s.records[rec.ID] = rec
	return rec.ID, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkApplied implements Store.
func (s *MemoryStore) MarkApplied(_ context.Context, id int64, at time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Applied {
		return nil, ErrAlreadyApplied
	}
	rec.Applied = true
	rec.AppliedAt = &at
	s.records[id] = rec
	return &rec, nil
}
