// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/rotation"
)

// Ledger implements the pending -> applied lifecycle on top of a Store.
type Ledger struct {
	store Store
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used for created_at and applied_at.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates a ledger backed by store.
func NewLedger(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create stores a pending simulation holding a snapshot of result.
func (l *Ledger) Create(ctx context.Context, result *rotation.RotationResult) (*Simulation, error) {
	if result == nil {
		return nil, errors.New("simulation: nil rotation result")
	}
	snapshot, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	rec := Record{CreatedAt: l.now(), Snapshot: snapshot}
	id, err := l.store.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("insert simulation: %w", err)
	}
	rec.ID = id

	metrics.SimulationsCreated.Inc()
	return decode(&rec)
}

// Apply transitions a pending simulation to applied and returns it with the
// snapshot taken at creation time.
func (l *Ledger) Apply(ctx context.Context, id int64) (*Simulation, error) {
	rec, err := l.store.MarkApplied(ctx, id, l.now())
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			metrics.SimulationsRejected.WithLabelValues("not_found").Inc()
		case errors.Is(err, ErrAlreadyApplied):
			metrics.SimulationsRejected.WithLabelValues("already_applied").Inc()
		}
		return nil, err
	}
	metrics.SimulationsApplied.Inc()
	return decode(rec)
}

// Get returns a simulation by id.
func (l *Ledger) Get(ctx context.Context, id int64) (*Simulation, error) {
	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return decode(rec)
}

// List returns up to limit simulations, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]Simulation, error) {
	recs, err := l.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Simulation, 0, len(recs))
	for i := range recs {
		sim, err := decode(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *sim)
	}
	return out, nil
}

func decode(rec *Record) (*Simulation, error) {
	sim := &Simulation{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Applied:   rec.Applied,
		AppliedAt: rec.AppliedAt,
	}
	if err := json.Unmarshal(rec.Snapshot, &sim.Result); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", rec.ID, err)
	}
	return sim, nil
}
