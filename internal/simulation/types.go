// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package simulation

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/marquee/internal/rotation"
)

var (
	// ErrNotFound is returned when no simulation exists for an id.
	ErrNotFound = errors.New("simulation not found")

	// ErrAlreadyApplied is returned when a simulation was applied before.
	ErrAlreadyApplied = errors.New("simulation already applied")
)

// Simulation is a stored rotation decision.
type Simulation struct {
	ID        int64                   `json:"id"`
	CreatedAt time.Time               `json:"created_at"`
	Applied   bool                    `json:"applied"`
	AppliedAt *time.Time              `json:"applied_at,omitempty"`
	Result    rotation.RotationResult `json:"result"`
}

// Record is the persisted form of a simulation. Snapshot holds the encoded
// rotation result and is never rewritten after creation.
type Record struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
	Snapshot  []byte     `json:"snapshot"`
}

// Store persists simulation records.
type Store interface {
	// Insert allocates a new id, stores the record under it and returns the id.
	Insert(ctx context.Context, rec Record) (int64, error)

	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id int64) (*Record, error)

	// List returns up to limit records, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Record, error)

	// MarkApplied atomically transitions a pending record to applied and
	// returns the updated record. It returns ErrNotFound or ErrAlreadyApplied
	// without modifying anything when the transition is not allowed.
	MarkApplied(ctx context.Context, id int64, at time.Time) (*Record, error)
}
