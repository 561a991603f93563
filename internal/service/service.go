// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package service runs rotations end to end.

A rotation reads the usage history, computes a selection with the rotation
engine, pushes it to the media server and records it. Every such
read-compute-write sequence holds one mutex, so two triggers (the scheduler
and an API call, say) can never compute against the same history snapshot.
Simulations and simulation applies take the same lock.
*/
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/history"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/rotation"
	"github.com/tomtom215/marquee/internal/simulation"
)

// Event names passed to the Notifier.
const (
	EventRotationCompleted = "rotation_completed"
	EventSimulationCreated = "simulation_created"
	EventSimulationApplied = "simulation_applied"
)

// ErrMediaServer wraps every failure reported by the media server, so callers
// can tell an unreachable server apart from a bad configuration.
var ErrMediaServer = errors.New("media server request failed")

// ConfigSource returns the active configuration. *config.Holder satisfies it.
type ConfigSource interface {
	Get() *config.Config
}

// HistoryStore persists rotation records and collection usage.
type HistoryStore interface {
	Context(ctx context.Context) (rotation.HistoryContext, error)
	RecordRotation(ctx context.Context, featured []string, success bool, errMsg string) (int64, error)
	RecordDryRun(ctx context.Context, featured []string) (int64, error)
	LatestApplied(ctx context.Context) (*history.Record, error)
	ListRotations(ctx context.Context, limit int) ([]history.Record, error)
	ListUsage(ctx context.Context) ([]rotation.CollectionUsage, error)
	Clear(ctx context.Context) error
}

// Ledger stores simulations. *simulation.Ledger satisfies it.
type Ledger interface {
	Create(ctx context.Context, result *rotation.RotationResult) (*simulation.Simulation, error)
	Apply(ctx context.Context, id int64) (*simulation.Simulation, error)
	Get(ctx context.Context, id int64) (*simulation.Simulation, error)
	List(ctx context.Context, limit int) ([]simulation.Simulation, error)
}

// Media applies selections to the media server. *plex.Applier satisfies it.
type Media interface {
	ApplySelection(ctx context.Context, configured, selected []string, vis rotation.VisibilityMap, dryRun bool) ([]string, error)
	LibraryCollections(ctx context.Context) (map[string]struct{}, error)
}

// Notifier receives events after state changes. *websocket.Hub satisfies it.
type Notifier interface {
	BroadcastJSON(messageType string, data any)
}

// Execution describes one completed rotation, simulation or apply.
type Execution struct {
	RotationID   int64                    `json:"rotation_id,omitempty"`
	SimulationID int64                    `json:"simulation_id,omitempty"`
	DryRun       bool                     `json:"dry_run"`
	Rotation     *rotation.RotationResult `json:"rotation"`
	Applied      []string                 `json:"applied_collections"`
	StartedAt    time.Time                `json:"started_at"`
	DurationMs   int64                    `json:"duration_ms"`
}

// Service serializes rotation work against shared history.
type Service struct {
	cfg      ConfigSource
	history  HistoryStore
	ledger   Ledger
	media    Media
	notifier Notifier
	now      func() time.Time

	mu   sync.Mutex // guards everything below and the read-compute-write sequence
	rng  rotation.Source
	last *Execution
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for "today" and timings.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand overrides the random source.
func WithRand(src rotation.Source) Option {
	return func(s *Service) { s.rng = src }
}

// WithNotifier sets the event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// New creates a rotation service. The random source is seeded from
// rotation.seed, or from the clock when the seed is zero.
func New(cfg ConfigSource, hist HistoryStore, ledger Ledger, media Media, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		history: hist,
		ledger:  ledger,
		media:   media,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		seed := cfg.Get().Rotation.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // selection fairness, not security
	}
	return s
}

// RunOnce computes and applies a rotation. With dryRun set the media server
// is left untouched but the rotation is still recorded in history.
func (s *Service) RunOnce(ctx context.Context, dryRun bool) (*Execution, error) {
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	log := logging.Ctx(ctx)
	log.Info().Bool("dry_run", dryRun).Msg("Starting rotation")

	cfg := s.cfg.Get()
	hist, err := s.history.Context(ctx)
	if err != nil {
		metrics.RecordRotation(mode, "error", time.Since(start), 0)
		return nil, fmt.Errorf("load rotation history: %w", err)
	}

	result, err := s.compute(cfg, hist, start)
	if err != nil {
		metrics.RecordRotation(mode, "error", time.Since(start), 0)
		return nil, err
	}

	vis := rotation.BuildVisibilityMap(cfg.Groups)
	applied, err := s.media.ApplySelection(ctx, vis.Names(), result.SelectedCollections, vis, dryRun)
	if err != nil {
		s.recordFailure(ctx, err)
		metrics.RecordRotation(mode, "error", time.Since(start), 0)
		return nil, fmt.Errorf("apply selection: %w: %w", ErrMediaServer, err)
	}

	var id int64
	if dryRun {
		id, err = s.history.RecordDryRun(ctx, result.SelectedCollections)
	} else {
		id, err = s.history.RecordRotation(ctx, result.SelectedCollections, true, "")
	}
	if err != nil {
		metrics.RecordRotation(mode, "error", time.Since(start), 0)
		return nil, fmt.Errorf("record rotation: %w", err)
	}

	exec := &Execution{
		RotationID: id,
		DryRun:     dryRun,
		Rotation:   result,
		Applied:    applied,
		StartedAt:  start,
		DurationMs: s.now().Sub(start).Milliseconds(),
	}
	s.last = exec
	metrics.RecordRotation(mode, "success", time.Since(start), len(result.SelectedCollections))

	log.Info().
		Int64("rotation_id", id).
		Strs("selected", result.SelectedCollections).
		Strs("applied", applied).
		Bool("dry_run", dryRun).
		Msg("Rotation complete")

	s.notify(EventRotationCompleted, exec)
	return exec, nil
}

// Simulate computes the next rotation against current history and stores it
// in the ledger. Neither the media server nor history is touched.
func (s *Service) Simulate(ctx context.Context) (*Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	cfg := s.cfg.Get()
	hist, err := s.history.Context(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rotation history: %w", err)
	}

	result, err := s.compute(cfg, hist, start)
	if err != nil {
		return nil, err
	}

	sim, err := s.ledger.Create(ctx, result)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int64("simulation_id", sim.ID).
		Strs("selected", result.SelectedCollections).
		Msg("Simulation created")

	exec := &Execution{
		SimulationID: sim.ID,
		DryRun:       true,
		Rotation:     result,
		Applied:      append([]string{}, result.SelectedCollections...),
		StartedAt:    start,
		DurationMs:   s.now().Sub(start).Milliseconds(),
	}
	s.notify(EventSimulationCreated, exec)
	return exec, nil
}

// ApplySimulation pushes a stored simulation's selection to the media server
// and records it as a real rotation. Visibility comes from the current
// group configuration. A simulation can be applied once; a failed push
// leaves it pending.
func (s *Service) ApplySimulation(ctx context.Context, id int64) (*Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	sim, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sim.Applied {
		metrics.SimulationsRejected.WithLabelValues("already_applied").Inc()
		return nil, fmt.Errorf("simulation %d: %w", id, simulation.ErrAlreadyApplied)
	}

	cfg := s.cfg.Get()
	result := sim.Result
	vis := rotation.BuildVisibilityMap(cfg.Groups)
	applied, err := s.media.ApplySelection(ctx, vis.Names(), result.SelectedCollections, vis, false)
	if err != nil {
		s.recordFailure(ctx, err)
		metrics.RecordRotation("simulation_apply", "error", time.Since(start), 0)
		return nil, fmt.Errorf("apply simulation %d: %w: %w", id, ErrMediaServer, err)
	}

	if _, err := s.ledger.Apply(ctx, id); err != nil {
		return nil, err
	}

	rotationID, err := s.history.RecordRotation(ctx, result.SelectedCollections, true, "")
	if err != nil {
		return nil, fmt.Errorf("record rotation: %w", err)
	}

	exec := &Execution{
		RotationID:   rotationID,
		SimulationID: id,
		Rotation:     &result,
		Applied:      applied,
		StartedAt:    start,
		DurationMs:   s.now().Sub(start).Milliseconds(),
	}
	s.last = exec
	metrics.RecordRotation("simulation_apply", "success", time.Since(start), len(result.SelectedCollections))

	logging.Ctx(ctx).Info().
		Int64("simulation_id", id).
		Int64("rotation_id", rotationID).
		Strs("applied", applied).
		Msg("Simulation applied")

	s.notify(EventSimulationApplied, exec)
	return exec, nil
}

// compute runs the engine. Caller holds s.mu.
func (s *Service) compute(cfg *config.Config, hist rotation.HistoryContext, now time.Time) (*rotation.RotationResult, error) {
	result, err := rotation.Run(rotation.Input{
		Groups:   cfg.Groups,
		Settings: cfg.Rotation.Settings(),
		History:  hist,
		Today:    rotation.DateOf(now),
		Rand:     s.rng,
	})
	if err != nil {
		return nil, fmt.Errorf("compute rotation: %w", err)
	}
	for _, g := range result.Groups {
		if !g.Skipped() {
			logging.Debug().Str("group", g.GroupName).Strs("chosen", g.ChosenCollections).Msg("Group selected collections")
			continue
		}
		metrics.RecordGroupSkip(string(*g.ReasonSkipped))
		logging.Debug().
			Str("group", g.GroupName).
			Str("reason", string(*g.ReasonSkipped)).
			Msg("Group skipped: " + g.ReasonSkipped.Description())
	}
	return result, nil
}

// recordFailure stores a failed rotation. Usage is left untouched.
func (s *Service) recordFailure(ctx context.Context, cause error) {
	if _, err := s.history.RecordRotation(ctx, nil, false, cause.Error()); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to record failed rotation")
	}
}

func (s *Service) notify(event string, exec *Execution) {
	if s.notifier != nil {
		s.notifier.BroadcastJSON(event, exec)
	}
}

// LastExecution returns the most recent rotation or apply, or nil.
func (s *Service) LastExecution() *Execution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Groups returns the configured collection groups.
func (s *Service) Groups() []rotation.CollectionGroup {
	return s.cfg.Get().Groups
}

// Visibility returns the resolved visibility of every configured collection.
func (s *Service) Visibility() rotation.VisibilityMap {
	return rotation.BuildVisibilityMap(s.cfg.Get().Groups)
}

// ValidateGroups reports per-group data-quality issues, including
// collections missing from the media server library.
func (s *Service) ValidateGroups(ctx context.Context) ([]rotation.GroupIssues, error) {
	known, err := s.media.LibraryCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list library collections: %w: %w", ErrMediaServer, err)
	}
	return rotation.Inspect(s.cfg.Get().Groups, known), nil
}

// History returns recent rotation records, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]history.Record, error) {
	return s.history.ListRotations(ctx, limit)
}

// LatestApplied returns the newest successful live rotation, or nil.
func (s *Service) LatestApplied(ctx context.Context) (*history.Record, error) {
	return s.history.LatestApplied(ctx)
}

// Usage returns per-collection usage ordered by recency.
func (s *Service) Usage(ctx context.Context) ([]rotation.CollectionUsage, error) {
	return s.history.ListUsage(ctx)
}

// ClearHistory wipes rotation history and usage.
func (s *Service) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.history.Clear(ctx); err != nil {
		return err
	}
	s.last = nil
	logging.Ctx(ctx).Warn().Msg("Rotation history cleared")
	return nil
}

// Simulation returns one stored simulation.
func (s *Service) Simulation(ctx context.Context, id int64) (*simulation.Simulation, error) {
	return s.ledger.Get(ctx, id)
}

// Simulations returns recent simulations, newest first.
func (s *Service) Simulations(ctx context.Context, limit int) ([]simulation.Simulation, error) {
	return s.ledger.List(ctx, limit)
}
