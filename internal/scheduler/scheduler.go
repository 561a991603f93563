// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package scheduler triggers rotations on a fixed interval.
//
// The first run happens one interval after Start. Run errors are logged and
// the loop keeps going. Reschedule applies hot-reloaded settings: the next
// run time only moves when the interval itself changes or the schedule is
// re-enabled.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/service"
)

// Runner executes one rotation. *service.Service satisfies it.
type Runner interface {
	RunOnce(ctx context.Context, dryRun bool) (*service.Execution, error)
}

// Config holds scheduler settings.
type Config struct {
	Enabled  bool
	Interval time.Duration

	// DryRun makes timer-triggered rotations skip media server writes.
	DryRun bool

	// RunTimeout bounds a single rotation (default: 5 minutes).
	RunTimeout time.Duration
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Enabled    bool       `json:"enabled"`
	Running    bool       `json:"running"`
	Executing  bool       `json:"executing"`
	DryRun     bool       `json:"dry_run"`
	Interval   string     `json:"interval"`
	IntervalS  int64      `json:"interval_seconds"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	LastRunID  int64      `json:"last_rotation_id,omitempty"`
	TotalRuns  int        `json:"total_runs"`
	FailedRuns int        `json:"failed_runs"`
}

// Scheduler runs rotations periodically.
type Scheduler struct {
	runner Runner
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	config    Config
	running   bool
	executing bool
	nextRun   time.Time
	lastRun   time.Time
	lastErr   string
	lastID    int64
	total     int
	failed    int
	stopCh    chan struct{}
	doneCh    chan struct{}
	resetCh   chan struct{}
}

// New creates a scheduler.
func New(runner Runner, config Config) *Scheduler {
	if config.RunTimeout <= 0 {
		config.RunTimeout = 5 * time.Minute
	}
	return &Scheduler{
		runner:  runner,
		logger:  logging.WithComponent("rotation-scheduler"),
		now:     time.Now,
		config:  config,
		resetCh: make(chan struct{}, 1),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	if s.config.Interval <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("scheduler interval must be positive, got %s", s.config.Interval)
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.nextRun = s.now().Add(s.config.Interval)
	cfg := s.config
	s.mu.Unlock()

	s.logger.Info().
		Bool("enabled", cfg.Enabled).
		Dur("interval", cfg.Interval).
		Bool("dry_run", cfg.DryRun).
		Msg("Starting rotation scheduler")

	go s.run(ctx)
	return nil
}

// Stop stops the loop and waits for an in-flight rotation to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Rotation scheduler stopped")
	return nil
}

// Reschedule applies new settings to a running scheduler.
func (s *Scheduler) Reschedule(interval time.Duration, enabled, dryRun bool) {
	if interval <= 0 {
		s.logger.Warn().Dur("interval", interval).Msg("Ignoring non-positive scheduler interval")
		return
	}

	s.mu.Lock()
	changed := interval != s.config.Interval || (enabled && !s.config.Enabled)
	s.config.Interval = interval
	s.config.Enabled = enabled
	s.config.DryRun = dryRun
	if changed {
		s.nextRun = s.now().Add(interval)
	}
	next := s.nextRun
	s.mu.Unlock()

	s.logger.Info().
		Bool("enabled", enabled).
		Dur("interval", interval).
		Bool("dry_run", dryRun).
		Time("next_run", next).
		Msg("Rotation schedule updated")

	select {
	case s.resetCh <- struct{}{}:
	default:
	}
}

// Status reports the current schedule.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Enabled:    s.config.Enabled,
		Running:    s.running,
		Executing:  s.executing,
		DryRun:     s.config.DryRun,
		Interval:   s.config.Interval.String(),
		IntervalS:  int64(s.config.Interval / time.Second),
		LastError:  s.lastErr,
		LastRunID:  s.lastID,
		TotalRuns:  s.total,
		FailedRuns: s.failed,
	}
	if s.running && s.config.Enabled {
		next := s.nextRun
		st.NextRun = &next
	}
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRun = &last
	}
	return st
}

// IsRunning returns whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	for {
		s.mu.Lock()
		enabled := s.config.Enabled
		wait := s.nextRun.Sub(s.now())
		s.mu.Unlock()

		var timer *time.Timer
		var fire <-chan time.Time
		if enabled {
			timer = time.NewTimer(max(wait, 0))
			fire = timer.C
		}

		select {
		case <-fire:
			s.execute(ctx)
		case <-s.resetCh:
		case <-s.stopCh:
			stopTimer(timer)
			return
		case <-ctx.Done():
			stopTimer(timer)
			return
		}
		stopTimer(timer)
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func (s *Scheduler) execute(ctx context.Context) {
	s.mu.Lock()
	s.executing = true
	dryRun := s.config.DryRun
	timeout := s.config.RunTimeout
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	runCtx = logging.ContextWithCorrelationID(runCtx, logging.NewCorrelationID())
	exec, err := s.runner.RunOnce(runCtx, dryRun)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.executing = false
	s.lastRun = s.now()
	s.nextRun = s.lastRun.Add(s.config.Interval)
	s.total++
	if err != nil {
		s.failed++
		s.lastErr = err.Error()
		s.logger.Error().Err(err).Time("next_run", s.nextRun).Msg("Scheduled rotation failed")
		return
	}
	s.lastErr = ""
	s.lastID = exec.RotationID
	s.logger.Info().
		Int64("rotation_id", exec.RotationID).
		Strs("applied", exec.Applied).
		Time("next_run", s.nextRun).
		Msg("Scheduled rotation complete")
}
