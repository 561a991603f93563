// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"fmt"
)

// Lifecycle is satisfied by *scheduler.Scheduler.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService supervises the rotation scheduler.
type SchedulerService struct {
	scheduler Lifecycle
}

// NewSchedulerService wraps a Start/Stop scheduler.
func NewSchedulerService(s Lifecycle) *SchedulerService {
	return &SchedulerService{scheduler: s}
}

// Serve implements suture.Service. A failed Start is returned at once so
// suture applies its backoff before trying again.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("rotation scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("rotation scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *SchedulerService) String() string {
	return "rotation-scheduler"
}
