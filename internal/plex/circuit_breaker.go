// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/rotation"
)

// BreakerSettings tunes the circuit breaker.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32        // concurrent probes while half-open
	Interval    time.Duration // closed-state count reset
	Timeout     time.Duration // open -> half-open delay
	MinRequests uint32        // requests needed before tripping is considered
	FailureRate float64       // trip threshold, 0..1
}

// DefaultBreakerSettings opens after a 60% failure rate over at least 10
// requests and probes again after two minutes.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:        "plex-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		MinRequests: 10,
		FailureRate: 0.6,
	}
}

// CircuitBreakerClient wraps a MediaServer with a circuit breaker.
type CircuitBreakerClient struct {
	next MediaServer
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewCircuitBreakerClient wraps next with the given breaker settings.
func NewCircuitBreakerClient(next MediaServer, s BreakerSettings) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRate
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{next: next, cb: cb, name: s.Name}
}

// State returns the breaker state as "closed", "half-open" or "open".
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

func (cbc *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
			counts := cbc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// SectionByName resolves a section with circuit breaker protection.
// ErrLibraryNotFound is a configuration problem, not a server fault, and is
// not counted against the breaker.
func (cbc *CircuitBreakerClient) SectionByName(ctx context.Context, name string) (*Section, error) {
	var notFound error
	sec, err := castResult[*Section](cbc.execute(func() (any, error) {
		s, err := cbc.next.SectionByName(ctx, name)
		if errors.Is(err, ErrLibraryNotFound) {
			notFound = err
			return (*Section)(nil), nil
		}
		return s, err
	}))
	if notFound != nil {
		return nil, notFound
	}
	return sec, err
}

// Collections lists section collections with circuit breaker protection.
func (cbc *CircuitBreakerClient) Collections(ctx context.Context, sectionKey string) (map[string]Collection, error) {
	return castResult[map[string]Collection](cbc.execute(func() (any, error) {
		return cbc.next.Collections(ctx, sectionKey)
	}))
}

// UpdateVisibility changes collection promotion with circuit breaker protection.
func (cbc *CircuitBreakerClient) UpdateVisibility(ctx context.Context, sectionKey, ratingKey string, vis rotation.Visibility) error {
	_, err := cbc.execute(func() (any, error) {
		return nil, cbc.next.UpdateVisibility(ctx, sectionKey, ratingKey, vis)
	})
	return err
}
