// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/staynav/internal/logging"
	"github.com/tomtom215/staynav/internal/metrics"
	"github.com/tomtom215/staynav/internal/models"
)

// BreakerSettings tunes the circuit breaker placed in front of an adapter.
type BreakerSettings struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// DefaultBreakerSettings opens after a 60% failure rate over at least 10
// calls, waits 2 minutes, then lets 3 probe calls through.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerAdapter guards an adapter with a circuit breaker.
// While the circuit is open the adapter reports itself unavailable without
// touching the provider.
type BreakerAdapter struct {
	inner Adapter
	cb    *gobreaker.CircuitBreaker[[]models.RawRecord]
	name  string
}

type breakerPuller struct {
	*BreakerAdapter
	puller UpdatePuller
}

// WithBreaker wraps a in a circuit breaker. The result implements
// UpdatePuller iff a does.
func WithBreaker(a Adapter, s BreakerSettings) Adapter {
	b := NewBreakerAdapter(a, s)
	if p, ok := a.(UpdatePuller); ok {
		return &breakerPuller{BreakerAdapter: b, puller: p}
	}
	return b
}

// NewBreakerAdapter creates the breaker decorator for a.
func NewBreakerAdapter(a Adapter, s BreakerSettings) *BreakerAdapter {
	name := "source-" + a.SourceID()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.RawRecord](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRatio
			if shouldTrip {
				logging.Warn().
					Str("source", a.SourceID()).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
		// A caller giving up is not a provider failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerAdapter{inner: a, cb: cb, name: name}
}

// SourceID implements Adapter.
func (b *BreakerAdapter) SourceID() string { return b.inner.SourceID() }

// TrustLevel implements Adapter.
func (b *BreakerAdapter) TrustLevel() float64 { return b.inner.TrustLevel() }

// IsAvailable reports false while the circuit is open.
func (b *BreakerAdapter) IsAvailable(ctx context.Context) bool {
	if b.cb.State() == gobreaker.StateOpen {
		return false
	}
	return b.inner.IsAvailable(ctx)
}

// Fetch implements Adapter.
func (b *BreakerAdapter) Fetch(ctx context.Context, filter models.ListingFilter) ([]models.RawRecord, error) {
	return b.execute(func() ([]models.RawRecord, error) {
		return b.inner.Fetch(ctx, filter)
	})
}

// State returns the current breaker state.
func (b *BreakerAdapter) State() gobreaker.State {
	return b.cb.State()
}

func (p *breakerPuller) PullUpdates(ctx context.Context, since time.Time) (Pull, error) {
	var pull Pull
	_, err := p.execute(func() ([]models.RawRecord, error) {
		var err error
		pull, err = p.puller.PullUpdates(ctx, since)
		return pull.Records, err
	})
	if err != nil {
		return Pull{}, err
	}
	return pull, nil
}

func (b *BreakerAdapter) execute(fn func() ([]models.RawRecord, error)) ([]models.RawRecord, error) {
	records, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %s: circuit breaker: %w", ErrSourceUnavailable, b.inner.SourceID(), err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return records, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
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
