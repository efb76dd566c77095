// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/staynav/internal/logging"
	"github.com/tomtom215/staynav/internal/metrics"
)

// Bus publishes domain events. It satisfies the Emitter interfaces of the
// aggregate and navigator packages.
type Bus struct {
	pub     message.Publisher
	cfg     Config
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewBus creates a Bus over a Watermill publisher. A nil publisher or a
// disabled config yields a Bus that drops every event.
func NewBus(pub message.Publisher, cfg Config, logger zerolog.Logger) *Bus {
	return &Bus{
		pub:    pub,
		cfg:    cfg,
		logger: logger.With().Str("component", "event_bus").Logger(),
		now:    time.Now,
	}
}

// SetCircuitBreaker guards publishes with a breaker.
func (b *Bus) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[struct{}]) {
	b.breaker = cb
}

// NewPublishBreaker returns a breaker that opens after five consecutive
// publish failures and probes again after timeout.
func NewPublishBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker[struct{}] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			var v float64
			switch to {
			case gobreaker.StateHalfOpen:
				v = 1
			case gobreaker.StateOpen:
				v = 2
			}
			metrics.CircuitBreakerState.WithLabelValues(name).Set(v)
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Event publish breaker changed state")
		},
	})
}

// Emit builds and publishes an event. Failures are logged and counted.
func (b *Bus) Emit(ctx context.Context, eventType, aggregateID string, payload any) {
	if b == nil || b.pub == nil || !b.cfg.Enabled {
		return
	}
	ev, err := NewDomainEvent(eventType, aggregateID, payload, b.now())
	if err != nil {
		b.logger.Warn().Err(err).Str("event_type", eventType).Msg("Dropping invalid event")
		metrics.RecordEventPublished(b.cfg.Topic(eventType), err)
		return
	}
	if err := b.Publish(ctx, ev); err != nil {
		b.logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("aggregate_id", aggregateID).
			Msg("Failed to publish event")
	}
}

// Publish sends one event and returns the publish error.
func (b *Bus) Publish(ctx context.Context, ev *DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrPublisherClosed
	}

	topic := b.cfg.Topic(ev.Type)
	msg, err := ev.ToMessage()
	if err != nil {
		metrics.RecordEventPublished(topic, err)
		return err
	}
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}

	timeout := b.cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	msg.SetContext(pubCtx)

	publish := func() (struct{}, error) {
		return struct{}{}, b.pub.Publish(topic, msg)
	}
	if b.breaker != nil {
		_, err = b.breaker.Execute(publish)
	} else {
		_, err = publish()
	}
	metrics.RecordEventPublished(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close stops further publishes. It does not close the publisher, which
// belongs to the PubSub that created it.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// IsBreakerOpen reports whether the publish breaker rejects calls.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
