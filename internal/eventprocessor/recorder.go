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
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/staynav/internal/database"
	"github.com/tomtom215/staynav/internal/metrics"
)

// EventStore persists recorded events.
type EventStore interface {
	RecordEvent(ctx context.Context, e *database.StoredEvent) error
}

// Recorder consumes every event type and writes it to the event log.
type Recorder struct {
	sub        message.Subscriber
	store      EventStore
	cfg        Config
	eventTypes []string
	logger     zerolog.Logger

	startOnce sync.Once
	started   chan struct{}
}

// NewRecorder creates a recorder for the given event types.
func NewRecorder(sub message.Subscriber, store EventStore, cfg Config, eventTypes []string, logger zerolog.Logger) (*Recorder, error) {
	if sub == nil {
		return nil, errors.New("subscriber required")
	}
	if store == nil {
		return nil, errors.New("event store required")
	}
	if len(eventTypes) == 0 {
		return nil, errors.New("at least one event type required")
	}
	return &Recorder{
		sub:        sub,
		store:      store,
		cfg:        cfg,
		eventTypes: eventTypes,
		logger:     logger.With().Str("component", "event_recorder").Logger(),
		started:    make(chan struct{}),
	}, nil
}

// Started is closed once the first router run has subscribed to all
// topics.
func (r *Recorder) Started() <-chan struct{} {
	return r.started
}

// Run builds a Watermill router and blocks until ctx is cancelled. Each
// call uses a fresh router, so a supervisor may call Run again after a
// failure.
func (r *Recorder) Run(ctx context.Context) error {
	router, err := r.newRouter()
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-router.Running():
			r.startOnce.Do(func() { close(r.started) })
		case <-ctx.Done():
		}
	}()

	r.logger.Info().Strs("event_types", r.eventTypes).Msg("Event recorder starting")
	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event recorder: %w", err)
	}
	return nil
}

func (r *Recorder) newRouter() (*message.Router, error) {
	logger := NewZerologAdapter(r.logger)
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	if r.cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      r.cfg.RetryMaxRetries,
			InitialInterval: r.cfg.RetryInitialInterval,
			MaxInterval:     10 * r.cfg.RetryInitialInterval,
			Multiplier:      2.0,
			Logger:          logger,
		}
		router.AddMiddleware(retry.Middleware)
	}

	for _, et := range r.eventTypes {
		router.AddConsumerHandler("record-"+et, r.cfg.Topic(et), r.sub, r.Handle)
	}
	return router, nil
}

// Handle stores one message. Undecodable messages are acked and dropped;
// store failures are returned so the router retries and nacks.
func (r *Recorder) Handle(msg *message.Message) error {
	ev, err := EventFromMessage(msg)
	if err != nil {
		r.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable event")
		return nil
	}

	err = r.store.RecordEvent(msg.Context(), &database.StoredEvent{
		ID:          ev.ID,
		Type:        ev.Type,
		AggregateID: ev.AggregateID,
		Payload:     ev.Payload,
		OccurredAt:  ev.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("record event %s: %w", ev.ID, err)
	}
	metrics.EventsRecorded.Inc()
	return nil
}
