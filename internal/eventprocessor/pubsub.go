// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package eventprocessor

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// Transport names.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// ErrNATSUnavailable is returned by Open when the configuration asks for
// NATS in a build without the nats tag.
var ErrNATSUnavailable = errors.New("NATS transport not available: build with -tags=nats")

// PubSub is a publisher and subscriber pair on one transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Transport  string

	closers []func() error
}

// Open creates the transport selected by cfg.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*PubSub, error) {
	adapter := NewZerologAdapter(logger.With().Str("component", "watermill").Logger())
	if cfg.UsesNATS() {
		return openNATS(ctx, cfg, adapter)
	}
	return NewGoChannelPubSub(adapter), nil
}

// NewGoChannelPubSub returns an in-process pub/sub. Messages published
// while nobody subscribes to the topic are dropped.
func NewGoChannelPubSub(logger watermill.LoggerAdapter) *PubSub {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
	return &PubSub{
		Publisher:  ch,
		Subscriber: ch,
		Transport:  TransportGoChannel,
		closers:    []func() error{ch.Close},
	}
}

// Close releases the transport in reverse order of creation.
func (p *PubSub) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}
