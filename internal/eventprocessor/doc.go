// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package eventprocessor publishes and records domain events.
//
// # Overview
//
// The aggregation engine and the navigator emit events such as
// "listing.upserted" or "recommendation.created" through a Bus. The Bus
// wraps each event in a Watermill message and publishes it on the topic
// "<subject prefix>.<event type>". Publishing is best-effort: a failure is
// logged and counted, never returned to the operation that emitted it.
//
// # Transports
//
// Open selects the transport from Config:
//
//   - In-process Watermill GoChannel (default, and always in builds
//     without the nats tag).
//   - NATS JetStream through watermill-nats when NATSURL is set or
//     EmbeddedServer is true. This requires building with -tags=nats.
//     EmbeddedServer starts nats-server inside the process.
//
// # Recording
//
// Recorder subscribes to every event type through a Watermill Router and
// stores each message in the domain_events table. Event ids double as
// message UUIDs and Nats-Msg-Id headers, so redelivery is idempotent both
// in JetStream and in the table.
package eventprocessor
