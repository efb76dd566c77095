// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package eventprocessor

import (
	"errors"
	"strings"
	"time"
)

// Config configures the event transport and the recorder.
type Config struct {
	// Enabled turns event publishing on. A disabled Bus drops events.
	Enabled bool

	// NATSURL selects JetStream on an external server.
	NATSURL string

	// EmbeddedServer starts nats-server in-process. It wins over NATSURL.
	EmbeddedServer bool

	// StoreDir is the JetStream directory of the embedded server.
	StoreDir string

	StreamName    string
	SubjectPrefix string

	// StreamMaxAge bounds JetStream retention.
	StreamMaxAge time.Duration

	// PublishTimeout bounds a single publish.
	PublishTimeout time.Duration

	// Recorder retry policy.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
}

// DefaultConfig returns the in-process configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		StoreDir:             "/data/nats",
		StreamName:           "STAYNAV_EVENTS",
		SubjectPrefix:        "staynav",
		StreamMaxAge:         7 * 24 * time.Hour,
		PublishTimeout:       5 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 200 * time.Millisecond,
	}
}

// UsesNATS reports whether the configuration asks for JetStream.
func (c Config) UsesNATS() bool {
	return c.EmbeddedServer || c.NATSURL != ""
}

// Topic returns the topic (NATS subject) of an event type.
func (c Config) Topic(eventType string) string {
	return c.SubjectPrefix + "." + eventType
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.SubjectPrefix == "" || strings.ContainsAny(c.SubjectPrefix, " *>") {
		errs = append(errs, errors.New("events.subject_prefix must be a plain subject token"))
	}
	if c.UsesNATS() && c.StreamName == "" {
		errs = append(errs, errors.New("events.stream_name is required with NATS"))
	}
	if c.PublishTimeout <= 0 {
		errs = append(errs, errors.New("events.publish_timeout must be positive"))
	}
	if c.RetryMaxRetries < 0 {
		errs = append(errs, errors.New("events.retry_max_retries must not be negative"))
	}
	return errors.Join(errs...)
}
