// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package navigator

import (
	"fmt"
	"time"
)

// Candidate retrieval modes.
const (
	ModeCatalog   = "catalog"
	ModeAggregate = "aggregate"
)

// Config controls a navigator run.
type Config struct {
	Mode           string        `koanf:"mode"`
	Alternatives   int           `koanf:"alternatives"`
	CandidateLimit int           `koanf:"candidate_limit"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	HistoryLimit   int           `koanf:"history_limit"`
}

// DefaultConfig returns the navigator defaults.
func DefaultConfig() Config {
	return Config{
		Mode:           ModeCatalog,
		Alternatives:   2,
		CandidateLimit: 200,
		RequestTimeout: 20 * time.Second,
		HistoryLimit:   50,
	}
}

// Validate checks the navigator section.
func (c *Config) Validate() error {
	if c.Mode != ModeCatalog && c.Mode != ModeAggregate {
		return fmt.Errorf("navigator.mode must be %q or %q, got %q", ModeCatalog, ModeAggregate, c.Mode)
	}
	if c.Alternatives < 0 {
		return fmt.Errorf("navigator.alternatives must not be negative, got %d", c.Alternatives)
	}
	if c.CandidateLimit < 1 {
		return fmt.Errorf("navigator.candidate_limit must be at least 1, got %d", c.CandidateLimit)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("navigator.request_timeout must be positive, got %v", c.RequestTimeout)
	}
	return nil
}
