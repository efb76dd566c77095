// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package aggregate

import (
	"fmt"
	"time"
)

// Config controls fan-out timing and the scheduled sync.
type Config struct {
	SourceTimeout    time.Duration `koanf:"source_timeout"`
	Deadline         time.Duration `koanf:"deadline"`
	UpsertWorkers    int           `koanf:"upsert_workers"`
	SyncInterval     time.Duration `koanf:"sync_interval"`
	CheckpointDir    string        `koanf:"checkpoint_dir"`
	ReevaluateOnSync bool          `koanf:"reevaluate_on_sync"`
}

// DefaultConfig returns the aggregation defaults.
func DefaultConfig() Config {
	return Config{
		SourceTimeout:    8 * time.Second,
		Deadline:         15 * time.Second,
		UpsertWorkers:    4,
		SyncInterval:     15 * time.Minute,
		CheckpointDir:    "/data/checkpoints",
		ReevaluateOnSync: true,
	}
}

// Validate checks the aggregation section.
func (c *Config) Validate() error {
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("aggregation.source_timeout must be positive, got %v", c.SourceTimeout)
	}
	if c.Deadline < c.SourceTimeout {
		return fmt.Errorf("aggregation.deadline (%v) must not be shorter than aggregation.source_timeout (%v)", c.Deadline, c.SourceTimeout)
	}
	if c.UpsertWorkers < 1 {
		return fmt.Errorf("aggregation.upsert_workers must be at least 1, got %d", c.UpsertWorkers)
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("aggregation.sync_interval must not be negative, got %v", c.SyncInterval)
	}
	return nil
}
