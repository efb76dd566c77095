// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package services

import (
	"context"
	"time"

	"github.com/tomtom215/staynav/internal/logging"
)

// ValueLogCollector is satisfied by *checkpoint.Store.
type ValueLogCollector interface {
	RunGC(discardRatio float64) error
}

// CheckpointGCService periodically reclaims checkpoint value log space.
type CheckpointGCService struct {
	store        ValueLogCollector
	interval     time.Duration
	discardRatio float64
}

// NewCheckpointGCService creates the service. Defaults: 1h, ratio 0.5.
func NewCheckpointGCService(store ValueLogCollector, interval time.Duration, discardRatio float64) *CheckpointGCService {
	if interval <= 0 {
		interval = time.Hour
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &CheckpointGCService{store: store, interval: interval, discardRatio: discardRatio}
}

// Serve implements suture.Service.
func (c *CheckpointGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.store.RunGC(c.discardRatio); err != nil {
				logging.Warn().Err(err).Msg("Checkpoint value log GC failed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (c *CheckpointGCService) String() string {
	return "checkpoint-gc"
}
