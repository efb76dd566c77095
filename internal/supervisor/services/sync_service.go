// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package services

import (
	"context"
	"time"

	"github.com/tomtom215/staynav/internal/aggregate"
	"github.com/tomtom215/staynav/internal/logging"
	"github.com/tomtom215/staynav/internal/metrics"
	"github.com/tomtom215/staynav/internal/trust"
)

// SourceSyncer is satisfied by *aggregate.Engine.
type SourceSyncer interface {
	SyncSources(ctx context.Context) aggregate.RunStats
}

// TrustReevaluator is satisfied by *trust.Reevaluator.
type TrustReevaluator interface {
	Run(ctx context.Context) (trust.ReevaluationStats, error)
}

// SyncLoopService pulls every incremental source on a fixed interval and,
// when a reevaluator is set, re-evaluates stored trust after each sync.
type SyncLoopService struct {
	syncer      SourceSyncer
	reevaluator TrustReevaluator
	interval    time.Duration
	runOnStart  bool
}

// NewSyncLoopService creates the loop. reevaluator may be nil.
func NewSyncLoopService(syncer SourceSyncer, reevaluator TrustReevaluator, interval time.Duration, runOnStart bool) *SyncLoopService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SyncLoopService{
		syncer:      syncer,
		reevaluator: reevaluator,
		interval:    interval,
		runOnStart:  runOnStart,
	}
}

// Serve implements suture.Service. A failed pass is logged and retried on
// the next tick; it never restarts the service.
func (s *SyncLoopService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.runOnStart {
		s.runOnce(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SyncLoopService) runOnce(ctx context.Context) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)

	stats := s.syncer.SyncSources(ctx)
	failed := 0
	for _, src := range stats.Sources {
		if src.Error != "" {
			failed++
		}
	}
	if failed == 0 {
		metrics.SyncLastSuccess.SetToCurrentTime()
	}
	log.Info().
		Int("raw_records", stats.RawRecords).
		Int("inserted", stats.Inserted).
		Int("updated", stats.Updated).
		Int("failed_sources", failed).
		Dur("duration", stats.Duration).
		Msg("Scheduled sync finished")

	if s.reevaluator == nil || ctx.Err() != nil {
		return
	}
	rs, err := s.reevaluator.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Trust re-evaluation failed")
		return
	}
	log.Info().
		Int("scanned", rs.Scanned).
		Int("changed", rs.Changed).
		Int("hidden", rs.Hidden).
		Msg("Trust re-evaluation finished")
}

// String names the service in supervisor logs.
func (s *SyncLoopService) String() string {
	return "source-sync"
}
