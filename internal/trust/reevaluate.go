// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package trust

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/staynav/internal/metrics"
	"github.com/tomtom215/staynav/internal/models"
)

// TrustState is the trust-owned part of an aggregated record.
type TrustState struct {
	TrustScore   float64
	IsSuspicious bool
	IsHidden     bool
}

// RecordStore pages through aggregated records and updates their trust state.
// Pages are ordered by fingerprint; after is exclusive.
type RecordStore interface {
	ListAggregatedPage(ctx context.Context, after string, limit int) ([]models.AggregatedRecord, error)
	UpdateTrustState(ctx context.Context, fingerprint string, state TrustState) error
}

// ReevaluationStats summarizes one pass.
type ReevaluationStats struct {
	Scanned    int           `json:"scanned"`
	Changed    int           `json:"changed"`
	Suspicious int           `json:"suspicious"`
	Hidden     int           `json:"hidden"`
	Errors     int           `json:"errors"`
	Duration   time.Duration `json:"duration_ns"`
}

// Reevaluator is the periodic batch pass that sets isSuspicious and
// isHidden on every aggregated record. It is the only writer of isHidden.
type Reevaluator struct {
	evaluator *Evaluator
	store     RecordStore
	pageSize  int
}

// NewReevaluator creates a re-evaluation pass over store.
func NewReevaluator(evaluator *Evaluator, store RecordStore) *Reevaluator {
	pageSize := evaluator.cfg.ReevaluatePageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Reevaluator{evaluator: evaluator, store: store, pageSize: pageSize}
}

// Run re-evaluates every record. A failed update is counted and skipped;
// a failed page read aborts the pass.
func (r *Reevaluator) Run(ctx context.Context) (ReevaluationStats, error) {
	start := time.Now()
	var stats ReevaluationStats
	after := ""

	for {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}

		page, err := r.store.ListAggregatedPage(ctx, after, r.pageSize)
		if err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("list aggregated records after %q: %w", after, err)
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			rec := &page[i]
			stats.Scanned++

			verdict := r.evaluator.EvaluateListing(&rec.Listing)
			hidden, reason := r.evaluator.ShouldSuppressWith(ctx, &rec.Listing, verdict)
			state := TrustState{
				TrustScore:   verdict.TrustScore,
				IsSuspicious: verdict.IsSuspicious,
				IsHidden:     hidden,
			}
			if state.IsSuspicious {
				stats.Suspicious++
			}
			if state.IsHidden {
				stats.Hidden++
			}

			if state.TrustScore == rec.TrustScore && state.IsSuspicious == rec.IsSuspicious && state.IsHidden == rec.IsHidden {
				continue
			}
			if err := r.store.UpdateTrustState(ctx, rec.Fingerprint, state); err != nil {
				stats.Errors++
				r.evaluator.logger.Warn().Err(err).Str("fingerprint", rec.Fingerprint).Msg("Failed to update trust state")
				continue
			}
			stats.Changed++
			if hidden && !rec.IsHidden {
				r.evaluator.logger.Info().Str("fingerprint", rec.Fingerprint).Str("reason", reason).Msg("Aggregated record hidden")
			}
		}

		after = page[len(page)-1].Fingerprint
		if len(page) < r.pageSize {
			break
		}
	}

	stats.Duration = time.Since(start)
	metrics.HiddenRecords.Set(float64(stats.Hidden))
	r.evaluator.logger.Info().
		Int("scanned", stats.Scanned).
		Int("changed", stats.Changed).
		Int("suspicious", stats.Suspicious).
		Int("hidden", stats.Hidden).
		Int("errors", stats.Errors).
		Dur("duration", stats.Duration).
		Msg("Trust re-evaluation complete")
	return stats, nil
}
