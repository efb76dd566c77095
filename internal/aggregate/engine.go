// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package aggregate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/staynav/internal/metrics"
	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/normalize"
	"github.com/tomtom215/staynav/internal/source"
	"github.com/tomtom215/staynav/internal/trust"
)

// EventListingUpserted is emitted after every successful upsert.
const EventListingUpserted = "listing.upserted"

// Store persists aggregated records keyed by fingerprint. An existing record
// keeps its id, creation time and trust flags; payload, trust score and last
// source update are overwritten.
type Store interface {
	UpsertAggregated(ctx context.Context, rec *models.AggregatedRecord) (inserted bool, err error)
}

// CheckpointStore keeps the last successful sync time per source.
// A missing checkpoint is the zero time.
type CheckpointStore interface {
	Get(sourceID string) (time.Time, error)
	Set(sourceID string, at time.Time) error
}

// Emitter publishes domain events. Publishing is best-effort.
type Emitter interface {
	Emit(ctx context.Context, eventType, aggregateID string, payload any)
}

// Source fetch outcomes.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
	StatusFailed      = "failed"
	StatusTimeout     = "timeout"
)

// SourceReport is the outcome of one adapter call.
type SourceReport struct {
	SourceID string        `json:"source_id"`
	Status   string        `json:"status"`
	Records  int           `json:"records"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	// Partial marks a sync pull that stopped before the source ran out of changes.
	Partial  bool          `json:"partial,omitempty"`
}

// RunStats summarizes an aggregate or sync run.
type RunStats struct {
	Sources               []SourceReport `json:"sources"`
	RawRecords            int            `json:"raw_records"`
	Normalized            int            `json:"normalized"`
	NormalizationFailures int            `json:"normalization_failures"`
	Duplicates            int            `json:"duplicates"`
	Inserted              int            `json:"inserted"`
	Updated               int            `json:"updated"`
	UpsertErrors          int            `json:"upsert_errors"`
	Duration              time.Duration  `json:"duration_ns"`
}

// Result is the deduplicated candidate set of an aggregation run.
type Result struct {
	Listings []models.CanonicalListing `json:"listings"`
	Stats    RunStats                  `json:"stats"`
}

// Engine merges listings from every registered source into aggregated records.
// The registry is fixed at construction.
type Engine struct {
	cfg         Config
	registry    *source.Registry
	normalizer  *normalize.Normalizer
	evaluator   *trust.Evaluator
	store       Store
	checkpoints CheckpointStore
	events      Emitter
	locks       *keyLock
	logger      zerolog.Logger
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCheckpoints enables incremental sync.
func WithCheckpoints(c CheckpointStore) Option {
	return func(e *Engine) { e.checkpoints = c }
}

// WithEmitter publishes listing events.
func WithEmitter(em Emitter) Option {
	return func(e *Engine) { e.events = em }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l.With().Str("component", "aggregate").Logger() }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an aggregation engine.
func NewEngine(cfg Config, registry *source.Registry, normalizer *normalize.Normalizer, evaluator *trust.Evaluator, store Store, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		registry:   registry,
		normalizer: normalizer,
		evaluator:  evaluator,
		store:      store,
		locks:      newKeyLock(),
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.UpsertWorkers < 1 {
		e.cfg.UpsertWorkers = 1
	}
	return e
}

// Aggregate queries every available source, normalizes, deduplicates by
// fingerprint and upserts the survivors. Failing sources and records are
// absorbed; the run never fails as a whole.
func (e *Engine) Aggregate(ctx context.Context, filter models.ListingFilter) Result {
	start := time.Now()
	var stats RunStats

	batches, reports := e.fanOut(ctx, e.registry.Adapters(), "fetch", func(ctx context.Context, a source.Adapter) ([]models.RawRecord, error) {
		return a.Fetch(ctx, filter)
	})
	stats.Sources = reports

	var raws []models.RawRecord
	for _, b := range batches {
		raws = append(raws, b...)
	}
	listings := e.normalizeAndEvaluate(raws, &stats)

	survivors, fingerprints := e.dedup(listings, &stats)
	e.upsertAll(ctx, survivors, fingerprints, &stats)

	stats.Duration = time.Since(start)
	metrics.RecordAggregationRun("aggregate", stats.Duration)
	e.logRun("Aggregation complete", stats)
	return Result{Listings: survivors, Stats: stats}
}

// SyncSources pulls changes since the last checkpoint from every adapter that
// supports it and upserts them. There is no in-batch dedup; the per-fingerprint
// upsert still applies. A checkpoint only advances after a successful pull, and
// only as far as the pull says every change was returned.
func (e *Engine) SyncSources(ctx context.Context) RunStats {
	start := time.Now()
	var stats RunStats
	syncStarted := e.now()

	var (
		mu    sync.Mutex
		marks = make(map[string]pullMark)
	)
	batches, reports := e.fanOut(ctx, e.registry.Pullers(), "pull", func(ctx context.Context, a source.Adapter) ([]models.RawRecord, error) {
		since := e.checkpoint(a.SourceID())
		pull, err := a.(source.UpdatePuller).PullUpdates(ctx, since)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		marks[a.SourceID()] = pullMark{since: since, pull: pull}
		mu.Unlock()
		return pull.Records, nil
	})

	for i, raws := range batches {
		if reports[i].Status != StatusOK {
			continue
		}
		id := reports[i].SourceID
		listings := e.normalizeAndEvaluate(raws, &stats)
		fps := make([]string, len(listings))
		for j := range listings {
			fps[j] = Fingerprint(&listings[j])
		}
		e.upsertAll(ctx, listings, fps, &stats)

		mu.Lock()
		mark := marks[id]
		mu.Unlock()
		reports[i].Partial = !mark.pull.Complete
		at, ok := mark.pull.Checkpoint(mark.since, syncStarted)
		if !ok {
			e.logger.Warn().Str("source", id).Msg("Incomplete pull without a resume point, checkpoint kept")
			continue
		}
		if e.checkpoints != nil {
			if err := e.checkpoints.Set(id, at); err != nil {
				e.logger.Warn().Err(err).Str("source", id).Msg("Failed to store sync checkpoint")
			}
		}
	}
	stats.Sources = reports

	stats.Duration = time.Since(start)
	metrics.RecordAggregationRun("sync", stats.Duration)
	e.logRun("Source sync complete", stats)
	return stats
}

type pullMark struct {
	since time.Time
	pull  source.Pull
}

func (e *Engine) checkpoint(sourceID string) time.Time {
	if e.checkpoints == nil {
		return time.Time{}
	}
	at, err := e.checkpoints.Get(sourceID)
	if err != nil {
		e.logger.Warn().Err(err).Str("source", sourceID).Msg("Failed to read sync checkpoint, pulling everything")
		return time.Time{}
	}
	return at
}

type fetchFunc func(ctx context.Context, a source.Adapter) ([]models.RawRecord, error)

type fetchOutcome struct {
	idx     int
	records []models.RawRecord
	report  SourceReport
}

// fanOut calls every adapter concurrently, each under its own timeout, and the
// whole set under the overall deadline. Adapters that have not answered by the
// deadline are reported as timed out. Output slices follow adapter order.
func (e *Engine) fanOut(ctx context.Context, adapters []source.Adapter, mode string, call fetchFunc) ([][]models.RawRecord, []SourceReport) {
	dctx, cancel := context.WithTimeout(ctx, e.cfg.Deadline)
	defer cancel()

	batches := make([][]models.RawRecord, len(adapters))
	reports := make([]SourceReport, len(adapters))
	done := make([]bool, len(adapters))
	for i, a := range adapters {
		reports[i] = SourceReport{SourceID: a.SourceID(), Status: StatusTimeout}
	}

	out := make(chan fetchOutcome, len(adapters))
	for i, a := range adapters {
		go func(idx int, a source.Adapter) {
			out <- e.callSource(dctx, idx, a, mode, call)
		}(i, a)
	}

	for received := 0; received < len(adapters); {
		select {
		case o := <-out:
			batches[o.idx] = o.records
			reports[o.idx] = o.report
			done[o.idx] = true
			received++
		case <-dctx.Done():
			for i := range adapters {
				if !done[i] {
					metrics.SourceErrors.WithLabelValues(reports[i].SourceID, "timeout").Inc()
					e.logger.Warn().Str("source", reports[i].SourceID).Msg("Source missed aggregation deadline, continuing without it")
				}
			}
			return batches, reports
		}
	}
	return batches, reports
}

func (e *Engine) callSource(ctx context.Context, idx int, a source.Adapter, mode string, call fetchFunc) fetchOutcome {
	id := a.SourceID()
	sctx, cancel := context.WithTimeout(ctx, e.cfg.SourceTimeout)
	defer cancel()

	start := time.Now()
	report := SourceReport{SourceID: id}
	if !a.IsAvailable(sctx) {
		report.Status = StatusUnavailable
		report.Duration = time.Since(start)
		metrics.RecordSourceUnavailable(id)
		e.logger.Warn().Str("source", id).Msg("Source unavailable, skipping")
		return fetchOutcome{idx: idx, report: report}
	}

	records, err := call(sctx, a)
	report.Duration = time.Since(start)
	metrics.RecordSourceFetch(id, mode, report.Duration, len(records), err)
	if err != nil {
		report.Status = StatusFailed
		if errors.Is(err, context.DeadlineExceeded) {
			report.Status = StatusTimeout
		}
		report.Error = err.Error()
		e.logger.Warn().Err(err).Str("source", id).Str("mode", mode).Msg("Source fetch failed, treating as empty")
		return fetchOutcome{idx: idx, report: report}
	}

	report.Status = StatusOK
	report.Records = len(records)
	return fetchOutcome{idx: idx, records: records, report: report}
}

// normalizeAndEvaluate keeps normalization successes and sets their trust score.
func (e *Engine) normalizeAndEvaluate(raws []models.RawRecord, stats *RunStats) []models.CanonicalListing {
	stats.RawRecords += len(raws)
	listings, failures := e.normalizer.NormalizeBatch(raws)
	for _, f := range failures {
		e.logger.Warn().Err(f.Err).
			Str("source", f.Source).
			Str("external_id", f.ExternalID).
			Str("kind", f.Kind()).
			Msg("Dropping record that failed normalization")
	}
	stats.Normalized += len(listings)
	stats.NormalizationFailures += len(failures)

	for i := range listings {
		listings[i].TrustScore = e.evaluator.EvaluateListing(&listings[i]).TrustScore
	}
	return listings
}

// dedup keeps one listing per fingerprint: the higher trust score wins and
// ties keep the first seen. Survivors stay in first-seen order.
func (e *Engine) dedup(listings []models.CanonicalListing, stats *RunStats) ([]models.CanonicalListing, []string) {
	index := make(map[string]int, len(listings))
	survivors := make([]models.CanonicalListing, 0, len(listings))
	fps := make([]string, 0, len(listings))

	for i := range listings {
		fp := Fingerprint(&listings[i])
		if at, seen := index[fp]; seen {
			stats.Duplicates++
			metrics.DedupCollisions.Inc()
			if listings[i].TrustScore > survivors[at].TrustScore {
				survivors[at] = listings[i]
			}
			continue
		}
		index[fp] = len(survivors)
		survivors = append(survivors, listings[i])
		fps = append(fps, fp)
	}
	return survivors, fps
}

func (e *Engine) upsertAll(ctx context.Context, listings []models.CanonicalListing, fps []string, stats *RunStats) {
	var inserted, updated, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(e.cfg.UpsertWorkers)
	for i := range listings {
		l := &listings[i]
		fp := fps[i]
		g.Go(func() error {
			ins, err := e.upsert(ctx, l, fp)
			switch {
			case err != nil:
				failed.Add(1)
			case ins:
				inserted.Add(1)
			default:
				updated.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Inserted += int(inserted.Load())
	stats.Updated += int(updated.Load())
	stats.UpsertErrors += int(failed.Load())
}

func (e *Engine) upsert(ctx context.Context, l *models.CanonicalListing, fp string) (bool, error) {
	unlock := e.locks.Lock(fp)
	defer unlock()

	rec := &models.AggregatedRecord{
		Fingerprint:      fp,
		Source:           l.Source,
		ExternalID:       l.ExternalID,
		Listing:          *l,
		TrustScore:       l.TrustScore,
		LastSourceUpdate: l.SourceUpdatedAt,
	}
	inserted, err := e.store.UpsertAggregated(ctx, rec)
	metrics.RecordUpsert(inserted, err)
	if err != nil {
		e.logger.Warn().Err(err).Str("fingerprint", fp).Str("source", l.Source).Msg("Failed to upsert aggregated record")
		return false, err
	}
	if e.events != nil {
		e.events.Emit(ctx, EventListingUpserted, fp, map[string]any{
			"fingerprint": fp,
			"listing_id":  l.ID,
			"source":      l.Source,
			"trust_score": l.TrustScore,
			"inserted":    inserted,
		})
	}
	return inserted, nil
}

func (e *Engine) logRun(msg string, stats RunStats) {
	failed := 0
	for _, r := range stats.Sources {
		if r.Status != StatusOK {
			failed++
		}
	}
	e.logger.Info().
		Int("sources", len(stats.Sources)).
		Int("sources_degraded", failed).
		Int("raw_records", stats.RawRecords).
		Int("normalized", stats.Normalized).
		Int("normalization_failures", stats.NormalizationFailures).
		Int("duplicates", stats.Duplicates).
		Int("inserted", stats.Inserted).
		Int("updated", stats.Updated).
		Int("upsert_errors", stats.UpsertErrors).
		Dur("duration", stats.Duration).
		Msg(msg)
}
