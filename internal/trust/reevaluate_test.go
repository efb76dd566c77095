// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package trust

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/staynav/internal/models"
)

type mockRecordStore struct {
	mu        sync.Mutex
	records   map[string]models.AggregatedRecord
	pageCalls int
	failOn    string
	pageErr   error
}

func newMockRecordStore(recs ...models.AggregatedRecord) *mockRecordStore {
	m := &mockRecordStore{records: make(map[string]models.AggregatedRecord)}
	for _, r := range recs {
		m.records[r.Fingerprint] = r
	}
	return m
}

func (m *mockRecordStore) ListAggregatedPage(_ context.Context, after string, limit int) ([]models.AggregatedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageCalls++
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		if k > after {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]models.AggregatedRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.records[k])
	}
	return out, nil
}

func (m *mockRecordStore) UpdateTrustState(_ context.Context, fingerprint string, state TrustState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fingerprint == m.failOn {
		return errors.New("write failed")
	}
	rec := m.records[fingerprint]
	rec.TrustScore = state.TrustScore
	rec.IsSuspicious = state.IsSuspicious
	rec.IsHidden = state.IsHidden
	m.records[fingerprint] = rec
	return nil
}

func record(fp string, l models.CanonicalListing) models.AggregatedRecord {
	return models.AggregatedRecord{Fingerprint: fp, Listing: l}
}

func newPagedEvaluator(pageSize int) *Evaluator {
	cfg := DefaultConfig()
	cfg.SourceMultipliers = map[string]float64{"catalog": 1.0}
	cfg.ReevaluatePageSize = pageSize
	return NewEvaluator(cfg, nil, WithClock(func() time.Time { return testNow }))
}

func TestReevaluator_PagesAndUpdates(t *testing.T) {
	t.Parallel()

	var recs []models.AggregatedRecord
	for i := 0; i < 7; i++ {
		recs = append(recs, record(fmt.Sprintf("fp-%02d", i), goodListing()))
	}
	weak := goodListing()
	weak.Photos = nil
	weak.Description = "Tiny"
	weak.Coordinates = nil
	weak.Rating = nil
	weak.ReviewCount = 0
	recs = append(recs, record("fp-99", weak))

	store := newMockRecordStore(recs...)
	stats, err := NewReevaluator(newPagedEvaluator(3), store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Scanned != 8 || stats.Changed != 8 {
		t.Errorf("stats = %+v, want 8 scanned and changed", stats)
	}
	if stats.Hidden != 1 || stats.Suspicious != 1 {
		t.Errorf("stats = %+v, want one hidden suspicious record", stats)
	}
	if store.pageCalls != 3 {
		t.Errorf("page calls = %d, want 3", store.pageCalls)
	}

	got := store.records["fp-99"]
	if !got.IsHidden || !got.IsSuspicious {
		t.Errorf("weak record = %+v, want hidden and suspicious", got)
	}
	if store.records["fp-00"].TrustScore != 1.0 {
		t.Errorf("good record trust = %v, want 1.0", store.records["fp-00"].TrustScore)
	}
}

func TestReevaluator_SkipsUnchanged(t *testing.T) {
	t.Parallel()

	store := newMockRecordStore(record("a", goodListing()), record("b", goodListing()))
	r := NewReevaluator(newPagedEvaluator(10), store)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if stats.Scanned != 2 || stats.Changed != 0 {
		t.Errorf("second pass stats = %+v, want nothing changed", stats)
	}
}

func TestReevaluator_CountsUpdateErrors(t *testing.T) {
	t.Parallel()

	store := newMockRecordStore(record("a", goodListing()), record("b", goodListing()))
	store.failOn = "a"

	stats, err := NewReevaluator(newPagedEvaluator(10), store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Errors != 1 || stats.Changed != 1 {
		t.Errorf("stats = %+v, want one error and one change", stats)
	}
}

func TestReevaluator_PageErrorAborts(t *testing.T) {
	t.Parallel()

	store := newMockRecordStore()
	store.pageErr = errors.New("connection reset")

	if _, err := NewReevaluator(newPagedEvaluator(10), store).Run(context.Background()); err == nil {
		t.Fatal("Run() should fail when a page cannot be read")
	}
}

func TestReevaluator_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newMockRecordStore(record("a", goodListing()))
	if _, err := NewReevaluator(newPagedEvaluator(10), store).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
