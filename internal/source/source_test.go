// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/staynav/internal/models"
)

// mockAdapter is a configurable Adapter for tests.
type mockAdapter struct {
	mu        sync.Mutex
	id        string
	trust     float64
	records   []models.RawRecord
	err       error
	available bool
	calls     int
}

func (m *mockAdapter) SourceID() string   { return m.id }
func (m *mockAdapter) TrustLevel() float64 { return m.trust }

func (m *mockAdapter) IsAvailable(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

func (m *mockAdapter) Fetch(context.Context, models.ListingFilter) ([]models.RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.records, m.err
}

type mockPuller struct {
	mockAdapter
	since time.Time
}

func (m *mockPuller) PullUpdates(_ context.Context, since time.Time) (Pull, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.since = since
	if m.err != nil {
		return Pull{}, m.err
	}
	return Pull{Records: m.records, Complete: true}, nil
}

func TestNewRegistry_OrdersByTrust(t *testing.T) {
	t.Parallel()

	low := &mockAdapter{id: "feed-b", trust: 0.7}
	mid := &mockAdapter{id: "feed-a", trust: 0.8}
	first := &mockAdapter{id: "catalog", trust: 1.0}
	tie := &mockAdapter{id: "feed-c", trust: 0.7}

	reg, err := NewRegistry(low, mid, first, tie)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	want := []string{"catalog", "feed-a", "feed-b", "feed-c"}
	got := reg.IDs()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs() = %v, want %v", got, want)
		}
	}

	if tl, ok := reg.TrustLevel("feed-a"); !ok || tl != 0.8 {
		t.Errorf("TrustLevel(feed-a) = (%v, %v), want (0.8, true)", tl, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestNewRegistry_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		adapters []Adapter
	}{
		{"duplicate id", []Adapter{&mockAdapter{id: "a", trust: 1}, &mockAdapter{id: "a", trust: 0.5}}},
		{"empty id", []Adapter{&mockAdapter{trust: 1}}},
		{"trust above one", []Adapter{&mockAdapter{id: "a", trust: 1.2}}},
		{"negative trust", []Adapter{&mockAdapter{id: "a", trust: -0.1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewRegistry(tt.adapters...); err == nil {
				t.Error("NewRegistry() should fail")
			}
		})
	}
}

func TestRegistry_AdaptersIsCopy(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(&mockAdapter{id: "a", trust: 1})
	if err != nil {
		t.Fatal(err)
	}
	list := reg.Adapters()
	list[0] = &mockAdapter{id: "mutated", trust: 0}
	if reg.IDs()[0] != "a" {
		t.Error("mutating Adapters() result changed the registry")
	}
}

func TestRegistry_Pullers(t *testing.T) {
	t.Parallel()

	plain := &mockAdapter{id: "plain", trust: 0.9}
	puller := &mockPuller{mockAdapter: mockAdapter{id: "pull", trust: 0.8}}

	reg, err := NewRegistry(plain, WithBreaker(puller, DefaultBreakerSettings()))
	if err != nil {
		t.Fatal(err)
	}
	pullers := reg.Pullers()
	if len(pullers) != 1 || pullers[0].SourceID() != "pull" {
		t.Fatalf("Pullers() = %v, want only pull", pullers)
	}
}

func TestWithBreaker_KeepsPullCapability(t *testing.T) {
	t.Parallel()

	if _, ok := WithBreaker(&mockAdapter{id: "a"}, DefaultBreakerSettings()).(UpdatePuller); ok {
		t.Error("plain adapter should not become an UpdatePuller")
	}

	p := &mockPuller{mockAdapter: mockAdapter{id: "p", records: []models.RawRecord{{Source: "p", ExternalID: "1"}}}}
	wrapped, ok := WithBreaker(p, DefaultBreakerSettings()).(UpdatePuller)
	if !ok {
		t.Fatal("puller should stay an UpdatePuller")
	}
	since := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	pull, err := wrapped.PullUpdates(context.Background(), since)
	if err != nil || len(pull.Records) != 1 || !pull.Complete {
		t.Fatalf("PullUpdates() = (%+v, %v)", pull, err)
	}
	if !p.since.Equal(since) {
		t.Errorf("since = %v, want %v", p.since, since)
	}
}

func TestBreakerAdapter_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	inner := &mockAdapter{id: "flaky", trust: 0.7, err: errors.New("upstream 500"), available: true}
	settings := DefaultBreakerSettings()
	settings.Timeout = time.Hour
	b := NewBreakerAdapter(inner, settings)

	for i := 0; i < 10; i++ {
		if _, err := b.Fetch(context.Background(), models.ListingFilter{}); err == nil {
			t.Fatal("expected failure")
		}
	}

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}
	if b.IsAvailable(context.Background()) {
		t.Error("IsAvailable() should be false while open")
	}

	_, err := b.Fetch(context.Background(), models.ListingFilter{})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrSourceUnavailable", err)
	}
	if inner.calls != 10 {
		t.Errorf("inner calls = %d, want 10 (open circuit must not call through)", inner.calls)
	}
}

func TestBreakerAdapter_CanceledIsNotFailure(t *testing.T) {
	t.Parallel()

	inner := &mockAdapter{id: "slow", err: context.Canceled}
	b := NewBreakerAdapter(inner, DefaultBreakerSettings())
	for i := 0; i < 20; i++ {
		_, _ = b.Fetch(context.Background(), models.ListingFilter{})
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", b.State())
	}
}

func TestWithRateLimit(t *testing.T) {
	t.Parallel()

	inner := &mockPuller{mockAdapter: mockAdapter{id: "r", trust: 0.5}}
	if got := WithRateLimit(inner, 0, 1); got != Adapter(inner) {
		t.Error("non-positive rate should return the adapter unchanged")
	}

	limited := WithRateLimit(inner, 0.001, 1)
	if _, ok := limited.(UpdatePuller); !ok {
		t.Fatal("rate limited puller should stay an UpdatePuller")
	}

	if _, err := limited.Fetch(context.Background(), models.ListingFilter{}); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := limited.Fetch(ctx, models.ListingFilter{}); err == nil {
		t.Error("second call should fail waiting for a token")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestPull_Checkpoint(t *testing.T) {
	t.Parallel()

	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	started := since.Add(24 * time.Hour)
	through := since.Add(time.Hour)

	tests := []struct {
		name   string
		pull   Pull
		want   time.Time
		wantOK bool
	}{
		{"complete moves to start", Pull{Complete: true, Through: through}, started, true},
		{"incomplete moves to through", Pull{Through: through}, through, true},
		{"incomplete without through stays", Pull{}, time.Time{}, false},
		{"through not past since stays", Pull{Through: since}, time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.pull.Checkpoint(since, started)
			if ok != tt.wantOK || !got.Equal(tt.want) {
				t.Errorf("Checkpoint() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
