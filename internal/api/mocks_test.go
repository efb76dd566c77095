// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/staynav/internal/aggregate"
	"github.com/tomtom215/staynav/internal/auth"
	"github.com/tomtom215/staynav/internal/database"
	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/navigator"
	"github.com/tomtom215/staynav/internal/trust"
)

// mockNavigator is an in-memory Navigator.
type mockNavigator struct {
	mu          sync.Mutex
	lastUserID  string
	recommendFn func(models.SearchIntent) (*navigator.Outcome, error)
	recs        map[string]*models.Recommendation
	profiles    map[string]*models.UserPreferenceProfile
	history     map[string][]models.PreferenceSnapshot
}

func newMockNavigator() *mockNavigator {
	return &mockNavigator{
		recs:     map[string]*models.Recommendation{},
		profiles: map[string]*models.UserPreferenceProfile{},
		history:  map[string][]models.PreferenceSnapshot{},
	}
}

func (m *mockNavigator) Recommend(_ context.Context, userID string, intent models.SearchIntent) (*navigator.Outcome, error) {
	m.mu.Lock()
	m.lastUserID = userID
	fn := m.recommendFn
	m.mu.Unlock()
	if fn != nil {
		return fn(intent)
	}
	return &navigator.Outcome{
		SessionID:        "sess-1",
		Status:           models.SessionMatched,
		RecommendationID: "rec-1",
		BestMatch:        &navigator.Match{Listing: models.CanonicalListing{ID: "l-1"}, Score: 0.9},
		Alternatives:     []navigator.Match{{Listing: models.CanonicalListing{ID: "l-2"}, Score: 0.8}},
		CandidateCount:   2,
	}, nil
}

func (m *mockNavigator) GetRecommendation(_ context.Context, id string) (*models.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", navigator.ErrRecommendationNotFound, id)
	}
	return rec, nil
}

func (m *mockNavigator) SubmitFeedback(_ context.Context, id string, fb models.Feedback) error {
	if fb != models.FeedbackLiked && fb != models.FeedbackDisliked {
		return fmt.Errorf("%w: got %q", navigator.ErrInvalidFeedback, fb)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return fmt.Errorf("%w: %s", navigator.ErrRecommendationNotFound, id)
	}
	rec.Feedback = fb
	return nil
}

func (m *mockNavigator) GetPreferences(_ context.Context, userID string) (*models.UserPreferenceProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", navigator.ErrProfileNotFound, userID)
	}
	return p, nil
}

func (m *mockNavigator) SavePreferences(_ context.Context, p *models.UserPreferenceProfile) (*models.UserPreferenceProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.profiles[p.UserID]; ok {
		m.history[p.UserID] = append([]models.PreferenceSnapshot{prev.Snapshot(prev.UpdatedAt)}, m.history[p.UserID]...)
	}
	p.UpdatedAt = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	m.profiles[p.UserID] = p
	return p, nil
}

func (m *mockNavigator) PreferenceHistory(_ context.Context, userID string) ([]models.PreferenceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[userID], nil
}

// mockAggregator counts runs.
type mockAggregator struct {
	mu         sync.Mutex
	aggregates int
	syncs      int
	lastFilter models.ListingFilter
}

func (m *mockAggregator) Aggregate(_ context.Context, filter models.ListingFilter) aggregate.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregates++
	m.lastFilter = filter
	return aggregate.Result{
		Listings: []models.CanonicalListing{{ID: "l-1"}},
		Stats:    aggregate.RunStats{RawRecords: 1, Normalized: 1, Inserted: 1},
	}
}

func (m *mockAggregator) SyncSources(context.Context) aggregate.RunStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs++
	return aggregate.RunStats{RawRecords: 3, Updated: 3}
}

type mockReevaluator struct {
	err error
}

func (m *mockReevaluator) Run(context.Context) (trust.ReevaluationStats, error) {
	if m.err != nil {
		return trust.ReevaluationStats{}, m.err
	}
	return trust.ReevaluationStats{Scanned: 10, Changed: 2, Hidden: 1}, nil
}

// mockEvaluator flags listings without a title.
type mockEvaluator struct{}

func (mockEvaluator) EvaluateListing(l *models.CanonicalListing) trust.ListingVerdict {
	if l.Title == "" {
		return trust.ListingVerdict{TrustScore: 0.2, IsSuspicious: true, Flags: []string{"no_title"}}
	}
	return trust.ListingVerdict{TrustScore: 0.9}
}

func (mockEvaluator) ShouldSuppressWith(_ context.Context, _ *models.CanonicalListing, v trust.ListingVerdict) (bool, string) {
	if v.IsSuspicious {
		return true, "low_quality"
	}
	return false, ""
}

type mockListings struct {
	mu        sync.Mutex
	lastQuery database.AggregatedQuery
	records   []models.AggregatedRecord
	err       error
}

func (m *mockListings) ListVisibleAggregated(_ context.Context, q database.AggregatedQuery) ([]models.AggregatedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	return m.records, m.err
}

func (m *mockListings) CountAggregated(context.Context) (int, int, int, error) {
	return len(m.records) + 1, 1, 1, nil
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

// headerAuth authenticates from X-Test-User and X-Test-Roles.
type headerAuth struct{}

func (headerAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get("X-Test-User")
		if user == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		p := &auth.Principal{UserID: user, Roles: strings.Split(r.Header.Get("X-Test-Roles"), ",")}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), p)))
	})
}

var errBoom = errors.New("boom")
