// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package api

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/staynav/internal/aggregate"
	"github.com/tomtom215/staynav/internal/database"
	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/navigator"
	"github.com/tomtom215/staynav/internal/trust"
)

// Navigator is the recommendation orchestrator.
type Navigator interface {
	Recommend(ctx context.Context, userID string, intent models.SearchIntent) (*navigator.Outcome, error)
	GetRecommendation(ctx context.Context, id string) (*models.Recommendation, error)
	SubmitFeedback(ctx context.Context, recommendationID string, fb models.Feedback) error
	GetPreferences(ctx context.Context, userID string) (*models.UserPreferenceProfile, error)
	SavePreferences(ctx context.Context, p *models.UserPreferenceProfile) (*models.UserPreferenceProfile, error)
	PreferenceHistory(ctx context.Context, userID string) ([]models.PreferenceSnapshot, error)
}

// Aggregator runs aggregation and incremental sync.
type Aggregator interface {
	Aggregate(ctx context.Context, filter models.ListingFilter) aggregate.Result
	SyncSources(ctx context.Context) aggregate.RunStats
}

// Reevaluator runs the batch trust pass.
type Reevaluator interface {
	Run(ctx context.Context) (trust.ReevaluationStats, error)
}

// ListingEvaluator scores a single listing.
type ListingEvaluator interface {
	EvaluateListing(l *models.CanonicalListing) trust.ListingVerdict
	ShouldSuppressWith(ctx context.Context, l *models.CanonicalListing, v trust.ListingVerdict) (bool, string)
}

// ListingStore reads aggregated records.
type ListingStore interface {
	ListVisibleAggregated(ctx context.Context, q database.AggregatedQuery) ([]models.AggregatedRecord, error)
	CountAggregated(ctx context.Context) (total, suspicious, hidden int, err error)
}

// Pinger checks a dependency for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies of the Handler. Nil optional dependencies disable their
// endpoints with 503.
type Dependencies struct {
	Navigator   Navigator
	Aggregator  Aggregator
	Reevaluator Reevaluator
	Evaluator   ListingEvaluator
	Listings    ListingStore
	DB          Pinger

	// AdminTimeout bounds admin-triggered runs. Zero means 10 minutes.
	AdminTimeout time.Duration
}

// Handler contains dependencies for API handlers.
//
//   - handlers_health.go: liveness and readiness
//   - handlers_search.go: search, recommendations, feedback
//   - handlers_preferences.go: preference profiles and history
//   - handlers_listings.go: aggregated listing browse
//   - handlers_admin.go: aggregation, sync and trust runs
type Handler struct {
	deps      Dependencies
	flights   singleflight.Group
	startTime time.Time
}

// NewHandler creates a handler over deps.
func NewHandler(deps Dependencies) *Handler {
	if deps.AdminTimeout <= 0 {
		deps.AdminTimeout = 10 * time.Minute
	}
	return &Handler{deps: deps, startTime: time.Now()}
}
