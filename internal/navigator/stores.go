// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package navigator

import (
	"context"
	"time"

	"github.com/tomtom215/staynav/internal/aggregate"
	"github.com/tomtom215/staynav/internal/models"
)

// Catalog is the read-only first-party listing repository.
type Catalog interface {
	FindActiveByFilter(ctx context.Context, filter models.ListingFilter) ([]models.CanonicalListing, error)
	// IsAvailable reports whether no confirmed or pending booking of the
	// catalog listing overlaps [checkIn, checkOut).
	IsAvailable(ctx context.Context, catalogID string, checkIn, checkOut time.Time) (bool, error)
}

// Aggregator produces cross-source candidates.
type Aggregator interface {
	Aggregate(ctx context.Context, filter models.ListingFilter) aggregate.Result
}

// Store persists sessions, recommendations and preference profiles.
// Lookups of missing rows return an error wrapping models.ErrNotFound.
type Store interface {
	CreateSession(ctx context.Context, s *models.SearchSession) error
	CompleteSession(ctx context.Context, id string, status models.SessionStatus, resultCount int, selectedListingID string) error

	CreateRecommendation(ctx context.Context, r *models.Recommendation) error
	GetRecommendation(ctx context.Context, id string) (*models.Recommendation, error)
	SetFeedback(ctx context.Context, id string, fb models.Feedback, at time.Time) error

	GetPreferences(ctx context.Context, userID string) (*models.UserPreferenceProfile, error)
	// SavePreferences writes the profile and, when previous is set, appends
	// it to the history log in the same transaction.
	SavePreferences(ctx context.Context, p *models.UserPreferenceProfile, previous *models.PreferenceSnapshot) error
	PreferenceHistory(ctx context.Context, userID string, limit int) ([]models.PreferenceSnapshot, error)
}

// Emitter publishes domain events. Publishing is best-effort.
type Emitter interface {
	Emit(ctx context.Context, eventType, aggregateID string, payload any)
}
