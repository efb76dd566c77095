// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// TripPurpose is the traveler's stated reason for the stay.
type TripPurpose string

const (
	PurposeWork    TripPurpose = "work"
	PurposeLeisure TripPurpose = "leisure"
	PurposeUrgent  TripPurpose = "urgent"
)

// BudgetRange is a daily price range in the catalog currency.
type BudgetRange struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gte=0"`
}

// Midpoint returns the center of the range.
func (b BudgetRange) Midpoint() float64 {
	return (b.Min + b.Max) / 2
}

// Contains reports whether price falls inside the inclusive range.
func (b BudgetRange) Contains(price float64) bool {
	return price >= b.Min && price <= b.Max
}

// PriorityWeights are the per-dimension priorities of a traveler, each within [0,1].
type PriorityWeights struct {
	Quiet      float64 `json:"quiet" validate:"gte=0,lte=1"`
	Centrality float64 `json:"centrality" validate:"gte=0,lte=1"`
	Comfort    float64 `json:"comfort" validate:"gte=0,lte=1"`
	Price      float64 `json:"price" validate:"gte=0,lte=1"`
}

// IsZero reports whether no priority is set.
func (p PriorityWeights) IsZero() bool {
	return p.Quiet == 0 && p.Centrality == 0 && p.Comfort == 0 && p.Price == 0
}

// SearchIntent is the caller's structured description of the stay they want.
// Date and budget consistency is checked by the validation package.
type SearchIntent struct {
	City       string          `json:"city,omitempty" validate:"max=120"`
	Center     *GeoPoint       `json:"center,omitempty"`
	RadiusKm   float64         `json:"radius_km,omitempty" validate:"gte=0,lte=500"`
	CheckIn    time.Time       `json:"check_in,omitempty"`
	CheckOut   time.Time       `json:"check_out,omitempty"`
	Guests     int             `json:"guests" validate:"gte=1,lte=50"`
	Budget     *BudgetRange    `json:"budget,omitempty"`
	Purpose    TripPurpose     `json:"purpose,omitempty" validate:"omitempty,oneof=work leisure urgent"`
	Priorities PriorityWeights `json:"priorities"`
}

// HasDates reports whether a stay window was supplied.
func (i *SearchIntent) HasDates() bool {
	return !i.CheckIn.IsZero() && !i.CheckOut.IsZero()
}

// SessionStatus is the lifecycle state of a search session.
type SessionStatus string

const (
	SessionOpen    SessionStatus = "open"
	SessionMatched SessionStatus = "matched"
	SessionNoMatch SessionStatus = "no_match"
	// SessionFailed ends a session whose search aborted after it was opened.
	SessionFailed SessionStatus = "failed"
)

// SearchSession records one search invocation.
type SearchSession struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id,omitempty"`
	Intent            json.RawMessage `json:"intent"`
	Status            SessionStatus   `json:"status"`
	ResultCount       int             `json:"result_count"`
	Success           bool            `json:"success"`
	SelectedListingID string          `json:"selected_listing_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Factor names a scoring factor.
type Factor string

const (
	FactorPrice        Factor = "price"
	FactorLocation     Factor = "location"
	FactorRating       Factor = "rating"
	FactorCompleteness Factor = "completeness"
	FactorTrust        Factor = "trust"
	FactorPreference   Factor = "preference"
)

// FactorContribution is one factor's share of a listing's score.
type FactorContribution struct {
	Factor       Factor  `json:"factor"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Description  string  `json:"description"`
}

// Explanation is the human-readable breakdown of why a listing ranked where it did.
type Explanation struct {
	PrimaryReason Factor               `json:"primary_reason"`
	Summary       string               `json:"summary"`
	Factors       []FactorContribution `json:"factors"`
}

// Feedback is the traveler's verdict on a recommendation.
type Feedback string

const (
	FeedbackNone     Feedback = ""
	FeedbackLiked    Feedback = "liked"
	FeedbackDisliked Feedback = "disliked"
)

// Recommendation is the persisted best match plus alternatives for a session.
type Recommendation struct {
	ID          string      `json:"id"`
	SessionID   string      `json:"session_id"`
	ListingIDs  []string    `json:"listing_ids"`
	Explanation Explanation `json:"explanation"`
	Score       float64     `json:"score"`
	Feedback    Feedback    `json:"feedback,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	FeedbackAt  *time.Time  `json:"feedback_at,omitempty"`
}

// PreferenceSnapshot is a past state of a preference profile.
type PreferenceSnapshot struct {
	Priorities PriorityWeights `json:"priorities"`
	Preferred  []string        `json:"preferred,omitempty"`
	Avoided    []string        `json:"avoided,omitempty"`
	Budget     *BudgetRange    `json:"budget,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// UserPreferenceProfile holds a traveler's standing preferences.
// History is append-only and only used for inspection.
type UserPreferenceProfile struct {
	UserID     string               `json:"user_id" validate:"required,max=128"`
	Priorities PriorityWeights      `json:"priorities"`
	Preferred  []string             `json:"preferred,omitempty" validate:"max=50,dive,max=64"`
	Avoided    []string             `json:"avoided,omitempty" validate:"max=50,dive,max=64"`
	Budget     *BudgetRange         `json:"budget,omitempty"`
	History    []PreferenceSnapshot `json:"history,omitempty"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Snapshot captures the current profile state.
func (p *UserPreferenceProfile) Snapshot(at time.Time) PreferenceSnapshot {
	return PreferenceSnapshot{
		Priorities: p.Priorities,
		Preferred:  append([]string(nil), p.Preferred...),
		Avoided:    append([]string(nil), p.Avoided...),
		Budget:     p.Budget,
		RecordedAt: at,
	}
}
