// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package models

import "time"

// ListingFilter is the subset of a search intent that sources and the
// catalog can evaluate. Zero values disable the corresponding clause.
type ListingFilter struct {
	City      string
	Center    *GeoPoint
	RadiusKm  float64
	PriceMin  float64
	PriceMax  float64
	MinGuests int
	CheckIn   time.Time
	CheckOut  time.Time
	Limit     int
}

// FilterFromIntent derives the retrieval filter for an intent.
// defaultRadiusKm applies when the intent has a center but no radius.
func FilterFromIntent(intent *SearchIntent, defaultRadiusKm float64, limit int) ListingFilter {
	f := ListingFilter{
		City:      intent.City,
		Center:    intent.Center,
		RadiusKm:  intent.RadiusKm,
		MinGuests: intent.Guests,
		CheckIn:   intent.CheckIn,
		CheckOut:  intent.CheckOut,
		Limit:     limit,
	}
	if f.Center != nil && f.RadiusKm <= 0 {
		f.RadiusKm = defaultRadiusKm
	}
	if intent.Budget != nil {
		f.PriceMin = intent.Budget.Min
		f.PriceMax = intent.Budget.Max
	}
	return f
}
