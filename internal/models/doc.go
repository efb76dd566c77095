// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package models defines the domain types shared across StayNav.
//
// # Listings
//
// Every source adapter emits RawRecord values. The normalizer turns them into
// CanonicalListing, the one shape all sources converge to. The aggregation
// engine persists one AggregatedRecord per deduplicated physical unit.
//
// # Search
//
// A SearchIntent starts a SearchSession. A session that yields at least one
// candidate gets exactly one Recommendation carrying an Explanation. Feedback
// is the only later mutation of a Recommendation.
//
// # Preferences
//
// UserPreferenceProfile is keyed by user id. Each save appends the prior state
// to History, which is never replayed automatically.
//
// # API Envelope
//
// APIResponse, Metadata and APIError form the JSON envelope used by the HTTP API.
package models
