// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package scoring ranks candidate listings against a search intent.
//
// A score is the weighted sum of six factors (price, location, rating,
// completeness, trust and preference match), each clamped to [0,1] before
// weighting. Missing inputs map to neutral values, never to errors. Scoring is
// a pure function, so Rank scores candidates in parallel and still returns a
// deterministic order.
package scoring
