// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package normalize maps source-specific raw records onto the canonical
// listing shape. Mapping never panics past this package and never returns
// an error from batch calls: each record yields a Result that is either a
// listing or a tagged failure.
package normalize

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/staynav/internal/metrics"
	"github.com/tomtom215/staynav/internal/models"
)

var (
	// ErrNormalization marks a record whose payload could not be mapped.
	ErrNormalization = errors.New("normalization failure")

	// ErrUnsupportedSource marks a record whose source tag has no mapper.
	ErrUnsupportedSource = errors.New("unsupported source")
)

// MapFunc converts one raw payload into a listing. Identity fields (ID,
// Source, ExternalID) and TrustScore are set by the Normalizer afterwards.
type MapFunc func(raw models.RawRecord) (models.CanonicalListing, error)

// Result is the outcome of normalizing one raw record.
type Result struct {
	Source     string
	ExternalID string
	Listing    models.CanonicalListing
	Err        error
}

// OK reports whether the record was mapped.
func (r Result) OK() bool { return r.Err == nil }

// Kind returns the failure kind label used for metrics.
func (r Result) Kind() string {
	switch {
	case r.Err == nil:
		return ""
	case errors.Is(r.Err, ErrUnsupportedSource):
		return "unsupported_source"
	default:
		return "mapping"
	}
}

// Normalizer dispatches raw records to mappers by source tag.
// It is built once and read-only afterwards.
type Normalizer struct {
	mappers map[string]MapFunc
}

// New creates a normalizer over mappers keyed by source tag.
func New(mappers map[string]MapFunc) *Normalizer {
	m := make(map[string]MapFunc, len(mappers))
	for tag, fn := range mappers {
		if fn != nil {
			m[tag] = fn
		}
	}
	return &Normalizer{mappers: m}
}

// Supports reports whether a mapper is registered for tag.
func (n *Normalizer) Supports(tag string) bool {
	_, ok := n.mappers[tag]
	return ok
}

// Normalize maps one record.
func (n *Normalizer) Normalize(raw models.RawRecord) (res Result) {
	res = Result{Source: raw.Source, ExternalID: raw.ExternalID}

	fn, ok := n.mappers[raw.Source]
	if !ok {
		res.Err = fmt.Errorf("%w: %q", ErrUnsupportedSource, raw.Source)
		metrics.RecordNormalizationFailure(raw.Source, res.Kind())
		return res
	}

	defer func() {
		if p := recover(); p != nil {
			res.Listing = models.CanonicalListing{}
			res.Err = fmt.Errorf("%w: mapper panic: %v", ErrNormalization, p)
			metrics.RecordNormalizationFailure(raw.Source, res.Kind())
		}
	}()

	listing, err := fn(raw)
	if err != nil {
		if !errors.Is(err, ErrNormalization) {
			err = fmt.Errorf("%w: %w", ErrNormalization, err)
		}
		res.Err = err
		metrics.RecordNormalizationFailure(raw.Source, res.Kind())
		return res
	}

	finalize(&listing, raw)
	res.Listing = listing
	return res
}

// finalize applies the invariants every canonical listing carries.
func finalize(l *models.CanonicalListing, raw models.RawRecord) {
	l.Source = raw.Source
	l.ExternalID = raw.ExternalID
	l.ID = models.ListingID(raw.Source, raw.ExternalID)
	l.TrustScore = 0

	l.Rating = normalizeRating(l.Rating)
	if l.ReviewCount < 0 {
		l.ReviewCount = 0
	}
	if l.Coordinates != nil && !validCoordinate(l.Coordinates.Lat, l.Coordinates.Lng) {
		l.Coordinates = nil
	}
	if l.Price.PerDay < 0 {
		l.Price.PerDay = 0
	}
	if l.Price.PerWeek < 0 {
		l.Price.PerWeek = 0
	}
	if l.Price.PerMonth < 0 {
		l.Price.PerMonth = 0
	}
	if l.Address.Full == "" {
		l.Address.Full = composeAddress(l.Address)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = raw.FetchedAt
	}
}

// normalizeRating keeps ratings within [0,5]. Ten-point scales are halved;
// anything else out of range becomes absent.
func normalizeRating(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := *r
	switch {
	case v >= 0 && v <= 5:
	case v > 5 && v <= 10:
		v /= 2
	default:
		return nil
	}
	return &v
}

func validCoordinate(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func composeAddress(a models.Address) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.District, a.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// batchParallelMin is the batch size from which records are mapped concurrently.
const batchParallelMin = 64

// NormalizeBatch maps every record independently. Successes keep input
// order; failures are returned separately and never reinserted.
func (n *Normalizer) NormalizeBatch(raws []models.RawRecord) ([]models.CanonicalListing, []Result) {
	results := make([]Result, len(raws))

	if len(raws) < batchParallelMin {
		for i := range raws {
			results[i] = n.Normalize(raws[i])
		}
	} else {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i := range raws {
			g.Go(func() error {
				results[i] = n.Normalize(raws[i])
				return nil
			})
		}
		_ = g.Wait() // Normalize reports failures in its Result
	}

	listings := make([]models.CanonicalListing, 0, len(raws))
	var failures []Result
	for _, r := range results {
		if r.OK() {
			listings = append(listings, r.Listing)
		} else {
			failures = append(failures, r)
		}
	}
	return listings, failures
}
