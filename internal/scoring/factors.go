// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package scoring

import (
	"math"
	"strings"

	"github.com/tomtom215/staynav/internal/geo"
	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/trust"
)

const neutral = 0.5

func (s *Scorer) priceFactor(l *models.CanonicalListing, in *Input) float64 {
	price := l.Price.DailyPrice()
	if price <= 0 {
		return neutral
	}
	avg, ok := in.Peers.ComparableAvg(l)
	if !ok || avg <= 0 {
		b := in.budget()
		if b == nil || b.Midpoint() <= 0 {
			return neutral
		}
		avg = b.Midpoint()
	}
	deviation := (price - avg) / avg
	return clamp01(s.cfg.PriceBase - s.cfg.PriceSlope*deviation)
}

// centrality is 1 at the intent centre and 0 at or beyond the radius.
func (s *Scorer) centrality(l *models.CanonicalListing, intent *models.SearchIntent) float64 {
	if intent == nil || intent.Center == nil || l.Coordinates == nil {
		return neutral
	}
	radius := intent.RadiusKm
	if radius <= 0 {
		radius = s.cfg.DefaultRadiusKm
	}
	d := geo.HaversineKm(intent.Center.Lat, intent.Center.Lng, l.Coordinates.Lat, l.Coordinates.Lng)
	return 1 - math.Min(1, d/radius)
}

func (s *Scorer) ratingFactor(l *models.CanonicalListing) float64 {
	if l.Rating == nil {
		return s.cfg.AbsentRatingScore
	}
	volume := math.Min(1, float64(l.ReviewCount)/float64(s.cfg.ReviewSaturation))
	return clamp01((*l.Rating / 5) * (0.5 + 0.5*volume))
}

func (s *Scorer) completenessFactor(l *models.CanonicalListing) float64 {
	return trust.Completeness(l, s.cfg.MinDescriptionLength)
}

// preferenceFactor blends the sub-estimators of every dimension with a
// non-zero priority, plus the attribute estimator when the profile lists
// preferred or avoided attributes.
func (s *Scorer) preferenceFactor(l *models.CanonicalListing, in *Input) float64 {
	prio := in.priorities()
	var num, den float64
	add := func(weight, estimate float64) {
		if weight > 0 {
			num += weight * estimate
			den += weight
		}
	}

	centrality := s.centrality(l, in.Intent)
	add(prio.Quiet, s.quietness(l, centrality))
	add(prio.Centrality, centrality)
	add(prio.Comfort, s.comfort(l, in.Intent))
	add(prio.Price, s.priceFit(l, in.budget()))

	if p := in.Profile; p != nil && (len(p.Preferred) > 0 || len(p.Avoided) > 0) {
		add(s.cfg.AttributeWeight, attributeMatch(l, p.Preferred, p.Avoided))
	}

	if den == 0 {
		return neutral
	}
	return clamp01(num / den)
}

func (s *Scorer) quietness(l *models.CanonicalListing, centrality float64) float64 {
	q := 1 - centrality
	for _, tag := range s.cfg.QuietAmenities {
		if l.Conditions.HasAmenity(tag) {
			q += s.cfg.QuietBonus
			break
		}
	}
	return clamp01(q)
}

func (s *Scorer) comfort(l *models.CanonicalListing, intent *models.SearchIntent) float64 {
	rating := s.cfg.AbsentRatingScore
	if l.Rating != nil {
		rating = *l.Rating / 5
	}
	amenities := math.Min(1, float64(len(l.Conditions.Amenities))/float64(s.cfg.AmenitySaturation))

	guests := 1
	if intent != nil && intent.Guests > 0 {
		guests = intent.Guests
	}
	capacity := math.Min(1, float64(l.Conditions.Capacity)/float64(guests))

	return clamp01(0.4*rating + 0.3*amenities + 0.3*capacity)
}

// priceFit is 1 inside the budget and falls linearly to 0 at the tolerance
// outside it.
func (s *Scorer) priceFit(l *models.CanonicalListing, b *models.BudgetRange) float64 {
	price := l.Price.DailyPrice()
	if b == nil || b.Max <= 0 || price <= 0 {
		return neutral
	}
	var deviation float64
	switch {
	case b.Contains(price):
		return 1
	case price < b.Min:
		deviation = (b.Min - price) / b.Min
	default:
		deviation = (price - b.Max) / b.Max
	}
	return clamp01(1 - deviation/s.cfg.PriceFitTolerance)
}

// attributeMatch maps the share of matched preferred attributes minus the
// share of matched avoided ones into [0,1].
func attributeMatch(l *models.CanonicalListing, preferred, avoided []string) float64 {
	have := make(map[string]struct{}, len(l.Conditions.Amenities)+len(l.Conditions.Policies)+1)
	for _, a := range l.Conditions.Amenities {
		have[strings.ToLower(a)] = struct{}{}
	}
	for _, p := range l.Conditions.Policies {
		have[strings.ToLower(p)] = struct{}{}
	}
	have[string(l.HousingType)] = struct{}{}

	share := func(tags []string) float64 {
		if len(tags) == 0 {
			return 0
		}
		n := 0
		for _, t := range tags {
			if _, ok := have[strings.ToLower(strings.TrimSpace(t))]; ok {
				n++
			}
		}
		return float64(n) / float64(len(tags))
	}
	return clamp01(0.5 + 0.5*(share(preferred)-share(avoided)))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return neutral
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
