// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package scoring

import (
	"fmt"
	"sort"

	"github.com/tomtom215/staynav/internal/models"
)

type bucket int

const (
	bucketBelow bucket = iota
	bucketAverage
	bucketExcellent
)

// wording per factor, indexed by bucket.
var wording = map[models.Factor][3]string{
	models.FactorPrice: {
		"Priced above comparable stays",
		"Priced in line with comparable stays",
		"Priced well below comparable stays",
	},
	models.FactorLocation: {
		"Far from your destination",
		"Within reach of your destination",
		"Very close to your destination",
	},
	models.FactorRating: {
		"Few or low guest ratings",
		"Decent guest ratings",
		"Highly rated by many guests",
	},
	models.FactorCompleteness: {
		"Sparse listing information",
		"Listing is missing some details",
		"Complete listing with photos and details",
	},
	models.FactorTrust: {
		"Limited trust signals",
		"Moderately trusted listing",
		"Trustworthy listing from a reliable source",
	},
	models.FactorPreference: {
		"Weak match for your preferences",
		"Partial match for your preferences",
		"Strong match for your preferences",
	},
}

// factorOrder is the enumeration order used to break ties.
var factorOrder = []models.Factor{
	models.FactorPrice,
	models.FactorLocation,
	models.FactorRating,
	models.FactorCompleteness,
	models.FactorTrust,
	models.FactorPreference,
}

// primaryCandidates are the factors eligible as the primary reason.
var primaryCandidates = []models.Factor{
	models.FactorPrice,
	models.FactorLocation,
	models.FactorRating,
	models.FactorTrust,
}

func (f Factors) get(name models.Factor) float64 {
	switch name {
	case models.FactorPrice:
		return f.Price
	case models.FactorLocation:
		return f.Location
	case models.FactorRating:
		return f.Rating
	case models.FactorCompleteness:
		return f.Completeness
	case models.FactorTrust:
		return f.Trust
	case models.FactorPreference:
		return f.Preference
	}
	return 0
}

func (w Weights) get(name models.Factor) float64 {
	return Factors(w).get(name)
}

func (s *Scorer) bucketOf(score float64) bucket {
	switch {
	case score > s.cfg.ExcellentAbove:
		return bucketExcellent
	case score > s.cfg.AverageAbove:
		return bucketAverage
	}
	return bucketBelow
}

// Describe returns the human-readable wording for a factor score.
func (s *Scorer) Describe(name models.Factor, score float64) string {
	return wording[name][s.bucketOf(score)]
}

// GetExplanation breaks a score down into weighted factor contributions,
// ordered by contribution with ties in enumeration order. The primary reason
// is the highest-scoring of price, location, rating and trust.
func (s *Scorer) GetExplanation(l *models.CanonicalListing, b Breakdown) models.Explanation {
	factors := make([]models.FactorContribution, 0, len(factorOrder))
	for _, name := range factorOrder {
		score := b.Factors.get(name)
		weight := s.weights.get(name)
		factors = append(factors, models.FactorContribution{
			Factor:       name,
			Score:        score,
			Weight:       weight,
			Contribution: score * weight,
			Description:  s.Describe(name, score),
		})
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Contribution > factors[j].Contribution
	})

	primary := primaryCandidates[0]
	for _, name := range primaryCandidates[1:] {
		if b.Factors.get(name) > b.Factors.get(primary) {
			primary = name
		}
	}

	title := l.Title
	if title == "" {
		title = "This stay"
	}
	return models.Explanation{
		PrimaryReason: primary,
		Summary:       fmt.Sprintf("%s: %s (match score %.2f)", title, s.Describe(primary, b.Factors.get(primary)), b.Total),
		Factors:       factors,
	}
}
