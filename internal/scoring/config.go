// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package scoring

import "fmt"

// Weights is the relative contribution of each factor.
// Weights are normalized at runtime, so they don't need to sum to 1.0.
type Weights struct {
	Price        float64 `koanf:"price"`
	Location     float64 `koanf:"location"`
	Rating       float64 `koanf:"rating"`
	Completeness float64 `koanf:"completeness"`
	Trust        float64 `koanf:"trust"`
	Preference   float64 `koanf:"preference"`
}

// Normalize returns a copy with weights scaled to sum to 1.0.
// All-zero weights become equal weights.
func (w Weights) Normalize() Weights {
	sum := w.Price + w.Location + w.Rating + w.Completeness + w.Trust + w.Preference
	if sum == 0 {
		const equal = 1.0 / 6.0
		return Weights{equal, equal, equal, equal, equal, equal}
	}
	return Weights{
		Price:        w.Price / sum,
		Location:     w.Location / sum,
		Rating:       w.Rating / sum,
		Completeness: w.Completeness / sum,
		Trust:        w.Trust / sum,
		Preference:   w.Preference / sum,
	}
}

// Config holds the scoring weights and factor parameters.
type Config struct {
	Weights Weights `koanf:"weights"`

	// DefaultRadiusKm applies when an intent has a centre but no radius.
	DefaultRadiusKm float64 `koanf:"default_radius_km"`

	// Price factor: base - slope * relative deviation from the comparable average.
	PriceBase  float64 `koanf:"price_base"`
	PriceSlope float64 `koanf:"price_slope"`

	AbsentRatingScore float64 `koanf:"absent_rating_score"`
	ReviewSaturation  int     `koanf:"review_saturation"`

	MinDescriptionLength int `koanf:"min_description_length"`

	// Preference sub-estimators
	QuietAmenities    []string `koanf:"quiet_amenities"`
	QuietBonus        float64  `koanf:"quiet_bonus"`
	AmenitySaturation int      `koanf:"amenity_saturation"`
	PriceFitTolerance float64  `koanf:"price_fit_tolerance"`
	AttributeWeight   float64  `koanf:"attribute_weight"`

	// Explanation buckets
	ExcellentAbove float64 `koanf:"excellent_above"`
	AverageAbove   float64 `koanf:"average_above"`

	// Workers bounds parallel scoring in Rank. Zero uses GOMAXPROCS.
	Workers int `koanf:"workers"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Price:        0.25,
			Location:     0.20,
			Rating:       0.15,
			Completeness: 0.10,
			Trust:        0.15,
			Preference:   0.15,
		},
		DefaultRadiusKm:      10,
		PriceBase:            0.5,
		PriceSlope:           1.5,
		AbsentRatingScore:    0.3,
		ReviewSaturation:     10,
		MinDescriptionLength: 50,
		QuietAmenities:       []string{"quiet", "soundproofing", "quiet_area"},
		QuietBonus:           0.2,
		AmenitySaturation:    10,
		PriceFitTolerance:    0.5,
		AttributeWeight:      0.5,
		ExcellentAbove:       0.7,
		AverageAbove:         0.5,
	}
}

// Validate checks the scoring section.
func (c *Config) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"price": w.Price, "location": w.Location, "rating": w.Rating,
		"completeness": w.Completeness, "trust": w.Trust, "preference": w.Preference,
	} {
		if v < 0 {
			return fmt.Errorf("scoring.weights.%s must not be negative, got %v", name, v)
		}
	}
	if c.DefaultRadiusKm <= 0 {
		return fmt.Errorf("scoring.default_radius_km must be positive, got %v", c.DefaultRadiusKm)
	}
	if c.ReviewSaturation < 1 {
		return fmt.Errorf("scoring.review_saturation must be at least 1, got %d", c.ReviewSaturation)
	}
	if c.AmenitySaturation < 1 {
		return fmt.Errorf("scoring.amenity_saturation must be at least 1, got %d", c.AmenitySaturation)
	}
	if c.PriceFitTolerance <= 0 {
		return fmt.Errorf("scoring.price_fit_tolerance must be positive, got %v", c.PriceFitTolerance)
	}
	if c.AverageAbove > c.ExcellentAbove {
		return fmt.Errorf("scoring.average_above (%v) must not exceed scoring.excellent_above (%v)", c.AverageAbove, c.ExcellentAbove)
	}
	if c.AbsentRatingScore < 0 || c.AbsentRatingScore > 1 {
		return fmt.Errorf("scoring.absent_rating_score must be within [0,1], got %v", c.AbsentRatingScore)
	}
	return nil
}
