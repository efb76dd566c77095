// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package trust

import (
	"fmt"
	"time"
)

// Tier adds Bonus when a signal passes Threshold.
type Tier struct {
	Threshold float64 `koanf:"threshold"`
	Bonus     float64 `koanf:"bonus"`
}

// Config holds every penalty, threshold and tier of the evaluator.
type Config struct {
	// Listing penalties
	NoPhotosPenalty         float64       `koanf:"no_photos_penalty"`
	FewPhotosPenalty        float64       `koanf:"few_photos_penalty"`
	MinPhotos               int           `koanf:"min_photos"`
	ShortDescriptionPenalty float64       `koanf:"short_description_penalty"`
	MinDescriptionLength    int           `koanf:"min_description_length"`
	NoCoordinatesPenalty    float64       `koanf:"no_coordinates_penalty"`
	LowPricePenalty         float64       `koanf:"low_price_penalty"`
	NoReviewsPenalty        float64       `koanf:"no_reviews_penalty"`
	StalePenalty            float64       `koanf:"stale_penalty"`
	StaleAfter              time.Duration `koanf:"stale_after"`
	LowCompletenessPenalty  float64       `koanf:"low_completeness_penalty"`
	LowCompletenessBelow    float64       `koanf:"low_completeness_below"`

	// CategoryFloors is the suspiciously-low daily price per housing type.
	CategoryFloors map[string]float64 `koanf:"category_floors"`

	// SourceMultipliers override the declared trust level of a source.
	SourceMultipliers map[string]float64 `koanf:"source_multipliers"`
	DefaultMultiplier float64            `koanf:"default_multiplier"`

	// Verdicts
	SuspiciousFlagCount  int     `koanf:"suspicious_flag_count"`
	SuspiciousBelow      float64 `koanf:"suspicious_below"`
	OwnerSuppressBelow   float64 `koanf:"owner_suppress_below"`
	QualitySuppressBelow float64 `koanf:"quality_suppress_below"`

	// Owner trust
	OwnerBase          float64       `koanf:"owner_base"`
	OwnerVerifiedAt    float64       `koanf:"owner_verified_at"`
	BookingTiers       []Tier        `koanf:"booking_tiers"`
	RatingTiers        []Tier        `koanf:"rating_tiers"`
	ReviewVolumeTier   Tier          `koanf:"review_volume_tier"`
	ActivityWindow     time.Duration `koanf:"activity_window"`
	ActivityBonus      float64       `koanf:"activity_bonus"`
	OwnerCacheTTL      time.Duration `koanf:"owner_cache_ttl"`
	ReevaluatePageSize int           `koanf:"reevaluate_page_size"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		NoPhotosPenalty:         0.20,
		FewPhotosPenalty:        0.10,
		MinPhotos:               3,
		ShortDescriptionPenalty: 0.15,
		MinDescriptionLength:    50,
		NoCoordinatesPenalty:    0.20,
		LowPricePenalty:         0.15,
		NoReviewsPenalty:        0.10,
		StalePenalty:            0.10,
		StaleAfter:              30 * 24 * time.Hour,
		LowCompletenessPenalty:  0.15,
		LowCompletenessBelow:    0.5,

		CategoryFloors: map[string]float64{
			"room":      300,
			"studio":    500,
			"apartment": 700,
			"loft":      900,
			"house":     1500,
			"cottage":   2000,
		},
		SourceMultipliers: map[string]float64{},
		DefaultMultiplier: 0.5,

		SuspiciousFlagCount:  3,
		SuspiciousBelow:      0.4,
		OwnerSuppressBelow:   0.3,
		QualitySuppressBelow: 0.4,

		OwnerBase:       0.5,
		OwnerVerifiedAt: 0.7,
		// Tiers are checked in order and the first match wins.
		BookingTiers: []Tier{
			{Threshold: 20, Bonus: 0.3},
			{Threshold: 10, Bonus: 0.2},
			{Threshold: 5, Bonus: 0.1},
		},
		RatingTiers: []Tier{
			{Threshold: 4.5, Bonus: 0.2},
			{Threshold: 4.0, Bonus: 0.1},
		},
		ReviewVolumeTier:   Tier{Threshold: 50, Bonus: 0.1},
		ActivityWindow:     30 * 24 * time.Hour,
		ActivityBonus:      0.1,
		OwnerCacheTTL:      10 * time.Minute,
		ReevaluatePageSize: 500,
	}
}

// Validate checks ranges. Messages use the koanf path under "trust".
func (c *Config) Validate() error {
	penalties := map[string]float64{
		"no_photos_penalty":         c.NoPhotosPenalty,
		"few_photos_penalty":        c.FewPhotosPenalty,
		"short_description_penalty": c.ShortDescriptionPenalty,
		"no_coordinates_penalty":    c.NoCoordinatesPenalty,
		"low_price_penalty":         c.LowPricePenalty,
		"no_reviews_penalty":        c.NoReviewsPenalty,
		"stale_penalty":             c.StalePenalty,
		"low_completeness_penalty":  c.LowCompletenessPenalty,
		"default_multiplier":        c.DefaultMultiplier,
		"suspicious_below":          c.SuspiciousBelow,
		"owner_suppress_below":      c.OwnerSuppressBelow,
		"quality_suppress_below":    c.QualitySuppressBelow,
		"owner_base":                c.OwnerBase,
		"owner_verified_at":         c.OwnerVerifiedAt,
		"low_completeness_below":    c.LowCompletenessBelow,
	}
	for name, v := range penalties {
		if v < 0 || v > 1 {
			return fmt.Errorf("trust.%s must be within [0,1], got %v", name, v)
		}
	}
	for src, m := range c.SourceMultipliers {
		if m < 0 || m > 1 {
			return fmt.Errorf("trust.source_multipliers.%s must be within [0,1], got %v", src, m)
		}
	}
	for ht, floor := range c.CategoryFloors {
		if floor < 0 {
			return fmt.Errorf("trust.category_floors.%s must be non-negative, got %v", ht, floor)
		}
	}
	if c.SuspiciousFlagCount < 1 {
		return fmt.Errorf("trust.suspicious_flag_count must be at least 1, got %d", c.SuspiciousFlagCount)
	}
	if c.MinPhotos < 1 {
		return fmt.Errorf("trust.min_photos must be at least 1, got %d", c.MinPhotos)
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("trust.stale_after must be positive, got %v", c.StaleAfter)
	}
	return nil
}
