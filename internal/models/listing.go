// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// HousingType is the canonical housing category shared by every source.
type HousingType string

const (
	HousingApartment HousingType = "apartment"
	HousingHouse     HousingType = "house"
	HousingStudio    HousingType = "studio"
	HousingRoom      HousingType = "room"
	HousingCottage   HousingType = "cottage"
	HousingLoft      HousingType = "loft"
)

// HousingTypes lists every valid category in declaration order.
var HousingTypes = []HousingType{
	HousingApartment, HousingHouse, HousingStudio, HousingRoom, HousingCottage, HousingLoft,
}

// ParseHousingType maps a loosely formatted category name to a HousingType.
// Returns false for unknown names.
func ParseHousingType(s string) (HousingType, bool) {
	v := HousingType(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case "flat", "apt":
		return HousingApartment, true
	case "private_room", "private room":
		return HousingRoom, true
	}
	for _, t := range HousingTypes {
		if t == v {
			return t, true
		}
	}
	return "", false
}

// listingNamespace seeds the stable listing ids derived from source + external id.
var listingNamespace = uuid.MustParse("5b0d1c7e-3f4a-5e2b-9c61-7a8d2e4f0b13")

// ListingID returns the internal id for a (source, external id) pair.
// The id is stable across re-normalization of the same record.
func ListingID(source, externalID string) string {
	return uuid.NewSHA1(listingNamespace, []byte(source+":"+externalID)).String()
}

// RawRecord is a source-specific record as fetched by a source adapter.
// It is immutable once produced and consumed once by the normalizer.
type RawRecord struct {
	Source     string          `json:"source"`
	ExternalID string          `json:"external_id"`
	Payload    json.RawMessage `json:"payload"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// Address is the postal address of a listing.
type Address struct {
	City     string `json:"city"`
	District string `json:"district,omitempty"`
	Street   string `json:"street,omitempty"`
	Full     string `json:"full"`
}

// GeoPoint is a WGS84 coordinate with optional accuracy in meters.
type GeoPoint struct {
	Lat      float64  `json:"lat" validate:"gte=-90,lte=90"`
	Lng      float64  `json:"lng" validate:"gte=-180,lte=180"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// Pricing holds per-period prices in a single currency.
type Pricing struct {
	PerDay   float64 `json:"per_day"`
	PerWeek  float64 `json:"per_week,omitempty"`
	PerMonth float64 `json:"per_month,omitempty"`
	Currency string  `json:"currency"`
}

// DailyPrice returns the effective price per day.
// Weekly and monthly prices are converted when no daily price is set.
func (p Pricing) DailyPrice() float64 {
	switch {
	case p.PerDay > 0:
		return p.PerDay
	case p.PerWeek > 0:
		return p.PerWeek / 7
	case p.PerMonth > 0:
		return p.PerMonth / 30
	}
	return 0
}

// Conditions are the structured stay conditions of a listing.
type Conditions struct {
	Capacity  int      `json:"capacity"`
	Rooms     int      `json:"rooms,omitempty"`
	Bedrooms  int      `json:"bedrooms,omitempty"`
	Bathrooms int      `json:"bathrooms,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
	Policies  []string `json:"policies,omitempty"`
}

// HasAmenity reports whether the amenity tag set contains tag (case-insensitive).
func (c Conditions) HasAmenity(tag string) bool {
	for _, a := range c.Amenities {
		if strings.EqualFold(a, tag) {
			return true
		}
	}
	return false
}

// AvailabilityWindow is a half-open [From, To) interval during which the unit can be booked.
type AvailabilityWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CanonicalListing is the unified shape every source is normalized into.
//
// TrustScore is owned by the trust evaluator; normalizers leave it at zero.
// Rating, when present, is within [0,5].
type CanonicalListing struct {
	ID              string               `json:"id"`
	Source          string               `json:"source"`
	ExternalID      string               `json:"external_id"`
	OwnerID         string               `json:"owner_id,omitempty"`
	HousingType     HousingType          `json:"housing_type"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Address         Address              `json:"address"`
	Coordinates     *GeoPoint            `json:"coordinates,omitempty"`
	Price           Pricing              `json:"price"`
	Rating          *float64             `json:"rating,omitempty"`
	ReviewCount     int                  `json:"review_count"`
	Photos          []string             `json:"photos,omitempty"`
	Conditions      Conditions           `json:"conditions"`
	Availability    []AvailabilityWindow `json:"availability,omitempty"`
	TrustScore      float64              `json:"trust_score"`
	SourceUpdatedAt time.Time            `json:"source_updated_at"`
	CreatedAt       time.Time            `json:"created_at"`
}

// HasCoordinates reports whether the listing carries a usable geocoordinate.
func (l *CanonicalListing) HasCoordinates() bool {
	return l.Coordinates != nil
}

// AggregatedRecord is one persisted row per deduplicated physical unit.
type AggregatedRecord struct {
	ID               string           `json:"id"`
	Fingerprint      string           `json:"fingerprint"`
	Source           string           `json:"source"`
	ExternalID       string           `json:"external_id"`
	Listing          CanonicalListing `json:"listing"`
	TrustScore       float64          `json:"trust_score"`
	IsSuspicious     bool             `json:"is_suspicious"`
	IsHidden         bool             `json:"is_hidden"`
	LastSourceUpdate time.Time        `json:"last_source_update"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// CoversStay reports whether one availability window contains the whole
// [checkIn, checkOut) stay. Listings without windows are assumed bookable.
func (l *CanonicalListing) CoversStay(checkIn, checkOut time.Time) bool {
	if len(l.Availability) == 0 {
		return true
	}
	for _, w := range l.Availability {
		if !checkIn.Before(w.From) && !checkOut.After(w.To) {
			return true
		}
	}
	return false
}
