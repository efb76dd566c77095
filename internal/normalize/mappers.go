// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/staynav/internal/models"
)

// Format names accepted in feed configuration.
const (
	FormatCatalog     = "catalog"
	FormatPartnerFeed = "partner-feed"
)

// Formats maps a wire format name to its mapper.
var Formats = map[string]MapFunc{
	FormatCatalog:     MapCatalog,
	FormatPartnerFeed: MapPartnerFeed,
}

// MapperFor returns the mapper for a wire format.
func MapperFor(format string) (MapFunc, error) {
	fn, ok := Formats[format]
	if !ok {
		return nil, fmt.Errorf("unknown feed format %q", format)
	}
	return fn, nil
}

// MapCatalog decodes a first-party catalog record, whose payload is
// already canonical listing JSON.
func MapCatalog(raw models.RawRecord) (models.CanonicalListing, error) {
	var l models.CanonicalListing
	if err := json.Unmarshal(raw.Payload, &l); err != nil {
		return l, fmt.Errorf("decode catalog payload: %w", err)
	}
	ht, ok := models.ParseHousingType(string(l.HousingType))
	if !ok {
		return l, fmt.Errorf("unknown housing type %q", l.HousingType)
	}
	l.HousingType = ht
	l.Photos = cleanStrings(l.Photos)
	l.Conditions.Amenities = cleanStrings(l.Conditions.Amenities)
	return l, nil
}

// partnerItem is the partner feed wire format.
type partnerItem struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	HostID   string `json:"host_id"`
	Location struct {
		City      string    `json:"city"`
		District  string    `json:"district"`
		Street    string    `json:"street"`
		Address   string    `json:"address"`
		Lat       flexFloat `json:"lat"`
		Lon       flexFloat `json:"lon"`
		AccuracyM flexFloat `json:"accuracy_m"`
	} `json:"location"`
	Pricing struct {
		Nightly  flexFloat `json:"nightly"`
		Weekly   flexFloat `json:"weekly"`
		Monthly  flexFloat `json:"monthly"`
		Currency string    `json:"currency"`
	} `json:"pricing"`
	Rating    flexFloat `json:"rating"`
	Reviews   flexInt   `json:"reviews"`
	Images    []string  `json:"images"`
	Guests    flexInt   `json:"guests"`
	Rooms     flexInt   `json:"rooms"`
	Bedrooms  flexInt   `json:"bedrooms"`
	Baths     flexInt   `json:"baths"`
	Amenities []string  `json:"amenities"`
	Rules     []string  `json:"rules"`
	Available []struct {
		Start flexTime `json:"start"`
		End   flexTime `json:"end"`
	} `json:"available"`
	UpdatedAt flexTime `json:"updated_at"`
}

var errMissingLocation = errors.New("listing has neither address nor coordinates")

// MapPartnerFeed maps the partner JSON feed format. Numeric fields accept
// numbers or strings and fall back to zero or absent.
func MapPartnerFeed(raw models.RawRecord) (models.CanonicalListing, error) {
	var it partnerItem
	if err := json.Unmarshal(raw.Payload, &it); err != nil {
		return models.CanonicalListing{}, fmt.Errorf("decode partner item: %w", err)
	}

	ht, ok := models.ParseHousingType(it.Kind)
	if !ok {
		return models.CanonicalListing{}, fmt.Errorf("unknown housing type %q", it.Kind)
	}

	l := models.CanonicalListing{
		OwnerID:     strings.TrimSpace(it.HostID),
		HousingType: ht,
		Title:       strings.TrimSpace(it.Title),
		Description: strings.TrimSpace(it.Summary),
		Address: models.Address{
			City:     strings.TrimSpace(it.Location.City),
			District: strings.TrimSpace(it.Location.District),
			Street:   strings.TrimSpace(it.Location.Street),
			Full:     strings.TrimSpace(it.Location.Address),
		},
		Price: models.Pricing{
			PerDay:   it.Pricing.Nightly.Or(0),
			PerWeek:  it.Pricing.Weekly.Or(0),
			PerMonth: it.Pricing.Monthly.Or(0),
			Currency: strings.ToUpper(strings.TrimSpace(it.Pricing.Currency)),
		},
		Rating:      it.Rating.Ptr(),
		ReviewCount: it.Reviews.Int(),
		Photos:      cleanStrings(it.Images),
		Conditions: models.Conditions{
			Capacity:  it.Guests.Int(),
			Rooms:     it.Rooms.Int(),
			Bedrooms:  it.Bedrooms.Int(),
			Bathrooms: it.Baths.Int(),
			Amenities: cleanStrings(it.Amenities),
			Policies:  cleanStrings(it.Rules),
		},
		SourceUpdatedAt: it.UpdatedAt.Time,
	}

	if it.Location.Lat.Valid && it.Location.Lon.Valid {
		l.Coordinates = &models.GeoPoint{
			Lat:      it.Location.Lat.Value,
			Lng:      it.Location.Lon.Value,
			Accuracy: it.Location.AccuracyM.Ptr(),
		}
	}

	for _, w := range it.Available {
		if w.Start.Time.IsZero() || w.End.Time.IsZero() || !w.End.Time.After(w.Start.Time) {
			continue
		}
		l.Availability = append(l.Availability, models.AvailabilityWindow{From: w.Start.Time, To: w.End.Time})
	}

	if l.Address.Full == "" && composeAddress(l.Address) == "" && l.Coordinates == nil {
		return models.CanonicalListing{}, errMissingLocation
	}
	return l, nil
}
