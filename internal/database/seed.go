// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/tomtom215/staynav/internal/logging"
	"github.com/tomtom215/staynav/internal/models"
)

// seedCity is a demo city with its centre coordinate.
type seedCity struct {
	name     string
	lat, lng float64
	base     float64 // typical nightly price
}

var seedCities = []seedCity{
	{"Kazan", 55.7963, 49.1088, 3200},
	{"Moscow", 55.7558, 37.6173, 5200},
	{"Saint Petersburg", 59.9386, 30.3141, 4500},
}

// seedOwners cycles over listings. owner-new has no history and lands in
// the lowest owner trust tier.
var seedOwners = []string{"owner-anna", "owner-ildar", "owner-maria", "owner-new"}

var seedAmenities = [][]string{
	{"wifi", "kitchen", "washer"},
	{"wifi", "quiet", "workspace", "air_conditioning"},
	{"wifi", "parking", "balcony", "kitchen", "tv"},
	{"wifi", "soundproofing", "workspace", "kitchen", "dishwasher", "sauna"},
}

var seedStreets = []string{"Bauman St", "Pushkin St", "Kremlin Embankment", "Lenin Ave", "Gorky Park Ln", "Nevsky Ave"}

// SeedMockData inserts a small deterministic catalog with bookings for
// demos and end-to-end tests. It does nothing when the catalog already has
// listings.
func (db *DB) SeedMockData(ctx context.Context) error {
	var existing int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&existing); err != nil {
		return fmt.Errorf("count catalog listings: %w", err)
	}
	if existing > 0 {
		logging.Info().Int("listings", existing).Msg("Catalog already populated, skipping mock data")
		return nil
	}

	logging.Info().Msg("Seeding catalog with mock listings...")

	const perCity = 8
	rng := rand.New(rand.NewPCG(20260301, 42))
	now := db.now().UTC().Truncate(time.Hour)
	types := models.HousingTypes

	listings := 0
	bookings := 0
	for ci, city := range seedCities {
		for i := 0; i < perCity; i++ {
			owner := seedOwners[(ci+i)%len(seedOwners)]
			ht := types[(ci*perCity+i)%len(types)]
			lat := city.lat + (rng.Float64()-0.5)*0.12
			lng := city.lng + (rng.Float64()-0.5)*0.2
			price := city.base * (0.6 + rng.Float64()*0.9)
			rating := 3.6 + rng.Float64()*1.4
			street := seedStreets[(ci+i)%len(seedStreets)]

			l := &models.CanonicalListing{
				ExternalID:  fmt.Sprintf("cat-%d-%02d", ci+1, i+1),
				OwnerID:     owner,
				HousingType: ht,
				Title:       fmt.Sprintf("%s %s near %s", titleFor(ht), city.name, street),
				Description: fmt.Sprintf("Bright %s on %s with fast wifi, fresh linen and self check-in. Ten minutes to the centre of %s by public transport.", ht, street, city.name),
				Address: models.Address{
					City:   city.name,
					Street: fmt.Sprintf("%s %d", street, 3+i*7),
					Full:   fmt.Sprintf("%s %d, %s", street, 3+i*7, city.name),
				},
				Coordinates: &models.GeoPoint{Lat: lat, Lng: lng},
				Price: models.Pricing{
					PerDay:   float64(int(price/50) * 50),
					PerWeek:  float64(int(price*6.3/50) * 50),
					Currency: "RUB",
				},
				Rating:      &rating,
				ReviewCount: 3 + rng.IntN(60),
				Photos:      seedPhotos(ci, i, 1+rng.IntN(6)),
				Conditions: models.Conditions{
					Capacity:  1 + (i % 5),
					Rooms:     1 + (i % 3),
					Bedrooms:  1 + (i % 2),
					Bathrooms: 1,
					Amenities: seedAmenities[i%len(seedAmenities)],
					Policies:  []string{"no smoking", "check-in after 14:00"},
				},
				SourceUpdatedAt: now.Add(-time.Duration(rng.IntN(20*24)) * time.Hour),
				CreatedAt:       now.AddDate(0, -3, 0),
			}
			if owner == "owner-new" {
				// thin listings from an unproven owner
				l.Rating = nil
				l.ReviewCount = 0
				l.Photos = nil
				l.Description = "Cozy place"
			}
			if err := db.InsertCatalogListing(ctx, l); err != nil {
				return fmt.Errorf("failed to seed listing %s: %w", l.ExternalID, err)
			}
			listings++

			if owner == "owner-new" {
				continue
			}
			for b := 0; b < 2+rng.IntN(4); b++ {
				in := now.AddDate(0, 0, -60+b*9)
				err := db.InsertBooking(ctx, &Booking{
					ID:        fmt.Sprintf("bk-%s-%d", l.ExternalID, b),
					ListingID: l.ExternalID,
					UserID:    fmt.Sprintf("guest-%d", rng.IntN(20)),
					Status:    BookingCompleted,
					CheckIn:   in,
					CheckOut:  in.AddDate(0, 0, 3),
				})
				if err != nil {
					return fmt.Errorf("failed to seed booking: %w", err)
				}
				bookings++
			}
			if i%3 == 0 {
				in := now.AddDate(0, 0, 7)
				err := db.InsertBooking(ctx, &Booking{
					ID:        fmt.Sprintf("bk-%s-upcoming", l.ExternalID),
					ListingID: l.ExternalID,
					UserID:    "guest-upcoming",
					Status:    BookingConfirmed,
					CheckIn:   in,
					CheckOut:  in.AddDate(0, 0, 4),
				})
				if err != nil {
					return fmt.Errorf("failed to seed booking: %w", err)
				}
				bookings++
			}
		}
	}

	logging.Info().
		Int("listings", listings).
		Int("bookings", bookings).
		Int("cities", len(seedCities)).
		Msg("Mock data seeded successfully")
	return nil
}

func titleFor(ht models.HousingType) string {
	switch ht {
	case models.HousingApartment:
		return "Apartment in"
	case models.HousingHouse:
		return "House in"
	case models.HousingStudio:
		return "Studio in"
	case models.HousingRoom:
		return "Private room in"
	case models.HousingCottage:
		return "Cottage outside"
	default:
		return "Loft in"
	}
}

func seedPhotos(city, listing, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://images.staynav.example/%d/%02d/%d.jpg", city+1, listing+1, i+1)
	}
	return out
}
