// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/staynav/internal/geo"
	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/trust"
)

// CatalogSource is the source tag carried by listings read from the catalog.
const CatalogSource = "catalog"

// Booking statuses. Confirmed and pending bookings block availability;
// completed bookings feed owner trust.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Booking is one catalog booking row.
type Booking struct {
	ID        string
	ListingID string
	OwnerID   string
	UserID    string
	Status    string
	CheckIn   time.Time
	CheckOut  time.Time
	CreatedAt time.Time
}

// listingDetails holds the non-filterable parts of a catalog listing.
type listingDetails struct {
	Photos       []string                    `json:"photos,omitempty"`
	Amenities    []string                    `json:"amenities,omitempty"`
	Policies     []string                    `json:"policies,omitempty"`
	Rooms        int                         `json:"rooms,omitempty"`
	Bedrooms     int                         `json:"bedrooms,omitempty"`
	Bathrooms    int                         `json:"bathrooms,omitempty"`
	Availability []models.AvailabilityWindow `json:"availability,omitempty"`
}

const listingColumns = `id, COALESCE(owner_id, ''), housing_type, title, description,
	city, district, street, full_address, latitude, longitude, geo_accuracy,
	price_per_day, price_per_week, price_per_month, currency,
	rating, review_count, capacity, details, updated_at, created_at`

// InsertCatalogListing writes a listing into the catalog. l.ExternalID is
// the catalog id; it falls back to l.ID when empty.
func (db *DB) InsertCatalogListing(ctx context.Context, l *models.CanonicalListing) (err error) {
	start := time.Now()
	defer func() { observe("insert", "listings", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	id := l.ExternalID
	if id == "" {
		id = l.ID
	}
	if id == "" {
		return fmt.Errorf("catalog listing has no id")
	}

	details, err := json.Marshal(listingDetails{
		Photos:       l.Photos,
		Amenities:    l.Conditions.Amenities,
		Policies:     l.Conditions.Policies,
		Rooms:        l.Conditions.Rooms,
		Bedrooms:     l.Conditions.Bedrooms,
		Bathrooms:    l.Conditions.Bathrooms,
		Availability: l.Availability,
	})
	if err != nil {
		return fmt.Errorf("encode listing details: %w", err)
	}

	var lat, lng, acc sql.NullFloat64
	if l.Coordinates != nil {
		lat = sql.NullFloat64{Float64: l.Coordinates.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: l.Coordinates.Lng, Valid: true}
		if l.Coordinates.Accuracy != nil {
			acc = sql.NullFloat64{Float64: *l.Coordinates.Accuracy, Valid: true}
		}
	}

	now := db.now().UTC()
	updatedAt := l.SourceUpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO listings (id, owner_id, housing_type, title, description,
			city, district, street, full_address, latitude, longitude, geo_accuracy,
			price_per_day, price_per_week, price_per_month, daily_price, currency,
			rating, review_count, capacity, details, is_active, updated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?, ?)`,
		id, nullString(l.OwnerID), string(l.HousingType), l.Title, l.Description,
		l.Address.City, l.Address.District, l.Address.Street, l.Address.Full, lat, lng, acc,
		l.Price.PerDay, l.Price.PerWeek, l.Price.PerMonth, l.Price.DailyPrice(), l.Price.Currency,
		nullFloat(l.Rating), l.ReviewCount, l.Conditions.Capacity, string(details),
		updatedAt.UTC(), createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert catalog listing %s: %w", id, err)
	}
	return nil
}

// SetListingActive toggles whether a catalog listing is offered.
func (db *DB) SetListingActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE listings SET is_active = ?, updated_at = ? WHERE id = ?`, active, db.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update listing %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	return nil
}

// FindActiveByFilter returns active catalog listings matching the filter's
// city, radius, price range and capacity, ordered by id. Radius filtering
// uses a bounding box in SQL and exact haversine distance afterwards.
func (db *DB) FindActiveByFilter(ctx context.Context, filter models.ListingFilter) (out []models.CanonicalListing, err error) {
	start := time.Now()
	defer func() { observe("select", "listings", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		where = []string{"is_active"}
		args  []any
	)
	if city := strings.TrimSpace(filter.City); city != "" {
		where = append(where, "lower(city) = lower(?)")
		args = append(args, city)
	}
	radius := filter.Center != nil && filter.RadiusKm > 0
	if radius {
		box := geo.BoxAround(filter.Center.Lat, filter.Center.Lng, filter.RadiusKm)
		where = append(where, "latitude IS NOT NULL", "longitude IS NOT NULL",
			"latitude BETWEEN ? AND ?")
		args = append(args, box.MinLat, box.MaxLat)
		if box.MinLng >= -180 && box.MaxLng <= 180 {
			where = append(where, "longitude BETWEEN ? AND ?")
			args = append(args, box.MinLng, box.MaxLng)
		}
	}
	if filter.PriceMin > 0 {
		where = append(where, "daily_price >= ?")
		args = append(args, filter.PriceMin)
	}
	if filter.PriceMax > 0 {
		where = append(where, "daily_price <= ?")
		args = append(args, filter.PriceMax)
	}
	if filter.MinGuests > 0 {
		where = append(where, "capacity >= ?")
		args = append(args, filter.MinGuests)
	}

	query := "SELECT " + listingColumns + " FROM listings WHERE " + strings.Join(where, " AND ") + " ORDER BY id"
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog listings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		if radius && !geo.WithinRadius(filter.Center.Lat, filter.Center.Lng, l.Coordinates.Lat, l.Coordinates.Lng, filter.RadiusKm) {
			continue
		}
		out = append(out, l)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, rows.Err()
}

// ListingsUpdatedSince returns active catalog listings changed after since,
// oldest change first.
func (db *DB) ListingsUpdatedSince(ctx context.Context, since time.Time, limit int) (out []models.CanonicalListing, err error) {
	start := time.Now()
	defer func() { observe("select_updated", "listings", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 5000
	}
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+listingColumns+" FROM listings WHERE is_active AND updated_at > ? ORDER BY updated_at, id LIMIT ?",
		since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query updated listings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetCatalogListing returns one catalog listing by catalog id.
func (db *DB) GetCatalogListing(ctx context.Context, id string) (*models.CanonicalListing, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM listings WHERE id = ?", id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// IsAvailable reports whether no confirmed or pending booking of the catalog
// listing overlaps [checkIn, checkOut).
func (db *DB) IsAvailable(ctx context.Context, catalogID string, checkIn, checkOut time.Time) (ok bool, err error) {
	start := time.Now()
	defer func() { observe("availability", "bookings", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var overlapping int
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE listing_id = ?
		  AND status IN (?, ?)
		  AND check_in < ?
		  AND check_out > ?`,
		catalogID, BookingConfirmed, BookingPending, checkOut.UTC(), checkIn.UTC(),
	).Scan(&overlapping)
	if err != nil {
		return false, fmt.Errorf("check availability of %s: %w", catalogID, err)
	}
	return overlapping == 0, nil
}

// InsertBooking records a booking. The owner id is copied from the listing
// when b.OwnerID is empty.
func (db *DB) InsertBooking(ctx context.Context, b *Booking) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if !b.CheckOut.After(b.CheckIn) {
		return fmt.Errorf("booking %s: check-out must be after check-in", b.ID)
	}
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = db.now().UTC()
	}
	ownerID := b.OwnerID
	if ownerID == "" {
		var owner sql.NullString
		err := db.conn.QueryRowContext(ctx, `SELECT owner_id FROM listings WHERE id = ?`, b.ListingID).Scan(&owner)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("resolve owner of %s: %w", b.ListingID, err)
		}
		ownerID = owner.String
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO bookings (id, listing_id, owner_id, user_id, status, check_in, check_out, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ListingID, nullString(ownerID), nullString(b.UserID), b.Status,
		b.CheckIn.UTC(), b.CheckOut.UTC(), createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert booking %s: %w", b.ID, err)
	}
	return nil
}

// OwnerSignals aggregates booking and review signals for an owner across
// their catalog listings.
func (db *DB) OwnerSignals(ctx context.Context, ownerID string) (sig trust.OwnerSignals, err error) {
	start := time.Now()
	defer func() { observe("owner_signals", "bookings", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var last sql.NullTime
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), MAX(check_out) FROM bookings
		WHERE owner_id = ? AND status = ?`, ownerID, BookingCompleted,
	).Scan(&sig.CompletedBookings, &last)
	if err != nil {
		return sig, fmt.Errorf("owner %s bookings: %w", ownerID, err)
	}
	if last.Valid {
		sig.LastBookingAt = last.Time
	}

	var avg sql.NullFloat64
	var reviews sql.NullInt64
	err = db.conn.QueryRowContext(ctx, `
		SELECT SUM(rating * review_count) / NULLIF(CAST(SUM(CASE WHEN rating IS NOT NULL THEN review_count ELSE 0 END) AS DOUBLE), 0),
		       CAST(SUM(review_count) AS BIGINT)
		FROM listings WHERE owner_id = ?`, ownerID,
	).Scan(&avg, &reviews)
	if err != nil {
		return sig, fmt.Errorf("owner %s reviews: %w", ownerID, err)
	}
	if avg.Valid {
		v := avg.Float64
		sig.AverageRating = &v
	}
	sig.ReviewCount = int(reviews.Int64)
	return sig, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (models.CanonicalListing, error) {
	var (
		l                models.CanonicalListing
		housingType      string
		lat, lng, acc    sql.NullFloat64
		rating           sql.NullFloat64
		details          string
		updated, created time.Time
	)
	err := row.Scan(&l.ExternalID, &l.OwnerID, &housingType, &l.Title, &l.Description,
		&l.Address.City, &l.Address.District, &l.Address.Street, &l.Address.Full, &lat, &lng, &acc,
		&l.Price.PerDay, &l.Price.PerWeek, &l.Price.PerMonth, &l.Price.Currency,
		&rating, &l.ReviewCount, &l.Conditions.Capacity, &details, &updated, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return l, err
	}
	if err != nil {
		return l, fmt.Errorf("scan listing: %w", err)
	}

	l.Source = CatalogSource
	l.ID = models.ListingID(CatalogSource, l.ExternalID)
	l.HousingType = models.HousingType(housingType)
	if lat.Valid && lng.Valid {
		l.Coordinates = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		if acc.Valid {
			v := acc.Float64
			l.Coordinates.Accuracy = &v
		}
	}
	if rating.Valid {
		v := rating.Float64
		l.Rating = &v
	}
	l.SourceUpdatedAt = updated.UTC()
	l.CreatedAt = created.UTC()

	var d listingDetails
	if err := json.Unmarshal([]byte(details), &d); err != nil {
		return l, fmt.Errorf("decode details of listing %s: %w", l.ExternalID, err)
	}
	l.Photos = d.Photos
	l.Conditions.Amenities = d.Amenities
	l.Conditions.Policies = d.Policies
	l.Conditions.Rooms = d.Rooms
	l.Conditions.Bedrooms = d.Bedrooms
	l.Conditions.Bathrooms = d.Bathrooms
	l.Availability = d.Availability
	return l, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
