// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package geo provides great-circle distance and bounding-box helpers
// for WGS84 coordinates.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by every distance computation.
const EarthRadiusKm = 6371.0

// boxPadDeg widens every box edge to absorb floating point rounding.
const boxPadDeg = 1e-6

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// BoundingBox is an axis-aligned lat/lng rectangle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoxAround returns a box that encloses every point within radiusKm of the center.
// The box is a coarse prefilter; callers confirm membership with HaversineKm.
// Near the poles the longitude span widens to the full circle.
func BoxAround(lat, lng, radiusKm float64) BoundingBox {
	angular := radiusKm / EarthRadiusKm
	dLat := angular*180/math.Pi + boxPadDeg
	box := BoundingBox{
		MinLat: math.Max(-90, lat-dLat),
		MaxLat: math.Min(90, lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}

	// Widest longitude reached by the circle: sin(dLng) = sin(r) / cos(lat).
	cosLat := math.Cos(toRadians(lat))
	if angular >= math.Pi/2 || cosLat < 1e-6 {
		return box
	}
	ratio := math.Sin(angular) / cosLat
	if ratio >= 1 {
		return box
	}
	dLng := math.Asin(ratio)*180/math.Pi + boxPadDeg
	box.MinLng = lng - dLng
	box.MaxLng = lng + dLng
	return box
}

// Contains reports whether the point lies inside the box.
// Boxes that cross the antimeridian are handled by wrapping the longitude.
func (b BoundingBox) Contains(lat, lng float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if lng >= b.MinLng && lng <= b.MaxLng {
		return true
	}
	return lng+360 <= b.MaxLng || lng-360 >= b.MinLng
}

// WithinRadius reports whether (lat, lng) is within radiusKm of the center.
func WithinRadius(centerLat, centerLng, lat, lng, radiusKm float64) bool {
	return HaversineKm(centerLat, centerLng, lat, lng) <= radiusKm
}
