// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package aggregate

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/staynav/internal/models"
)

// coordinatePrecision is the number of decimals coordinates are rounded to
// before hashing (about 11 m).
const coordinatePrecision = 4

var addressFolder = cases.Fold()

// Fingerprint identifies the physical unit behind a listing. Listings with the
// same normalized address, the same coordinates at 4 decimals and the same
// housing type share a fingerprint.
func Fingerprint(l *models.CanonicalListing) string {
	var b strings.Builder
	b.WriteString(NormalizeAddress(l.Address.Full))
	b.WriteByte('|')
	if l.Coordinates != nil {
		b.WriteString(roundCoord(l.Coordinates.Lat))
		b.WriteByte('|')
		b.WriteString(roundCoord(l.Coordinates.Lng))
	} else {
		b.WriteString("-|-")
	}
	b.WriteByte('|')
	b.WriteString(string(l.HousingType))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// NormalizeAddress folds case and unicode forms, drops punctuation and
// collapses whitespace.
func NormalizeAddress(s string) string {
	s = addressFolder.String(norm.NFKC.String(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func roundCoord(v float64) string {
	scale := math.Pow10(coordinatePrecision)
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0 // normalizes -0
	}
	return strconv.FormatFloat(r, 'f', coordinatePrecision, 64)
}
