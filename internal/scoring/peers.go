// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package scoring

import (
	"sort"
	"strings"

	"github.com/tomtom215/staynav/internal/models"
)

type peerKey struct {
	city string
	kind models.HousingType
}

type peerGroup struct {
	sum   float64
	count int
}

// PeerIndex holds the comparable-price groups (same city and housing type)
// of a candidate set. It is immutable once built and does not depend on the
// order of its input.
type PeerIndex struct {
	groups map[peerKey]peerGroup
}

// NewPeerIndex builds the index over listings with a positive daily price.
func NewPeerIndex(listings []models.CanonicalListing) *PeerIndex {
	prices := make(map[peerKey][]float64)
	for i := range listings {
		if p := listings[i].Price.DailyPrice(); p > 0 {
			k := keyOf(&listings[i])
			prices[k] = append(prices[k], p)
		}
	}

	idx := &PeerIndex{groups: make(map[peerKey]peerGroup, len(prices))}
	for k, ps := range prices {
		sort.Float64s(ps)
		var sum float64
		for _, p := range ps {
			sum += p
		}
		idx.groups[k] = peerGroup{sum: sum, count: len(ps)}
	}
	return idx
}

// ComparableAvg returns the average daily price of the other listings in l's
// group; l must be one of the indexed listings. It reports false when l has
// no peers.
func (p *PeerIndex) ComparableAvg(l *models.CanonicalListing) (float64, bool) {
	if p == nil {
		return 0, false
	}
	g, ok := p.groups[keyOf(l)]
	if !ok {
		return 0, false
	}
	sum, n := g.sum, g.count
	if price := l.Price.DailyPrice(); price > 0 {
		sum -= price
		n--
	}
	if n <= 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func keyOf(l *models.CanonicalListing) peerKey {
	return peerKey{city: strings.ToLower(strings.TrimSpace(l.Address.City)), kind: l.HousingType}
}
