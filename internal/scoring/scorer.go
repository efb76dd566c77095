// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package scoring

import (
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/staynav/internal/metrics"
	"github.com/tomtom215/staynav/internal/models"
)

// Input is everything besides the listing that a score depends on.
// Every field is optional.
type Input struct {
	Intent  *models.SearchIntent
	Profile *models.UserPreferenceProfile
	Peers   *PeerIndex
}

// budget prefers the intent budget over the profile budget.
func (in *Input) budget() *models.BudgetRange {
	if in.Intent != nil && in.Intent.Budget != nil {
		return in.Intent.Budget
	}
	if in.Profile != nil {
		return in.Profile.Budget
	}
	return nil
}

// priorities prefers intent priorities over profile priorities.
func (in *Input) priorities() models.PriorityWeights {
	if in.Intent != nil && !in.Intent.Priorities.IsZero() {
		return in.Intent.Priorities
	}
	if in.Profile != nil {
		return in.Profile.Priorities
	}
	return models.PriorityWeights{}
}

// Factors are the six per-factor scores, each within [0,1].
type Factors struct {
	Price        float64 `json:"price"`
	Location     float64 `json:"location"`
	Rating       float64 `json:"rating"`
	Completeness float64 `json:"completeness"`
	Trust        float64 `json:"trust"`
	Preference   float64 `json:"preference"`
}

// Breakdown is a listing's total score with its factor scores.
type Breakdown struct {
	Total   float64 `json:"total"`
	Factors Factors `json:"factors"`
}

// Ranked is one scored candidate. Index is its position in the input.
type Ranked struct {
	Listing   models.CanonicalListing
	Index     int
	Breakdown Breakdown
}

// Scorer computes listing scores. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	cfg     Config
	weights Weights
}

// New creates a scorer.
func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg, weights: cfg.Weights.Normalize()}
}

// Config returns the scorer configuration.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Weights returns the normalized factor weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score is a pure function of its arguments: identical inputs give the
// identical result.
func (s *Scorer) Score(l *models.CanonicalListing, in Input) Breakdown {
	f := Factors{
		Price:        s.priceFactor(l, &in),
		Location:     s.centrality(l, in.Intent),
		Rating:       s.ratingFactor(l),
		Completeness: s.completenessFactor(l),
		Trust:        clamp01(l.TrustScore),
		Preference:   s.preferenceFactor(l, &in),
	}
	w := s.weights
	total := w.Price*f.Price +
		w.Location*f.Location +
		w.Rating*f.Rating +
		w.Completeness*f.Completeness +
		w.Trust*f.Trust +
		w.Preference*f.Preference
	return Breakdown{Total: clamp01(total), Factors: f}
}

// Rank scores every candidate in parallel and sorts by total descending.
// Equal totals keep input order. When in.Peers is nil the peer index is built
// from the candidates.
func (s *Scorer) Rank(listings []models.CanonicalListing, in Input) []Ranked {
	start := time.Now()
	defer func() { metrics.ScoringDuration.Observe(time.Since(start).Seconds()) }()

	if in.Peers == nil {
		in.Peers = NewPeerIndex(listings)
	}

	out := make([]Ranked, len(listings))
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range listings {
		g.Go(func() error {
			out[i] = Ranked{Listing: listings[i], Index: i, Breakdown: s.Score(&listings[i], in)}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Breakdown.Total > out[b].Breakdown.Total
	})
	return out
}
