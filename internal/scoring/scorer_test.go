// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package scoring

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/tomtom215/staynav/internal/geo"
	"github.com/tomtom215/staynav/internal/models"
)

func ptr(v float64) *float64 { return &v }

func candidate(id string, price float64) models.CanonicalListing {
	return models.CanonicalListing{
		ID:          id,
		Title:       "Flat " + id,
		HousingType: models.HousingApartment,
		Description: strings.Repeat("Light and calm apartment. ", 3),
		Address:     models.Address{City: "Moscow", Full: "Street " + id},
		Coordinates: &models.GeoPoint{Lat: 55.75, Lng: 37.61},
		Price:       models.Pricing{PerDay: price},
		Rating:      ptr(4.5),
		ReviewCount: 10,
		Photos:      []string{"1.jpg"},
		Conditions:  models.Conditions{Capacity: 2, Amenities: []string{"wifi"}},
		TrustScore:  0.9,
	}
}

func TestPriceFactor_ComparableSet(t *testing.T) {
	t.Parallel()

	s := New(DefaultConfig())
	intent := &models.SearchIntent{Guests: 2, Budget: &models.BudgetRange{Min: 1000, Max: 3000}}

	set := []models.CanonicalListing{candidate("a", 2000), candidate("b", 1500), candidate("c", 2500)}
	peers := NewPeerIndex(set)
	got := s.Score(&set[0], Input{Intent: intent, Peers: peers}).Factors.Price
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("price factor with peer avg 2000 = %v, want 0.5", got)
	}

	alone := candidate("solo", 2000)
	got = s.Score(&alone, Input{Intent: intent}).Factors.Price
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("price factor at budget midpoint = %v, want 0.5", got)
	}
}

func TestPriceFactor_Cases(t *testing.T) {
	t.Parallel()

	s := New(DefaultConfig())
	budget := &models.SearchIntent{Guests: 1, Budget: &models.BudgetRange{Min: 1000, Max: 3000}}

	tests := []struct {
		name   string
		price  float64
		intent *models.SearchIntent
		want   float64
	}{
		{"no peers no budget", 2000, nil, 0.5},
		{"no price", 0, budget, 0.5},
		{"cheaper than midpoint", 1800, budget, 0.65},
		{"far cheaper clamps", 100, budget, 1},
		{"far pricier clamps", 5000, budget, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := candidate("x", tt.price)
			got := s.Score(&l, Input{Intent: tt.intent}).Factors.Price
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("price factor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeerIndex_ExcludesSelfAndOtherGroups(t *testing.T) {
	t.Parallel()

	a := candidate("a", 1000)
	b := candidate("b", 3000)
	other := candidate("c", 9000)
	other.Address.City = "Kazan"
	studio := candidate("d", 9000)
	studio.HousingType = models.HousingStudio
	lower := candidate("e", 2000)
	lower.Address.City = "  MOSCOW "

	idx := NewPeerIndex([]models.CanonicalListing{a, b, other, studio, lower})
	avg, ok := idx.ComparableAvg(&a)
	if !ok || avg != 2500 {
		t.Errorf("ComparableAvg(a) = (%v, %v), want (2500, true)", avg, ok)
	}
	if _, ok := idx.ComparableAvg(&other); ok {
		t.Error("a listing alone in its group has no comparable set")
	}
}

func TestLocationFactor(t *testing.T) {
	t.Parallel()

	s := New(DefaultConfig())
	intent := &models.SearchIntent{Guests: 1, Center: &models.GeoPoint{Lat: 55.75, Lng: 37.61}, RadiusKm: 10}
	kmPerDegree := geo.EarthRadiusKm * math.Pi / 180

	tests := []struct {
		name   string
		offset float64
		want   float64
	}{
		{"same point", 0, 1},
		{"five km", 5, 0.5},
		{"ten km", 10, 0},
		{"twenty km clamps", 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := candidate("x", 2000)
			l.Coordinates = &models.GeoPoint{Lat: 55.75 + tt.offset/kmPerDegree, Lng: 37.61}
			got := s.Score(&l, Input{Intent: intent}).Factors.Location
			if math.Abs(got-tt.want) > 1e-6 || got < 0 {
				t.Errorf("location factor = %v, want %v", got, tt.want)
			}
		})
	}

	l := candidate("x", 2000)
	if got := s.Score(&l, Input{}).Factors.Location; got != 0.5 {
		t.Errorf("location without centre = %v, want 0.5", got)
	}
}

func TestRatingFactor(t *testing.T) {
	t.Parallel()

	s := New(DefaultConfig())
	tests := []struct {
		name    string
		rating  *float64
		reviews int
		want    float64
	}{
		{"absent", nil, 0, 0.3},
		{"perfect saturated", ptr(5), 10, 1},
		{"perfect no reviews", ptr(5), 0, 0.5},
		{"four with five reviews", ptr(4), 5, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := candidate("x", 2000)
			l.Rating = tt.rating
			l.ReviewCount = tt.reviews
			if got := s.Score(&l, Input{}).Factors.Rating; math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("rating factor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreferenceFactor(t *testing.T) {
	t.Parallel()

	s := New(DefaultConfig())
	l := candidate("x", 2000)
	l.Conditions.Amenities = []string{"wifi", "parking"}

	t.Run("no priorities is neutral", func(t *testing.T) {
		if got := s.Score(&l, Input{}).Factors.Preference; got != 0.5 {
			t.Errorf("preference = %v, want 0.5", got)
		}
	})

	t.Run("price priority only", func(t *testing.T) {
		intent := &models.SearchIntent{Guests: 1, Budget: &models.BudgetRange{Min: 1000, Max: 3000},
			Priorities: models.PriorityWeights{Price: 1}}
		if got := s.Score(&l, Input{Intent: intent}).Factors.Preference; got != 1 {
			t.Errorf("preference = %v, want 1 for in-budget price", got)
		}
	})

	t.Run("intent priorities override profile", func(t *testing.T) {
		intent := &models.SearchIntent{Guests: 1, Budget: &models.BudgetRange{Min: 1000, Max: 3000},
			Priorities: models.PriorityWeights{Price: 1}}
		profile := &models.UserPreferenceProfile{UserID: "u", Priorities: models.PriorityWeights{Centrality: 1}}
		if got := s.Score(&l, Input{Intent: intent, Profile: profile}).Factors.Preference; got != 1 {
			t.Errorf("preference = %v, want intent priorities to win", got)
		}
	})

	t.Run("profile attributes", func(t *testing.T) {
		profile := &models.UserPreferenceProfile{UserID: "u", Preferred: []string{"Parking", "pool"}, Avoided: []string{"smoking"}}
		got := s.Score(&l, Input{Profile: profile}).Factors.Preference
		if math.Abs(got-0.75) > 1e-9 {
			t.Errorf("preference = %v, want 0.75", got)
		}
	})
}

func TestPriceFit(t *testing.T) {
	t.Parallel()

	s := New(DefaultConfig())
	b := &models.BudgetRange{Min: 1000, Max: 2000}
	tests := map[float64]float64{
		1500: 1,
		2000: 1,
		2500: 0.5,
		3000: 0,
		750:  0.5,
		0:    0.5,
	}
	for price, want := range tests {
		l := candidate("x", price)
		if got := s.priceFit(&l, b); math.Abs(got-want) > 1e-9 {
			t.Errorf("priceFit(%v) = %v, want %v", price, got, want)
		}
	}
}

func randomListing(rng *rand.Rand, id int) models.CanonicalListing {
	l := models.CanonicalListing{
		ID:          fmt.Sprintf("l%03d", id),
		HousingType: models.HousingTypes[rng.Intn(len(models.HousingTypes))],
		Description: strings.Repeat("x", rng.Intn(120)),
		Address:     models.Address{City: []string{"Moscow", "Kazan", ""}[rng.Intn(3)]},
		Price:       models.Pricing{PerDay: rng.Float64() * 10000, PerWeek: rng.Float64() * 50000},
		ReviewCount: rng.Intn(40) - 5,
		TrustScore:  rng.Float64()*1.4 - 0.2,
		Conditions:  models.Conditions{Capacity: rng.Intn(8), Amenities: make([]string, rng.Intn(15))},
	}
	if rng.Intn(4) > 0 {
		l.Coordinates = &models.GeoPoint{Lat: 55 + rng.Float64(), Lng: 37 + rng.Float64()}
	}
	if rng.Intn(4) > 0 {
		l.Rating = ptr(rng.Float64() * 5)
	}
	return l
}

func randomInput(rng *rand.Rand) Input {
	in := Input{}
	if rng.Intn(3) > 0 {
		in.Intent = &models.SearchIntent{
			Guests:     1 + rng.Intn(6),
			RadiusKm:   rng.Float64() * 30,
			Priorities: models.PriorityWeights{Quiet: rng.Float64(), Centrality: rng.Float64(), Comfort: rng.Float64(), Price: rng.Float64()},
		}
		if rng.Intn(2) == 0 {
			in.Intent.Center = &models.GeoPoint{Lat: 55.5, Lng: 37.5}
		}
		if rng.Intn(2) == 0 {
			lo := rng.Float64() * 5000
			in.Intent.Budget = &models.BudgetRange{Min: lo, Max: lo + rng.Float64()*5000}
		}
	}
	if rng.Intn(2) == 0 {
		in.Profile = &models.UserPreferenceProfile{UserID: "u", Preferred: []string{"wifi"}, Avoided: []string{"pets"}}
	}
	return in
}

func TestScore_BoundedAndDeterministic(t *testing.T) {
	t.Parallel()

	s := New(DefaultConfig())
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		l := randomListing(rng, i)
		in := randomInput(rng)
		in.Peers = NewPeerIndex([]models.CanonicalListing{l, randomListing(rng, i+1)})

		a := s.Score(&l, in)
		b := s.Score(&l, in)
		if a != b {
			t.Fatalf("iteration %d: Score not deterministic: %+v != %+v", i, a, b)
		}
		if a.Total < 0 || a.Total > 1 {
			t.Fatalf("iteration %d: total %v out of range", i, a.Total)
		}
		f := a.Factors
		for name, v := range map[string]float64{
			"price": f.Price, "location": f.Location, "rating": f.Rating,
			"completeness": f.Completeness, "trust": f.Trust, "preference": f.Preference,
		} {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("iteration %d: factor %s = %v out of range", i, name, v)
			}
		}
	}
}

func TestRank_StableUnderShuffle(t *testing.T) {
	t.Parallel()

	s := New(DefaultConfig())
	rng := rand.New(rand.NewSource(9))
	listings := make([]models.CanonicalListing, 60)
	for i := range listings {
		listings[i] = randomListing(rng, i)
	}
	in := randomInput(rng)

	top3 := func(ranked []Ranked) string {
		ids := []string{ranked[0].Listing.ID, ranked[1].Listing.ID, ranked[2].Listing.ID}
		sort.Strings(ids)
		return strings.Join(ids, ",")
	}
	want := top3(s.Rank(listings, in))

	for round := 0; round < 20; round++ {
		shuffled := append([]models.CanonicalListing(nil), listings...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := top3(s.Rank(shuffled, in)); got != want {
			t.Fatalf("round %d: top-3 = %s, want %s", round, got, want)
		}
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	t.Parallel()

	s := New(Config{Weights: Weights{Trust: 1}, DefaultRadiusKm: 10, ReviewSaturation: 10, AmenitySaturation: 10, PriceFitTolerance: 0.5})
	listings := []models.CanonicalListing{candidate("a", 100), candidate("b", 200), candidate("c", 300)}
	listings[2].TrustScore = 1

	ranked := s.Rank(listings, Input{})
	got := []string{ranked[0].Listing.ID, ranked[1].Listing.ID, ranked[2].Listing.ID}
	if strings.Join(got, "") != "cab" {
		t.Errorf("rank order = %v, want [c a b]", got)
	}
	if ranked[1].Index != 0 || ranked[2].Index != 1 {
		t.Errorf("indexes = %d,%d, want 0,1", ranked[1].Index, ranked[2].Index)
	}
}

func TestWeightsNormalize(t *testing.T) {
	t.Parallel()

	w := Weights{Price: 2, Location: 2}.Normalize()
	if w.Price != 0.5 || w.Location != 0.5 || w.Trust != 0 {
		t.Errorf("Normalize() = %+v", w)
	}
	eq := Weights{}.Normalize()
	if math.Abs(eq.Price-1.0/6.0) > 1e-12 {
		t.Errorf("zero weights should normalize to equal weights, got %+v", eq)
	}
	if err := (&Config{Weights: Weights{Price: -1}}).Validate(); err == nil {
		t.Error("Validate() should reject negative weights")
	}
	def := DefaultConfig()
	if err := def.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
