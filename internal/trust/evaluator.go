// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package trust

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tomtom215/staynav/internal/cache"
	"github.com/tomtom215/staynav/internal/metrics"
	"github.com/tomtom215/staynav/internal/models"
)

// Listing flags, in evaluation order.
const (
	FlagNoPhotos         = "no_photos"
	FlagFewPhotos        = "few_photos"
	FlagShortDescription = "short_description"
	FlagNoCoordinates    = "missing_coordinates"
	FlagLowPrice         = "suspiciously_low_price"
	FlagNoReviews        = "no_rating_or_reviews"
	FlagStale            = "stale"
	FlagLowCompleteness  = "low_completeness"
)

// Owner flags.
const (
	FlagOwnerBookings   = "booking_volume"
	FlagOwnerRating     = "high_rating"
	FlagOwnerReviews    = "review_volume"
	FlagOwnerActive     = "recent_activity"
	FlagOwnerNoSignals  = "signals_unavailable"
	FlagOwnerUnverified = "unverified"
)

// Suppression reasons.
const (
	ReasonOwnerTrust  = "owner_trust"
	ReasonQuality     = "quality"
	ReasonThinContent = "thin_content"
)

// ListingVerdict is the result of evaluating one listing.
type ListingVerdict struct {
	TrustScore   float64  `json:"trust_score"`
	IsSuspicious bool     `json:"is_suspicious"`
	Flags        []string `json:"flags"`
	Completeness float64  `json:"completeness"`
	Multiplier   float64  `json:"multiplier"`
}

// OwnerTrust is the reliability estimate for a host.
type OwnerTrust struct {
	OwnerID    string   `json:"owner_id"`
	IsVerified bool     `json:"is_verified"`
	TrustLevel float64  `json:"trust_level"`
	Flags      []string `json:"flags"`
}

// OwnerSignals are the booking and review aggregates for a host.
type OwnerSignals struct {
	CompletedBookings int
	AverageRating     *float64
	ReviewCount       int
	LastBookingAt     time.Time
}

// SignalStore reads booking and review signals. It is read-only and may be
// eventually consistent.
type SignalStore interface {
	OwnerSignals(ctx context.Context, ownerID string) (OwnerSignals, error)
}

// SourceTrustFunc resolves the declared trust level of a registered source.
type SourceTrustFunc func(sourceID string) (float64, bool)

// Evaluator computes listing and owner trust. It never persists state.
type Evaluator struct {
	cfg         Config
	signals     SignalStore
	sourceTrust SourceTrustFunc
	owners      *cache.Cache[OwnerTrust]
	logger      zerolog.Logger
	now         func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithSourceTrust sets the fallback used for sources without a configured multiplier.
func WithSourceTrust(fn SourceTrustFunc) Option {
	return func(e *Evaluator) { e.sourceTrust = fn }
}

// WithOwnerCache caches owner evaluations.
func WithOwnerCache(c *cache.Cache[OwnerTrust]) Option {
	return func(e *Evaluator) { e.owners = c }
}

// WithLogger sets the evaluator logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) { e.logger = l.With().Str("component", "trust").Logger() }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator creates an evaluator. signals may be nil, in which case every
// owner evaluates to the base level.
func NewEvaluator(cfg Config, signals SignalStore, opts ...Option) *Evaluator {
	e := &Evaluator{
		cfg:     cfg,
		signals: signals,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the evaluator configuration.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// Completeness is the share of the six content fields that are present and valid.
func Completeness(l *models.CanonicalListing, minDescriptionLength int) float64 {
	present := 0
	if len(l.Photos) > 0 {
		present++
	}
	if utf8.RuneCountInString(l.Description) >= minDescriptionLength {
		present++
	}
	if l.HasCoordinates() {
		present++
	}
	if len(l.Conditions.Amenities) > 0 {
		present++
	}
	if l.Rating != nil {
		present++
	}
	if l.Address.Full != "" || l.Address.City != "" {
		present++
	}
	return float64(present) / 6
}

// Completeness computes the completeness ratio with the configured description length.
func (e *Evaluator) Completeness(l *models.CanonicalListing) float64 {
	return Completeness(l, e.cfg.MinDescriptionLength)
}

// EvaluateListing scores a listing. Each weakness subtracts its penalty
// independently; the result is scaled by the source multiplier and clamped.
func (e *Evaluator) EvaluateListing(l *models.CanonicalListing) ListingVerdict {
	cfg := &e.cfg
	score := 1.0
	var flags []string
	penalize := func(flag string, penalty float64) {
		score -= penalty
		flags = append(flags, flag)
	}

	switch n := len(l.Photos); {
	case n == 0:
		penalize(FlagNoPhotos, cfg.NoPhotosPenalty)
	case n < cfg.MinPhotos:
		penalize(FlagFewPhotos, cfg.FewPhotosPenalty)
	}

	if utf8.RuneCountInString(l.Description) < cfg.MinDescriptionLength {
		penalize(FlagShortDescription, cfg.ShortDescriptionPenalty)
	}

	if !l.HasCoordinates() {
		penalize(FlagNoCoordinates, cfg.NoCoordinatesPenalty)
	}

	if floor, ok := cfg.CategoryFloors[string(l.HousingType)]; ok && l.Price.DailyPrice() < floor {
		penalize(FlagLowPrice, cfg.LowPricePenalty)
	}

	if l.Rating == nil && l.ReviewCount == 0 {
		penalize(FlagNoReviews, cfg.NoReviewsPenalty)
	}

	if !l.SourceUpdatedAt.IsZero() && e.now().Sub(l.SourceUpdatedAt) > cfg.StaleAfter {
		penalize(FlagStale, cfg.StalePenalty)
	}

	completeness := Completeness(l, cfg.MinDescriptionLength)
	if completeness < cfg.LowCompletenessBelow {
		penalize(FlagLowCompleteness, cfg.LowCompletenessPenalty)
	}

	multiplier := e.SourceMultiplier(l.Source)
	score = clamp01(score * multiplier)

	v := ListingVerdict{
		TrustScore:   score,
		IsSuspicious: len(flags) >= cfg.SuspiciousFlagCount || score < cfg.SuspiciousBelow,
		Flags:        flags,
		Completeness: completeness,
		Multiplier:   multiplier,
	}
	if v.Flags == nil {
		v.Flags = []string{}
	}
	metrics.RecordTrustEvaluation(v.IsSuspicious)
	return v
}

// SourceMultiplier resolves the per-source multiplier: configured value,
// then the registry's declared trust level, then the default.
func (e *Evaluator) SourceMultiplier(sourceID string) float64 {
	if m, ok := e.cfg.SourceMultipliers[sourceID]; ok {
		return m
	}
	if e.sourceTrust != nil {
		if tl, ok := e.sourceTrust(sourceID); ok {
			return tl
		}
	}
	return e.cfg.DefaultMultiplier
}

// EvaluateOwnerTrust computes a host's trust level from booking and review
// signals. Signal lookup failures yield the base level with a flag.
func (e *Evaluator) EvaluateOwnerTrust(ctx context.Context, ownerID string) OwnerTrust {
	if e.owners == nil {
		return e.evaluateOwner(ctx, ownerID)
	}
	key := "owner:" + ownerID
	if v, ok := e.owners.Get(key); ok {
		return v
	}
	v := e.evaluateOwner(ctx, ownerID)
	if !containsFlag(v.Flags, FlagOwnerNoSignals) {
		e.owners.Set(key, v)
	}
	return v
}

func (e *Evaluator) evaluateOwner(ctx context.Context, ownerID string) OwnerTrust {
	cfg := &e.cfg
	out := OwnerTrust{OwnerID: ownerID, TrustLevel: cfg.OwnerBase, Flags: []string{}}

	if e.signals == nil {
		out.Flags = append(out.Flags, FlagOwnerNoSignals)
		return e.finishOwner(out)
	}
	sig, err := e.signals.OwnerSignals(ctx, ownerID)
	if err != nil {
		e.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("Owner signals unavailable, using base trust")
		out.Flags = append(out.Flags, FlagOwnerNoSignals)
		return e.finishOwner(out)
	}

	if bonus, ok := firstTierAbove(cfg.BookingTiers, float64(sig.CompletedBookings)); ok {
		out.TrustLevel += bonus
		out.Flags = append(out.Flags, FlagOwnerBookings)
	}
	if sig.AverageRating != nil {
		if bonus, ok := firstTierAtLeast(cfg.RatingTiers, *sig.AverageRating); ok {
			out.TrustLevel += bonus
			out.Flags = append(out.Flags, FlagOwnerRating)
		}
	}
	if float64(sig.ReviewCount) > cfg.ReviewVolumeTier.Threshold {
		out.TrustLevel += cfg.ReviewVolumeTier.Bonus
		out.Flags = append(out.Flags, FlagOwnerReviews)
	}
	if !sig.LastBookingAt.IsZero() && e.now().Sub(sig.LastBookingAt) <= cfg.ActivityWindow {
		out.TrustLevel += cfg.ActivityBonus
		out.Flags = append(out.Flags, FlagOwnerActive)
	}
	return e.finishOwner(out)
}

func (e *Evaluator) finishOwner(out OwnerTrust) OwnerTrust {
	out.TrustLevel = clamp01(out.TrustLevel)
	out.IsVerified = out.TrustLevel >= e.cfg.OwnerVerifiedAt-tierEpsilon
	if !out.IsVerified {
		out.Flags = append(out.Flags, FlagOwnerUnverified)
	}
	return out
}

// ShouldSuppress reports whether a candidate must be dropped before scoring,
// and why. The owner rule only applies to listings that carry an owner id.
func (e *Evaluator) ShouldSuppress(ctx context.Context, l *models.CanonicalListing) (bool, string) {
	if l.OwnerID != "" {
		if owner := e.EvaluateOwnerTrust(ctx, l.OwnerID); owner.TrustLevel < e.cfg.OwnerSuppressBelow {
			return true, ReasonOwnerTrust
		}
	}
	return e.suppressByContent(l, e.EvaluateListing(l))
}

// ShouldSuppressWith is ShouldSuppress for a listing already evaluated.
func (e *Evaluator) ShouldSuppressWith(ctx context.Context, l *models.CanonicalListing, v ListingVerdict) (bool, string) {
	if l.OwnerID != "" {
		if owner := e.EvaluateOwnerTrust(ctx, l.OwnerID); owner.TrustLevel < e.cfg.OwnerSuppressBelow {
			return true, ReasonOwnerTrust
		}
	}
	return e.suppressByContent(l, v)
}

func (e *Evaluator) suppressByContent(l *models.CanonicalListing, v ListingVerdict) (bool, string) {
	if v.TrustScore < e.cfg.QualitySuppressBelow {
		return true, ReasonQuality
	}
	if len(l.Photos) == 0 && utf8.RuneCountInString(l.Description) < e.cfg.MinDescriptionLength {
		return true, ReasonThinContent
	}
	return false, ""
}

// tierEpsilon absorbs float drift from summed bonuses.
const tierEpsilon = 1e-9

func firstTierAbove(tiers []Tier, v float64) (float64, bool) {
	for _, t := range tiers {
		if v > t.Threshold {
			return t.Bonus, true
		}
	}
	return 0, false
}

func firstTierAtLeast(tiers []Tier, v float64) (float64, bool) {
	for _, t := range tiers {
		if v >= t.Threshold {
			return t.Bonus, true
		}
	}
	return 0, false
}

func containsFlag(flags []string, f string) bool {
	for _, x := range flags {
		if x == f {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
