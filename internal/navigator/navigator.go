// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package navigator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/staynav/internal/metrics"
	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/scoring"
	"github.com/tomtom215/staynav/internal/source"
	"github.com/tomtom215/staynav/internal/trust"
	"github.com/tomtom215/staynav/internal/validation"
)

var (
	// ErrInvalidIntent is returned before any persistence when the intent
	// fails validation. It wraps the *validation.RequestValidationError.
	ErrInvalidIntent = errors.New("invalid search intent")

	// ErrRecommendationNotFound is returned for unknown recommendation ids.
	ErrRecommendationNotFound = errors.New("recommendation not found")

	// ErrProfileNotFound is returned when a user has no preference profile.
	ErrProfileNotFound = errors.New("preference profile not found")

	// ErrInvalidFeedback is returned for feedback other than liked or disliked.
	ErrInvalidFeedback = errors.New("feedback must be liked or disliked")

	// ErrInvalidProfile wraps profile validation failures.
	ErrInvalidProfile = errors.New("invalid preference profile")
)

// Domain events.
const (
	EventRecommendationCreated = "recommendation.created"
	EventFeedbackRecorded      = "recommendation.feedback"
	EventPreferencesUpdated    = "preferences.updated"
)

// Metric outcomes.
const (
	outcomeMatched = "matched"
	outcomeNoMatch = "no_match"
	outcomeInvalid = "invalid_intent"
	outcomeError   = "error"
)

const failSessionTimeout = 5 * time.Second

// Match is one recommended listing with its score breakdown.
type Match struct {
	Listing models.CanonicalListing `json:"listing"`
	Score   float64                 `json:"score"`
	Factors scoring.Factors         `json:"factors"`
}

// Outcome is the result of a navigator run.
type Outcome struct {
	SessionID        string               `json:"session_id"`
	Status           models.SessionStatus `json:"status"`
	RecommendationID string               `json:"recommendation_id,omitempty"`
	BestMatch        *Match               `json:"best_match,omitempty"`
	Alternatives     []Match              `json:"alternatives"`
	Explanation      *models.Explanation  `json:"explanation,omitempty"`
	CandidateCount   int                  `json:"candidate_count"`
	SuppressedCount  int                  `json:"suppressed_count"`
}

// Navigator sequences one search from intent to persisted recommendation.
type Navigator struct {
	cfg        Config
	scorer     *scoring.Scorer
	evaluator  *trust.Evaluator
	catalog    Catalog
	aggregator Aggregator
	store      Store
	events     Emitter
	logger     zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithCatalog sets the catalog used in catalog mode and for availability checks.
func WithCatalog(c Catalog) Option {
	return func(n *Navigator) { n.catalog = c }
}

// WithAggregator sets the aggregator used in aggregate mode.
func WithAggregator(a Aggregator) Option {
	return func(n *Navigator) { n.aggregator = a }
}

// WithEmitter publishes navigator events.
func WithEmitter(e Emitter) Option {
	return func(n *Navigator) { n.events = e }
}

// WithLogger sets the navigator logger.
func WithLogger(l zerolog.Logger) Option {
	return func(n *Navigator) { n.logger = l.With().Str("component", "navigator").Logger() }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) { n.now = now }
}

// WithIDGenerator overrides row id generation.
func WithIDGenerator(fn func() string) Option {
	return func(n *Navigator) { n.newID = fn }
}

// New creates a navigator.
func New(cfg Config, scorer *scoring.Scorer, evaluator *trust.Evaluator, store Store, opts ...Option) (*Navigator, error) {
	n := &Navigator{
		cfg:       cfg,
		scorer:    scorer,
		evaluator: evaluator,
		store:     store,
		logger:    zerolog.Nop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(n)
	}
	switch {
	case cfg.Mode == ModeCatalog && n.catalog == nil:
		return nil, errors.New("navigator: catalog mode requires a catalog")
	case cfg.Mode == ModeAggregate && n.aggregator == nil:
		return nil, errors.New("navigator: aggregate mode requires an aggregator")
	}
	return n, nil
}

// Recommend runs one search. An invalid intent is rejected before anything is
// persisted; an empty candidate set is the no-match outcome, not an error.
func (n *Navigator) Recommend(ctx context.Context, userID string, intent models.SearchIntent) (*Outcome, error) {
	if verr := validation.ValidateStruct(&intent); verr != nil {
		metrics.RecordRecommendation(outcomeInvalid)
		return nil, fmt.Errorf("%w: %w", ErrInvalidIntent, verr)
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.RequestTimeout)
	defer cancel()

	session, err := n.openSession(ctx, userID, &intent)
	if err != nil {
		metrics.RecordRecommendation(outcomeError)
		return nil, err
	}
	log := n.logger.With().Str("session_id", session.ID).Logger()

	profile := n.loadProfile(ctx, userID)

	candidates, err := n.retrieve(ctx, &intent)
	if err != nil {
		n.failSession(ctx, session.ID, err)
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}

	survivors := n.suppress(ctx, candidates)
	out := &Outcome{
		SessionID:       session.ID,
		Alternatives:    []Match{},
		CandidateCount:  len(candidates),
		SuppressedCount: len(candidates) - len(survivors),
	}

	ranked := n.scorer.Rank(survivors, scoring.Input{Intent: &intent, Profile: profile})
	if len(ranked) == 0 {
		out.Status = models.SessionNoMatch
		if err := n.store.CompleteSession(ctx, session.ID, models.SessionNoMatch, 0, ""); err != nil {
			n.failSession(ctx, session.ID, err)
			return nil, fmt.Errorf("complete session: %w", err)
		}
		metrics.RecordRecommendation(outcomeNoMatch)
		log.Info().Int("candidates", len(candidates)).Msg("No match for search")
		return out, nil
	}

	best, alternatives := n.selectMatches(ranked)
	explanation := n.scorer.GetExplanation(&ranked[0].Listing, ranked[0].Breakdown)

	ids := make([]string, 0, 1+len(alternatives))
	ids = append(ids, best.Listing.ID)
	for _, a := range alternatives {
		ids = append(ids, a.Listing.ID)
	}
	rec := &models.Recommendation{
		ID:          n.newID(),
		SessionID:   session.ID,
		ListingIDs:  ids,
		Explanation: explanation,
		Score:       best.Score,
		CreatedAt:   n.now().UTC(),
	}
	if err := n.store.CreateRecommendation(ctx, rec); err != nil {
		n.failSession(ctx, session.ID, err)
		return nil, fmt.Errorf("create recommendation: %w", err)
	}
	if err := n.store.CompleteSession(ctx, session.ID, models.SessionMatched, len(ranked), best.Listing.ID); err != nil {
		n.failSession(ctx, session.ID, err)
		return nil, fmt.Errorf("complete session: %w", err)
	}

	metrics.RecordRecommendation(outcomeMatched)
	n.emit(ctx, EventRecommendationCreated, rec.ID, map[string]any{
		"session_id":  session.ID,
		"listing_ids": ids,
		"score":       best.Score,
		"primary":     explanation.PrimaryReason,
	})
	log.Info().
		Str("recommendation_id", rec.ID).
		Str("best_listing", best.Listing.ID).
		Float64("score", best.Score).
		Int("candidates", len(candidates)).
		Int("suppressed", out.SuppressedCount).
		Msg("Recommendation created")

	out.Status = models.SessionMatched
	out.RecommendationID = rec.ID
	out.BestMatch = &best
	out.Alternatives = alternatives
	out.Explanation = &explanation
	return out, nil
}

// failSession closes a session whose search aborted. It runs on a context
// detached from the request so an expired deadline still gets the write.
func (n *Navigator) failSession(ctx context.Context, sessionID string, cause error) {
	metrics.RecordRecommendation(outcomeError)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failSessionTimeout)
	defer cancel()
	if err := n.store.CompleteSession(ctx, sessionID, models.SessionFailed, 0, ""); err != nil {
		n.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to close aborted session")
		return
	}
	n.logger.Warn().Err(cause).Str("session_id", sessionID).Msg("Search aborted, session closed as failed")
}

func (n *Navigator) openSession(ctx context.Context, userID string, intent *models.SearchIntent) (*models.SearchSession, error) {
	raw, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("encode intent: %w", err)
	}
	now := n.now().UTC()
	s := &models.SearchSession{
		ID:        n.newID(),
		UserID:    userID,
		Intent:    raw,
		Status:    models.SessionOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := n.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// loadProfile returns nil for anonymous users, missing profiles and lookup
// failures; preferences only refine scoring.
func (n *Navigator) loadProfile(ctx context.Context, userID string) *models.UserPreferenceProfile {
	if userID == "" {
		return nil
	}
	p, err := n.store.GetPreferences(ctx, userID)
	switch {
	case err == nil:
		return p
	case errors.Is(err, models.ErrNotFound):
		return nil
	default:
		n.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to load preferences, scoring without them")
		return nil
	}
}

func (n *Navigator) retrieve(ctx context.Context, intent *models.SearchIntent) ([]models.CanonicalListing, error) {
	filter := models.FilterFromIntent(intent, n.scorer.Config().DefaultRadiusKm, n.cfg.CandidateLimit)

	var candidates []models.CanonicalListing
	if n.cfg.Mode == ModeAggregate {
		candidates = n.aggregator.Aggregate(ctx, filter).Listings
	} else {
		found, err := n.catalog.FindActiveByFilter(ctx, filter)
		if err != nil {
			return nil, err
		}
		for i := range found {
			found[i].TrustScore = n.evaluator.EvaluateListing(&found[i]).TrustScore
		}
		candidates = found
	}

	if !intent.HasDates() {
		return candidates, nil
	}
	available := candidates[:0]
	for i := range candidates {
		if n.bookable(ctx, &candidates[i], intent.CheckIn, intent.CheckOut) {
			available = append(available, candidates[i])
		}
	}
	return available, nil
}

// bookable checks catalog listings against bookings and every listing against
// its own availability windows. A failed booking lookup excludes the listing.
func (n *Navigator) bookable(ctx context.Context, l *models.CanonicalListing, checkIn, checkOut time.Time) bool {
	if !l.CoversStay(checkIn, checkOut) {
		return false
	}
	if l.Source != source.CatalogSourceID || n.catalog == nil {
		return true
	}
	ok, err := n.catalog.IsAvailable(ctx, l.ExternalID, checkIn, checkOut)
	if err != nil {
		n.logger.Warn().Err(err).Str("listing_id", l.ID).Msg("Availability check failed, excluding listing")
		return false
	}
	return ok
}

func (n *Navigator) suppress(ctx context.Context, candidates []models.CanonicalListing) []models.CanonicalListing {
	out := make([]models.CanonicalListing, 0, len(candidates))
	for i := range candidates {
		l := &candidates[i]
		verdict := trust.ListingVerdict{TrustScore: l.TrustScore}
		if hide, reason := n.evaluator.ShouldSuppressWith(ctx, l, verdict); hide {
			metrics.SuppressedCandidates.WithLabelValues(reason).Inc()
			n.logger.Debug().Str("listing_id", l.ID).Str("reason", reason).Msg("Candidate suppressed")
			continue
		}
		out = append(out, *l)
	}
	return out
}

// selectMatches takes rank 0 as the best match and the next distinct listings
// as alternatives.
func (n *Navigator) selectMatches(ranked []scoring.Ranked) (Match, []Match) {
	toMatch := func(r *scoring.Ranked) Match {
		return Match{Listing: r.Listing, Score: r.Breakdown.Total, Factors: r.Breakdown.Factors}
	}
	best := toMatch(&ranked[0])
	seen := map[string]struct{}{best.Listing.ID: {}}
	alternatives := make([]Match, 0, n.cfg.Alternatives)
	for i := 1; i < len(ranked) && len(alternatives) < n.cfg.Alternatives; i++ {
		if _, dup := seen[ranked[i].Listing.ID]; dup {
			continue
		}
		seen[ranked[i].Listing.ID] = struct{}{}
		alternatives = append(alternatives, toMatch(&ranked[i]))
	}
	return best, alternatives
}

// GetRecommendation returns a persisted recommendation.
func (n *Navigator) GetRecommendation(ctx context.Context, id string) (*models.Recommendation, error) {
	rec, err := n.store.GetRecommendation(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecommendationNotFound, id)
	}
	return rec, err
}

// SubmitFeedback attaches liked or disliked feedback to a recommendation.
// It never re-runs scoring.
func (n *Navigator) SubmitFeedback(ctx context.Context, recommendationID string, fb models.Feedback) error {
	if fb != models.FeedbackLiked && fb != models.FeedbackDisliked {
		return fmt.Errorf("%w: got %q", ErrInvalidFeedback, fb)
	}
	err := n.store.SetFeedback(ctx, recommendationID, fb, n.now().UTC())
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrRecommendationNotFound, recommendationID)
	}
	if err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	metrics.FeedbackTotal.WithLabelValues(string(fb)).Inc()
	n.emit(ctx, EventFeedbackRecorded, recommendationID, map[string]any{"feedback": fb})
	return nil
}

func (n *Navigator) emit(ctx context.Context, eventType, id string, payload any) {
	if n.events != nil {
		n.events.Emit(ctx, eventType, id, payload)
	}
}
