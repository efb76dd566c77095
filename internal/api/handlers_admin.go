// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/staynav/internal/logging"
	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/trust"
	"github.com/tomtom215/staynav/internal/validation"
)

// AggregateRequest narrows an admin aggregation run. An empty body pulls
// every source without a filter.
type AggregateRequest struct {
	City     string           `json:"city,omitempty" validate:"max=120"`
	Center   *models.GeoPoint `json:"center,omitempty"`
	RadiusKm float64          `json:"radius_km,omitempty" validate:"gte=0,lte=500"`
	Guests   int              `json:"guests,omitempty" validate:"gte=0,lte=50"`
	PriceMin float64          `json:"price_min,omitempty" validate:"gte=0"`
	PriceMax float64          `json:"price_max,omitempty" validate:"gte=0"`
	Limit    int              `json:"limit,omitempty" validate:"gte=0,lte=10000"`
}

// Filter converts the request into a listing filter.
func (a *AggregateRequest) Filter() models.ListingFilter {
	return models.ListingFilter{
		City:      a.City,
		Center:    a.Center,
		RadiusKm:  a.RadiusKm,
		PriceMin:  a.PriceMin,
		PriceMax:  a.PriceMax,
		MinGuests: a.Guests,
		Limit:     a.Limit,
	}
}

// EvaluationResult is the POST /admin/trust/evaluate payload.
type EvaluationResult struct {
	Verdict        trust.ListingVerdict `json:"verdict"`
	Suppressed     bool                 `json:"suppressed"`
	SuppressReason string               `json:"suppress_reason,omitempty"`
}

// runShared runs fn once for all concurrent callers of key. The run is
// detached from the first caller's cancellation and bounded by AdminTimeout.
func (h *Handler) runShared(r *http.Request, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, bool, error) {
	ctx := context.WithoutCancel(r.Context())
	v, err, shared := h.flights.Do(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, h.deps.AdminTimeout)
		defer cancel()
		logging.Ctx(ctx).Info().Str("operation", key).Msg("Admin run started")
		return fn(ctx)
	})
	return v, shared, err
}

// AdminAggregate runs aggregation over every registered source.
func (h *Handler) AdminAggregate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Aggregator == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "aggregation is not configured", nil)
		return
	}

	var req AggregateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondBadBody(w, r, err)
			return
		}
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, verr)
		return
	}

	// Runs with different filters are independent.
	filterKey, err := json.Marshal(req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	key := "aggregate:" + string(filterKey)
	v, shared, _ := h.runShared(r, key, func(ctx context.Context) (interface{}, error) {
		return h.deps.Aggregator.Aggregate(ctx, req.Filter()), nil
	})
	w.Header().Set("X-Shared-Run", boolHeader(shared))
	respondSuccess(w, http.StatusOK, v, start, 0)
}

// AdminSync runs an incremental sync of every puller.
func (h *Handler) AdminSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Aggregator == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "aggregation is not configured", nil)
		return
	}

	v, shared, _ := h.runShared(r, "sync", func(ctx context.Context) (interface{}, error) {
		return h.deps.Aggregator.SyncSources(ctx), nil
	})
	w.Header().Set("X-Shared-Run", boolHeader(shared))
	respondSuccess(w, http.StatusOK, v, start, 0)
}

// AdminReevaluate runs the trust re-evaluation pass.
func (h *Handler) AdminReevaluate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Reevaluator == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "trust re-evaluation is not configured", nil)
		return
	}

	v, shared, err := h.runShared(r, "reevaluate", func(ctx context.Context) (interface{}, error) {
		return h.deps.Reevaluator.Run(ctx)
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.Header().Set("X-Shared-Run", boolHeader(shared))
	respondSuccess(w, http.StatusOK, v, start, 0)
}

// AdminEvaluate evaluates a posted listing without persisting anything.
func (h *Handler) AdminEvaluate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Evaluator == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "trust evaluation is not configured", nil)
		return
	}

	var listing models.CanonicalListing
	if err := decodeJSON(w, r, &listing); err != nil {
		respondBadBody(w, r, err)
		return
	}

	verdict := h.deps.Evaluator.EvaluateListing(&listing)
	hide, reason := h.deps.Evaluator.ShouldSuppressWith(r.Context(), &listing, verdict)
	respondSuccess(w, http.StatusOK, EvaluationResult{
		Verdict:        verdict,
		Suppressed:     hide,
		SuppressReason: reason,
	}, start, 0)
}

func boolHeader(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
