// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/staynav/internal/auth"
	"github.com/tomtom215/staynav/internal/models"
)

// FeedbackRequest is the body of POST /recommendations/{id}/feedback.
type FeedbackRequest struct {
	Feedback models.Feedback `json:"feedback"`
}

// Search runs the navigator for the posted intent. The caller's user id,
// when authenticated, selects the preference profile.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var intent models.SearchIntent
	if err := decodeJSON(w, r, &intent); err != nil {
		respondBadBody(w, r, err)
		return
	}

	userID := ""
	if p, ok := auth.PrincipalFromContext(r.Context()); ok && p.UserID != auth.AnonymousUserID {
		userID = p.UserID
	}

	out, err := h.deps.Navigator.Recommend(r.Context(), userID, intent)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	count := len(out.Alternatives)
	if out.BestMatch != nil {
		count++
	}
	respondSuccess(w, http.StatusOK, out, start, count)
}

// GetRecommendation returns a persisted recommendation.
func (h *Handler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	rec, err := h.deps.Navigator.GetRecommendation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, rec, start, 0)
}

// SubmitFeedback attaches liked or disliked feedback to a recommendation.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req FeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadBody(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.deps.Navigator.SubmitFeedback(r.Context(), id, req.Feedback); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"recommendation_id": id,
		"feedback":          req.Feedback,
	}, start, 0)
}
