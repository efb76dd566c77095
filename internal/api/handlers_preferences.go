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

// ownerFromPath returns {userID} when the caller may act on it, and writes
// 403 otherwise.
func ownerFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := chi.URLParam(r, "userID")
	p, _ := auth.PrincipalFromContext(r.Context())
	if !p.CanActAs(userID) {
		respondError(w, r, http.StatusForbidden, codeForbidden, "cannot access another user's preferences", nil)
		return "", false
	}
	return userID, true
}

// GetPreferences returns a user's preference profile.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	p, err := h.deps.Navigator.GetPreferences(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, start, 0)
}

// PutPreferences replaces a user's preference profile. The user id comes
// from the path; a conflicting id in the body is rejected.
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	var profile models.UserPreferenceProfile
	if err := decodeJSON(w, r, &profile); err != nil {
		respondBadBody(w, r, err)
		return
	}
	if profile.UserID != "" && profile.UserID != userID {
		respondError(w, r, http.StatusBadRequest, codeValidation, "user_id does not match the path", nil)
		return
	}
	profile.UserID = userID

	saved, err := h.deps.Navigator.SavePreferences(r.Context(), &profile)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, saved, start, 0)
}

// PreferenceHistory returns past profile states, newest first.
func (h *Handler) PreferenceHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	history, err := h.deps.Navigator.PreferenceHistory(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if history == nil {
		history = []models.PreferenceSnapshot{}
	}
	respondSuccess(w, http.StatusOK, history, start, len(history))
}
