// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/staynav/internal/models"
)

// readyTimeout bounds the readiness database ping.
const readyTimeout = 2 * time.Second

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthReady handles readiness probe requests.
// Returns 503 until the database answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.deps.DB == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "database not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := h.deps.DB.Ping(ctx); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "database not ready", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]interface{}{"ready": true, "database": "ok"},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
