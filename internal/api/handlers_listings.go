// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tomtom215/staynav/internal/database"
	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/validation"
)

const defaultListingLimit = 50

// ListingsRequest holds the query parameters of GET /listings.
type ListingsRequest struct {
	City       string  `json:"city" validate:"max=120"`
	Source     string  `json:"source" validate:"max=64"`
	MinTrust   float64 `json:"min_trust" validate:"gte=0,lte=1"`
	PriceMax   float64 `json:"price_max" validate:"gte=0"`
	Suspicious *bool   `json:"suspicious"`
	Limit      int     `json:"limit" validate:"gte=1,lte=500"`
	Offset     int     `json:"offset" validate:"gte=0"`
}

// ListingsPage is the GET /listings payload.
type ListingsPage struct {
	Records    []models.AggregatedRecord `json:"records"`
	Total      int                       `json:"total"`
	Suspicious int                       `json:"suspicious"`
	Hidden     int                       `json:"hidden"`
	Limit      int                       `json:"limit"`
	Offset     int                       `json:"offset"`
}

// parseListingsRequest reads the query string. Parse errors are reported as
// validation errors on the offending parameter.
func parseListingsRequest(q url.Values) (ListingsRequest, *validation.RequestValidationError) {
	req := ListingsRequest{
		City:   q.Get("city"),
		Source: q.Get("source"),
		Limit:  defaultListingLimit,
	}

	floatParam := func(name string, dst *float64) *validation.RequestValidationError {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return validation.NewRequestValidationError(name, "number", fmt.Sprintf("%s must be a number", name))
			}
			*dst = f
		}
		return nil
	}
	intParam := func(name string, dst *int) *validation.RequestValidationError {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return validation.NewRequestValidationError(name, "integer", fmt.Sprintf("%s must be an integer", name))
			}
			*dst = n
		}
		return nil
	}

	for _, verr := range []*validation.RequestValidationError{
		floatParam("min_trust", &req.MinTrust),
		floatParam("price_max", &req.PriceMax),
		intParam("limit", &req.Limit),
		intParam("offset", &req.Offset),
	} {
		if verr != nil {
			return req, verr
		}
	}

	if v := q.Get("suspicious"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, validation.NewRequestValidationError("suspicious", "boolean", "suspicious must be true or false")
		}
		req.Suspicious = &b
	}

	return req, validation.ValidateStruct(&req)
}

// Listings returns visible aggregated records, highest trust first.
func (h *Handler) Listings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, verr := parseListingsRequest(r.URL.Query())
	if verr != nil {
		respondValidation(w, verr)
		return
	}

	records, err := h.deps.Listings.ListVisibleAggregated(r.Context(), database.AggregatedQuery{
		City:       req.City,
		Source:     req.Source,
		MinTrust:   req.MinTrust,
		PriceMax:   req.PriceMax,
		Suspicious: req.Suspicious,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	total, suspicious, hidden, err := h.deps.Listings.CountAggregated(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []models.AggregatedRecord{}
	}

	respondSuccess(w, http.StatusOK, ListingsPage{
		Records:    records,
		Total:      total,
		Suspicious: suspicious,
		Hidden:     hidden,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}, start, len(records))
}
