// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package middleware

import (
	"context"
	"net/http"

	"github.com/tomtom215/staynav/internal/logging"
)

// Header names.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// maxIDLength bounds ids accepted from clients.
const maxIDLength = 128

// RequestID takes X-Request-ID and X-Correlation-ID from the request, or
// generates them, echoes both in the response and stores them in the
// logging context. A correlation id follows a search through the domain
// events it produces.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := sanitizeID(r.Header.Get(HeaderRequestID))
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		correlationID := sanitizeID(r.Header.Get(HeaderCorrelationID))
		if correlationID == "" {
			correlationID = logging.GenerateCorrelationID()
		}

		w.Header().Set(HeaderRequestID, requestID)
		w.Header().Set(HeaderCorrelationID, correlationID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	return logging.RequestIDFromContext(ctx)
}

// sanitizeID drops ids that are too long or carry anything but
// [A-Za-z0-9._-], so they are safe to log and echo.
func sanitizeID(id string) string {
	if id == "" || len(id) > maxIDLength {
		return ""
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return ""
		}
	}
	return id
}
