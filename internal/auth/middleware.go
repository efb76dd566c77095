// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/staynav/internal/config"
	"github.com/tomtom215/staynav/internal/logging"
	"github.com/tomtom215/staynav/internal/models"
)

// Middleware authenticates API requests.
type Middleware struct {
	authMode   string
	jwtManager *JWTManager
}

// NewMiddleware builds the authentication middleware for the configured mode.
func NewMiddleware(cfg *config.SecurityConfig) (*Middleware, error) {
	switch cfg.AuthMode {
	case config.AuthModeNone:
		logging.Warn().Msg("Authentication disabled: every request runs as an anonymous admin")
		return &Middleware{authMode: config.AuthModeNone}, nil
	case config.AuthModeJWT:
		jm, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		return &Middleware{authMode: config.AuthModeJWT, jwtManager: jm}, nil
	default:
		return nil, fmt.Errorf("invalid auth mode: %q", cfg.AuthMode)
	}
}

// Authenticate rejects requests without a valid bearer token and stores the
// Principal in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == config.AuthModeNone {
			anon := &Principal{UserID: AnonymousUserID, Roles: []string{RoleAdmin}}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), anon)))
			return
		}

		token, err := extractBearerToken(r)
		if err != nil {
			writeUnauthorized(w, err)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			writeUnauthorized(w, err)
			return
		}

		p := m.jwtManager.Principal(claims)
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
	})
}

// extractBearerToken reads "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredentials
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: invalid authorization header", ErrInvalidCredentials)
	}
	return strings.TrimSpace(token), nil
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	msg := "invalid token"
	switch {
	case errors.Is(err, ErrNoCredentials):
		msg = "missing bearer token"
	case errors.Is(err, ErrExpiredCredentials):
		msg = "token expired"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="staynav"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: "UNAUTHORIZED", Message: msg},
	})
}
