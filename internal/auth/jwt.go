// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/staynav/internal/config"
)

// Token errors.
var (
	ErrNoCredentials      = errors.New("no credentials provided")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpiredCredentials = errors.New("credentials expired")
)

// Claims are the JWT claims issued by the account service.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager validates HS256 tokens.
type JWTManager struct {
	secret      []byte
	issuer      string
	audience    string
	leeway      time.Duration
	defaultRole string
	now         func() time.Time
}

// NewJWTManager creates a token validator from the security config.
// It fails when the secret is empty.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required but was empty")
	}
	role := cfg.DefaultRole
	if role == "" {
		role = RoleTraveler
	}
	return &JWTManager{
		secret:      []byte(cfg.JWTSecret),
		issuer:      cfg.Issuer,
		audience:    cfg.Audience,
		leeway:      cfg.ClockSkew,
		defaultRole: role,
		now:         time.Now,
	}, nil
}

// ValidateToken checks the token and returns its claims.
//
// Only HMAC-SHA256 is accepted. exp and nbf are checked with the configured
// clock skew; iss and aud only when configured. A token without a subject
// is rejected.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoCredentials
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.leeway),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrExpiredCredentials, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidCredentials)
	}
	return claims, nil
}

// Principal converts verified claims into a Principal.
func (m *JWTManager) Principal(claims *Claims) *Principal {
	roles := claims.Roles
	if len(roles) == 0 {
		roles = []string{m.defaultRole}
	}
	return &Principal{UserID: claims.Subject, Roles: roles}
}
