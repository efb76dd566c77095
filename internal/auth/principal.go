// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package auth

import (
	"context"
	"slices"
)

// Roles known to the API.
const (
	RoleTraveler = "traveler"
	RoleAdmin    = "admin"
)

// AnonymousUserID is the user id of the principal used when auth is disabled.
const AnonymousUserID = "anonymous"

type contextKey string

const principalContextKey contextKey = "principal"

// Principal is an authenticated caller.
type Principal struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the principal holds role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, role)
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// CanActAs reports whether the principal may read or change data owned by
// userID. Admins may act as anyone.
func (p *Principal) CanActAs(userID string) bool {
	if p == nil {
		return false
	}
	return p.IsAdmin() || (p.UserID != "" && p.UserID == userID)
}

// ContextWithPrincipal returns a copy of ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the principal stored by the middleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok && p != nil
}
