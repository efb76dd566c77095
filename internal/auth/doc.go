// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package auth verifies the bearer tokens presented to the HTTP API.

Tokens are issued by the external account service and signed with a shared
HS256 secret. This package never issues tokens for users; it only checks the
signature, the time claims and, when configured, the issuer and audience.

# Principal

A verified token becomes a Principal stored in the request context:

	p, ok := auth.PrincipalFromContext(r.Context())
	if ok && p.HasRole(auth.RoleAdmin) { ... }

The "sub" claim is the user id. The "roles" claim lists the principal's
roles; a token without roles gets the configured default role.

# Modes

  - jwt: a valid bearer token is required on every protected route
  - none: development only; every request runs as an anonymous admin

Authorization (which role may call which route) lives in package authz.
*/
package auth
