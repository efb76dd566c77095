// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package authz authorizes API requests with Casbin RBAC.

The model (model.conf) matches a role against keyMatch2 path patterns and
an action derived from the HTTP method (GET is read; POST, PUT and PATCH
are write; DELETE is delete). The built-in policy (policy.csv) grants:

  - traveler: search, recommendations and feedback, own preferences, listings
  - admin: everything a traveler can, plus /api/v1/admin/*

security.policy_path replaces the built-in policy with a CSV file in the
same format. Decisions are cached per role, path and action for
security.authz_cache_ttl.

Whether a traveler may touch /users/{userID} for a given userID is a data
ownership question, answered by the handlers with auth.Principal.CanActAs.
*/
package authz
