// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package api serves the StayNav HTTP API with the chi router.

# Endpoints

	GET  /api/v1/health/live                         liveness
	GET  /api/v1/health/ready                        readiness (database ping)
	GET  /metrics                                    Prometheus metrics
	POST /api/v1/search                              run the navigator
	GET  /api/v1/recommendations/{id}                fetch a recommendation
	POST /api/v1/recommendations/{id}/feedback       liked or disliked
	GET  /api/v1/users/{userID}/preferences          read a preference profile
	PUT  /api/v1/users/{userID}/preferences          write a preference profile
	GET  /api/v1/users/{userID}/preferences/history  past profile states
	GET  /api/v1/listings                            visible aggregated records
	POST /api/v1/admin/aggregate                     run aggregation
	POST /api/v1/admin/sync                          run incremental sync
	POST /api/v1/admin/trust/reevaluate              run trust re-evaluation
	POST /api/v1/admin/trust/evaluate                evaluate a posted listing

Every response uses the models.APIResponse envelope.

# Errors

	400 VALIDATION_ERROR   invalid intent, feedback, profile or query
	401 UNAUTHORIZED       missing or invalid bearer token
	403 FORBIDDEN          role or ownership check failed
	404 NOT_FOUND          unknown recommendation or profile
	429                    rate limited (httprate)
	500 INTERNAL_ERROR     anything else, logged with the request id

# Middleware

Global: request id, real ip, panic recovery, CORS, access log, Prometheus.
Under /api/v1 (except health): rate limit, security headers, authentication
and Casbin authorization.

Admin runs are deduplicated with singleflight: concurrent triggers of the
same operation share one run and its result.
*/
package api
