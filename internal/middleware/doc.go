// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package middleware provides the chi-compatible HTTP middleware shared by the
API router.

  - RequestID: reads or generates X-Request-ID and X-Correlation-ID and
    stores both in the logging context
  - PrometheusMetrics: request count, duration and in-flight gauge, labelled
    by the chi route pattern so path parameters do not explode cardinality
  - AccessLog: one structured zerolog line per request
  - SecurityHeaders: nosniff, frame denial, referrer policy and HSTS behind
    TLS

Usage:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
*/
package middleware
