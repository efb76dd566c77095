// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package metrics provides Prometheus metrics for StayNav.

All collectors are promauto globals registered with the default registry and
exposed by the API at /metrics.

# Metric Families

  - staynav_db_*: DuckDB query latency and errors
  - staynav_api_*: HTTP request count, latency and in-flight gauge
  - staynav_source_*: per-adapter fetch latency, records and absorbed failures
  - staynav_circuit_breaker_*: breaker state and transitions per source
  - staynav_normalization_failures_total, staynav_dedup_collisions_total,
    staynav_aggregated_upserts_total: the aggregation pipeline
  - staynav_trust_*, staynav_suppressed_candidates_total, staynav_hidden_records: trust
  - staynav_scoring_duration_seconds, staynav_recommendations_total,
    staynav_feedback_total: the navigator
  - staynav_events_*: domain event publishing and recording

Failures that the core absorbs (unavailable sources, normalization failures)
surface here and in logs rather than as API errors.
*/
package metrics
