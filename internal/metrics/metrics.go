// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "staynav_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_db_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "staynav_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "staynav_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Source Adapter Metrics
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "staynav_source_fetch_duration_seconds",
			Help:    "Duration of source adapter fetches in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source", "mode"}, // mode: "fetch", "pull"
	)

	SourceRecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_source_records_fetched_total",
			Help: "Total raw records returned by source adapters",
		},
		[]string{"source"},
	)

	SourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_source_errors_total",
			Help: "Total source adapter failures, absorbed by aggregation",
		},
		[]string{"source", "kind"}, // kind: "unavailable", "timeout", "error"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "staynav_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Normalization and Aggregation Metrics
	NormalizationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_normalization_failures_total",
			Help: "Raw records dropped during normalization",
		},
		[]string{"source", "kind"}, // kind: "unsupported_source", "mapping"
	)

	DedupCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "staynav_dedup_collisions_total",
			Help: "Canonical listings merged into another with the same fingerprint",
		},
	)

	AggregatedUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_aggregated_upserts_total",
			Help: "Aggregated record upserts by outcome",
		},
		[]string{"result"}, // result: "inserted", "updated", "error"
	)

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "staynav_aggregation_duration_seconds",
			Help:    "Duration of aggregation and sync runs",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"mode"}, // mode: "aggregate", "sync"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "staynav_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful incremental sync",
		},
	)

	// Trust Metrics
	TrustEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_trust_evaluations_total",
			Help: "Listing trust evaluations by verdict",
		},
		[]string{"verdict"}, // verdict: "ok", "suspicious"
	)

	SuppressedCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_suppressed_candidates_total",
			Help: "Candidates removed before scoring",
		},
		[]string{"reason"}, // reason: "owner_trust", "quality", "thin_content"
	)

	HiddenRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "staynav_hidden_records",
			Help: "Aggregated records hidden by the last trust re-evaluation",
		},
	)

	// Scoring and Recommendation Metrics
	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "staynav_scoring_duration_seconds",
			Help:    "Duration of scoring and ranking a candidate set",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_recommendations_total",
			Help: "Navigator runs by terminal state",
		},
		[]string{"outcome"}, // outcome: "matched", "no_match", "invalid_intent", "error"
	)

	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_feedback_total",
			Help: "Recommendation feedback by tag",
		},
		[]string{"feedback"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_events_published_total",
			Help: "Domain events published by topic and result",
		},
		[]string{"topic", "result"},
	)

	EventsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "staynav_events_recorded_total",
			Help: "Domain events persisted by the event recorder",
		},
	)

	// Authorization Metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staynav_authz_decisions_total",
			Help: "Authorization decisions by result and cache use",
		},
		[]string{"result", "cached"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSourceFetch records one adapter call. A nil err counts the records.
func RecordSourceFetch(source, mode string, duration time.Duration, records int, err error) {
	SourceFetchDuration.WithLabelValues(source, mode).Observe(duration.Seconds())
	if err != nil {
		SourceErrors.WithLabelValues(source, classifySourceError(err)).Inc()
		return
	}
	SourceRecordsFetched.WithLabelValues(source).Add(float64(records))
}

// RecordSourceUnavailable records a source skipped by its liveness probe.
func RecordSourceUnavailable(source string) {
	SourceErrors.WithLabelValues(source, "unavailable").Inc()
}

func classifySourceError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "circuit breaker"):
		return "circuit_open"
	default:
		return "error"
	}
}

// RecordNormalizationFailure records a dropped raw record.
func RecordNormalizationFailure(source, kind string) {
	NormalizationFailures.WithLabelValues(source, kind).Inc()
}

// RecordUpsert records an aggregated record upsert outcome.
func RecordUpsert(inserted bool, err error) {
	switch {
	case err != nil:
		AggregatedUpserts.WithLabelValues("error").Inc()
	case inserted:
		AggregatedUpserts.WithLabelValues("inserted").Inc()
	default:
		AggregatedUpserts.WithLabelValues("updated").Inc()
	}
}

// RecordAggregationRun records the duration of an aggregate or sync run.
func RecordAggregationRun(mode string, duration time.Duration) {
	AggregationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if mode == "sync" {
		SyncLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordTrustEvaluation records a listing evaluation verdict.
func RecordTrustEvaluation(suspicious bool) {
	if suspicious {
		TrustEvaluations.WithLabelValues("suspicious").Inc()
		return
	}
	TrustEvaluations.WithLabelValues("ok").Inc()
}

// RecordRecommendation records the terminal state of a navigator run.
func RecordRecommendation(outcome string) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
}

// RecordEventPublished records a domain event publish attempt.
func RecordEventPublished(topic string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}

// RecordAuthzDecision records one authorization decision.
func RecordAuthzDecision(allowed, cached bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	c := "false"
	if cached {
		c = "true"
	}
	AuthzDecisions.WithLabelValues(result, c).Inc()
}
