// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSourceFetch(t *testing.T) {
	before := testutil.ToFloat64(SourceRecordsFetched.WithLabelValues("test-fetch"))
	RecordSourceFetch("test-fetch", "fetch", 10*time.Millisecond, 7, nil)
	after := testutil.ToFloat64(SourceRecordsFetched.WithLabelValues("test-fetch"))

	if after-before != 7 {
		t.Errorf("records delta = %v, want 7", after-before)
	}
}

func TestRecordSourceFetch_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), "timeout"},
		{"breaker", errors.New("circuit breaker is open"), "circuit_open"},
		{"other", errors.New("connection refused"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SourceErrors.WithLabelValues("test-errors", tt.kind)
			before := testutil.ToFloat64(c)
			RecordSourceFetch("test-errors", "fetch", time.Millisecond, 0, tt.err)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("%s delta = %v, want 1", tt.kind, got)
			}
		})
	}
}

func TestRecordUpsert(t *testing.T) {
	ins := testutil.ToFloat64(AggregatedUpserts.WithLabelValues("inserted"))
	upd := testutil.ToFloat64(AggregatedUpserts.WithLabelValues("updated"))
	fail := testutil.ToFloat64(AggregatedUpserts.WithLabelValues("error"))

	RecordUpsert(true, nil)
	RecordUpsert(false, nil)
	RecordUpsert(true, errors.New("constraint"))

	if testutil.ToFloat64(AggregatedUpserts.WithLabelValues("inserted"))-ins != 1 {
		t.Error("expected one insert")
	}
	if testutil.ToFloat64(AggregatedUpserts.WithLabelValues("updated"))-upd != 1 {
		t.Error("expected one update")
	}
	if testutil.ToFloat64(AggregatedUpserts.WithLabelValues("error"))-fail != 1 {
		t.Error("expected one error")
	}
}

func TestRecordAggregationRun_SyncSetsLastSuccess(t *testing.T) {
	RecordAggregationRun("sync", time.Second)
	if testutil.ToFloat64(SyncLastSuccess) == 0 {
		t.Error("SyncLastSuccess should be set after a sync run")
	}
}

func TestRecordTrustEvaluation(t *testing.T) {
	before := testutil.ToFloat64(TrustEvaluations.WithLabelValues("suspicious"))
	RecordTrustEvaluation(true)
	RecordTrustEvaluation(false)
	if got := testutil.ToFloat64(TrustEvaluations.WithLabelValues("suspicious")) - before; got != 1 {
		t.Errorf("suspicious delta = %v, want 1", got)
	}
}

func TestRecordEventPublished(t *testing.T) {
	before := testutil.ToFloat64(EventsPublished.WithLabelValues("t.test", "failure"))
	RecordEventPublished("t.test", errors.New("closed"))
	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("t.test", "failure")) - before; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if testutil.ToFloat64(APIActiveRequests)-before != 1 {
		t.Error("expected gauge to increase")
	}
	TrackActiveRequest(false)
	if testutil.ToFloat64(APIActiveRequests) != before {
		t.Error("expected gauge to return to baseline")
	}
}

func TestRecordAuthzDecision(t *testing.T) {
	before := testutil.ToFloat64(AuthzDecisions.WithLabelValues("denied", "true"))
	RecordAuthzDecision(false, true)
	if got := testutil.ToFloat64(AuthzDecisions.WithLabelValues("denied", "true")); got != before+1 {
		t.Errorf("denied/cached = %v, want %v", got, before+1)
	}
}
