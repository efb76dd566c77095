// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package api

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/staynav/internal/authz"
	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/navigator"
	"github.com/tomtom215/staynav/internal/validation"
)

type testEnv struct {
	nav      *mockNavigator
	agg      *mockAggregator
	listings *mockListings
	server   http.Handler
}

func newTestEnv(t *testing.T, mutate func(*Dependencies)) *testEnv {
	t.Helper()

	env := &testEnv{
		nav:      newMockNavigator(),
		agg:      &mockAggregator{},
		listings: &mockListings{},
	}
	deps := Dependencies{
		Navigator:   env.nav,
		Aggregator:  env.agg,
		Reevaluator: &mockReevaluator{},
		Evaluator:   mockEvaluator{},
		Listings:    env.listings,
		DB:          mockPinger{},
	}
	if mutate != nil {
		mutate(&deps)
	}

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	mw := NewChiMiddleware(ChiMiddlewareConfig{CORSAllowedOrigins: []string{"*"}, RateLimitDisabled: true})
	env.server = NewRouter(NewHandler(deps), mw, headerAuth{}, authz.NewMiddleware(enforcer)).SetupChi()
	return env
}

// do sends a request as user with roles ("" user means unauthenticated).
func (e *testEnv) do(t *testing.T, method, path, body, user, roles string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if user != "" {
		req.Header.Set("X-Test-User", user)
		req.Header.Set("X-Test-Roles", roles)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	var resp models.APIResponse
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func errorCode(resp models.APIResponse) string {
	if resp.Error == nil {
		return ""
	}
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	if rec, _ := env.do(t, http.MethodGet, "/api/v1/health/live", "", "", ""); rec.Code != http.StatusOK {
		t.Errorf("live = %d, want 200", rec.Code)
	}
	if rec, _ := env.do(t, http.MethodGet, "/api/v1/health/ready", "", "", ""); rec.Code != http.StatusOK {
		t.Errorf("ready = %d, want 200", rec.Code)
	}

	down := newTestEnv(t, func(d *Dependencies) { d.DB = mockPinger{err: errBoom} })
	rec, resp := down.do(t, http.MethodGet, "/api/v1/health/ready", "", "", "")
	if rec.Code != http.StatusServiceUnavailable || errorCode(resp) != codeUnavailable {
		t.Errorf("ready with failing db = %d %s, want 503", rec.Code, errorCode(resp))
	}

	none := newTestEnv(t, func(d *Dependencies) { d.DB = nil })
	if rec, _ := none.do(t, http.MethodGet, "/api/v1/health/ready", "", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready without db = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("/metrics = %d, want prometheus exposition", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/search", `{"city":"Kazan","guests":2}`, "u1", "traveler")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if resp.Status != "success" || resp.Metadata.Count != 2 {
		t.Errorf("response = %+v, want success with 2 matches", resp)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["recommendation_id"] != "rec-1" {
		t.Errorf("recommendation_id = %v, want rec-1", data["recommendation_id"])
	}
	if env.nav.lastUserID != "u1" {
		t.Errorf("navigator user = %q, want u1", env.nav.lastUserID)
	}
}

func TestSearch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"invalid intent", `{"guests":0}`,
			fmt.Errorf("%w: %w", navigator.ErrInvalidIntent, validation.NewRequestValidationError("guests", "gte", "guests must be at least 1")),
			http.StatusBadRequest, codeValidation},
		{"unknown field", `{"guests":1,"pets":true}`, nil, http.StatusBadRequest, codeValidation},
		{"malformed json", `{"guests":`, nil, http.StatusBadRequest, codeValidation},
		{"empty body", "", nil, http.StatusBadRequest, codeValidation},
		{"store failure", `{"guests":1}`, errBoom, http.StatusInternalServerError, codeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			if tt.err != nil {
				env.nav.recommendFn = func(models.SearchIntent) (*navigator.Outcome, error) { return nil, tt.err }
			}
			rec, resp := env.do(t, http.MethodPost, "/api/v1/search", tt.body, "u1", "traveler")
			if rec.Code != tt.wantCode || errorCode(resp) != tt.wantErr {
				t.Errorf("got %d %s, want %d %s", rec.Code, errorCode(resp), tt.wantCode, tt.wantErr)
			}
		})
	}
}

func TestSearch_ValidationDetails(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.nav.recommendFn = func(models.SearchIntent) (*navigator.Outcome, error) {
		return nil, fmt.Errorf("%w: %w", navigator.ErrInvalidIntent,
			validation.NewRequestValidationError("check_out", "gtfield", "check_out must be after check_in"))
	}

	_, resp := env.do(t, http.MethodPost, "/api/v1/search", `{"guests":1}`, "u1", "traveler")
	if resp.Error == nil || resp.Error.Details["field"] != "check_out" {
		t.Errorf("error = %+v, want field detail check_out", resp.Error)
	}
}

func TestRecommendationAndFeedback(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.nav.recs["rec-1"] = &models.Recommendation{ID: "rec-1", ListingIDs: []string{"l-1"}}

	if rec, _ := env.do(t, http.MethodGet, "/api/v1/recommendations/rec-1", "", "u1", "traveler"); rec.Code != http.StatusOK {
		t.Errorf("get = %d, want 200", rec.Code)
	}
	rec, resp := env.do(t, http.MethodGet, "/api/v1/recommendations/missing", "", "u1", "traveler")
	if rec.Code != http.StatusNotFound || errorCode(resp) != codeNotFound {
		t.Errorf("get missing = %d %s, want 404", rec.Code, errorCode(resp))
	}

	rec, resp = env.do(t, http.MethodPost, "/api/v1/recommendations/rec-1/feedback", `{"feedback":"meh"}`, "u1", "traveler")
	if rec.Code != http.StatusBadRequest || errorCode(resp) != codeValidation {
		t.Errorf("invalid feedback = %d %s, want 400", rec.Code, errorCode(resp))
	}
	if rec, _ := env.do(t, http.MethodPost, "/api/v1/recommendations/rec-1/feedback", `{"feedback":"liked"}`, "u1", "traveler"); rec.Code != http.StatusOK {
		t.Errorf("feedback = %d, want 200", rec.Code)
	}
	if env.nav.recs["rec-1"].Feedback != models.FeedbackLiked {
		t.Error("feedback not stored")
	}
	if rec, _ := env.do(t, http.MethodPost, "/api/v1/recommendations/missing/feedback", `{"feedback":"liked"}`, "u1", "traveler"); rec.Code != http.StatusNotFound {
		t.Errorf("feedback on missing = %d, want 404", rec.Code)
	}
}

func TestPreferences_Ownership(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	body := `{"priorities":{"quiet":0.8},"preferred":["balcony"]}`

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		user   string
		roles  string
		want   int
	}{
		{"own write", http.MethodPut, "/api/v1/users/u1/preferences", body, "u1", "traveler", http.StatusOK},
		{"own read", http.MethodGet, "/api/v1/users/u1/preferences", "", "u1", "traveler", http.StatusOK},
		{"other user", http.MethodGet, "/api/v1/users/u1/preferences", "", "u2", "traveler", http.StatusForbidden},
		{"other user write", http.MethodPut, "/api/v1/users/u1/preferences", body, "u2", "traveler", http.StatusForbidden},
		{"admin reads anyone", http.MethodGet, "/api/v1/users/u1/preferences", "", "ops", "admin", http.StatusOK},
		{"missing profile", http.MethodGet, "/api/v1/users/u3/preferences", "", "u3", "traveler", http.StatusNotFound},
		{"body id mismatch", http.MethodPut, "/api/v1/users/u1/preferences", `{"user_id":"u2"}`, "u1", "traveler", http.StatusBadRequest},
		{"unauthenticated", http.MethodGet, "/api/v1/users/u1/preferences", "", "", "", http.StatusUnauthorized},
	}

	// Cases share env and run in order.
	for _, tt := range tests {
		rec, _ := env.do(t, tt.method, tt.path, tt.body, tt.user, tt.roles)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d (%s)", tt.name, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestPreferenceHistory(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/users/u1/preferences/history", "", "u1", "traveler")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if list, ok := resp.Data.([]interface{}); !ok || len(list) != 0 {
		t.Errorf("empty history = %#v, want []", resp.Data)
	}

	for _, body := range []string{`{"preferred":["a"]}`, `{"preferred":["b"]}`} {
		if rec, _ := env.do(t, http.MethodPut, "/api/v1/users/u1/preferences", body, "u1", "traveler"); rec.Code != http.StatusOK {
			t.Fatalf("put = %d", rec.Code)
		}
	}
	_, resp = env.do(t, http.MethodGet, "/api/v1/users/u1/preferences/history", "", "u1", "traveler")
	if resp.Metadata.Count != 1 {
		t.Errorf("history count = %d, want 1", resp.Metadata.Count)
	}
}

func TestListings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"defaults", "", http.StatusOK},
		{"filters", "?city=Kazan&min_trust=0.5&suspicious=false&limit=10&offset=20", http.StatusOK},
		{"limit zero", "?limit=0", http.StatusBadRequest},
		{"limit too big", "?limit=501", http.StatusBadRequest},
		{"trust not a number", "?min_trust=high", http.StatusBadRequest},
		{"trust out of range", "?min_trust=2", http.StatusBadRequest},
		{"bad bool", "?suspicious=maybe", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			rec, _ := env.do(t, http.MethodGet, "/api/v1/listings"+tt.query, "", "u1", "traveler")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestListings_PassesQuery(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.listings.records = []models.AggregatedRecord{{Fingerprint: "fp-1"}}

	_, resp := env.do(t, http.MethodGet, "/api/v1/listings?city=Kazan&suspicious=true&limit=10&offset=5", "", "u1", "traveler")
	q := env.listings.lastQuery
	if q.City != "Kazan" || q.Limit != 10 || q.Offset != 5 || q.Suspicious == nil || !*q.Suspicious {
		t.Errorf("query = %+v", q)
	}
	page, _ := resp.Data.(map[string]interface{})
	if page["total"] != float64(2) || resp.Metadata.Count != 1 {
		t.Errorf("page = %v, count %d", page, resp.Metadata.Count)
	}
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	for _, path := range []string{"/api/v1/admin/aggregate", "/api/v1/admin/sync", "/api/v1/admin/trust/reevaluate", "/api/v1/admin/trust/evaluate"} {
		rec, resp := env.do(t, http.MethodPost, path, "", "u1", "traveler")
		if rec.Code != http.StatusForbidden || errorCode(resp) != "FORBIDDEN" {
			t.Errorf("%s as traveler = %d, want 403", path, rec.Code)
		}
	}
	if env.agg.aggregates != 0 || env.agg.syncs != 0 {
		t.Error("traveler triggered an admin run")
	}
}

func TestAdmin_Runs(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec, _ := env.do(t, http.MethodPost, "/api/v1/admin/aggregate", `{"city":"Kazan","guests":2}`, "ops", "admin")
	if rec.Code != http.StatusOK {
		t.Fatalf("aggregate = %d %s", rec.Code, rec.Body.String())
	}
	if env.agg.lastFilter.City != "Kazan" || env.agg.lastFilter.MinGuests != 2 {
		t.Errorf("filter = %+v", env.agg.lastFilter)
	}
	if rec, _ := env.do(t, http.MethodPost, "/api/v1/admin/aggregate", "", "ops", "admin"); rec.Code != http.StatusOK {
		t.Errorf("aggregate without body = %d", rec.Code)
	}
	if rec, _ := env.do(t, http.MethodPost, "/api/v1/admin/aggregate", `{"radius_km":900}`, "ops", "admin"); rec.Code != http.StatusBadRequest {
		t.Errorf("aggregate with bad radius = %d, want 400", rec.Code)
	}

	rec, resp := env.do(t, http.MethodPost, "/api/v1/admin/sync", "", "ops", "admin")
	if rec.Code != http.StatusOK || env.agg.syncs != 1 {
		t.Errorf("sync = %d, syncs %d", rec.Code, env.agg.syncs)
	}
	if stats, _ := resp.Data.(map[string]interface{}); stats["raw_records"] != float64(3) {
		t.Errorf("sync stats = %v", resp.Data)
	}
	if rec.Header().Get("X-Shared-Run") != "false" {
		t.Error("single sync should not be shared")
	}

	if rec, _ := env.do(t, http.MethodPost, "/api/v1/admin/trust/reevaluate", "", "ops", "admin"); rec.Code != http.StatusOK {
		t.Errorf("reevaluate = %d", rec.Code)
	}
}

func TestAdmin_ReevaluateFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(d *Dependencies) { d.Reevaluator = &mockReevaluator{err: errBoom} })

	rec, resp := env.do(t, http.MethodPost, "/api/v1/admin/trust/reevaluate", "", "ops", "admin")
	if rec.Code != http.StatusInternalServerError || errorCode(resp) != codeInternal {
		t.Errorf("reevaluate failure = %d %s, want 500", rec.Code, errorCode(resp))
	}
}

func TestAdmin_Evaluate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	_, resp := env.do(t, http.MethodPost, "/api/v1/admin/trust/evaluate", `{"id":"x","source":"partner-a"}`, "ops", "admin")
	data, _ := resp.Data.(map[string]interface{})
	if data["suppressed"] != true || data["suppress_reason"] != "low_quality" {
		t.Errorf("evaluate = %v, want suppressed low_quality", data)
	}

	_, resp = env.do(t, http.MethodPost, "/api/v1/admin/trust/evaluate", `{"id":"y","title":"Loft"}`, "ops", "admin")
	data, _ = resp.Data.(map[string]interface{})
	if data["suppressed"] != false {
		t.Errorf("evaluate = %v, want kept", data)
	}
}

func TestAdmin_NotConfigured(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(d *Dependencies) {
		d.Aggregator = nil
		d.Reevaluator = nil
	})

	if rec, _ := env.do(t, http.MethodPost, "/api/v1/admin/sync", "", "ops", "admin"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("sync without aggregator = %d, want 503", rec.Code)
	}
	if rec, _ := env.do(t, http.MethodPost, "/api/v1/admin/trust/reevaluate", "", "ops", "admin"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("reevaluate without reevaluator = %d, want 503", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/nope", "", "", "")
	if rec.Code != http.StatusNotFound || errorCode(resp) != codeNotFound {
		t.Errorf("unknown route = %d %s", rec.Code, errorCode(resp))
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
