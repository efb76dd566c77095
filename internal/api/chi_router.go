// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/staynav/internal/middleware"
)

// Authenticator stores an auth.Principal in the request context.
type Authenticator interface {
	Authenticate(next http.Handler) http.Handler
}

// Authorizer checks the principal against the request.
type Authorizer interface {
	AuthorizeRequest(next http.Handler) http.Handler
}

// Router wires handlers and middleware.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	authn         Authenticator
	authz         Authorizer
}

// NewRouter creates a router.
func NewRouter(handler *Handler, mw *ChiMiddleware, authn Authenticator, authz Authorizer) *Router {
	return &Router{handler: handler, chiMiddleware: mw, authn: authn, authz: authz}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, codeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(middleware.SecurityHeaders)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.SecurityHeaders)
		r.Use(router.authn.Authenticate)
		r.Use(router.authz.AuthorizeRequest)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/search", router.handler.Search)
			r.Get("/recommendations/{id}", router.handler.GetRecommendation)
			r.Post("/recommendations/{id}/feedback", router.handler.SubmitFeedback)

			r.Get("/users/{userID}/preferences", router.handler.GetPreferences)
			r.Put("/users/{userID}/preferences", router.handler.PutPreferences)
			r.Get("/users/{userID}/preferences/history", router.handler.PreferenceHistory)

			r.Get("/listings", router.handler.Listings)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/aggregate", router.handler.AdminAggregate)
				r.Post("/sync", router.handler.AdminSync)
				r.Post("/trust/reevaluate", router.handler.AdminReevaluate)
				r.Post("/trust/evaluate", router.handler.AdminEvaluate)
			})
		})
	})

	return r
}
