// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stylecast/stylecast/internal/config"
	"github.com/stylecast/stylecast/internal/recommend"
)

// NewRouter wires all routes, middleware, and the Prometheus endpoint.
func NewRouter(engine *recommend.Engine, store Store, cfg *config.Config) http.Handler {
	h := NewHandler(engine, store, cfg)

	r := chi.NewRouter()

	// Global middleware, applied in order to every route.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(&cfg.Server))

	// Health endpoints get a permissive limit so monitoring polls freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(&cfg.Server))
		r.Use(PrometheusMetrics())

		r.Post("/recommendations", h.Recommend)
		r.Get("/trends", h.Trends)
		r.Get("/trends/{category}", h.TrendsByCategory)
		r.Post("/items", h.CreateItem)
		r.Get("/items/count", h.ItemsCount)
		r.Get("/items/{id}", h.GetItem)
		r.Post("/rebuild", h.Rebuild)
		r.Get("/status", h.Status)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
