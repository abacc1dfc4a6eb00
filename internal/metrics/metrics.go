// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

// Package metrics provides Prometheus instrumentation for the ranking
// engine: recommendation latency, index rebuilds, trend computation, and
// the embedding service circuit breaker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Recommendation Metrics
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Duration of recommendation queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation queries",
		},
		[]string{"result"}, // "success", "not_ready", "invalid", "error"
	)

	RecommendResultsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_results_returned",
			Help:    "Number of results returned per recommendation query",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// Index Rebuild Metrics
	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "index_rebuild_duration_seconds",
			Help:    "Duration of index rebuilds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	RebuildErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_rebuild_errors_total",
			Help: "Total number of failed index rebuilds",
		},
		[]string{"error_type"}, // "catalog", "build", "trend", "persist"
	)

	RebuildLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_rebuild_last_success_timestamp",
			Help: "Unix timestamp of the last successful index rebuild",
		},
	)

	IndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_entries",
			Help: "Number of items in the active search index",
		},
	)

	IndexSkippedItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_skipped_items",
			Help: "Items skipped during the last rebuild (invalid embeddings)",
		},
	)

	IndexVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_version",
			Help: "Monotonic version of the active index snapshot",
		},
	)

	// Trend Metrics
	TrendComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trend_compute_duration_seconds",
			Help:    "Duration of trend table computation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TrendCategories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trend_categories",
			Help: "Number of categories in the active trend table",
		},
	)

	// Catalog Metrics
	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_items",
			Help: "Number of items in the catalog database",
		},
	)

	CatalogInserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_inserts_total",
			Help: "Total number of catalog item inserts",
		},
		[]string{"result"}, // "success", "duplicate", "error"
	)

	// Embedding Service Metrics
	EmbedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embed_requests_total",
			Help: "Total number of embedding service requests",
		},
		[]string{"result"}, // "success", "failure", "rejected"
	)

	EmbedDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embed_request_duration_seconds",
			Help:    "Duration of embedding service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	EmbedBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "embed_circuit_breaker_state",
			Help: "Embedding circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommend records one recommendation query
func RecordRecommend(duration time.Duration, results int, result string) {
	RecommendDuration.Observe(duration.Seconds())
	RecommendRequests.WithLabelValues(result).Inc()
	if result == "success" {
		RecommendResultsReturned.Observe(float64(results))
	}
}

// RecordRebuild records a completed or failed index rebuild
func RecordRebuild(duration time.Duration, indexed, skipped int, version int64, errType string) {
	RebuildDuration.Observe(duration.Seconds())
	if errType != "" {
		RebuildErrors.WithLabelValues(errType).Inc()
		return
	}
	RebuildLastSuccess.Set(float64(time.Now().Unix()))
	IndexSize.Set(float64(indexed))
	IndexSkippedItems.Set(float64(skipped))
	IndexVersion.Set(float64(version))
}

// RecordTrendCompute records one trend table computation
func RecordTrendCompute(duration time.Duration, categories int) {
	TrendComputeDuration.Observe(duration.Seconds())
	TrendCategories.Set(float64(categories))
}

// RecordCatalogInsert records one catalog insert attempt
func RecordCatalogInsert(result string) {
	CatalogInserts.WithLabelValues(result).Inc()
}

// SetEmbedBreakerState updates the breaker gauge from its string state
func SetEmbedBreakerState(state string) {
	switch state {
	case "half-open":
		EmbedBreakerState.Set(1)
	case "open":
		EmbedBreakerState.Set(2)
	default:
		EmbedBreakerState.Set(0)
	}
}

// RecordEmbedRequest records one embedding service call
func RecordEmbedRequest(duration time.Duration, result string) {
	EmbedRequests.WithLabelValues(result).Inc()
	EmbedDuration.Observe(duration.Seconds())
}
