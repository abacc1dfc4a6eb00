// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package recommend

import (
	"errors"
	"time"
)

// ErrInvalidArgument indicates a request with out-of-range parameters.
var ErrInvalidArgument = errors.New("recommend: invalid argument")

// ErrNotReady indicates the engine has no built index snapshot yet.
var ErrNotReady = errors.New("recommend: index not built")

// ErrRebuildInProgress indicates a rebuild was requested while another was
// still running.
var ErrRebuildInProgress = errors.New("recommend: rebuild already in progress")

// Request describes one recommendation query.
type Request struct {
	// Embedding is the query vector. It is L2-normalized by the engine.
	Embedding []float32

	// Categories restricts results to the given style categories.
	// Empty means no filtering.
	Categories []string

	// K is the number of results requested. Must be positive.
	K int

	// TrendWeight overrides the configured trend weight when non-nil.
	// An explicit zero disables trend boosting for this request.
	TrendWeight *float64

	// Oversample overrides the configured candidate pool multiplier.
	// Zero means the configured default; negative is invalid.
	Oversample int
}

// Recommendation is one ranked result.
type Recommendation struct {
	ItemID     string  `json:"item_id"`
	Category   string  `json:"category"`
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
	TrendBoost float64 `json:"trend_boost"`
	URL        string  `json:"url,omitempty"`
	LocalPath  string  `json:"local_path,omitempty"`
}

// Response is the result of one recommendation query.
type Response struct {
	Results      []Recommendation `json:"results"`
	IndexVersion int64            `json:"index_version"`
	TrendWeight  float64          `json:"trend_weight"`
	PoolSize     int              `json:"pool_size"`
}

// RebuildStats summarizes one completed rebuild.
type RebuildStats struct {
	Indexed         int           `json:"indexed"`
	Skipped         int           `json:"skipped"`
	TrendCategories int           `json:"trend_categories"`
	Version         int64         `json:"version"`
	Duration        time.Duration `json:"-"`
	DurationMS      int64         `json:"duration_ms"`
}

// Status reports the engine's current snapshot.
type Status struct {
	Ready           bool      `json:"ready"`
	IndexSize       int       `json:"index_size"`
	Dimension       int       `json:"dimension"`
	Skipped         int       `json:"skipped"`
	Version         int64     `json:"version"`
	BuiltAt         time.Time `json:"built_at"`
	TrendCategories []string  `json:"trend_categories,omitempty"`
	Rebuilding      bool      `json:"rebuilding"`
}
