// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stylecast/stylecast/internal/catalog"
	"github.com/stylecast/stylecast/internal/config"
	"github.com/stylecast/stylecast/internal/embed"
	"github.com/stylecast/stylecast/internal/logging"
	"github.com/stylecast/stylecast/internal/metrics"
	"github.com/stylecast/stylecast/internal/trend"
	"github.com/stylecast/stylecast/internal/vecindex"
)

// Catalog is the slice of the item store the engine needs.
type Catalog interface {
	ListItems(ctx context.Context) ([]catalog.Item, error)
	ReplaceTrends(ctx context.Context, points []trend.Point) error
}

// snapshot bundles everything one query needs. Swapped atomically as a unit
// so index, trends, and metadata always come from the same rebuild.
type snapshot struct {
	index   *vecindex.Index
	trends  *trend.Table
	items   map[string]catalog.Item
	stats   vecindex.BuildStats
	version int64
	builtAt time.Time
}

// Engine serves trend-aware recommendations over the item catalog.
type Engine struct {
	cfg      *config.EngineConfig
	store    Catalog
	provider embed.Provider // nil when no embedding sidecar is configured

	current   atomic.Pointer[snapshot]
	rebuildMu sync.Mutex
	version   atomic.Int64
}

// New creates an engine. The provider may be nil; RecommendImage then
// reports embed.ErrUnavailable.
func New(cfg *config.EngineConfig, store Catalog, provider embed.Provider) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		provider: provider,
	}
}

// Rebuild loads the catalog, builds a normalized vector index and a fresh
// trend table, persists both, and atomically swaps them in. Only one rebuild
// runs at a time; a concurrent call fails fast with ErrRebuildInProgress.
func (e *Engine) Rebuild(ctx context.Context) (RebuildStats, error) {
	if !e.rebuildMu.TryLock() {
		return RebuildStats{}, ErrRebuildInProgress
	}
	defer e.rebuildMu.Unlock()

	start := time.Now()

	items, err := e.store.ListItems(ctx)
	if err != nil {
		metrics.RecordRebuild(time.Since(start), 0, 0, 0, "catalog")
		return RebuildStats{}, fmt.Errorf("load catalog: %w", err)
	}

	entries := make([]vecindex.Entry, len(items))
	events := make([]trend.Event, len(items))
	byID := make(map[string]catalog.Item, len(items))
	for i, item := range items {
		entries[i] = vecindex.Entry{ID: item.ID, Vector: item.Embedding}
		events[i] = trend.Event{Category: item.Category, Timestamp: item.Timestamp}
		byID[item.ID] = item
	}

	idx, stats, err := vecindex.BuildNormalized(entries, vecindex.BuildOptions{})
	if err != nil {
		metrics.RecordRebuild(time.Since(start), 0, 0, 0, "build")
		return RebuildStats{}, fmt.Errorf("build index: %w", err)
	}

	trendStart := time.Now()
	table, err := trend.Compute(events, e.cfg.EMASpan)
	if err != nil {
		metrics.RecordRebuild(time.Since(start), 0, 0, 0, "trend")
		return RebuildStats{}, fmt.Errorf("compute trends: %w", err)
	}
	metrics.RecordTrendCompute(time.Since(trendStart), len(table.Categories()))

	// A cancelled rebuild must not publish partial artifacts.
	if err := ctx.Err(); err != nil {
		metrics.RecordRebuild(time.Since(start), 0, 0, 0, "cancelled")
		return RebuildStats{}, fmt.Errorf("rebuild cancelled: %w", err)
	}

	if err := e.store.ReplaceTrends(ctx, table.AllPoints()); err != nil {
		metrics.RecordRebuild(time.Since(start), 0, 0, 0, "persist")
		return RebuildStats{}, fmt.Errorf("persist trends: %w", err)
	}

	if e.cfg.ArtifactPath != "" {
		if err := idx.Save(e.cfg.ArtifactPath); err != nil {
			// The in-memory snapshot is still good; warm start just won't
			// have a fresh artifact.
			logging.Warn().Err(err).Str("path", e.cfg.ArtifactPath).Msg("Failed to save index artifact")
		}
	}

	version := e.version.Add(1)
	e.current.Store(&snapshot{
		index:   idx,
		trends:  table,
		items:   byID,
		stats:   stats,
		version: version,
		builtAt: time.Now().UTC(),
	})

	duration := time.Since(start)
	metrics.RecordRebuild(duration, stats.Indexed, stats.Skipped, version, "")
	logging.Info().
		Int("indexed", stats.Indexed).
		Int("skipped", stats.Skipped).
		Int("categories", len(table.Categories())).
		Int64("version", version).
		Dur("duration", duration).
		Msg("Index rebuild complete")

	return RebuildStats{
		Indexed:         stats.Indexed,
		Skipped:         stats.Skipped,
		TrendCategories: len(table.Categories()),
		Version:         version,
		Duration:        duration,
		DurationMS:      duration.Milliseconds(),
	}, nil
}

// WarmStart restores the index from the saved artifact and recomputes trends
// from the catalog, avoiding a full re-normalization pass on startup. It
// fails if no artifact exists; the caller falls back to Rebuild.
func (e *Engine) WarmStart(ctx context.Context) error {
	if e.cfg.ArtifactPath == "" {
		return fmt.Errorf("warm start: no artifact path configured")
	}
	if !e.rebuildMu.TryLock() {
		return ErrRebuildInProgress
	}
	defer e.rebuildMu.Unlock()

	idx, err := vecindex.Load(e.cfg.ArtifactPath)
	if err != nil {
		return fmt.Errorf("warm start: %w", err)
	}

	items, err := e.store.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("warm start: load catalog: %w", err)
	}
	events := make([]trend.Event, len(items))
	byID := make(map[string]catalog.Item, len(items))
	for i, item := range items {
		events[i] = trend.Event{Category: item.Category, Timestamp: item.Timestamp}
		byID[item.ID] = item
	}

	table, err := trend.Compute(events, e.cfg.EMASpan)
	if err != nil {
		return fmt.Errorf("warm start: compute trends: %w", err)
	}

	version := e.version.Add(1)
	e.current.Store(&snapshot{
		index:   idx,
		trends:  table,
		items:   byID,
		stats:   vecindex.BuildStats{Indexed: idx.Size(), Dimension: idx.Dimension()},
		version: version,
		builtAt: time.Now().UTC(),
	})

	logging.Info().
		Int("indexed", idx.Size()).
		Int64("version", version).
		Str("artifact", e.cfg.ArtifactPath).
		Msg("Index restored from artifact")
	return nil
}

// Recommend ranks catalog items against the query embedding. It fetches an
// oversampled candidate pool from the index, filters by category, boosts by
// trend velocity, and returns the top K by combined score. The pool is
// fetched once; if filtering exhausts it, fewer than K results come back.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if req.K <= 0 {
		metrics.RecordRecommend(time.Since(start), 0, "invalid")
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, req.K)
	}
	if req.Oversample < 0 {
		metrics.RecordRecommend(time.Since(start), 0, "invalid")
		return nil, fmt.Errorf("%w: oversample must not be negative, got %d", ErrInvalidArgument, req.Oversample)
	}

	snap := e.current.Load()
	if snap == nil {
		metrics.RecordRecommend(time.Since(start), 0, "not_ready")
		return nil, ErrNotReady
	}

	query, err := vecindex.Normalize(req.Embedding)
	if err != nil {
		metrics.RecordRecommend(time.Since(start), 0, "invalid")
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	oversample := req.Oversample
	if oversample == 0 {
		oversample = e.cfg.Oversample
	}
	pool := req.K * oversample
	candidates, err := snap.index.Search(query, pool)
	if err != nil {
		metrics.RecordRecommend(time.Since(start), 0, "invalid")
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	weight := e.cfg.TrendWeight
	if req.TrendWeight != nil {
		weight = *req.TrendWeight
	}
	if weight < 0 {
		metrics.RecordRecommend(time.Since(start), 0, "invalid")
		return nil, fmt.Errorf("%w: trend weight must not be negative, got %g", ErrInvalidArgument, weight)
	}

	var filter map[string]struct{}
	if len(req.Categories) > 0 {
		filter = make(map[string]struct{}, len(req.Categories))
		for _, c := range req.Categories {
			filter[c] = struct{}{}
		}
	}

	type scored struct {
		rec  Recommendation
		rank int // position in similarity order, for tie-breaking
	}

	picked := make([]scored, 0, req.K)
	for _, cand := range candidates {
		item, ok := snap.items[cand.ID]
		if !ok {
			// Index and metadata come from the same snapshot; a miss means
			// a corrupted artifact from a diverged catalog.
			logging.Warn().Str("item_id", cand.ID).Msg("Indexed item missing from catalog snapshot")
			continue
		}
		if filter != nil {
			if _, ok := filter[item.Category]; !ok {
				continue
			}
		}
		boost := weight * max(0, snap.trends.LatestVelocity(item.Category))
		picked = append(picked, scored{
			rec: Recommendation{
				ItemID:     item.ID,
				Category:   item.Category,
				Score:      cand.Score + boost,
				Similarity: cand.Score,
				TrendBoost: boost,
				URL:        item.URL,
				LocalPath:  item.LocalPath,
			},
			rank: cand.Rank,
		})
		if len(picked) == req.K {
			break
		}
	}

	sort.Slice(picked, func(a, b int) bool {
		if picked[a].rec.Score != picked[b].rec.Score {
			return picked[a].rec.Score > picked[b].rec.Score
		}
		if picked[a].rank != picked[b].rank {
			return picked[a].rank < picked[b].rank
		}
		return picked[a].rec.ItemID < picked[b].rec.ItemID
	})

	results := make([]Recommendation, len(picked))
	for i, s := range picked {
		results[i] = s.rec
	}

	metrics.RecordRecommend(time.Since(start), len(results), "success")
	logging.Ctx(ctx).Debug().
		Int("k", req.K).
		Int("pool", pool).
		Int("returned", len(results)).
		Int64("index_version", snap.version).
		Msg("Recommendation served")

	return &Response{
		Results:      results,
		IndexVersion: snap.version,
		TrendWeight:  weight,
		PoolSize:     pool,
	}, nil
}

// RecommendImage embeds the referenced image via the configured provider and
// ranks against the result.
func (e *Engine) RecommendImage(ctx context.Context, imageRef string, req Request) (*Response, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", embed.ErrUnavailable)
	}

	embedStart := time.Now()
	vec, err := e.provider.EmbedImage(ctx, imageRef)
	if err != nil {
		metrics.RecordEmbedRequest(time.Since(embedStart), embedResult(err))
		return nil, fmt.Errorf("embed image: %w", err)
	}
	metrics.RecordEmbedRequest(time.Since(embedStart), "success")

	req.Embedding = vec
	return e.Recommend(ctx, req)
}

func embedResult(err error) string {
	if errors.Is(err, embed.ErrUnavailable) {
		return "rejected"
	}
	return "failure"
}

// Status reports the current snapshot without blocking queries or rebuilds.
func (e *Engine) Status() Status {
	rebuilding := !e.rebuildMu.TryLock()
	if !rebuilding {
		e.rebuildMu.Unlock()
	}

	snap := e.current.Load()
	if snap == nil {
		return Status{Ready: false, Rebuilding: rebuilding}
	}
	return Status{
		Ready:           true,
		IndexSize:       snap.index.Size(),
		Dimension:       snap.index.Dimension(),
		Skipped:         snap.stats.Skipped,
		Version:         snap.version,
		BuiltAt:         snap.builtAt,
		TrendCategories: snap.trends.Categories(),
		Rebuilding:      rebuilding,
	}
}

// TrendTable returns the current snapshot's trend table, or nil before the
// first rebuild.
func (e *Engine) TrendTable() *trend.Table {
	snap := e.current.Load()
	if snap == nil {
		return nil
	}
	return snap.trends
}

// Ready reports whether a snapshot is available to serve queries.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}
