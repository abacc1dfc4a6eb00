// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/stylecast/stylecast/internal/catalog"
	"github.com/stylecast/stylecast/internal/config"
	"github.com/stylecast/stylecast/internal/embed"
	"github.com/stylecast/stylecast/internal/logging"
	"github.com/stylecast/stylecast/internal/metrics"
	"github.com/stylecast/stylecast/internal/recommend"
	"github.com/stylecast/stylecast/internal/trend"
)

// Store is the slice of the catalog the handlers need.
type Store interface {
	InsertItem(ctx context.Context, item catalog.Item) error
	GetItem(ctx context.Context, id string) (catalog.Item, error)
	CountItems(ctx context.Context) (int, error)
	CountByCategory(ctx context.Context) (map[string]int, error)
	ListTrends(ctx context.Context, category string) ([]trend.Point, error)
	Ping(ctx context.Context) error
}

// Handler holds dependencies for all HTTP handlers.
type Handler struct {
	engine     *recommend.Engine
	store      Store
	cfg        *config.Config
	validate   *validator.Validate
	categories map[string]struct{}
}

// NewHandler creates a handler. The category vocabulary from the engine
// config is advisory; items outside it are accepted with a warning.
func NewHandler(engine *recommend.Engine, store Store, cfg *config.Config) *Handler {
	categories := make(map[string]struct{}, len(cfg.Engine.Categories))
	for _, c := range cfg.Engine.Categories {
		categories[c] = struct{}{}
	}
	return &Handler{
		engine:     engine,
		store:      store,
		cfg:        cfg,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		categories: categories,
	}
}

// RecommendRequest is the body of POST /api/v1/recommendations. Exactly one
// of Embedding or Image must be set.
type RecommendRequest struct {
	Embedding   []float32 `json:"embedding,omitempty"`
	Image       string    `json:"image,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	K           int       `json:"k"`
	TrendWeight *float64  `json:"trend_weight,omitempty"`
	Oversample  int       `json:"oversample,omitempty"`
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body: " + err.Error())
		return
	}

	hasEmbedding := len(req.Embedding) > 0
	hasImage := req.Image != ""
	if hasEmbedding == hasImage {
		rw.BadRequest("Exactly one of embedding or image must be provided")
		return
	}

	k := req.K
	if k == 0 {
		k = h.cfg.API.DefaultLimit
	}
	if k > h.cfg.API.MaxLimit {
		k = h.cfg.API.MaxLimit
	}

	engineReq := recommend.Request{
		Embedding:   req.Embedding,
		Categories:  req.Categories,
		K:           k,
		TrendWeight: req.TrendWeight,
		Oversample:  req.Oversample,
	}

	var (
		resp *recommend.Response
		err  error
	)
	if hasImage {
		resp, err = h.engine.RecommendImage(r.Context(), req.Image, engineReq)
	} else {
		resp, err = h.engine.Recommend(r.Context(), engineReq)
	}
	if err != nil {
		h.writeEngineError(rw, err)
		return
	}

	rw.Success(resp)
}

func (h *Handler) writeEngineError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidArgument):
		rw.BadRequest(err.Error())
	case errors.Is(err, recommend.ErrNotReady):
		rw.Error(http.StatusServiceUnavailable, ErrCodeNotReady, "Index has not been built yet")
	case errors.Is(err, embed.ErrUnavailable):
		rw.ServiceUnavailable("Embedding service unavailable")
	default:
		rw.InternalError("Recommendation failed")
	}
}

// Trends handles GET /api/v1/trends. An optional category query parameter
// filters to one category.
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	points, err := h.store.ListTrends(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if points == nil {
		points = []trend.Point{}
	}
	rw.Success(map[string]interface{}{
		"points": points,
		"count":  len(points),
	})
}

// TrendsByCategory handles GET /api/v1/trends/{category}. Responds with the
// category's points plus the latest velocity; an unknown category yields an
// empty series and zero velocity rather than 404.
func (h *Handler) TrendsByCategory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	category := chi.URLParam(r, "category")
	points, err := h.store.ListTrends(r.Context(), category)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if points == nil {
		points = []trend.Point{}
	}

	// Points come back ordered by day, so the last one is current.
	var latestVelocity float64
	if len(points) > 0 {
		latestVelocity = points[len(points)-1].Velocity
	}

	rw.Success(map[string]interface{}{
		"category":        category,
		"points":          points,
		"count":           len(points),
		"latest_velocity": latestVelocity,
	})
}

// ItemRequest is the body of POST /api/v1/items.
type ItemRequest struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	URL       string    `json:"url" validate:"omitempty,url"`
	LocalPath string    `json:"local_path"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category" validate:"required"`
	Prob      float64   `json:"prob" validate:"gte=0,lte=1"`
	Embedding []float32 `json:"embedding" validate:"required"`
}

// CreateItem handles POST /api/v1/items.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body: " + err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		rw.ValidationError("Validation failed", err.Error())
		return
	}
	if len(req.Embedding) != h.cfg.Engine.Dimension {
		rw.BadRequest("Embedding must have dimension " + strconv.Itoa(h.cfg.Engine.Dimension))
		return
	}
	// The configured vocabulary is advisory; free-form labels are stored
	// as-is so new styles can be ingested without a config change.
	if len(h.categories) > 0 {
		if _, ok := h.categories[req.Category]; !ok {
			logging.Ctx(r.Context()).Warn().
				Str("category", req.Category).
				Msg("Category outside configured vocabulary")
		}
	}

	item := catalog.Item{
		ID:        req.ID,
		Source:    req.Source,
		URL:       req.URL,
		LocalPath: req.LocalPath,
		Timestamp: req.Timestamp,
		Category:  req.Category,
		Prob:      req.Prob,
		Embedding: req.Embedding,
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}

	if err := h.store.InsertItem(r.Context(), item); err != nil {
		if errors.Is(err, catalog.ErrDuplicateID) {
			metrics.RecordCatalogInsert("duplicate")
			rw.Conflict("Item already exists: " + item.ID)
			return
		}
		metrics.RecordCatalogInsert("error")
		rw.DatabaseError(err)
		return
	}
	metrics.RecordCatalogInsert("success")

	rw.Created(map[string]interface{}{
		"id":        item.ID,
		"category":  item.Category,
		"timestamp": item.Timestamp,
	})
}

// ItemsCount handles GET /api/v1/items/count.
func (h *Handler) ItemsCount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	count, err := h.store.CountItems(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	byCategory, err := h.store.CountByCategory(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	metrics.CatalogItems.Set(float64(count))

	rw.Success(map[string]interface{}{
		"count":       count,
		"by_category": byCategory,
	})
}

// GetItem handles GET /api/v1/items/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := chi.URLParam(r, "id")
	item, err := h.store.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			rw.NotFound("Item not found: " + id)
			return
		}
		rw.DatabaseError(err)
		return
	}
	rw.Success(item)
}

// Rebuild handles POST /api/v1/rebuild. The build runs detached from the
// request context so a client disconnect cannot abort it mid-flight. A
// rebuild already in flight yields 409 rather than queueing.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.engine.Status().Rebuilding {
		rw.Conflict("A rebuild is already in progress")
		return
	}

	reqLogger := logging.Ctx(r.Context())
	go func() {
		if _, err := h.engine.Rebuild(context.Background()); err != nil &&
			!errors.Is(err, recommend.ErrRebuildInProgress) {
			reqLogger.Error().Err(err).Msg("Triggered rebuild failed")
		}
	}()

	rw.Accepted(map[string]string{"status": "rebuild started"})
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	st := h.engine.Status()
	count, err := h.store.CountItems(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	byCategory, err := h.store.CountByCategory(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	metrics.CatalogItems.Set(float64(count))

	rw.Success(map[string]interface{}{
		"engine":             st,
		"catalog_items":      count,
		"items_by_category":  byCategory,
		"trend_weight":       h.cfg.Engine.TrendWeight,
		"embedding_provider": h.cfg.Embed.Enabled,
	})
}

// HealthLive handles GET /api/v1/health/live. The process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]string{"status": "ok"})
}

// HealthReady handles GET /api/v1/health/ready. Ready means the database
// responds and an index snapshot is available.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.store.Ping(r.Context()); err != nil {
		rw.ServiceUnavailable("Database unavailable")
		return
	}
	if !h.engine.Ready() {
		rw.Error(http.StatusServiceUnavailable, ErrCodeNotReady, "Index has not been built yet")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}
