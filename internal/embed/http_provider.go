// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package embed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/stylecast/stylecast/internal/config"
	"github.com/stylecast/stylecast/internal/logging"
	"github.com/stylecast/stylecast/internal/metrics"
)

// maxErrorBodyBytes caps how much of an error response body is read for
// error messages.
const maxErrorBodyBytes = 4096

// HTTPProvider calls a CLIP embedding sidecar over HTTP. Requests are rate
// limited and wrapped in a circuit breaker so a crashed or overloaded
// sidecar fails fast instead of piling up blocked handlers.
type HTTPProvider struct {
	url       string
	dimension int
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]float32]
}

type embedRequest struct {
	Image string `json:"image"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewHTTPProvider builds a provider for the service at cfg.URL producing
// vectors of the given dimension.
func NewHTTPProvider(cfg *config.EmbedConfig, dimension int) *HTTPProvider {
	settings := gobreaker.Settings{
		Name: "embed",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetEmbedBreakerState(to.String())
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Embedding circuit breaker state changed")
		},
	}

	return &HTTPProvider{
		url:       cfg.URL,
		dimension: dimension,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		breaker:   gobreaker.NewCircuitBreaker[[]float32](settings),
	}
}

// Dimension returns the embedding vector length.
func (p *HTTPProvider) Dimension() int {
	return p.dimension
}

// BreakerState returns the circuit breaker state for monitoring.
func (p *HTTPProvider) BreakerState() string {
	return p.breaker.State().String()
}

// EmbedImage posts the image reference to the sidecar and returns its
// embedding. A breaker-open error is reported as ErrUnavailable.
func (p *HTTPProvider) EmbedImage(ctx context.Context, ref string) ([]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embed: rate limit wait: %w", err)
	}

	vec, err := p.breaker.Execute(func() ([]float32, error) {
		return p.doEmbed(ctx, ref)
	})
	if err != nil {
		if isBreakerErr(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return vec, nil
}

func (p *HTTPProvider) doEmbed(ctx context.Context, ref string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Image: ref})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close embed response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("embed: service returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	if len(out.Embedding) != p.dimension {
		return nil, fmt.Errorf("embed: service returned %d-dimensional vector, want %d",
			len(out.Embedding), p.dimension)
	}
	return out.Embedding, nil
}

func isBreakerErr(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
