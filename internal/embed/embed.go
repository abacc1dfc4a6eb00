// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

// Package embed provides clients for the external CLIP embedding service.
// The ranking engine only depends on the Provider interface, so tests and
// deployments without an embedding sidecar can substitute their own.
package embed

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the embedding backend cannot currently serve
// requests, either because it is disabled or its circuit breaker is open.
var ErrUnavailable = errors.New("embed: provider unavailable")

// Provider turns an image reference into an embedding vector.
type Provider interface {
	// EmbedImage embeds the image identified by ref, which is either a URL
	// or a server-local path depending on the provider.
	EmbedImage(ctx context.Context, ref string) ([]float32, error)

	// Dimension returns the length of vectors this provider produces.
	Dimension() int
}
