// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package vecindex

import (
	"fmt"
	"math"
)

// minNorm is the smallest L2 norm that can be safely normalized. Vectors
// below it carry no direction and are rejected.
const minNorm = 1e-12

// BuildOptions controls how BuildNormalized treats invalid embeddings.
type BuildOptions struct {
	// Strict fails the whole build on the first near-zero-norm vector.
	// When false (the default), such vectors are skipped and counted in
	// BuildStats.Skipped.
	Strict bool
}

// BuildStats reports what a normalized build did.
type BuildStats struct {
	Indexed   int
	Skipped   int
	Dimension int
}

// BuildNormalized L2-normalizes every entry vector and constructs a new
// index from the result. Near-zero-norm vectors are skipped (or fail the
// build under opts.Strict); inconsistent dimensions always fail the build.
// The input entries are not modified.
func BuildNormalized(entries []Entry, opts BuildOptions) (*Index, BuildStats, error) {
	var stats BuildStats

	normalized := make([]Entry, 0, len(entries))
	for _, e := range entries {
		vec, err := Normalize(e.Vector)
		if err != nil {
			if opts.Strict {
				return nil, stats, fmt.Errorf("entry %q: %w", e.ID, err)
			}
			stats.Skipped++
			continue
		}
		normalized = append(normalized, Entry{ID: e.ID, Vector: vec})
	}

	idx, err := Build(normalized)
	if err != nil {
		return nil, stats, err
	}

	stats.Indexed = idx.Size()
	stats.Dimension = idx.Dimension()
	return idx, stats, nil
}

// Normalize returns a unit-length copy of v. It returns ErrInvalidEmbedding
// when the norm is too small to normalize.
func Normalize(v []float32) ([]float32, error) {
	n := Norm(v)
	if n < minNorm {
		return nil, fmt.Errorf("%w: norm %g below %g", ErrInvalidEmbedding, n, minNorm)
	}

	out := make([]float32, len(v))
	inv := 1.0 / n
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out, nil
}

// Norm returns the L2 norm of v, accumulated in float64.
func Norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}
