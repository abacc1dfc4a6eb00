// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package vecindex

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for index construction and queries.
var (
	// ErrDimensionMismatch indicates embeddings of inconsistent length.
	ErrDimensionMismatch = errors.New("vecindex: dimension mismatch")

	// ErrInvalidEmbedding indicates a vector that cannot be normalized
	// (near-zero norm).
	ErrInvalidEmbedding = errors.New("vecindex: invalid embedding")
)

// Entry is a single (id, embedding) pair to be indexed.
// The embedding must already be unit-normalized.
type Entry struct {
	ID     string
	Vector []float32
}

// Result is a single search hit. Rank is the zero-based position in the
// search ordering; callers use it as a deterministic tie-breaker downstream.
type Result struct {
	ID    string
	Score float64
	Rank  int
}

// Index is an immutable brute-force inner-product index.
type Index struct {
	ids  []string
	vecs [][]float32
	dim  int
}

// Build constructs a new index from entries. All vectors must share the same
// dimension; a mismatch fails the whole build with ErrDimensionMismatch.
// The returned index copies the entry slices and never mutates a previously
// returned instance.
func Build(entries []Entry) (*Index, error) {
	idx := &Index{}
	if len(entries) == 0 {
		return idx, nil
	}

	dim := len(entries[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty vector for %q", ErrDimensionMismatch, entries[0].ID)
	}

	idx.ids = make([]string, len(entries))
	idx.vecs = make([][]float32, len(entries))
	idx.dim = dim

	for i, e := range entries {
		if len(e.Vector) != dim {
			return nil, fmt.Errorf("%w: %q has dim %d, index dim %d",
				ErrDimensionMismatch, e.ID, len(e.Vector), dim)
		}
		idx.ids[i] = e.ID
		vec := make([]float32, dim)
		copy(vec, e.Vector)
		idx.vecs[i] = vec
	}

	return idx, nil
}

// Size returns the number of indexed vectors.
func (i *Index) Size() int {
	return len(i.ids)
}

// Dimension returns the vector dimension, or 0 for an empty index.
func (i *Index) Dimension() int {
	return i.dim
}

// Search returns up to min(n, size) results scored by inner product against
// query, sorted by score descending. Ties are broken by ascending insertion
// order, so identical inputs always produce identical output.
//
// The query must be unit-normalized by the caller; the index does not
// renormalize.
func (i *Index) Search(query []float32, n int) ([]Result, error) {
	if len(i.ids) == 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("%w: query dim %d, index dim %d",
			ErrDimensionMismatch, len(query), i.dim)
	}
	if n <= 0 {
		return nil, nil
	}

	type scored struct {
		pos   int
		score float64
	}
	all := make([]scored, len(i.vecs))
	for j := range i.vecs {
		all[j] = scored{pos: j, score: dot(query, i.vecs[j])}
	}

	sort.Slice(all, func(a, b int) bool {
		if all[a].score != all[b].score {
			return all[a].score > all[b].score
		}
		return all[a].pos < all[b].pos
	})

	if n > len(all) {
		n = len(all)
	}
	results := make([]Result, n)
	for r := 0; r < n; r++ {
		results[r] = Result{ID: i.ids[all[r].pos], Score: all[r].score, Rank: r}
	}
	return results, nil
}

// dot computes the inner product in float64 to limit accumulation error.
func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
