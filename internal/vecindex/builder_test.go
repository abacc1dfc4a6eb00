// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package vecindex

import (
	"errors"
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		vec     []float32
		wantErr bool
	}{
		{name: "already unit", vec: []float32{1, 0, 0}},
		{name: "needs scaling", vec: []float32{3, 4, 0}},
		{name: "tiny components", vec: []float32{1e-3, 1e-3}},
		{name: "zero vector rejected", vec: []float32{0, 0, 0}, wantErr: true},
		{name: "subnormal rejected", vec: []float32{1e-30, 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.vec)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEmbedding) {
					t.Fatalf("Normalize() error = %v, want ErrInvalidEmbedding", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if n := Norm(got); math.Abs(n-1.0) > 1e-5 {
				t.Errorf("norm after normalize = %g, want 1.0 +- 1e-5", n)
			}
		})
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := []float32{3, 4}
	if _, err := Normalize(in); err != nil {
		t.Fatal(err)
	}
	if in[0] != 3 || in[1] != 4 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestBuildNormalized(t *testing.T) {
	entries := []Entry{
		{ID: "ok-1", Vector: []float32{2, 0}},
		{ID: "zero", Vector: []float32{0, 0}},
		{ID: "ok-2", Vector: []float32{0, 5}},
	}

	t.Run("default skips invalid embeddings", func(t *testing.T) {
		idx, stats, err := BuildNormalized(entries, BuildOptions{})
		if err != nil {
			t.Fatalf("BuildNormalized() error = %v", err)
		}
		if stats.Indexed != 2 || stats.Skipped != 1 {
			t.Errorf("stats = %+v, want Indexed=2 Skipped=1", stats)
		}
		if stats.Dimension != 2 {
			t.Errorf("Dimension = %d, want 2", stats.Dimension)
		}

		// Every stored vector must be unit length.
		for _, vec := range idx.vecs {
			if n := Norm(vec); math.Abs(n-1.0) > 1e-5 {
				t.Errorf("stored norm = %g, want 1.0 +- 1e-5", n)
			}
		}
	})

	t.Run("strict fails on invalid embedding", func(t *testing.T) {
		_, _, err := BuildNormalized(entries, BuildOptions{Strict: true})
		if !errors.Is(err, ErrInvalidEmbedding) {
			t.Errorf("BuildNormalized(Strict) error = %v, want ErrInvalidEmbedding", err)
		}
	})

	t.Run("dimension mismatch always fails", func(t *testing.T) {
		bad := []Entry{
			{ID: "a", Vector: []float32{1, 0}},
			{ID: "b", Vector: []float32{1, 0, 0}},
		}
		_, _, err := BuildNormalized(bad, BuildOptions{})
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("BuildNormalized() error = %v, want ErrDimensionMismatch", err)
		}
	})
}

func TestBuildNormalizedPreservesOrder(t *testing.T) {
	entries := []Entry{
		{ID: "first", Vector: []float32{7, 0}},
		{ID: "second", Vector: []float32{7, 0}},
	}
	idx, _, err := BuildNormalized(entries, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].ID != "first" || results[1].ID != "second" {
		t.Errorf("order = [%s, %s], want [first, second]", results[0].ID, results[1].ID)
	}
}
