// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package catalog

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Item is one catalogued fashion image with its style classification and
// CLIP embedding.
type Item struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	LocalPath string    `json:"local_path"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Prob      float64   `json:"prob"` // classifier confidence for Category
	Embedding []float32 `json:"-"`
}

// EncodeEmbedding serializes an embedding as little-endian float32 bytes for
// blob storage.
func EncodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// DecodeEmbedding deserializes a blob produced by EncodeEmbedding.
func DecodeEmbedding(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}
