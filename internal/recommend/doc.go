// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

// Package recommend implements the trend-aware ranking engine.
//
// The engine holds an immutable snapshot bundling the vector index, the
// trend table, and item metadata behind a single atomic pointer. Queries
// read whichever snapshot is current; Rebuild assembles a complete new
// snapshot off to the side and swaps the pointer once, so a query never
// sees an index from one rebuild paired with trends from another.
//
// Scoring combines cosine similarity with a category trend boost:
//
//	combined = similarity + trendWeight * max(0, latestVelocity(category))
//
// Cooling categories (negative velocity) are clamped to zero boost rather
// than penalized.
package recommend
