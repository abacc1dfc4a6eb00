// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

// Package catalog provides durable storage for fashion items and computed
// trend points, backed by an embedded DuckDB database.
//
// Items carry their CLIP embedding as a little-endian float32 blob so a
// restart can rebuild the in-memory search index without re-embedding any
// image. Trend points are replaced wholesale on every recompute; the table
// is a persisted snapshot of the latest trend computation, not a log.
package catalog
