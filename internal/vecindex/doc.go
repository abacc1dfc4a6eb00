// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

// Package vecindex implements the in-memory vector index used for
// nearest-neighbor search over catalog embeddings.
//
// The index is exact brute-force inner product: at catalog sizes in the
// thousands this is faster and simpler than an approximate backend, and the
// ordering contract (score descending, ties broken by insertion order) is
// trivially deterministic. Embeddings are unit-normalized before insertion,
// so inner product equals cosine similarity.
//
// An Index is immutable after Build. A rebuild produces a new Index that the
// caller publishes with an atomic swap; there are no insert or delete
// operations, which keeps the query path lock-free.
//
// The binary artifact format (Save/Load) round-trips the index exactly so a
// restart can serve queries without renormalizing the catalog.
package vecindex
