// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

// Package trend turns the catalog timeline into a per-category velocity
// signal.
//
// For each category independently, items are bucketed by UTC calendar day,
// the daily counts are smoothed with an exponential moving average
// (alpha = 2/(span+1)), and velocity is the first difference of the EMA
// curve. Positive velocity means the category is accelerating; the scorer
// uses it as a ranking boost.
//
// Days with zero events are not synthesized: a category active on Monday and
// Thursday produces two points, and the EMA steps directly between them.
// Filling gaps would damp velocity for bursty categories; the simplification
// is deliberate and matched by the tests.
//
// Compute is pure: the same catalog snapshot and span always produce a
// bit-for-bit identical table.
package trend
