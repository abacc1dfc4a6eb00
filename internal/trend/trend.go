// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package trend

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidSpan indicates a non-positive EMA span.
var ErrInvalidSpan = errors.New("trend: ema span must be positive")

// Event is the minimal projection of a catalog item the engine needs:
// which category it belongs to and when it was observed.
type Event struct {
	Category  string
	Timestamp time.Time
}

// Point is one (category, day) observation with its smoothed count and
// velocity. Day is midnight UTC of the calendar day.
type Point struct {
	Category string    `json:"category"`
	Day      time.Time `json:"day"`
	Count    int       `json:"count"`
	EMA      float64   `json:"ema"`
	Velocity float64   `json:"velocity"`
}

// Table is an immutable per-category trend table produced by Compute.
// Readers hold a *Table obtained from a snapshot; a recompute builds a new
// Table and swaps the pointer, so a half-written table is never observable.
type Table struct {
	points map[string][]Point
	latest map[string]float64
}

// Compute builds a fresh Table from the catalog timeline.
//
// Per category: group events by UTC day, sort days ascending, smooth the
// daily counts with EMA (alpha = 2/(span+1), seeded with the first count),
// then take the first difference as velocity. A category's first observed
// day always has velocity 0. Only days with at least one event appear.
func Compute(events []Event, span int) (*Table, error) {
	if span < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSpan, span)
	}

	counts := make(map[string]map[time.Time]int)
	for _, ev := range events {
		day := ev.Timestamp.UTC().Truncate(24 * time.Hour)
		if counts[ev.Category] == nil {
			counts[ev.Category] = make(map[time.Time]int)
		}
		counts[ev.Category][day]++
	}

	alpha := 2.0 / (float64(span) + 1.0)
	t := &Table{
		points: make(map[string][]Point, len(counts)),
		latest: make(map[string]float64, len(counts)),
	}

	for category, byDay := range counts {
		days := make([]time.Time, 0, len(byDay))
		for day := range byDay {
			days = append(days, day)
		}
		sort.Slice(days, func(a, b int) bool { return days[a].Before(days[b]) })

		points := make([]Point, len(days))
		var prevEMA float64
		for i, day := range days {
			count := byDay[day]
			var ema, velocity float64
			if i == 0 {
				ema = float64(count)
			} else {
				ema = alpha*float64(count) + (1.0-alpha)*prevEMA
				velocity = ema - prevEMA
			}
			points[i] = Point{
				Category: category,
				Day:      day,
				Count:    count,
				EMA:      ema,
				Velocity: velocity,
			}
			prevEMA = ema
		}

		t.points[category] = points
		t.latest[category] = points[len(points)-1].Velocity
	}

	return t, nil
}

// LatestVelocity returns the velocity of the chronologically last point for
// category, or 0 for a category with no observations. An unknown category is
// neutral, not an error.
func (t *Table) LatestVelocity(category string) float64 {
	return t.latest[category]
}

// Points returns the trend points for category in chronological order.
// The returned slice is shared and must not be modified.
func (t *Table) Points(category string) []Point {
	return t.points[category]
}

// AllPoints returns every point in the table ordered by category then day,
// suitable for persistence and inspection.
func (t *Table) AllPoints() []Point {
	categories := t.Categories()
	var out []Point
	for _, c := range categories {
		out = append(out, t.points[c]...)
	}
	return out
}

// Categories returns the categories present in the table, sorted.
func (t *Table) Categories() []string {
	out := make([]string, 0, len(t.points))
	for c := range t.points {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
