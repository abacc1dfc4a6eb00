// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package trend

import (
	"math"
	"testing"
	"time"
)

const floatTol = 1e-9

func day(offset int) time.Time {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

// eventsForCounts generates count[i] events for category on day i.
func eventsForCounts(category string, counts []int) []Event {
	var events []Event
	for i, c := range counts {
		for j := 0; j < c; j++ {
			// Spread timestamps within the day to exercise bucketing.
			ts := day(i).Add(time.Duration(j) * time.Hour)
			events = append(events, Event{Category: category, Timestamp: ts})
		}
	}
	return events
}

func TestComputeInvalidSpan(t *testing.T) {
	for _, span := range []int{0, -1, -100} {
		if _, err := Compute(nil, span); err == nil {
			t.Errorf("Compute(span=%d) expected error, got nil", span)
		}
	}
}

func TestComputeEMAAndVelocity(t *testing.T) {
	// Daily counts 2, 2, 8, 2 with span 3 (alpha = 0.5).
	events := eventsForCounts("streetwear", []int{2, 2, 8, 2})

	table, err := Compute(events, 3)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	points := table.Points("streetwear")
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}

	wantEMA := []float64{2, 2, 5, 3.5}
	wantVel := []float64{0, 0, 3, -1.5}
	for i, p := range points {
		if math.Abs(p.EMA-wantEMA[i]) > floatTol {
			t.Errorf("point %d: EMA = %v, want %v", i, p.EMA, wantEMA[i])
		}
		if math.Abs(p.Velocity-wantVel[i]) > floatTol {
			t.Errorf("point %d: Velocity = %v, want %v", i, p.Velocity, wantVel[i])
		}
		if !p.Day.Equal(day(i)) {
			t.Errorf("point %d: Day = %v, want %v", i, p.Day, day(i))
		}
	}

	if got := table.LatestVelocity("streetwear"); math.Abs(got-(-1.5)) > floatTol {
		t.Errorf("LatestVelocity = %v, want -1.5", got)
	}
}

func TestComputeConstantCountsVelocityDecays(t *testing.T) {
	events := eventsForCounts("formal", []int{3, 3, 3, 3, 3, 3})

	table, err := Compute(events, 3)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for i, p := range table.Points("formal") {
		if math.Abs(p.Velocity) > floatTol {
			t.Errorf("point %d: Velocity = %v, want 0 for constant counts", i, p.Velocity)
		}
	}
}

func TestComputeSingleDayCategory(t *testing.T) {
	events := []Event{
		{Category: "vintage", Timestamp: day(0).Add(12 * time.Hour)},
		{Category: "vintage", Timestamp: day(0).Add(14 * time.Hour)},
	}

	table, err := Compute(events, 5)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	points := table.Points("vintage")
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	if points[0].Count != 2 {
		t.Errorf("Count = %d, want 2", points[0].Count)
	}
	if points[0].EMA != 2 {
		t.Errorf("EMA = %v, want 2", points[0].EMA)
	}
	if points[0].Velocity != 0 {
		t.Errorf("Velocity = %v, want 0", points[0].Velocity)
	}
	if got := table.LatestVelocity("vintage"); got != 0 {
		t.Errorf("LatestVelocity = %v, want 0", got)
	}
}

func TestComputeGapsNotFilled(t *testing.T) {
	// Observations on days 0, 1 and 5; days 2-4 have no events and must
	// not appear as synthetic zero-count points.
	events := []Event{
		{Category: "grunge", Timestamp: day(0)},
		{Category: "grunge", Timestamp: day(1)},
		{Category: "grunge", Timestamp: day(5)},
	}

	table, err := Compute(events, 3)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	points := table.Points("grunge")
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3 (gap days must not be synthesized)", len(points))
	}
	wantDays := []time.Time{day(0), day(1), day(5)}
	for i, p := range points {
		if !p.Day.Equal(wantDays[i]) {
			t.Errorf("point %d: Day = %v, want %v", i, p.Day, wantDays[i])
		}
	}
}

func TestComputeUTCBucketing(t *testing.T) {
	// 23:30 UTC and 00:30 UTC the next day land in different buckets even
	// though they are an hour apart.
	events := []Event{
		{Category: "minimalist", Timestamp: day(0).Add(23*time.Hour + 30*time.Minute)},
		{Category: "minimalist", Timestamp: day(1).Add(30 * time.Minute)},
	}

	table, err := Compute(events, 3)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	points := table.Points("minimalist")
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}

	// A non-UTC timestamp buckets by its UTC day.
	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2026, 3, 1, 22, 0, 0, 0, est) // 2026-03-02 03:00 UTC
	table2, err := Compute([]Event{{Category: "x", Timestamp: late}}, 3)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := table2.Points("x")[0].Day; !got.Equal(day(1)) {
		t.Errorf("Day = %v, want %v (UTC bucketing)", got, day(1))
	}
}

func TestComputeUnknownCategoryNeutral(t *testing.T) {
	table, err := Compute(eventsForCounts("formal", []int{1, 2}), 3)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := table.LatestVelocity("no-such-category"); got != 0 {
		t.Errorf("LatestVelocity(unknown) = %v, want 0", got)
	}
	if pts := table.Points("no-such-category"); pts != nil {
		t.Errorf("Points(unknown) = %v, want nil", pts)
	}
}

func TestComputeDeterministic(t *testing.T) {
	events := append(
		eventsForCounts("streetwear", []int{2, 5, 1, 7}),
		eventsForCounts("formal", []int{4, 4, 9})...,
	)

	first, err := Compute(events, 5)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for i := 0; i < 5; i++ {
		next, err := Compute(events, 5)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		for _, c := range first.Categories() {
			a, b := first.Points(c), next.Points(c)
			if len(a) != len(b) {
				t.Fatalf("run %d: category %q point count differs", i, c)
			}
			for j := range a {
				if a[j] != b[j] {
					t.Errorf("run %d: category %q point %d differs: %+v vs %+v", i, c, j, a[j], b[j])
				}
			}
		}
	}
}

func TestAllPointsOrdered(t *testing.T) {
	events := append(
		eventsForCounts("vintage", []int{1, 2}),
		eventsForCounts("formal", []int{3})...,
	)

	table, err := Compute(events, 3)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	all := table.AllPoints()
	if len(all) != 3 {
		t.Fatalf("got %d points, want 3", len(all))
	}
	// Sorted by category then day: formal before vintage.
	if all[0].Category != "formal" {
		t.Errorf("first point category = %q, want formal", all[0].Category)
	}
	if all[1].Category != "vintage" || all[2].Category != "vintage" {
		t.Errorf("vintage points out of order: %+v", all[1:])
	}
	if !all[1].Day.Before(all[2].Day) {
		t.Errorf("vintage points not chronological")
	}
}

func TestCategories(t *testing.T) {
	table, err := Compute([]Event{
		{Category: "b", Timestamp: day(0)},
		{Category: "a", Timestamp: day(0)},
		{Category: "c", Timestamp: day(0)},
	}, 3)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	got := table.Categories()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Categories = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Categories[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
