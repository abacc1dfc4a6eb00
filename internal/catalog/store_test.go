// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stylecast/stylecast/internal/trend"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func testItem(id, category string, ts time.Time) Item {
	return Item{
		ID:        id,
		Source:    "reddit",
		URL:       "https://example.com/" + id + ".jpg",
		LocalPath: "/data/images/" + id + ".jpg",
		Timestamp: ts,
		Category:  category,
		Prob:      0.91,
		Embedding: []float32{0.1, 0.2, 0.3, 0.4},
	}
}

func TestInsertAndGetItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 4, 2, 15, 30, 0, 0, time.UTC)
	want := testItem("item-1", "streetwear", ts)
	if err := s.InsertItem(ctx, want); err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	got, err := s.GetItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.ID != want.ID || got.Source != want.Source || got.URL != want.URL ||
		got.LocalPath != want.LocalPath || got.Category != want.Category {
		t.Errorf("GetItem = %+v, want %+v", got, want)
	}
	if math.Abs(got.Prob-want.Prob) > 1e-9 {
		t.Errorf("Prob = %v, want %v", got.Prob, want.Prob)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
	}
	if len(got.Embedding) != len(want.Embedding) {
		t.Fatalf("Embedding length = %d, want %d", len(got.Embedding), len(want.Embedding))
	}
	for i := range want.Embedding {
		if got.Embedding[i] != want.Embedding[i] {
			t.Errorf("Embedding[%d] = %v, want %v", i, got.Embedding[i], want.Embedding[i])
		}
	}
}

func TestInsertDuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := testItem("dup", "formal", time.Now().UTC())
	if err := s.InsertItem(ctx, item); err != nil {
		t.Fatalf("first InsertItem: %v", err)
	}
	err := s.InsertItem(ctx, item)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("second InsertItem error = %v, want ErrDuplicateID", err)
	}
}

func TestGetItemNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetItem(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetItem error = %v, want ErrNotFound", err)
	}
}

func TestListItemsInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	ids := []string{"c", "a", "b"} // deliberately not sorted
	for i, id := range ids {
		if err := s.InsertItem(ctx, testItem(id, "vintage", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("InsertItem %s: %v", id, err)
		}
	}

	items, err := s.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != len(ids) {
		t.Fatalf("got %d items, want %d", len(items), len(ids))
	}
	for i, id := range ids {
		if items[i].ID != id {
			t.Errorf("items[%d].ID = %q, want %q (insertion order)", i, items[i].ID, id)
		}
	}
}

func TestCountItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if n != 0 {
		t.Errorf("CountItems = %d, want 0", n)
	}

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("item-%d", i)
		if err := s.InsertItem(ctx, testItem(id, "grunge", time.Now().UTC())); err != nil {
			t.Fatalf("InsertItem: %v", err)
		}
	}
	n, err = s.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if n != 3 {
		t.Errorf("CountItems = %d, want 3", n)
	}
}

func TestCountByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, category := range []string{"formal", "formal", "streetwear"} {
		id := fmt.Sprintf("item-%d", i)
		if err := s.InsertItem(ctx, testItem(id, category, time.Now().UTC())); err != nil {
			t.Fatalf("InsertItem: %v", err)
		}
	}

	counts, err := s.CountByCategory(ctx)
	if err != nil {
		t.Fatalf("CountByCategory: %v", err)
	}
	if counts["formal"] != 2 || counts["streetwear"] != 1 {
		t.Errorf("CountByCategory = %v", counts)
	}
}

func TestReplaceAndListTrends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day := func(offset int) time.Time {
		return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}
	points := []trend.Point{
		{Category: "streetwear", Day: day(0), Count: 2, EMA: 2, Velocity: 0},
		{Category: "streetwear", Day: day(1), Count: 8, EMA: 5, Velocity: 3},
		{Category: "formal", Day: day(0), Count: 1, EMA: 1, Velocity: 0},
	}
	if err := s.ReplaceTrends(ctx, points); err != nil {
		t.Fatalf("ReplaceTrends: %v", err)
	}

	all, err := s.ListTrends(ctx, "")
	if err != nil {
		t.Fatalf("ListTrends: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d points, want 3", len(all))
	}
	// Ordered by category then day: formal first.
	if all[0].Category != "formal" {
		t.Errorf("all[0].Category = %q, want formal", all[0].Category)
	}

	street, err := s.ListTrends(ctx, "streetwear")
	if err != nil {
		t.Fatalf("ListTrends(streetwear): %v", err)
	}
	if len(street) != 2 {
		t.Fatalf("got %d streetwear points, want 2", len(street))
	}
	if !street[0].Day.Equal(day(0)) || !street[1].Day.Equal(day(1)) {
		t.Errorf("streetwear points out of order: %+v", street)
	}
	if street[1].Velocity != 3 {
		t.Errorf("Velocity = %v, want 3", street[1].Velocity)
	}

	// A second replace fully supersedes the first snapshot.
	if err := s.ReplaceTrends(ctx, points[:1]); err != nil {
		t.Fatalf("ReplaceTrends: %v", err)
	}
	all, err = s.ListTrends(ctx, "")
	if err != nil {
		t.Fatalf("ListTrends: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d points after replace, want 1", len(all))
	}

	// Replacing with nothing clears the table.
	if err := s.ReplaceTrends(ctx, nil); err != nil {
		t.Fatalf("ReplaceTrends(nil): %v", err)
	}
	all, err = s.ListTrends(ctx, "")
	if err != nil {
		t.Fatalf("ListTrends: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d points after clear, want 0", len(all))
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	vec := []float32{0, -1.5, 3.14159, math.MaxFloat32, math.SmallestNonzeroFloat32}
	got, err := DecodeEmbedding(EncodeEmbedding(vec))
	if err != nil {
		t.Fatalf("DecodeEmbedding: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("length = %d, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], vec[i])
		}
	}
}

func TestDecodeEmbeddingBadLength(t *testing.T) {
	if _, err := DecodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob, got nil")
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
