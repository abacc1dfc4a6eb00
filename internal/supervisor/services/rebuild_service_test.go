// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylecast/stylecast/internal/recommend"
)

type fakeRebuilder struct {
	ready        atomic.Bool
	warmStartErr error
	rebuildErr   error

	warmStarts atomic.Int64
	rebuilds   atomic.Int64
}

func (f *fakeRebuilder) Rebuild(ctx context.Context) (recommend.RebuildStats, error) {
	f.rebuilds.Add(1)
	if f.rebuildErr != nil {
		return recommend.RebuildStats{}, f.rebuildErr
	}
	f.ready.Store(true)
	return recommend.RebuildStats{Indexed: 1, Version: f.rebuilds.Load()}, nil
}

func (f *fakeRebuilder) WarmStart(ctx context.Context) error {
	f.warmStarts.Add(1)
	if f.warmStartErr != nil {
		return f.warmStartErr
	}
	f.ready.Store(true)
	return nil
}

func (f *fakeRebuilder) Ready() bool {
	return f.ready.Load()
}

func serveUntil(t *testing.T, svc *RebuildService, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve error = %v, want deadline exceeded", err)
	}
}

func TestRebuildServiceWarmStartOnStartup(t *testing.T) {
	engine := &fakeRebuilder{}
	svc := NewRebuildService(engine, RebuildServiceConfig{
		RebuildOnStartup: true,
	}, zerolog.Nop())

	serveUntil(t, svc, 50*time.Millisecond)

	if got := engine.warmStarts.Load(); got != 1 {
		t.Errorf("warm starts = %d, want 1", got)
	}
	if got := engine.rebuilds.Load(); got != 0 {
		t.Errorf("rebuilds = %d, want 0 (warm start succeeded)", got)
	}
}

func TestRebuildServiceFallsBackToRebuild(t *testing.T) {
	engine := &fakeRebuilder{warmStartErr: errors.New("artifact missing")}
	svc := NewRebuildService(engine, RebuildServiceConfig{
		RebuildOnStartup: true,
	}, zerolog.Nop())

	serveUntil(t, svc, 50*time.Millisecond)

	if got := engine.warmStarts.Load(); got != 1 {
		t.Errorf("warm starts = %d, want 1", got)
	}
	if got := engine.rebuilds.Load(); got != 1 {
		t.Errorf("rebuilds = %d, want 1 (fallback)", got)
	}
}

func TestRebuildServiceSkipsStartupWhenReady(t *testing.T) {
	engine := &fakeRebuilder{}
	engine.ready.Store(true)
	svc := NewRebuildService(engine, RebuildServiceConfig{
		RebuildOnStartup: true,
	}, zerolog.Nop())

	serveUntil(t, svc, 50*time.Millisecond)

	if got := engine.warmStarts.Load(); got != 0 {
		t.Errorf("warm starts = %d, want 0 (already ready)", got)
	}
	if got := engine.rebuilds.Load(); got != 0 {
		t.Errorf("rebuilds = %d, want 0", got)
	}
}

func TestRebuildServiceStartupDisabled(t *testing.T) {
	engine := &fakeRebuilder{}
	svc := NewRebuildService(engine, RebuildServiceConfig{
		RebuildOnStartup: false,
	}, zerolog.Nop())

	serveUntil(t, svc, 50*time.Millisecond)

	if got := engine.warmStarts.Load() + engine.rebuilds.Load(); got != 0 {
		t.Errorf("engine called %d times, want 0", got)
	}
}

func TestRebuildServicePeriodicRebuilds(t *testing.T) {
	engine := &fakeRebuilder{}
	svc := NewRebuildService(engine, RebuildServiceConfig{
		RebuildInterval: 20 * time.Millisecond,
	}, zerolog.Nop())

	serveUntil(t, svc, 110*time.Millisecond)

	if got := engine.rebuilds.Load(); got < 2 {
		t.Errorf("rebuilds = %d, want at least 2", got)
	}
}

func TestRebuildServiceSkipsBusyTicks(t *testing.T) {
	engine := &fakeRebuilder{rebuildErr: recommend.ErrRebuildInProgress}
	svc := NewRebuildService(engine, RebuildServiceConfig{
		RebuildInterval: 20 * time.Millisecond,
	}, zerolog.Nop())

	// The service must keep ticking rather than exiting on the busy error.
	serveUntil(t, svc, 110*time.Millisecond)

	if got := engine.rebuilds.Load(); got < 2 {
		t.Errorf("rebuild attempts = %d, want at least 2", got)
	}
}

func TestRebuildServiceString(t *testing.T) {
	svc := NewRebuildService(&fakeRebuilder{}, RebuildServiceConfig{}, zerolog.Nop())
	if svc.String() != "rebuild-service" {
		t.Errorf("String() = %q", svc.String())
	}
}
