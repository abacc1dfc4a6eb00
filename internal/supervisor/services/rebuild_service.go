// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylecast/stylecast/internal/recommend"
)

// Rebuilder is the slice of the ranking engine this service drives.
type Rebuilder interface {
	Rebuild(ctx context.Context) (recommend.RebuildStats, error)
	WarmStart(ctx context.Context) error
	Ready() bool
}

// RebuildServiceConfig holds configuration for the rebuild loop.
type RebuildServiceConfig struct {
	// RebuildOnStartup builds the index when the service starts. A saved
	// artifact is tried first; a full rebuild is the fallback.
	RebuildOnStartup bool

	// RebuildInterval is how often to rebuild. Zero disables the periodic
	// loop; rebuilds then only happen via the API.
	RebuildInterval time.Duration

	// RebuildTimeout bounds a single rebuild.
	RebuildTimeout time.Duration
}

// RebuildService keeps the engine's index fresh: an initial build on
// startup, then optional periodic rebuilds to fold in newly ingested items.
type RebuildService struct {
	engine Rebuilder
	config RebuildServiceConfig
	logger zerolog.Logger
}

// NewRebuildService creates the rebuild loop service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRebuildService(engine Rebuilder, cfg RebuildServiceConfig, logger zerolog.Logger) *RebuildService {
	if cfg.RebuildTimeout <= 0 {
		cfg.RebuildTimeout = 30 * time.Minute
	}
	return &RebuildService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "rebuild").Logger(),
	}
}

// Serve implements the suture.Service interface.
func (s *RebuildService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("rebuild_on_startup", s.config.RebuildOnStartup).
		Dur("rebuild_interval", s.config.RebuildInterval).
		Msg("rebuild service starting")

	if s.config.RebuildOnStartup && !s.engine.Ready() {
		if err := s.engine.WarmStart(ctx); err != nil {
			s.logger.Info().Err(err).Msg("warm start unavailable, building from catalog")
			if err := s.rebuild(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("initial rebuild failed (will retry on schedule)")
			}
		}
	}

	if s.config.RebuildInterval <= 0 {
		s.logger.Info().Msg("periodic rebuild disabled, waiting for shutdown")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.RebuildInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("rebuild service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.rebuild(ctx); err != nil {
				// A rebuild triggered via the API may be running; the next
				// tick retries.
				if errors.Is(err, recommend.ErrRebuildInProgress) {
					s.logger.Debug().Msg("rebuild already in progress, skipping tick")
					continue
				}
				s.logger.Warn().Err(err).Msg("scheduled rebuild failed")
			}
		}
	}
}

func (s *RebuildService) rebuild(ctx context.Context) error {
	rebuildCtx, cancel := context.WithTimeout(ctx, s.config.RebuildTimeout)
	defer cancel()

	stats, err := s.engine.Rebuild(rebuildCtx)
	if err != nil {
		return err
	}
	s.logger.Info().
		Int("indexed", stats.Indexed).
		Int("skipped", stats.Skipped).
		Int64("version", stats.Version).
		Dur("duration", stats.Duration).
		Msg("index rebuild complete")
	return nil
}

// String returns the service name for logging.
func (s *RebuildService) String() string {
	return "rebuild-service"
}
