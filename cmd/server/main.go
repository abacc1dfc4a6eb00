// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

// Package main is the entry point for the Stylecast server.
//
// Stylecast ranks catalog fashion imagery against a query embedding,
// boosting items from categories that are trending upward in recent
// ingest activity. It serves a REST API for recommendations, catalog
// ingest, trend inspection, and index management.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config.yaml, and
//     environment variables (Koanf v2)
//  2. Database: DuckDB catalog of items, embeddings, and trend series
//  3. Embedding provider: optional HTTP service that turns image
//     references into CLIP embeddings, guarded by a circuit breaker
//  4. Ranking engine: in-memory vector index plus trend table, swapped
//     atomically on rebuild
//  5. Supervisor tree: suture-managed rebuild loop and HTTP server
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (HTTP_PORT, DUCKDB_PATH, TREND_WEIGHT, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the HTTP
// server drains in-flight requests, the rebuild loop stops, and the
// database connection is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stylecast/stylecast/internal/api"
	"github.com/stylecast/stylecast/internal/catalog"
	"github.com/stylecast/stylecast/internal/config"
	"github.com/stylecast/stylecast/internal/embed"
	"github.com/stylecast/stylecast/internal/logging"
	"github.com/stylecast/stylecast/internal/recommend"
	"github.com/stylecast/stylecast/internal/supervisor"
	"github.com/stylecast/stylecast/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("dimension", cfg.Engine.Dimension).
		Float64("trend_weight", cfg.Engine.TrendWeight).
		Bool("embed_enabled", cfg.Embed.Enabled).
		Msg("Starting Stylecast")

	store, err := catalog.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Embedding provider is optional; without it, recommendations must
	// carry a precomputed embedding.
	var provider embed.Provider
	if cfg.Embed.Enabled {
		provider = embed.NewHTTPProvider(&cfg.Embed, cfg.Engine.Dimension)
		logging.Info().Str("url", cfg.Embed.URL).Msg("Embedding provider enabled")
	} else {
		logging.Info().Msg("Embedding provider disabled - image queries will be rejected")
	}

	engine := recommend.New(&cfg.Engine, store, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.AddEngineService(services.NewRebuildService(engine, services.RebuildServiceConfig{
		RebuildOnStartup: cfg.Engine.RebuildOnStartup,
		RebuildInterval:  cfg.Engine.RebuildInterval,
	}, logging.Logger()))
	logging.Info().
		Bool("rebuild_on_startup", cfg.Engine.RebuildOnStartup).
		Dur("rebuild_interval", cfg.Engine.RebuildInterval).
		Msg("Rebuild service added to supervisor tree")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(engine, store, cfg),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
