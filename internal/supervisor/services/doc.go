// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

/*
Package services provides suture.Service wrappers for Stylecast components.

Each wrapper adapts a component's lifecycle (ListenAndServe, periodic loop)
to suture's context-aware Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Rebuild Loop (RebuildService):
  - Drives the ranking engine's index lifecycle
  - Warm-starts from a saved artifact on startup, falling back to a
    full rebuild from the catalog
  - Optional periodic rebuilds to fold in newly ingested items
*/
package services
