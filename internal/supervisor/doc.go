// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

/*
Package supervisor provides process supervision for Stylecast using suture v4.

The supervisor tree manages the lifecycle of the long-running services in the
application with Erlang/OTP-style supervision: automatic restart, failure
isolation, and graceful shutdown.

# Overview

Services are organized into two layers for failure isolation:

	RootSupervisor ("stylecast")
	├── EngineSupervisor ("engine-layer")
	│   └── RebuildService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashing rebuild loop does not take down the HTTP server, and vice versa.
Each layer has independent failure counting with exponential decay, so a
restart storm in one layer never propagates upward.

# Configuration

TreeConfig controls restart behavior; defaults match suture's
production-ready values:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,               // Failures before backoff
	    FailureDecay:     30.0,              // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second,  // Backoff duration
	    ShutdownTimeout:  10 * time.Second,  // Per-service shutdown timeout
	}

# Service Interface

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return nil for a clean stop (no restart), an error for a crash (restarted),
and return promptly when the context is cancelled.

# What Is NOT Supervised

DuckDB is intentionally not supervised: it is an embedded library, not a
long-running service, and its connections are managed by the catalog package.
The embedding provider's HTTP calls are guarded by a circuit breaker inside
the embed package instead.

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}
*/
package supervisor
