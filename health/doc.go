// Package health provides health checking primitives for services that call
// external dependencies.
//
// This package implements a generic health checking framework for monitoring
// the components of a service: its process, its caches, and the dependencies
// behind its circuit breakers. It provides interfaces for defining health
// checks, aggregating results from multiple checkers, and exposing health
// status via HTTP endpoints.
//
// # Core Concepts
//
// A Checker is any component that can report its health status. The Status
// type represents the health state: Healthy, Degraded, or Unhealthy.
//
// # Basic Usage
//
//	// Surface the state of every circuit breaker
//	depCheck := health.NewRegistryChecker(registry)
//
//	result := depCheck.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("Dependencies down: %s", result.Message)
//	}
//
// # Aggregating Health Checks
//
// Use Aggregator to combine multiple health checks into a single composite check:
//
//	agg := health.NewAggregator()
//	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}))
//	agg.Register("redis", health.NewPingChecker("redis", redisCache))
//	agg.Register("dependencies", health.NewRegistryChecker(registry))
//
//	// Check all components
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
// The package provides HTTP handlers for common health check patterns:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// This registers /healthz (liveness), /readyz (readiness), /health
// (detailed JSON) and /health/{name} (single component).
package health
