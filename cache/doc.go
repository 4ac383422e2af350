// Package cache provides deterministic caching for dependency call results.
//
// It provides a Cache interface with memory and Redis implementations,
// SHA-256-based key derivation, and TTL policies with clamping. Either
// implementation can back a resilient client's result store for serving
// stale data during outages, and the transport package layers read-through
// caching of idempotent requests on top of it.
package cache
