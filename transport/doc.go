// Package transport provides concrete transports for the resilience layer.
//
// HTTPTransport adapts an HTTP upstream to the resilience.Transport
// interface: the per-attempt connect and read timeouts from the dependency
// config bound dialing and the full exchange, and failures come back
// wrapped as transient or permanent so the retry policy can tell a 503
// from a 404.
//
// CachingTransport layers read-through caching of idempotent requests over
// any Transport, backed by the cache package.
package transport
