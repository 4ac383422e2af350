package resilience

import (
	"context"
	"encoding/json"
	"time"
)

// FallbackContext carries the failure context handed to fallback providers.
type FallbackContext struct {
	// Dependency is the protected dependency name.
	Dependency string

	// Request is the request the primary call path failed to serve.
	Request any

	// Err is the terminal error from the primary call path.
	Err error

	// Attempts is the number of transport attempts made before falling back.
	Attempts int
}

// Provider supplies a degraded result once the primary call path is
// exhausted.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a panic inside Attempt is recovered and treated as no result.
// - Context: providers are expected to be fast and local; this layer does
//   not time-bound them separately.
type Provider interface {
	// Name identifies the provider in degraded results and logs.
	Name() string

	// Attempt returns a result for the failed call, or ok=false when this
	// provider has nothing to offer.
	Attempt(ctx context.Context, fc FallbackContext) (any, bool)
}

// ProviderFunc adapts a function to the Provider interface.
func ProviderFunc(name string, fn func(ctx context.Context, fc FallbackContext) (any, bool)) Provider {
	return &providerFunc{name: name, fn: fn}
}

type providerFunc struct {
	name string
	fn   func(ctx context.Context, fc FallbackContext) (any, bool)
}

func (p *providerFunc) Name() string { return p.name }

func (p *providerFunc) Attempt(ctx context.Context, fc FallbackContext) (any, bool) {
	return p.fn(ctx, fc)
}

// FallbackChain consults providers in declared order. Order is fixed at
// construction; the first provider returning a result wins.
type FallbackChain struct {
	providers []Provider
}

// NewFallbackChain creates a chain over the given providers.
func NewFallbackChain(providers ...Provider) *FallbackChain {
	return &FallbackChain{providers: providers}
}

// Len returns the number of providers in the chain.
func (c *FallbackChain) Len() int { return len(c.providers) }

// Resolve invokes each provider in order with the failure context. A
// provider's own failure, including a panic, advances to the next provider.
// Returns the winning value and provider name, or ok=false when the chain is
// exhausted.
func (c *FallbackChain) Resolve(ctx context.Context, fc FallbackContext) (any, string, bool) {
	for _, p := range c.providers {
		if v, ok := c.attempt(ctx, p, fc); ok {
			return v, p.Name(), true
		}
	}
	return nil, "", false
}

func (c *FallbackChain) attempt(ctx context.Context, p Provider, fc FallbackContext) (v any, ok bool) {
	// A fallback provider must never crash the overall call.
	defer func() {
		if r := recover(); r != nil {
			v, ok = nil, false
		}
	}()

	return p.Attempt(ctx, fc)
}

// ResultStore is the subset of a cache used to persist successful primary
// results and recover them as degraded fallbacks. Satisfied by cache.Cache.
type ResultStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// KeyFunc derives a deterministic store key from a dependency name and
// request.
type KeyFunc func(dependency string, req any) (string, error)

// CachedResult is a fallback provider that serves the most recent successful
// result recorded for the same request.
//
// Values round-trip through JSON, so a served result carries generic decoded
// shapes: objects become map[string]any, arrays []any, and numbers float64,
// even when the primary path returned a concrete type. Callers that need the
// concrete type must re-decode, or use a typed decorator such as
// transport.CachingTransport.
type CachedResult struct {
	store ResultStore
	keyer KeyFunc
}

// NewCachedResult creates a cached-result provider over the given store.
func NewCachedResult(store ResultStore, keyer KeyFunc) *CachedResult {
	return &CachedResult{store: store, keyer: keyer}
}

// Name returns "cached-result".
func (p *CachedResult) Name() string { return "cached-result" }

// Attempt looks up the last cached success for the failed request.
func (p *CachedResult) Attempt(ctx context.Context, fc FallbackContext) (any, bool) {
	key, err := p.keyer(fc.Dependency, fc.Request)
	if err != nil {
		return nil, false
	}

	raw, ok := p.store.Get(ctx, key)
	if !ok {
		return nil, false
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Ensure CachedResult implements Provider
var _ Provider = (*CachedResult)(nil)
