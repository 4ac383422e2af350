// Package resilience protects callers of unreliable remote dependencies
// from cascading failure.
//
// Three mechanisms combine per named dependency: a circuit breaker over a
// sliding window of call outcomes, a bounded retry policy with full-jitter
// exponential backoff, and an ordered fallback chain that supplies a
// degraded-but-usable result when the dependency cannot be reached.
//
// # Components
//
//   - CircuitBreaker: per-dependency state machine (closed, open,
//     half-open) deciding whether a call may proceed. Half-open admits
//     exactly one trial call at a time.
//
//   - RetryPolicy: pure computation of retry eligibility and backoff delay
//     from an attempt index and an error classification.
//
//   - FallbackChain: ordered degraded-response providers consulted after
//     the primary call path is exhausted.
//
//   - Client: orchestrates one logical call through all of the above,
//     emitting one metrics event per outcome.
//
//   - Registry: owns one breaker/retry/fallback binding per dependency
//     name, with runtime introspection and operator reset.
//
// # Usage
//
//	registry := resilience.NewRegistry(transport,
//	    resilience.WithDefaults(resilience.DependencyConfig{
//	        FailureThreshold: 5,
//	        OpenTimeout:      time.Minute,
//	        MaxRetries:       3,
//	    }),
//	    resilience.WithOverride("recommendations", resilience.DependencyConfig{
//	        Fallbacks: []resilience.Provider{popularItems},
//	    }),
//	)
//
//	result, err := registry.Get("recommendations").Execute(ctx, req)
//	if err != nil {
//	    // terminal failure: classify with errors.Is / errors.As
//	}
//	if result.Degraded {
//	    // fallback content; result.Source names the provider
//	}
//
// Errors returned by a Transport should be classified with Transient or
// Permanent; unclassified errors are treated as transient and retried.
package resilience
