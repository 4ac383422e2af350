package resilience

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// Transport performs the actual remote call for a dependency.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation and the per-attempt deadline.
// - Errors: failures should be classified with Transient or Permanent;
//   unclassified errors are treated as transient.
type Transport interface {
	Send(ctx context.Context, req any, connectTimeout, readTimeout time.Duration) (any, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req any, connectTimeout, readTimeout time.Duration) (any, error)

func (f TransportFunc) Send(ctx context.Context, req any, connectTimeout, readTimeout time.Duration) (any, error) {
	return f(ctx, req, connectTimeout, readTimeout)
}

// MetricsSink receives call-path telemetry.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: emission must never block or fail the call path.
type MetricsSink interface {
	Increment(ctx context.Context, counter string, labels map[string]string)
	Observe(ctx context.Context, histogram string, value float64, labels map[string]string)
}

// Metric series emitted by the call path.
const (
	MetricOutcome     = "dep.call.outcome"
	MetricDuration    = "dep.call.duration_ms"
	MetricRetries     = "dep.call.retries"
	MetricTransitions = "dep.breaker.transitions"
)

// Outcome labels for MetricOutcome.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeCircuitOpen  = "circuit_open"
	OutcomeFallbackUsed = "fallback_used"
)

// SourcePrimary marks a result produced by the primary call path.
const SourcePrimary = "primary"

// Result is the outcome of a protected call. Degraded results carry an
// explicit flag and the winning fallback provider name, never inferred.
type Result struct {
	Value    any
	Degraded bool
	Source   string
}

// ClientConfig holds the per-attempt timeout budget.
type ClientConfig struct {
	// ConnectTimeout bounds connection establishment per attempt.
	// Default: 5 seconds
	ConnectTimeout time.Duration

	// ReadTimeout bounds response reading per attempt.
	// Default: 30 seconds
	ReadTimeout time.Duration
}

// Client orchestrates one logical call against a named dependency: breaker
// admission, transport execution with per-attempt timeouts, retry loop with
// backoff, fallback resolution, and metrics emission.
//
// A Client borrows its breaker from the Registry that built it and must not
// outlive it. Safe for concurrent use.
type Client struct {
	name      string
	transport Transport
	breaker   *CircuitBreaker
	retry     *RetryPolicy
	fallbacks *FallbackChain
	limiter   *Bulkhead
	store     ResultStore
	keyer     KeyFunc
	resultTTL time.Duration
	config    ClientConfig
	metrics   MetricsSink
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBreaker sets the circuit breaker guarding the dependency.
func WithBreaker(cb *CircuitBreaker) ClientOption {
	return func(c *Client) { c.breaker = cb }
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p *RetryPolicy) ClientOption {
	return func(c *Client) { c.retry = p }
}

// WithFallbackChain sets the fallback chain consulted after the primary
// path is exhausted.
func WithFallbackChain(fc *FallbackChain) ClientOption {
	return func(c *Client) { c.fallbacks = fc }
}

// WithMetricsSink sets the metrics sink. A nil sink is replaced by a no-op.
func WithMetricsSink(sink MetricsSink) ClientOption {
	return func(c *Client) {
		if sink != nil {
			c.metrics = sink
		}
	}
}

// WithTimeouts sets the per-attempt connect and read timeouts.
func WithTimeouts(connect, read time.Duration) ClientOption {
	return func(c *Client) {
		c.config.ConnectTimeout = connect
		c.config.ReadTimeout = read
	}
}

// WithBulkhead caps concurrent in-flight calls for this dependency.
func WithBulkhead(b *Bulkhead) ClientOption {
	return func(c *Client) { c.limiter = b }
}

// WithResultStore enables write-through caching of successful results so a
// CachedResult fallback can serve them later. TTL <= 0 disables the
// write-through.
func WithResultStore(store ResultStore, keyer KeyFunc, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.store = store
		c.keyer = keyer
		c.resultTTL = ttl
	}
}

// NewClient creates a resilient client for the named dependency.
func NewClient(name string, transport Transport, opts ...ClientOption) *Client {
	c := &Client{
		name:      name,
		transport: transport,
		metrics:   noopSink{},
		config: ClientConfig{
			ConnectTimeout: 5 * time.Second,
			ReadTimeout:    30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.breaker == nil {
		c.breaker = NewCircuitBreaker(name, BreakerConfig{})
	}
	if c.retry == nil {
		c.retry = NewRetryPolicy(RetryConfig{})
	}
	if c.fallbacks == nil {
		c.fallbacks = NewFallbackChain()
	}

	return c
}

// Name returns the dependency name this client is bound to.
func (c *Client) Name() string { return c.name }

// Breaker returns the circuit breaker guarding this dependency.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// Execute runs one logical call. It returns a fresh result, a degraded
// result from the fallback chain, or a terminal error the caller is
// expected to classify.
//
// A caller-initiated cancellation during an admitted attempt, including a
// half-open trial, is recorded as a failure: the remote state is unknown,
// so the breaker treats it conservatively.
func (c *Client) Execute(ctx context.Context, req any) (Result, error) {
	if c.limiter != nil {
		if !c.limiter.TryAcquire() {
			return Result{}, ErrConcurrencyLimit
		}
		defer c.limiter.Release()
	}

	start := time.Now()
	defer func() {
		c.metrics.Observe(ctx, MetricDuration,
			float64(time.Since(start))/float64(time.Millisecond),
			map[string]string{"dependency": c.name})
	}()

	var lastErr error
	attempts := 0

	for {
		// Breaker re-check before every attempt: a burst of failures during
		// retries must be able to open the circuit mid-loop.
		if !c.breaker.Allow() {
			c.countOutcome(ctx, OutcomeCircuitOpen)
			if lastErr == nil {
				// Denied before any attempt; never counted against the window.
				lastErr = &CircuitOpenError{Dependency: c.name}
			}
			break
		}

		value, err := c.attempt(ctx, req)
		if err == nil {
			c.breaker.RecordSuccess()
			c.countOutcome(ctx, OutcomeSuccess)
			c.storeResult(ctx, req, value)
			return Result{Value: value, Source: SourcePrimary}, nil
		}

		c.breaker.RecordFailure()
		c.countOutcome(ctx, OutcomeFailure)
		lastErr = err
		attempts++

		if !c.retry.Retryable(err) || attempts > c.retry.MaxRetries() {
			break
		}

		c.metrics.Increment(ctx, MetricRetries, map[string]string{
			"dependency": c.name,
			"attempt":    strconv.Itoa(attempts),
		})

		if err := sleepUntil(ctx, c.retry.Delay(attempts-1)); err != nil {
			// Caller went away during backoff; stop retrying.
			break
		}
	}

	return c.fallback(ctx, req, attempts, lastErr)
}

// attempt invokes the transport under an independent per-attempt deadline.
// A zero budget leaves the caller's deadline in charge.
func (c *Client) attempt(ctx context.Context, req any) (any, error) {
	if budget := c.config.ConnectTimeout + c.config.ReadTimeout; budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	return c.transport.Send(ctx, req, c.config.ConnectTimeout, c.config.ReadTimeout)
}

// fallback resolves the chain with the terminal error as context. With no
// providers configured the original error is returned unwrapped; an
// exhausted non-empty chain wraps it in FallbackExhaustedError.
func (c *Client) fallback(ctx context.Context, req any, attempts int, cause error) (Result, error) {
	fc := FallbackContext{
		Dependency: c.name,
		Request:    req,
		Err:        cause,
		Attempts:   attempts,
	}

	if value, source, ok := c.fallbacks.Resolve(ctx, fc); ok {
		c.countOutcome(ctx, OutcomeFallbackUsed)
		return Result{Value: value, Degraded: true, Source: source}, nil
	}

	if c.fallbacks.Len() == 0 {
		return Result{}, cause
	}
	return Result{}, &FallbackExhaustedError{Dependency: c.name, Err: cause}
}

func (c *Client) storeResult(ctx context.Context, req, value any) {
	if c.store == nil || c.resultTTL <= 0 || c.keyer == nil {
		return
	}

	key, err := c.keyer(c.name, req)
	if err != nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	// Best-effort: a store failure must not affect the call path.
	_ = c.store.Set(ctx, key, raw, c.resultTTL)
}

func (c *Client) countOutcome(ctx context.Context, outcome string) {
	c.metrics.Increment(ctx, MetricOutcome, map[string]string{
		"dependency": c.name,
		"outcome":    outcome,
	})
}

// noopSink drops all telemetry.
type noopSink struct{}

func (noopSink) Increment(context.Context, string, map[string]string) {}
func (noopSink) Observe(context.Context, string, float64, map[string]string) {}
