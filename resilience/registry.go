package resilience

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DependencyConfig carries every per-dependency knob. Zero values fall back
// to the registry defaults, then to the library defaults.
type DependencyConfig struct {
	// Breaker settings.
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	WindowSize       int

	// Retry settings.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// Per-attempt timeout budget.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// Fallbacks are consulted in order once the primary path is exhausted.
	Fallbacks []Provider

	// Transport overrides the registry-wide transport for this dependency.
	Transport Transport

	// MaxConcurrent caps in-flight calls; 0 means unlimited.
	MaxConcurrent int

	// ResultStore plus ResultTTL enable write-through caching of successful
	// results, making them recoverable through a CachedResult fallback.
	ResultStore ResultStore
	Keyer       KeyFunc
	ResultTTL   time.Duration
}

// merge overlays cfg on top of base, field by field.
func (cfg DependencyConfig) merge(base DependencyConfig) DependencyConfig {
	out := base
	if cfg.FailureThreshold > 0 {
		out.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.SuccessThreshold > 0 {
		out.SuccessThreshold = cfg.SuccessThreshold
	}
	if cfg.OpenTimeout > 0 {
		out.OpenTimeout = cfg.OpenTimeout
	}
	if cfg.WindowSize > 0 {
		out.WindowSize = cfg.WindowSize
	}
	if cfg.MaxRetries != 0 {
		out.MaxRetries = cfg.MaxRetries
	}
	if cfg.BaseDelay > 0 {
		out.BaseDelay = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		out.MaxDelay = cfg.MaxDelay
	}
	if cfg.ConnectTimeout > 0 {
		out.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.ReadTimeout > 0 {
		out.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.Fallbacks != nil {
		out.Fallbacks = cfg.Fallbacks
	}
	if cfg.Transport != nil {
		out.Transport = cfg.Transport
	}
	if cfg.MaxConcurrent > 0 {
		out.MaxConcurrent = cfg.MaxConcurrent
	}
	if cfg.ResultStore != nil {
		out.ResultStore = cfg.ResultStore
	}
	if cfg.Keyer != nil {
		out.Keyer = cfg.Keyer
	}
	if cfg.ResultTTL > 0 {
		out.ResultTTL = cfg.ResultTTL
	}
	return out
}

// Registry owns one circuit breaker, retry policy, fallback chain, and
// timeout configuration per dependency name. Entries are created lazily on
// first lookup and live for the registry's lifetime; mutation happens only
// through explicit overrides at construction or manual Reset calls.
//
// The registry is an explicitly constructed object meant to be injected
// into callers; there is no package-level instance.
type Registry struct {
	mu            sync.RWMutex
	clients       map[string]*Client
	defaults      DependencyConfig
	overrides     map[string]DependencyConfig
	transport     Transport
	metrics       MetricsSink
	onStateChange func(dependency string, from, to State)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDefaults sets registry-wide default settings applied to every
// dependency without an override.
func WithDefaults(cfg DependencyConfig) RegistryOption {
	return func(r *Registry) { r.defaults = cfg }
}

// WithOverride supplies per-dependency settings overlaid on the defaults.
func WithOverride(name string, cfg DependencyConfig) RegistryOption {
	return func(r *Registry) { r.overrides[name] = cfg }
}

// WithMetrics sets the metrics sink shared by all clients.
func WithMetrics(sink MetricsSink) RegistryOption {
	return func(r *Registry) {
		if sink != nil {
			r.metrics = sink
		}
	}
}

// WithStateChangeHook registers a hook invoked on every breaker transition,
// after the state-change metric is emitted.
func WithStateChangeHook(fn func(dependency string, from, to State)) RegistryOption {
	return func(r *Registry) { r.onStateChange = fn }
}

// NewRegistry creates a registry binding dependencies to the given
// transport.
func NewRegistry(transport Transport, opts ...RegistryOption) *Registry {
	r := &Registry{
		clients:   make(map[string]*Client),
		overrides: make(map[string]DependencyConfig),
		transport: transport,
		metrics:   noopSink{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Get returns the client bound to the dependency name, creating it on first
// lookup.
func (r *Registry) Get(name string) *Client {
	r.mu.RLock()
	c, ok := r.clients[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock
	if c, ok := r.clients[name]; ok {
		return c
	}

	c = r.build(name)
	r.clients[name] = c
	return c
}

func (r *Registry) build(name string) *Client {
	cfg := r.defaults
	if override, ok := r.overrides[name]; ok {
		cfg = override.merge(r.defaults)
	}

	breaker := NewCircuitBreaker(name, BreakerConfig{
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		OpenTimeout:      cfg.OpenTimeout,
		WindowSize:       cfg.WindowSize,
		OnStateChange: func(from, to State) {
			// Fire-and-forget; never tied to a caller's context.
			r.metrics.Increment(context.Background(), MetricTransitions, map[string]string{
				"dependency": name,
				"state":      to.String(),
			})
			if r.onStateChange != nil {
				r.onStateChange(name, from, to)
			}
		},
	})

	retry := NewRetryPolicy(RetryConfig{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseDelay,
		MaxDelay:   cfg.MaxDelay,
	})

	transport := r.transport
	if cfg.Transport != nil {
		transport = cfg.Transport
	}

	opts := []ClientOption{
		WithBreaker(breaker),
		WithRetryPolicy(retry),
		WithFallbackChain(NewFallbackChain(cfg.Fallbacks...)),
		WithMetricsSink(r.metrics),
	}
	if cfg.ConnectTimeout > 0 || cfg.ReadTimeout > 0 {
		connect := cfg.ConnectTimeout
		if connect <= 0 {
			connect = 5 * time.Second
		}
		read := cfg.ReadTimeout
		if read <= 0 {
			read = 30 * time.Second
		}
		opts = append(opts, WithTimeouts(connect, read))
	}
	if cfg.MaxConcurrent > 0 {
		opts = append(opts, WithBulkhead(NewBulkhead(cfg.MaxConcurrent)))
	}
	if cfg.ResultStore != nil && cfg.Keyer != nil {
		opts = append(opts, WithResultStore(cfg.ResultStore, cfg.Keyer, cfg.ResultTTL))
	}

	return NewClient(name, transport, opts...)
}

// States returns a snapshot of every bound breaker for introspection.
func (r *Registry) States() map[string]Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make(map[string]Stats, len(r.clients))
	for name, c := range r.clients {
		states[name] = c.Breaker().Snapshot()
	}
	return states
}

// Names returns the bound dependency names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset forces the named breaker to closed and clears its window and
// counters, regardless of prior state. Idempotent for bound dependencies;
// returns ErrUnknownDependency for names never looked up.
func (r *Registry) Reset(name string) error {
	r.mu.RLock()
	c, ok := r.clients[name]
	r.mu.RUnlock()

	if !ok {
		return ErrUnknownDependency
	}

	c.Breaker().Reset()
	return nil
}
