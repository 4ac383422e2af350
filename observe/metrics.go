package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/depshield/resilience"
)

// Metrics records outcomes of dependency calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records a dependency call with duration and error status.
	RecordCall(ctx context.Context, meta DepMeta, duration time.Duration, err error)
}

// Sink publishes named counters and histograms through an OpenTelemetry meter.
// Instruments are created lazily on first use and cached by name.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: instrument creation failures are swallowed; recording is best-effort.
type Sink struct {
	meter metric.Meter

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

var _ resilience.MetricsSink = (*Sink)(nil)

// NewSink creates a Sink backed by the given meter.
func NewSink(meter metric.Meter) *Sink {
	return &Sink{
		meter:      meter,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

// Increment adds one to the named counter with the given labels.
func (s *Sink) Increment(ctx context.Context, counter string, labels map[string]string) {
	c, err := s.counter(counter)
	if err != nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(toAttributes(labels)...))
}

// Observe records a value in the named histogram with the given labels.
func (s *Sink) Observe(ctx context.Context, histogram string, value float64, labels map[string]string) {
	h, err := s.histogram(histogram)
	if err != nil {
		return
	}
	h.Record(ctx, value, metric.WithAttributes(toAttributes(labels)...))
}

// RecordCall records the standard per-call series for a dependency call.
func (s *Sink) RecordCall(ctx context.Context, meta DepMeta, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	labels := map[string]string{
		"dependency": meta.Name,
		"outcome":    outcome,
	}
	s.Increment(ctx, "dep.call.outcome", labels)
	s.Observe(ctx, "dep.call.duration_ms", float64(duration.Milliseconds()), map[string]string{
		"dependency": meta.Name,
	})
}

func (s *Sink) counter(name string) (metric.Int64Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[name]; ok {
		return c, nil
	}
	c, err := s.meter.Int64Counter(name, metric.WithUnit("{call}"))
	if err != nil {
		return nil, err
	}
	s.counters[name] = c
	return c, nil
}

func (s *Sink) histogram(name string) (metric.Float64Histogram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.histograms[name]; ok {
		return h, nil
	}
	h, err := s.meter.Float64Histogram(name, metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	s.histograms[name] = h
	return h, nil
}

func toAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta DepMeta, duration time.Duration, err error) {
}
