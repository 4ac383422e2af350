package observe

import (
	"context"
	"time"
)

// CallFunc is the signature for dependency call functions.
// This is the standard function signature that Middleware wraps.
type CallFunc func(ctx context.Context, dep DepMeta, req any) (any, error)

// Middleware wraps dependency calls with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe CallFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
//   - Ownership: Request/response values are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a CallFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn CallFunc) CallFunc {
	return func(ctx context.Context, dep DepMeta, req any) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, dep)

		start := time.Now()
		result, err := fn(ctx, dep, req)
		duration := time.Since(start)

		// End span (records error status if err != nil)
		m.tracer.EndSpan(span, err)

		m.metrics.RecordCall(ctx, dep, duration, err)

		depLogger := m.logger.WithDependency(dep)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			depLogger.Error(ctx, "dependency call failed", fields...)
		} else {
			depLogger.Info(ctx, "dependency call completed", fields...)
		}

		return result, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	tracer := newTracer(obs.Tracer())
	sink := NewSink(obs.Meter())

	return NewMiddleware(tracer, sink, obs.Logger()), nil
}
