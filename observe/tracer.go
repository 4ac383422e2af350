package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DepMeta contains metadata about a remote dependency for telemetry purposes.
type DepMeta struct {
	Name     string // Dependency name (required)
	Kind     string // Dependency kind: http, grpc, cache, queue (optional)
	Endpoint string // Primary endpoint, recorded on spans (optional)
	Tags     []string
}

// SpanName returns the deterministic span name for a call to this dependency.
// Format: dep.call.<name>
func (m DepMeta) SpanName() string {
	return "dep.call." + m.Name
}

// Validate checks that required metadata is present.
func (m DepMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingDependencyName
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with dependency-call span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a dependency call.
	StartSpan(ctx context.Context, meta DepMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with dependency metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta DepMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("dep.name", meta.Name),
		attribute.Bool("dep.error", false), // Will be updated in EndSpan if error
	}

	if meta.Kind != "" {
		attrs = append(attrs, attribute.String("dep.kind", meta.Kind))
	}
	if meta.Endpoint != "" {
		attrs = append(attrs, attribute.String("dep.endpoint", meta.Endpoint))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("dep.tags", meta.Tags))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("dep.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta DepMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
