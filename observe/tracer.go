package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// RegionMeta identifies one region pipeline for telemetry purposes.
type RegionMeta struct {
	Region       string // Region code, e.g. "US" (required)
	AnalysisType string // Analysis type, e.g. "comprehensive"
	Provider     string // AI provider name, empty when AI is not used
	RequestID    string // Correlates regions of one Analyze call
}

// SpanName returns the deterministic span name for this region.
// Format: analysis.region.<type>.<region> or analysis.region.<region>
func (m RegionMeta) SpanName() string {
	if m.AnalysisType != "" {
		return "analysis.region." + m.AnalysisType + "." + m.Region
	}
	return "analysis.region." + m.Region
}

// Key returns "<type>/<region>", or just the region without a type.
func (m RegionMeta) Key() string {
	if m.AnalysisType != "" {
		return m.AnalysisType + "/" + m.Region
	}
	return m.Region
}

// Validate reports a RegionMeta that cannot be attributed.
func (m RegionMeta) Validate() error {
	if m.Region == "" {
		return ErrMissingRegion
	}
	return nil
}

func (m RegionMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("analysis.region", m.Region),
	}
	if m.AnalysisType != "" {
		attrs = append(attrs, attribute.String("analysis.type", m.AnalysisType))
	}
	if m.Provider != "" {
		attrs = append(attrs, attribute.String("analysis.provider", m.Provider))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with region-scoped span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a region pipeline.
	StartSpan(ctx context.Context, meta RegionMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta RegionMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("analysis.error", false))
	if meta.RequestID != "" {
		attrs = append(attrs, attribute.String("analysis.request_id", meta.RequestID))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("analysis.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer returns a tracer that records nothing.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta RegionMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
