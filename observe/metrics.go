package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records analysis telemetry.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRegion records one region pipeline run with duration and error status.
	RecordRegion(ctx context.Context, meta RegionMeta, duration time.Duration, err error)

	// RecordCacheLookup records a cache hit or miss for a region.
	RecordCacheLookup(ctx context.Context, meta RegionMeta, hit bool)

	// RecordFallback records a degraded result. reason is a short stable
	// label such as "ai_unavailable" or "local_failed".
	RecordFallback(ctx context.Context, meta RegionMeta, reason string)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	fallbacks    metric.Int64Counter
}

// NewMetrics registers the analysis instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"analysis.region.total",
		metric.WithDescription("Total number of region analyses"),
		metric.WithUnit("{region}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"analysis.region.errors",
		metric.WithDescription("Total number of region analyses ending in error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"analysis.region.duration_ms",
		metric.WithDescription("Region analysis duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"analysis.cache.hits",
		metric.WithDescription("Region results served from cache"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"analysis.cache.misses",
		metric.WithDescription("Region results computed on cache miss"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"analysis.fallbacks",
		metric.WithDescription("Region results degraded to a fallback"),
		metric.WithUnit("{region}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
		fallbacks:    fallbacks,
	}, nil
}

func (m *metricsImpl) RecordRegion(ctx context.Context, meta RegionMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, meta RegionMeta, hit bool) {
	opt := metric.WithAttributes(meta.attributes()...)
	if hit {
		m.cacheHits.Add(ctx, 1, opt)
		return
	}
	m.cacheMisses.Add(ctx, 1, opt)
}

func (m *metricsImpl) RecordFallback(ctx context.Context, meta RegionMeta, reason string) {
	attrs := append(meta.attributes(), attribute.String("analysis.fallback_reason", reason))
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attrs...))
}

type noopMetrics struct{}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordRegion(context.Context, RegionMeta, time.Duration, error) {}
func (noopMetrics) RecordCacheLookup(context.Context, RegionMeta, bool)            {}
func (noopMetrics) RecordFallback(context.Context, RegionMeta, string)             {}
