package observe

import (
	"context"
	"io"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "benchmark message", Field{Key: "iteration", Value: i})
	}
}

func BenchmarkLogger_WithRegion(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	meta := RegionMeta{Region: "US", AnalysisType: "comprehensive", Provider: "openai"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = logger.WithRegion(meta)
	}
}

func BenchmarkLogger_Filtered(b *testing.B) {
	logger := NewLoggerWithWriter("error", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug(ctx, "dropped")
	}
}

func BenchmarkMetrics_RecordRegion(b *testing.B) {
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	m, err := NewMetrics(mp.Meter("bench"))
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	meta := RegionMeta{Region: "US", AnalysisType: "comprehensive"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordRegion(ctx, meta, time.Millisecond, nil)
	}
}

func BenchmarkMiddleware_Wrap(b *testing.B) {
	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	m, err := NewMetrics(mp.Meter("bench"))
	if err != nil {
		b.Fatal(err)
	}
	mw := NewMiddleware(NewTracer(tp.Tracer("bench")), m, NewLoggerWithWriter("info", io.Discard))
	fn := mw.Wrap(func(context.Context, RegionMeta) error { return nil })
	ctx := context.Background()
	meta := RegionMeta{Region: "US"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = fn(ctx, meta)
	}
}
