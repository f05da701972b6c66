package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ForecastTracer wraps the service tracer with KPI-specific span helpers.
type ForecastTracer struct {
	tracer trace.Tracer
}

// NewForecastTracer creates a tracer bound to the global provider.
func NewForecastTracer() *ForecastTracer {
	return &ForecastTracer{tracer: GetServiceTracer()}
}

// NewForecastTracerWith creates a tracer from an explicit provider. Tests use it
// with an in-memory recorder.
func NewForecastTracerWith(tp trace.TracerProvider) *ForecastTracer {
	return &ForecastTracer{tracer: tp.Tracer(serviceTracerName)}
}

// TraceOperation starts a span for one engine operation on one metric.
func (ft *ForecastTracer) TraceOperation(ctx context.Context, operation, metricName string, points int) (context.Context, trace.Span) {
	return ft.tracer.Start(ctx, "kpi."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("kpi.operation", operation),
			attribute.String("kpi.metric_name", metricName),
			attribute.Int("kpi.points", points),
		),
	)
}

// RecordForecast annotates a span with the outcome of a forecast.
func (ft *ForecastTracer) RecordForecast(span trace.Span, strategy, confidence, trend string, horizon int) {
	span.SetAttributes(
		attribute.String("kpi.strategy", strategy),
		attribute.String("kpi.confidence", confidence),
		attribute.String("kpi.trend", trend),
		attribute.Int("kpi.horizon", horizon),
	)
}

// RecordAnalysis annotates a span with the outcome of a pattern analysis.
func (ft *ForecastTracer) RecordAnalysis(span trace.Span, trend, volatility string) {
	span.SetAttributes(
		attribute.String("kpi.trend", trend),
		attribute.String("kpi.volatility", volatility),
	)
}

// RecordCache marks whether the result came from the cache.
func (ft *ForecastTracer) RecordCache(span trace.Span, hit bool) {
	span.SetAttributes(attribute.Bool("kpi.cache_hit", hit))
}

// RecordError marks the span as failed.
func (ft *ForecastTracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
