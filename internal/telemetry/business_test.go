package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (*ForecastTracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewForecastTracerWith(tp), recorder
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestForecastTracer_TraceForecast(t *testing.T) {
	ft, recorder := newRecordingTracer()

	_, span := ft.TraceOperation(context.Background(), "forecast", "mrr", 10)
	ft.RecordForecast(span, "regression", "high", "increasing", 3)
	ft.RecordCache(span, false)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "kpi.forecast", spans[0].Name())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "mrr", attrs["kpi.metric_name"].AsString())
	assert.Equal(t, int64(10), attrs["kpi.points"].AsInt64())
	assert.Equal(t, "regression", attrs["kpi.strategy"].AsString())
	assert.Equal(t, "high", attrs["kpi.confidence"].AsString())
	assert.Equal(t, int64(3), attrs["kpi.horizon"].AsInt64())
	assert.False(t, attrs["kpi.cache_hit"].AsBool())
}

func TestForecastTracer_RecordAnalysis(t *testing.T) {
	ft, recorder := newRecordingTracer()

	_, span := ft.TraceOperation(context.Background(), "analyze", "churn_rate", 6)
	ft.RecordAnalysis(span, "decreasing", "low")
	span.End()

	attrs := attrMap(recorder.Ended()[0].Attributes())
	assert.Equal(t, "decreasing", attrs["kpi.trend"].AsString())
	assert.Equal(t, "low", attrs["kpi.volatility"].AsString())
}

func TestForecastTracer_RecordError(t *testing.T) {
	ft, recorder := newRecordingTracer()

	_, span := ft.TraceOperation(context.Background(), "forecast", "mrr", 2)
	ft.RecordError(span, nil)
	ft.RecordError(span, errors.New("insufficient data"))
	span.End()

	ended := recorder.Ended()[0]
	assert.Equal(t, codes.Error, ended.Status().Code)
	assert.Equal(t, "insufficient data", ended.Status().Description)
	require.Len(t, ended.Events(), 1)
}
