package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

// newBufferedLogger returns a StandardLogger writing JSON into buf.
func newBufferedLogger(buf *bytes.Buffer, level slog.Level) *StandardLogger {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level}))
	return &StandardLogger{logger: &slogLogger{logger: logger}}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestNewStandardLogger_Basic(t *testing.T) {
	logger := NewStandardLogger("info", "development")
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.Logger())
}

func TestNewStandardLogger_LogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "bogus"} {
		t.Run(level, func(t *testing.T) {
			assert.NotNil(t, NewStandardLogger(level, "test"))
		})
	}
}

func TestGetSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getSlogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, getSlogLevel("warning"))
	assert.Equal(t, slog.LevelError, getSlogLevel("error"))
	assert.Equal(t, slog.LevelInfo, getSlogLevel(""))
}

func TestParseLogrusLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"info", logrus.InfoLevel},
		{"unknown", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogrusLevel(tt.input))
		})
	}
}

func TestNewServiceLogger(t *testing.T) {
	logger := NewServiceLogger("debug")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestStandardLogger_ContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedLogger(&buf, slog.LevelDebug)

	tests := []struct {
		name  string
		log   func() *slog.Logger
		key   string
		value string
	}{
		{"service", func() *slog.Logger { return logger.WithService("forecast") }, "service", "forecast"},
		{"component", func() *slog.Logger { return logger.WithComponent("api") }, "component", "api"},
		{"operation", func() *slog.Logger { return logger.WithOperation("predict") }, "operation", "predict"},
		{"request id", func() *slog.Logger { return logger.WithRequestID("req-1") }, "request_id", "req-1"},
		{"metric", func() *slog.Logger { return logger.WithMetric("churn_rate") }, "metric_name", "churn_rate"},
		{"error", func() *slog.Logger { return logger.WithError(errors.New("boom")) }, "error", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log().Info("hello")
			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.value, entry[tt.key])
		})
	}
}

func TestStandardLogger_WithNilError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedLogger(&buf, slog.LevelInfo)

	logger.WithError(nil).Info("no error")
	entry := decodeLine(t, &buf)
	_, ok := entry["error"]
	assert.False(t, ok)
}

func TestStandardLogger_LogStartupAndShutdown(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedLogger(&buf, slog.LevelInfo)

	logger.LogStartup("kpi-forecast-go", "1.0.0", 8080)
	entry := decodeLine(t, &buf)
	assert.Equal(t, "startup", entry["event"])
	assert.Equal(t, float64(8080), entry["port"])

	buf.Reset()
	logger.LogShutdown("kpi-forecast-go", "signal")
	entry = decodeLine(t, &buf)
	assert.Equal(t, "shutdown", entry["event"])
	assert.Equal(t, "signal", entry["reason"])
}

func TestStandardLogger_LogAPIRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedLogger(&buf, slog.LevelInfo)

	logger.LogAPIRequest("POST", "/api/v1/predict/metric", 200, 12, "req-9")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "api", entry["event"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, "req-9", entry["request_id"])
}

func TestStandardLogger_LogForecastEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedLogger(&buf, slog.LevelInfo)

	logger.LogForecastEvent("mrr", map[string]interface{}{"strategy": "regression"})
	entry := decodeLine(t, &buf)
	assert.Equal(t, "forecast", entry["event"])
	assert.Equal(t, "mrr", entry["metric_name"])
	assert.Equal(t, "regression", entry["strategy"])
}

func TestStandardLogger_LogResourceStats(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedLogger(&buf, slog.LevelInfo)

	logger.LogResourceStats("kpi-forecast-go", map[string]interface{}{"cpu_percent": 1.5})
	entry := decodeLine(t, &buf)
	assert.Equal(t, "resource", entry["event"])
}

func TestStandardLogger_ShutdownWithoutExporter(t *testing.T) {
	logger := NewStandardLogger("info", "test")
	assert.NoError(t, logger.Shutdown(context.Background()))
}

func TestNewOTLPLogger_Disabled(t *testing.T) {
	logger, err := NewOTLPLogger(OTLPConfig{Enabled: false})
	require.NoError(t, err)
	assert.NotNil(t, logger.Logger())
	assert.NoError(t, logger.Shutdown(context.Background()))
}

func TestNewOTLPLogger_Enabled(t *testing.T) {
	logger, err := NewOTLPLogger(OTLPConfig{
		Enabled:        true,
		Endpoint:       "localhost:4318",
		ServiceName:    "kpi-forecast-go",
		ServiceVersion: "test",
		Environment:    "test",
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = logger.Shutdown(ctx)
}

func TestNewStandardOTLPLogger(t *testing.T) {
	logger := NewStandardOTLPLogger(OTLPConfig{Enabled: false, LogLevel: "debug"})
	require.NotNil(t, logger)
	assert.NotNil(t, logger.Logger())
	assert.NoError(t, logger.Shutdown(context.Background()))
}

// recordingOTLPLogger captures emitted records.
type recordingOTLPLogger struct {
	otellog.Logger
	records []otellog.Record
}

func (r *recordingOTLPLogger) Enabled(context.Context, otellog.Record) bool {
	return true
}

func (r *recordingOTLPLogger) Emit(_ context.Context, record otellog.Record) {
	r.records = append(r.records, record)
}

func recordAttrs(record otellog.Record) map[string]otellog.Value {
	out := make(map[string]otellog.Value)
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value
		return true
	})
	return out
}

func TestConvertSlogLevelToSeverity(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, convertSlogLevelToSeverity(slog.LevelDebug))
	assert.Equal(t, otellog.SeverityInfo, convertSlogLevelToSeverity(slog.LevelInfo))
	assert.Equal(t, otellog.SeverityWarn, convertSlogLevelToSeverity(slog.LevelWarn))
	assert.Equal(t, otellog.SeverityError, convertSlogLevelToSeverity(slog.LevelError))
	assert.Equal(t, otellog.SeverityError, convertSlogLevelToSeverity(slog.Level(10)))
}

func TestOTLPHandler_Enabled(t *testing.T) {
	handler := NewOTLPHandler(&recordingOTLPLogger{}, slog.LevelInfo)
	ctx := context.Background()

	assert.False(t, handler.Enabled(ctx, slog.LevelDebug))
	assert.True(t, handler.Enabled(ctx, slog.LevelInfo))
	assert.True(t, handler.Enabled(ctx, slog.LevelError))
}

func TestOTLPHandler_Handle(t *testing.T) {
	mock := &recordingOTLPLogger{}
	handler := NewOTLPHandler(mock, slog.LevelDebug)

	record := slog.NewRecord(time.Now(), slog.LevelWarn, "forecast degraded", 0)
	record.AddAttrs(slog.String("metric_name", "churn_rate"), slog.Int("points", 4), slog.Bool("cached", false))

	require.NoError(t, handler.Handle(context.Background(), record))
	require.Len(t, mock.records, 1)

	emitted := mock.records[0]
	assert.Equal(t, "forecast degraded", emitted.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, emitted.Severity())

	attrs := recordAttrs(emitted)
	assert.Equal(t, "churn_rate", attrs["metric_name"].AsString())
	assert.Equal(t, int64(4), attrs["points"].AsInt64())
	assert.False(t, attrs["cached"].AsBool())
}

func TestOTLPHandler_WithAttrsAndGroup(t *testing.T) {
	mock := &recordingOTLPLogger{}
	base := NewOTLPHandler(mock, slog.LevelDebug)

	handler := base.WithAttrs([]slog.Attr{slog.String("component", "api")}).WithGroup("req")
	logger := slog.New(handler)
	logger.Info("served", "status", 200)

	require.Len(t, mock.records, 1)
	attrs := recordAttrs(mock.records[0])
	assert.Equal(t, "api", attrs["component"].AsString())
	assert.Equal(t, int64(200), attrs["req.status"].AsInt64())

	// The base handler is not mutated by derived handlers.
	assert.Empty(t, base.attrs)
	assert.Same(t, base, base.WithGroup(""))
}
