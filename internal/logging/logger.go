package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logging surface shared by the HTTP layer and the CLI.
type Logger interface {
	WithService(serviceName string) *slog.Logger
	WithComponent(componentName string) *slog.Logger
	WithOperation(operationName string) *slog.Logger
	WithRequestID(requestID string) *slog.Logger
	WithMetric(metricName string) *slog.Logger
	WithError(err error) *slog.Logger
	LogStartup(serviceName string, version string, port int)
	LogShutdown(serviceName string, reason string)
	LogResourceStats(serviceName string, stats map[string]interface{})
	LogAPIRequest(method string, path string, statusCode int, duration int64, requestID string)
	LogForecastEvent(metricName string, details map[string]interface{})
	Logger() *slog.Logger
}

// StandardLogger provides a standardized logging interface
type StandardLogger struct {
	logger Logger
}

// NewStandardLogger creates a JSON logger on stdout at the given level.
func NewStandardLogger(logLevel string, environment string) *StandardLogger {
	return NewStandardLoggerWithWriter(os.Stdout, logLevel, environment)
}

// NewStandardLoggerWithWriter creates a JSON logger writing to w.
func NewStandardLoggerWithWriter(w io.Writer, logLevel string, environment string) *StandardLogger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: getSlogLevel(logLevel),
	})).With("environment", environment)

	return &StandardLogger{logger: &slogLogger{logger: logger}}
}

// NewStandardOTLPLogger creates a logger that exports through OTLP, falling back
// to stdout JSON when the exporter cannot be built.
func NewStandardOTLPLogger(config OTLPConfig) *StandardLogger {
	otlpLogger, err := NewOTLPLogger(config)
	if err != nil {
		return NewStandardLogger(config.LogLevel, config.Environment)
	}
	return &StandardLogger{logger: &slogLogger{logger: otlpLogger.Logger(), shutdown: otlpLogger}}
}

// WithService creates a logger with service context
func (l *StandardLogger) WithService(serviceName string) *slog.Logger {
	return l.logger.WithService(serviceName)
}

// WithComponent creates a logger with component context
func (l *StandardLogger) WithComponent(componentName string) *slog.Logger {
	return l.logger.WithComponent(componentName)
}

// WithOperation creates a logger with operation context
func (l *StandardLogger) WithOperation(operationName string) *slog.Logger {
	return l.logger.WithOperation(operationName)
}

// WithRequestID creates a logger with request ID context
func (l *StandardLogger) WithRequestID(requestID string) *slog.Logger {
	return l.logger.WithRequestID(requestID)
}

// WithMetric creates a logger scoped to one KPI
func (l *StandardLogger) WithMetric(metricName string) *slog.Logger {
	return l.logger.WithMetric(metricName)
}

// WithError creates a logger with error context
func (l *StandardLogger) WithError(err error) *slog.Logger {
	return l.logger.WithError(err)
}

func (l *StandardLogger) LogStartup(serviceName string, version string, port int) {
	l.logger.LogStartup(serviceName, version, port)
}

func (l *StandardLogger) LogShutdown(serviceName string, reason string) {
	l.logger.LogShutdown(serviceName, reason)
}

// LogResourceStats logs process resource statistics
func (l *StandardLogger) LogResourceStats(serviceName string, stats map[string]interface{}) {
	l.logger.LogResourceStats(serviceName, stats)
}

// LogAPIRequest logs one served HTTP request
func (l *StandardLogger) LogAPIRequest(method string, path string, statusCode int, duration int64, requestID string) {
	l.logger.LogAPIRequest(method, path, statusCode, duration, requestID)
}

// LogForecastEvent logs the outcome of a forecast or analysis
func (l *StandardLogger) LogForecastEvent(metricName string, details map[string]interface{}) {
	l.logger.LogForecastEvent(metricName, details)
}

// Logger returns the underlying *slog.Logger
func (l *StandardLogger) Logger() *slog.Logger {
	return l.logger.Logger()
}

// Shutdown flushes the OTLP exporter, if one is attached.
func (l *StandardLogger) Shutdown(ctx context.Context) error {
	if s, ok := l.logger.(*slogLogger); ok && s.shutdown != nil {
		return s.shutdown.Shutdown(ctx)
	}
	return nil
}

// getSlogLevel converts string level to slog.Level
func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// NewServiceLogger builds the logrus logger handed to services.
func NewServiceLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(ParseLogrusLevel(level))
	return logger
}

// slogLogger implements Logger on top of a *slog.Logger
type slogLogger struct {
	logger   *slog.Logger
	shutdown *OTLPLogger
}

func (s *slogLogger) WithService(serviceName string) *slog.Logger {
	return s.logger.With("service", serviceName)
}

func (s *slogLogger) WithComponent(componentName string) *slog.Logger {
	return s.logger.With("component", componentName)
}

func (s *slogLogger) WithOperation(operationName string) *slog.Logger {
	return s.logger.With("operation", operationName)
}

func (s *slogLogger) WithRequestID(requestID string) *slog.Logger {
	return s.logger.With("request_id", requestID)
}

func (s *slogLogger) WithMetric(metricName string) *slog.Logger {
	return s.logger.With("metric_name", metricName)
}

func (s *slogLogger) WithError(err error) *slog.Logger {
	if err == nil {
		return s.logger
	}
	return s.logger.With("error", err.Error())
}

func (s *slogLogger) LogStartup(serviceName string, version string, port int) {
	s.logger.Info("Application startup",
		"service", serviceName,
		"version", version,
		"port", port,
		"event", "startup",
	)
}

func (s *slogLogger) LogShutdown(serviceName string, reason string) {
	s.logger.Info("Application shutdown",
		"service", serviceName,
		"reason", reason,
		"event", "shutdown",
	)
}

func (s *slogLogger) LogResourceStats(serviceName string, stats map[string]interface{}) {
	s.logger.Info("Resource statistics",
		"service", serviceName,
		"stats", stats,
		"event", "resource",
	)
}

func (s *slogLogger) LogAPIRequest(method string, path string, statusCode int, duration int64, requestID string) {
	s.logger.Info("API request",
		"method", method,
		"path", path,
		"status", statusCode,
		"duration_ms", duration,
		"request_id", requestID,
		"event", "api",
	)
}

func (s *slogLogger) LogForecastEvent(metricName string, details map[string]interface{}) {
	fields := []interface{}{
		"event", "forecast",
		"metric_name", metricName,
	}
	for k, v := range details {
		fields = append(fields, k, v)
	}
	s.logger.Info("Forecast event", fields...)
}

func (s *slogLogger) Logger() *slog.Logger {
	return s.logger
}
