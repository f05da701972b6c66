package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// Service information
	ServiceName    = "github.com/irfndi/kpi-forecast-go"
	ServiceVersion = "1.0.0"

	httpTracerName    = ServiceName + "/http"
	serviceTracerName = ServiceName + "/forecast"
)

// Exporter names accepted by Init.
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// TelemetryConfig holds configuration for telemetry
type TelemetryConfig struct {
	Enabled        bool
	Exporter       string
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// DefaultConfig returns default telemetry configuration
func DefaultConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:        false,
		Exporter:       ExporterOTLP,
		OTLPEndpoint:   "localhost:4318",
		ServiceName:    "kpi-forecast-go",
		ServiceVersion: ServiceVersion,
		Environment:    "development",
	}
}

var (
	mu       sync.RWMutex
	provider *sdktrace.TracerProvider
)

// Init installs the global tracer provider and W3C propagator. With telemetry
// disabled it installs nothing and tracers are no-ops.
func Init(ctx context.Context, config TelemetryConfig) error {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !config.Enabled {
		return nil
	}

	exporter, err := newExporter(ctx, config)
	if err != nil {
		return err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	mu.Lock()
	provider = tp
	mu.Unlock()

	otel.SetTracerProvider(tp)
	return nil
}

func newExporter(ctx context.Context, config TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch config.Exporter {
	case ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		return exporter, nil
	case ExporterOTLP, "":
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(config.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", config.Exporter)
	}
}

// Shutdown flushes and stops the tracer provider installed by Init.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	mu.Unlock()

	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}

// Enabled reports whether a tracer provider is installed.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return provider != nil
}

// GetHTTPTracer returns the tracer used by the HTTP middleware.
func GetHTTPTracer() trace.Tracer {
	return tracer(httpTracerName)
}

// GetServiceTracer returns the tracer used by the forecast service.
func GetServiceTracer() trace.Tracer {
	return tracer(serviceTracerName)
}

func tracer(name string) trace.Tracer {
	if !Enabled() {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}
