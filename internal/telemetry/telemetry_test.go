package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, ExporterOTLP, cfg.Exporter)
	assert.Equal(t, "kpi-forecast-go", cfg.ServiceName)
}

func TestInit_Disabled(t *testing.T) {
	require.NoError(t, Init(context.Background(), DefaultConfig()))
	assert.False(t, Enabled())

	// Tracers are usable without a provider.
	_, span := GetHTTPTracer().Start(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	span.End()

	assert.NoError(t, Shutdown(context.Background()))
}

func TestInit_StdoutExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporter = ExporterStdout

	require.NoError(t, Init(context.Background(), cfg))
	assert.True(t, Enabled())

	_, span := GetServiceTracer().Start(context.Background(), "recorded")
	assert.True(t, span.IsRecording())
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.False(t, Enabled())
}

func TestInit_UnsupportedExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporter = "zipkin"

	err := Init(context.Background(), cfg)
	assert.ErrorContains(t, err, "unsupported trace exporter")
	assert.False(t, Enabled())
}
