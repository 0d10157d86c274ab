package infrastructure

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogwrangle/internal/config"
)

func TestInitializeTelemetry_Disabled(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{}, NewLogger(config.LoggingConfig{}, io.Discard))
	require.NoError(t, err)

	assert.Nil(t, tel.TracerProvider)
	assert.Nil(t, tel.MeterProvider)
	assert.Nil(t, tel.Registry)
	assert.NotNil(t, tel.Tracer)
	assert.NotNil(t, tel.Meter)

	// no-op instruments still work
	metrics, err := CreatePipelineMetrics(tel.Meter)
	require.NoError(t, err)
	metrics.RowsWritten.Add(context.Background(), 3)

	// nothing to write without a registry
	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, tel.WriteMetrics(path))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestTelemetry_WriteMetrics(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{
		Environment:   "test",
		EnableMetrics: true,
	}, NewLogger(config.LoggingConfig{}, io.Discard))
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	metrics, err := CreatePipelineMetrics(tel.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RowsLoaded.Add(ctx, 5, TableAttr("archive"))
	metrics.RowsDropped.Add(ctx, 2, ReasonAttr("reshare"))
	metrics.StepDuration.Record(ctx, 0.25, StepAttr("load"))

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, tel.WriteMetrics(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "wrangle_rows_loaded")
	assert.Contains(t, text, `table="archive"`)
	assert.Contains(t, text, `reason="reshare"`)
	assert.Contains(t, text, "wrangle_step_duration_seconds")
}

func TestTelemetry_TracingToFile(t *testing.T) {
	traceFile := filepath.Join(t.TempDir(), "traces.json")
	tel, err := InitializeTelemetry(config.TelemetryConfig{
		EnableTracing: true,
		TraceFile:     traceFile,
		SampleRatio:   1.0,
	}, NewLogger(config.LoggingConfig{}, io.Discard))
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)

	_, span := tel.Tracer.Start(context.Background(), "unit-span")
	span.End()

	require.NoError(t, tel.Shutdown(context.Background()))

	content, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "unit-span")
}
