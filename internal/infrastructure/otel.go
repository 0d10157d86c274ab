package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"dogwrangle/internal/config"
)

const (
	ServiceName = "dogwrangle"
	MeterName   = "dogwrangle"
)

// Telemetry holds the OpenTelemetry providers for one run.
// Disabled signals are backed by no-op implementations, so callers never
// need nil checks.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry
	Tracer         trace.Tracer
	Meter          metric.Meter

	traceOut io.Closer
	logger   *slog.Logger
}

// InitializeTelemetry sets up tracing and metrics from configuration
func InitializeTelemetry(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	)

	t := &Telemetry{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
		logger: logger,
	}

	if cfg.EnableTracing {
		if err := t.initializeTracing(cfg, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := t.initializeMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	logger.Info("Telemetry initialized",
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return t, nil
}

// initializeTracing exports spans as JSON to stdout or to the configured file
func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource) error {
	var w io.Writer = os.Stdout
	if cfg.TraceFile != "" {
		file, err := openLogFile(cfg.TraceFile)
		if err != nil {
			return err
		}
		t.traceOut = file
		w = file
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	t.TracerProvider = tp
	t.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	otel.SetTracerProvider(tp)

	return nil
}

// initializeMetrics wires an OpenTelemetry meter to a private Prometheus registry
func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	t.Registry = registry
	t.MeterProvider = mp
	t.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	otel.SetMeterProvider(mp)

	return nil
}

// WriteMetrics writes the collected metrics in the Prometheus text format.
// Batch runs have no scrape endpoint, so the file is meant for a textfile collector.
func (t *Telemetry) WriteMetrics(path string) error {
	if t.Registry == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	t.logger.Info("Metrics written", slog.String("path", path))
	return nil
}

// Shutdown flushes and stops the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var firstErr error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("tracer provider shutdown: %w", err)
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("meter provider shutdown: %w", err)
		}
	}
	if t.traceOut != nil {
		if err := t.traceOut.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PipelineMetrics holds the instruments recorded by a pipeline run
type PipelineMetrics struct {
	RowsLoaded      metric.Int64Counter
	RowsDropped     metric.Int64Counter
	RowsWritten     metric.Int64Counter
	UnmappedSources metric.Int64Counter
	StepDuration    metric.Float64Histogram
	StepErrors      metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"wrangle_rows_loaded_total",
		metric.WithDescription("Rows read from each source table"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"wrangle_rows_dropped_total",
		metric.WithDescription("Rows removed by the post-merge filters, by reason"),
	)
	if err != nil {
		return nil, err
	}

	rowsWritten, err := meter.Int64Counter(
		"wrangle_rows_written_total",
		metric.WithDescription("Rows persisted to the master table"),
	)
	if err != nil {
		return nil, err
	}

	unmappedSources, err := meter.Int64Counter(
		"wrangle_unmapped_sources_total",
		metric.WithDescription("Archive rows whose source label has no humanized form"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"wrangle_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepErrors, err := meter.Int64Counter(
		"wrangle_step_errors_total",
		metric.WithDescription("Pipeline steps that failed"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RowsLoaded:      rowsLoaded,
		RowsDropped:     rowsDropped,
		RowsWritten:     rowsWritten,
		UnmappedSources: unmappedSources,
		StepDuration:    stepDuration,
		StepErrors:      stepErrors,
	}, nil
}

// TableAttr is the attribute set used for per-table counters
func TableAttr(table string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("table", table))
}

// ReasonAttr is the attribute set used for per-reason drop counters
func ReasonAttr(reason string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("reason", reason))
}

// StepAttr is the attribute set used for per-step instruments
func StepAttr(step string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("step", step))
}
