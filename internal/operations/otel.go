package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"dogwrangle/internal/infrastructure"
)

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer backed by the run's telemetry. A nil
// telemetry gives a tracer that records nothing.
func NewOperationTracer(telemetry *infrastructure.Telemetry) (*OperationTracer, error) {
	if telemetry == nil {
		return NewNoopTracer(), nil
	}

	metrics, err := infrastructure.CreatePipelineMetrics(telemetry.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	return &OperationTracer{
		tracer:  telemetry.Tracer,
		metrics: metrics,
	}, nil
}

// NewNoopTracer returns a tracer whose spans and instruments are no-ops
func NewNoopTracer() *OperationTracer {
	// noop instruments never fail to build
	metrics, _ := infrastructure.CreatePipelineMetrics(metricnoop.NewMeterProvider().Meter("noop"))
	return &OperationTracer{
		tracer:  tracenoop.NewTracerProvider().Tracer("noop"),
		metrics: metrics,
	}
}

// Metrics returns the pipeline instruments steps record into
func (t *OperationTracer) Metrics() *infrastructure.PipelineMetrics {
	return t.metrics
}

// TraceOperationExecution creates a span for the entire run
func (t *OperationTracer) TraceOperationExecution(ctx context.Context, operationID string, stepCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.Int("operation.step_count", stepCount),
		),
	)
}

// TraceStepExecution creates a span for one step
func (t *OperationTracer) TraceStepExecution(ctx context.Context, operationID string, step Step) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.step."+step.ID(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
}

// RecordStepResult ends span with the step's outcome and records its duration
func (t *OperationTracer) RecordStepResult(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	t.metrics.StepDuration.Record(ctx, duration.Seconds(), infrastructure.StepAttr(stepID))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.type", string(GetErrorType(err))))
		t.metrics.StepErrors.Add(ctx, 1, infrastructure.StepAttr(stepID))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
