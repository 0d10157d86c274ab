package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"dogwrangle/internal/exporter"
	"dogwrangle/internal/infrastructure"
)

// Manager runs the registered steps of a pipeline one after another.
// The first failing step stops the run and the remaining steps are
// marked skipped.
type Manager struct {
	registry *Registry
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewManager creates a manager over registry
func NewManager(registry *Registry, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		tracer:   tracer,
		logger:   logger,
	}
}

// GetRegistry returns the registry for accessing registered steps
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs a pipeline with the given request. The returned response is
// populated even when err is non-nil.
func (m *Manager) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.ID == "" {
		req.ID = infrastructure.GetRunID(ctx)
	}
	if req.ID == "" {
		req.ID = fmt.Sprintf("run-%d", time.Now().Unix())
	}
	ctx = infrastructure.WithRunID(ctx, req.ID)

	state := NewOperationState(req.ID, req)
	steps := m.registry.List()
	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, req.ID, len(steps))
	defer span.End()

	m.logger.InfoContext(ctx, "pipeline_start",
		slog.String("operation_id", req.ID),
		slog.Int("step_count", len(steps)))

	state.Start()
	err := m.executeSequential(ctx, state, steps)

	switch {
	case err == nil:
		state.Complete()
		span.SetStatus(codes.Ok, "")
		m.logger.InfoContext(ctx, "pipeline_completed",
			slog.String("operation_id", req.ID),
			slog.Duration("duration", state.Duration()))
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.WarnContext(ctx, "pipeline_cancelled",
			slog.String("operation_id", req.ID),
			slog.String("step", FailedStep(err)))
	default:
		state.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.ErrorContext(ctx, "pipeline_failed",
			slog.String("operation_id", req.ID),
			slog.String("step", FailedStep(err)),
			slog.String("error", err.Error()))
	}

	return m.createResponse(state), err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, steps[i:], "operation cancelled")
			return NewCancellationError(step.ID(), err)
		}

		stepState := state.GetStage(step.ID())
		if optional, ok := step.(OptionalStep); ok && !optional.ShouldRun(state) {
			stepState.Skip("not requested")
			m.logger.InfoContext(ctx, "step_skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			continue
		}

		m.logger.InfoContext(ctx, "executing_step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, state, step, stepState); err != nil {
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("previous step %s failed", step.ID()))
			return err
		}
	}
	return nil
}

// executeStep validates and runs a single step inside its own span
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step, stepState *StepState) error {
	stepCtx, span := m.tracer.TraceStepExecution(ctx, state.ID, step)
	stepState.Start()

	var err error
	if verr := step.Validate(state); verr != nil {
		err = validationFailure(step.ID(), verr)
	} else if xerr := step.Execute(stepCtx, state); xerr != nil {
		if errors.Is(xerr, context.Canceled) || errors.Is(xerr, context.DeadlineExceeded) {
			err = NewCancellationError(step.ID(), xerr)
		} else {
			err = WrapError(xerr, step.ID())
		}
	}

	if err != nil {
		stepState.Fail(err)
	} else {
		stepState.Complete()
	}
	m.tracer.RecordStepResult(stepCtx, span, step.ID(), stepState.Duration(), err)

	if err != nil {
		m.logger.ErrorContext(ctx, "step_failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error_type", string(GetErrorType(err))),
			slog.String("error", err.Error()))
		return err
	}

	m.logger.InfoContext(ctx, "step_completed",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()),
		slog.Duration("duration", stepState.Duration()))
	return nil
}

// skipRemaining marks every pending step in steps as skipped
func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if s := state.GetStage(step.ID()); s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(reason)
		}
	}
}

func (m *Manager) createResponse(state *OperationState) *Response {
	resp := &Response{
		ID:       state.ID,
		Status:   state.Status,
		Duration: state.Duration(),
		Steps:    state.OrderedStages(),
	}

	if result, ok := resultFrom(state); ok {
		resp.Result = result
	}
	if report, ok := state.GetContext(ContextKeyVerify); ok {
		resp.Verify, _ = report.(*exporter.VerifyReport)
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}
