package operations_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogwrangle/internal/operations"
)

func TestNewStepState(t *testing.T) {
	state := operations.NewStepState("load", "Source Loading")

	assert.Equal(t, "load", state.ID)
	assert.Equal(t, "Source Loading", state.Name)
	assert.Equal(t, operations.StepStatusPending, state.GetStatus())
	assert.NotNil(t, state.Metadata)
	assert.Nil(t, state.StartTime)
	assert.Nil(t, state.EndTime)
	assert.Zero(t, state.Duration())
}

func TestStepStateTransitions(t *testing.T) {
	tests := []struct {
		name       string
		transition func(*operations.StepState)
		wantStatus operations.StepStatus
		check      func(t *testing.T, s *operations.StepState)
	}{
		{
			name:       "start",
			transition: func(s *operations.StepState) { s.Start() },
			wantStatus: operations.StepStatusActive,
			check: func(t *testing.T, s *operations.StepState) {
				assert.NotNil(t, s.StartTime)
				assert.Nil(t, s.EndTime)
			},
		},
		{
			name: "complete",
			transition: func(s *operations.StepState) {
				s.Start()
				s.Complete()
			},
			wantStatus: operations.StepStatusCompleted,
			check: func(t *testing.T, s *operations.StepState) {
				require.NotNil(t, s.EndTime)
				assert.False(t, s.EndTime.Before(*s.StartTime))
			},
		},
		{
			name: "fail",
			transition: func(s *operations.StepState) {
				s.Start()
				s.Fail(errors.New("boom"))
			},
			wantStatus: operations.StepStatusFailed,
			check: func(t *testing.T, s *operations.StepState) {
				assert.EqualError(t, s.Error, "boom")
				assert.Equal(t, "boom", s.Message)
			},
		},
		{
			name:       "skip",
			transition: func(s *operations.StepState) { s.Skip("not requested") },
			wantStatus: operations.StepStatusSkipped,
			check: func(t *testing.T, s *operations.StepState) {
				assert.Equal(t, "not requested", s.Message)
				assert.Zero(t, s.Duration(), "a skipped step never started")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := operations.NewStepState("x", "X")
			tt.transition(s)
			assert.Equal(t, tt.wantStatus, s.GetStatus())
			tt.check(t, s)
		})
	}
}

func TestStepState_SetMetadata(t *testing.T) {
	s := operations.NewStepState("load", "Source Loading")
	s.SetMetadata("archive_rows", 10)
	assert.Equal(t, 10, s.Metadata["archive_rows"])
}

func TestBaseStage(t *testing.T) {
	base := operations.NewBaseStage("load", "Source Loading")
	assert.Equal(t, "load", base.ID())
	assert.Equal(t, "Source Loading", base.Name())
	assert.NoError(t, base.Validate(nil))

	var nilBase *operations.BaseStage
	assert.Equal(t, "", nilBase.ID())
	assert.Error(t, nilBase.Validate(nil))
}

func TestRegistry(t *testing.T) {
	registry := operations.NewRegistry()

	require.NoError(t, registry.Register(&fakeStep{BaseStage: operations.NewBaseStage("a", "A")}))
	require.NoError(t, registry.Register(&fakeStep{BaseStage: operations.NewBaseStage("b", "B")}))

	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(&fakeStep{BaseStage: operations.NewBaseStage("", "")}))
	assert.Error(t, registry.Register(&fakeStep{BaseStage: operations.NewBaseStage("a", "again")}))

	assert.Equal(t, 2, registry.Count())
	steps := registry.List()
	require.Len(t, steps, 2)
	assert.Equal(t, "a", steps[0].ID())
	assert.Equal(t, "b", steps[1].ID())

	step, err := registry.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "B", step.Name())

	_, err = registry.Get("missing")
	assert.Error(t, err)
}
