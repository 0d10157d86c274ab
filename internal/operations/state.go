package operations

import (
	"sync"
	"time"
)

// OperationStatus represents the overall status of a run
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// OperationState represents the complete state of one pipeline run
type OperationState struct {
	mu sync.RWMutex

	ID        string          `json:"id"`
	Status    OperationStatus `json:"status"`
	StartTime time.Time       `json:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty"`

	// Request is fixed for the lifetime of the run
	Request Request `json:"request"`

	Steps     map[string]*StepState `json:"steps"`
	stepOrder []string

	// Context passes tables and reports between steps
	Context map[string]interface{} `json:"-"`

	Error error `json:"-"`
}

// NewOperationState creates a new operation state
func NewOperationState(id string, req Request) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Request:   req,
		Steps:     make(map[string]*StepState),
		Context:   make(map[string]interface{}),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStage returns the state of a specific step
func (p *OperationState) GetStage(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stepID]
}

// SetStage registers the state of a step. Steps keep the order in which
// they were first set.
func (p *OperationState) SetStage(stepID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.Steps[stepID]; !exists {
		p.stepOrder = append(p.stepOrder, stepID)
	}
	p.Steps[stepID] = state
}

// OrderedStages returns the step states in run order
func (p *OperationState) OrderedStages() []*StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ordered := make([]*StepState, 0, len(p.stepOrder))
	for _, id := range p.stepOrder {
		ordered = append(ordered, p.Steps[id])
	}
	return ordered
}

// GetContext retrieves a value from the operation context
func (p *OperationState) GetContext(key string) (interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Context[key]
	return val, ok
}

// SetContext sets a value in the operation context
func (p *OperationState) SetContext(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Context[key] = value
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// HasFailures returns true if any step has failed
func (p *OperationState) HasFailures() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, step := range p.Steps {
		if step.GetStatus() == StepStatusFailed {
			return true
		}
	}
	return false
}
