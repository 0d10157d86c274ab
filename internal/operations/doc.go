// Package operations runs the wrangling pipeline as an ordered list of steps.
//
// A Manager takes its steps from a Registry and runs them one after another
// against a shared OperationState. Every step gets a StepState that records
// status, timing and a few row counts, and runs inside its own trace span.
//
// The standard steps are:
//
//	fetch → load → clean → validate → persist → verify
//
// fetch and verify are optional and only run when the Request asks for them.
// The first failing step stops the run; the steps after it are marked skipped.
// Step failures come back as *OperationError naming the step, wrapping the
// *errors.AppError raised underneath so errors.As reaches either one.
package operations
