package operations

import (
	"time"

	"dogwrangle/internal/dataprocessing"
	"dogwrangle/internal/exporter"
)

// Step identifiers
const (
	StepIDFetch    = "fetch"
	StepIDLoad     = "load"
	StepIDClean    = "clean"
	StepIDValidate = "validate"
	StepIDPersist  = "persist"
	StepIDVerify   = "verify"
)

// Step names
const (
	StepNameFetch    = "Prediction Download"
	StepNameLoad     = "Source Loading"
	StepNameClean    = "Cleaning and Merge"
	StepNameValidate = "Master Validation"
	StepNamePersist  = "Master Persistence"
	StepNameVerify   = "Output Verification"
)

// Context keys for values passed between steps
const (
	ContextKeySources    = "sources"
	ContextKeyResult     = "result"
	ContextKeyViolations = "violations"
	ContextKeyVerify     = "verify_report"
)

// Request describes one pipeline run
type Request struct {
	ID string `json:"id,omitempty"`

	Sources dataprocessing.SourcePaths `json:"sources"`

	// Fetch downloads PredictionsURL over Sources.Predictions before loading
	Fetch          bool   `json:"fetch"`
	PredictionsURL string `json:"predictions_url,omitempty"`

	MasterCSV string `json:"master_csv"`
	// XLSX is written alongside the CSV when set
	XLSX   string `json:"xlsx,omitempty"`
	Verify bool   `json:"verify"`
}

// Response is the outcome of a run
type Response struct {
	ID       string          `json:"id"`
	Status   OperationStatus `json:"status"`
	Duration time.Duration   `json:"duration"`
	Steps    []*StepState    `json:"steps"`
	Error    string          `json:"error,omitempty"`

	Result *dataprocessing.Result `json:"-"`
	Verify *exporter.VerifyReport `json:"verify,omitempty"`
}
