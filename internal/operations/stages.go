package operations

import (
	"context"
	"fmt"
	"log/slog"

	"dogwrangle/internal/dataprocessing"
	apperrors "dogwrangle/internal/errors"
	"dogwrangle/internal/exporter"
	"dogwrangle/internal/infrastructure"
	"dogwrangle/internal/validation"
)

// Downloader fetches a remote file into local storage
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// StepDependencies carries the collaborators shared by the standard steps
type StepDependencies struct {
	Downloader Downloader
	Processor  dataprocessing.Processor
	Metrics    *infrastructure.PipelineMetrics
	Logger     *slog.Logger
}

// RegisterStandardSteps registers fetch, load, clean, validate, persist and
// verify, in that order
func RegisterStandardSteps(registry *Registry, deps StepDependencies) error {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Processor == nil {
		deps.Processor = dataprocessing.NewCleaningProcessor(deps.Logger)
	}
	if deps.Metrics == nil {
		deps.Metrics = NewNoopTracer().Metrics()
	}

	files := validation.NewFileValidator(deps.Logger)
	steps := []Step{
		NewFetchStep(deps.Downloader, deps.Logger),
		NewLoadStep(dataprocessing.NewLoader(deps.Logger), files, deps.Metrics, deps.Logger),
		NewCleanStep(deps.Processor, deps.Metrics, deps.Logger),
		NewValidateStep(validation.NewRecordValidator(deps.Logger), deps.Logger),
		NewPersistStep(exporter.NewCSVWriter(deps.Logger), exporter.NewXLSXWriter(deps.Logger), files, deps.Metrics, deps.Logger),
		NewVerifyStep(deps.Logger),
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return err
		}
	}
	return nil
}

func sourcesFrom(state *OperationState) (*dataprocessing.Sources, bool) {
	v, ok := state.GetContext(ContextKeySources)
	if !ok {
		return nil, false
	}
	sources, ok := v.(*dataprocessing.Sources)
	return sources, ok && sources != nil
}

func resultFrom(state *OperationState) (*dataprocessing.Result, bool) {
	v, ok := state.GetContext(ContextKeyResult)
	if !ok {
		return nil, false
	}
	result, ok := v.(*dataprocessing.Result)
	return result, ok && result != nil
}

// FetchStep downloads the prediction file before the sources are read
type FetchStep struct {
	BaseStage
	downloader Downloader
	logger     *slog.Logger
}

// NewFetchStep creates the download step
func NewFetchStep(downloader Downloader, logger *slog.Logger) *FetchStep {
	return &FetchStep{
		BaseStage:  NewBaseStage(StepIDFetch, StepNameFetch),
		downloader: downloader,
		logger:     logger,
	}
}

// ShouldRun reports whether the request asked for a download
func (s *FetchStep) ShouldRun(state *OperationState) bool {
	return state.Request.Fetch
}

// Validate checks that there is somewhere to download from and to
func (s *FetchStep) Validate(state *OperationState) error {
	if s.downloader == nil {
		return fmt.Errorf("no downloader configured")
	}
	if state.Request.PredictionsURL == "" {
		return fmt.Errorf("predictions URL is empty")
	}
	if state.Request.Sources.Predictions == "" {
		return fmt.Errorf("predictions destination is empty")
	}
	return nil
}

// Execute performs the download
func (s *FetchStep) Execute(ctx context.Context, state *OperationState) error {
	req := state.Request
	if err := s.downloader.Download(ctx, req.PredictionsURL, req.Sources.Predictions); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Predictions fetched",
		slog.String("url", req.PredictionsURL),
		slog.String("path", req.Sources.Predictions))
	return nil
}

// LoadStep reads the three source tables
type LoadStep struct {
	BaseStage
	loader  *dataprocessing.Loader
	files   *validation.FileValidator
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewLoadStep creates the load step
func NewLoadStep(loader *dataprocessing.Loader, files *validation.FileValidator, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *LoadStep {
	return &LoadStep{
		BaseStage: NewBaseStage(StepIDLoad, StepNameLoad),
		loader:    loader,
		files:     files,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute checks that every source is readable, then loads all three
func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	paths := state.Request.Sources
	if err := s.files.ValidateSources(paths.Archive, paths.Predictions, paths.Engagement); err != nil {
		return err
	}

	sources, err := s.loader.Load(paths)
	if err != nil {
		return err
	}

	counts := map[string]int{
		dataprocessing.ArchiveTable:     sources.Archive.Len(),
		dataprocessing.PredictionsTable: sources.Predictions.Len(),
		dataprocessing.EngagementTable:  sources.Engagement.Len(),
	}
	stepState := state.GetStage(s.ID())
	for table, n := range counts {
		s.metrics.RowsLoaded.Add(ctx, int64(n), infrastructure.TableAttr(table))
		stepState.SetMetadata(table+"_rows", n)
	}

	state.SetContext(ContextKeySources, sources)
	return nil
}

// CleanStep normalizes, merges and filters the loaded tables
type CleanStep struct {
	BaseStage
	processor dataprocessing.Processor
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
}

// NewCleanStep creates the cleaning step
func NewCleanStep(processor dataprocessing.Processor, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *CleanStep {
	return &CleanStep{
		BaseStage: NewBaseStage(StepIDClean, StepNameClean),
		processor: processor,
		metrics:   metrics,
		logger:    logger,
	}
}

// Validate requires loaded sources
func (s *CleanStep) Validate(state *OperationState) error {
	if _, ok := sourcesFrom(state); !ok {
		return NewValidationError(s.ID(), "sources have not been loaded")
	}
	return nil
}

// Execute runs the processor and records what it dropped
func (s *CleanStep) Execute(ctx context.Context, state *OperationState) error {
	sources, _ := sourcesFrom(state)

	result, err := s.processor.Process(sources)
	if err != nil {
		return err
	}

	for reason, n := range result.Filter.Dropped() {
		if n > 0 {
			s.metrics.RowsDropped.Add(ctx, int64(n), infrastructure.ReasonAttr(reason))
		}
	}
	if n := result.Normalize.UnmappedRows(); n > 0 {
		s.metrics.UnmappedSources.Add(ctx, int64(n))
	}

	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("merged_rows", result.MergedRows)
	stepState.SetMetadata("master_rows", result.Master.Len())

	state.SetContext(ContextKeyResult, result)
	return nil
}

// ValidateStep checks every master row against the output invariants
type ValidateStep struct {
	BaseStage
	validator *validation.RecordValidator
	logger    *slog.Logger
}

// NewValidateStep creates the validation step
func NewValidateStep(validator *validation.RecordValidator, logger *slog.Logger) *ValidateStep {
	return &ValidateStep{
		BaseStage: NewBaseStage(StepIDValidate, StepNameValidate),
		validator: validator,
		logger:    logger,
	}
}

// Validate requires a cleaning result
func (s *ValidateStep) Validate(state *OperationState) error {
	if _, ok := resultFrom(state); !ok {
		return NewValidationError(s.ID(), "master table has not been built")
	}
	return nil
}

// Execute fails the run when any row breaks an invariant
func (s *ValidateStep) Execute(ctx context.Context, state *OperationState) error {
	result, _ := resultFrom(state)

	violations, err := s.validator.ValidateTable(result.Master)
	state.SetContext(ContextKeyViolations, violations)
	return err
}

// PersistStep writes the master table to CSV and, when asked, XLSX
type PersistStep struct {
	BaseStage
	csv     *exporter.CSVWriter
	xlsx    *exporter.XLSXWriter
	files   *validation.FileValidator
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewPersistStep creates the persistence step
func NewPersistStep(csv *exporter.CSVWriter, xlsx *exporter.XLSXWriter, files *validation.FileValidator, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *PersistStep {
	return &PersistStep{
		BaseStage: NewBaseStage(StepIDPersist, StepNamePersist),
		csv:       csv,
		xlsx:      xlsx,
		files:     files,
		metrics:   metrics,
		logger:    logger,
	}
}

// Validate requires a master table and an output path
func (s *PersistStep) Validate(state *OperationState) error {
	if _, ok := resultFrom(state); !ok {
		return NewValidationError(s.ID(), "master table has not been built")
	}
	if state.Request.MasterCSV == "" {
		return apperrors.NewConfigError("master CSV path is empty", nil)
	}
	return nil
}

// Execute writes the outputs. Each file is replaced atomically.
func (s *PersistStep) Execute(ctx context.Context, state *OperationState) error {
	result, _ := resultFrom(state)
	req := state.Request

	if err := s.files.ValidateOutputFile(req.MasterCSV); err != nil {
		return err
	}
	if err := s.csv.WriteMaster(req.MasterCSV, result.Master); err != nil {
		return err
	}
	s.metrics.RowsWritten.Add(ctx, int64(result.Master.Len()))

	if req.XLSX != "" {
		if err := s.files.ValidateOutputFile(req.XLSX); err != nil {
			return err
		}
		if err := s.xlsx.WriteMaster(req.XLSX, result.Master); err != nil {
			return err
		}
	}

	state.GetStage(s.ID()).SetMetadata("rows_written", result.Master.Len())
	s.logger.InfoContext(ctx, "Master table persisted",
		slog.String("csv", req.MasterCSV),
		slog.String("xlsx", req.XLSX),
		slog.Int("rows", result.Master.Len()))
	return nil
}

// VerifyStep re-reads the persisted CSV and compares it with the table in memory
type VerifyStep struct {
	BaseStage
	logger *slog.Logger
}

// NewVerifyStep creates the verification step
func NewVerifyStep(logger *slog.Logger) *VerifyStep {
	return &VerifyStep{
		BaseStage: NewBaseStage(StepIDVerify, StepNameVerify),
		logger:    logger,
	}
}

// ShouldRun reports whether the request asked for verification
func (s *VerifyStep) ShouldRun(state *OperationState) bool {
	return state.Request.Verify
}

// Validate requires a master table
func (s *VerifyStep) Validate(state *OperationState) error {
	if _, ok := resultFrom(state); !ok {
		return NewValidationError(s.ID(), "master table has not been built")
	}
	return nil
}

// Execute runs the comparison
func (s *VerifyStep) Execute(ctx context.Context, state *OperationState) error {
	result, _ := resultFrom(state)

	report, err := exporter.Verify(state.Request.MasterCSV, result.Master)
	if report != nil {
		state.SetContext(ContextKeyVerify, report)
	}
	return err
}
