package dataprocessing

import (
	"log/slog"
)

// CleaningProcessor runs normalize, merge and filter in memory
type CleaningProcessor struct {
	normalizer *Normalizer
	logger     *slog.Logger
}

// NewCleaningProcessor creates a processor
func NewCleaningProcessor(logger *slog.Logger) *CleaningProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleaningProcessor{
		normalizer: NewNormalizer(logger),
		logger:     logger,
	}
}

// Process normalizes the archive, collapses stages, joins the three tables
// and applies the post-merge filters
func (p *CleaningProcessor) Process(sources *Sources) (*Result, error) {
	archive, normReport, err := p.normalizer.Normalize(sources.Archive)
	if err != nil {
		return nil, err
	}

	staged := CollapseStages(archive)
	merged := Merge(staged, sources.Predictions, sources.Engagement)
	p.logger.Info("Sources merged",
		slog.Int("archive", staged.Len()),
		slog.Int("predictions", sources.Predictions.Len()),
		slog.Int("engagement", sources.Engagement.Len()),
		slog.Int("merged", merged.Len()))

	master, filterReport := Filter(merged, p.logger)

	return &Result{
		Master:     master,
		Normalize:  normReport,
		Filter:     filterReport,
		MergedRows: merged.Len(),
	}, nil
}
