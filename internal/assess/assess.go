package assess

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dogwrangle/internal/dataprocessing"
)

// Report lists the quality and tidiness problems found in the raw tables.
// Nothing here changes the data.
type Report struct {
	RowCounts map[string]int `json:"row_counts"`

	// ArchiveNulls counts null cells per nullable archive column
	ArchiveNulls map[string]int `json:"archive_nulls"`

	PlaceholderNames    map[string]int `json:"placeholder_names"`
	MissingNames        int            `json:"missing_names"`
	LowercaseNames      int            `json:"lowercase_names"`
	OffScaleDenominator int            `json:"denominators_not_10"`
	Reshares            int            `json:"reshares"`
	Replies             int            `json:"replies"`
	MissingExpandedURLs int            `json:"missing_expanded_urls"`
	MultipleStages      int            `json:"multiple_stage_flags"`

	DuplicatePredictionKeys  int `json:"duplicate_prediction_keys"`
	DuplicateEngagementKeys  int `json:"duplicate_engagement_keys"`
	ArchiveWithoutImage      int `json:"archive_without_prediction"`
	ArchiveWithoutEngagement int `json:"archive_without_engagement"`
	NonDogTopPredictions     int `json:"non_dog_top_predictions"`

	SourceCounts    []dataprocessing.ValueCount `json:"source_counts"`
	UnmappedSources int                         `json:"unmapped_sources"`
}

// nullableArchiveColumns are the archive columns that may hold nulls
var nullableArchiveColumns = []string{
	"in_reply_to_status_id",
	"in_reply_to_user_id",
	"retweeted_status_id",
	"retweeted_status_user_id",
	"retweeted_status_timestamp",
	"expanded_urls",
	"name",
}

// Assessor inspects raw source tables through an in-memory SQL engine
type Assessor struct {
	logger *slog.Logger
}

// NewAssessor creates an assessor
func NewAssessor(logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{logger: logger}
}

// Assess loads sources into a fresh in-memory database and runs the checks.
// The database is discarded before Assess returns.
func (a *Assessor) Assess(ctx context.Context, sources *dataprocessing.Sources) (*Report, error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open assessment database: %w", err)
	}
	defer s.Close()

	if err := s.load(ctx, sources); err != nil {
		return nil, err
	}

	report := &Report{
		RowCounts:    make(map[string]int),
		ArchiveNulls: make(map[string]int),
	}

	for _, table := range []string{dataprocessing.ArchiveTable, dataprocessing.PredictionsTable, dataprocessing.EngagementTable} {
		n, err := s.count(ctx, "SELECT COUNT(*) FROM "+table)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		report.RowCounts[table] = n
	}

	for _, column := range nullableArchiveColumns {
		n, err := s.count(ctx, fmt.Sprintf("SELECT COUNT(*) - COUNT(%s) FROM archive", column))
		if err != nil {
			return nil, fmt.Errorf("failed to count nulls in %s: %w", column, err)
		}
		report.ArchiveNulls[column] = n
	}
	report.MissingNames = report.ArchiveNulls["name"]
	report.MissingExpandedURLs = report.ArchiveNulls["expanded_urls"]
	report.Reshares = report.RowCounts[dataprocessing.ArchiveTable] - report.ArchiveNulls["retweeted_status_id"]
	report.Replies = report.RowCounts[dataprocessing.ArchiveTable] - report.ArchiveNulls["in_reply_to_status_id"]

	placeholders := make([]string, 0, len(dataprocessing.PlaceholderNames))
	args := make([]any, 0, len(dataprocessing.PlaceholderNames))
	for name := range dataprocessing.PlaceholderNames {
		placeholders = append(placeholders, "?")
		args = append(args, name)
	}
	report.PlaceholderNames, err = s.groupCounts(ctx,
		"SELECT name, COUNT(*) FROM archive WHERE name IN ("+strings.Join(placeholders, ", ")+") GROUP BY name", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count placeholder names: %w", err)
	}

	checks := []struct {
		target *int
		query  string
	}{
		{&report.LowercaseNames, "SELECT COUNT(*) FROM archive WHERE name GLOB '[a-z]*'"},
		{&report.OffScaleDenominator, "SELECT COUNT(*) FROM archive WHERE CAST(rating_denominator AS REAL) <> 10"},
		{&report.MultipleStages, "SELECT COUNT(*) FROM archive WHERE doggo + floofer + pupper + puppo > 1"},
		{&report.DuplicatePredictionKeys, "SELECT COUNT(*) FROM (SELECT post_id FROM predictions GROUP BY post_id HAVING COUNT(*) > 1)"},
		{&report.DuplicateEngagementKeys, "SELECT COUNT(*) FROM (SELECT post_id FROM engagement GROUP BY post_id HAVING COUNT(*) > 1)"},
		{&report.ArchiveWithoutImage, "SELECT COUNT(*) FROM archive a WHERE NOT EXISTS (SELECT 1 FROM predictions p WHERE p.post_id = a.post_id)"},
		{&report.ArchiveWithoutEngagement, "SELECT COUNT(*) FROM archive a WHERE NOT EXISTS (SELECT 1 FROM engagement e WHERE e.post_id = a.post_id)"},
		{&report.NonDogTopPredictions, "SELECT COUNT(*) FROM predictions WHERE p1_dog = 0"},
	}
	for _, check := range checks {
		if *check.target, err = s.count(ctx, check.query); err != nil {
			return nil, fmt.Errorf("assessment query failed: %w", err)
		}
	}

	sourceCounts, err := s.groupCounts(ctx, "SELECT source, COUNT(*) FROM archive GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to count sources: %w", err)
	}
	report.SourceCounts = dataprocessing.SortedCounts(sourceCounts)
	for source, n := range sourceCounts {
		if _, ok := dataprocessing.SourceLabels[source]; !ok {
			report.UnmappedSources += n
		}
	}

	a.logger.InfoContext(ctx, "Assessment completed",
		slog.Int("archive_rows", report.RowCounts[dataprocessing.ArchiveTable]),
		slog.Int("reshares", report.Reshares),
		slog.Int("denominators_not_10", report.OffScaleDenominator),
		slog.Int("unmapped_sources", report.UnmappedSources))

	return report, nil
}
