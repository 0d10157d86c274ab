package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"dogwrangle/pkg/contracts/domain"
)

// MasterSheet is the worksheet holding the master table
const MasterSheet = "master"

// XLSXWriter writes the master table as an Excel workbook
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a workbook writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger}
}

// WriteMaster writes table to a single-sheet workbook at filePath. Cells keep
// their types; null columns are left empty.
func (w *XLSXWriter) WriteMaster(filePath string, table domain.Table[domain.MasterRecord]) error {
	w.logger.Info("Writing XLSX file",
		slog.String("file_path", filePath),
		slog.Int("record_count", table.Len()))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), MasterSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(MasterSheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, len(MasterColumns))
	for i, name := range MasterColumns {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, xlsxRow(rec)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	return WriteAtomic(filePath, func(out io.Writer) error {
		_, err := f.WriteTo(out)
		return err
	})
}

func xlsxRow(rec domain.MasterRecord) []interface{} {
	nullable := func(s *string) interface{} {
		if s == nil {
			return nil
		}
		return *s
	}
	var stage interface{}
	if rec.Stage != domain.StageNone {
		stage = string(rec.Stage)
	}

	// post_id stays text: Excel numbers cannot hold 18 digits exactly
	row := []interface{}{
		formatInt(rec.PostID),
		nullable(rec.InReplyToStatusID),
		nullable(rec.InReplyToUserID),
		domain.FormatTimestamp(rec.CreatedAt),
		rec.Source,
		rec.Body,
		nullable(rec.ExpandedURLs),
		rec.RatingNumerator,
		rec.RatingDenominator,
		nullable(rec.AuthorDisplayName),
		stage,
		rec.JPGURL,
		rec.ImageNumber,
	}
	for _, p := range rec.Predictions {
		row = append(row, p.Label, p.Confidence, p.IsDog)
	}
	return append(row, rec.FavoriteCount, rec.RetweetCount, rec.Retweeted)
}
