package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "dogwrangle/internal/errors"
	"dogwrangle/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to filePath. The content goes to a temporary file in
// the same directory first and is renamed over filePath only when complete,
// so a failed write leaves any previous file untouched.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	return WriteAtomic(filePath, func(out io.Writer) error {
		if options.BOMPrefix {
			if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
				return fmt.Errorf("failed to write BOM: %w", err)
			}
		}

		writer := csv.NewWriter(out)
		if len(options.Headers) > 0 {
			if err := writer.Write(options.Headers); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
		}
		for i, record := range options.Records {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

// WriteMaster persists the master table with a header row and no BOM
func (w *CSVWriter) WriteMaster(filePath string, table domain.Table[domain.MasterRecord]) error {
	records := make([][]string, 0, table.Len())
	for _, rec := range table.Rows {
		records = append(records, MasterRow(rec))
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers: MasterColumns,
		Records: records,
	})
}

// ReadMaster loads a master CSV written by WriteMaster
func ReadMaster(filePath string) (domain.Table[domain.MasterRecord], error) {
	file, err := os.Open(filePath)
	if err != nil {
		return domain.Table[domain.MasterRecord]{}, apperrors.NewSourceUnavailableError(filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err == io.EOF {
		return domain.Table[domain.MasterRecord]{}, apperrors.NewMalformedRecordError(filePath, 1, fmt.Errorf("missing header row"))
	}
	if err != nil {
		return domain.Table[domain.MasterRecord]{}, csvReadError(filePath, err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return domain.Table[domain.MasterRecord]{}, apperrors.NewMalformedRecordError(filePath, 1, err)
	}

	var rows []domain.MasterRecord
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Table[domain.MasterRecord]{}, csvReadError(filePath, err)
		}
		rec, err := parseMasterRow(index, fields)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return domain.Table[domain.MasterRecord]{}, apperrors.NewMalformedRecordError(filePath, line, err)
		}
		rows = append(rows, rec)
	}
	return domain.NewTable("master", rows), nil
}

func csvReadError(filePath string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return apperrors.NewMalformedRecordError(filePath, parseErr.Line, parseErr.Err)
	}
	return apperrors.NewSourceUnavailableError(filePath, err)
}

// WriteAtomic runs write against a temporary file next to filePath and
// renames it into place on success
func WriteAtomic(filePath string, write func(io.Writer) error) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return apperrors.NewStorageError("failed to create temporary file", err).WithContext("path", filePath)
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", filePath), err).WithContext("path", filePath)
	}

	if err := write(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", filePath), err).WithContext("path", filePath)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError("failed to set file mode", err).WithContext("path", filePath)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError(fmt.Sprintf("failed to move output into place at %s", filePath), err).WithContext("path", filePath)
	}
	return nil
}
