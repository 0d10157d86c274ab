package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "dogwrangle/internal/errors"
)

// FileValidator checks input files and output locations before a run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateSources checks every declared source file and reports the first
// one that cannot be read
func (v *FileValidator) ValidateSources(paths ...string) error {
	for _, path := range paths {
		if err := v.ValidateFile(path); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	if path == "" {
		return apperrors.NewSourceUnavailableError(path, fmt.Errorf("no path configured"))
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewSourceUnavailableError(path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewSourceUnavailableError(path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewSourceUnavailableError(path, fmt.Errorf("%s is a directory, not a file", path))
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewSourceUnavailableError(path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	testFile, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	name := testFile.Name()
	testFile.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateOutputFile checks that the directory holding path is writable
func (v *FileValidator) ValidateOutputFile(path string) error {
	if path == "" {
		return nil
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}
