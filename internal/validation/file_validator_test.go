package validation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dogwrangle/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestFileValidator_ValidateFile(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T) string
		wantErr   bool
	}{
		{
			name: "readable file",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "archive.csv")
				require.NoError(t, os.WriteFile(file, []byte("tweet_id\n"), 0644))
				return file
			},
		},
		{
			name: "missing file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.csv")
			},
			wantErr: true,
		},
		{
			name: "directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr: true,
		},
		{
			name: "empty path",
			setupFunc: func(t *testing.T) string {
				return ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFileValidator(testLogger())
			err := v.ValidateFile(tt.setupFunc(t))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ValidateSources(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0644))
	missing := filepath.Join(dir, "b.tsv")

	v := NewFileValidator(testLogger())
	assert.NoError(t, v.ValidateSources(present))

	err := v.ValidateSources(present, missing)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, missing, appErr.Context["path"])
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(testLogger())

	dir := filepath.Join(t.TempDir(), "out", "nested")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe removed")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	err = v.ValidateOutputFile(filepath.Join(blocker, "master.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))

	assert.NoError(t, v.ValidateOutputFile(""))
}
