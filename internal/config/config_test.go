package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dogwrangle/internal/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wrangle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no file and no env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, filepath.Join("data", DefaultArchiveFile), cfg.Sources.Archive)
				assert.Equal(t, filepath.Join("data", DefaultMasterFile), cfg.Output.MasterCSV)
				assert.Equal(t, DefaultPredictionsURL, cfg.Sources.PredictionsURL)
				assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.True(t, cfg.Telemetry.EnableMetrics)
			},
		},
		{
			name: "file overrides defaults",
			file: `
sources:
  archive: in/archive.csv
output:
  master_csv: out/master.csv
  xlsx: out/master.xlsx
fetch:
  timeout: 5s
logging:
  level: debug
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "in/archive.csv", cfg.Sources.Archive)
				assert.Equal(t, "out/master.csv", cfg.Output.MasterCSV)
				assert.Equal(t, "out/master.xlsx", cfg.Output.XLSX)
				assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
				assert.Equal(t, "debug", cfg.Logging.Level)
				// untouched sections keep their defaults
				assert.Equal(t, filepath.Join("data", DefaultEngagementFile), cfg.Sources.Engagement)
			},
		},
		{
			name: "env overrides file",
			file: `
sources:
  archive: from-file.csv
logging:
  level: debug
`,
			env: map[string]string{
				"WRANGLE_SOURCES_ARCHIVE": "from-env.csv",
				"WRANGLE_FETCH_TIMEOUT":   "2m",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "from-env.csv", cfg.Sources.Archive)
				assert.Equal(t, 2*time.Minute, cfg.Fetch.Timeout)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:    "invalid yaml",
			file:    "sources: [unterminated",
			wantErr: true,
		},
		{
			name:    "empty required path",
			env:     map[string]string{"WRANGLE_OUTPUT_MASTER_CSV": " "},
			wantErr: true,
		},
		{
			name:    "invalid logging output",
			env:     map[string]string{"WRANGLE_LOGGING_OUTPUT": "syslog"},
			wantErr: true,
		},
		{
			name:    "sample ratio out of range",
			env:     map[string]string{"WRANGLE_TELEMETRY_SAMPLE_RATIO": "1.5"},
			wantErr: true,
		},
		{
			name: "non-json format is forced to json",
			env:  map[string]string{"WRANGLE_LOGGING_FORMAT": "text"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_MissingNamedFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.validate())
}
