package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogwrangle/internal/assess"
	"dogwrangle/internal/dataprocessing"
	"dogwrangle/internal/infrastructure"
)

// writeConfig points a config file at the fixture tables and a temp base
// directory and returns its path
func writeConfig(t *testing.T, archive string) string {
	t.Helper()

	fixtures, err := filepath.Abs(filepath.Join("..", "..", "internal", "dataprocessing", "testdata"))
	require.NoError(t, err)
	if archive == "" {
		archive = filepath.Join(fixtures, "archive.csv")
	}

	base := t.TempDir()
	content := fmt.Sprintf(`paths:
  base_dir: %q
sources:
  archive: %q
  predictions: %q
  engagement: %q
output:
  master_csv: out/twitter_archive_master.csv
  metrics_file: out/wrangle.prom
logging:
  level: debug
  output: file
  file_path: %q
telemetry:
  enable_metrics: true
`, base, archive,
		filepath.Join(fixtures, "predictions.tsv"),
		filepath.Join(fixtures, "engagement.jsonl"),
		filepath.Join(base, "logs", "wrangle.log"))

	path := filepath.Join(base, "wrangle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Cleanup(infrastructure.ResetLoggerForTesting)
	return path
}

func runApp(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	infrastructure.ResetLoggerForTesting()

	var stdout bytes.Buffer
	err := newApp(&stdout).Run(context.Background(), append([]string{"wrangle"}, args...))
	return &stdout, err
}

type runResult struct {
	Status     string `json:"status"`
	MergedRows int    `json:"merged_rows"`
	MasterRows int    `json:"master_rows"`
	Steps      []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"steps"`
	Filter *dataprocessing.FilterReport `json:"filter"`
	Verify *struct {
		Expected int `json:"expected_rows"`
		Actual   int `json:"actual_rows"`
	} `json:"verify"`
}

func TestRun_WritesMasterAndMetrics(t *testing.T) {
	cfgPath := writeConfig(t, "")
	base := filepath.Dir(cfgPath)
	xlsx := filepath.Join(base, "out", "master.xlsx")

	stdout, err := runApp(t, "--config", cfgPath, "run", "--verify", "--xlsx", xlsx)
	require.NoError(t, err)

	var result runResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, 11, result.MergedRows)
	assert.Equal(t, 6, result.MasterRows)
	require.NotNil(t, result.Filter)
	assert.Equal(t, 6, result.Filter.Output)
	require.NotNil(t, result.Verify)
	assert.Equal(t, 6, result.Verify.Actual)

	statuses := make(map[string]string)
	for _, step := range result.Steps {
		statuses[step.ID] = step.Status
	}
	assert.Equal(t, "skipped", statuses["fetch"])
	assert.Equal(t, "completed", statuses["verify"])

	assert.FileExists(t, filepath.Join(base, "out", "twitter_archive_master.csv"))
	assert.FileExists(t, xlsx)

	metrics, err := os.ReadFile(filepath.Join(base, "out", "wrangle.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "wrangle_rows_written")

	logs, err := os.ReadFile(filepath.Join(base, "logs", "wrangle.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logs), `"run_id"`)
}

func TestRun_MissingSourceFails(t *testing.T) {
	cfgPath := writeConfig(t, filepath.Join(t.TempDir(), "absent.csv"))
	base := filepath.Dir(cfgPath)

	stdout, err := runApp(t, "--config", cfgPath, "run")
	require.Error(t, err)

	var result runResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, "failed", result.Status)
	assert.NoFileExists(t, filepath.Join(base, "out", "twitter_archive_master.csv"))

	// metrics are still written for a failed run
	assert.FileExists(t, filepath.Join(base, "out", "wrangle.prom"))
}

func TestSummarize_AfterRun(t *testing.T) {
	cfgPath := writeConfig(t, "")

	_, err := runApp(t, "--config", cfgPath, "run")
	require.NoError(t, err)

	stdout, err := runApp(t, "--config", cfgPath, "summarize")
	require.NoError(t, err)

	var summary dataprocessing.Summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, 6, summary.Rows)
	assert.NotEmpty(t, summary.SourceCounts)
}

func TestSummarize_MissingInput(t *testing.T) {
	cfgPath := writeConfig(t, "")

	_, err := runApp(t, "--config", cfgPath, "summarize", "--input", filepath.Join(t.TempDir(), "none.csv"))
	assert.Error(t, err)
}

func TestAssess_ReportsFixtureProblems(t *testing.T) {
	cfgPath := writeConfig(t, "")

	stdout, err := runApp(t, "--config", cfgPath, "assess")
	require.NoError(t, err)

	var report assess.Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, 10, report.RowCounts[dataprocessing.ArchiveTable])
	assert.Equal(t, 11, report.RowCounts[dataprocessing.EngagementTable])
	assert.Equal(t, 1, report.Reshares)
	assert.Equal(t, 1, report.ArchiveWithoutImage)
}

func TestFetch_DownloadsToOverride(t *testing.T) {
	body := "tweet_id\tjpg_url\timg_num\tp1\tp1_conf\tp1_dog\tp2\tp2_conf\tp2_dog\tp3\tp3_conf\tp3_dog\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	cfgPath := writeConfig(t, "")
	dest := filepath.Join(t.TempDir(), "image-predictions.tsv")

	_, err := runApp(t, "--config", cfgPath, "fetch", "--url", server.URL, "--out", dest)
	require.NoError(t, err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, string(content))
}

func TestConfig_MissingFile(t *testing.T) {
	_, err := runApp(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "summarize")
	assert.Error(t, err)
}
