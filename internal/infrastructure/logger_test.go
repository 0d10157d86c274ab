package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dogwrangle/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")

	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger is nil")
	}

	logger.Info("test message", "key", "value")

	// Close log file to allow reading on Windows
	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var logEntry map[string]interface{}
	if err := json.Unmarshal(content, &logEntry); err != nil {
		t.Errorf("Log output is not valid JSON: %v", err)
	}

	if logEntry["msg"] != "test message" {
		t.Errorf("Expected msg='test message', got %v", logEntry["msg"])
	}
	if logEntry["key"] != "value" {
		t.Errorf("Expected key='value', got %v", logEntry["key"])
	}
	if logEntry["level"] != "INFO" {
		t.Errorf("Expected level='INFO', got %v", logEntry["level"])
	}
}

func TestRunIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggingConfig{Level: "debug"}, &buf)

	ctx := WithRunID(context.Background(), "run-123")
	logger.InfoContext(ctx, "with run")
	logger.Info("without run")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}

	var withRun, withoutRun map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &withRun); err != nil {
		t.Fatalf("Failed to parse log JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &withoutRun); err != nil {
		t.Fatalf("Failed to parse log JSON: %v", err)
	}

	if withRun["run_id"] != "run-123" {
		t.Errorf("Expected run_id='run-123', got %v", withRun["run_id"])
	}
	if _, ok := withoutRun["run_id"]; ok {
		t.Errorf("Expected no run_id, got %v", withoutRun["run_id"])
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := parseLogLevel(tt.level); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestEnsureRunID(t *testing.T) {
	ctx := EnsureRunID(context.Background())
	id := GetRunID(ctx)
	if id == "" {
		t.Fatal("Expected a generated run ID")
	}

	if again := GetRunID(EnsureRunID(ctx)); again != id {
		t.Errorf("EnsureRunID replaced existing ID %s with %s", id, again)
	}
}
