package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "dogwrangle/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Fetch     FetchConfig     `yaml:"fetch" envconfig:"FETCH"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// SourcesConfig locates the three input tables
type SourcesConfig struct {
	Archive        string `yaml:"archive" envconfig:"ARCHIVE"`
	Predictions    string `yaml:"predictions" envconfig:"PREDICTIONS"`
	PredictionsURL string `yaml:"predictions_url" envconfig:"PREDICTIONS_URL"`
	Engagement     string `yaml:"engagement" envconfig:"ENGAGEMENT"`
}

// OutputConfig locates the files written by a run
type OutputConfig struct {
	MasterCSV   string `yaml:"master_csv" envconfig:"MASTER_CSV"`
	XLSX        string `yaml:"xlsx" envconfig:"XLSX"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	Verify      bool   `yaml:"verify" envconfig:"VERIFY"`
}

// FetchConfig configures the prediction-file download
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	UserAgent string        `yaml:"user_agent" envconfig:"USER_AGENT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig toggles tracing and metrics
type TelemetryConfig struct {
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceFile     string  `yaml:"trace_file" envconfig:"TRACE_FILE"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
}

// Load builds the configuration from defaults, then the YAML file, then
// WRANGLE_* environment variables. An empty configFile means search the usual
// locations; a named file that does not exist is an error.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	} else if _, err := os.Stat(configFile); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("config file %s not readable", configFile), err)
	}

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", configFile)
		}
	}

	// Environment overrides only the variables that are actually set
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the first config file found in the usual locations
func getConfigFilePath() string {
	locations := []string{
		"wrangle.yaml",
		"configs/wrangle.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// validate validates the configuration
func (c *Config) validate() error {
	required := map[string]string{
		"sources.archive":     c.Sources.Archive,
		"sources.predictions": c.Sources.Predictions,
		"sources.engagement":  c.Sources.Engagement,
		"output.master_csv":   c.Output.MasterCSV,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", field)
		}
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %s", c.Logging.Output)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0,1], got %v", c.Telemetry.SampleRatio)
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			BaseDir: ".",
			DataDir: DefaultDataDir,
			LogsDir: DefaultLogsDir,
		},
		Sources: SourcesConfig{
			Archive:        filepath.Join(DefaultDataDir, DefaultArchiveFile),
			Predictions:    filepath.Join(DefaultDataDir, DefaultPredictionsFile),
			PredictionsURL: DefaultPredictionsURL,
			Engagement:     filepath.Join(DefaultDataDir, DefaultEngagementFile),
		},
		Output: OutputConfig{
			MasterCSV: filepath.Join(DefaultDataDir, DefaultMasterFile),
		},
		Fetch: FetchConfig{
			Timeout:   DefaultHTTPTimeout,
			UserAgent: AppName + "/" + AppVersion,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: filepath.Join(DefaultLogsDir, "wrangle.log"),
		},
		Telemetry: TelemetryConfig{
			Environment:   "development",
			EnableTracing: false,
			SampleRatio:   1.0,
			EnableMetrics: true,
		},
	}
}
