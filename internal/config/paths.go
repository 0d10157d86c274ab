package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved file locations for one run.
// This is the single source of truth for file paths used by the commands.
type Paths struct {
	BaseDir string
	DataDir string
	LogsDir string

	ArchiveFile     string
	PredictionsFile string
	EngagementFile  string

	MasterCSV   string
	MasterXLSX  string
	MetricsFile string
}

// GetPaths resolves every configured path against the base directory
func (c *Config) GetPaths() (*Paths, error) {
	base, err := filepath.Abs(c.Paths.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %w", c.Paths.BaseDir, err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:         base,
		DataDir:         resolve(c.Paths.DataDir),
		LogsDir:         resolve(c.Paths.LogsDir),
		ArchiveFile:     resolve(c.Sources.Archive),
		PredictionsFile: resolve(c.Sources.Predictions),
		EngagementFile:  resolve(c.Sources.Engagement),
		MasterCSV:       resolve(c.Output.MasterCSV),
		MasterXLSX:      resolve(c.Output.XLSX),
		MetricsFile:     resolve(c.Output.MetricsFile),
	}, nil
}

// EnsureDirectories creates the directories that outputs are written into
func (p *Paths) EnsureDirectories() error {
	directories := []string{p.DataDir, p.LogsDir, filepath.Dir(p.MasterCSV)}
	if p.MasterXLSX != "" {
		directories = append(directories, filepath.Dir(p.MasterXLSX))
	}
	if p.MetricsFile != "" {
		directories = append(directories, filepath.Dir(p.MetricsFile))
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetDataPath returns the path for a file in the data directory
func (p *Paths) GetDataPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("sources",
			slog.String("archive", p.ArchiveFile),
			slog.Bool("archive_exists", FileExists(p.ArchiveFile)),
			slog.String("predictions", p.PredictionsFile),
			slog.Bool("predictions_exists", FileExists(p.PredictionsFile)),
			slog.String("engagement", p.EngagementFile),
			slog.Bool("engagement_exists", FileExists(p.EngagementFile)),
		),
		slog.Group("outputs",
			slog.String("master_csv", p.MasterCSV),
			slog.String("master_xlsx", p.MasterXLSX),
			slog.String("metrics_file", p.MetricsFile),
		))
}
