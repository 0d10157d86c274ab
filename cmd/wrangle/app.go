package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"dogwrangle/internal/assess"
	"dogwrangle/internal/config"
	"dogwrangle/internal/dataprocessing"
	"dogwrangle/internal/exporter"
	"dogwrangle/internal/fetch"
	"dogwrangle/internal/infrastructure"
	"dogwrangle/internal/operations"
	"dogwrangle/internal/validation"
)

// newApp builds the command tree. Reports are written to stdout as JSON;
// logs go wherever the logging config sends them.
func newApp(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    config.AppName,
		Usage:   "Gather, assess, clean and merge the WeRateDogs post archive",
		Version: config.AppVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to a YAML config file (default: wrangle.yaml or configs/wrangle.yaml)"},
		},
		Commands: []*cli.Command{
			{
				Name:  "fetch",
				Usage: "Download the image-prediction file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "Override the predictions URL"},
					&cli.StringFlag{Name: "out", Usage: "Override the download destination"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withEnv(ctx, c, func(ctx context.Context, env *environment) error {
						url := firstNonEmpty(c.String("url"), env.cfg.Sources.PredictionsURL)
						dest := firstNonEmpty(c.String("out"), env.paths.PredictionsFile)
						return env.fetcher().Download(ctx, url, dest)
					})
				},
			},
			{
				Name:  "run",
				Usage: "Run the full pipeline and write the master table",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "fetch", Usage: "Download the prediction file first"},
					&cli.StringFlag{Name: "xlsx", Usage: "Also write an Excel workbook to this path"},
					&cli.BoolFlag{Name: "verify", Usage: "Re-read the written CSV and compare it with the table in memory"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withEnv(ctx, c, func(ctx context.Context, env *environment) error {
						return runPipeline(ctx, env, c, stdout)
					})
				},
			},
			{
				Name:  "assess",
				Usage: "Report quality and tidiness problems in the raw sources",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withEnv(ctx, c, func(ctx context.Context, env *environment) error {
						sources, err := env.loadSources()
						if err != nil {
							return err
						}
						report, err := assess.NewAssessor(env.logger).Assess(ctx, sources)
						if err != nil {
							return err
						}
						return writeJSON(stdout, report)
					})
				},
			},
			{
				Name:  "summarize",
				Usage: "Print stage counts, source counts and the engagement correlation of a master CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Usage: "Master CSV to read (default: the configured output)"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withEnv(ctx, c, func(ctx context.Context, env *environment) error {
						master, err := exporter.ReadMaster(firstNonEmpty(c.String("input"), env.paths.MasterCSV))
						if err != nil {
							return err
						}
						return writeJSON(stdout, dataprocessing.Summarize(master))
					})
				},
			},
		},
	}
}

// runOutput is what `wrangle run` prints
type runOutput struct {
	*operations.Response
	MergedRows int                            `json:"merged_rows,omitempty"`
	MasterRows int                            `json:"master_rows,omitempty"`
	Normalize  *dataprocessing.NormalizeReport `json:"normalize,omitempty"`
	Filter     *dataprocessing.FilterReport    `json:"filter,omitempty"`
}

func runPipeline(ctx context.Context, env *environment, c *cli.Command, stdout io.Writer) error {
	if err := env.paths.EnsureDirectories(); err != nil {
		return err
	}

	tracer, err := operations.NewOperationTracer(env.telemetry)
	if err != nil {
		return err
	}

	registry := operations.NewRegistry()
	if err := operations.RegisterStandardSteps(registry, operations.StepDependencies{
		Downloader: env.fetcher(),
		Metrics:    tracer.Metrics(),
		Logger:     env.logger,
	}); err != nil {
		return err
	}

	xlsx := env.paths.MasterXLSX
	if c.IsSet("xlsx") {
		xlsx = c.String("xlsx")
	}

	resp, runErr := operations.NewManager(registry, tracer, env.logger).Execute(ctx, operations.Request{
		ID: infrastructure.GetRunID(ctx),
		Sources: dataprocessing.SourcePaths{
			Archive:     env.paths.ArchiveFile,
			Predictions: env.paths.PredictionsFile,
			Engagement:  env.paths.EngagementFile,
		},
		Fetch:          c.Bool("fetch"),
		PredictionsURL: env.cfg.Sources.PredictionsURL,
		MasterCSV:      env.paths.MasterCSV,
		XLSX:           xlsx,
		Verify:         c.Bool("verify") || env.cfg.Output.Verify,
	})

	// metrics are written for failed runs too
	if err := env.telemetry.WriteMetrics(env.paths.MetricsFile); err != nil {
		env.logger.WarnContext(ctx, "Failed to write metrics", slog.String("error", err.Error()))
	}

	if resp != nil {
		out := runOutput{Response: resp}
		if resp.Result != nil {
			out.MergedRows = resp.Result.MergedRows
			out.MasterRows = resp.Result.Master.Len()
			out.Normalize = &resp.Result.Normalize
			out.Filter = &resp.Result.Filter
		}
		if err := writeJSON(stdout, out); err != nil {
			return err
		}
	}
	return runErr
}

// environment holds what every command needs: configuration, resolved
// paths, the logger and telemetry
type environment struct {
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
}

// withEnv loads configuration, starts logging and telemetry under a fresh
// run ID, runs fn, and shuts telemetry down again
func withEnv(ctx context.Context, c *cli.Command, fn func(context.Context, *environment) error) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	paths, err := cfg.GetPaths()
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx = infrastructure.EnsureRunID(ctx)
	logger = infrastructure.WithComponent(logger, c.Name)
	paths.LogPathResolution(logger)

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	return fn(ctx, &environment{cfg: cfg, paths: paths, logger: logger, telemetry: telemetry})
}

func (e *environment) fetcher() *fetch.Client {
	return fetch.New(e.cfg.Fetch.Timeout, e.cfg.Fetch.UserAgent, e.logger)
}

func (e *environment) loadSources() (*dataprocessing.Sources, error) {
	if err := validation.NewFileValidator(e.logger).ValidateSources(
		e.paths.ArchiveFile, e.paths.PredictionsFile, e.paths.EngagementFile); err != nil {
		return nil, err
	}
	return dataprocessing.NewLoader(e.logger).Load(dataprocessing.SourcePaths{
		Archive:     e.paths.ArchiveFile,
		Predictions: e.paths.PredictionsFile,
		Engagement:  e.paths.EngagementFile,
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
