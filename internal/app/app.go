package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/dataprocessing"
	apperrors "github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/errors"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/exporter"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/files"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/infrastructure"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/operations"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/runlog"
	transporthttp "github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/transport/http"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/workbook"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// Run log messages
const (
	MsgStarting    = "starting consolidation"
	MsgNoFiles     = "no files found"
	MsgFinished    = "process finished"
	shutdownPeriod = 5 * time.Second
)

// Application holds everything a batch run needs
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ExtractionMetrics
	RunLog        *runlog.Log
	Discovery     *files.Discovery
	Files         *files.Manager
	Progress      *operations.ProgressTracker
	// Runner processes one file; chosen from Batch.Isolation
	Runner operations.Runner
	// Now stamps the output file and the default period
	Now func() time.Time
}

// Summary describes a finished batch
type Summary struct {
	Period  string
	Results []operations.FileResult
	Skipped []files.FileInfo
	Rows    int
	// OutputPath is empty when the input directory held nothing
	OutputPath string
}

// NewApplication builds the application for cfg, resolving paths against paths.WorkDir
func NewApplication(cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfig{
		ServiceVersion: contracts.Version,
		EnableTracing:  cfg.Telemetry.Tracing,
		EnableMetrics:  cfg.Telemetry.MetricsAddr != "",
		TraceWriter:    os.Stderr,
	}, logger)
	if err != nil {
		return nil, apperrors.NewConfigError("initialize telemetry", err)
	}

	metrics, err := infrastructure.NewExtractionMetrics(providers.Meter)
	if err != nil {
		return nil, apperrors.NewConfigError("register metrics", err)
	}

	if err := paths.EnsureDirectories(); err != nil {
		return nil, apperrors.NewStorageError("create directories", err)
	}
	paths.LogPathResolution(logger)

	log, err := runlog.New(paths.RunLogFile, logger)
	if err != nil {
		return nil, apperrors.NewStorageError("open run log", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		RunLog:        log,
		Discovery:     files.NewDiscovery(paths.WorkDir),
		Files:         files.NewManager(logger),
		Progress:      operations.NewProgressTracker(0),
		Now:           time.Now,
	}

	switch cfg.Batch.Isolation {
	case config.IsolationInProcess:
		retrier, err := a.newRetrier()
		if err != nil {
			return nil, err
		}
		a.Runner = &operations.InProcessRunner{Retrier: retrier}
	default:
		runner, err := operations.NewSubprocessRunner(metrics, logger)
		if err != nil {
			return nil, err
		}
		a.Runner = runner
	}

	return a, nil
}

// newRetrier builds the extraction pipeline for the configured extension
func (a *Application) newRetrier() (*operations.Retrier, error) {
	driver, err := workbook.DriverFor(a.Config.Extraction.Extension)
	if err != nil {
		return nil, apperrors.NewConfigError("select workbook driver", err)
	}

	extractor := dataprocessing.NewExtractor(a.Config.Extraction, driver, a.Logger)
	extractor.Tracer = a.OTelProviders.Tracer

	retrier := operations.NewRetrier(extractor, a.Config.Batch.Attempts, a.Paths, a.Metrics, a.Logger)
	retrier.Tracer = a.OTelProviders.Tracer
	return retrier, nil
}

// period parses the reporting period, defaulting to today
func (a *Application) period() (string, time.Time, error) {
	text := a.Config.ReportingPeriod(a.Now())
	t, err := time.Parse(config.PeriodLayout, text)
	if err != nil {
		return "", time.Time{}, apperrors.NewConfigError("invalid period "+text, err)
	}
	return text, t, nil
}

// note appends to the run log; a failed write is logged and otherwise ignored
func (a *Application) note(ctx context.Context, format string, args ...any) {
	if err := a.RunLog.Addf(format, args...); err != nil {
		a.Logger.WarnContext(ctx, "failed to write run log", slog.String("error", err.Error()))
	}
}

// Consolidate runs one batch over the input directory
func (a *Application) Consolidate(ctx context.Context) (*Summary, error) {
	periodText, period, err := a.period()
	if err != nil {
		return nil, err
	}
	summary := &Summary{Period: periodText}

	if err := a.RunLog.Clear(); err != nil {
		return nil, apperrors.NewStorageError("clear run log", err)
	}
	a.note(ctx, MsgStarting)

	has, err := a.Discovery.HasEntries(a.Paths.InputDir)
	if err != nil {
		return nil, apperrors.NewStorageError("read input directory", err)
	}
	if !has {
		a.Logger.WarnContext(ctx, "no files found", slog.String("input_dir", a.Paths.InputDir))
		a.note(ctx, MsgNoFiles)
		return summary, nil
	}

	if _, err := a.Files.ClearDirectory(a.Paths.OutputDir); err != nil {
		return nil, apperrors.NewStorageError("clear output directory", err)
	}

	found, err := a.Discovery.FindReports(a.Paths.InputDir, a.Config.Extraction.Extension)
	if err != nil {
		return nil, apperrors.NewStorageError("list input directory", err)
	}
	for _, f := range found {
		switch f.SkipReason {
		case files.SkipDirectory:
			a.note(ctx, "'%s' is not a file", f.Name)
		case files.SkipExtension:
			a.note(ctx, "file '%s' is not %s", f.Name, a.Config.Extraction.Extension)
		default:
			continue
		}
		summary.Skipped = append(summary.Skipped, f)
	}

	reports := files.AcceptedPaths(found)
	a.Progress.Reset(len(reports))

	coordinator := operations.NewCoordinator(a.Runner, a.Config.Batch.Workers, a.Metrics, a.Logger)
	coordinator.OnFileDone = a.Progress.FileDone
	batch, results := coordinator.Run(ctx, reports, period)
	summary.Results = results
	summary.Rows = batch.Len()

	for _, res := range results {
		switch res.Outcome {
		case infrastructure.OutcomeRows:
			a.note(ctx, "'%s' processed successfully", res.Name())
		case infrastructure.OutcomeEmpty:
			a.note(ctx, "'%s' empty", res.Name())
		default:
			a.note(ctx, "error processing '%s': %v", res.Name(), res.Err)
		}
	}

	if batch.IsEmpty() {
		batch = domain.Table{Columns: dataprocessing.CanonicalColumns()}
	}

	writer, err := exporter.NewTableWriter(a.Config.Output.Format, a.Logger)
	if err != nil {
		return nil, apperrors.NewConfigError("select output writer", err)
	}
	summary.OutputPath = a.Paths.OutputFile(a.Now(), a.Config.Output.Format)
	if err := writer.Write(summary.OutputPath, batch); err != nil {
		return nil, apperrors.NewStorageError("write batch table", err)
	}

	if removed, err := a.Files.ClearDirectory(a.Paths.InputDir); err != nil {
		a.Logger.WarnContext(ctx, "failed to empty input directory",
			slog.Int("removed", removed),
			slog.String("error", err.Error()))
	}

	a.note(ctx, MsgFinished)
	return summary, nil
}

// Run consolidates once, serving /metrics and /healthz meanwhile when
// configured, and stops early on SIGINT or SIGTERM.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := a.Config.Telemetry.MetricsAddr; addr != "" {
		if err := infrastructure.RegisterSystemMetrics(a.OTelProviders.Meter, a.Now()); err != nil {
			a.Logger.Warn("failed to register system metrics", slog.String("error", err.Error()))
		}

		health := transporthttp.NewHealthHandler(contracts.Version, progressSource{a.Progress}, a.Logger)
		router := transporthttp.NewRouter(health, a.OTelProviders.MetricsHandler, a.Logger)
		srv, err := transporthttp.Start(addr, router, a.Logger)
		if err != nil {
			return apperrors.NewConfigError("listen on "+addr, err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.Logger.Warn("metrics server shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	summary, err := a.Consolidate(ctx)
	if err != nil {
		a.Logger.ErrorContext(ctx, "consolidation failed", slog.String("error", err.Error()))
		return err
	}

	a.Logger.InfoContext(ctx, "consolidation finished",
		slog.String("period", summary.Period),
		slog.Int("files", len(summary.Results)),
		slog.Int("skipped", len(summary.Skipped)),
		slog.Int("rows", summary.Rows),
		slog.String("output", summary.OutputPath))
	return nil
}

// ExtractOne is the worker entry point: it extracts path with retries and
// writes the outcome to w as JSON. A trace id handed down by the parent
// process is kept so both sides log under the same id.
func (a *Application) ExtractOne(ctx context.Context, path, periodText string, w io.Writer) error {
	period, err := time.Parse(config.PeriodLayout, periodText)
	if err != nil {
		return apperrors.NewParsingError(fmt.Sprintf("period %q is not DD/MM/YYYY", periodText), err)
	}

	if traceID := os.Getenv(config.EnvPrefix + "_TRACE_ID"); traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, traceID)
	} else {
		ctx = infrastructure.EnsureTraceID(ctx)
	}

	retrier, err := a.newRetrier()
	if err != nil {
		return err
	}

	out := retrier.Do(ctx, path, period)
	if err := operations.WriteWorkerResult(w, out); err != nil {
		return apperrors.NewStorageError("write worker result", err)
	}
	return nil
}

// Shutdown flushes telemetry
func (a *Application) Shutdown(ctx context.Context) error {
	if a.OTelProviders == nil {
		return nil
	}
	if err := a.OTelProviders.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type progressSource struct {
	tracker *operations.ProgressTracker
}

func (p progressSource) Progress() transporthttp.Progress {
	s := p.tracker.Snapshot()
	return transporthttp.Progress{Files: s.Total, Done: s.Done, Failed: s.Failed, Rows: s.Rows}
}
