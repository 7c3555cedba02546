package operations

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/infrastructure"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// FileResult summarizes one processed file for the run log
type FileResult struct {
	Path     string
	Rows     int
	Attempts int
	// Outcome is one of infrastructure.OutcomeRows, OutcomeEmpty, OutcomeFailed
	Outcome  string
	Err      error
	Duration time.Duration
}

// Name returns the file's base name
func (r FileResult) Name() string {
	return filepath.Base(r.Path)
}

// Coordinator fans files out to workers and assembles the batch table
type Coordinator struct {
	Runner  Runner
	Workers int
	Metrics *infrastructure.ExtractionMetrics
	Logger  *slog.Logger
	// OnFileDone, when set, is called from the worker goroutine as each file finishes
	OnFileDone func(FileResult)
}

// NewCoordinator creates a coordinator running at most workers files at once
func NewCoordinator(runner Runner, workers int, metrics *infrastructure.ExtractionMetrics, logger *slog.Logger) *Coordinator {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		Runner:  runner,
		Workers: workers,
		Metrics: metrics,
		Logger:  logger.With(slog.String("component", "coordinator")),
	}
}

type workerMessage struct {
	index  int
	result FileResult
	table  domain.Table
}

// Run processes files and returns their tables concatenated in submission
// order, plus one FileResult per file in the same order. A failing file
// contributes nothing and never stops its peers.
func (c *Coordinator) Run(ctx context.Context, files []string, period time.Time) (domain.Table, []FileResult) {
	results := make(chan workerMessage, len(files))

	g := new(errgroup.Group)
	g.SetLimit(c.Workers)

	c.Logger.InfoContext(ctx, "starting batch",
		slog.Int("files", len(files)),
		slog.Int("workers", c.Workers))

	for i, path := range files {
		g.Go(func() error {
			results <- c.process(ctx, i, path, period)
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	tables := make([]domain.Table, len(files))
	summary := make([]FileResult, len(files))
	for msg := range results {
		tables[msg.index] = msg.table
		summary[msg.index] = msg.result
	}

	batch := domain.Concat(tables...)
	c.Logger.InfoContext(ctx, "batch finished",
		slog.Int("files", len(files)),
		slog.Int("rows", batch.Len()))
	return batch, summary
}

// process runs one file under its own trace id
func (c *Coordinator) process(ctx context.Context, index int, path string, period time.Time) workerMessage {
	ctx = infrastructure.ContextWithTraceID(ctx)
	logger := c.Logger.With(
		slog.String("file", filepath.Base(path)),
		slog.String("trace_id", infrastructure.GetTraceID(ctx)))

	c.Metrics.WorkerStarted(ctx)
	defer c.Metrics.WorkerFinished(ctx)

	logger.InfoContext(ctx, "report started")
	start := time.Now()
	out := c.Runner.Run(ctx, path, period)
	elapsed := time.Since(start)

	res := FileResult{
		Path:     path,
		Rows:     out.Table.Len(),
		Attempts: out.Attempts,
		Err:      out.Err,
		Duration: elapsed,
	}
	switch {
	case !out.Table.IsEmpty():
		res.Outcome = infrastructure.OutcomeRows
	case out.Err != nil:
		res.Outcome = infrastructure.OutcomeFailed
	default:
		res.Outcome = infrastructure.OutcomeEmpty
	}

	c.Metrics.RecordReport(ctx, res.Outcome, res.Rows, elapsed)
	logger.InfoContext(ctx, "report finished",
		slog.String("outcome", res.Outcome),
		slog.Int("rows", res.Rows),
		slog.Int("attempts", res.Attempts),
		slog.Duration("duration", elapsed))
	if c.OnFileDone != nil {
		c.OnFileDone(res)
	}

	return workerMessage{index: index, result: res, table: out.Table}
}
