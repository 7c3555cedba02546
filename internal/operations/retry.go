package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/infrastructure"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// ReportExtractor turns one report file into a table
type ReportExtractor interface {
	Extract(ctx context.Context, path string, period time.Time) (domain.Table, error)
}

// ExtractorFunc adapts a function to ReportExtractor
type ExtractorFunc func(ctx context.Context, path string, period time.Time) (domain.Table, error)

// Extract calls f
func (f ExtractorFunc) Extract(ctx context.Context, path string, period time.Time) (domain.Table, error) {
	return f(ctx, path, period)
}

// PanicError is the failure recorded when an extraction attempt panics
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("extraction panicked: %v", e.Value)
}

// Outcome is what one file's processing produced. Table is empty when every
// attempt failed; Err then holds the last failure.
type Outcome struct {
	Table    domain.Table
	Attempts int
	Failures int
	Err      error
}

// Retrier runs an extraction up to Attempts times and never fails the batch
type Retrier struct {
	Extractor ReportExtractor
	Attempts  int
	// Paths locates diagnostic artifacts; nil disables them
	Paths *config.Paths

	Metrics *infrastructure.ExtractionMetrics
	Tracer  trace.Tracer
	Logger  *slog.Logger
	// Now stamps diagnostic artifacts
	Now func() time.Time
}

// NewRetrier creates a retrier writing diagnostics under paths.DiagnosticsDir
func NewRetrier(extractor ReportExtractor, attempts int, paths *config.Paths, metrics *infrastructure.ExtractionMetrics, logger *slog.Logger) *Retrier {
	if attempts <= 0 {
		attempts = config.DefaultAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		Extractor: extractor,
		Attempts:  attempts,
		Paths:     paths,
		Metrics:   metrics,
		Tracer:    tracenoop.NewTracerProvider().Tracer("operations"),
		Logger:    logger.With(slog.String("component", "retrier")),
		Now:       time.Now,
	}
}

// Run returns the report table, or an empty table once every attempt failed
func (r *Retrier) Run(ctx context.Context, path string, period time.Time) domain.Table {
	return r.Do(ctx, path, period).Table
}

// Do is Run with the attempt accounting kept
func (r *Retrier) Do(ctx context.Context, path string, period time.Time) Outcome {
	ctx, span := r.tracer().Start(ctx, "operations.Retry",
		trace.WithAttributes(attribute.String("file", filepath.Base(path))))
	defer span.End()

	logger := r.logger().With(slog.String("file", filepath.Base(path)))
	if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	var out Outcome
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			out.Err = err
			break
		}

		out.Attempts = attempt
		table, err := r.attempt(ctx, path, period)
		if err == nil {
			r.Metrics.RecordAttempt(ctx, infrastructure.ResultSuccess)
			span.SetAttributes(attribute.Int("attempts", attempt), attribute.Int("rows", table.Len()))
			out.Table = table
			out.Err = nil
			return out
		}

		r.Metrics.RecordAttempt(ctx, infrastructure.ResultFailure)
		out.Failures++
		out.Err = err
		span.AddEvent("attempt failed", trace.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.String("error", err.Error())))

		logger.WarnContext(ctx, "extraction attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", r.Attempts),
			slog.String("error", err.Error()))

		if diagErr := r.writeDiagnostic(path, attempt, err); diagErr != nil {
			logger.ErrorContext(ctx, "failed to write diagnostic", slog.String("error", diagErr.Error()))
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	span.SetAttributes(attribute.Int("attempts", out.Attempts))
	if out.Err != nil {
		span.SetStatus(codes.Error, out.Err.Error())
	}
	logger.ErrorContext(ctx, "giving up on report",
		slog.Int("attempts", out.Attempts),
		slog.Any("error", out.Err))
	out.Table = domain.Table{}
	return out
}

// attempt runs one extraction, turning a panic into a failure
func (r *Retrier) attempt(ctx context.Context, path string, period time.Time) (table domain.Table, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			table = domain.Table{}
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return r.Extractor.Extract(ctx, path, period)
}

// writeDiagnostic stores the full failure trace for one attempt. Two failures
// of the same file name within one second share a path; the later one wins.
func (r *Retrier) writeDiagnostic(path string, attempt int, failure error) error {
	if r.Paths == nil {
		return nil
	}
	if err := os.MkdirAll(r.Paths.DiagnosticsDir, 0755); err != nil {
		return err
	}

	now := r.now()
	target := r.Paths.DiagnosticFile(now, path)

	body := fmt.Sprintf("time: %s\nfile: %s\nattempt: %d/%d\n\n%+v\n",
		now.Format(time.RFC3339), path, attempt, r.Attempts, failure)
	var panicErr *PanicError
	if errors.As(failure, &panicErr) {
		body += "\n" + string(panicErr.Stack)
	}
	return os.WriteFile(target, []byte(body), 0644)
}

func (r *Retrier) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Retrier) tracer() trace.Tracer {
	if r.Tracer == nil {
		return tracenoop.NewTracerProvider().Tracer("operations")
	}
	return r.Tracer
}

func (r *Retrier) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
