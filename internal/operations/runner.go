package operations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
	apperrors "github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/errors"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/infrastructure"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// ExtractCommand is the subcommand a worker process is started with
const ExtractCommand = "extract"

// Runner processes one report file end to end. Implementations never
// return a partially filled table.
type Runner interface {
	Run(ctx context.Context, path string, period time.Time) Outcome
}

// InProcessRunner runs the retrier on the calling goroutine
type InProcessRunner struct {
	Retrier *Retrier
}

// Run implements Runner
func (r *InProcessRunner) Run(ctx context.Context, path string, period time.Time) Outcome {
	return r.Retrier.Do(ctx, path, period)
}

// WorkerResult is written by a worker process to its stdout
type WorkerResult struct {
	// Format is contracts.DataFormatVersion of the writing binary
	Format   string       `json:"format"`
	Table    domain.Table `json:"table"`
	Attempts int          `json:"attempts"`
	Failures int          `json:"failures"`
	Error    string       `json:"error,omitempty"`
}

// NewWorkerResult converts an outcome for the wire
func NewWorkerResult(o Outcome) WorkerResult {
	res := WorkerResult{Format: contracts.DataFormatVersion, Table: o.Table, Attempts: o.Attempts, Failures: o.Failures}
	if o.Err != nil {
		res.Error = o.Err.Error()
	}
	return res
}

// WriteWorkerResult encodes o to w as a single JSON document
func WriteWorkerResult(w io.Writer, o Outcome) error {
	return json.NewEncoder(w).Encode(NewWorkerResult(o))
}

// SubprocessRunner runs every file in its own worker process, so a crash or
// a stuck document handle stays confined to that file.
type SubprocessRunner struct {
	// Executable is the binary started as "<Executable> extract --file F --period P"
	Executable string
	// Env is appended to the parent environment
	Env []string
	// Stderr receives the worker's log stream; nil discards it
	Stderr io.Writer

	Metrics *infrastructure.ExtractionMetrics
	Logger  *slog.Logger
}

// NewSubprocessRunner re-executes the running binary
func NewSubprocessRunner(metrics *infrastructure.ExtractionMetrics, logger *slog.Logger) (*SubprocessRunner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, apperrors.NewConfigError("locate executable", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubprocessRunner{
		Executable: exe,
		Stderr:     os.Stderr,
		Metrics:    metrics,
		Logger:     logger.With(slog.String("component", "subprocess_runner")),
	}, nil
}

// Run implements Runner. A worker that exits abnormally or writes an
// unreadable result counts as one failed attempt and yields an empty table.
func (r *SubprocessRunner) Run(ctx context.Context, path string, period time.Time) Outcome {
	logger := r.logger().With(slog.String("file", filepath.Base(path)))

	args := []string{ExtractCommand, "--file", path, "--period", period.Format(config.PeriodLayout)}
	cmd := exec.CommandContext(ctx, r.Executable, args...)
	cmd.Env = append(os.Environ(), r.Env...)
	if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
		cmd.Env = append(cmd.Env, config.EnvPrefix+"_TRACE_ID="+traceID)
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}

	logger.DebugContext(ctx, "starting worker process", slog.String("executable", r.Executable))
	runErr := cmd.Run()

	var res WorkerResult
	decodeErr := json.Unmarshal(stdout.Bytes(), &res)
	if decodeErr == nil && res.Format != contracts.DataFormatVersion {
		decodeErr = fmt.Errorf("result format %q, want %q", res.Format, contracts.DataFormatVersion)
	}

	if runErr != nil || decodeErr != nil {
		err := runErr
		if err == nil {
			err = fmt.Errorf("decode worker result: %w", decodeErr)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			err = fmt.Errorf("worker exited with code %d: %w", exitErr.ExitCode(), runErr)
		}
		r.Metrics.RecordAttempt(ctx, infrastructure.ResultFailure)
		logger.ErrorContext(ctx, "worker process failed", slog.String("error", err.Error()))
		return Outcome{Attempts: 1, Failures: 1, Err: apperrors.NewTransientIOError("worker process", err)}
	}

	for i := 0; i < res.Failures; i++ {
		r.Metrics.RecordAttempt(ctx, infrastructure.ResultFailure)
	}
	if res.Attempts > res.Failures {
		r.Metrics.RecordAttempt(ctx, infrastructure.ResultSuccess)
	}

	out := Outcome{Table: res.Table, Attempts: res.Attempts, Failures: res.Failures}
	if res.Error != "" {
		out.Table = domain.Table{}
		out.Err = errors.New(res.Error)
	}
	return out
}

func (r *SubprocessRunner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
