package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths holds the absolute locations used during a batch run
type Paths struct {
	WorkDir        string
	InputDir       string
	OutputDir      string
	DiagnosticsDir string
	RunLogFile     string
}

// GetPaths resolves the configured paths against the working directory.
// Absolute entries are kept as they are.
func GetPaths(cfg *Config) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %v", err)
	}
	return ResolvePaths(wd, cfg.Paths), nil
}

// ResolvePaths resolves pc against base
func ResolvePaths(base string, pc PathsConfig) *Paths {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		WorkDir:        base,
		InputDir:       resolve(pc.InputDir),
		OutputDir:      resolve(pc.OutputDir),
		DiagnosticsDir: resolve(pc.DiagnosticsDir),
		RunLogFile:     resolve(pc.RunLogFile),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.InputDir,
		p.OutputDir,
		p.DiagnosticsDir,
		filepath.Dir(p.RunLogFile),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}
	return nil
}

// OutputFile returns <OutputDir>/<timestamp>_output.<format>
func (p *Paths) OutputFile(now time.Time, format string) string {
	return filepath.Join(p.OutputDir, now.Format(TimestampLayout)+OutputSuffix+"."+format)
}

// DiagnosticFile returns <DiagnosticsDir>/<timestamp><basename>.txt
func (p *Paths) DiagnosticFile(now time.Time, source string) string {
	return filepath.Join(p.DiagnosticsDir, now.Format(TimestampLayout)+filepath.Base(source)+".txt")
}

// LogPathResolution logs the resolved paths at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("resolved paths",
		slog.String("work_dir", p.WorkDir),
		slog.String("input_dir", p.InputDir),
		slog.String("output_dir", p.OutputDir),
		slog.String("diagnostics_dir", p.DiagnosticsDir),
		slog.String("run_log_file", p.RunLogFile))
}
