package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager provides the file operations of a batch run
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger.With(slog.String("component", "files"))}
}

// DeleteFile deletes a file. A file that is already gone is not an error.
func (m *Manager) DeleteFile(path string) error {
	m.logger.Debug("Deleting file", slog.String("path", path))

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// ClearDirectory removes the regular files directly inside dir and returns
// how many were removed. Subdirectories are left alone. Every file is
// attempted; the returned error joins the individual failures.
func (m *Manager) ClearDirectory(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := m.DeleteFile(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	m.logger.Info("Cleared directory",
		slog.String("dir", dir),
		slog.Int("removed", removed),
		slog.Int("failed", len(errs)))

	return removed, errors.Join(errs...)
}

// EnsureDirectory creates a directory if it doesn't exist
func (m *Manager) EnsureDirectory(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		m.logger.Debug("Creating directory", slog.String("path", path))
		return os.MkdirAll(path, 0755)
	}
	return nil
}
