// Package runlog keeps the human-readable run log: a JSON array of
// timestamped messages that operators read after a batch finishes.
package runlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimeLayout prefixes every entry as "[2006-01-02 15:04:05] - message"
const TimeLayout = "2006-01-02 15:04:05"

// Log is a run log stored at a single path. Safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// New opens the run log at path, creating an empty one when missing
func New(path string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Log{
		path:   path,
		now:    time.Now,
		logger: logger.With(slog.String("component", "runlog")),
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := l.write([]string{}); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Path returns the file backing the log
func (l *Log) Path() string {
	return l.path
}

// Entries returns every entry. An unreadable or corrupt file reads as empty.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// Add appends one timestamped message and mirrors it to the structured log
func (l *Log) Add(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append(l.read(), fmt.Sprintf("[%s] - %s", l.now().Format(TimeLayout), message))
	l.logger.Info(message)
	return l.write(entries)
}

// Addf is Add with formatting
func (l *Log) Addf(format string, args ...any) error {
	return l.Add(fmt.Sprintf(format, args...))
}

// Clear empties the log
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write([]string{})
}

func (l *Log) read() []string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return []string{}
	}
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.Warn("run log is not a JSON array, starting over",
			slog.String("path", l.path),
			slog.String("error", err.Error()))
		return []string{}
	}
	return entries
}

func (l *Log) write(entries []string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create run log directory: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	return nil
}
