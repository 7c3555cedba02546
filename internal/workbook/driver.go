package workbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrSheetNotFound is returned by Session.Sheet for an unknown worksheet
	ErrSheetNotFound = errors.New("worksheet not found")
	// ErrUnsafeOpen rejects options that could modify the document or block on a dialog
	ErrUnsafeOpen = errors.New("document must be opened read-only, hidden, without alerts or link updates")
	// ErrUnsupportedFormat is returned by DriverFor for unknown extensions
	ErrUnsupportedFormat = errors.New("unsupported workbook format")
)

// OpenOptions mirror the settings of a spreadsheet editor session
type OpenOptions struct {
	ReadOnly      bool
	UpdateLinks   bool
	Visible       bool
	DisplayAlerts bool
}

// DefaultOpenOptions returns the only combination drivers accept
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{ReadOnly: true}
}

// Validate rejects writable, visible, interactive or link-updating opens
func (o OpenOptions) Validate() error {
	if !o.ReadOnly || o.UpdateLinks || o.Visible || o.DisplayAlerts {
		return fmt.Errorf("%w: %+v", ErrUnsafeOpen, o)
	}
	return nil
}

// Driver opens documents of one format
type Driver interface {
	Open(ctx context.Context, path string, opts OpenOptions) (Session, error)
	// Release frees anything still bound to path after its session closed,
	// or that a failed close left behind.
	Release(path string) error
}

// Session is one open document
type Session interface {
	SheetNames() []string
	Sheet(name string) (Grid, error)
	Close() error
}

// DriverFor picks the driver for a file extension (case-insensitive)
func DriverFor(ext string) (Driver, error) {
	switch strings.ToLower(ext) {
	case ".xls":
		return NewXLSDriver(), nil
	case ".xlsx", ".xlsm":
		return NewXLSXDriver(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// handleTracker remembers the closers opened per path so Release can free
// whatever a session did not.
type handleTracker struct {
	mu      sync.Mutex
	handles map[string][]io.Closer
}

func newHandleTracker() *handleTracker {
	return &handleTracker{handles: make(map[string][]io.Closer)}
}

func (t *handleTracker) add(path string, c io.Closer) {
	key := trackerKey(path)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handles[key] = append(t.handles[key], c)
}

func (t *handleTracker) remove(path string, c io.Closer) {
	key := trackerKey(path)
	t.mu.Lock()
	defer t.mu.Unlock()

	list := t.handles[key]
	for i, h := range list {
		if h == c {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(t.handles, key)
		return
	}
	t.handles[key] = list
}

func (t *handleTracker) release(path string) error {
	key := trackerKey(path)
	t.mu.Lock()
	list := t.handles[key]
	delete(t.handles, key)
	t.mu.Unlock()

	var errs []error
	for _, c := range list {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *handleTracker) open(path string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles[trackerKey(path)])
}

func trackerKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
