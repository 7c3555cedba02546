package workbook

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// XLSXDriver reads Office Open XML workbooks with excelize
type XLSXDriver struct {
	tracker *handleTracker
}

// NewXLSXDriver creates a driver for .xlsx files
func NewXLSXDriver() *XLSXDriver {
	return &XLSXDriver{tracker: newHandleTracker()}
}

// Open implements Driver
func (d *XLSXDriver) Open(ctx context.Context, path string, opts OpenOptions) (Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &xlsxSession{path: path, file: f, driver: d}
	s.closer = &onceCloser{c: f}
	d.tracker.add(path, s.closer)
	return s, nil
}

// Release implements Driver
func (d *XLSXDriver) Release(path string) error {
	return d.tracker.release(path)
}

type xlsxSession struct {
	path   string
	file   *excelize.File
	closer *onceCloser
	driver *XLSXDriver
}

func (s *xlsxSession) SheetNames() []string {
	return s.file.GetSheetList()
}

// Sheet loads the whole worksheet; excelize has no lazy row access for
// formatted values.
func (s *xlsxSession) Sheet(name string) (Grid, error) {
	if !slices.Contains(s.file.GetSheetList(), name) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	rows, err := s.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	values := make([][]domain.Value, len(rows))
	for i, row := range rows {
		values[i] = make([]domain.Value, len(row))
		for j, raw := range row {
			values[i][j] = domain.ParseValue(raw)
		}
	}
	return NewMemoryGridFromValues(values), nil
}

func (s *xlsxSession) Close() error {
	s.driver.tracker.remove(s.path, s.closer)
	return s.closer.Close()
}

// onceCloser makes Close idempotent across Session.Close and Driver.Release
type onceCloser struct {
	once sync.Once
	c    io.Closer
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.c.Close() })
	return o.err
}
