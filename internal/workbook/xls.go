package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/extrame/xls"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// xlsCharset is used to decode BIFF strings
const xlsCharset = "utf-8"

// errNoWorkbookStream is returned for compound files without a Workbook/Book stream
var errNoWorkbookStream = errors.New("no workbook stream in compound document")

// XLSDriver reads legacy BIFF (.xls) workbooks
type XLSDriver struct {
	tracker *handleTracker
}

// NewXLSDriver creates a driver for .xls files
func NewXLSDriver() *XLSDriver {
	return &XLSDriver{tracker: newHandleTracker()}
}

// Open implements Driver. The file handle stays open for the life of the
// session because worksheets are parsed from it on first access.
func (d *XLSDriver) Open(ctx context.Context, path string, opts OpenOptions) (Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	wb, err := openBook(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	s := &xlsSession{path: path, book: wb, closer: &onceCloser{c: f}, driver: d}
	d.tracker.add(path, s.closer)
	return s, nil
}

// openBook guards against the parser panicking on malformed input
func openBook(f *os.File) (wb *xls.WorkBook, err error) {
	defer func() {
		if r := recover(); r != nil {
			wb, err = nil, fmt.Errorf("malformed workbook: %v", r)
		}
	}()

	wb, err = xls.OpenReader(f, xlsCharset)
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, errNoWorkbookStream
	}
	return wb, nil
}

// Release implements Driver
func (d *XLSDriver) Release(path string) error {
	return d.tracker.release(path)
}

type xlsSession struct {
	path   string
	book   *xls.WorkBook
	closer *onceCloser
	driver *XLSDriver
}

func (s *xlsSession) SheetNames() []string {
	names := make([]string, 0, s.book.NumSheets())
	for i := 0; i < s.book.NumSheets(); i++ {
		if sheet := s.sheetAt(i); sheet != nil {
			names = append(names, sheet.Name)
		}
	}
	return names
}

func (s *xlsSession) Sheet(name string) (Grid, error) {
	for i := 0; i < s.book.NumSheets(); i++ {
		if sheet := s.sheetAt(i); sheet != nil && sheet.Name == name {
			return &xlsGrid{sheet: sheet}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

// sheetAt parses the sheet on first access; a sheet the parser cannot read is skipped
func (s *xlsSession) sheetAt(i int) (sheet *xls.WorkSheet) {
	defer func() {
		if recover() != nil {
			sheet = nil
		}
	}()
	return s.book.GetSheet(i)
}

func (s *xlsSession) Close() error {
	s.driver.tracker.remove(s.path, s.closer)
	return s.closer.Close()
}

// xlsGrid reads cells from the parsed sheet on demand
type xlsGrid struct {
	sheet *xls.WorkSheet
}

// row returns nil for rows the sheet never stored; the library
// dereferences missing rows instead of reporting them.
func (g *xlsGrid) row(i int) (r *xls.Row) {
	defer func() {
		if recover() != nil {
			r = nil
		}
	}()
	return g.sheet.Row(i)
}

func (g *xlsGrid) at(row, col int) domain.Value {
	if row < 1 || row > g.LastRow() || col < 1 {
		return domain.Empty()
	}
	r := g.row(row - 1)
	if r == nil || col-1 > r.LastCol() {
		return domain.Empty()
	}
	return domain.ParseValue(r.Col(col - 1))
}

func (g *xlsGrid) Cell(row int, col string) domain.Value {
	return g.at(row, ColumnNumber(col))
}

// LastRow is MaxRow + 1 because the library counts rows from zero
func (g *xlsGrid) LastRow() int {
	return int(g.sheet.MaxRow) + 1
}

func (g *xlsGrid) Range(first string, firstRow int, last string, lastRow int) [][]domain.Value {
	return readRange(first, firstRow, last, lastRow, g.at)
}
