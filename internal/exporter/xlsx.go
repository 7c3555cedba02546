package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// SheetName is the worksheet the batch table is written to
const SheetName = "Sheet1"

const columnWidth = 18

// XLSXWriter writes the batch table as a workbook with typed cells
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger.With(slog.String("component", "xlsx_writer"))}
}

// Write stores table at path. An empty table still produces the header row.
func (w *XLSXWriter) Write(path string, table domain.Table) error {
	w.logger.Info("Writing workbook",
		slog.String("file_path", path),
		slog.Int("record_count", table.Len()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	if n := len(table.Columns); n > 0 {
		if err := sw.SetColWidth(1, n, columnWidth); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(table.Columns))
		for j := 0; j < len(values) && j < len(row); j++ {
			values[j] = cellValue(row[j])
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush workbook: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
