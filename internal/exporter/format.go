package exporter

import (
	"fmt"
	"log/slog"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// TableWriter persists a batch table
type TableWriter interface {
	Write(path string, table domain.Table) error
}

// NewTableWriter returns the writer for an output format
func NewTableWriter(format string, logger *slog.Logger) (TableWriter, error) {
	switch format {
	case config.FormatXLSX:
		return NewXLSXWriter(logger), nil
	case config.FormatCSV:
		return NewCSVWriter(logger), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// textRecord renders a row as exactly width strings
func textRecord(row []domain.Value, width int) []string {
	record := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		record[i] = row[i].String()
	}
	return record
}

// cellValue converts a cell for a typed spreadsheet writer: numbers stay
// numeric, empty cells stay blank.
func cellValue(v domain.Value) any {
	switch v.Kind {
	case domain.ValueNumber:
		return v.Number.InexactFloat64()
	case domain.ValueText:
		return v.Text
	default:
		return nil
	}
}
