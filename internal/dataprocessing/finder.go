package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/workbook"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// CellRange is one row of cells from firstColumn to lastColumn
type CellRange struct {
	Row   int
	First string
	Last  string
	Cells []domain.Value
}

// Text returns the first cell as text
func (c CellRange) Text() string {
	if len(c.Cells) == 0 {
		return ""
	}
	return c.Cells[0].String()
}

// FindRow returns the first row whose firstColumn cell contains label
func FindRow(grid workbook.Grid, label, firstColumn, lastColumn string) (CellRange, error) {
	last := grid.LastRow()
	for row := 1; row <= last; row++ {
		v := grid.Cell(row, firstColumn)
		if v.IsEmpty() || !strings.Contains(v.String(), label) {
			continue
		}

		var cells []domain.Value
		if block := grid.Range(firstColumn, row, lastColumn, row); len(block) == 1 {
			cells = block[0]
		}
		return CellRange{Row: row, First: firstColumn, Last: lastColumn, Cells: cells}, nil
	}
	return CellRange{}, fmt.Errorf("%w: %q", ErrRowNotFound, label)
}
