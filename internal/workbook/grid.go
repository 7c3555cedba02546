package workbook

import (
	"github.com/xuri/excelize/v2"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// Grid is a read-only view of one worksheet. Rows are 1-based and columns
// are addressed by letter. Reads outside the used area return empty values.
type Grid interface {
	Cell(row int, col string) domain.Value
	LastRow() int
	Range(first string, firstRow int, last string, lastRow int) [][]domain.Value
}

// ColumnNumber converts a column letter to its 1-based index.
// Invalid names yield 0.
func ColumnNumber(col string) int {
	n, err := excelize.ColumnNameToNumber(col)
	if err != nil {
		return 0
	}
	return n
}

// ColumnName converts a 1-based column index to its letter
func ColumnName(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return ""
	}
	return name
}

// readRange builds a rectangular block using cell for every position.
// An inverted row or column span yields no rows.
func readRange(first string, firstRow int, last string, lastRow int, cell func(row, col int) domain.Value) [][]domain.Value {
	c1, c2 := ColumnNumber(first), ColumnNumber(last)
	if c1 == 0 || c2 < c1 || firstRow < 1 || lastRow < firstRow {
		return nil
	}

	out := make([][]domain.Value, 0, lastRow-firstRow+1)
	for r := firstRow; r <= lastRow; r++ {
		row := make([]domain.Value, 0, c2-c1+1)
		for c := c1; c <= c2; c++ {
			row = append(row, cell(r, c))
		}
		out = append(out, row)
	}
	return out
}

// MemoryGrid is a Grid held entirely in memory
type MemoryGrid struct {
	rows [][]domain.Value
}

// NewMemoryGrid builds a grid from Go values; see domain.ValueOf for the
// accepted cell types. rows[0] is row 1.
func NewMemoryGrid(rows [][]any) *MemoryGrid {
	values := make([][]domain.Value, len(rows))
	for i, row := range rows {
		values[i] = make([]domain.Value, len(row))
		for j, v := range row {
			values[i][j] = domain.ValueOf(v)
		}
	}
	return &MemoryGrid{rows: values}
}

// NewMemoryGridFromValues wraps already classified values
func NewMemoryGridFromValues(rows [][]domain.Value) *MemoryGrid {
	return &MemoryGrid{rows: rows}
}

// Cell implements Grid
func (g *MemoryGrid) Cell(row int, col string) domain.Value {
	return g.at(row, ColumnNumber(col))
}

func (g *MemoryGrid) at(row, col int) domain.Value {
	if row < 1 || row > len(g.rows) || col < 1 {
		return domain.Empty()
	}
	cells := g.rows[row-1]
	if col > len(cells) {
		return domain.Empty()
	}
	return cells[col-1]
}

// LastRow implements Grid
func (g *MemoryGrid) LastRow() int {
	return len(g.rows)
}

// Range implements Grid
func (g *MemoryGrid) Range(first string, firstRow int, last string, lastRow int) [][]domain.Value {
	return readRange(first, firstRow, last, lastRow, g.at)
}
