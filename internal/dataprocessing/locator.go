package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/workbook"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// HeaderLabel identifies the column header row of the report
const HeaderLabel = "Dt. Aplicação"

// RowRange is a rectangular block of rows. Start > End means the section
// was matched but holds no data rows.
type RowRange struct {
	First string
	Start int
	Last  string
	End   int
}

// Empty reports whether the range contains no rows
func (r RowRange) Empty() bool {
	return r.End < r.Start
}

// Rows returns the number of rows in the range
func (r RowRange) Rows() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

// String renders the range in A1 notation
func (r RowRange) String() string {
	return fmt.Sprintf("%s%d:%s%d", r.First, r.Start, r.Last, r.End)
}

// Locate scans firstColumn once, top to bottom, for kind's start sentinel and
// the first "Total" after it. The returned range holds the rows strictly
// between them; a header row sitting directly under the sentinel is not part
// of the data. Only the first sentinel occurrence is honored.
func Locate(grid workbook.Grid, kind domain.SectionKind, firstColumn, lastColumn string) (RowRange, error) {
	last := grid.LastRow()
	start := 0

	for row := 1; row <= last; row++ {
		text := cellText(grid, row, firstColumn)

		if start == 0 {
			if text != kind.Label {
				continue
			}
			start = row + 1
			if strings.Contains(cellText(grid, start, firstColumn), HeaderLabel) {
				start++
			}
			row = start - 1
			continue
		}

		if text == domain.SectionEndLabel {
			return RowRange{First: firstColumn, Start: start, Last: lastColumn, End: row - 1}, nil
		}
	}

	if start == 0 {
		return RowRange{}, fmt.Errorf("%w: %q", ErrSectionNotFound, kind.Label)
	}
	return RowRange{}, fmt.Errorf("%w: %q has no closing %q", ErrSectionNotFound, kind.Label, domain.SectionEndLabel)
}

// cellText returns the cell as trimmed text
func cellText(grid workbook.Grid, row int, col string) string {
	return strings.TrimSpace(grid.Cell(row, col).String())
}
