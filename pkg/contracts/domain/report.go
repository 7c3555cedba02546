package domain

// Table is an ordered, column-named set of rows. A ReportTable (one file)
// and the BatchTable (one run) are both Tables. An empty Table means
// "nothing extractable" and is a valid result.
type Table struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// IsEmpty reports whether the table has no rows
func (t Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Len returns the number of rows
func (t Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the first column with the given name, or -1
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i for the named column
func (t Table) Cell(i int, column string) Value {
	idx := t.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) || idx >= len(t.Rows[i]) {
		return Empty()
	}
	return t.Rows[i][idx]
}

// Select projects the table onto columns, in that order. Columns that do
// not exist are reported in missing and the projection is not performed.
func (t Table) Select(columns []string) (selected Table, missing []string) {
	indexes := make([]int, len(columns))
	for i, name := range columns {
		indexes[i] = t.ColumnIndex(name)
		if indexes[i] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Table{}, missing
	}

	selected.Columns = append([]string(nil), columns...)
	selected.Rows = make([][]Value, 0, len(t.Rows))
	for _, row := range t.Rows {
		out := make([]Value, len(indexes))
		for i, idx := range indexes {
			if idx < len(row) {
				out[i] = row[idx]
			}
		}
		selected.Rows = append(selected.Rows, out)
	}
	return selected, nil
}

// Concat stacks tables vertically, aligning columns by name. Columns are
// ordered by first appearance; cells a table does not have are left empty.
// Empty tables contribute no rows and no columns.
func Concat(tables ...Table) Table {
	var out Table
	positions := make(map[string]int)
	for _, t := range tables {
		if t.IsEmpty() {
			continue
		}
		for _, c := range t.Columns {
			if _, ok := positions[c]; !ok {
				positions[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		if t.IsEmpty() {
			continue
		}
		for _, row := range t.Rows {
			aligned := make([]Value, len(out.Columns))
			seen := make(map[string]bool, len(t.Columns))
			for i, c := range t.Columns {
				if seen[c] || i >= len(row) {
					continue
				}
				seen[c] = true
				aligned[positions[c]] = row[i]
			}
			out.Rows = append(out.Rows, aligned)
		}
	}
	return out
}
