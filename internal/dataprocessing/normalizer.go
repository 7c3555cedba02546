package dataprocessing

import (
	"strings"
	"time"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// Normalize builds the records of one section. header names the columns of
// rows; injected columns follow in fixed order and overwrite a source column
// of the same name. Source names are renamed last.
func Normalize(header []domain.Value, rows [][]domain.Value, kind domain.SectionKind, period time.Time, id domain.Identity) domain.Table {
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h.String())
	}

	records := make([][]domain.Value, len(rows))
	for i, row := range rows {
		record := make([]domain.Value, len(columns))
		copy(record, row)
		records[i] = record
	}

	inject := func(name string, v domain.Value) {
		idx := indexOf(columns, name)
		if idx < 0 {
			columns = append(columns, name)
			idx = len(columns) - 1
			for i := range records {
				records[i] = append(records[i], domain.Empty())
			}
		}
		for i := range records {
			records[i][idx] = v
		}
	}

	inject(ColumnKind, domain.Text(kind.Name))
	inject(ColumnPeriod, domain.Text(period.Format(config.PeriodLayout)))
	inject(ColumnAgency, domain.Text(id.Account.Agency.Value))
	inject(ColumnAccount, domain.Text(id.Account.Account.Value))
	inject(ColumnTaxID, domain.Text(id.Company.TaxID.Value))
	inject(ColumnCompany, domain.Text(id.Company.Company.Value))
	for _, name := range placeholderColumns {
		inject(name, domain.Empty())
	}

	for i, name := range columns {
		columns[i] = CanonicalName(name)
	}

	return domain.Table{Columns: columns, Rows: records}
}

// isSentinelEcho reports a table whose first cell still holds the section
// label, which is what a matched-but-empty section degenerates to.
func isSentinelEcho(t domain.Table, kind domain.SectionKind) bool {
	if t.IsEmpty() || len(t.Rows[0]) == 0 {
		return false
	}
	return strings.Contains(t.Rows[0][0].String(), kind.Label)
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
