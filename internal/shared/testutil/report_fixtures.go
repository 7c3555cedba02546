package testutil

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// HeaderLabel is the first header cell of a treasury report section
const HeaderLabel = "Dt. Aplicação"

// ReportHeader is the header row the bank exports over columns A..K
var ReportHeader = []any{
	HeaderLabel,
	"Dt. Vencto",
	"Taxa (%)",
	"Vlr Princ. (R$)",
	"Renda Total(R$)",
	"Vlr. IOF (R$)",
	"Vlr. IRRF (R$)",
	"Vlr. Bruto (R$)",
	"Dt. Resgate / Carência",
	"Vlr Líquido(R$)",
	"Renda Bruta Per",
}

// ReportFixture describes a treasury report sheet. A nil section slice omits
// the section entirely; an empty non-nil slice keeps its sentinel and Total.
type ReportFixture struct {
	Account      string
	Company      string
	Applications [][]any
	Redemptions  [][]any
	// NoSectionHeader drops the header row normally repeated after each sentinel
	NoSectionHeader bool
}

// DefaultReport returns a report with two applications and one redemption
func DefaultReport() ReportFixture {
	return ReportFixture{
		Account: "Agência/conta: 1234  5678-9",
		Company: "Empresa/CNPJ: Acme Corp|12.345.678/0001-00",
		Applications: [][]any{
			DataRow("02/01/2024", 1000.5),
			DataRow("15/01/2024", 250),
		},
		Redemptions: [][]any{
			DataRow("10/12/2023", 780.25),
		},
	}
}

// DataRow builds an 11-column data row with the given issue date and principal
func DataRow(issued string, principal float64) []any {
	return []any{
		issued,
		"02/01/2026",
		"100% CDI",
		principal,
		principal * 0.01,
		0.0,
		principal * 0.0015,
		principal * 1.01,
		"",
		principal * 1.0085,
		principal * 0.002,
	}
}

// Rows renders the fixture as sheet rows, starting at row 1
func (f ReportFixture) Rows() [][]any {
	rows := [][]any{
		{"Extrato Consolidado de Renda Fixa"},
		{f.Account},
		{f.Company},
		{},
	}

	section := func(label string, data [][]any) {
		if data == nil {
			return
		}
		rows = append(rows, []any{label})
		if !f.NoSectionHeader {
			rows = append(rows, ReportHeader)
		}
		rows = append(rows, data...)
		rows = append(rows, []any{"Total"}, []any{})
	}

	section("Aplicações", f.Applications)
	section("Resgates / Vencimentos", f.Redemptions)

	if f.NoSectionHeader {
		// header kept somewhere in the sheet so label lookups still succeed
		rows = append(rows, ReportHeader)
	}
	return rows
}

// WriteXLSX stores rows in a new workbook at path under sheet
func WriteXLSX(t *testing.T, path, sheet string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("create sheet: %v", err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("delete default sheet: %v", err)
		}
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("write row %d: %v", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}
