package dataprocessing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
	apperrors "github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/errors"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/shared/testutil"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/workbook"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// fakeDriver serves in-memory sheets and records the session lifecycle
type fakeDriver struct {
	sheets   map[string][][]any
	openErr  error
	opened   int
	closed   int
	released []string
}

func (d *fakeDriver) Open(_ context.Context, _ string, opts workbook.OpenOptions) (workbook.Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opened++
	return &fakeSession{driver: d}, nil
}

func (d *fakeDriver) Release(path string) error {
	d.released = append(d.released, path)
	return nil
}

type fakeSession struct {
	driver *fakeDriver
}

func (s *fakeSession) SheetNames() []string {
	names := make([]string, 0, len(s.driver.sheets))
	for name := range s.driver.sheets {
		names = append(names, name)
	}
	return names
}

func (s *fakeSession) Sheet(name string) (workbook.Grid, error) {
	rows, ok := s.driver.sheets[name]
	if !ok {
		return nil, workbook.ErrSheetNotFound
	}
	return workbook.NewMemoryGrid(rows), nil
}

func (s *fakeSession) Close() error {
	s.driver.closed++
	return nil
}

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}

func newTestExtractor(driver workbook.Driver, slept *[]time.Duration) *Extractor {
	ex := NewExtractor(config.Default().Extraction, driver, nil)
	ex.Sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return ex
}

var testPeriod = time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

func TestExtract_BothSections(t *testing.T) {
	driver := &fakeDriver{sheets: map[string][][]any{"Sheet0": testutil.DefaultReport().Rows()}}
	var slept []time.Duration
	path := touch(t, "extrato.xls")

	table, err := newTestExtractor(driver, &slept).Extract(context.Background(), path, testPeriod)
	require.NoError(t, err)

	assert.Equal(t, CanonicalColumns(), table.Columns)
	require.Equal(t, 3, table.Len())

	assert.Equal(t, "Aplicações", table.Cell(0, ColumnKind).String())
	assert.Equal(t, "Aplicações", table.Cell(1, ColumnKind).String())
	assert.Equal(t, "Resgates", table.Cell(2, ColumnKind).String())

	assert.Equal(t, "02/01/2024", table.Cell(0, "Data de Emissão").String())
	assert.Equal(t, "1000.5", table.Cell(0, "Valor Principal").String())
	assert.Equal(t, "10/12/2023", table.Cell(2, "Data de Emissão").String())

	for i := 0; i < table.Len(); i++ {
		assert.Equal(t, "31/01/2024", table.Cell(i, ColumnPeriod).String())
		assert.Equal(t, "1234", table.Cell(i, ColumnAgency).String())
		assert.Equal(t, "5678-9", table.Cell(i, ColumnAccount).String())
		assert.Equal(t, "Acme Corp", table.Cell(i, ColumnCompany).String())
		assert.Equal(t, "12.345.678/0001-00", table.Cell(i, ColumnTaxID).String())
		assert.True(t, table.Cell(i, ColumnCertificate).IsEmpty())
	}

	assert.Equal(t, 1, driver.opened)
	assert.Equal(t, 1, driver.closed)
	assert.Equal(t, []string{path}, driver.released)
	assert.Equal(t, []time.Duration{time.Second}, slept)
}

func TestExtract_NoSections(t *testing.T) {
	fixture := testutil.DefaultReport()
	fixture.Applications = nil
	fixture.Redemptions = nil
	driver := &fakeDriver{sheets: map[string][][]any{"Sheet0": fixture.Rows()}}
	var slept []time.Duration

	table, err := newTestExtractor(driver, &slept).Extract(context.Background(), touch(t, "a.xls"), testPeriod)
	require.NoError(t, err)
	assert.True(t, table.IsEmpty())
	assert.Equal(t, 1, driver.closed)
}

func TestExtract_OneSection(t *testing.T) {
	fixture := testutil.DefaultReport()
	fixture.Applications = nil
	driver := &fakeDriver{sheets: map[string][][]any{"Sheet0": fixture.Rows()}}
	var slept []time.Duration

	table, err := newTestExtractor(driver, &slept).Extract(context.Background(), touch(t, "a.xls"), testPeriod)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Resgates", table.Cell(0, ColumnKind).String())
}

func TestExtract_EmptySectionsAreDropped(t *testing.T) {
	fixture := testutil.DefaultReport()
	fixture.Applications = [][]any{}
	driver := &fakeDriver{sheets: map[string][][]any{"Sheet0": fixture.Rows()}}
	var slept []time.Duration

	table, err := newTestExtractor(driver, &slept).Extract(context.Background(), touch(t, "a.xls"), testPeriod)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Resgates", table.Cell(0, ColumnKind).String())
}

func TestExtract_MissingIdentityUsesFallbacks(t *testing.T) {
	fixture := testutil.DefaultReport()
	fixture.Account = "sem conta"
	fixture.Company = ""
	driver := &fakeDriver{sheets: map[string][][]any{"Sheet0": fixture.Rows()}}
	var slept []time.Duration

	table, err := newTestExtractor(driver, &slept).Extract(context.Background(), touch(t, "a.xls"), testPeriod)
	require.NoError(t, err)
	require.False(t, table.IsEmpty())
	assert.Equal(t, AgencyNotFound, table.Cell(0, ColumnAgency).String())
	assert.Equal(t, AccountNotFound, table.Cell(0, ColumnAccount).String())
	assert.Equal(t, CompanyNotFound, table.Cell(0, ColumnCompany).String())
	assert.Equal(t, TaxIDNotFound, table.Cell(0, ColumnTaxID).String())
}

func TestExtract_Failures(t *testing.T) {
	report := map[string][][]any{"Sheet0": testutil.DefaultReport().Rows()}

	tests := []struct {
		name     string
		path     func(t *testing.T) string
		driver   *fakeDriver
		wantErr  error
		wantType apperrors.ErrorType
	}{
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.xls") },
			driver:   &fakeDriver{sheets: report},
			wantErr:  ErrFileNotFound,
			wantType: apperrors.ErrTypeInvalidInput,
		},
		{
			name:     "wrong extension",
			path:     func(t *testing.T) string { return touch(t, "a.xlsx") },
			driver:   &fakeDriver{sheets: report},
			wantErr:  ErrInvalidFormat,
			wantType: apperrors.ErrTypeInvalidInput,
		},
		{
			name:     "missing worksheet",
			path:     func(t *testing.T) string { return touch(t, "a.xls") },
			driver:   &fakeDriver{sheets: map[string][][]any{"Plan1": nil}},
			wantErr:  ErrSheetNotFound,
			wantType: apperrors.ErrTypeInvalidInput,
		},
		{
			name: "section without header row",
			path: func(t *testing.T) string { return touch(t, "a.xls") },
			driver: &fakeDriver{sheets: map[string][][]any{"Sheet0": {
				{"Aplicações"}, {"d1"}, {"Total"},
			}}},
			wantErr:  ErrRowNotFound,
			wantType: apperrors.ErrTypeNotFound,
		},
		{
			name:     "open failure",
			path:     func(t *testing.T) string { return touch(t, "a.xls") },
			driver:   &fakeDriver{openErr: errors.New("file locked")},
			wantType: apperrors.ErrTypeTransientIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slept []time.Duration
			path := tt.path(t)

			table, err := newTestExtractor(tt.driver, &slept).Extract(context.Background(), path, testPeriod)
			require.Error(t, err)
			assert.True(t, table.IsEmpty())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))

			assert.Equal(t, []string{path}, tt.driver.released, "document must be released on failure")
			assert.Equal(t, tt.driver.opened, tt.driver.closed)
			assert.Equal(t, []time.Duration{time.Second}, slept, "cooldown must run on failure")
		})
	}
}

func TestExtract_UppercaseExtension(t *testing.T) {
	driver := &fakeDriver{sheets: map[string][][]any{"Sheet0": testutil.DefaultReport().Rows()}}
	var slept []time.Duration

	table, err := newTestExtractor(driver, &slept).Extract(context.Background(), touch(t, "EXTRATO.XLS"), testPeriod)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestExtract_XLSXWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extrato.xlsx")
	testutil.WriteXLSX(t, path, "Sheet0", testutil.DefaultReport().Rows())

	cfg := config.Default().Extraction
	cfg.Extension = ".xlsx"
	cfg.Cooldown = 0
	ex := NewExtractor(cfg, workbook.NewXLSXDriver(), nil)

	table, err := ex.Extract(context.Background(), path, testPeriod)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, "Acme Corp", table.Cell(0, ColumnCompany).String())
	assert.Equal(t, "250", table.Cell(1, "Valor Principal").String())
	assert.Equal(t, domain.ValueNumber, table.Cell(1, "Valor Principal").Kind)
	assert.Equal(t, "100% CDI", table.Cell(2, "Taxa/ PCT").String())
}

func TestExtract_XLSWorkbook(t *testing.T) {
	path := filepath.Join("..", "workbook", "testdata", "Table.xls")

	cfg := config.Default().Extraction
	cfg.Cooldown = 0

	t.Run("sheet without sections", func(t *testing.T) {
		cfg := cfg
		cfg.SheetName = "Table"
		table, err := NewExtractor(cfg, workbook.NewXLSDriver(), nil).Extract(context.Background(), path, testPeriod)
		require.NoError(t, err)
		assert.True(t, table.IsEmpty())
	})

	t.Run("missing worksheet", func(t *testing.T) {
		_, err := NewExtractor(cfg, workbook.NewXLSDriver(), nil).Extract(context.Background(), path, testPeriod)
		assert.ErrorIs(t, err, ErrSheetNotFound)
		assert.Equal(t, apperrors.ErrTypeInvalidInput, apperrors.TypeOf(err))
	})
}
