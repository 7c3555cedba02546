package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/dataprocessing"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/exporter"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/infrastructure"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/operations"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/shared/testutil"
)

var fixedNow = time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Extraction.Extension = ".xlsx"
	cfg.Extraction.Cooldown = 0
	cfg.Batch.Attempts = 2
	cfg.Batch.Workers = 2
	cfg.Batch.Isolation = config.IsolationInProcess
	cfg.Batch.Period = "31/01/2024"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	paths := config.ResolvePaths(t.TempDir(), cfg.Paths)

	a, err := NewApplication(cfg, paths, logger)
	require.NoError(t, err)
	a.Now = func() time.Time { return fixedNow }
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func writeReport(t *testing.T, a *Application, name string) string {
	t.Helper()
	path := filepath.Join(a.Paths.InputDir, name)
	testutil.WriteXLSX(t, path, a.Config.Extraction.SheetName, testutil.DefaultReport().Rows())
	return path
}

func readOutput(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exporter.SheetName)
	require.NoError(t, err)
	return rows
}

func assertRunLog(t *testing.T, a *Application, messages ...string) {
	t.Helper()
	entries := a.RunLog.Entries()
	require.Len(t, entries, len(messages), "run log: %q", entries)
	for i, msg := range messages {
		assert.True(t, strings.HasSuffix(entries[i], " - "+msg), "entry %d = %q, want suffix %q", i, entries[i], msg)
	}
}

func TestNewApplication_SelectsRunner(t *testing.T) {
	cfg := testConfig()
	a := newTestApp(t, cfg)
	assert.IsType(t, &operations.InProcessRunner{}, a.Runner)

	cfg = testConfig()
	cfg.Batch.Isolation = config.IsolationProcess
	a = newTestApp(t, cfg)
	assert.IsType(t, &operations.SubprocessRunner{}, a.Runner)

	for _, dir := range []string{a.Paths.InputDir, a.Paths.OutputDir, a.Paths.DiagnosticsDir} {
		assert.DirExists(t, dir)
	}
	assert.FileExists(t, a.Paths.RunLogFile)
}

func TestNewApplication_UnknownExtension(t *testing.T) {
	cfg := testConfig()
	cfg.Extraction.Extension = ".ods"

	logger, _ := testutil.NewTestLogger(t)
	_, err := NewApplication(cfg, config.ResolvePaths(t.TempDir(), cfg.Paths), logger)
	require.Error(t, err)
}

func TestConsolidate_NoFiles(t *testing.T) {
	a := newTestApp(t, testConfig())
	require.NoError(t, os.WriteFile(filepath.Join(a.Paths.OutputDir, "old_output.xlsx"), []byte("x"), 0644))

	summary, err := a.Consolidate(context.Background())
	require.NoError(t, err)

	assert.Empty(t, summary.OutputPath)
	assert.Empty(t, summary.Results)
	assertRunLog(t, a, MsgStarting, MsgNoFiles)
	// nothing touched when there is nothing to do
	assert.FileExists(t, filepath.Join(a.Paths.OutputDir, "old_output.xlsx"))
}

func TestConsolidate_Batch(t *testing.T) {
	a := newTestApp(t, testConfig())

	writeReport(t, a, "a.xlsx")
	writeReport(t, a, "b.XLSX")
	require.NoError(t, os.WriteFile(filepath.Join(a.Paths.InputDir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(a.Paths.InputDir, "archive"), 0755))
	stale := filepath.Join(a.Paths.OutputDir, "20240101000000_output.xlsx")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))

	summary, err := a.Consolidate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "31/01/2024", summary.Period)
	assert.Equal(t, 6, summary.Rows)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, "a.xlsx", summary.Results[0].Name())
	assert.Equal(t, infrastructure.OutcomeRows, summary.Results[1].Outcome)
	assert.Len(t, summary.Skipped, 2)

	assert.NoFileExists(t, stale)
	assert.Equal(t, a.Paths.OutputFile(fixedNow, config.FormatXLSX), summary.OutputPath)
	rows := readOutput(t, summary.OutputPath)
	require.Len(t, rows, 7)
	assert.Equal(t, dataprocessing.CanonicalColumns(), rows[0][:len(dataprocessing.CanonicalColumns())])

	// regular files are gone, the directory is left alone
	assert.NoFileExists(t, filepath.Join(a.Paths.InputDir, "a.xlsx"))
	assert.NoFileExists(t, filepath.Join(a.Paths.InputDir, "notes.txt"))
	assert.DirExists(t, filepath.Join(a.Paths.InputDir, "archive"))

	assertRunLog(t, a,
		MsgStarting,
		"'archive' is not a file",
		"file 'notes.txt' is not .xlsx",
		"'a.xlsx' processed successfully",
		"'b.XLSX' processed successfully",
		MsgFinished,
	)

	s := a.Progress.Snapshot()
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 2, s.Done)
	assert.Equal(t, 6, s.Rows)
}

func TestConsolidate_FailuresStillWriteHeader(t *testing.T) {
	a := newTestApp(t, testConfig())
	require.NoError(t, os.WriteFile(filepath.Join(a.Paths.InputDir, "broken.xlsx"), []byte("not a workbook"), 0644))

	summary, err := a.Consolidate(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, infrastructure.OutcomeFailed, summary.Results[0].Outcome)
	assert.Equal(t, 2, summary.Results[0].Attempts)
	assert.Zero(t, summary.Rows)

	rows := readOutput(t, summary.OutputPath)
	require.Len(t, rows, 1)
	assert.Equal(t, dataprocessing.CanonicalColumns(), rows[0])

	diagnostics, err := os.ReadDir(a.Paths.DiagnosticsDir)
	require.NoError(t, err)
	assert.NotEmpty(t, diagnostics)

	entries := a.RunLog.Entries()
	require.Len(t, entries, 3)
	assert.Contains(t, entries[1], "error processing 'broken.xlsx'")
	assert.NoFileExists(t, filepath.Join(a.Paths.InputDir, "broken.xlsx"))
}

func TestConsolidate_CSVOutput(t *testing.T) {
	cfg := testConfig()
	cfg.Output.Format = config.FormatCSV
	a := newTestApp(t, cfg)
	writeReport(t, a, "a.xlsx")

	summary, err := a.Consolidate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ".csv", filepath.Ext(summary.OutputPath))
	data, err := os.ReadFile(summary.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 4)
}

func TestRun_NoFiles(t *testing.T) {
	a := newTestApp(t, testConfig())
	require.NoError(t, a.Run(context.Background()))
	assertRunLog(t, a, MsgStarting, MsgNoFiles)
}

func TestExtractOne(t *testing.T) {
	a := newTestApp(t, testConfig())
	path := writeReport(t, a, "a.xlsx")
	t.Setenv(config.EnvPrefix+"_TRACE_ID", "parent-trace")

	var out bytes.Buffer
	require.NoError(t, a.ExtractOne(context.Background(), path, "31/01/2024", &out))

	var res operations.WorkerResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Empty(t, res.Error)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 3, res.Table.Len())
	assert.Equal(t, "31/01/2024", res.Table.Cell(0, dataprocessing.ColumnPeriod).String())
}

func TestExtractOne_Failures(t *testing.T) {
	a := newTestApp(t, testConfig())

	err := a.ExtractOne(context.Background(), "a.xlsx", "2024-01-31", &bytes.Buffer{})
	require.Error(t, err)

	var out bytes.Buffer
	require.NoError(t, a.ExtractOne(context.Background(), filepath.Join(a.Paths.InputDir, "missing.xlsx"), "31/01/2024", &out))

	var res operations.WorkerResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 2, res.Failures)
	assert.NotEmpty(t, res.Error)
	assert.True(t, res.Table.IsEmpty())
}
