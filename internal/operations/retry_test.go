package operations

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/dataprocessing"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/shared/testutil"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/workbook"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

var testPeriod = time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

// stepClock returns a clock advancing one second per reading
func stepClock() func() time.Time {
	now := time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func oneRowTable(name string) domain.Table {
	return domain.Table{
		Columns: []string{"Nome"},
		Rows:    [][]domain.Value{{domain.Text(name)}},
	}
}

func newTestRetrier(t *testing.T, attempts int, extract ExtractorFunc) (*Retrier, *config.Paths) {
	t.Helper()
	paths := config.ResolvePaths(t.TempDir(), config.Default().Paths)
	logger, _ := testutil.NewTestLogger(t)
	r := NewRetrier(extract, attempts, paths, nil, logger)
	r.Now = stepClock()
	return r, paths
}

func diagnostics(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRetrier_AlwaysFailing(t *testing.T) {
	calls := 0
	r, paths := newTestRetrier(t, 5, func(context.Context, string, time.Time) (domain.Table, error) {
		calls++
		return domain.Table{}, pkgerrors.New("workbook is locked")
	})

	out := r.Do(context.Background(), "/in/extrato.xls", testPeriod)

	assert.True(t, out.Table.IsEmpty())
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, out.Attempts)
	assert.Equal(t, 5, out.Failures)
	require.Error(t, out.Err)

	names := diagnostics(t, paths.DiagnosticsDir)
	require.Len(t, names, 5)
	for _, name := range names {
		assert.True(t, strings.HasSuffix(name, "extrato.xls.txt"), name)
	}

	body, err := os.ReadFile(filepath.Join(paths.DiagnosticsDir, names[0]))
	require.NoError(t, err)
	assert.Contains(t, string(body), "workbook is locked")
	assert.Contains(t, string(body), "attempt: 1/5")
	// %+v of a pkg/errors value carries the call stack
	assert.Contains(t, string(body), "TestRetrier_AlwaysFailing")
}

// sleepClock starts at the wall clock and only moves when slept on
type sleepClock struct {
	now time.Time
}

func (c *sleepClock) Now() time.Time { return c.now }

func (c *sleepClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

func TestRetrier_CooldownKeepsDiagnosticsApart(t *testing.T) {
	paths := config.ResolvePaths(t.TempDir(), config.Default().Paths)
	logger, _ := testutil.NewTestLogger(t)
	clock := &sleepClock{now: time.Now()}

	ex := dataprocessing.NewExtractor(config.Default().Extraction, workbook.NewXLSDriver(), logger)
	ex.Sleep = clock.Sleep
	r := NewRetrier(ex, 5, paths, nil, logger)
	r.Now = clock.Now

	wrongFormat := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(wrongFormat, []byte("not a workbook"), 0644))
	missing := filepath.Join(t.TempDir(), "missing.xls")

	for _, path := range []string{missing, wrongFormat} {
		out := r.Do(context.Background(), path, testPeriod)
		require.Error(t, out.Err)
		assert.Equal(t, 5, out.Attempts)
		assert.Equal(t, 5, out.Failures)
	}

	names := diagnostics(t, paths.DiagnosticsDir)
	assert.Len(t, names, 10, "one diagnostic file per failed attempt")
}

func TestRetrier_RecoversAfterFailures(t *testing.T) {
	calls := 0
	r, paths := newTestRetrier(t, 5, func(context.Context, string, time.Time) (domain.Table, error) {
		calls++
		if calls <= 2 {
			return domain.Table{}, errors.New("transient")
		}
		return oneRowTable("Acme"), nil
	})

	table := r.Run(context.Background(), "/in/extrato.xls", testPeriod)

	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 3, calls)
	assert.Len(t, diagnostics(t, paths.DiagnosticsDir), 2)
}

func TestRetrier_EmptyTableIsSuccess(t *testing.T) {
	calls := 0
	r, paths := newTestRetrier(t, 5, func(context.Context, string, time.Time) (domain.Table, error) {
		calls++
		return domain.Table{}, nil
	})

	out := r.Do(context.Background(), "/in/vazio.xls", testPeriod)

	assert.True(t, out.Table.IsEmpty())
	assert.NoError(t, out.Err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, diagnostics(t, paths.DiagnosticsDir))
}

func TestRetrier_PanicBecomesFailure(t *testing.T) {
	r, paths := newTestRetrier(t, 2, func(context.Context, string, time.Time) (domain.Table, error) {
		panic("index out of range")
	})

	out := r.Do(context.Background(), "/in/extrato.xls", testPeriod)

	assert.True(t, out.Table.IsEmpty())
	var panicErr *PanicError
	require.ErrorAs(t, out.Err, &panicErr)
	assert.Equal(t, "index out of range", panicErr.Value)

	names := diagnostics(t, paths.DiagnosticsDir)
	require.Len(t, names, 2)
	body, err := os.ReadFile(filepath.Join(paths.DiagnosticsDir, names[0]))
	require.NoError(t, err)
	assert.Contains(t, string(body), "extraction panicked: index out of range")
	assert.Contains(t, string(body), "goroutine")
}

func TestRetrier_StopsOnCancellation(t *testing.T) {
	t.Run("cancelled before the first attempt", func(t *testing.T) {
		calls := 0
		r, _ := newTestRetrier(t, 5, func(context.Context, string, time.Time) (domain.Table, error) {
			calls++
			return oneRowTable("x"), nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out := r.Do(ctx, "/in/a.xls", testPeriod)
		assert.Equal(t, 0, calls)
		assert.ErrorIs(t, out.Err, context.Canceled)
		assert.True(t, out.Table.IsEmpty())
	})

	t.Run("attempt reports cancellation", func(t *testing.T) {
		calls := 0
		r, paths := newTestRetrier(t, 5, func(context.Context, string, time.Time) (domain.Table, error) {
			calls++
			return domain.Table{}, context.Canceled
		})

		out := r.Do(context.Background(), "/in/a.xls", testPeriod)
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, out.Err, context.Canceled)
		assert.Len(t, diagnostics(t, paths.DiagnosticsDir), 1)
	})
}

func TestRetrier_WithoutPathsWritesNothing(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	r := NewRetrier(ExtractorFunc(func(context.Context, string, time.Time) (domain.Table, error) {
		return domain.Table{}, errors.New("boom")
	}), 3, nil, nil, logger)

	out := r.Do(context.Background(), "/in/a.xls", testPeriod)

	assert.Equal(t, 3, out.Attempts)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "extraction attempt failed")
	testutil.AssertLogContains(t, handler, slog.LevelError, "giving up on report")
}

func TestNewRetrier_DefaultsAttempts(t *testing.T) {
	r := NewRetrier(ExtractorFunc(nil), 0, nil, nil, nil)
	assert.Equal(t, config.DefaultAttempts, r.Attempts)
}
