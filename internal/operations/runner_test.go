package operations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/errors"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

func TestInProcessRunner(t *testing.T) {
	r, _ := newTestRetrier(t, 3, func(_ context.Context, path string, _ time.Time) (domain.Table, error) {
		return oneRowTable(path), nil
	})

	out := (&InProcessRunner{Retrier: r}).Run(context.Background(), "a.xls", testPeriod)
	require.NoError(t, out.Err)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, "a.xls", out.Table.Cell(0, "Nome").String())
}

func TestWriteWorkerResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkerResult(&buf, Outcome{Attempts: 5, Failures: 5, Err: errors.New("locked")}))

	var res WorkerResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.Equal(t, contracts.DataFormatVersion, res.Format)
	assert.Equal(t, "locked", res.Error)
	assert.Equal(t, 5, res.Failures)
	assert.True(t, res.Table.IsEmpty())
}

func newFakeWorkerRunner(mode string) *SubprocessRunner {
	return &SubprocessRunner{
		Executable: os.Args[0],
		Env:        []string{workerModeEnv + "=" + mode},
	}
}

func TestSubprocessRunner(t *testing.T) {
	t.Run("decodes the worker table", func(t *testing.T) {
		out := newFakeWorkerRunner("ok").Run(context.Background(), "/in/extrato.xls", testPeriod)

		require.NoError(t, out.Err)
		assert.Equal(t, 2, out.Attempts)
		assert.Equal(t, 1, out.Failures)
		require.Equal(t, 1, out.Table.Len())
		assert.Equal(t, "31/01/2024", out.Table.Cell(0, "Período").String())
		assert.Equal(t, "/in/extrato.xls", out.Table.Cell(0, "Nome").String())
	})

	t.Run("exhausted retries in the worker", func(t *testing.T) {
		out := newFakeWorkerRunner("failed").Run(context.Background(), "/in/extrato.xls", testPeriod)

		assert.True(t, out.Table.IsEmpty())
		require.Error(t, out.Err)
		assert.Equal(t, "sheet missing", out.Err.Error())
		assert.Equal(t, 5, out.Attempts)
	})

	t.Run("crashed worker yields an empty table", func(t *testing.T) {
		out := newFakeWorkerRunner("crash").Run(context.Background(), "/in/extrato.xls", testPeriod)

		assert.True(t, out.Table.IsEmpty())
		require.Error(t, out.Err)
		assert.Contains(t, out.Err.Error(), "exited with code 3")
		assert.Equal(t, apperrors.ErrTypeTransientIO, apperrors.TypeOf(out.Err))
	})

	t.Run("unreadable result", func(t *testing.T) {
		out := newFakeWorkerRunner("garbage").Run(context.Background(), "/in/extrato.xls", testPeriod)

		assert.True(t, out.Table.IsEmpty())
		require.Error(t, out.Err)
		assert.Contains(t, out.Err.Error(), "decode worker result")
	})

	t.Run("result from another format version", func(t *testing.T) {
		out := newFakeWorkerRunner("foreign").Run(context.Background(), "/in/extrato.xls", testPeriod)

		assert.True(t, out.Table.IsEmpty())
		require.Error(t, out.Err)
		assert.Contains(t, out.Err.Error(), `result format "v0"`)
	})

	t.Run("missing executable", func(t *testing.T) {
		r := &SubprocessRunner{Executable: "/nonexistent/consolidator"}
		out := r.Run(context.Background(), "/in/extrato.xls", testPeriod)

		assert.True(t, out.Table.IsEmpty())
		assert.Error(t, out.Err)
		assert.Equal(t, 1, out.Failures)
	})
}

func TestNewSubprocessRunner(t *testing.T) {
	r, err := NewSubprocessRunner(nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, r.Executable)
	assert.NotNil(t, r.Logger)
}
