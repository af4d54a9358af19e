package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/streck/internal/storage"
)

// openTestManager opens a migrated database in a temp dir and waits for it.
func openTestManager(t *testing.T, reg prometheus.Registerer) (*Manager, *Executor) {
	t.Helper()

	m := Open(Options{
		Path:       filepath.Join(t.TempDir(), "streck.db"),
		Migrate:    true,
		Registerer: reg,
	})
	t.Cleanup(func() { m.Shutdown() })

	exec, err := m.AwaitReady(context.Background())
	require.NoError(t, err)
	return m, exec
}

func createScratch(t *testing.T, exec *Executor) {
	t.Helper()
	_, err := exec.Execute(context.Background(), Stmt(`CREATE TABLE scratch (id INTEGER PRIMARY KEY, v TEXT NOT NULL)`))
	require.NoError(t, err)
}

func countScratch(t *testing.T, exec *Executor) int64 {
	t.Helper()
	n, err := exec.FirstInt(context.Background(), Stmt(`SELECT COUNT(*) FROM scratch`))
	require.NoError(t, err)
	return n
}

func TestExecute(t *testing.T) {
	_, exec := openTestManager(t, nil)
	ctx := context.Background()
	createScratch(t, exec)

	_, err := exec.Execute(ctx, Stmt(`INSERT INTO scratch (id, v) VALUES (?, ?), (?, ?)`, 1, "a", 2, "b"))
	require.NoError(t, err)

	res, err := exec.Execute(ctx, Stmt(`SELECT id, v FROM scratch ORDER BY id`))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "v"}, res.Columns)
	require.Equal(t, 2, res.Len())

	id, err := res.Row(1).Int64("id")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	v, err := res.Row(1).String("v")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	_, err = res.Row(0).Int64("missing")
	assert.ErrorIs(t, err, storage.ErrInvalidState)

	_, err = res.Row(0).Int64("v")
	assert.ErrorIs(t, err, storage.ErrInvalidState)
}

func TestExecuteReportsExecutionError(t *testing.T) {
	_, exec := openTestManager(t, nil)

	_, err := exec.Execute(context.Background(), Stmt(`SELECT * FROM no_such_table`))
	require.ErrorIs(t, err, storage.ErrExecution)

	var execErr *storage.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Statement, "no_such_table")
}

func TestExecuteTransactionReturnsLastRowSet(t *testing.T) {
	_, exec := openTestManager(t, nil)
	createScratch(t, exec)

	res, err := exec.ExecuteTransaction(context.Background(), []Statement{
		Stmt(`INSERT INTO scratch (id, v) VALUES (1, 'a')`),
		Stmt(`SELECT v FROM scratch WHERE id = 1`),
		Stmt(`INSERT INTO scratch (id, v) VALUES (2, 'b')`),
	})
	require.NoError(t, err)

	require.Equal(t, 1, res.Len())
	v, err := res.Row(0).String("v")
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.Equal(t, int64(2), countScratch(t, exec))
}

func TestExecuteTransactionWithoutRowSet(t *testing.T) {
	_, exec := openTestManager(t, nil)
	createScratch(t, exec)

	res, err := exec.ExecuteTransaction(context.Background(), []Statement{
		Stmt(`INSERT INTO scratch (id, v) VALUES (1, 'a')`),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Empty(t, res.Columns)
}

func TestExecuteTransactionRollsBack(t *testing.T) {
	_, exec := openTestManager(t, nil)
	createScratch(t, exec)

	_, err := exec.ExecuteTransaction(context.Background(), []Statement{
		Stmt(`INSERT INTO scratch (id, v) VALUES (1, 'a')`),
		Stmt(`INSERT INTO scratch (id, v) VALUES (2, NULL)`),
		Stmt(`INSERT INTO scratch (id, v) VALUES (3, 'c')`),
	})
	require.ErrorIs(t, err, storage.ErrExecution)

	assert.Equal(t, int64(0), countScratch(t, exec))
}

func TestExecuteTransactionRejectsEmptyList(t *testing.T) {
	m, exec := openTestManager(t, nil)
	require.NoError(t, m.Shutdown())

	// Rejected before the connection is consulted, even after shutdown.
	_, err := exec.ExecuteTransaction(context.Background(), nil)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, err = exec.ExecuteTransaction(context.Background(), []Statement{})
	require.ErrorIs(t, err, storage.ErrInvalidArgument)
}

func TestExecuteTransactionCanceledBeforeStart(t *testing.T) {
	_, exec := openTestManager(t, nil)
	createScratch(t, exec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.ExecuteTransaction(ctx, []Statement{
		Stmt(`INSERT INTO scratch (id, v) VALUES (1, 'a')`),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), countScratch(t, exec))
}

func TestFirstHelpers(t *testing.T) {
	_, exec := openTestManager(t, nil)
	ctx := context.Background()
	createScratch(t, exec)

	b, err := exec.FirstBool(ctx, Stmt(`SELECT 1 = 1`))
	require.NoError(t, err)
	assert.True(t, b)

	n, err := exec.FirstInt(ctx, Stmt(`SELECT 42`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	f, err := exec.FirstFloat(ctx, Stmt(`SELECT 2.5`))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f, 1e-9)

	s, err := exec.FirstString(ctx, Stmt(`SELECT 'streck'`))
	require.NoError(t, err)
	assert.Equal(t, "streck", s)

	tests := []struct {
		name string
		call func() error
	}{
		{"FirstRow", func() error { _, err := exec.FirstRow(ctx, Stmt(`SELECT * FROM scratch`)); return err }},
		{"FirstValue", func() error { _, err := exec.FirstValue(ctx, Stmt(`SELECT v FROM scratch`)); return err }},
		{"FirstBool", func() error { _, err := exec.FirstBool(ctx, Stmt(`SELECT 1 FROM scratch`)); return err }},
		{"FirstInt", func() error { _, err := exec.FirstInt(ctx, Stmt(`SELECT id FROM scratch`)); return err }},
		{"FirstFloat", func() error { _, err := exec.FirstFloat(ctx, Stmt(`SELECT 1.5 FROM scratch`)); return err }},
		{"FirstString", func() error { _, err := exec.FirstString(ctx, Stmt(`SELECT v FROM scratch`)); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name+" on empty result", func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), storage.ErrEmptyResult)
		})
	}
}

func TestDecimalColumns(t *testing.T) {
	_, exec := openTestManager(t, nil)

	row, err := exec.FirstRow(context.Background(), Stmt(`SELECT 15 AS a, 2.5 AS b, '7.25' AS c, NULL AS d`))
	require.NoError(t, err)

	a, err := row.Decimal("a")
	require.NoError(t, err)
	assert.Equal(t, "15", a.String())

	b, err := row.Decimal("b")
	require.NoError(t, err)
	assert.Equal(t, "2.5", b.String())

	c, err := row.Decimal("c")
	require.NoError(t, err)
	assert.Equal(t, "7.25", c.String())

	d, err := row.NullDecimal("d")
	require.NoError(t, err)
	assert.False(t, d.Valid)
}

func TestExecutorMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, exec := openTestManager(t, reg)
	ctx := context.Background()
	createScratch(t, exec)

	_, err := exec.ExecuteTransaction(ctx, []Statement{Stmt(`INSERT INTO scratch (id, v) VALUES (1, 'a')`)})
	require.NoError(t, err)

	_, err = exec.ExecuteTransaction(ctx, []Statement{Stmt(`INSERT INTO scratch (id, v) VALUES (1, 'a')`)})
	require.ErrorIs(t, err, storage.ErrExecution)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.metrics.transactions.WithLabelValues("commit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.metrics.transactions.WithLabelValues("rollback")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.metrics.statements.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.metrics.statements.WithLabelValues("error")))
	assert.Equal(t, float64(StateReady), testutil.ToFloat64(m.metrics.state))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
