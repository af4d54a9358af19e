package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/streck/internal/storage"
)

// Statement is one parameterized SQL statement.
type Statement struct {
	Query string
	Args  []any
}

// Stmt builds a Statement.
func Stmt(query string, args ...any) Statement {
	return Statement{Query: query, Args: args}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Executor runs statements on the connection owned by a Manager. It is only
// handed out once the Manager is ready and stops working after Shutdown.
type Executor struct {
	manager *Manager
	metrics *metrics
	logger  *slog.Logger
}

// Execute runs a single statement and returns all rows it produced.
func (e *Executor) Execute(ctx context.Context, st Statement) (*Result, error) {
	db, err := e.manager.conn()
	if err != nil {
		return nil, err
	}
	return e.run(ctx, db, st)
}

// ExecuteTransaction runs statements in order inside one transaction and
// returns the rows of the last statement that produced a row set.
//
// An empty list is rejected before touching the database. The context is only
// checked before BEGIN: once the first statement is issued the transaction
// runs to COMMIT, or to ROLLBACK on the first failing statement.
func (e *Executor) ExecuteTransaction(ctx context.Context, statements []Statement) (*Result, error) {
	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: transaction has no statements", storage.ErrInvalidArgument)
	}

	db, err := e.manager.conn()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &storage.ExecutionError{Statement: "BEGIN", Err: err}
	}

	last := newResult(nil)
	for _, st := range statements {
		res, err := e.run(ctx, tx, st)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				e.logger.Error("Failed to roll back transaction", "error", rbErr)
			}
			e.metrics.observeTransaction(false)
			return nil, err
		}
		if len(res.Columns) > 0 {
			last = res
		}
	}

	if err := tx.Commit(); err != nil {
		e.metrics.observeTransaction(false)
		return nil, &storage.ExecutionError{Statement: "COMMIT", Err: err}
	}
	e.metrics.observeTransaction(true)

	return last, nil
}

// FirstRow returns the first row of the statement's result.
func (e *Executor) FirstRow(ctx context.Context, st Statement) (Row, error) {
	res, err := e.Execute(ctx, st)
	if err != nil {
		return Row{}, err
	}
	if res.Len() == 0 {
		return Row{}, storage.ErrEmptyResult
	}
	return res.Row(0), nil
}

// firstColumn names the value in FirstX type errors.
const firstColumn = "first column"

// FirstValue returns the first column of the first row.
func (e *Executor) FirstValue(ctx context.Context, st Statement) (any, error) {
	res, err := e.Execute(ctx, st)
	if err != nil {
		return nil, err
	}
	if res.Len() == 0 || len(res.Columns) == 0 {
		return nil, storage.ErrEmptyResult
	}
	return res.Rows[0][0], nil
}

func (e *Executor) FirstBool(ctx context.Context, st Statement) (bool, error) {
	v, err := e.FirstValue(ctx, st)
	if err != nil {
		return false, err
	}
	return asBool(firstColumn, v)
}

func (e *Executor) FirstInt(ctx context.Context, st Statement) (int64, error) {
	v, err := e.FirstValue(ctx, st)
	if err != nil {
		return 0, err
	}
	return asInt64(firstColumn, v)
}

func (e *Executor) FirstFloat(ctx context.Context, st Statement) (float64, error) {
	v, err := e.FirstValue(ctx, st)
	if err != nil {
		return 0, err
	}
	return asFloat64(firstColumn, v)
}

func (e *Executor) FirstString(ctx context.Context, st Statement) (string, error) {
	v, err := e.FirstValue(ctx, st)
	if err != nil {
		return "", err
	}
	return asString(firstColumn, v)
}

func (e *Executor) run(ctx context.Context, q querier, st Statement) (*Result, error) {
	start := time.Now()
	res, err := query(ctx, q, st)
	e.metrics.observeStatement(start, err)
	return res, err
}

// query runs st and reads every row. Rows are closed before returning so the
// next statement of a transaction can reuse the connection.
func query(ctx context.Context, q querier, st Statement) (*Result, error) {
	rows, err := q.QueryContext(ctx, st.Query, st.Args...)
	if err != nil {
		return nil, &storage.ExecutionError{Statement: st.Query, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &storage.ExecutionError{Statement: st.Query, Err: err}
	}

	res := newResult(columns)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &storage.ExecutionError{Statement: st.Query, Err: err}
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.ExecutionError{Statement: st.Query, Err: err}
	}

	return res, nil
}
