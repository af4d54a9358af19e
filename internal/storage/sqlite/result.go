package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/streck/internal/storage"
)

// Result holds every row a statement produced. Values are the driver's raw
// types: int64, float64, string, []byte or nil.
type Result struct {
	Columns []string
	Rows    [][]any

	index map[string]int
}

func newResult(columns []string) *Result {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Result{Columns: columns, index: index}
}

// Len returns the number of rows.
func (r *Result) Len() int {
	return len(r.Rows)
}

// Row returns the i-th row.
func (r *Result) Row(i int) Row {
	return Row{result: r, values: r.Rows[i]}
}

// Row is one result row with typed accessors by column name. A missing
// column or a value of the wrong type is reported as storage.ErrInvalidState.
type Row struct {
	result *Result
	values []any
}

// Value returns the raw value of column.
func (r Row) Value(column string) (any, error) {
	i, ok := r.result.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: no column %q", storage.ErrInvalidState, column)
	}
	return r.values[i], nil
}

func (r Row) Int64(column string) (int64, error) {
	v, err := r.Value(column)
	if err != nil {
		return 0, err
	}
	return asInt64(column, v)
}

func (r Row) NullInt64(column string) (sql.NullInt64, error) {
	v, err := r.Value(column)
	if err != nil || v == nil {
		return sql.NullInt64{}, err
	}
	n, err := asInt64(column, v)
	return sql.NullInt64{Int64: n, Valid: err == nil}, err
}

func (r Row) String(column string) (string, error) {
	v, err := r.Value(column)
	if err != nil {
		return "", err
	}
	return asString(column, v)
}

func (r Row) NullString(column string) (sql.NullString, error) {
	v, err := r.Value(column)
	if err != nil || v == nil {
		return sql.NullString{}, err
	}
	s, err := asString(column, v)
	return sql.NullString{String: s, Valid: err == nil}, err
}

func (r Row) Bool(column string) (bool, error) {
	v, err := r.Value(column)
	if err != nil {
		return false, err
	}
	return asBool(column, v)
}

func (r Row) Decimal(column string) (decimal.Decimal, error) {
	v, err := r.Value(column)
	if err != nil {
		return decimal.Zero, err
	}
	return asDecimal(column, v)
}

func (r Row) NullDecimal(column string) (decimal.NullDecimal, error) {
	v, err := r.Value(column)
	if err != nil || v == nil {
		return decimal.NullDecimal{}, err
	}
	d, err := asDecimal(column, v)
	return decimal.NullDecimal{Decimal: d, Valid: err == nil}, err
}

func asInt64(column string, v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		if n == float64(int64(n)) {
			return int64(n), nil
		}
	}
	return 0, typeError(column, "integer", v)
}

func asFloat64(column string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	}
	return 0, typeError(column, "float", v)
}

func asString(column string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", typeError(column, "text", v)
}

func asBool(column string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	}
	return false, typeError(column, "boolean", v)
}

func asDecimal(column string, v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: column %q: %w", storage.ErrInvalidState, column, err)
		}
		return d, nil
	case []byte:
		return asDecimal(column, string(n))
	}
	return decimal.Zero, typeError(column, "numeric", v)
}

func typeError(column, want string, v any) error {
	return fmt.Errorf("%w: column %q holds %T, want %s", storage.ErrInvalidState, column, v, want)
}
