package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the storage layer. Use errors.Is to classify.
var (
	// ErrExecution indicates the store rejected a statement.
	ErrExecution = errors.New("statement execution failed")

	// ErrInvalidArgument indicates a caller contract violation detected before any I/O.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyResult indicates a single-row or single-value query returned nothing.
	ErrEmptyResult = errors.New("query returned no rows")

	// ErrNotReady indicates the connection is not (or no longer) ready for queries.
	ErrNotReady = errors.New("database not ready")

	// ErrMissingTables indicates schema validation found required tables missing.
	ErrMissingTables = errors.New("database is missing tables")

	// ErrInvalidState indicates a row shape that cannot be reconstructed,
	// i.e. a defect in an upstream query or in the data.
	ErrInvalidState = errors.New("invalid state")

	// ErrItemPurchased indicates an item with purchase history cannot be deleted.
	ErrItemPurchased = errors.New("item has been purchased and cannot be deleted")
)

// ExecutionError wraps an error reported by the store for one statement.
type ExecutionError struct {
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %q: %v", compact(e.Statement), e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// MissingTablesError lists the required tables absent from the store.
type MissingTablesError struct {
	Missing []string
}

func (e *MissingTablesError) Error() string {
	return fmt.Sprintf("database is missing tables: %s", strings.Join(e.Missing, ", "))
}

func (e *MissingTablesError) Is(target error) bool { return target == ErrMissingTables }

// compact collapses whitespace so multi-line statements log on one line.
func compact(statement string) string {
	return strings.Join(strings.Fields(statement), " ")
}
