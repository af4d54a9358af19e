// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
//
// All access goes through a Manager: operations wait for it to become ready,
// then run on its Executor. Composite writes are flat statement lists run by
// ExecuteTransaction, ending in a read-back SELECT of the written record.
package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/streck/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	manager *Manager
	now     func() time.Time
}

// New starts a Manager with opts and returns a store backed by it.
// The store is usable immediately; operations block until the database is ready.
func New(opts Options) *SQLiteStore {
	return NewWithManager(Open(opts))
}

// NewWithManager returns a store backed by an existing Manager.
func NewWithManager(m *Manager) *SQLiteStore {
	return &SQLiteStore{manager: m, now: time.Now}
}

// Manager returns the lifecycle manager backing the store.
func (s *SQLiteStore) Manager() *Manager {
	return s.manager
}

// Close shuts the manager down.
func (s *SQLiteStore) Close() error {
	return s.manager.Shutdown()
}

func (s *SQLiteStore) executor(ctx context.Context) (*Executor, error) {
	return s.manager.AwaitReady(ctx)
}

// exists runs a SELECT EXISTS(...) statement.
func (s *SQLiteStore) exists(ctx context.Context, st Statement) (bool, error) {
	exec, err := s.executor(ctx)
	if err != nil {
		return false, err
	}
	return exec.FirstBool(ctx, st)
}

// parseExternalID validates a UUID identity and returns its canonical form.
func parseExternalID(name, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %s %q is not a UUID: %w", storage.ErrInvalidArgument, name, id, err)
	}
	return parsed.String(), nil
}

// nullComment maps comments too short to carry meaning to NULL.
func nullComment(comment string) any {
	comment = strings.TrimSpace(comment)
	if len([]rune(comment)) <= 1 {
		return nil
	}
	return comment
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
