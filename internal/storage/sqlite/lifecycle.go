package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/streck/internal/storage"
)

// State is the connection lifecycle state of a Manager.
type State int

const (
	StateConnecting State = iota
	StateValidating
	StateReady
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateValidating:
		return "validating"
	case StateReady:
		return "ready"
	case StateInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a Manager.
type Options struct {
	// Path is the SQLite database file. Parent directories are created.
	Path string

	// MaxOpenConns bounds the pool. Every transaction holds its own
	// connection, so 1 queues all work behind the running statement.
	MaxOpenConns int

	BusyTimeout    time.Duration
	ConnectTimeout time.Duration

	// Migrate creates missing tables and views before validation.
	Migrate bool

	// RequiredTables overrides the names checked during validation.
	RequiredTables []string

	Logger     *slog.Logger
	Registerer prometheus.Registerer
}

func (o Options) withDefaults() Options {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 1
	}
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = 5 * time.Second
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.RequiredTables == nil {
		o.RequiredTables = RequiredTables
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) dsn() string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		o.Path, o.BusyTimeout.Milliseconds())
}

// Manager owns the database connection and drives it from Connecting through
// Validating to Ready, or to Invalid. Ready and Invalid are terminal; nothing
// is retried.
type Manager struct {
	opts    Options
	logger  *slog.Logger
	metrics *metrics

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    State
	db       *sql.DB
	err      error
	shutdown bool

	shutdownOnce sync.Once
	shutdownErr  error

	executor *Executor
}

// Open starts connecting in the background and returns immediately.
// Callers obtain the Executor through AwaitReady.
func Open(opts Options) *Manager {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		opts:    opts,
		logger:  opts.Logger,
		metrics: newMetrics(opts.Registerer),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   StateConnecting,
	}
	m.executor = &Executor{manager: m, metrics: m.metrics, logger: m.logger}
	m.metrics.state.Set(float64(StateConnecting))

	go m.connect()
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done is closed once the Manager reaches Ready or Invalid.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// AwaitReady blocks until the Manager leaves Connecting and Validating, then
// returns the Executor. Every caller observes the same outcome. An Invalid
// Manager returns an error matching storage.ErrNotReady and the cause, e.g.
// storage.ErrMissingTables.
func (m *Manager) AwaitReady(ctx context.Context) (*Executor, error) {
	select {
	case <-m.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return nil, fmt.Errorf("%w: connection shut down", storage.ErrNotReady)
	}
	if m.state != StateReady {
		return nil, fmt.Errorf("%w: %w", storage.ErrNotReady, m.err)
	}
	return m.executor, nil
}

// Shutdown stops a pending connect and closes the connection.
// Safe to call more than once.
func (m *Manager) Shutdown() error {
	m.shutdownOnce.Do(func() {
		m.mu.Lock()
		m.shutdown = true
		m.mu.Unlock()

		m.cancel()
		<-m.done

		m.mu.Lock()
		db := m.db
		m.db = nil
		m.mu.Unlock()

		if db != nil {
			if err := db.Close(); err != nil {
				m.shutdownErr = fmt.Errorf("failed to close database: %w", err)
				return
			}
		}
		m.logger.Info("Database connection closed", "path", m.opts.Path)
	})
	return m.shutdownErr
}

// conn returns the live pool, or ErrNotReady before Ready and after Shutdown.
func (m *Manager) conn() (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return nil, fmt.Errorf("%w: connection shut down", storage.ErrNotReady)
	}
	if m.state != StateReady {
		return nil, fmt.Errorf("%w: connection is %s", storage.ErrNotReady, m.state)
	}
	return m.db, nil
}

func (m *Manager) connect() {
	defer close(m.done)

	db, err := m.open()
	if err != nil {
		m.fail(err, "connect failed")
		return
	}
	m.transition(StateValidating, "connection established")

	if m.opts.Migrate {
		if err := runMigrations(m.ctx, db); err != nil {
			db.Close()
			m.fail(fmt.Errorf("failed to run migrations: %w", err), "migrations failed")
			return
		}
	}

	if err := validateSchema(m.ctx, db, m.opts.RequiredTables); err != nil {
		db.Close()
		m.fail(err, "schema validation failed")
		return
	}

	m.mu.Lock()
	m.db = db
	m.mu.Unlock()
	m.transition(StateReady, "schema validated")
}

func (m *Manager) open() (*sql.DB, error) {
	dir := filepath.Dir(m.opts.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", m.opts.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(m.opts.MaxOpenConns)

	ctx, cancel := context.WithTimeout(m.ctx, m.opts.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func (m *Manager) transition(to State, reason string) {
	m.mu.Lock()
	from := m.state
	m.state = to
	m.mu.Unlock()

	m.metrics.state.Set(float64(to))
	m.logger.Info("Database state changed", "from", from, "to", to, "reason", reason)
}

func (m *Manager) fail(err error, reason string) {
	m.mu.Lock()
	from := m.state
	m.state = StateInvalid
	m.err = err
	m.mu.Unlock()

	m.metrics.state.Set(float64(StateInvalid))
	m.logger.Error("Database state changed", "from", from, "to", StateInvalid, "reason", reason, "error", err)
}
