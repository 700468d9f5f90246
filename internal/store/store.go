package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Startup schema initialization tolerates a co-scheduled store that has not
// accepted connections yet. The retry budget is bounded; exhausting it is
// fatal to the process.
const (
	defaultInitAttempts    = 10
	defaultInitBackoffBase = 500 * time.Millisecond
	defaultInitBackoffCap  = 3 * time.Second
)

// initRetry is the bounded startup retry budget. Request-time operations
// never retry; this applies to Init only.
type initRetry struct {
	attempts    int
	backoffBase time.Duration
	backoffCap  time.Duration
}

// Executor defines the common database operations for both DB and Tx.
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// Recorder receives creation events. The store notifies it exactly once per
// successful create, only after the write has been accepted by the backing
// store. Implemented by the metrics registry.
type Recorder interface {
	UserCreated()
	PostCreated()
}

type nopRecorder struct{}

func (nopRecorder) UserCreated() {}
func (nopRecorder) PostCreated() {}

// Store owns the connection pool and issues all queries against the
// backing store. It is safe for concurrent use.
type Store struct {
	db       *sqlx.DB
	dialect  Dialect
	recorder Recorder
	retry    initRetry
	obs      *observabilityConfig
}

// Open resolves the dialect from the connection string and opens a lazy
// connection pool. No connection is attempted until Init or the first
// query.
func Open(dsn string, opts ...Option) (*Store, error) {
	dialect, driverDSN, err := ResolveDialect(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(dialect.Name(), driverDSN)
	if err != nil {
		return nil, wrapQueryErr("open", err)
	}

	// Each connection to an in-memory SQLite database gets its own
	// database, so the pool must stay at a single connection.
	if dialect == SQLite && strings.Contains(driverDSN, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	s := &Store{
		db:       db,
		dialect:  dialect,
		recorder: nopRecorder{},
		retry: initRetry{
			attempts:    defaultInitAttempts,
			backoffBase: defaultInitBackoffBase,
			backoffCap:  defaultInitBackoffCap,
		},
		obs: defaultObservabilityConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init ensures the users and posts tables exist, retrying with capped
// exponential backoff while the store is unreachable. It must complete
// before the service reports startup, and a returned error means the
// process should abort.
func (s *Store) Init(ctx context.Context) error {
	var err error
	backoff := s.retry.backoffBase
	for attempt := 1; attempt <= s.retry.attempts; attempt++ {
		if err = s.initSchema(ctx); err == nil {
			return nil
		}
		if attempt == s.retry.attempts {
			break
		}
		s.obs.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("schema initialization failed, retrying")

		select {
		case <-ctx.Done():
			return wrapQueryErr("init", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, s.retry.backoffCap)
	}
	return wrapQueryErr("init", err)
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.SchemaStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ping is the lightweight connectivity probe used by the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return wrapQueryErr("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// withTx executes fn within a transaction, rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx Executor) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapQueryErr("begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
