package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
)

// UnicodeLower is a SQL function that lowercases like strings.ToLower.
// The built-in lower() only folds ASCII.
const UnicodeLower = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(UnicodeLower, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// SQLite is the embedded store used for single-node deployments and tests.
// Timestamps are stored as unix nanoseconds.
type SQLite struct {
	conn    *sql.DB
	timeout time.Duration
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    INTEGER NOT NULL,
		updated_at    INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS snippets (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		code        TEXT NOT NULL,
		visibility  TEXT NOT NULL DEFAULT 'public' CHECK (visibility IN ('public', 'private')),
		creator_id  TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_snippets_visibility_created ON snippets (visibility, created_at);`,
}

// OpenSQLite opens (creating when needed) the database behind a
// "sqlite:<path>" or "file:<path>" url and applies the schema.
func OpenSQLite(ctx context.Context, databaseURL string, timeout time.Duration) (*SQLite, error) {
	dsn := strings.TrimPrefix(strings.TrimSpace(databaseURL), "sqlite:")
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// one writer; pragmas below are per connection
	conn.SetMaxOpenConns(1)

	s := &SQLite{conn: conn, timeout: timeout}
	if err := s.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	for i, stmt := range sqliteSchema {
		if _, err := s.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

func (s *SQLite) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *SQLite) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	ctx, span, op := startDBSpan(ctx, systemSQLite, query)
	res, err := s.conn.ExecContext(ctx, query, args...)
	recordDBTelemetry(ctx, span, systemSQLite, op, err, time.Since(start))
	return res, err
}

// Query records telemetry once the statement returns; row iteration is not
// included in the measured time.
func (s *SQLite) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	ctx, span, op := startDBSpan(ctx, systemSQLite, query)
	rows, err := s.conn.QueryContext(ctx, query, args...)
	recordDBTelemetry(ctx, span, systemSQLite, op, err, time.Since(start))
	return rows, err
}

func (s *SQLite) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	ctx, span, op := startDBSpan(ctx, systemSQLite, query)
	row := s.conn.QueryRowContext(ctx, query, args...)
	recErr := row.Err()
	if recErr == sql.ErrNoRows {
		recErr = nil
	}
	recordDBTelemetry(ctx, span, systemSQLite, op, recErr, time.Since(start))
	return row
}

func (s *SQLite) Ping(ctx context.Context) error {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()
	return s.conn.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}
