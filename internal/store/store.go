// Package store persists assets in a single-table SQLite file.
//
// The store holds one long-lived database handle. Every call prepares its
// statement, runs it, and releases the statement and any row cursor before
// returning. Mutations are single statements committed on return; nothing
// spans more than one statement.
package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS assets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    assigned_to TEXT,
    brand TEXT,
    model TEXT,
    serial_number TEXT,
    mac_address TEXT,
    ip_address TEXT,
    warranty_expiration TEXT,
    notes TEXT
)`

var (
	ErrNotFound      = errors.New("asset not found")
	ErrNotConfigured = errors.New("storage is not configured")
	ErrPathRequired  = errors.New("storage path is required")
)

// Observer receives the outcome of every store operation.
type Observer interface {
	ObserveStoreOp(op string, err error, elapsed time.Duration)
}

type Option func(*Store)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// Store provides SQLite-backed persistence for assets.
type Store struct {
	db       *sql.DB
	log      logrus.FieldLogger
	observer Observer
}

// Open opens the SQLite file at path, creating it when absent. Call
// Initialize before use.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	// single local writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}

	s := &Store{db: db, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	s.log.WithField("path", path).Debug("store opened")
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Initialize ensures the assets table exists. It is safe to call on every
// start and leaves an existing table untouched.
func (s *Store) Initialize(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	start := time.Now()
	_, err := s.db.ExecContext(ctx, schema)
	s.observe("initialize", err, start)
	if err != nil {
		return errors.Wrap(err, "create assets table")
	}
	return nil
}

// Execute runs one parameterized INSERT, UPDATE or DELETE and commits it
// before returning.
func (s *Store) Execute(ctx context.Context, statement string, args ...any) error {
	_, err := s.exec(ctx, "execute", statement, args...)
	return err
}

// FetchAll runs one parameterized SELECT and returns every row with columns in
// query order. An empty result is not an error.
func (s *Store) FetchAll(ctx context.Context, query string, args ...any) ([][]any, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	start := time.Now()
	rows, err := s.fetchAll(ctx, query, args...)
	s.observe("fetch_all", err, start)
	return rows, err
}

func (s *Store) fetchAll(ctx context.Context, query string, args ...any) ([][]any, error) {
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "prepare query")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(err, "run query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "read columns")
	}

	out := [][]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}
	return out, nil
}

func (s *Store) exec(ctx context.Context, op, statement string, args ...any) (sql.Result, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	start := time.Now()
	res, err := s.execStmt(ctx, statement, args...)
	s.observe(op, err, start)
	return res, err
}

func (s *Store) execStmt(ctx context.Context, statement string, args ...any) (sql.Result, error) {
	stmt, err := s.db.PrepareContext(ctx, statement)
	if err != nil {
		return nil, errors.Wrap(err, "prepare statement")
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(err, "execute statement")
	}
	return res, nil
}

func (s *Store) observe(op string, err error, start time.Time) {
	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveStoreOp(op, err, elapsed)
	}
	entry := s.log.WithFields(logrus.Fields{"op": op, "elapsed": elapsed})
	if err != nil {
		entry.WithError(err).Warn("store operation failed")
		return
	}
	entry.Trace("store operation")
}
