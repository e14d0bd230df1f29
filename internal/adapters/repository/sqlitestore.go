package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/burns-20/bwrank/pkg/logger"
	"github.com/burns-20/bwrank/pkg/metrics"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	date     TEXT    NOT NULL,
	server   TEXT    NOT NULL,
	position INTEGER NOT NULL,
	name     TEXT    NOT NULL,
	race     TEXT    NOT NULL,
	points   INTEGER NOT NULL,
	UNIQUE (date, server, name)
);
CREATE INDEX IF NOT EXISTS observations_date ON observations (date);
`

// SQLiteStore mirrors the history in a SQLite database. Rows keep their raw
// labels; translation happens on load as for the file backend. Appending an
// already stored (date, server, name) is ignored.
type SQLiteStore struct {
	sqlDB  *sql.DB
	opts   options
	closed atomic.Bool
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens the database at path and creates the schema.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, opts: newOptions(opts)}, nil
}

// Close releases the underlying SQLite connection. Later calls return
// ErrStoreClosed; closing twice is a no-op.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) unusable() bool {
	return s == nil || s.sqlDB == nil || s.closed.Load()
}

// LoadAll returns every row in insertion order.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]model.Observation, error) {
	if s.unusable() {
		return nil, ErrStoreClosed
	}
	start := time.Now()
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT date, server, position, name, race, points FROM observations ORDER BY seq`)
	if err != nil {
		metrics.RecordHistoryLoadFailure(BackendSQLite, "query")
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	tr := s.opts.translator
	out := make([]model.Observation, 0)
	for rows.Next() {
		var o model.Observation
		if err := rows.Scan(&o.Date, &o.Server, &o.Position, &o.Name, &o.Race, &o.Points); err != nil {
			metrics.RecordHistoryLoadFailure(BackendSQLite, "scan")
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.ServerName = tr.Server(o.Server)
		o.Race = tr.Race(o.Race)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordHistoryLoadFailure(BackendSQLite, "query")
		return nil, fmt.Errorf("iterate observations: %w", err)
	}

	metrics.RecordHistoryLoadDuration(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// Append inserts obs in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, obs ...model.Observation) error {
	_, err := s.insert(ctx, obs)
	return err
}

func (s *SQLiteStore) insert(ctx context.Context, obs []model.Observation) (int, error) {
	if s.unusable() {
		return 0, ErrStoreClosed
	}
	if len(obs) == 0 {
		return 0, nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordHistoryAppendFailure(BackendSQLite)
		return 0, fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO observations (date, server, position, name, race, points) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		metrics.RecordHistoryAppendFailure(BackendSQLite)
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, o := range obs {
		res, err := stmt.ExecContext(ctx, o.Date, o.Server, o.Position, o.Name, o.Race, o.Points)
		if err != nil {
			_ = tx.Rollback()
			metrics.RecordHistoryAppendFailure(BackendSQLite)
			return 0, fmt.Errorf("insert observation: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordHistoryAppendFailure(BackendSQLite)
		return 0, fmt.Errorf("commit: %w", err)
	}
	metrics.RecordHistoryAppend(BackendSQLite, inserted)
	return inserted, nil
}

// Count returns the number of stored rows.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if s.unusable() {
		return 0, ErrStoreClosed
	}
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

// Mirror copies every row of src into s and returns how many were new.
// A missing src is an empty history.
func (s *SQLiteStore) Mirror(ctx context.Context, src Store) (int, error) {
	obs, err := src.LoadAll(ctx)
	if err != nil && !errors.Is(err, ErrHistoryNotFound) {
		return 0, fmt.Errorf("load source history: %w", err)
	}
	n, err := s.insert(ctx, obs)
	if err != nil {
		return 0, err
	}
	s.opts.logger.Info(ctx, "history mirrored",
		logger.Int("source_rows", len(obs)),
		logger.Int("inserted", n),
	)
	return n, nil
}
