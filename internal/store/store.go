// Package store implements the Storage Adapter: a thin,
// pooled wrapper over a relational database exposing two primitives,
// Query and Execute, plus an idempotent migration runner.
//
// Grounded on jra3-linear-fuse's internal/db.Store: database/sql over a
// pure-Go SQL driver (modernc.org/sqlite), with the same
// embed-schema-and-exec-on-open shape.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Config is the fixed connection configuration for the Storage Adapter:
// a struct, not flags, with pool size capped at open time.
type Config struct {
	Path            string
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
}

// Result is the outcome of a mutating Execute call.
type Result struct {
	AffectedRows int64
	InsertID     int64
}

// Store is the pooled, lazily-migrated Storage Adapter.
type Store struct {
	db *sql.DB

	migrateOnce sync.Once
	migrateErr  error
}

// Open opens (creating if missing) the SQLite-backed store at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.MaxOpenConns <= 0 || cfg.MaxOpenConns > 10 {
		cfg.MaxOpenConns = 10
	}

	connStr := "file:" + strings.ReplaceAll(cfg.Path, " ", "%20") + "?_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunMigrations is idempotent schema bring-up. Safe to call repeatedly;
// only the first call does work.
func (s *Store) RunMigrations(ctx context.Context) error {
	s.migrateOnce.Do(func() {
		_, s.migrateErr = s.db.ExecContext(ctx, schemaSQL)
	})
	return s.migrateErr
}

// Query runs a parameterized read and returns each row as a column->value
// map.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Execute runs a parameterized mutation and returns affected-row/insert-id
// metadata.
func (s *Store) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("execute: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, fmt.Errorf("rows affected: %w", err)
	}
	insertID, err := res.LastInsertId()
	if err != nil {
		// Not every statement has a meaningful insert id (e.g. UPDATE); ignore.
		insertID = 0
	}
	return Result{AffectedRows: affected, InsertID: insertID}, nil
}

// DB exposes the underlying *sql.DB for callers that need a transaction
// spanning multiple Query/Execute calls.
func (s *Store) DB() *sql.DB {
	return s.db
}
