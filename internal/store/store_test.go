package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(Config{Path: dbPath})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	return s
}

func TestOpenAndMigrate(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	rows, err := s.Query(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name='projects'")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected projects table to exist, got %d rows", len(rows))
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	if err := s.RunMigrations(context.Background()); err != nil {
		t.Fatalf("second RunMigrations call failed: %v", err)
	}
}

func TestExecuteReturnsInsertID(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	ctx := context.Background()

	res, err := s.Execute(ctx,
		`INSERT INTO projects (id, name, state, created_at, updated_at) VALUES (?, ?, 'planning', '2026-01-01', '2026-01-01')`,
		"p1", "P1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.AffectedRows != 1 {
		t.Errorf("expected 1 affected row, got %d", res.AffectedRows)
	}

	res2, err := s.Execute(ctx,
		`INSERT INTO project_tasks (project_id, title, task_type, created_at, updated_at) VALUES (?, ?, 'feature', '2026-01-01', '2026-01-01')`,
		"p1", "t1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res2.InsertID == 0 {
		t.Error("expected a non-zero insert id for an autoincrement table")
	}
}

func TestConditionalUpdateAffectedRows(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Execute(ctx,
		`INSERT INTO projects (id, name, state, created_at, updated_at) VALUES (?, ?, 'planning', '2026-01-01', '2026-01-01')`,
		"p1", "P1"); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	res, err := s.Execute(ctx,
		`UPDATE projects SET state='active' WHERE id=? AND state IN ('planning')`, "p1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.AffectedRows != 1 {
		t.Fatalf("expected 1 affected row, got %d", res.AffectedRows)
	}

	// Re-running the same conditional update must affect zero rows —
	// this is the race-safety guard the workflow engine depends on.
	res2, err := s.Execute(ctx,
		`UPDATE projects SET state='active' WHERE id=? AND state IN ('planning')`, "p1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res2.AffectedRows != 0 {
		t.Fatalf("expected 0 affected rows on second conditional update, got %d", res2.AffectedRows)
	}
}
