package workflow

import (
	"context"

	"github.com/re-cinq/taskforge/internal/apperr"
)

// AddMemory inserts a typed note (action memory_add).
func (e *Engine) AddMemory(ctx context.Context, projectID string, category MemoryCategory, content string) (*ProjectMemory, error) {
	if projectID == "" {
		return nil, apperr.Required("project_id")
	}
	if content == "" {
		return nil, apperr.Required("content")
	}
	if _, err := e.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	res, err := e.store.Execute(ctx,
		`INSERT INTO project_memory (project_id, category, content, created_at) VALUES (?, ?, ?, ?)`,
		projectID, string(category), content, formatTime(e.now()))
	if err != nil {
		return nil, err
	}
	rows, err := e.store.Query(ctx, "SELECT * FROM project_memory WHERE id = ?", res.InsertID)
	if err != nil {
		return nil, err
	}
	return scanMemory(rows[0]), nil
}

// ListMemory returns the most recent notes for a project, newest first,
// capped at limit (project_get requests the last 50; memory_list may pass
// a caller-chosen limit, 0 meaning "no cap").
func (e *Engine) ListMemory(ctx context.Context, projectID string, limit int) ([]*ProjectMemory, error) {
	query := "SELECT * FROM project_memory WHERE project_id = ? ORDER BY created_at DESC"
	args := []any{projectID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := e.store.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]*ProjectMemory, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanMemory(r))
	}
	return out, nil
}

// RemoveMemory deletes a memory note by id (action memory_remove).
func (e *Engine) RemoveMemory(ctx context.Context, id int64) error {
	_, err := e.store.Execute(ctx, "DELETE FROM project_memory WHERE id = ?", id)
	return err
}
