package workflow

import (
	"context"

	"github.com/re-cinq/taskforge/internal/apperr"
)

// AddLink inserts a project link (action link_add).
func (e *Engine) AddLink(ctx context.Context, projectID, label, url string, category LinkCategory) (*ProjectLink, error) {
	if projectID == "" || label == "" {
		return nil, apperr.Required("project_id", "label")
	}
	if url == "" {
		return nil, apperr.Required("url")
	}
	if _, err := e.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	if category == "" {
		category = LinkOther
	}
	res, err := e.store.Execute(ctx,
		`INSERT INTO project_links (project_id, label, url, category, created_at) VALUES (?, ?, ?, ?, ?)`,
		projectID, label, url, string(category), formatTime(e.now()))
	if err != nil {
		return nil, err
	}
	rows, err := e.store.Query(ctx, "SELECT * FROM project_links WHERE id = ?", res.InsertID)
	if err != nil {
		return nil, err
	}
	return scanLink(rows[0]), nil
}

// RemoveLink deletes a link by numeric id (action link_remove).
func (e *Engine) RemoveLink(ctx context.Context, id int64) error {
	_, err := e.store.Execute(ctx, "DELETE FROM project_links WHERE id = ?", id)
	return err
}

// ListLinks returns every link for a project (action link_list).
func (e *Engine) ListLinks(ctx context.Context, projectID string) ([]*ProjectLink, error) {
	rows, err := e.store.Query(ctx, "SELECT * FROM project_links WHERE project_id = ? ORDER BY label", projectID)
	if err != nil {
		return nil, err
	}
	out := make([]*ProjectLink, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanLink(r))
	}
	return out, nil
}
