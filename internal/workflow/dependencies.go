package workflow

import (
	"context"
	"fmt"

	"github.com/re-cinq/taskforge/internal/apperr"
)

// AddDependency inserts a (task_id, depends_on_id) edge (action
// task_dep_add), rejecting any edge that would introduce a cycle via a
// white/gray/black DFS coloring over the dependency graph.
func (e *Engine) AddDependency(ctx context.Context, taskID, dependsOnID int64) (*TaskDependency, error) {
	if taskID == dependsOnID {
		return nil, apperr.Invalid(fmt.Sprintf("task %d cannot depend on itself", taskID))
	}
	if _, err := e.ensureTask(ctx, taskID); err != nil {
		return nil, err
	}
	if _, err := e.ensureTask(ctx, dependsOnID); err != nil {
		return nil, err
	}

	introducesCycle, err := e.wouldCreateCycle(ctx, taskID, dependsOnID)
	if err != nil {
		return nil, err
	}
	if introducesCycle {
		return nil, apperr.Invalid(fmt.Sprintf("dependency %d -> %d would introduce a cycle", taskID, dependsOnID))
	}

	_, err = e.store.Execute(ctx,
		"INSERT OR IGNORE INTO project_task_dependencies (task_id, depends_on_id) VALUES (?, ?)",
		taskID, dependsOnID)
	if err != nil {
		return nil, err
	}
	return &TaskDependency{TaskID: taskID, DependsOnID: dependsOnID}, nil
}

// wouldCreateCycle reports whether adding taskID -> dependsOnID would close
// a cycle in the existing dependency graph: true if dependsOnID can already
// reach taskID by following depends_on edges.
func (e *Engine) wouldCreateCycle(ctx context.Context, taskID, dependsOnID int64) (bool, error) {
	adj, err := e.loadDependencyGraph(ctx)
	if err != nil {
		return false, err
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[int64]int)

	var visit func(node int64) bool
	visit = func(node int64) bool {
		if node == taskID {
			return true
		}
		color[node] = gray
		for _, dep := range adj[node] {
			if color[dep] == gray {
				continue
			}
			if color[dep] == white && visit(dep) {
				return true
			}
		}
		color[node] = black
		return false
	}

	return visit(dependsOnID), nil
}

func (e *Engine) loadDependencyGraph(ctx context.Context) (map[int64][]int64, error) {
	rows, err := e.store.Query(ctx, "SELECT task_id, depends_on_id FROM project_task_dependencies")
	if err != nil {
		return nil, err
	}
	adj := make(map[int64][]int64)
	for _, r := range rows {
		dep := scanDependency(r)
		adj[dep.TaskID] = append(adj[dep.TaskID], dep.DependsOnID)
	}
	return adj, nil
}

// RemoveDependency deletes a dependency edge (action task_dep_remove).
func (e *Engine) RemoveDependency(ctx context.Context, taskID, dependsOnID int64) error {
	_, err := e.store.Execute(ctx,
		"DELETE FROM project_task_dependencies WHERE task_id = ? AND depends_on_id = ?",
		taskID, dependsOnID)
	return err
}

// ListDependencies returns every depends_on edge for a task (action
// task_dep_list).
func (e *Engine) ListDependencies(ctx context.Context, taskID int64) ([]*TaskDependency, error) {
	rows, err := e.store.Query(ctx,
		"SELECT task_id, depends_on_id FROM project_task_dependencies WHERE task_id = ?", taskID)
	if err != nil {
		return nil, err
	}
	out := make([]*TaskDependency, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanDependency(r))
	}
	return out, nil
}

// dependenciesSatisfied reports whether every depends_on task for taskID is
// done, used by task_next's readiness check.
func (e *Engine) dependenciesSatisfied(ctx context.Context, taskID int64) (bool, error) {
	deps, err := e.ListDependencies(ctx, taskID)
	if err != nil {
		return false, err
	}
	for _, d := range deps {
		parent, err := e.ensureTask(ctx, d.DependsOnID)
		if err != nil {
			return false, err
		}
		if parent.Status != StatusDone {
			return false, nil
		}
	}
	return true, nil
}
