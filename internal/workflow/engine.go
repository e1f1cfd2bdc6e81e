package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/re-cinq/taskforge/internal/apperr"
	"github.com/re-cinq/taskforge/internal/gitdriver"
	"github.com/re-cinq/taskforge/internal/store"
	"github.com/re-cinq/taskforge/internal/supervisor"
)

// Engine is the Workflow Engine: an explicit, injectable collaborator over
// Storage, the Git Driver, and the Process Supervisor, constructed once
// and passed down rather than reached for through a package-level
// singleton.
type Engine struct {
	store *store.Store
	git   *gitdriver.Driver
	proc  *supervisor.Supervisor

	// nowFunc is overridden in tests for deterministic timestamps.
	nowFunc func() time.Time
}

// New constructs an Engine over its three collaborators.
func New(st *store.Store, git *gitdriver.Driver, proc *supervisor.Supervisor) *Engine {
	return &Engine{
		store:   st,
		git:     git,
		proc:    proc,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) now() time.Time { return e.nowFunc() }

func formatTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asBool(v any) bool {
	return asInt64(v) != 0
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// ensureProject loads a project row or returns a NotFound error.
func (e *Engine) ensureProject(ctx context.Context, id string) (*Project, error) {
	rows, err := e.store.Query(ctx, "SELECT * FROM projects WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.ProjectNotFound(id)
	}
	return scanProject(rows[0]), nil
}

// ensureTask loads a task row or returns a NotFound error.
func (e *Engine) ensureTask(ctx context.Context, id int64) (*Task, error) {
	rows, err := e.store.Query(ctx, "SELECT * FROM project_tasks WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.TaskNotFound(id)
	}
	return scanTask(rows[0]), nil
}

// ensureCommand loads a stored command row by numeric id or returns a
// NotFound error.
func (e *Engine) ensureCommand(ctx context.Context, id int64) (*ProjectCommand, error) {
	rows, err := e.store.Query(ctx, "SELECT * FROM project_commands WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.CommandNotFound(id)
	}
	return scanCommand(rows[0]), nil
}

// ensureCommandByLabel loads a stored command by (projectId, label).
func (e *Engine) ensureCommandByLabel(ctx context.Context, projectID, label string) (*ProjectCommand, error) {
	rows, err := e.store.Query(ctx, "SELECT * FROM project_commands WHERE project_id = ? AND label = ?", projectID, label)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.CommandNotFound(label)
	}
	return scanCommand(rows[0]), nil
}

func scanProject(row map[string]any) *Project {
	return &Project{
		ID:            asString(row["id"]),
		Name:          asString(row["name"]),
		Description:   asString(row["description"]),
		WorkspacePath: asString(row["workspace_path"]),
		RemoteURL:     asString(row["remote_url"]),
		TelegramTopic: asInt64(row["telegram_topic_id"]),
		HasBuildStep:  asBool(row["has_build_step"]),
		HasDeployStep: asBool(row["has_deploy_step"]),
		State:         ProjectState(asString(row["state"])),
		CreatedAt:     parseTime(row["created_at"]),
		UpdatedAt:     parseTime(row["updated_at"]),
	}
}

func scanTask(row map[string]any) *Task {
	return &Task{
		ID:                  asInt64(row["id"]),
		ProjectID:           asString(row["project_id"]),
		Title:               asString(row["title"]),
		Description:         asString(row["description"]),
		TaskType:            TaskType(asString(row["task_type"])),
		Status:              TaskStatus(asString(row["status"])),
		StatusBeforeBlocked: TaskStatus(asString(row["status_before_blocked"])),
		RequiresBranching:   asBool(row["requires_branching"]),
		RequiresHumanReview: asBool(row["requires_human_review"]),
		Priority:            int(asInt64(row["priority"])),
		Phase:               asString(row["phase"]),
		AssignedModel:       asString(row["assigned_model"]),
		GitBranch:           asString(row["git_branch"]),
		WorktreePath:        asString(row["worktree_path"]),
		DevServerURL:        asString(row["dev_server_url"]),
		ReviewNotes:         asString(row["review_notes"]),
		Feedback:            asString(row["review_feedback"]),
		BlockReason:         asString(row["block_reason"]),
		CreatedAt:           parseTime(row["created_at"]),
		UpdatedAt:           parseTime(row["updated_at"]),
		CompletedAt:         parseTimePtr(row["completed_at"]),
	}
}

func scanCommand(row map[string]any) *ProjectCommand {
	return &ProjectCommand{
		ID:           asInt64(row["id"]),
		ProjectID:    asString(row["project_id"]),
		Label:        asString(row["label"]),
		Command:      asString(row["command"]),
		Category:     CommandCategory(asString(row["category"])),
		RunMode:      RunMode(asString(row["run_mode"])),
		TaskRunnerID: asString(row["task_runner_id"]),
		Locked:       asBool(row["locked"]),
		LockedBy:     asString(row["locked_by"]),
		LockedAt:     parseTimePtr(row["locked_at"]),
		CreatedAt:    parseTime(row["created_at"]),
		UpdatedAt:    parseTime(row["updated_at"]),
	}
}

func scanLink(row map[string]any) *ProjectLink {
	return &ProjectLink{
		ID:        asInt64(row["id"]),
		ProjectID: asString(row["project_id"]),
		Label:     asString(row["label"]),
		URL:       asString(row["url"]),
		Category:  LinkCategory(asString(row["category"])),
		CreatedAt: parseTime(row["created_at"]),
	}
}

func scanMemory(row map[string]any) *ProjectMemory {
	return &ProjectMemory{
		ID:        asInt64(row["id"]),
		ProjectID: asString(row["project_id"]),
		Category:  MemoryCategory(asString(row["category"])),
		Content:   asString(row["content"]),
		CreatedAt: parseTime(row["created_at"]),
	}
}

func scanDependency(row map[string]any) *TaskDependency {
	return &TaskDependency{
		TaskID:      asInt64(row["task_id"]),
		DependsOnID: asInt64(row["depends_on_id"]),
	}
}

func scanHistory(row map[string]any) *TaskStatusHistory {
	return &TaskStatusHistory{
		ID:        asInt64(row["id"]),
		TaskID:    asInt64(row["task_id"]),
		From:      TaskStatus(asString(row["from_status"])),
		To:        TaskStatus(asString(row["to_status"])),
		Actor:     asString(row["actor"]),
		Reason:    asString(row["reason"]),
		CreatedAt: parseTime(row["created_at"]),
	}
}

func scanAttempt(row map[string]any) *TaskAttempt {
	return &TaskAttempt{
		ID:         asInt64(row["id"]),
		TaskID:     asInt64(row["task_id"]),
		SessionKey: asString(row["session_key"]),
		Model:      asString(row["model"]),
		Summary:    asString(row["summary"]),
		Outcome:    AttemptOutcome(asString(row["outcome"])),
		CreatedAt:  parseTime(row["created_at"]),
	}
}

// appendHistory writes one task_status_history row. Called after every
// successful task status transition.
func (e *Engine) appendHistory(ctx context.Context, taskID int64, from, to TaskStatus, actor, reason string) error {
	var fromVal any
	if from != "" {
		fromVal = string(from)
	}
	_, err := e.store.Execute(ctx,
		`INSERT INTO task_status_history (task_id, from_status, to_status, actor, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		taskID, fromVal, string(to), actor, reason, formatTime(e.now()))
	return err
}

// transitionTask performs a conditional UPDATE...WHERE status IN(...):
// race-safe status change plus a history append, or an IllegalTransition
// error if affectedRows != 1.
func (e *Engine) transitionTask(ctx context.Context, taskID int64, from []TaskStatus, to TaskStatus, actor, reason string, extra func(*Task)) (*Task, error) {
	task, err := e.ensureTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(from))
	for i := range from {
		placeholders[i] = "?"
	}

	query := fmt.Sprintf(
		`UPDATE project_tasks SET status = ?, updated_at = ? WHERE id = ? AND status IN (%s)`,
		joinPlaceholders(placeholders),
	)
	args := append([]any{string(to), formatTime(e.now()), taskID}, statusesToAny(from)...)

	res, err := e.store.Execute(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if res.AffectedRows != 1 {
		return nil, apperr.TaskTransitionFailed(taskID, string(task.Status), string(to))
	}

	if extra != nil {
		extra(task)
	}

	if err := e.appendHistory(ctx, taskID, task.Status, to, actor, reason); err != nil {
		return nil, err
	}
	return e.ensureTask(ctx, taskID)
}

func statusesToAny(ss []TaskStatus) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

func joinPlaceholders(ps []string) string {
	out := ""
	for i, p := range ps {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
