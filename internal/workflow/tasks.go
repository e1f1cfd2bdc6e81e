package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/re-cinq/taskforge/internal/apperr"
)

// AddTaskRequest is the input to AddTask (action task_add). RequiresBranching
// and RequiresHumanReview are pointers so the task-type defaults apply
// only when the caller leaves them unset.
type AddTaskRequest struct {
	ProjectID           string
	Title               string
	Description         string
	TaskType            TaskType
	Priority            int
	Phase               string
	AssignedModel       string
	RequiresBranching   *bool
	RequiresHumanReview *bool
}

// AddTask creates a task in status "requirements", applying task-type
// defaults for branching/review unless overridden, and records the initial
// NULL -> requirements history row.
func (e *Engine) AddTask(ctx context.Context, req AddTaskRequest) (*Task, error) {
	if req.ProjectID == "" {
		return nil, apperr.Required("project_id")
	}
	if req.Title == "" {
		return nil, apperr.Required("title")
	}
	if req.TaskType == "" {
		return nil, apperr.Required("task_type")
	}
	if _, err := e.ensureProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	defBranching, defReview := defaultFlagsForType(req.TaskType)
	branching := defBranching
	if req.RequiresBranching != nil {
		branching = *req.RequiresBranching
	}
	review := defReview
	if req.RequiresHumanReview != nil {
		review = *req.RequiresHumanReview
	}

	now := formatTime(e.now())
	res, err := e.store.Execute(ctx,
		`INSERT INTO project_tasks
		 (project_id, title, description, task_type, status, requires_branching, requires_human_review,
		  priority, phase, assigned_model, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'requirements', ?, ?, ?, ?, ?, ?, ?)`,
		req.ProjectID, req.Title, req.Description, string(req.TaskType),
		boolToInt(branching), boolToInt(review), req.Priority, req.Phase, req.AssignedModel, now, now)
	if err != nil {
		return nil, err
	}
	taskID := res.InsertID

	if err := e.appendHistory(ctx, taskID, "", StatusRequirements, "", "created"); err != nil {
		return nil, err
	}
	return e.ensureTask(ctx, taskID)
}

// GetTaskContext returns the task_get bundle.
func (e *Engine) GetTaskContext(ctx context.Context, id int64) (*TaskContext, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}
	deps, err := e.ListDependencies(ctx, id)
	if err != nil {
		return nil, err
	}
	attempts, err := e.listAttempts(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := e.listHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TaskContext{Task: task, Dependencies: deps, Attempts: attempts, StatusHistory: history}, nil
}

func (e *Engine) listAttempts(ctx context.Context, taskID int64) ([]*TaskAttempt, error) {
	rows, err := e.store.Query(ctx, "SELECT * FROM task_attempts WHERE task_id = ? ORDER BY created_at", taskID)
	if err != nil {
		return nil, err
	}
	out := make([]*TaskAttempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanAttempt(r))
	}
	return out, nil
}

func (e *Engine) listHistory(ctx context.Context, taskID int64) ([]*TaskStatusHistory, error) {
	rows, err := e.store.Query(ctx, "SELECT * FROM task_status_history WHERE task_id = ? ORDER BY created_at", taskID)
	if err != nil {
		return nil, err
	}
	out := make([]*TaskStatusHistory, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanHistory(r))
	}
	return out, nil
}

// ListTasks returns every task for a project, highest priority first.
func (e *Engine) ListTasks(ctx context.Context, projectID string) ([]*Task, error) {
	rows, err := e.store.Query(ctx,
		"SELECT * FROM project_tasks WHERE project_id = ? ORDER BY priority DESC, created_at, id", projectID)
	if err != nil {
		return nil, err
	}
	out := make([]*Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanTask(r))
	}
	return out, nil
}

// UpdateTaskRequest is the input to UpdateTask (action task_update). Status
// is intentionally absent — status changes only happen through the
// lifecycle actions below.
type UpdateTaskRequest struct {
	Title         *string
	Description   *string
	Priority      *int
	Phase         *string
	AssignedModel *string
	ReviewNotes   *string
	Feedback      *string
	DevServerURL  *string
}

// UpdateTask applies a partial non-status update to a task.
func (e *Engine) UpdateTask(ctx context.Context, id int64, req UpdateTaskRequest) (*Task, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}

	title := task.Title
	if req.Title != nil {
		title = *req.Title
	}
	desc := task.Description
	if req.Description != nil {
		desc = *req.Description
	}
	priority := task.Priority
	if req.Priority != nil {
		priority = *req.Priority
	}
	phase := task.Phase
	if req.Phase != nil {
		phase = *req.Phase
	}
	model := task.AssignedModel
	if req.AssignedModel != nil {
		model = *req.AssignedModel
	}
	notes := task.ReviewNotes
	if req.ReviewNotes != nil {
		notes = *req.ReviewNotes
	}
	feedback := task.Feedback
	if req.Feedback != nil {
		feedback = *req.Feedback
	}
	devServer := task.DevServerURL
	if req.DevServerURL != nil {
		devServer = *req.DevServerURL
	}

	_, err = e.store.Execute(ctx,
		`UPDATE project_tasks SET title=?, description=?, priority=?, phase=?, assigned_model=?,
		 review_notes=?, review_feedback=?, dev_server_url=?, updated_at=? WHERE id=?`,
		title, desc, priority, phase, model, notes, feedback, devServer, formatTime(e.now()), id)
	if err != nil {
		return nil, err
	}
	return e.ensureTask(ctx, id)
}

// NextTask returns the highest-priority ready task in a project (action
// task_next): the oldest-created, lowest-id task among taskNextCandidates
// whose every dependency is done. Returns nil, nil if none are ready.
func (e *Engine) NextTask(ctx context.Context, projectID string) (*Task, error) {
	tasks, err := e.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	candidateSet := make(map[TaskStatus]bool, len(taskNextCandidates))
	for _, s := range taskNextCandidates {
		candidateSet[s] = true
	}

	var ready []*Task
	for _, t := range tasks {
		if !candidateSet[t.Status] {
			continue
		}
		ok, err := e.dependenciesSatisfied(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			ready = append(ready, t)
		}
	}
	if len(ready) == 0 {
		return nil, nil
	}

	sort.Slice(ready, func(i, j int) bool {
		if ready[i].Priority != ready[j].Priority {
			return ready[i].Priority > ready[j].Priority
		}
		if !ready[i].CreatedAt.Equal(ready[j].CreatedAt) {
			return ready[i].CreatedAt.Before(ready[j].CreatedAt)
		}
		return ready[i].ID < ready[j].ID
	})
	return ready[0], nil
}

// StartTask implements task_start: {requirements,
// changes_requested} -> implementing, creating a git worktree/branch when
// the task requires branching.
func (e *Engine) StartTask(ctx context.Context, id int64, actor string) (*Task, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}

	var branch, worktreePath string
	if task.RequiresBranching {
		project, err := e.ensureProject(ctx, task.ProjectID)
		if err != nil {
			return nil, err
		}
		if project.WorkspacePath == "" {
			return nil, apperr.PreconditionFailed("Project workspace_path required for branching tasks")
		}
		repoPath := filepath.Join(project.WorkspacePath, "main")
		worktreePath = filepath.Join(project.WorkspacePath, "worktrees", fmt.Sprintf("task-%d", id))
		branch = fmt.Sprintf("task/%d", id)

		// The status transition commits first: a failed git step leaves
		// the task in implementing and the caller is responsible for
		// retrying idempotently.
		if _, err := e.transitionTask(ctx, id, []TaskStatus{StatusRequirements, StatusChangesRequested}, StatusImplementing, actor, "", nil); err != nil {
			return nil, err
		}
		if err := e.git.CreateWorktree(repoPath, worktreePath, branch); err != nil {
			return nil, apperr.Externalf("creating worktree for task %d: %v", id, err)
		}
		if _, err := e.store.Execute(ctx,
			"UPDATE project_tasks SET git_branch=?, worktree_path=?, updated_at=? WHERE id=?",
			branch, worktreePath, formatTime(e.now()), id); err != nil {
			return nil, err
		}
		return e.ensureTask(ctx, id)
	}

	return e.transitionTask(ctx, id, []TaskStatus{StatusRequirements, StatusChangesRequested}, StatusImplementing, actor, "", nil)
}

// RequestReview implements task_request_review. A task that does not
// require human review is silently promoted straight to approved.
func (e *Engine) RequestReview(ctx context.Context, id int64, actor string) (*Task, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.RequiresHumanReview {
		return e.transitionTask(ctx, id, []TaskStatus{StatusImplementing, StatusChangesRequested}, StatusApproved, actor, "auto-approved", nil)
	}
	return e.transitionTask(ctx, id, []TaskStatus{StatusImplementing, StatusChangesRequested}, StatusReviewRequested, actor, "", nil)
}

// ApproveTask implements task_approve: always allows review_requested ->
// approved, and additionally allows {implementing, changes_requested} ->
// approved when the task does not require human review.
func (e *Engine) ApproveTask(ctx context.Context, id int64, actor, reason string) (*Task, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}
	from := []TaskStatus{StatusReviewRequested}
	if !task.RequiresHumanReview {
		from = append(from, StatusImplementing, StatusChangesRequested)
	}
	return e.transitionTask(ctx, id, from, StatusApproved, actor, reason, nil)
}

// RequestChanges implements task_request_changes: review_requested ->
// changes_requested, recording feedback.
func (e *Engine) RequestChanges(ctx context.Context, id int64, actor, feedback string) (*Task, error) {
	updated, err := e.transitionTask(ctx, id, []TaskStatus{StatusReviewRequested}, StatusChangesRequested, actor, "", nil)
	if err != nil {
		return nil, err
	}
	if feedback != "" {
		_, err = e.store.Execute(ctx,
			"UPDATE project_tasks SET review_feedback=?, updated_at=? WHERE id=?",
			feedback, formatTime(e.now()), id)
		if err != nil {
			return nil, err
		}
		return e.ensureTask(ctx, id)
	}
	return updated, nil
}

// postMergeStatus resolves the step a task should advance to after a
// successful merge (or, for non-branching tasks, immediately): build if
// configured, else deploy if configured, else done.
func postMergeStatus(project *Project) TaskStatus {
	switch {
	case project.HasBuildStep:
		return StatusBuilding
	case project.HasDeployStep:
		return StatusDeploying
	default:
		return StatusDone
	}
}

// MergeTask implements task_merge, including postMergeStatus.
func (e *Engine) MergeTask(ctx context.Context, id int64, actor string) (*Task, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := e.ensureProject(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}

	if !task.RequiresBranching {
		// An unconditional task_complete fallback here would let this
		// path resurrect a cancelled or already-done task. Instead the
		// non-branching fast path transitions only from {approved,
		// implementing}, rather than calling task_complete.
		to := postMergeStatus(project)
		return e.transitionTaskWithCompletion(ctx, id, []TaskStatus{StatusApproved, StatusImplementing}, to, actor, "")
	}

	if project.WorkspacePath == "" || task.GitBranch == "" {
		return nil, apperr.PreconditionFailed("workspace_path and git_branch required for merge")
	}

	// task_resolve_conflict already moves merge_conflict -> merging in
	// anticipation of this retry; only drive the transition here if we are
	// not already there, since the caller is expected to re-invoke
	// task_merge to retry the actual git merge.
	if task.Status != StatusMerging {
		if _, err := e.transitionTask(ctx, id, []TaskStatus{StatusApproved, StatusMergeConflict}, StatusMerging, actor, "", nil); err != nil {
			return nil, err
		}
	}

	repoPath := filepath.Join(project.WorkspacePath, "main")
	result, err := e.git.MergeBranch(repoPath, task.GitBranch)
	if err != nil {
		return nil, apperr.MergeFailed(err.Error())
	}
	if result.Conflict {
		return e.transitionTask(ctx, id, []TaskStatus{StatusMerging}, StatusMergeConflict, actor, "merge conflict", nil)
	}
	if !result.Success {
		return nil, apperr.MergeFailed(result.Output)
	}

	to := postMergeStatus(project)
	return e.transitionTaskWithCompletion(ctx, id, []TaskStatus{StatusMerging}, to, actor, "")
}

// transitionTaskWithCompletion wraps transitionTask, additionally stamping
// completed_at when the destination is done (its invariant:
// completed_at is set iff the task enters done).
func (e *Engine) transitionTaskWithCompletion(ctx context.Context, id int64, from []TaskStatus, to TaskStatus, actor, reason string) (*Task, error) {
	task, err := e.transitionTask(ctx, id, from, to, actor, reason, nil)
	if err != nil {
		return nil, err
	}
	if to == StatusDone {
		_, err = e.store.Execute(ctx, "UPDATE project_tasks SET completed_at=?, updated_at=? WHERE id=?",
			formatTime(e.now()), formatTime(e.now()), id)
		if err != nil {
			return nil, err
		}
		return e.ensureTask(ctx, id)
	}
	return task, nil
}

// ResolveConflict implements task_resolve_conflict: merge_conflict ->
// merging. The caller is expected to re-invoke MergeTask to retry the
// actual git merge.
func (e *Engine) ResolveConflict(ctx context.Context, id int64, actor string) (*Task, error) {
	return e.transitionTask(ctx, id, []TaskStatus{StatusMergeConflict}, StatusMerging, actor, "", nil)
}

// BuildTask implements task_build: requires project.has_build_step; moves
// to deploying if deploy is configured, else done.
func (e *Engine) BuildTask(ctx context.Context, id int64, actor string) (*Task, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := e.ensureProject(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.HasBuildStep {
		return nil, apperr.PreconditionFailed(fmt.Sprintf("Project %s does not have a build step configured", project.ID))
	}

	to := StatusDone
	if project.HasDeployStep {
		to = StatusDeploying
	}
	return e.transitionTaskWithCompletion(ctx, id, []TaskStatus{StatusBuilding, StatusMerging, StatusApproved}, to, actor, "")
}

// DeployTask implements task_deploy: moves to done from {deploying,
// building, merging, approved}, setting completed_at.
func (e *Engine) DeployTask(ctx context.Context, id int64, actor string) (*Task, error) {
	return e.transitionTaskWithCompletion(ctx, id,
		[]TaskStatus{StatusDeploying, StatusBuilding, StatusMerging, StatusApproved}, StatusDone, actor, "")
}

// CompleteTask implements task_complete: force-moves to done from any
// non-cancelled, non-done state.
func (e *Engine) CompleteTask(ctx context.Context, id int64, actor, reason string) (*Task, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status == StatusCancelled || task.Status == StatusDone {
		return nil, apperr.TaskTransitionFailed(id, string(task.Status), string(StatusDone))
	}
	from := []TaskStatus{}
	for s := range taskTransitions {
		from = append(from, s)
	}
	from = append(from, StatusBlocked, StatusMergeConflict)
	return e.transitionTaskWithCompletion(ctx, id, from, StatusDone, actor, reason)
}

// CancelTask implements task_cancel: moves to cancelled from any state
// (including done), best-effort removing the worktree if one exists.
func (e *Engine) CancelTask(ctx context.Context, id int64, actor, reason string) (*Task, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}

	from := append([]TaskStatus{}, nonTerminalStatuses...)
	from = append(from, StatusDone)

	updated, err := e.transitionTask(ctx, id, from, StatusCancelled, actor, reason, nil)
	if err != nil {
		return nil, err
	}

	if task.Status == StatusDone {
		if _, err := e.store.Execute(ctx, "UPDATE project_tasks SET completed_at=NULL WHERE id=?", id); err != nil {
			return nil, err
		}
		updated, err = e.ensureTask(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	if task.WorktreePath != "" && task.GitBranch != "" {
		project, perr := e.ensureProject(ctx, task.ProjectID)
		if perr == nil && project.WorkspacePath != "" {
			repoPath := filepath.Join(project.WorkspacePath, "main")
			_ = e.git.RemoveWorktree(repoPath, task.WorktreePath, task.GitBranch)
		}
	}
	return updated, nil
}

// BlockTask implements task_block: saves the current status into
// status_before_blocked, then transitions to blocked.
func (e *Engine) BlockTask(ctx context.Context, id int64, actor, reason string) (*Task, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status == StatusBlocked {
		return nil, apperr.TaskTransitionFailed(id, string(task.Status), string(StatusBlocked))
	}

	res, err := e.store.Execute(ctx,
		"UPDATE project_tasks SET status=?, status_before_blocked=?, block_reason=?, updated_at=? WHERE id=? AND status=?",
		string(StatusBlocked), string(task.Status), reason, formatTime(e.now()), id, string(task.Status))
	if err != nil {
		return nil, err
	}
	if res.AffectedRows != 1 {
		return nil, apperr.TaskTransitionFailed(id, string(task.Status), string(StatusBlocked))
	}
	if err := e.appendHistory(ctx, id, task.Status, StatusBlocked, actor, reason); err != nil {
		return nil, err
	}
	return e.ensureTask(ctx, id)
}

// UnblockTask implements task_unblock: restores status_before_blocked
// (defaulting to requirements), clearing the saved field.
func (e *Engine) UnblockTask(ctx context.Context, id int64, actor string) (*Task, error) {
	task, err := e.ensureTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status != StatusBlocked {
		return nil, apperr.TaskTransitionFailed(id, string(task.Status), "")
	}
	restore := task.StatusBeforeBlocked
	if restore == "" {
		restore = StatusRequirements
	}

	res, err := e.store.Execute(ctx,
		"UPDATE project_tasks SET status=?, status_before_blocked=NULL, block_reason=NULL, updated_at=? WHERE id=? AND status=?",
		string(restore), formatTime(e.now()), id, string(StatusBlocked))
	if err != nil {
		return nil, err
	}
	if res.AffectedRows != 1 {
		return nil, apperr.TaskTransitionFailed(id, string(task.Status), string(restore))
	}
	if err := e.appendHistory(ctx, id, StatusBlocked, restore, actor, ""); err != nil {
		return nil, err
	}
	return e.ensureTask(ctx, id)
}

// RecordAttempt appends a task_attempts row (not a dispatcher action in
// the 38-action table, but the storage counterpart every attempt-tracking
// caller needs).
func (e *Engine) RecordAttempt(ctx context.Context, taskID int64, sessionKey, model, summary string, outcome AttemptOutcome) (*TaskAttempt, error) {
	if _, err := e.ensureTask(ctx, taskID); err != nil {
		return nil, err
	}
	res, err := e.store.Execute(ctx,
		`INSERT INTO task_attempts (task_id, session_key, model, summary, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		taskID, sessionKey, model, summary, string(outcome), formatTime(e.now()))
	if err != nil {
		return nil, err
	}
	rows, err := e.store.Query(ctx, "SELECT * FROM task_attempts WHERE id = ?", res.InsertID)
	if err != nil {
		return nil, err
	}
	return scanAttempt(rows[0]), nil
}
