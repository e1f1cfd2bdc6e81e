package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/re-cinq/taskforge/internal/apperr"
	"github.com/re-cinq/taskforge/internal/supervisor"
)

// execStdoutCap bounds the buffer used for cmd_run's exec mode.
const execStdoutCap = 20 << 20

// AddCommandRequest is the input to AddCommand (action cmd_add).
type AddCommandRequest struct {
	ProjectID    string
	Label        string
	Command      string
	Category     CommandCategory
	RunMode      RunMode
	TaskRunnerID string
}

// AddCommand inserts a new stored command.
func (e *Engine) AddCommand(ctx context.Context, req AddCommandRequest) (*ProjectCommand, error) {
	if req.ProjectID == "" || req.Label == "" {
		return nil, apperr.Required("project_id", "label")
	}
	if req.Command == "" {
		return nil, apperr.Required("command")
	}
	if _, err := e.ensureProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}
	if req.Category == "" {
		req.Category = CmdOther
	}
	if req.RunMode == "" {
		req.RunMode = RunModeExec
	}
	now := formatTime(e.now())
	res, err := e.store.Execute(ctx,
		`INSERT INTO project_commands (project_id, label, command, category, run_mode, task_runner_id, locked, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		req.ProjectID, req.Label, req.Command, string(req.Category), string(req.RunMode), req.TaskRunnerID, now, now)
	if err != nil {
		return nil, err
	}
	return e.ensureCommand(ctx, res.InsertID)
}

// ListCommands returns every stored command for a project.
func (e *Engine) ListCommands(ctx context.Context, projectID string) ([]*ProjectCommand, error) {
	rows, err := e.store.Query(ctx, "SELECT * FROM project_commands WHERE project_id = ? ORDER BY label", projectID)
	if err != nil {
		return nil, err
	}
	out := make([]*ProjectCommand, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanCommand(r))
	}
	return out, nil
}

// requireUnlockedOrForced enforces command-lock discipline: mutating or
// deleting a locked command requires force=true and a non-empty reason.
func requireUnlockedOrForced(cmd *ProjectCommand, force bool, reason string) error {
	if !cmd.Locked {
		return nil
	}
	if !force || reason == "" {
		return apperr.ForceReasonRequired()
	}
	return nil
}

// RemoveCommand deletes a stored command (action cmd_remove).
func (e *Engine) RemoveCommand(ctx context.Context, id int64, force bool, reason string) error {
	cmd, err := e.ensureCommand(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Locked {
		if err := requireUnlockedOrForced(cmd, force, reason); err != nil {
			return err
		}
	}
	_, err = e.store.Execute(ctx, "DELETE FROM project_commands WHERE id = ?", id)
	return err
}

// UpdateCommandRequest is the input to UpdateCommand (action cmd_update).
type UpdateCommandRequest struct {
	Label        *string
	Command      *string
	Category     *CommandCategory
	RunMode      *RunMode
	TaskRunnerID *string
	Force        bool
	Reason       string
}

// UpdateCommand applies a partial update to a stored command, enforcing
// the lock discipline if the command is locked.
func (e *Engine) UpdateCommand(ctx context.Context, id int64, req UpdateCommandRequest) (*ProjectCommand, error) {
	cmd, err := e.ensureCommand(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireUnlockedOrForced(cmd, req.Force, req.Reason); err != nil {
		return nil, err
	}

	label := cmd.Label
	if req.Label != nil {
		label = *req.Label
	}
	command := cmd.Command
	if req.Command != nil {
		command = *req.Command
	}
	category := cmd.Category
	if req.Category != nil {
		category = *req.Category
	}
	runMode := cmd.RunMode
	if req.RunMode != nil {
		runMode = *req.RunMode
	}
	taskRunnerID := cmd.TaskRunnerID
	if req.TaskRunnerID != nil {
		taskRunnerID = *req.TaskRunnerID
	}

	_, err = e.store.Execute(ctx,
		`UPDATE project_commands SET label=?, command=?, category=?, run_mode=?, task_runner_id=?, updated_at=? WHERE id=?`,
		label, command, string(category), string(runMode), taskRunnerID, formatTime(e.now()), id)
	if err != nil {
		return nil, err
	}
	return e.ensureCommand(ctx, id)
}

// LockCommand sets the advisory lock (action cmd_lock).
func (e *Engine) LockCommand(ctx context.Context, id int64, lockedBy string) (*ProjectCommand, error) {
	if _, err := e.ensureCommand(ctx, id); err != nil {
		return nil, err
	}
	_, err := e.store.Execute(ctx,
		`UPDATE project_commands SET locked=1, locked_by=?, locked_at=?, updated_at=? WHERE id=?`,
		lockedBy, formatTime(e.now()), formatTime(e.now()), id)
	if err != nil {
		return nil, err
	}
	return e.ensureCommand(ctx, id)
}

// UnlockCommand clears the advisory lock (action cmd_unlock).
func (e *Engine) UnlockCommand(ctx context.Context, id int64) (*ProjectCommand, error) {
	if _, err := e.ensureCommand(ctx, id); err != nil {
		return nil, err
	}
	_, err := e.store.Execute(ctx,
		`UPDATE project_commands SET locked=0, locked_by=NULL, locked_at=NULL, updated_at=? WHERE id=?`,
		formatTime(e.now()), id)
	if err != nil {
		return nil, err
	}
	return e.ensureCommand(ctx, id)
}

// RunCommandRequest is the input to RunCommand (action cmd_run).
type RunCommandRequest struct {
	ProjectID string
	ID        int64  // numeric lookup; takes precedence over Label if non-zero
	Label     string // (projectId,label) lookup
	TaskID    int64  // substituted into {task_id}, 0 if not applicable
	TimeoutMs int
}

// RunCommandResult is cmd_run's response.
type RunCommandResult struct {
	Mode   string
	Stdout string
	Stderr string
	TaskID string
}

func substituteTokens(tmpl, projectID, label string, taskID int64) string {
	out := strings.ReplaceAll(tmpl, "{project_id}", projectID)
	out = strings.ReplaceAll(out, "{label}", label)
	if taskID != 0 {
		out = strings.ReplaceAll(out, "{task_id}", fmt.Sprintf("%d", taskID))
	}
	return out
}

// RunCommand resolves a stored command and executes it in exec or task
// mode.
func (e *Engine) RunCommand(ctx context.Context, req RunCommandRequest) (*RunCommandResult, error) {
	if req.ID == 0 && (req.ProjectID == "" || req.Label == "") {
		return nil, apperr.Required("project_id", "label")
	}

	var cmd *ProjectCommand
	var err error
	if req.ID != 0 {
		cmd, err = e.ensureCommand(ctx, req.ID)
	} else {
		cmd, err = e.ensureCommandByLabel(ctx, req.ProjectID, req.Label)
	}
	if err != nil {
		return nil, err
	}

	resolved := substituteTokens(cmd.Command, cmd.ProjectID, cmd.Label, req.TaskID)

	switch cmd.RunMode {
	case RunModeExec:
		return e.runExec(ctx, resolved, req.TimeoutMs)
	case RunModeTask:
		return e.runAsTask(cmd, resolved, req.TaskID)
	default:
		return nil, apperr.Invalid(fmt.Sprintf("unknown run_mode %q for command %d", cmd.RunMode, cmd.ID))
	}
}

// cappedBuffer is an io.Writer that silently drops bytes past its cap,
// backing the fixed 20 MiB stdout buffer for exec mode.
type cappedBuffer struct {
	buf bytes.Buffer
	cap int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	remaining := c.cap - c.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		c.buf.Write(p[:remaining])
	} else {
		c.buf.Write(p)
	}
	return len(p), nil
}

func (e *Engine) runExec(ctx context.Context, command string, timeoutMs int) (*RunCommandResult, error) {
	runCtx := ctx
	if timeoutMs > 0 {
		var cancel func()
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, "bash", "-lc", command)
	var stdout, stderr cappedBuffer
	stdout.cap = execStdoutCap
	stderr.cap = execStdoutCap
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var exitErr *exec.ExitError
	if runErr := cmd.Run(); runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, apperr.Externalf("cmd_run exec failed: %v", runErr)
	}

	return &RunCommandResult{
		Mode:   "exec",
		Stdout: stdout.buf.String(),
		Stderr: stderr.buf.String(),
	}, nil
}

func (e *Engine) runAsTask(cmd *ProjectCommand, resolvedCommand string, taskID int64) (*RunCommandResult, error) {
	if e.proc == nil {
		return nil, apperr.Externalf("process supervisor is not configured")
	}
	id := substituteTokens(cmd.TaskRunnerID, cmd.ProjectID, cmd.Label, taskID)
	if id == "" {
		id = fmt.Sprintf("project-%s-%d", cmd.ProjectID, cmd.ID)
	}

	rec, err := e.proc.Start(supervisor.StartRequest{
		ID:        id,
		Command:   resolvedCommand,
		Tags:      []string{"project", cmd.ProjectID, cmd.Label},
		ProjectID: cmd.ProjectID,
	})
	if err != nil {
		return nil, apperr.Externalf("starting supervised task: %v", err)
	}
	return &RunCommandResult{Mode: "task", TaskID: rec.ID}, nil
}
