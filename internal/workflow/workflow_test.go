package workflow

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/re-cinq/taskforge/internal/gitdriver"
	"github.com/re-cinq/taskforge/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	st, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.RunMigrations(context.Background()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return New(st, gitdriver.New(""), nil)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %s: %v", args, out, err)
	}
}

// initWorkspace sets up {workspace}/main as a git repo, matching the
// repoPath = {workspace_path}/main convention from task_start/task_merge.
func initWorkspace(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	main := filepath.Join(ws, "main")
	if err := os.MkdirAll(main, 0755); err != nil {
		t.Fatal(err)
	}
	runGit(t, main, "init", "-b", "main")
	runGit(t, main, "config", "user.email", "test@example.com")
	runGit(t, main, "config", "user.name", "test")
	writeFile(t, filepath.Join(main, "README.md"), "hello\n")
	runGit(t, main, "add", "README.md")
	runGit(t, main, "commit", "-m", "initial")
	return ws
}

func TestProjectCreateDefaults(t *testing.T) {
	e := newTestEngine(t)
	proj, err := e.CreateProject(context.Background(), CreateProjectRequest{ID: "p1", Name: "P1"})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if !proj.HasBuildStep || !proj.HasDeployStep {
		t.Fatalf("expected both step flags to default true, got %+v", proj)
	}
	if proj.State != ProjectPlanning {
		t.Fatalf("expected state planning, got %s", proj.State)
	}
}

func TestTaskAddFeatureDefaults(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	if _, err := e.CreateProject(ctx, CreateProjectRequest{ID: "p1", Name: "P1"}); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	task, err := e.AddTask(ctx, AddTaskRequest{ProjectID: "p1", Title: "t1", TaskType: TaskFeature})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if task.Status != StatusRequirements {
		t.Fatalf("expected status requirements, got %s", task.Status)
	}
	if !task.RequiresBranching || !task.RequiresHumanReview {
		t.Fatalf("expected feature defaults branching+review, got %+v", task)
	}

	history, err := e.listHistory(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].From != "" || history[0].To != StatusRequirements {
		t.Fatalf("expected one NULL -> requirements history row, got %+v", history)
	}
}

// TestLinearPathNoBranchingNoReview is scenario S3.
func TestLinearPathNoBranchingNoReview(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	no := false
	if _, err := e.CreateProject(ctx, CreateProjectRequest{ID: "p1", Name: "P1", HasBuildStep: &no, HasDeployStep: &no}); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	task, err := e.AddTask(ctx, AddTaskRequest{ProjectID: "p1", Title: "t1", TaskType: TaskHotfix})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	task, err = e.StartTask(ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}
	if task.Status != StatusImplementing {
		t.Fatalf("expected implementing, got %s", task.Status)
	}

	task, err = e.RequestReview(ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("RequestReview failed: %v", err)
	}
	if task.Status != StatusApproved {
		t.Fatalf("expected auto-approved, got %s", task.Status)
	}

	task, err = e.MergeTask(ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("MergeTask failed: %v", err)
	}
	if task.Status != StatusDone {
		t.Fatalf("expected done, got %s", task.Status)
	}
	if task.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
}

// TestBranchingPathWithConflict is scenario S4.
func TestBranchingPathWithConflict(t *testing.T) {
	ws := initWorkspace(t)
	e := newTestEngine(t)
	ctx := context.Background()

	yes := true
	if _, err := e.CreateProject(ctx, CreateProjectRequest{ID: "p1", Name: "P1", WorkspacePath: ws, HasDeployStep: &yes}); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	task, err := e.AddTask(ctx, AddTaskRequest{ProjectID: "p1", Title: "t1", TaskType: TaskFeature})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	task, err = e.StartTask(ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}
	if task.Status != StatusImplementing {
		t.Fatalf("expected implementing, got %s", task.Status)
	}
	expectedWorktree := filepath.Join(ws, "worktrees", "task-"+strconv.FormatInt(task.ID, 10))
	if task.WorktreePath != expectedWorktree {
		t.Fatalf("expected worktree at %s, got %s", expectedWorktree, task.WorktreePath)
	}

	// A feature task requires human review, so approval comes from
	// review_requested.
	task, err = e.RequestReview(ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("RequestReview failed: %v", err)
	}
	if task.Status != StatusReviewRequested {
		t.Fatalf("expected review_requested, got %s", task.Status)
	}

	task, err = e.ApproveTask(ctx, task.ID, "tester", "looks good")
	if err != nil {
		t.Fatalf("ApproveTask failed: %v", err)
	}

	// Conflicting commits: main diverges from the task branch.
	writeFile(t, filepath.Join(ws, "main", "README.md"), "main change\n")
	runGit(t, filepath.Join(ws, "main"), "add", "README.md")
	runGit(t, filepath.Join(ws, "main"), "commit", "-m", "main edit")
	writeFile(t, filepath.Join(task.WorktreePath, "README.md"), "task change\n")
	runGit(t, task.WorktreePath, "add", "README.md")
	runGit(t, task.WorktreePath, "commit", "-m", "task edit")

	task, err = e.MergeTask(ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("MergeTask failed: %v", err)
	}
	if task.Status != StatusMergeConflict {
		t.Fatalf("expected merge_conflict, got %s", task.Status)
	}

	task, err = e.ResolveConflict(ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("ResolveConflict failed: %v", err)
	}
	if task.Status != StatusMerging {
		t.Fatalf("expected merging, got %s", task.Status)
	}

	// Resolve for real: make the task branch a clean fast-forward of main.
	runGit(t, task.WorktreePath, "merge", "-X", "ours", "main")

	task, err = e.MergeTask(ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("MergeTask retry failed: %v", err)
	}
	if task.Status != StatusBuilding {
		t.Fatalf("expected building, got %s", task.Status)
	}

	task, err = e.BuildTask(ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("BuildTask failed: %v", err)
	}
	if task.Status != StatusDeploying {
		t.Fatalf("expected deploying (project has a deploy step), got %s", task.Status)
	}
}

// TestDependencyGating is scenario S5.
func TestDependencyGating(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateProject(ctx, CreateProjectRequest{ID: "p1", Name: "P1"}); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	a, err := e.AddTask(ctx, AddTaskRequest{ProjectID: "p1", Title: "A", TaskType: TaskChore, Priority: 10})
	if err != nil {
		t.Fatalf("AddTask A failed: %v", err)
	}
	b, err := e.AddTask(ctx, AddTaskRequest{ProjectID: "p1", Title: "B", TaskType: TaskChore, Priority: 5})
	if err != nil {
		t.Fatalf("AddTask B failed: %v", err)
	}
	if _, err := e.AddDependency(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}

	next, err := e.NextTask(ctx, "p1")
	if err != nil {
		t.Fatalf("NextTask failed: %v", err)
	}
	if next == nil || next.ID != a.ID {
		t.Fatalf("expected A to be next (B is gated), got %+v", next)
	}

	if _, err := e.CompleteTask(ctx, a.ID, "tester", "done manually"); err != nil {
		t.Fatalf("CompleteTask A failed: %v", err)
	}

	next, err = e.NextTask(ctx, "p1")
	if err != nil {
		t.Fatalf("NextTask failed: %v", err)
	}
	if next == nil || next.ID != b.ID {
		t.Fatalf("expected B to be next once A is done, got %+v", next)
	}
}

func TestCycleDetectionRejectsDependency(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateProject(ctx, CreateProjectRequest{ID: "p1", Name: "P1"}); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	a, _ := e.AddTask(ctx, AddTaskRequest{ProjectID: "p1", Title: "A", TaskType: TaskChore})
	b, _ := e.AddTask(ctx, AddTaskRequest{ProjectID: "p1", Title: "B", TaskType: TaskChore})

	if _, err := e.AddDependency(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("AddDependency A->B failed: %v", err)
	}
	if _, err := e.AddDependency(ctx, a.ID, b.ID); err == nil {
		t.Fatal("expected the reverse edge to be rejected as a cycle")
	}
}

// TestBlockRoundTrip is property 3.
func TestBlockRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateProject(ctx, CreateProjectRequest{ID: "p1", Name: "P1"}); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	task, err := e.AddTask(ctx, AddTaskRequest{ProjectID: "p1", Title: "t1", TaskType: TaskChore})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	original := task.Status

	if _, err := e.BlockTask(ctx, task.ID, "tester", "waiting on design"); err != nil {
		t.Fatalf("BlockTask failed: %v", err)
	}
	task, err = e.UnblockTask(ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("UnblockTask failed: %v", err)
	}
	if task.Status != original {
		t.Fatalf("expected round-trip back to %s, got %s", original, task.Status)
	}
}

// TestCompletionFlagInvariant is property 5.
func TestCompletionFlagInvariant(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	no := false
	if _, err := e.CreateProject(ctx, CreateProjectRequest{ID: "p1", Name: "P1", HasBuildStep: &no, HasDeployStep: &no}); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	task, err := e.AddTask(ctx, AddTaskRequest{ProjectID: "p1", Title: "t1", TaskType: TaskHotfix})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if task.CompletedAt != nil {
		t.Fatal("expected completed_at to be nil before completion")
	}

	task, err = e.StartTask(ctx, task.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	task, err = e.RequestReview(ctx, task.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	task, err = e.MergeTask(ctx, task.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != StatusDone || task.CompletedAt == nil {
		t.Fatalf("expected done with completed_at set, got %+v", task)
	}

	task, err = e.CancelTask(ctx, task.ID, "tester", "no longer needed")
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != StatusCancelled || task.CompletedAt != nil {
		t.Fatalf("expected cancelled with completed_at cleared, got %+v", task)
	}
}

// TestLockEnforcement is property 8.
func TestLockEnforcement(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateProject(ctx, CreateProjectRequest{ID: "p1", Name: "P1"}); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	cmd, err := e.AddCommand(ctx, AddCommandRequest{ProjectID: "p1", Label: "deploy", Command: "echo deploy"})
	if err != nil {
		t.Fatalf("AddCommand failed: %v", err)
	}
	if _, err := e.LockCommand(ctx, cmd.ID, "tester"); err != nil {
		t.Fatalf("LockCommand failed: %v", err)
	}

	newCmd := "echo updated"
	if _, err := e.UpdateCommand(ctx, cmd.ID, UpdateCommandRequest{Command: &newCmd}); err == nil {
		t.Fatal("expected update of a locked command without force+reason to fail")
	}
	if _, err := e.UpdateCommand(ctx, cmd.ID, UpdateCommandRequest{Command: &newCmd, Force: true, Reason: "hotfix"}); err != nil {
		t.Fatalf("expected forced update with reason to succeed: %v", err)
	}
	if err := e.RemoveCommand(ctx, cmd.ID, false, ""); err == nil {
		t.Fatal("expected removal of a locked command without force+reason to fail")
	}
}

