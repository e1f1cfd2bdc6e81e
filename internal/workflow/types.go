// Package workflow is the workflow engine: projects, links, stored
// commands, tasks, dependencies, status history, attempts, and memory, all
// driven through a declarative state machine and backed by the storage
// adapter and git driver.
package workflow

import "time"

// ProjectState is a project's lifecycle state.
type ProjectState string

const (
	ProjectPlanning ProjectState = "planning"
	ProjectActive   ProjectState = "active"
	ProjectPaused   ProjectState = "paused"
	ProjectComplete ProjectState = "complete"
	ProjectArchived ProjectState = "archived"
)

// Project is a row in the projects table.
type Project struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	WorkspacePath  string       `json:"workspacePath,omitempty"`
	RemoteURL      string       `json:"remoteUrl,omitempty"`
	TelegramTopic  int64        `json:"telegramTopicId,omitempty"`
	HasBuildStep   bool         `json:"hasBuildStep"`
	HasDeployStep  bool         `json:"hasDeployStep"`
	State          ProjectState `json:"state"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// TaskType is the creation-time category driving default branching/review
// flags.
type TaskType string

const (
	TaskFeature   TaskType = "feature"
	TaskBugfix    TaskType = "bugfix"
	TaskIteration TaskType = "iteration"
	TaskHotfix    TaskType = "hotfix"
	TaskChore     TaskType = "chore"
)

// TaskStatus is one of the 12 task lifecycle states.
type TaskStatus string

const (
	StatusRequirements     TaskStatus = "requirements"
	StatusImplementing     TaskStatus = "implementing"
	StatusReviewRequested  TaskStatus = "review_requested"
	StatusChangesRequested TaskStatus = "changes_requested"
	StatusApproved         TaskStatus = "approved"
	StatusMerging          TaskStatus = "merging"
	StatusMergeConflict    TaskStatus = "merge_conflict"
	StatusBuilding         TaskStatus = "building"
	StatusDeploying        TaskStatus = "deploying"
	StatusDone             TaskStatus = "done"
	StatusBlocked          TaskStatus = "blocked"
	StatusCancelled        TaskStatus = "cancelled"
)

// Terminal reports whether s admits no further transitions other than
// cancellation (done and cancelled are the two terminal states).
func (s TaskStatus) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// Task is a row in the project_tasks table.
type Task struct {
	ID                  int64      `json:"id"`
	ProjectID           string     `json:"projectId"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	TaskType            TaskType   `json:"taskType"`
	Status              TaskStatus `json:"status"`
	StatusBeforeBlocked TaskStatus `json:"statusBeforeBlocked,omitempty"`
	RequiresBranching   bool       `json:"requiresBranching"`
	RequiresHumanReview bool       `json:"requiresHumanReview"`
	Priority            int        `json:"priority"`
	Phase               string     `json:"phase,omitempty"`
	AssignedModel       string     `json:"assignedModel,omitempty"`
	GitBranch           string     `json:"gitBranch,omitempty"`
	WorktreePath        string     `json:"worktreePath,omitempty"`
	DevServerURL        string     `json:"devServerUrl,omitempty"`
	ReviewNotes         string     `json:"reviewNotes,omitempty"`
	Feedback            string     `json:"feedback,omitempty"`
	BlockReason         string     `json:"blockReason,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
}

// TaskDependency is a "parent must be done before child" edge.
type TaskDependency struct {
	TaskID      int64 `json:"taskId"`
	DependsOnID int64 `json:"dependsOnId"`
}

// TaskStatusHistory is an append-only transition log row.
type TaskStatusHistory struct {
	ID        int64      `json:"id"`
	TaskID    int64      `json:"taskId"`
	From      TaskStatus `json:"from"`
	To        TaskStatus `json:"to"`
	Actor     string     `json:"actor,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AttemptOutcome is the result of a recorded agent run.
type AttemptOutcome string

const (
	OutcomeSuccess   AttemptOutcome = "success"
	OutcomePartial   AttemptOutcome = "partial"
	OutcomeFailed    AttemptOutcome = "failed"
	OutcomeAbandoned AttemptOutcome = "abandoned"
)

// TaskAttempt is an append-only record of one agent run against a task.
type TaskAttempt struct {
	ID         int64          `json:"id"`
	TaskID     int64          `json:"taskId"`
	SessionKey string         `json:"sessionKey,omitempty"`
	Model      string         `json:"model,omitempty"`
	Summary    string         `json:"summary,omitempty"`
	Outcome    AttemptOutcome `json:"outcome"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// LinkCategory categorizes a project link.
type LinkCategory string

const (
	LinkDev   LinkCategory = "dev"
	LinkProd  LinkCategory = "prod"
	LinkDocs  LinkCategory = "docs"
	LinkAdmin LinkCategory = "admin"
	LinkAPI   LinkCategory = "api"
	LinkOther LinkCategory = "other"
)

// ProjectLink is a labelled URL tied to a project.
type ProjectLink struct {
	ID        int64        `json:"id"`
	ProjectID string       `json:"projectId"`
	Label     string       `json:"label"`
	URL       string       `json:"url"`
	Category  LinkCategory `json:"category"`
	CreatedAt time.Time    `json:"createdAt"`
}

// CommandCategory categorizes a stored command.
type CommandCategory string

const (
	CmdDev    CommandCategory = "dev"
	CmdBuild  CommandCategory = "build"
	CmdTest   CommandCategory = "test"
	CmdDeploy CommandCategory = "deploy"
	CmdLint   CommandCategory = "lint"
	CmdDB     CommandCategory = "db"
	CmdOther  CommandCategory = "other"
)

// RunMode selects how a stored command is executed.
type RunMode string

const (
	RunModeExec RunMode = "exec"
	RunModeTask RunMode = "task"
)

// ProjectCommand is a named, project-scoped shell template.
type ProjectCommand struct {
	ID            int64           `json:"id"`
	ProjectID     string          `json:"projectId"`
	Label         string          `json:"label"`
	Command       string          `json:"command"`
	Category      CommandCategory `json:"category"`
	RunMode       RunMode         `json:"runMode"`
	TaskRunnerID  string          `json:"taskRunnerId,omitempty"`
	Locked        bool            `json:"locked"`
	LockedBy      string          `json:"lockedBy,omitempty"`
	LockedAt      *time.Time      `json:"lockedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// MemoryCategory categorizes a project memory note.
type MemoryCategory string

const (
	MemMistake   MemoryCategory = "mistake"
	MemLearning  MemoryCategory = "learning"
	MemConvention MemoryCategory = "convention"
	MemGotcha    MemoryCategory = "gotcha"
	MemDecision  MemoryCategory = "decision"
)

// ProjectMemory is a typed note attached to a project.
type ProjectMemory struct {
	ID        int64          `json:"id"`
	ProjectID string         `json:"projectId"`
	Category  MemoryCategory `json:"category"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ProjectContext is the bundle returned by project_get.
type ProjectContext struct {
	Project           *Project          `json:"project"`
	Links             []*ProjectLink    `json:"links"`
	Commands          []*ProjectCommand `json:"commands"`
	Tasks             []*Task           `json:"tasks"`
	TaskDependencies  []*TaskDependency `json:"taskDependencies"`
	RecentMemory      []*ProjectMemory  `json:"recentMemory"`
	RunningProcesses  []string          `json:"runningProcesses"`
}

// TaskContext is the bundle returned by task_get.
type TaskContext struct {
	Task         *Task                `json:"task"`
	Dependencies []*TaskDependency    `json:"dependencies"`
	Attempts     []*TaskAttempt       `json:"attempts"`
	StatusHistory []*TaskStatusHistory `json:"statusHistory"`
}
