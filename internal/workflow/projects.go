package workflow

import (
	"context"

	"github.com/re-cinq/taskforge/internal/apperr"
)

// CreateProjectRequest is the input to CreateProject (action project_create).
// HasBuildStep/HasDeployStep default to true when
// left nil; pass an explicit false to opt out.
type CreateProjectRequest struct {
	ID            string
	Name          string
	Description   string
	WorkspacePath string
	RemoteURL     string
	TelegramTopic int64
	HasBuildStep  *bool
	HasDeployStep *bool
}

// CreateProject inserts a new project in state "planning".
func (e *Engine) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	if req.ID == "" {
		return nil, apperr.Required("id")
	}
	if req.Name == "" {
		return nil, apperr.Required("name")
	}
	hasBuild := true
	if req.HasBuildStep != nil {
		hasBuild = *req.HasBuildStep
	}
	hasDeploy := true
	if req.HasDeployStep != nil {
		hasDeploy = *req.HasDeployStep
	}
	now := formatTime(e.now())
	_, err := e.store.Execute(ctx,
		`INSERT INTO projects (id, name, description, workspace_path, remote_url, telegram_topic_id, has_build_step, has_deploy_step, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'planning', ?, ?)`,
		req.ID, req.Name, req.Description, req.WorkspacePath, req.RemoteURL, req.TelegramTopic,
		boolToInt(hasBuild), boolToInt(hasDeploy), now, now)
	if err != nil {
		return nil, err
	}
	return e.ensureProject(ctx, req.ID)
}

// GetProjectContext returns the project_get bundle.
func (e *Engine) GetProjectContext(ctx context.Context, id string) (*ProjectContext, error) {
	proj, err := e.ensureProject(ctx, id)
	if err != nil {
		return nil, err
	}
	links, err := e.ListLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	commands, err := e.ListCommands(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := e.ListTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	var deps []*TaskDependency
	for _, t := range tasks {
		d, err := e.ListDependencies(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d...)
	}
	memory, err := e.ListMemory(ctx, id, 50)
	if err != nil {
		return nil, err
	}

	running := []string{}
	if e.proc != nil {
		for _, rec := range e.proc.List() {
			if rec.ProjectID == id && !rec.Status.Terminal() {
				running = append(running, rec.ID)
			}
		}
	}

	return &ProjectContext{
		Project:          proj,
		Links:            links,
		Commands:         commands,
		Tasks:            tasks,
		TaskDependencies: deps,
		RecentMemory:     memory,
		RunningProcesses: running,
	}, nil
}

// ListProjects returns every project row, newest first.
func (e *Engine) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := e.store.Query(ctx, "SELECT * FROM projects ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	out := make([]*Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanProject(r))
	}
	return out, nil
}

// UpdateProjectRequest is the input to UpdateProject (action project_update).
// Non-nil fields are applied; State, if non-empty, is validated against the
// project state machine.
type UpdateProjectRequest struct {
	Name          *string
	Description   *string
	WorkspacePath *string
	RemoteURL     *string
	TelegramTopic *int64
	HasBuildStep  *bool
	HasDeployStep *bool
	State         ProjectState
}

// UpdateProject applies a partial update, validating any requested state
// transition through the project state machine.
func (e *Engine) UpdateProject(ctx context.Context, id string, req UpdateProjectRequest) (*Project, error) {
	proj, err := e.ensureProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.State != "" && req.State != proj.State {
		if !isValidProjectTransition(proj.State, req.State) {
			return nil, apperr.ProjectTransitionInvalid(string(proj.State), string(req.State))
		}
	}

	name := proj.Name
	if req.Name != nil {
		name = *req.Name
	}
	desc := proj.Description
	if req.Description != nil {
		desc = *req.Description
	}
	workspace := proj.WorkspacePath
	if req.WorkspacePath != nil {
		workspace = *req.WorkspacePath
	}
	remote := proj.RemoteURL
	if req.RemoteURL != nil {
		remote = *req.RemoteURL
	}
	topic := proj.TelegramTopic
	if req.TelegramTopic != nil {
		topic = *req.TelegramTopic
	}
	hasBuild := proj.HasBuildStep
	if req.HasBuildStep != nil {
		hasBuild = *req.HasBuildStep
	}
	hasDeploy := proj.HasDeployStep
	if req.HasDeployStep != nil {
		hasDeploy = *req.HasDeployStep
	}
	state := proj.State
	if req.State != "" {
		state = req.State
	}

	_, err = e.store.Execute(ctx,
		`UPDATE projects SET name=?, description=?, workspace_path=?, remote_url=?, telegram_topic_id=?,
		 has_build_step=?, has_deploy_step=?, state=?, updated_at=? WHERE id=?`,
		name, desc, workspace, remote, topic, boolToInt(hasBuild), boolToInt(hasDeploy),
		string(state), formatTime(e.now()), id)
	if err != nil {
		return nil, err
	}
	return e.ensureProject(ctx, id)
}

// DeleteProject removes a project; foreign keys cascade to every owned row.
func (e *Engine) DeleteProject(ctx context.Context, id string) error {
	if _, err := e.ensureProject(ctx, id); err != nil {
		return err
	}
	_, err := e.store.Execute(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}
