package dispatch

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// paramSchemas holds one reflection-derived, resolved JSON Schema per
// action parameter shape below. Each is built once at package init and
// reused across every Dispatcher instance.
var paramSchemas = map[string]*jsonschema.Resolved{
	"project_create": resolve[projectCreateParams](),
	"project_update": resolve[projectUpdateParams](),
	"cmd_add":        resolve[cmdAddParams](),
	"cmd_update":     resolve[cmdUpdateParams](),
	"cmd_run":        resolve[cmdRunParams](),
	"task_add":       resolve[taskAddParams](),
	"task_update":    resolve[taskUpdateParams](),
}

// resolve generates and resolves a JSON Schema for T, panicking on a
// malformed schema definition. Every schema here is a package-literal Go
// struct, so a panic can only ever be hit in development, never at
// request-handling time.
func resolve[T any]() *jsonschema.Resolved {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("dispatch: building schema for %T: %v", *new(T), err))
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("dispatch: resolving schema for %T: %v", *new(T), err))
	}
	return resolved
}

// The structs below exist purely to describe each action's parameter
// shape to jsonschema.For; field presence/requiredness for the
// "X required" error text is still enforced by the fieldSpec table in
// each actions_*.go file, not by these tags.

type projectCreateParams struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	WorkspacePath   string `json:"workspace_path,omitempty"`
	RemoteURL       string `json:"remote_url,omitempty"`
	TelegramTopicID int64  `json:"telegram_topic_id,omitempty"`
	HasBuildStep    *bool  `json:"has_build_step,omitempty"`
	HasDeployStep   *bool  `json:"has_deploy_step,omitempty"`
}

type projectUpdateParams struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	Description     string `json:"description,omitempty"`
	WorkspacePath   string `json:"workspace_path,omitempty"`
	RemoteURL       string `json:"remote_url,omitempty"`
	TelegramTopicID int64  `json:"telegram_topic_id,omitempty"`
	HasBuildStep    *bool  `json:"has_build_step,omitempty"`
	HasDeployStep   *bool  `json:"has_deploy_step,omitempty"`
	State           string `json:"state,omitempty"`
}

type cmdAddParams struct {
	ProjectID    string `json:"project_id"`
	Label        string `json:"label"`
	Command      string `json:"command"`
	Category     string `json:"category,omitempty"`
	RunMode      string `json:"run_mode,omitempty"`
	TaskRunnerID string `json:"task_runner_id,omitempty"`
}

type cmdUpdateParams struct {
	ID           int64  `json:"id"`
	Label        string `json:"label,omitempty"`
	Command      string `json:"command,omitempty"`
	Category     string `json:"category,omitempty"`
	RunMode      string `json:"run_mode,omitempty"`
	TaskRunnerID string `json:"task_runner_id,omitempty"`
	Force        bool   `json:"force,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type cmdRunParams struct {
	ID        int64  `json:"id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Label     string `json:"label,omitempty"`
	TaskID    int64  `json:"task_id,omitempty"`
	TimeoutMs int64  `json:"timeout_ms,omitempty"`
}

type taskAddParams struct {
	ProjectID           string `json:"project_id"`
	Title               string `json:"title"`
	Description         string `json:"description,omitempty"`
	TaskType            string `json:"task_type"`
	Priority            int64  `json:"priority,omitempty"`
	Phase               string `json:"phase,omitempty"`
	AssignedModel       string `json:"assigned_model,omitempty"`
	RequiresBranching   *bool  `json:"requires_branching,omitempty"`
	RequiresHumanReview *bool  `json:"requires_human_review,omitempty"`
}

type taskUpdateParams struct {
	ID            int64  `json:"id"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	Priority      int64  `json:"priority,omitempty"`
	Phase         string `json:"phase,omitempty"`
	AssignedModel string `json:"assigned_model,omitempty"`
	ReviewNotes   string `json:"review_notes,omitempty"`
	Feedback      string `json:"feedback,omitempty"`
	DevServerURL  string `json:"dev_server_url,omitempty"`
}
