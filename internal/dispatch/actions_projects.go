package dispatch

import (
	"context"

	"github.com/re-cinq/taskforge/internal/workflow"
)

func projectActions() map[string]actionDef {
	return map[string]actionDef{
		"project_create": {
			fields: []fieldSpec{
				{name: "id", typ: fString, required: true},
				{name: "name", typ: fString, required: true},
				{name: "description", typ: fString},
				{name: "workspace_path", typ: fString},
				{name: "remote_url", typ: fString},
				{name: "telegram_topic_id", typ: fInt64},
				{name: "has_build_step", typ: fBool},
				{name: "has_deploy_step", typ: fBool},
			},
			schema: paramSchemas["project_create"],
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.CreateProject(ctx, workflow.CreateProjectRequest{
					ID:            p.str("id"),
					Name:          p.str("name"),
					Description:   p.str("description"),
					WorkspacePath: p.str("workspace_path"),
					RemoteURL:     p.str("remote_url"),
					TelegramTopic: p.int64Val("telegram_topic_id"),
					HasBuildStep:  p.boolPtr("has_build_step"),
					HasDeployStep: p.boolPtr("has_deploy_step"),
				})
			},
		},
		"project_get": {
			fields: []fieldSpec{{name: "id", typ: fString, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.GetProjectContext(ctx, p.str("id"))
			},
		},
		"project_list": {
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.ListProjects(ctx)
			},
		},
		"project_update": {
			fields: []fieldSpec{
				{name: "id", typ: fString, required: true},
				{name: "name", typ: fString},
				{name: "description", typ: fString},
				{name: "workspace_path", typ: fString},
				{name: "remote_url", typ: fString},
				{name: "telegram_topic_id", typ: fInt64},
				{name: "has_build_step", typ: fBool},
				{name: "has_deploy_step", typ: fBool},
				{name: "state", typ: fString},
			},
			schema: paramSchemas["project_update"],
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.UpdateProject(ctx, p.str("id"), workflow.UpdateProjectRequest{
					Name:          p.strPtr("name"),
					Description:   p.strPtr("description"),
					WorkspacePath: p.strPtr("workspace_path"),
					RemoteURL:     p.strPtr("remote_url"),
					TelegramTopic: p.int64Ptr("telegram_topic_id"),
					HasBuildStep:  p.boolPtr("has_build_step"),
					HasDeployStep: p.boolPtr("has_deploy_step"),
					State:         workflow.ProjectState(p.str("state")),
				})
			},
		},
		"project_delete": {
			fields: []fieldSpec{{name: "id", typ: fString, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return nil, d.engine.DeleteProject(ctx, p.str("id"))
			},
		},
	}
}
