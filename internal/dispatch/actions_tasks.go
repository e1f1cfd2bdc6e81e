package dispatch

import (
	"context"

	"github.com/re-cinq/taskforge/internal/workflow"
)

func taskActions() map[string]actionDef {
	return map[string]actionDef{
		"task_add": {
			fields: []fieldSpec{
				{name: "project_id", typ: fString, required: true},
				{name: "title", typ: fString, required: true},
				{name: "description", typ: fString},
				{name: "task_type", typ: fString, required: true},
				{name: "priority", typ: fInt64},
				{name: "phase", typ: fString},
				{name: "assigned_model", typ: fString},
				{name: "requires_branching", typ: fBool},
				{name: "requires_human_review", typ: fBool},
			},
			schema: paramSchemas["task_add"],
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.AddTask(ctx, workflow.AddTaskRequest{
					ProjectID:           p.str("project_id"),
					Title:               p.str("title"),
					Description:         p.str("description"),
					TaskType:            workflow.TaskType(p.str("task_type")),
					Priority:            p.intVal("priority"),
					Phase:               p.str("phase"),
					AssignedModel:       p.str("assigned_model"),
					RequiresBranching:   p.boolPtr("requires_branching"),
					RequiresHumanReview: p.boolPtr("requires_human_review"),
				})
			},
		},
		"task_get": {
			fields: []fieldSpec{{name: "id", typ: fInt64, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.GetTaskContext(ctx, p.int64Val("id"))
			},
		},
		"task_list": {
			fields: []fieldSpec{{name: "project_id", typ: fString, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.ListTasks(ctx, p.str("project_id"))
			},
		},
		"task_update": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "title", typ: fString},
				{name: "description", typ: fString},
				{name: "priority", typ: fInt64},
				{name: "phase", typ: fString},
				{name: "assigned_model", typ: fString},
				{name: "review_notes", typ: fString},
				{name: "feedback", typ: fString},
				{name: "dev_server_url", typ: fString},
			},
			schema: paramSchemas["task_update"],
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				req := workflow.UpdateTaskRequest{
					Title:         p.strPtr("title"),
					Description:   p.strPtr("description"),
					Phase:         p.strPtr("phase"),
					AssignedModel: p.strPtr("assigned_model"),
					ReviewNotes:   p.strPtr("review_notes"),
					Feedback:      p.strPtr("feedback"),
					DevServerURL:  p.strPtr("dev_server_url"),
				}
				if n := p.int64Ptr("priority"); n != nil {
					v := int(*n)
					req.Priority = &v
				}
				return d.engine.UpdateTask(ctx, p.int64Val("id"), req)
			},
		},
		"task_next": {
			fields: []fieldSpec{{name: "project_id", typ: fString, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.NextTask(ctx, p.str("project_id"))
			},
		},
		"task_start": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.StartTask(ctx, p.int64Val("id"), p.str("actor"))
			},
		},
		"task_request_review": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.RequestReview(ctx, p.int64Val("id"), p.str("actor"))
			},
		},
		"task_approve": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
				{name: "reason", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.ApproveTask(ctx, p.int64Val("id"), p.str("actor"), p.str("reason"))
			},
		},
		"task_request_changes": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
				{name: "feedback", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.RequestChanges(ctx, p.int64Val("id"), p.str("actor"), p.str("feedback"))
			},
		},
		"task_merge": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.MergeTask(ctx, p.int64Val("id"), p.str("actor"))
			},
		},
		"task_resolve_conflict": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.ResolveConflict(ctx, p.int64Val("id"), p.str("actor"))
			},
		},
		"task_build": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.BuildTask(ctx, p.int64Val("id"), p.str("actor"))
			},
		},
		"task_deploy": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.DeployTask(ctx, p.int64Val("id"), p.str("actor"))
			},
		},
		"task_complete": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
				{name: "reason", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.CompleteTask(ctx, p.int64Val("id"), p.str("actor"), p.str("reason"))
			},
		},
		"task_cancel": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
				{name: "reason", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.CancelTask(ctx, p.int64Val("id"), p.str("actor"), p.str("reason"))
			},
		},
		"task_block": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
				{name: "reason", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.BlockTask(ctx, p.int64Val("id"), p.str("actor"), p.str("reason"))
			},
		},
		"task_unblock": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "actor", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.UnblockTask(ctx, p.int64Val("id"), p.str("actor"))
			},
		},
	}
}
