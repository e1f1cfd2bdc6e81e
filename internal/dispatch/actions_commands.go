package dispatch

import (
	"context"

	"github.com/re-cinq/taskforge/internal/workflow"
)

func commandActions() map[string]actionDef {
	return map[string]actionDef{
		"cmd_add": {
			fields: []fieldSpec{
				{name: "project_id", typ: fString, required: true},
				{name: "label", typ: fString, required: true},
				{name: "command", typ: fString, required: true},
				{name: "category", typ: fString},
				{name: "run_mode", typ: fString},
				{name: "task_runner_id", typ: fString},
			},
			schema: paramSchemas["cmd_add"],
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.AddCommand(ctx, workflow.AddCommandRequest{
					ProjectID:    p.str("project_id"),
					Label:        p.str("label"),
					Command:      p.str("command"),
					Category:     workflow.CommandCategory(p.str("category")),
					RunMode:      workflow.RunMode(p.str("run_mode")),
					TaskRunnerID: p.str("task_runner_id"),
				})
			},
		},
		"cmd_list": {
			fields: []fieldSpec{{name: "project_id", typ: fString, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.ListCommands(ctx, p.str("project_id"))
			},
		},
		"cmd_remove": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "force", typ: fBool},
				{name: "reason", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return nil, d.engine.RemoveCommand(ctx, p.int64Val("id"), p.boolVal("force", false), p.str("reason"))
			},
		},
		"cmd_update": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "label", typ: fString},
				{name: "command", typ: fString},
				{name: "category", typ: fString},
				{name: "run_mode", typ: fString},
				{name: "task_runner_id", typ: fString},
				{name: "force", typ: fBool},
				{name: "reason", typ: fString},
			},
			schema: paramSchemas["cmd_update"],
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				req := workflow.UpdateCommandRequest{
					Label:        p.strPtr("label"),
					Command:      p.strPtr("command"),
					TaskRunnerID: p.strPtr("task_runner_id"),
					Force:        p.boolVal("force", false),
					Reason:       p.str("reason"),
				}
				if v := p.strPtr("category"); v != nil {
					cat := workflow.CommandCategory(*v)
					req.Category = &cat
				}
				if v := p.strPtr("run_mode"); v != nil {
					mode := workflow.RunMode(*v)
					req.RunMode = &mode
				}
				return d.engine.UpdateCommand(ctx, p.int64Val("id"), req)
			},
		},
		"cmd_lock": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64, required: true},
				{name: "locked_by", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.LockCommand(ctx, p.int64Val("id"), p.str("locked_by"))
			},
		},
		"cmd_unlock": {
			fields: []fieldSpec{{name: "id", typ: fInt64, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.UnlockCommand(ctx, p.int64Val("id"))
			},
		},
		"cmd_run": {
			fields: []fieldSpec{
				{name: "id", typ: fInt64},
				{name: "project_id", typ: fString},
				{name: "label", typ: fString},
				{name: "task_id", typ: fInt64},
				{name: "timeout_ms", typ: fInt64},
			},
			schema: paramSchemas["cmd_run"],
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.RunCommand(ctx, workflow.RunCommandRequest{
					ID:        p.int64Val("id"),
					ProjectID: p.str("project_id"),
					Label:     p.str("label"),
					TaskID:    p.int64Val("task_id"),
					TimeoutMs: p.intVal("timeout_ms"),
				})
			},
		},
	}
}
