package dispatch

import (
	"context"

	"github.com/re-cinq/taskforge/internal/workflow"
)

func memoryActions() map[string]actionDef {
	return map[string]actionDef{
		"memory_add": {
			fields: []fieldSpec{
				{name: "project_id", typ: fString, required: true},
				{name: "category", typ: fString},
				{name: "content", typ: fString, required: true},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.AddMemory(ctx, p.str("project_id"), workflow.MemoryCategory(p.str("category")), p.str("content"))
			},
		},
		"memory_list": {
			fields: []fieldSpec{
				{name: "project_id", typ: fString, required: true},
				{name: "limit", typ: fInt64},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.ListMemory(ctx, p.str("project_id"), p.intVal("limit"))
			},
		},
		"memory_remove": {
			fields: []fieldSpec{{name: "id", typ: fInt64, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return nil, d.engine.RemoveMemory(ctx, p.int64Val("id"))
			},
		},
	}
}
