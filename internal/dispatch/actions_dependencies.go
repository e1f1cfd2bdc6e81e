package dispatch

import "context"

func dependencyActions() map[string]actionDef {
	return map[string]actionDef{
		"task_dep_add": {
			fields: []fieldSpec{
				{name: "task_id", typ: fInt64, required: true},
				{name: "depends_on_id", typ: fInt64, required: true},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.AddDependency(ctx, p.int64Val("task_id"), p.int64Val("depends_on_id"))
			},
		},
		"task_dep_remove": {
			fields: []fieldSpec{
				{name: "task_id", typ: fInt64, required: true},
				{name: "depends_on_id", typ: fInt64, required: true},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return nil, d.engine.RemoveDependency(ctx, p.int64Val("task_id"), p.int64Val("depends_on_id"))
			},
		},
		"task_dep_list": {
			fields: []fieldSpec{{name: "task_id", typ: fInt64, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.ListDependencies(ctx, p.int64Val("task_id"))
			},
		},
	}
}
