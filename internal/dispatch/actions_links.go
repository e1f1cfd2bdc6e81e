package dispatch

import (
	"context"

	"github.com/re-cinq/taskforge/internal/workflow"
)

func linkActions() map[string]actionDef {
	return map[string]actionDef{
		"link_add": {
			fields: []fieldSpec{
				{name: "project_id", typ: fString, required: true},
				{name: "label", typ: fString, required: true},
				{name: "url", typ: fString, required: true},
				{name: "category", typ: fString},
			},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.AddLink(ctx, p.str("project_id"), p.str("label"), p.str("url"),
					workflow.LinkCategory(p.str("category")))
			},
		},
		"link_remove": {
			fields: []fieldSpec{{name: "id", typ: fInt64, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return nil, d.engine.RemoveLink(ctx, p.int64Val("id"))
			},
		},
		"link_list": {
			fields: []fieldSpec{{name: "project_id", typ: fString, required: true}},
			handle: func(ctx context.Context, d *Dispatcher, p Params) (any, error) {
				return d.engine.ListLinks(ctx, p.str("project_id"))
			},
		},
	}
}
