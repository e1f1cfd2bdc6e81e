// Package dispatch implements the action dispatcher: a flat router over a
// fixed set of 38 action names, each backed by a table of typed parameter
// specs. A shared normalization pass checks required fields and coerces
// primitive fields; for the actions that have one, a per-action JSON Schema
// (github.com/google/jsonschema-go) then validates the normalized map
// before the request is handed to the Workflow Engine.
//
// One file per concern, registered onto a shared action table, never
// reinterpreting a collaborator's error -- only reshaping it for the
// caller.
package dispatch

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/re-cinq/taskforge/internal/apperr"
	"github.com/re-cinq/taskforge/internal/supervisor"
	"github.com/re-cinq/taskforge/internal/workflow"
)

// Params is the free-form, string-keyed parameter map an action request
// carries.
type Params map[string]any

// fieldType is the set of primitive shapes the normalization pass
// recognizes: string, int64, bool, and string-slice parameters.
type fieldType int

const (
	fString fieldType = iota
	fInt64
	fBool
	fStringSlice
)

// fieldSpec describes one expected parameter of an action.
type fieldSpec struct {
	name     string
	typ      fieldType
	required bool
}

// actionDef is one entry in the dispatcher's method table.
type actionDef struct {
	fields  []fieldSpec
	schema  *jsonschema.Resolved
	handle  func(ctx context.Context, d *Dispatcher, p Params) (any, error)
}

// Dispatcher routes action envelopes onto the Workflow Engine and Process
// Supervisor.
type Dispatcher struct {
	engine  *workflow.Engine
	proc    *supervisor.Supervisor
	actions map[string]actionDef
}

// New constructs a Dispatcher over its two collaborators and builds the
// 38-action method table.
func New(engine *workflow.Engine, proc *supervisor.Supervisor) *Dispatcher {
	d := &Dispatcher{engine: engine, proc: proc}
	d.actions = d.buildActionTable()
	return d
}

// Supervisor exposes the Process Supervisor the Dispatcher was constructed
// with (nil when none was supplied).
func (d *Dispatcher) Supervisor() *supervisor.Supervisor { return d.proc }

// Dispatch validates, normalizes, and executes a single action envelope.
// Unknown actions fail with "Unknown action: {name}"; missing required
// fields fail with a stable "X required" message, produced
// before schema validation so wire compatibility holds regardless of the
// schema layer's own error text.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, raw Params) (any, error) {
	def, ok := d.actions[name]
	if !ok {
		return nil, apperr.Invalid(fmt.Sprintf("Unknown action: %s", name))
	}
	if raw == nil {
		raw = Params{}
	}

	p, err := normalize(raw, def.fields)
	if err != nil {
		return nil, err
	}

	if def.schema != nil {
		if err := def.schema.Validate(map[string]any(p)); err != nil {
			return nil, apperr.Invalid(err.Error())
		}
	}

	return def.handle(ctx, d, p)
}

// normalize walks fields, reporting every missing required field as one
// apperr.Required error, and coercing present fields to their expected
// primitive shape in place.
func normalize(raw Params, fields []fieldSpec) (Params, error) {
	out := make(Params, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	var missing []string
	for _, f := range fields {
		v, present := out[f.name]
		if !present || isEmptyValue(v) {
			if f.required {
				missing = append(missing, f.name)
			}
			continue
		}
		coerced, ok := coerce(v, f.typ)
		if !ok {
			return nil, apperr.Invalid(fmt.Sprintf("%s has the wrong type", f.name))
		}
		out[f.name] = coerced
	}
	if len(missing) > 0 {
		return nil, apperr.Required(missing...)
	}
	return out, nil
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}

func coerce(v any, typ fieldType) (any, bool) {
	switch typ {
	case fString:
		switch t := v.(type) {
		case string:
			return t, true
		case fmt.Stringer:
			return t.String(), true
		}
		return fmt.Sprintf("%v", v), true
	case fInt64:
		return coerceInt64(v)
	case fBool:
		return coerceBool(v)
	case fStringSlice:
		return coerceStringSlice(v)
	default:
		return v, true
	}
}

func coerceInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		var n int64
		if _, err := fmt.Sscanf(t, "%d", &n); err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func coerceBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch t {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
		return false, false
	case float64:
		return t != 0, true
	default:
		return false, false
	}
}

func coerceStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// --- typed accessors used by action handlers once normalize has run ---

func (p Params) str(name string) string {
	v, _ := p[name].(string)
	return v
}

func (p Params) strPtr(name string) *string {
	v, ok := p[name]
	if !ok {
		return nil
	}
	s, _ := v.(string)
	return &s
}

func (p Params) int64Val(name string) int64 {
	v, _ := p[name].(int64)
	return v
}

func (p Params) int64Ptr(name string) *int64 {
	v, ok := p[name]
	if !ok {
		return nil
	}
	n, _ := v.(int64)
	return &n
}

func (p Params) boolPtr(name string) *bool {
	v, ok := p[name]
	if !ok {
		return nil
	}
	b, _ := v.(bool)
	return &b
}

func (p Params) boolVal(name string, def bool) bool {
	v, ok := p[name]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func (p Params) intVal(name string) int {
	return int(p.int64Val(name))
}
