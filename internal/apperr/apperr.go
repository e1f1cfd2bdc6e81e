// Package apperr defines the error taxonomy shared by the workflow engine,
// process supervisor, and action dispatcher.
package apperr

import "fmt"

// Kind classifies an error so the dispatcher can shape an envelope
// response without reinterpreting the underlying failure.
type Kind string

const (
	NotFound                 Kind = "not_found"
	InvalidArgument           Kind = "invalid_argument"
	IllegalTransition         Kind = "illegal_transition"
	IllegalProjectTransition  Kind = "illegal_project_transition"
	Locked                    Kind = "locked"
	Precondition              Kind = "precondition"
	Conflict                  Kind = "conflict"
	External                  Kind = "external"
)

// Error is a taxonomy-tagged error carrying a stable, user-facing message.
type Error struct {
	Kind Kind
	Msg  string
	err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.err }

func new(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap tags an existing error with a Kind, keeping its message and chain.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: err.Error(), err: err}
}

// KindOf returns the Kind of err if it (or something it wraps) is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind, true
	}
	return "", false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ProjectNotFound builds the "Project not found: {id}" error.
func ProjectNotFound(id string) *Error {
	return new(NotFound, fmt.Sprintf("Project not found: %s", id))
}

// TaskNotFound builds the "Task not found: {id}" error.
func TaskNotFound(id int64) *Error {
	return new(NotFound, fmt.Sprintf("Task not found: %d", id))
}

// CommandNotFound builds the "Command not found: {id}" error. id may be a
// numeric command id or a (projectId,label) lookup key.
func CommandNotFound(id any) *Error {
	return new(NotFound, fmt.Sprintf("Command not found: %v", id))
}

// Required builds the "{field} required" / "{a} and {b} required" error.
func Required(fields ...string) *Error {
	switch len(fields) {
	case 1:
		return new(InvalidArgument, fmt.Sprintf("%s required", fields[0]))
	case 2:
		return new(InvalidArgument, fmt.Sprintf("%s and %s required", fields[0], fields[1]))
	default:
		msg := ""
		for i, f := range fields {
			if i > 0 {
				msg += ", "
			}
			msg += f
		}
		return new(InvalidArgument, msg+" required")
	}
}

// Invalid wraps an arbitrary invalid-argument message.
func Invalid(msg string) *Error {
	return new(InvalidArgument, msg)
}

// TaskTransitionFailed builds the conditional-update failure message.
func TaskTransitionFailed(id int64, from, to string) *Error {
	return new(IllegalTransition, fmt.Sprintf("Task status transition failed for %d: %s -> %s", id, from, to))
}

// ProjectTransitionInvalid builds the project state transition error.
func ProjectTransitionInvalid(from, to string) *Error {
	return new(IllegalProjectTransition, fmt.Sprintf("Invalid project state transition: %s -> %s", from, to))
}

// CommandLocked builds the "Command {id} is locked" error.
func CommandLocked(id int64) *Error {
	return new(Locked, fmt.Sprintf("Command %d is locked", id))
}

// ForceReasonRequired builds the force/reason precondition error for locked commands.
func ForceReasonRequired() *Error {
	return new(Locked, "force reason required when mutating locked command")
}

// PreconditionFailed wraps an arbitrary precondition message.
func PreconditionFailed(msg string) *Error {
	return new(Precondition, msg)
}

// MergeFailed builds the "Merge failed: {output}" error.
func MergeFailed(output string) *Error {
	return new(Conflict, fmt.Sprintf("Merge failed: %s", output))
}

// Externalf wraps an arbitrary external-system failure.
func Externalf(format string, args ...any) *Error {
	return new(External, fmt.Sprintf(format, args...))
}
