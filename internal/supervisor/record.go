// Package supervisor implements the Process Supervisor: a durable tracker
// of long-lived child processes, tagged, recoverable across restarts, with
// per-task log spooling.
//
// Atomic single-file JSON persistence under a mutex, PID-liveness checks
// via os.FindProcess + Signal(0), PTY-backed child output capture
// (github.com/creack/pty), and github.com/google/uuid for id generation.
package supervisor

import "time"

// Status is a Process Supervisor task's lifecycle status.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusFailed  Status = "failed"
	StatusKilled  Status = "killed"
	StatusTimeout Status = "timeout"
	StatusLost    Status = "lost"
)

// Terminal reports whether s is one of the terminal statuses.
func (s Status) Terminal() bool {
	switch s {
	case StatusStopped, StatusFailed, StatusKilled, StatusTimeout, StatusLost:
		return true
	}
	return false
}

// Record is the durable record of one supervised child process.
type Record struct {
	ID            string            `json:"id"`
	Status        Status            `json:"status"`
	PID           int               `json:"pid,omitempty"`
	Command       string            `json:"command"`
	Args          []string          `json:"args,omitempty"`
	Cwd           string            `json:"cwd,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	ProjectID     string            `json:"projectId,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	StartedAt     *time.Time        `json:"startedAt,omitempty"`
	EndedAt       *time.Time        `json:"endedAt,omitempty"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	ExitCode      *int              `json:"exitCode,omitempty"`
	ExitSignal    string            `json:"exitSignal,omitempty"`
	LogPath       string            `json:"logPath"`
	PIDPath       string            `json:"pidPath,omitempty"`
	StdinAttached bool              `json:"stdinAttached"`
}

// hasTag reports whether the record carries tag among its Tags.
func (r *Record) hasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// sharesTag reports whether r and other share at least one tag.
func (r *Record) sharesTag(other []string) bool {
	for _, t := range other {
		if r.hasTag(t) {
			return true
		}
	}
	return false
}

// document is the on-disk state.json shape.
type document struct {
	Version   int                `json:"version"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Tasks     map[string]*Record `json:"tasks"`
}
