package supervisor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func (s *Supervisor) statePath() string { return filepath.Join(s.baseDir, "state.json") }
func (s *Supervisor) logsDir() string   { return filepath.Join(s.baseDir, "logs") }
func (s *Supervisor) pidsDir() string   { return filepath.Join(s.baseDir, "pids") }

func (s *Supervisor) logPath(id string) string {
	return filepath.Join(s.logsDir(), id+".log")
}

func (s *Supervisor) pidPath(id string) string {
	return filepath.Join(s.pidsDir(), id+".pid")
}

// loadLocked reads state.json into s.doc. Caller must hold s.mu. A missing
// file is not an error — it means an empty, fresh document.
func (s *Supervisor) loadLocked() error {
	data, err := os.ReadFile(s.statePath())
	if os.IsNotExist(err) {
		s.doc = &document{Version: 1, Tasks: map[string]*Record{}}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading state file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing state file: %w", err)
	}
	if doc.Tasks == nil {
		doc.Tasks = map[string]*Record{}
	}
	s.doc = &doc
	return nil
}

// saveLocked atomically persists s.doc via temp-file-then-rename. Caller
// must hold s.mu.
func (s *Supervisor) saveLocked() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("creating base dir: %w", err)
	}
	s.doc.UpdatedAt = nowFunc()

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	tmp, err := os.CreateTemp(s.baseDir, "state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.statePath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp state file: %w", err)
	}
	return nil
}
