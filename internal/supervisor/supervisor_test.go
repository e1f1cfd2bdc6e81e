package supervisor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	base := t.TempDir()
	s := New(Config{
		BaseDir:         base,
		AllowedCwds:     []string{base},
		BlockedEnv:      []string{"SECRET_TOKEN"},
		MaxLogSizeBytes: 1 << 20,
		StopTimeout:     2 * time.Second,
	})
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return s
}

// TestInitRecoversDeadPID is scenario S6: a state file with one non-terminal
// record pointing at a pid that cannot possibly be alive is flipped to
// lost by init(), and a subsequent start with replace:true succeeds.
func TestInitRecoversDeadPID(t *testing.T) {
	base := t.TempDir()
	doc := document{
		Version:   1,
		UpdatedAt: time.Now().UTC(),
		Tasks: map[string]*Record{
			"x": {
				ID:        "x",
				Status:    StatusRunning,
				PID:       999999,
				Command:   "echo hi",
				CreatedAt: time.Now().UTC(),
				UpdatedAt: time.Now().UTC(),
				LogPath:   filepath.Join(base, "logs", "x.log"),
			},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(base, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "state.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	s := New(Config{BaseDir: base, AllowedCwds: []string{base}})
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	rec, err := s.Status("x")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if rec.Status != StatusLost {
		t.Fatalf("expected status lost after init reconciliation, got %s", rec.Status)
	}
	if rec.EndedAt == nil {
		t.Fatal("expected EndedAt to be set on a recovered-lost record")
	}

	if _, err := s.Start(StartRequest{ID: "x", Command: "true", Replace: true}); err != nil {
		t.Fatalf("Start with replace:true after recovery failed: %v", err)
	}
	rec, err = s.Status("x")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if _, err := s.Wait(rec.ID, 3*time.Second); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

// TestInitIsIdempotent is property 7: calling init() on an already
// consistent state is a no-op — it neither errors nor mutates statuses.
func TestInitIsIdempotent(t *testing.T) {
	s := newTestSupervisor(t)

	rec, err := s.Start(StartRequest{Command: "true"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := s.Wait(rec.ID, 3*time.Second); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	before, err := s.Status(rec.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Init(); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}

	after, err := s.Status(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if before.Status != after.Status {
		t.Fatalf("Init mutated a consistent terminal status: %s -> %s", before.Status, after.Status)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	s := newTestSupervisor(t)

	rec, err := s.Start(StartRequest{Command: "sleep 30"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if rec.Status != StatusRunning {
		t.Fatalf("expected running immediately after start, got %s", rec.Status)
	}

	final, err := s.Stop(rec.ID, 2*time.Second)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if final.Status != StatusStopped && final.Status != StatusKilled {
		t.Fatalf("expected a terminal stop status, got %s", final.Status)
	}
}

func TestStartDuplicateIDWithoutReplaceFails(t *testing.T) {
	s := newTestSupervisor(t)

	rec, err := s.Start(StartRequest{Command: "true"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := s.Wait(rec.ID, 3*time.Second); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if _, err := s.Start(StartRequest{ID: rec.ID, Command: "true"}); err == nil {
		t.Fatal("expected duplicate id without replace to fail")
	}
}

func TestStartRejectsDisallowedCwd(t *testing.T) {
	s := newTestSupervisor(t)
	if _, err := s.Start(StartRequest{Command: "true", Cwd: "/definitely/not/allowed"}); err == nil {
		t.Fatal("expected a cwd outside allowedCwds to be rejected")
	}
}

func TestLogsCapturesOutput(t *testing.T) {
	s := newTestSupervisor(t)

	rec, err := s.Start(StartRequest{Command: "echo hello-world"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := s.Wait(rec.ID, 3*time.Second); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	out, err := s.Logs(LogsRequest{ID: rec.ID})
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty log output")
	}
}

func TestPruneRemovesTerminalRecords(t *testing.T) {
	s := newTestSupervisor(t)

	rec, err := s.Start(StartRequest{Command: "true"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := s.Wait(rec.ID, 3*time.Second); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	removed, err := s.Prune(0)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed record, got %d", removed)
	}
	if _, err := s.Status(rec.ID); err == nil {
		t.Fatal("expected pruned record to be gone")
	}
}
