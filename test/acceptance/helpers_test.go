package acceptance_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	. "github.com/onsi/gomega"
)

// writeFile writes content to path, creating parent directories as needed.
func writeFile(path, content string) {
	Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
}

// newTestConfig writes a taskforge.yaml under tmpDir pointing storage at a
// fresh sqlite file and the supervisor at an allowed-cwd covering tmpDir
// itself, and returns the config path.
func newTestConfig(tmpDir string) string {
	configPath := filepath.Join(tmpDir, "taskforge.yaml")
	writeFile(configPath, fmt.Sprintf(`
storage:
  path: %q
  max_open_conns: 5
  conn_max_idle_time: "1m"

supervisor:
  base_dir: %q
  allowed_cwds:
    - %q
  max_log_size_bytes: 1048576
  stop_timeout: "5s"
`, filepath.Join(tmpDir, "taskforge.db"), filepath.Join(tmpDir, "supervisor"), tmpDir))
	return configPath
}

// runCLI runs the taskforge binary against configPath with the given
// action-surface args and returns combined stdout+stderr.
func runCLI(configPath string, args ...string) (string, error) {
	cmd := exec.Command(binaryPath, append([]string{"-c", configPath}, args...)...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
