package acceptance_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("taskforge validate", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "taskforge-validate-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Context("with a valid config", func() {
		It("exits with code 0 and reports valid", func() {
			configPath := newTestConfig(tmpDir)
			out, err := runCLI(configPath, "validate", configPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("valid"))
		})
	})

	Context("with invalid YAML syntax", func() {
		It("exits with a non-zero code and reports the parse error", func() {
			configPath := filepath.Join(tmpDir, "taskforge.yaml")
			writeFile(configPath, "storage:\n  path: [unterminated\n")
			out, err := runCLI(configPath, "validate", configPath)
			Expect(err).To(HaveOccurred())
			Expect(out).To(ContainSubstring("parsing YAML"))
		})
	})

	Context("missing allowed_cwds", func() {
		It("reports the validation error", func() {
			configPath := filepath.Join(tmpDir, "taskforge.yaml")
			writeFile(configPath, `
storage:
  path: "taskforge.db"

supervisor:
  max_log_size_bytes: 1048576
`)
			out, err := runCLI(configPath, "validate", configPath)
			Expect(err).To(HaveOccurred())
			Expect(out).To(ContainSubstring("allowed_cwds must list at least one allowed prefix"))
		})
	})

	Context("with a nonexistent file", func() {
		It("exits with a non-zero code", func() {
			_, err := runCLI(filepath.Join(tmpDir, "taskforge.yaml"), "validate", "/tmp/does-not-exist.yaml")
			Expect(err).To(HaveOccurred())
		})
	})
})
