package acceptance_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("taskforge status", func() {
	var tmpDir, configPath string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "taskforge-status-*")
		Expect(err).NotTo(HaveOccurred())
		configPath = newTestConfig(tmpDir)

		_, err = runAction(configPath, "project_create", map[string]any{
			"id":   "proj-status",
			"name": "Status Project",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Context("with no tasks", func() {
		It("reports an empty board", func() {
			out, err := runCLI(configPath, "status", "proj-status")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("(no tasks)"))
		})
	})

	Context("with a task", func() {
		BeforeEach(func() {
			_, err := runAction(configPath, "task_add", map[string]any{
				"project_id": "proj-status",
				"title":      "Build the status board",
				"task_type":  "feature",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("lists the task in requirements status", func() {
			out, err := runCLI(configPath, "status", "proj-status")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Build the status board"))
			Expect(out).To(ContainSubstring("requirements"))
		})
	})
})
