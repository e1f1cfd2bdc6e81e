package acceptance_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("taskforge deps", func() {
	var tmpDir, configPath string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "taskforge-deps-*")
		Expect(err).NotTo(HaveOccurred())
		configPath = newTestConfig(tmpDir)

		_, err = runAction(configPath, "project_create", map[string]any{
			"id":   "proj-deps",
			"name": "Deps Project",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Context("with a chain of two dependent tasks", func() {
		It("draws the dependency edge root -> dependent", func() {
			schema, err := runAction(configPath, "task_add", map[string]any{
				"project_id": "proj-deps",
				"title":      "Design the schema",
				"task_type":  "feature",
			})
			Expect(err).NotTo(HaveOccurred())

			api, err := runAction(configPath, "task_add", map[string]any{
				"project_id": "proj-deps",
				"title":      "Build the API",
				"task_type":  "feature",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = runAction(configPath, "task_dep_add", map[string]any{
				"task_id":       int64(api["id"].(float64)),
				"depends_on_id": int64(schema["id"].(float64)),
			})
			Expect(err).NotTo(HaveOccurred())

			out, err := runCLI(configPath, "deps", "proj-deps")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Design the schema"))
			Expect(out).To(ContainSubstring("Build the API"))
			Expect(out).To(ContainSubstring("└── "))
		})
	})
})
