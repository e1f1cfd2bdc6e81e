package acceptance_test

import (
	"encoding/json"
	"fmt"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func runActionRaw(configPath, name string, params map[string]any) (string, error) {
	raw, err := json.Marshal(params)
	Expect(err).NotTo(HaveOccurred())

	out, runErr := runCLI(configPath, "action", name, "--json", string(raw))
	if runErr != nil {
		return "", fmt.Errorf("%s: %s", runErr, out)
	}
	return out, nil
}

func runAction(configPath, name string, params map[string]any) (map[string]any, error) {
	out, err := runActionRaw(configPath, name, params)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return nil, fmt.Errorf("decoding response %q: %w", out, err)
	}
	return result, nil
}

func runActionList(configPath, name string, params map[string]any) ([]any, error) {
	out, err := runActionRaw(configPath, name, params)
	if err != nil {
		return nil, err
	}
	var result []any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return nil, fmt.Errorf("decoding response %q: %w", out, err)
	}
	return result, nil
}

var _ = Describe("taskforge action", func() {
	var tmpDir, configPath string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "taskforge-action-*")
		Expect(err).NotTo(HaveOccurred())
		configPath = newTestConfig(tmpDir)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("rejects an unknown action", func() {
		out, err := runCLI(configPath, "action", "not_a_real_action", "--json", "{}")
		Expect(err).To(HaveOccurred())
		Expect(out).To(ContainSubstring("Unknown action: not_a_real_action"))
	})

	It("reports missing required fields", func() {
		out, err := runCLI(configPath, "action", "project_create", "--json", `{"name":"Example"}`)
		Expect(err).To(HaveOccurred())
		Expect(out).To(ContainSubstring("id required"))
	})

	It("creates a project, adds a task, and lists both back out", func() {
		_, err := runAction(configPath, "project_create", map[string]any{
			"id":   "proj-1",
			"name": "Example Project",
		})
		Expect(err).NotTo(HaveOccurred())

		task, err := runAction(configPath, "task_add", map[string]any{
			"project_id": "proj-1",
			"title":      "Write the onboarding doc",
			"task_type":  "feature",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(task["status"]).To(Equal("requirements"))

		tasks, err := runActionList(configPath, "task_list", map[string]any{
			"project_id": "proj-1",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(tasks).To(HaveLen(1))
	})

	It("coerces numeric-looking strings from the CLI's --json flag", func() {
		_, err := runAction(configPath, "project_create", map[string]any{
			"id":   "proj-2",
			"name": "Numeric Coercion Project",
		})
		Expect(err).NotTo(HaveOccurred())

		task, err := runAction(configPath, "task_add", map[string]any{
			"project_id": "proj-2",
			"title":      "Triaged task",
			"task_type":  "bugfix",
			"priority":   "5",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(task["priority"]).To(Equal(float64(5)))
	})
})
