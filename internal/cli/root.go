package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskforge",
	Short: "Run and query the taskforge project/task workflow engine",
	Long: `taskforge is a project/task workflow engine. It tracks projects and
the tasks that move through them -- requirements, implementation, review,
merge, build, deploy -- backed by a relational store, a git worktree driver
for branching tasks, and a process supervisor for long-lived build/deploy
commands.

Every operation is one of a fixed set of named actions (project_create,
task_start, task_merge, ...); "taskforge action" invokes one directly, and
"taskforge serve" keeps the store and supervisor open as a long-lived
process.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "taskforge.yaml", "Path to taskforge config file")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskforge %s\n", Version)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
