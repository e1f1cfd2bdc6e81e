package cli

import (
	"context"
	"fmt"

	"github.com/re-cinq/taskforge/internal/gitdriver"
	"github.com/re-cinq/taskforge/internal/store"
	"github.com/re-cinq/taskforge/internal/workflow"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(depsCmd)
}

var depsCmd = &cobra.Command{
	Use:   "deps <project-id>",
	Short: "Visualize a project's task dependency graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAndValidateConfig(configPath)
		if err != nil {
			return err
		}

		ctx := context.Background()
		st, err := store.Open(store.Config{
			Path:            cfg.Storage.Path,
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			ConnMaxIdleTime: cfg.Storage.ConnMaxIdleTime.Duration(),
		})
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.RunMigrations(ctx); err != nil {
			return err
		}

		engine := workflow.New(st, gitdriver.New(cfg.Git.Binary), nil)
		tasks, err := engine.ListTasks(ctx, args[0])
		if err != nil {
			return err
		}

		titles := make(map[int64]string, len(tasks))
		hasParent := make(map[int64]bool, len(tasks))
		nodes := make(map[int64]*depNode, len(tasks))
		for _, t := range tasks {
			titles[t.ID] = t.Title
			nodes[t.ID] = &depNode{}
		}

		for _, t := range tasks {
			deps, err := engine.ListDependencies(ctx, t.ID)
			if err != nil {
				return err
			}
			for _, dep := range deps {
				// dep.TaskID depends on dep.DependsOnID: draw the edge
				// DependsOnID -> TaskID so dependencies render as roots
				// with their dependents underneath.
				nodes[dep.DependsOnID].downstream = append(nodes[dep.DependsOnID].downstream, dep.TaskID)
				hasParent[dep.TaskID] = true
			}
		}

		var roots []int64
		for _, t := range tasks {
			if !hasParent[t.ID] {
				roots = append(roots, t.ID)
			}
		}

		for _, root := range roots {
			printTaskBranch(nodes, titles, root, "", true)
		}
		return nil
	},
}

type depNode struct {
	downstream []int64
}

func printTaskBranch(nodes map[int64]*depNode, titles map[int64]string, id int64, prefix string, isLast bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	fmt.Printf("%s%s#%d %s\n", prefix, connector, id, titles[id])

	childPrefix := prefix
	if isLast {
		childPrefix += "    "
	} else {
		childPrefix += "│   "
	}

	n := nodes[id]
	for i, child := range n.downstream {
		printTaskBranch(nodes, titles, child, childPrefix, i == len(n.downstream)-1)
	}
}
