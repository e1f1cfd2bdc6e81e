package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/re-cinq/taskforge/internal/gitdriver"
	"github.com/re-cinq/taskforge/internal/store"
	"github.com/re-cinq/taskforge/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	statusFollow   bool
	statusInterval float64
)

func init() {
	statusCmd.Flags().BoolVarP(&statusFollow, "follow", "f", false, "Live-update status (like watch)")
	statusCmd.Flags().Float64VarP(&statusInterval, "interval", "n", 2.0, "Seconds between updates (with --follow)")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status <project-id>",
	Short: "Show the status of every task in a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAndValidateConfig(configPath)
		if err != nil {
			return err
		}

		st, err := store.Open(store.Config{
			Path:            cfg.Storage.Path,
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			ConnMaxIdleTime: cfg.Storage.ConnMaxIdleTime.Duration(),
		})
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.RunMigrations(context.Background()); err != nil {
			return err
		}
		engine := workflow.New(st, gitdriver.New(cfg.Git.Binary), nil)

		if statusFollow {
			return followStatus(engine, args[0])
		}
		return showStatus(engine, args[0])
	},
}

func followStatus(engine *workflow.Engine, projectID string) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	interval := time.Duration(statusInterval * float64(time.Second))
	var lastOutput string

	for {
		var buf bytes.Buffer
		if err := renderStatus(&buf, engine, projectID); err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		output := buf.String()

		if output != lastOutput {
			fmt.Print("\033[H\033[2J")
			fmt.Printf("Every %.1fs: taskforge status %s\n\n", statusInterval, projectID)
			fmt.Print(output)
			lastOutput = output
		}

		select {
		case <-sigCh:
			fmt.Println()
			return nil
		case <-time.After(interval):
		}
	}
}

func showStatus(engine *workflow.Engine, projectID string) error {
	return renderStatus(os.Stdout, engine, projectID)
}

func renderStatus(w io.Writer, engine *workflow.Engine, projectID string) error {
	ctx := context.Background()
	tasks, err := engine.ListTasks(ctx, projectID)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Task Status")
	fmt.Fprintln(w, "──────────────────────────────────────")

	if len(tasks) == 0 {
		fmt.Fprintln(w, "  (no tasks)")
		return nil
	}

	for _, t := range tasks {
		symbol, _ := stateDisplay(t.Status)
		extra := ""
		if t.Status == workflow.StatusBlocked && t.BlockReason != "" {
			extra = fmt.Sprintf(" (%s)", t.BlockReason)
		}
		fmt.Fprintf(w, "  %s  #%-4d %-20s  %-18s  updated %s%s\n",
			symbol, t.ID, t.Title, t.Status, humanize.Time(t.UpdatedAt), extra)
	}
	return nil
}
