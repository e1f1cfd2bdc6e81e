package cli

import (
	"fmt"
	"os"

	"github.com/re-cinq/taskforge/internal/supervisor"
	"github.com/spf13/cobra"
)

var (
	logsTailBytes int64
	logsMaxBytes  int64
)

func init() {
	logsCmd.Flags().Int64VarP(&logsTailBytes, "tail", "n", 8192, "Bytes to show from the end of the log")
	logsCmd.Flags().Int64Var(&logsMaxBytes, "max", 0, "Cap the number of bytes returned (0 = no cap)")
	rootCmd.AddCommand(logsCmd)
}

var logsCmd = &cobra.Command{
	Use:   "logs <supervised-task-id>",
	Short: "Show spooled output for a supervised process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAndValidateConfig(configPath)
		if err != nil {
			return err
		}

		proc := supervisor.New(supervisor.Config{
			BaseDir:         cfg.Supervisor.BaseDir,
			AllowedCwds:     cfg.Supervisor.AllowedCwds,
			BlockedEnv:      cfg.Supervisor.BlockedEnv,
			MaxLogSizeBytes: cfg.Supervisor.MaxLogSizeBytes,
			StopTimeout:     cfg.Supervisor.StopTimeout.Duration(),
		})
		if err := proc.Init(); err != nil {
			return err
		}

		data, err := proc.Logs(supervisor.LogsRequest{
			ID:        args[0],
			TailBytes: logsTailBytes,
			MaxBytes:  logsMaxBytes,
		})
		if err != nil {
			return err
		}
		if len(data) == 0 {
			fmt.Fprintf(os.Stderr, "no log output for %q\n", args[0])
			return nil
		}
		os.Stdout.Write(data)
		return nil
	},
}
