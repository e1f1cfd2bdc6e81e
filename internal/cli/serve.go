package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Own the Storage Adapter and Process Supervisor for the life of the process",
	Long: `serve opens the Storage Adapter and runs Process Supervisor crash
recovery (reconciling any task left running across a prior restart), then
blocks until interrupted. It does not itself loop or accept requests:
every action is dispatched synchronously by whatever caller invokes it
(the "taskforge action" subcommand, or an embedding program importing
internal/dispatch directly), which opens its own store connection and
supervisor over the same configured paths.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAndValidateConfig(configPath)
		if err != nil {
			return err
		}

		_, st, err := buildDispatcher(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		fmt.Printf("taskforge serving (storage=%s, supervisor=%s)\n", cfg.Storage.Path, cfg.Supervisor.BaseDir)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("shutting down")
		return nil
	},
}
