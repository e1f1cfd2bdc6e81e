package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/re-cinq/taskforge/internal/dispatch"
	"github.com/spf13/cobra"
)

var actionJSON string

func init() {
	actionCmd.Flags().StringVar(&actionJSON, "json", "{}", "JSON-encoded parameter map for the action")
	rootCmd.AddCommand(actionCmd)
}

var actionCmd = &cobra.Command{
	Use:   "action <name>",
	Short: "Invoke a single named action and print its JSON response",
	Long: `Invoke one of the 38 named actions (project_create, task_start,
task_merge, ...) against the taskforge store, printing the JSON-encoded
response to stdout. Exits non-zero and prints the error to stderr on
failure, matching scripting/testing parity with the action-table model.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAndValidateConfig(configPath)
		if err != nil {
			return err
		}

		var params dispatch.Params
		if err := json.Unmarshal([]byte(actionJSON), &params); err != nil {
			return fmt.Errorf("parsing --json: %w", err)
		}

		d, st, err := buildDispatcher(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		result, err := d.Dispatch(context.Background(), args[0], params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}
