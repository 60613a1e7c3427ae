package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/completion-review/internal/state"
)

var cleanupSessionID string

// cleanupCmd is an explicit opt-in operator action: the orchestrator
// never calls it automatically, so unbounded on-disk growth of
// session-scoped state remains the default behavior.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove a session's retry/debounce/override/todo state",
	Long: `cleanup deletes the retry, debounce, override, and todo state files (and
their locks) for one session. It never touches the process-global quota
record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cleanupSessionID == "" {
			return fmt.Errorf("cleanup: --session-id is required")
		}
		cfg := loadConfig()
		store := state.New(cfg.StateDir)
		if err := store.Cleanup(cleanupSessionID); err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleaned up session %s\n", cleanupSessionID)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupSessionID, "session-id", "", "session to clean up (required)")
	rootCmd.AddCommand(cleanupCmd)
}
