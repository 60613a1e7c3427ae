package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/boshu2/completion-review/internal/audit"
)

var auditDate string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log",
}

// auditTailCmd streams one calendar day's JSONL audit file to stdout for
// operator debugging, grounded on the teacher's read-path subcommands
// (status.go, metrics_report.go).
var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print one calendar day's audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sink := audit.New(cfg.StateDir)

		date := auditDate
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}

		events, err := sink.Tail(date)
		if err != nil {
			return fmt.Errorf("audit tail: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				return fmt.Errorf("audit tail: encode: %w", err)
			}
		}
		return nil
	},
}

func init() {
	auditTailCmd.Flags().StringVar(&auditDate, "date", "", "calendar date to tail (YYYY-MM-DD, default: today)")
	auditCmd.AddCommand(auditTailCmd)
	rootCmd.AddCommand(auditCmd)
}
