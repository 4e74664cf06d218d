package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/scengine/internal/runindex"
	"github.com/harrison/scengine/internal/telemetry"
)

// NewEventsCommand creates the events subcommand and its tail/recent
// children. JSONL remains the authoritative log; the SQLite run index
// only accelerates "what ran recently" without re-scanning it.
func NewEventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect recorded run events",
	}
	cmd.AddCommand(newEventsTailCommand())
	cmd.AddCommand(newEventsRecentCommand())
	return cmd
}

func newEventsTailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tail <run-id>",
		Short: "Print every event recorded for one run, in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadEngineConfig(cmd)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			events, err := telemetry.ReadEvents(cfg.Telemetry.MetricsDir, args[0])
			if err != nil {
				return fmt.Errorf("reading events for run %s: %w", args[0], err)
			}
			for _, evt := range events {
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s.%s critical=%v %v\n",
					evt.Timestamp.Format(time.RFC3339), evt.RunID, evt.Stage, evt.Kind, evt.Critical, evt.Data)
			}
			return nil
		},
	}
}

func newEventsRecentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently finished runs from the run index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadEngineConfig(cmd)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			limit, _ := cmd.Flags().GetInt("limit")

			idx, err := runindex.Open(filepath.Join(cfg.Telemetry.MetricsDir, "index.db"))
			if err != nil {
				return fmt.Errorf("opening run index: %w", err)
			}
			defer idx.Close()

			records, err := idx.Recent(limit)
			if err != nil {
				return fmt.Errorf("querying run index: %w", err)
			}
			for _, rec := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\tscore=%.1f\titerations=%d\n",
					rec.RunID, rec.Command, rec.Outcome, rec.TerminationReason, rec.FinalScore, rec.IterationsUsed)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	return cmd
}
