package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/scengine/internal/models"
	"github.com/harrison/scengine/internal/runindex"
)

// NewRunCommand creates the run subcommand.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run \"/namespace:command [flags] [args]\"",
		Short: "Execute one command through the agentic quality loop",
		Long: `run parses the given command invocation, selects an agent and model
tier, drives it through the bounded quality loop and prints the final
outcome.

Examples:
  engine run "/sc:implement add retry to the http client"
  engine run --timeout 10m "/sc:analyze internal/router"`,
		Args: cobra.ExactArgs(1),
		RunE: runCommand,
	}

	cmd.Flags().String("timeout", "", "Maximum total run time (e.g. 10m, 1h)")
	return cmd
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	eng, err := buildExecutor(cmd, cfg)
	if err != nil {
		return fmt.Errorf("assembling executor: %w", err)
	}

	deadlines := models.Deadlines{
		ProviderCall:   cfg.Timeouts.ProviderCall,
		ConsensusQuery: cfg.Timeouts.ConsensusQuery,
		Stage:          cfg.Timeouts.Stage,
		Iteration:      cfg.Timeouts.Iteration,
		Run:            cfg.Timeouts.Run,
	}
	if raw, _ := cmd.Flags().GetString("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		deadlines.Run = d
	}

	workingDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	startedAt := time.Now().UTC()
	result, err := eng.ExecuteText(cmd.Context(), args[0], workingDir, envView(), deadlines)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "invocation error: %v\n", err)
		return &ExitError{Code: 3}
	}
	recordRunIndex(cfg.Telemetry.MetricsDir, args[0], result, startedAt, time.Now().UTC())

	printResult(cmd.OutOrStdout(), result)
	if code := result.Outcome.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// recordRunIndex appends this run's summary to the additive SQLite run
// index; a failure here never fails the run itself, since the JSONL
// event log already recorded the authoritative outcome.
func recordRunIndex(metricsDir, command string, result models.ExecuteResult, startedAt, finishedAt time.Time) {
	idx, err := runindex.Open(filepath.Join(metricsDir, "index.db"))
	if err != nil {
		return
	}
	defer idx.Close()
	_ = idx.Upsert(runindex.FromResult(result, command, startedAt, finishedAt))
}

func printResult(w io.Writer, result models.ExecuteResult) {
	fmt.Fprintf(w, "run_id: %s\n", result.RunID)
	fmt.Fprintf(w, "outcome: %s\n", result.Outcome)
	fmt.Fprintf(w, "termination: %s\n", result.TerminationReason)
	fmt.Fprintf(w, "iterations_used: %d\n", result.IterationsUsed)
	if result.FinalAssessment != nil {
		fmt.Fprintf(w, "final_score: %.1f (%s)\n", result.FinalAssessment.FinalScore, result.FinalAssessment.Band)
	}
	if result.Consensus != nil {
		fmt.Fprintf(w, "consensus: %s (agreement %.2f)\n", result.Consensus.WinningVerdict, result.Consensus.AgreementScore)
		if len(result.Consensus.Dissent) > 0 {
			fmt.Fprintf(w, "dissent: %s\n", strings.Join(result.Consensus.Dissent, ", "))
		}
	}
	fmt.Fprintf(w, "evidence: %s\n", result.EvidencePath)
	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "errors:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}
