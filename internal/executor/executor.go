// Package executor implements the command executor (C8): the single
// component aware of the full dependency graph, orchestrating one
// command as the state machine PARSE -> RESOLVE_METADATA ->
// DERIVE_CONTEXT -> SELECT_AGENT -> [OPEN_WORKTREE?] -> PLAN ->
// EXECUTE_PRIMARY -> RUN_VALIDATION -> COLLECT_SIGNALS -> SCORE -> LOOP?
// -> FINALIZE -> RETURN RESULT.
package executor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/scengine/internal/agent"
	"github.com/harrison/scengine/internal/config"
	"github.com/harrison/scengine/internal/logger"
	"github.com/harrison/scengine/internal/models"
	"github.com/harrison/scengine/internal/parser"
	"github.com/harrison/scengine/internal/pipeline"
	"github.com/harrison/scengine/internal/provider"
	"github.com/harrison/scengine/internal/quality"
	"github.com/harrison/scengine/internal/router"
	"github.com/harrison/scengine/internal/telemetry"
	"github.com/harrison/scengine/internal/worktree"
)

// Executor wires together every component the engine needs to run one
// command and is the only type in the module aware of all of them.
type Executor struct {
	Config       *config.EngineConfig
	Logger       logger.Logger
	Commands     *parser.Registry
	Agents       *agent.Registry
	Selector     *agent.Selector
	Providers    *provider.Registry
	Router       *router.Router
	Worktrees    *worktree.Manager
	ToolCommands pipeline.ToolCommands

	// NewRunID generates the run identifier; overridable for deterministic
	// tests, defaulting to a random uuid in production.
	NewRunID func() string
}

// New builds an Executor from its component dependencies.
func New(cfg *config.EngineConfig, log logger.Logger, commands *parser.Registry, agents *agent.Registry, providers *provider.Registry, rt *router.Router, worktrees *worktree.Manager, tools pipeline.ToolCommands) *Executor {
	return &Executor{
		Config:       cfg,
		Logger:       log,
		Commands:     commands,
		Agents:       agents,
		Selector:     agent.NewSelector(agents),
		Providers:    providers,
		Router:       rt,
		Worktrees:    worktrees,
		ToolCommands: tools,
		NewRunID:     func() string { return uuid.New().String() },
	}
}

// Execute runs one command to completion and returns its terminal
// ExecuteResult. A non-nil error indicates an invocation-time failure
// (unknown command, invalid flag) that never reached a run_id; every
// other failure mode is reported inside ExecuteResult with Outcome
// "failed" and a structured cause in Errors.
func (e *Executor) Execute(ctx context.Context, req models.ExecuteRequest) (models.ExecuteResult, error) {
	meta, ok := e.Commands.Get(req.Command.Name)
	if !ok {
		return models.ExecuteResult{}, newExecutionError(CauseUnknownCommand, req.Command.FullName())
	}
	if errs := parser.ValidateFlags(req.Command, meta.FlagsSpec); len(errs) > 0 {
		return models.ExecuteResult{}, newExecutionError(CauseInvalidFlag, errs[0].Error())
	}
	if meta.RequiresEvidence && !e.Worktrees.IsGitRepo(ctx, req.WorkingDir) {
		return models.ExecuteResult{}, newExecutionError(CauseNotGitRepo, "requires_evidence commands must run inside a tracked git repository")
	}

	runID := e.NewRunID()
	recorder, err := telemetry.NewRecorder(e.Config.Telemetry.MetricsDir, runID)
	if err != nil {
		return models.ExecuteResult{}, fmt.Errorf("opening telemetry recorder: %w", err)
	}
	recorder.Record("executor", "run.started", false, map[string]interface{}{
		"command": req.Command.FullName(),
	})
	e.Logger.Info("run started", "run_id", runID, "command", req.Command.FullName())

	taskCtx := deriveContext(req.Command, req.WorkingDir)
	selectedAgent := e.selectAgent(meta, taskCtx, recorder)

	var wt *models.Worktree
	if meta.Expectations.ExpectsFileChanges {
		w, openErr := e.Worktrees.Open(ctx, "HEAD")
		if openErr != nil {
			return e.fail(recorder, runID, CauseWorktreeConflict, openErr.Error()), nil
		}
		wt = w
	}
	runDir := req.WorkingDir
	if wt != nil {
		runDir = wt.RootPath
	}

	model, err := e.Router.SelectModel(tierForComplexity(meta.Complexity))
	if err != nil {
		e.discardIfOpen(ctx, wt)
		return e.fail(recorder, runID, CauseNoProvider, err.Error()), nil
	}
	recorder.Record("router", "model.selected", false, map[string]interface{}{
		"provider": model.Provider,
		"model_id": model.ModelID,
		"degraded": e.Config.OfflineMode,
	})

	var consensus *models.ConsensusResult
	if meta.RequiresConsensus {
		consensus = e.runConsensus(ctx, req.Command, meta, selectedAgent, recorder)
	}

	validationPipeline := pipeline.New(pipeline.BuildStages(e.ToolCommands)...)

	var lastSignals models.Signals
	improve := func(ctx context.Context, feedback string) (quality.ScoreInputs, string, error) {
		prompt := buildPrompt(req.Command, meta, selectedAgent, feedback)
		resp, chatErr := e.Providers.ChatWithModel(ctx, model.Provider, model.ModelID, prompt, provider.ChatParams{MaxTokens: 4096})
		if chatErr != nil {
			recorder.Record("provider", "chat.error", false, map[string]interface{}{"error": chatErr.Error()})
			return quality.ScoreInputs{}, "", chatErr
		}

		stageResult, runErr := validationPipeline.Run(ctx, runDir)
		if runErr != nil {
			return quality.ScoreInputs{}, "", runErr
		}
		recorder.Record("pipeline", "stages.completed", stageResult.FatalStage != "", map[string]interface{}{
			"fatal_stage": string(stageResult.FatalStage),
			"skipped":     stageResult.SkippedStages,
		})

		lastSignals = deriveSignals(stageResult)
		scores := deriveDimensionScores(stageResult, lastSignals)
		return quality.ScoreInputs{Scores: scores, Signals: lastSignals}, digest(resp.Text), nil
	}

	deadline := time.Time{}
	if req.Deadlines.Run > 0 {
		deadline = time.Now().Add(req.Deadlines.Run)
	}
	loopResult := quality.RunLoop(ctx, e.Config.Loop.MaxIterations, deadline, selectedAgent.ID, improve)
	recorder.Record("quality", "loop.terminated", true, map[string]interface{}{
		"terminated_by": string(loopResult.TerminatedBy),
		"iterations":    len(loopResult.History),
	})

	if loopResult.TerminatedBy == models.TerminationError {
		e.discardIfOpen(ctx, wt)
		return e.fail(recorder, runID, CausePipelineFatal, "agent or validation pipeline failed to execute"), nil
	}

	var diff models.DiffSummary
	if wt != nil {
		diff, _ = e.Worktrees.Diff(ctx, wt)
	}
	hasTestArtifacts := lastSignals.Tests.Total > 0 || lastSignals.TestsChanged > 0
	if meta.RequiresEvidence && diff.IsEmpty() && !hasTestArtifacts {
		e.discardIfOpen(ctx, wt)
		return e.fail(recorder, runID, CauseMissingEvidence, "requires_evidence set but no diff or test artifacts were produced"), nil
	}
	if meta.Expectations.RequiresDiff && diff.IsEmpty() {
		e.discardIfOpen(ctx, wt)
		return e.fail(recorder, runID, CauseMissingEvidence, "requires_diff set but no changes were produced"), nil
	}

	outcome := outcomeFor(loopResult)
	if consensus != nil && len(consensus.Dissent) > 0 && outcome == models.OutcomeOK {
		outcome = models.OutcomeOKWithWarnings
	}
	if wt != nil {
		if outcome == models.OutcomeFailed {
			_ = e.Worktrees.Discard(ctx, wt)
		} else if mergeErr := e.Worktrees.Merge(ctx, wt); mergeErr != nil {
			return e.fail(recorder, runID, CauseWorktreeConflict, mergeErr.Error()), nil
		}
	}

	evidence := models.EvidenceRecord{
		RunID:      runID,
		Command:    req.Command,
		Signals:    lastSignals,
		Assessment: loopResult.BestRecord.Assessment,
		Consensus:  consensus,
	}
	evidencePath := telemetry.EvidencePath(e.Config.Telemetry.MetricsDir, runID)
	if raw, marshalErr := json.Marshal(evidence); marshalErr == nil {
		_ = telemetry.WriteEvidence(e.Config.Telemetry.MetricsDir, runID, raw)
	}

	recorder.Record("executor", "run.finished", true, map[string]interface{}{"outcome": string(outcome)})
	e.Logger.Info("run finished", "run_id", runID, "outcome", string(outcome), "iterations", len(loopResult.History))

	assessment := loopResult.BestRecord.Assessment
	return models.ExecuteResult{
		RunID:             runID,
		Outcome:           outcome,
		FinalAssessment:   &assessment,
		Consensus:         consensus,
		EvidencePath:      evidencePath,
		IterationsUsed:    len(loopResult.History),
		TerminationReason: loopResult.TerminatedBy,
	}, nil
}

// runConsensus fans the command's primary prompt out to every candidate
// model in the consensus tier and votes on the result, covering the
// "decide consensus?" branch of PLAN.
func (e *Executor) runConsensus(ctx context.Context, cmd models.Command, meta *models.CommandMetadata, a *agent.Agent, recorder *telemetry.Recorder) *models.ConsensusResult {
	tier := meta.ConsensusTier
	if tier == "" {
		tier = tierForComplexity(meta.Complexity)
	}
	candidates := e.Config.Router.Tiers[tier]
	if len(candidates) < 2 {
		return nil
	}

	query := models.ConsensusQuery{
		Prompt:   buildPrompt(cmd, meta, a, ""),
		Models:   candidates,
		Quorum:   defaultQuorum(len(candidates)),
		TieBreak: models.TieBreakPriority,
	}
	result := e.Router.Consensus(ctx, query, e.Config.Timeouts.ConsensusQuery, extractVerdict)
	recorder.Record("router", "consensus.voted", false, map[string]interface{}{
		"winning_verdict": result.WinningVerdict,
		"agreement_score": result.AgreementScore,
		"reason":          result.Reason,
	})
	return &result
}

func extractVerdict(resp *provider.ChatResponse) string {
	return strings.TrimSpace(resp.Text)
}

// defaultQuorum implements ceil(n/2)+1, the default agreement
// threshold for n consensus voters.
func defaultQuorum(n int) int {
	return (n+1)/2 + 1
}

// ExecuteText parses raw textual input before running Execute, covering
// the PARSE state for callers (the CLI) that only have the raw command
// line rather than an already-parsed Command.
func (e *Executor) ExecuteText(ctx context.Context, raw, workingDir string, envView map[string]string, deadlines models.Deadlines) (models.ExecuteResult, error) {
	cmd, err := parser.Parse(raw)
	if err != nil {
		return models.ExecuteResult{}, newExecutionError(CauseUnknownCommand, err.Error())
	}
	return e.Execute(ctx, models.ExecuteRequest{
		Command:    cmd,
		WorkingDir: workingDir,
		Flags:      cmd.Flags,
		EnvView:    envView,
		Deadlines:  deadlines,
	})
}

func (e *Executor) selectAgent(meta *models.CommandMetadata, taskCtx models.TaskContext, recorder *telemetry.Recorder) *agent.Agent {
	if meta.DefaultAgent != "" {
		if a, ok := e.Agents.Get(meta.DefaultAgent); ok {
			return a
		}
	}
	a, score, rationale := e.Selector.Select(taskCtx, agent.Filters{})
	recorder.Record("agent", "agent.selected", false, map[string]interface{}{
		"agent_id":  a.ID,
		"score":     score,
		"rationale": rationale.Reason,
	})
	return a
}

func (e *Executor) discardIfOpen(ctx context.Context, wt *models.Worktree) {
	if wt == nil {
		return
	}
	_ = e.Worktrees.Discard(ctx, wt)
}

func (e *Executor) fail(recorder *telemetry.Recorder, runID string, cause Cause, detail string) models.ExecuteResult {
	recorder.Record("executor", "run.failed", true, map[string]interface{}{
		"cause":  string(cause),
		"detail": detail,
	})
	return models.ExecuteResult{
		RunID:   runID,
		Outcome: models.OutcomeFailed,
		Errors:  []string{newExecutionError(cause, detail).Error()},
	}
}

func tierForComplexity(complexity string) string {
	switch complexity {
	case "high":
		return "deep_thinking"
	case "low":
		return "fast_iteration"
	default:
		return "deep_thinking"
	}
}

func outcomeFor(result models.LoopResult) models.Outcome {
	assessment := result.BestRecord.Assessment
	switch result.TerminatedBy {
	case models.TerminationError:
		return models.OutcomeFailed
	case models.TerminationQualityMet:
		if assessment.Degraded {
			return models.OutcomeOKWithWarnings
		}
		return models.OutcomeOK
	default:
		if assessment.Band == models.BandProductionReady {
			return models.OutcomeOK
		}
		if assessment.Band == models.BandNeedsAttention {
			return models.OutcomeOKWithWarnings
		}
		return models.OutcomeNeedsIteration
	}
}

func buildPrompt(cmd models.Command, meta *models.CommandMetadata, a *agent.Agent, feedback string) string {
	instruction := fmt.Sprintf("[%s] %s\n\n%s", a.ID, meta.Description, cmd.RawText)
	return agent.EnhanceLoopPrompt(instruction, feedback)
}

func digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
