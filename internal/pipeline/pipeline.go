// Package pipeline implements the validation pipeline (C5): an ordered
// run of syntax/security/style/tests/performance stages that collects
// findings, stopping downstream required stages on a fatal finding
// without aborting the overall run.
package pipeline

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/harrison/scengine/internal/models"
)

// StageName identifies one of the five fixed pipeline stages, run in
// this declared order.
type StageName string

const (
	StageSyntax      StageName = "syntax"
	StageSecurity    StageName = "security"
	StageStyle       StageName = "style"
	StageTests       StageName = "tests"
	StagePerformance StageName = "performance"
)

// StageOrder is the fixed execution order for the pipeline.
var StageOrder = []StageName{StageSyntax, StageSecurity, StageStyle, StageTests, StagePerformance}

// Stage is one pipeline step. Required stages that report
// FatalEncountered cause remaining required-or-not stages to be
// skipped, but never abort the pipeline itself.
type Stage struct {
	Name     StageName
	Required bool
	Run      func(ctx context.Context, dir string) (models.StageResult, error)
}

// Result is the outcome of running an entire pipeline.
type Result struct {
	Stages         map[StageName]models.StageResult
	SkippedStages  []StageName
	FatalStage     StageName
	AllFindings    []models.Finding
}

// Pipeline runs an ordered, fixed set of validation stages against a
// working directory.
type Pipeline struct {
	stages []Stage
}

// New builds a Pipeline from the given stages, which must appear in
// StageOrder (stages not supplied are treated as absent, not failing).
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes every stage in fixed order against dir, honoring the
// fatal-on-required-stage short-circuit rule.
func (p *Pipeline) Run(ctx context.Context, dir string) (Result, error) {
	result := Result{Stages: make(map[StageName]models.StageResult)}

	byName := make(map[StageName]Stage, len(p.stages))
	for _, s := range p.stages {
		byName[s.Name] = s
	}

	fatalHit := false
	for _, name := range StageOrder {
		stage, declared := byName[name]
		if !declared {
			continue
		}

		if fatalHit {
			result.SkippedStages = append(result.SkippedStages, name)
			continue
		}

		stageResult, err := stage.Run(ctx, dir)
		if err != nil {
			return result, fmt.Errorf("stage %s failed to execute: %w", name, err)
		}
		stageResult.Stage = string(name)
		result.Stages[name] = stageResult
		result.AllFindings = append(result.AllFindings, stageResult.Findings...)

		if stage.Required && stageResult.FatalEncountered {
			fatalHit = true
			result.FatalStage = name
		}
	}

	return result, nil
}

// RunShellCommand is the shared os/exec hook used by stage
// implementations that shell out to an external tool (lint, test
// runner, etc.), matching the corpus's command-shelling idiom. It never
// mutates dir's contents itself; stages built on it must be idempotent.
func RunShellCommand(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}
