package pipeline

import (
	"context"
	"testing"

	"github.com/harrison/scengine/internal/models"
)

func stubStage(name StageName, required bool, result models.StageResult) Stage {
	return Stage{
		Name:     name,
		Required: required,
		Run: func(ctx context.Context, dir string) (models.StageResult, error) {
			return result, nil
		},
	}
}

func TestRunAllStagesPass(t *testing.T) {
	p := New(
		stubStage(StageSyntax, true, models.StageResult{Passed: true}),
		stubStage(StageSecurity, true, models.StageResult{Passed: true}),
		stubStage(StageStyle, false, models.StageResult{Passed: true}),
		stubStage(StageTests, true, models.StageResult{Passed: true}),
		stubStage(StagePerformance, false, models.StageResult{Passed: true}),
	)

	result, err := p.Run(context.Background(), "/tmp/fake")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.SkippedStages) != 0 {
		t.Errorf("expected no skipped stages, got %v", result.SkippedStages)
	}
	if result.FatalStage != "" {
		t.Errorf("expected no fatal stage, got %s", result.FatalStage)
	}
}

func TestFatalRequiredStageSkipsDownstreamButCompletes(t *testing.T) {
	p := New(
		stubStage(StageSyntax, true, models.StageResult{Passed: true}),
		stubStage(StageSecurity, true, models.StageResult{
			Passed:           false,
			FatalEncountered: true,
			Findings:         []models.Finding{{Severity: models.SeverityCritical, Fatal: true, Message: "critical vuln"}},
		}),
		stubStage(StageStyle, false, models.StageResult{Passed: true}),
		stubStage(StageTests, true, models.StageResult{Passed: true}),
		stubStage(StagePerformance, false, models.StageResult{Passed: true}),
	)

	result, err := p.Run(context.Background(), "/tmp/fake")
	if err != nil {
		t.Fatal(err)
	}
	if result.FatalStage != StageSecurity {
		t.Errorf("expected fatal stage security, got %s", result.FatalStage)
	}
	if len(result.SkippedStages) != 3 {
		t.Fatalf("expected 3 stages skipped (style, tests, performance), got %v", result.SkippedStages)
	}
	if _, ran := result.Stages[StageStyle]; ran {
		t.Error("style stage should have been skipped after security fatal")
	}
	if _, ran := result.Stages[StageSecurity]; !ran {
		t.Error("security stage result should still be recorded")
	}
}

func TestOptionalStageNeverShortCircuits(t *testing.T) {
	p := New(
		stubStage(StageSyntax, true, models.StageResult{Passed: true}),
		stubStage(StageSecurity, true, models.StageResult{Passed: true}),
		stubStage(StageStyle, false, models.StageResult{
			Passed:           false,
			FatalEncountered: true,
			Findings:         []models.Finding{{Severity: models.SeverityMedium, Message: "style issue"}},
		}),
		stubStage(StageTests, true, models.StageResult{Passed: true}),
	)

	result, err := p.Run(context.Background(), "/tmp/fake")
	if err != nil {
		t.Fatal(err)
	}
	if _, ran := result.Stages[StageTests]; !ran {
		t.Error("optional stage's fatal flag must not skip downstream required stages")
	}
}

func TestUndeclaredStagesAreSkippedWithoutError(t *testing.T) {
	p := New(stubStage(StageSyntax, true, models.StageResult{Passed: true}))
	result, err := p.Run(context.Background(), "/tmp/fake")
	if err != nil {
		t.Fatal(err)
	}
	if _, ran := result.Stages[StageSecurity]; ran {
		t.Error("undeclared stage should not appear in results")
	}
}

func TestParseSecurityCounts(t *testing.T) {
	critical, high := parseSecurityCounts("Scan complete: 2 critical, 5 high issues found")
	if critical != 2 || high != 5 {
		t.Errorf("expected critical=2 high=5, got critical=%d high=%d", critical, high)
	}
}
