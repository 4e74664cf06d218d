package pipeline

import (
	"context"
	"strconv"
	"strings"

	"github.com/harrison/scengine/internal/models"
)

// ToolCommands names the external commands each stage shells out to.
// Any entry left empty skips that stage's tool invocation and reports
// a clean pass, letting callers opt a project out of a given check.
type ToolCommands struct {
	Lint         []string
	Typecheck    []string
	Build        []string
	Test         []string
	SecurityScan []string
	Benchmark    []string
}

// BuildStages constructs the five fixed pipeline stages wired to the
// given tool commands, all required except style and performance.
func BuildStages(tools ToolCommands) []Stage {
	return []Stage{
		{Name: StageSyntax, Required: true, Run: syntaxStage(tools)},
		{Name: StageSecurity, Required: true, Run: securityStage(tools)},
		{Name: StageStyle, Required: false, Run: styleStage(tools)},
		{Name: StageTests, Required: true, Run: testsStage(tools)},
		{Name: StagePerformance, Required: false, Run: performanceStage(tools)},
	}
}

func withFinding(sr models.StageResult, f models.Finding) models.StageResult {
	sr.Findings = append(sr.Findings, f)
	return sr
}

func syntaxStage(tools ToolCommands) func(context.Context, string) (models.StageResult, error) {
	return func(ctx context.Context, dir string) (models.StageResult, error) {
		if len(tools.Build) == 0 {
			return models.StageResult{Passed: true}, nil
		}
		out, err := RunShellCommand(ctx, dir, tools.Build[0], tools.Build[1:]...)
		if err != nil {
			sr := withFinding(models.StageResult{Passed: false, FatalEncountered: true}, models.Finding{
				Severity: models.SeverityCritical,
				Fatal:    true,
				Message:  "build failed: " + truncate(out, 2000),
			})
			return sr, nil
		}
		return models.StageResult{Passed: true}, nil
	}
}

func securityStage(tools ToolCommands) func(context.Context, string) (models.StageResult, error) {
	return func(ctx context.Context, dir string) (models.StageResult, error) {
		if len(tools.SecurityScan) == 0 {
			return models.StageResult{Passed: true}, nil
		}
		out, err := RunShellCommand(ctx, dir, tools.SecurityScan[0], tools.SecurityScan[1:]...)
		critical, high := parseSecurityCounts(out)

		result := models.StageResult{Passed: err == nil && critical == 0}
		if critical > 0 {
			result.FatalEncountered = true
			result = withFinding(result, models.Finding{
				Severity: models.SeverityCritical,
				Fatal:    true,
				Message:  strconv.Itoa(critical) + " critical security finding(s)",
			})
		}
		if high > 0 {
			result = withFinding(result, models.Finding{
				Severity: models.SeverityHigh,
				Message:  strconv.Itoa(high) + " high security finding(s)",
			})
		}
		return result, nil
	}
}

func styleStage(tools ToolCommands) func(context.Context, string) (models.StageResult, error) {
	return func(ctx context.Context, dir string) (models.StageResult, error) {
		if len(tools.Lint) == 0 {
			return models.StageResult{Passed: true}, nil
		}
		out, err := RunShellCommand(ctx, dir, tools.Lint[0], tools.Lint[1:]...)
		if err != nil {
			sr := withFinding(models.StageResult{Passed: false}, models.Finding{
				Severity: models.SeverityMedium,
				Message:  "lint issues: " + truncate(out, 2000),
			})
			return sr, nil
		}
		return models.StageResult{Passed: true}, nil
	}
}

func testsStage(tools ToolCommands) func(context.Context, string) (models.StageResult, error) {
	return func(ctx context.Context, dir string) (models.StageResult, error) {
		if len(tools.Test) == 0 {
			return models.StageResult{Passed: true}, nil
		}
		out, err := RunShellCommand(ctx, dir, tools.Test[0], tools.Test[1:]...)
		if err != nil {
			sr := withFinding(models.StageResult{Passed: false, FatalEncountered: true}, models.Finding{
				Severity: models.SeverityHigh,
				Fatal:    true,
				Message:  "test run failed: " + truncate(out, 2000),
			})
			return sr, nil
		}
		return models.StageResult{Passed: true}, nil
	}
}

func performanceStage(tools ToolCommands) func(context.Context, string) (models.StageResult, error) {
	return func(ctx context.Context, dir string) (models.StageResult, error) {
		if len(tools.Benchmark) == 0 {
			return models.StageResult{Passed: true}, nil
		}
		out, err := RunShellCommand(ctx, dir, tools.Benchmark[0], tools.Benchmark[1:]...)
		if err != nil {
			sr := withFinding(models.StageResult{Passed: false}, models.Finding{
				Severity: models.SeverityLow,
				Message:  "benchmark regression: " + truncate(out, 2000),
			})
			return sr, nil
		}
		return models.StageResult{Passed: true}, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}

// parseSecurityCounts extracts "N critical" / "N high" style counts
// from a security scanner's text output. Real scanners emit structured
// JSON in production; this best-effort fallback keeps the stage usable
// against any CLI tool that prints a plain summary line.
func parseSecurityCounts(output string) (critical, high int) {
	for _, line := range strings.Split(strings.ToLower(output), "\n") {
		if strings.Contains(line, "critical") {
			critical += countDigitsBefore(line, "critical")
		}
		if strings.Contains(line, "high") {
			high += countDigitsBefore(line, "high")
		}
	}
	return critical, high
}

func countDigitsBefore(line, keyword string) int {
	idx := strings.Index(line, keyword)
	if idx <= 0 {
		return 0
	}
	digitEnd := idx
	for digitEnd > 0 && line[digitEnd-1] == ' ' {
		digitEnd--
	}
	digitStart := digitEnd
	for digitStart > 0 && line[digitStart-1] >= '0' && line[digitStart-1] <= '9' {
		digitStart--
	}
	if digitStart == digitEnd {
		return 0
	}
	n, err := strconv.Atoi(line[digitStart:digitEnd])
	if err != nil {
		return 0
	}
	return n
}
