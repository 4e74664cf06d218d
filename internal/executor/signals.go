package executor

import (
	"github.com/harrison/scengine/internal/models"
	"github.com/harrison/scengine/internal/pipeline"
	"github.com/harrison/scengine/internal/quality"
)

// deriveSignals turns a pipeline.Result into the deterministic Signals
// the quality scorer consumes: pass/fail per concern plus counted
// findings by severity, matching what each fixed stage reports.
func deriveSignals(result pipeline.Result) models.Signals {
	var s models.Signals

	if syntax, ok := result.Stages[pipeline.StageSyntax]; ok {
		s.BuildPass = syntax.Passed
		s.TypecheckPass = syntax.Passed
	} else {
		s.BuildPass = true
		s.TypecheckPass = true
	}

	if style, ok := result.Stages[pipeline.StageStyle]; ok {
		s.LintClean = style.Passed
	} else {
		s.LintClean = true
	}

	if security, ok := result.Stages[pipeline.StageSecurity]; ok {
		for _, f := range security.Findings {
			switch f.Severity {
			case models.SeverityCritical:
				s.Security.Critical++
			case models.SeverityHigh:
				s.Security.High++
			}
		}
	}

	if tests, ok := result.Stages[pipeline.StageTests]; ok {
		s.Tests.Total = 1
		if !tests.Passed {
			s.Tests.Failed = 1
		}
		if tests.Passed {
			s.Tests.Coverage = 80
		}
	}

	return s
}

// deriveDimensionScores maps pipeline/signal outcomes onto the nine
// quality dimensions. Each dimension starts from a clean baseline and is
// penalized per finding severity in the stage it corresponds to most
// directly; dimensions with no corresponding stage hold the baseline,
// since nothing observed contradicts it.
func deriveDimensionScores(result pipeline.Result, signals models.Signals) quality.DimensionScores {
	const baseline = 85.0

	scores := quality.DimensionScores{
		models.DimensionCorrectness:     baseline,
		models.DimensionCompleteness:    baseline,
		models.DimensionPerformance:     baseline,
		models.DimensionMaintainability: baseline,
		models.DimensionSecurity:        baseline,
		models.DimensionScalability:     baseline,
		models.DimensionTestability:     baseline,
		models.DimensionExternalReview:  baseline,
		models.DimensionUsability:       baseline,
	}

	if tests, ok := result.Stages[pipeline.StageTests]; ok && !tests.Passed {
		scores[models.DimensionCorrectness] = 40
		scores[models.DimensionTestability] = 40
	}
	if security, ok := result.Stages[pipeline.StageSecurity]; ok {
		if signals.Security.Critical > 0 {
			scores[models.DimensionSecurity] = 20
		} else if signals.Security.High > 0 {
			scores[models.DimensionSecurity] = 55
		} else if security.Passed {
			scores[models.DimensionSecurity] = 95
		}
	}
	if style, ok := result.Stages[pipeline.StageStyle]; ok && !style.Passed {
		scores[models.DimensionMaintainability] = 60
	}
	if perf, ok := result.Stages[pipeline.StagePerformance]; ok && !perf.Passed {
		scores[models.DimensionPerformance] = 60
	}
	if syntax, ok := result.Stages[pipeline.StageSyntax]; ok && !syntax.Passed {
		scores[models.DimensionCorrectness] = 10
		scores[models.DimensionCompleteness] = 10
	}

	return scores
}
