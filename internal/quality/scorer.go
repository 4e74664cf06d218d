// Package quality implements the deterministic quality scorer and
// bounded agentic loop (C6): per-dimension scoring with caps and
// bonuses, band classification, and iteration termination detection.
package quality

import (
	"github.com/harrison/scengine/internal/models"
)

// Thresholds below which a dimension is added to ImprovementsNeeded.
const improvementThreshold = 75.0

// DimensionScores maps each dimension to an evidence-backed score in
// [0,100]. ExternalReview may be absent (nil) when no reviewer was
// available; its weight is then proportionally redistributed.
type DimensionScores map[models.QualityDimension]float64

// ScoreInputs bundles everything the deterministic scorer needs.
type ScoreInputs struct {
	Scores          DimensionScores
	Signals         models.Signals
	ExternalMissing bool
}

// Score computes a full QualityAssessment from per-dimension scores and
// environment signals, applying caps then bonuses.
func Score(in ScoreInputs) models.QualityAssessment {
	weights := effectiveWeights(in.ExternalMissing)

	base := 0.0
	for dim, weight := range weights {
		base += in.Scores[dim] * weight
	}

	capped := base
	capApplied := false
	cap := applicableCap(in.Signals)
	if cap < capped {
		capped = cap
		capApplied = true
	}

	bonus := applicableBonus(in.Signals)
	final := clamp(capped+bonus, 0, 100)

	assessment := models.QualityAssessment{
		ScoresByDimension:   map[models.QualityDimension]float64(in.Scores),
		WeightedScore:       base,
		BonusApplied:        bonus,
		FinalScore:          final,
		Band:                band(final),
		ImprovementsNeeded:  improvementsNeeded(in.Scores),
		Degraded:            in.ExternalMissing,
	}
	if capApplied {
		c := cap
		assessment.CapApplied = &c
	}
	return assessment
}

// effectiveWeights returns the configured dimension weights,
// proportionally renormalized to sum to 1.0 when external_review is
// unavailable.
func effectiveWeights(externalMissing bool) map[models.QualityDimension]float64 {
	weights := models.DefaultDimensionWeights()
	if !externalMissing {
		return weights
	}

	delete(weights, models.DimensionExternalReview)
	remaining := 0.0
	for _, w := range weights {
		remaining += w
	}
	if remaining == 0 {
		return weights
	}
	normalized := make(map[models.QualityDimension]float64, len(weights))
	for dim, w := range weights {
		normalized[dim] = w / remaining
	}
	return normalized
}

// applicableCap returns the most restrictive cap triggered by signals,
// or 100 (no cap) if none apply.
func applicableCap(s models.Signals) float64 {
	cap := 100.0
	if s.Security.Critical > 0 {
		cap = min(cap, 30)
	} else if s.Security.High > 0 {
		cap = min(cap, 65)
	}
	rate := s.TestFailureRate()
	if rate > 0.5 {
		cap = min(cap, 40)
	} else if rate > 0.2 {
		cap = min(cap, 50)
	}
	if !s.BuildPass {
		cap = min(cap, 45)
	}
	return cap
}

// applicableBonus sums every triggered bonus, clamped to +25.
func applicableBonus(s models.Signals) float64 {
	bonus := 0.0
	if s.Tests.Coverage >= 80 {
		bonus += 10
	}
	if s.LintClean {
		bonus += 5
	}
	if s.TypecheckPass {
		bonus += 5
	}
	if s.Tests.Total > 0 && s.Tests.Failed == 0 {
		bonus += 5
	}
	if s.Security.Critical == 0 && s.Security.High == 0 {
		bonus += 5
	}
	return min(bonus, 25)
}

func band(score float64) models.Band {
	switch {
	case score >= 90:
		return models.BandProductionReady
	case score >= 75:
		return models.BandNeedsAttention
	default:
		return models.BandIterate
	}
}

// improvementsNeeded lists dimensions scoring below the threshold, in
// the dimension's declared iteration order for determinism.
func improvementsNeeded(scores DimensionScores) []string {
	var needed []string
	for _, dim := range dimensionOrder {
		if score, ok := scores[dim]; ok && score < improvementThreshold {
			needed = append(needed, string(dim))
		}
	}
	return needed
}

var dimensionOrder = []models.QualityDimension{
	models.DimensionCorrectness,
	models.DimensionCompleteness,
	models.DimensionPerformance,
	models.DimensionMaintainability,
	models.DimensionSecurity,
	models.DimensionScalability,
	models.DimensionTestability,
	models.DimensionExternalReview,
	models.DimensionUsability,
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
