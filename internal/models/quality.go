package models

import "time"

// QualityDimension is one of the nine axes the scorer evaluates.
type QualityDimension string

const (
	DimensionCorrectness     QualityDimension = "correctness"
	DimensionCompleteness    QualityDimension = "completeness"
	DimensionPerformance     QualityDimension = "performance"
	DimensionMaintainability QualityDimension = "maintainability"
	DimensionSecurity        QualityDimension = "security"
	DimensionScalability     QualityDimension = "scalability"
	DimensionTestability     QualityDimension = "testability"
	DimensionExternalReview  QualityDimension = "external_review"
	DimensionUsability       QualityDimension = "usability"
)

// DefaultDimensionWeights returns the default dimension weights,
// normalized to sum to 1.0. The raw proportions listed below total 1.1,
// so each is divided by that total.
func DefaultDimensionWeights() map[QualityDimension]float64 {
	const rawTotal = 1.1
	weights := map[QualityDimension]float64{
		DimensionCorrectness:     0.25,
		DimensionCompleteness:    0.20,
		DimensionPerformance:     0.10,
		DimensionMaintainability: 0.10,
		DimensionSecurity:        0.10,
		DimensionScalability:     0.10,
		DimensionTestability:     0.10,
		DimensionExternalReview:  0.10,
		DimensionUsability:       0.05,
	}
	for dim, w := range weights {
		weights[dim] = w / rawTotal
	}
	return weights
}

// Band is the coarse quality classification of a run.
type Band string

const (
	BandProductionReady Band = "production_ready"
	BandNeedsAttention  Band = "needs_attention"
	BandIterate         Band = "iterate"
)

// QualityAssessment is the deterministic output of the scorer.
type QualityAssessment struct {
	ScoresByDimension  map[QualityDimension]float64 `json:"scores_by_dimension"`
	WeightedScore      float64                       `json:"weighted_score"`
	CapApplied         *float64                      `json:"cap_applied,omitempty"`
	BonusApplied       float64                       `json:"bonus_applied"`
	FinalScore         float64                       `json:"final_score"`
	Band               Band                          `json:"band"`
	ImprovementsNeeded []string                      `json:"improvements_needed,omitempty"`
	Degraded           bool                          `json:"degraded,omitempty"`
}

// TerminationReason enumerates why the agentic loop stopped.
type TerminationReason string

const (
	TerminationQualityMet             TerminationReason = "QUALITY_MET"
	TerminationMaxIterations          TerminationReason = "MAX_ITERATIONS"
	TerminationInsufficientImprovement TerminationReason = "INSUFFICIENT_IMPROVEMENT"
	TerminationOscillation            TerminationReason = "OSCILLATION"
	TerminationStagnation             TerminationReason = "STAGNATION"
	TerminationTimeout                TerminationReason = "TIMEOUT"
	TerminationError                  TerminationReason = "ERROR"
	TerminationHumanEscalation        TerminationReason = "HUMAN_ESCALATION"
)

// IterationRecord captures one pass of the agentic loop.
type IterationRecord struct {
	Index             int               `json:"index"`
	StartedAt         time.Time         `json:"started_at"`
	FinishedAt        time.Time         `json:"finished_at"`
	AgentID           string            `json:"agent_id"`
	FeedbackIn        string            `json:"feedback_in,omitempty"`
	OutputDigest      string            `json:"output_digest"`
	Assessment        QualityAssessment `json:"assessment"`
	TerminationReason TerminationReason `json:"termination_reason,omitempty"`
}

// LoopResult is the final outcome of the bounded agentic loop.
type LoopResult struct {
	BestRecord   IterationRecord   `json:"best_record"`
	History      []IterationRecord `json:"history"`
	TerminatedBy TerminationReason `json:"terminated_by"`
}
