package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/harrison/scengine/internal/models"
)

// HardMaxIterations is an absolute ceiling no configuration may raise;
// callers pass their own (already-clamped) MaxIterations.
const (
	HardMaxIterations = 5
	MinImprovement    = 5.0
	OscillationWindow = 3
	StagnationDelta   = 2.0
	QualityTarget     = 90.0
)

// Improver runs one iteration: executes the agent (optionally with
// feedback from the prior iteration), collects signals, and returns the
// deterministic score inputs for that attempt. An output digest is
// returned alongside for the iteration record; the agent ID comes from
// RunLoop's own agentID argument.
type Improver func(ctx context.Context, feedback string) (ScoreInputs, string, error)

// RunLoop drives the bounded agentic loop: EXECUTE -> COLLECT_SIGNALS ->
// SCORE -> DECIDE, repeating until a termination condition fires.
func RunLoop(ctx context.Context, maxIterations int, deadline time.Time, agentID string, improve Improver) models.LoopResult {
	effectiveMax := maxIterations
	if effectiveMax > HardMaxIterations || effectiveMax <= 0 {
		effectiveMax = HardMaxIterations
	}

	var history []models.IterationRecord
	var scores []float64
	feedback := ""
	best := models.IterationRecord{}

	for i := 0; i < effectiveMax; i++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			record := models.IterationRecord{Index: i, TerminationReason: models.TerminationTimeout}
			history = append(history, record)
			return finalize(history, best, models.TerminationTimeout)
		}

		start := time.Now()
		inputs, digest, err := improve(ctx, feedback)
		if err != nil {
			record := models.IterationRecord{
				Index:             i,
				StartedAt:         start,
				FinishedAt:        time.Now(),
				AgentID:           agentID,
				FeedbackIn:        feedback,
				TerminationReason: models.TerminationError,
			}
			history = append(history, record)
			return finalize(history, best, models.TerminationError)
		}

		assessment := Score(inputs)
		record := models.IterationRecord{
			Index:        i,
			StartedAt:    start,
			FinishedAt:   time.Now(),
			AgentID:      agentID,
			FeedbackIn:   feedback,
			OutputDigest: digest,
			Assessment:   assessment,
		}

		if i == 0 || assessment.FinalScore > best.Assessment.FinalScore {
			best = record
		}
		scores = append(scores, assessment.FinalScore)

		reason := decide(i, effectiveMax, scores, assessment)
		record.TerminationReason = reason
		history = append(history, record)

		if reason != "" {
			return finalize(history, best, reason)
		}

		feedback = buildFeedback(assessment)
	}

	return finalize(history, best, models.TerminationMaxIterations)
}

func finalize(history []models.IterationRecord, best models.IterationRecord, reason models.TerminationReason) models.LoopResult {
	return models.LoopResult{
		BestRecord:   best,
		History:      history,
		TerminatedBy: reason,
	}
}

// decide evaluates the DECIDE branch of the state machine for one
// completed iteration. An empty return means continue looping.
func decide(index, maxIterations int, scores []float64, assessment models.QualityAssessment) models.TerminationReason {
	if assessment.FinalScore >= QualityTarget {
		return models.TerminationQualityMet
	}
	if index+1 >= maxIterations {
		return models.TerminationMaxIterations
	}
	if index > 0 {
		// A regression (negative improvement) is left to oscillation/stagnation
		// detection rather than flagged here, or no alternating pattern could
		// ever be observed.
		improvement := scores[index] - scores[index-1]
		if improvement >= 0 && improvement < MinImprovement {
			return models.TerminationInsufficientImprovement
		}
	}
	if detectOscillation(scores) {
		return models.TerminationOscillation
	}
	if detectStagnation(scores) {
		return models.TerminationStagnation
	}
	return ""
}

// detectOscillation reports whether, within the last OscillationWindow+1
// scores (OscillationWindow adjacent deltas), each delta exceeds
// StagnationDelta in magnitude and successive deltas alternate in sign.
// A single sign flip between two deltas isn't "alternating" on its own;
// the pattern needs the full window of deltas to confirm it.
func detectOscillation(scores []float64) bool {
	if len(scores) < OscillationWindow+1 {
		return false
	}
	window := scores[len(scores)-(OscillationWindow+1):]

	deltas := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		d := window[i] - window[i-1]
		if abs(d) <= StagnationDelta {
			return false
		}
		deltas = append(deltas, d)
	}
	for i := 1; i < len(deltas); i++ {
		if sign(deltas[i]) == sign(deltas[i-1]) {
			return false
		}
	}
	return true
}

// detectStagnation reports whether, within the last OscillationWindow
// scores, the max-min range is at or below StagnationDelta.
func detectStagnation(scores []float64) bool {
	if len(scores) < OscillationWindow {
		return false
	}
	window := scores[len(scores)-OscillationWindow:]
	max, min := window[0], window[0]
	for _, s := range window {
		if s > max {
			max = s
		}
		if s < min {
			min = s
		}
	}
	return max-min <= StagnationDelta
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// buildFeedback renders the feedback packet appended to the improver's
// context: current score, dimension breakdown, and improvements
// needed. It never replaces the original task context.
func buildFeedback(assessment models.QualityAssessment) string {
	msg := fmt.Sprintf("Current quality score: %.1f (%s).", assessment.FinalScore, assessment.Band)
	if len(assessment.ImprovementsNeeded) > 0 {
		msg += " Needs improvement in: "
		for i, dim := range assessment.ImprovementsNeeded {
			if i > 0 {
				msg += ", "
			}
			msg += dim
		}
		msg += "."
	}
	return msg
}
