package agent

import (
	"sort"
	"strings"

	"github.com/harrison/scengine/internal/models"
)

// Selection weights, defaults per the scoring function. They must sum to 1.0.
const (
	WeightTrigger     = 0.35
	WeightCategory    = 0.25
	WeightDescription = 0.20
	WeightTools       = 0.20

	// MinSelectionScore is the floor below which Select falls back to the
	// general-purpose agent.
	MinSelectionScore = 0.60

	// LanguageBoostFactor is the multiplicative modifier applied when the
	// context exposes a language the agent declares.
	LanguageBoostFactor = 1.15

	// RunnerUpMargin is how close a second-place score must be to the
	// leader's to be surfaced in the rationale as a near-tie.
	RunnerUpMargin = 0.02
)

// Filters narrows the selection candidate pool before scoring.
type Filters struct {
	RequiredTools    []string
	ExcludeIDs       []string
	RequiredCategory string
}

func (f Filters) excludes(id string) bool {
	for _, x := range f.ExcludeIDs {
		if x == id {
			return true
		}
	}
	return false
}

func (f Filters) satisfiedBy(a *Agent) bool {
	if f.RequiredCategory != "" && a.Category != f.RequiredCategory {
		return false
	}
	for _, tool := range f.RequiredTools {
		if !containsString(a.Tools, tool) {
			return false
		}
	}
	return true
}

// Candidate is one scored agent, returned as a runner-up in the rationale.
type Candidate struct {
	Agent *Agent
	Score float64
}

// Rationale explains why an agent was selected.
type Rationale struct {
	Reason    string // "scored" or "fallback"
	RunnersUp []Candidate
}

// Selector scores agents from a Registry against a TaskContext.
type Selector struct {
	Registry *Registry
}

// NewSelector builds a Selector over the given registry.
func NewSelector(reg *Registry) *Selector {
	return &Selector{Registry: reg}
}

// fallbackAgent is returned whenever no candidate clears MinSelectionScore,
// or the context carries no signal at all.
func fallbackAgent() *Agent {
	return &Agent{
		ID:          FallbackAgentID,
		Category:    "general",
		Description: "General-purpose agent used when no specialist scores above threshold.",
	}
}

// Select returns the highest-scoring agent whose filters are satisfied,
// the numeric score, and a rationale. Selection is pure for a fixed
// registry + context: it never mutates Selector or Registry state.
func (s *Selector) Select(ctx models.TaskContext, filters Filters) (*Agent, float64, Rationale) {
	if ctx.IsEmpty() {
		return fallbackAgent(), 0, Rationale{Reason: "fallback"}
	}

	candidates := make([]Candidate, 0)
	for _, a := range s.Registry.List() {
		if filters.excludes(a.ID) || !filters.satisfiedBy(a) {
			continue
		}
		score := scoreAgent(a, ctx, filters.RequiredTools)
		candidates = append(candidates, Candidate{Agent: a, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].Agent.Priority != candidates[j].Agent.Priority {
			return candidates[i].Agent.Priority > candidates[j].Agent.Priority
		}
		return candidates[i].Agent.ID < candidates[j].Agent.ID
	})

	if len(candidates) == 0 || candidates[0].Score < MinSelectionScore {
		return fallbackAgent(), 0, Rationale{Reason: "fallback"}
	}

	leader := candidates[0]
	rationale := Rationale{Reason: "scored"}
	for _, c := range candidates[1:] {
		if leader.Score-c.Score <= RunnerUpMargin {
			rationale.RunnersUp = append(rationale.RunnersUp, c)
		} else {
			break
		}
	}

	return leader.Agent, leader.Score, rationale
}

// scoreAgent computes the weighted selection score for one agent against a
// task context, then applies the language/framework multiplicative boost.
func scoreAgent(a *Agent, ctx models.TaskContext, requiredTools []string) float64 {
	trigger := triggerMatch(a.Triggers, ctx.Keywords)
	category := categoryMatch(a.Category, ctx)
	description := descriptionMatch(a.Description, ctx.Text)

	// No declared requirement means "all tools available" by convention,
	// so it always matches.
	tools := 1.0
	if len(requiredTools) > 0 {
		tools = 0.0
		if len(a.Tools) == 0 {
			tools = 1.0
		} else {
			satisfied := true
			for _, rt := range requiredTools {
				if !containsString(a.Tools, rt) {
					satisfied = false
					break
				}
			}
			if satisfied {
				tools = 1.0
			}
		}
	}

	base := WeightTrigger*trigger + WeightCategory*category + WeightDescription*description + WeightTools*tools

	boost := 1.0
	for _, lang := range ctx.DetectedLanguages {
		if containsString(a.Languages, lang) {
			boost = LanguageBoostFactor
			break
		}
	}
	for _, fw := range ctx.DetectedFrameworks {
		if containsString(a.Frameworks, fw) {
			boost = LanguageBoostFactor
			break
		}
	}

	score := base * boost
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func triggerMatch(triggers, keywords []string) float64 {
	if len(triggers) == 0 {
		return 0
	}
	kw := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		kw[strings.ToLower(k)] = true
	}
	hits := 0
	for _, t := range triggers {
		if kw[strings.ToLower(t)] {
			hits++
		}
	}
	return float64(hits) / float64(len(triggers))
}

func categoryMatch(category string, ctx models.TaskContext) float64 {
	if category == "" {
		return 0
	}
	text := strings.ToLower(ctx.Text)
	if strings.Contains(text, strings.ToLower(category)) {
		return 1
	}
	for _, k := range ctx.Keywords {
		if strings.EqualFold(k, category) {
			return 1
		}
	}
	return 0
}

// descriptionMatch returns normalized token overlap between an agent's
// description and the context text.
func descriptionMatch(description, text string) float64 {
	descTokens := tokenize(description)
	textTokens := tokenize(text)
	if len(descTokens) == 0 || len(textTokens) == 0 {
		return 0
	}

	textSet := make(map[string]bool, len(textTokens))
	for _, t := range textTokens {
		textSet[t] = true
	}

	overlap := 0
	seen := make(map[string]bool)
	for _, d := range descTokens {
		if seen[d] {
			continue
		}
		seen[d] = true
		if textSet[d] {
			overlap++
		}
	}

	return float64(overlap) / float64(len(seen))
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	out := fields[:0:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
