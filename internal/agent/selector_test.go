package agent

import (
	"testing"

	"github.com/harrison/scengine/internal/models"
)

func registryWith(agents ...*Agent) *Registry {
	r := &Registry{AgentsDir: "", agents: make(map[string]*Agent)}
	for _, a := range agents {
		r.agents[a.ID] = a
	}
	return r
}

func TestSelectEmptyContextReturnsFallback(t *testing.T) {
	sel := NewSelector(registryWith(&Agent{ID: "go-expert", Category: "backend", Triggers: []string{"go"}}))
	a, score, rat := sel.Select(models.TaskContext{}, Filters{})
	if a.ID != FallbackAgentID {
		t.Fatalf("expected fallback, got %s", a.ID)
	}
	if score != 0 || rat.Reason != "fallback" {
		t.Errorf("unexpected score/rationale: %v %v", score, rat)
	}
}

func TestSelectPicksHighestScoringAgent(t *testing.T) {
	goExpert := &Agent{
		ID:          "go-expert",
		Category:    "backend",
		Description: "Implements backend services in go with careful error handling",
		Triggers:    []string{"go", "backend", "service"},
		Languages:   []string{"go"},
	}
	frontend := &Agent{
		ID:          "frontend-expert",
		Category:    "frontend",
		Description: "Builds react user interfaces",
		Triggers:    []string{"react", "ui"},
		Languages:   []string{"typescript"},
	}
	sel := NewSelector(registryWith(goExpert, frontend))

	ctx := models.TaskContext{
		Text:              "implement a backend go service with error handling",
		Keywords:          []string{"go", "backend", "service"},
		DetectedLanguages: []string{"go"},
	}

	a, score, rat := sel.Select(ctx, Filters{})
	if a.ID != "go-expert" {
		t.Fatalf("expected go-expert, got %s (score %f)", a.ID, score)
	}
	if rat.Reason != "scored" {
		t.Errorf("expected scored rationale, got %s", rat.Reason)
	}
}

func TestSelectBelowThresholdFallsBack(t *testing.T) {
	unrelated := &Agent{ID: "docs-writer", Category: "docs", Description: "writes documentation", Triggers: []string{"docs"}}
	sel := NewSelector(registryWith(unrelated))

	ctx := models.TaskContext{Text: "optimize the database query planner", Keywords: []string{"database", "query"}}
	a, _, rat := sel.Select(ctx, Filters{})
	if a.ID != FallbackAgentID || rat.Reason != "fallback" {
		t.Fatalf("expected fallback below threshold, got %s / %s", a.ID, rat.Reason)
	}
}

func TestSelectTieBreaksByPriorityThenID(t *testing.T) {
	a1 := &Agent{ID: "zeta", Category: "backend", Description: "go service", Triggers: []string{"go"}, Priority: 1}
	a2 := &Agent{ID: "alpha", Category: "backend", Description: "go service", Triggers: []string{"go"}, Priority: 1}
	sel := NewSelector(registryWith(a1, a2))

	ctx := models.TaskContext{Text: "go service", Keywords: []string{"go"}}
	a, _, _ := sel.Select(ctx, Filters{})
	if a.ID != "alpha" {
		t.Fatalf("expected lexicographic tie-break to pick alpha, got %s", a.ID)
	}
}

func TestSelectRequiredToolsFilter(t *testing.T) {
	noTools := &Agent{ID: "no-exec", Category: "backend", Description: "go service", Triggers: []string{"go"}, Tools: ToolList{"Read"}}
	withTools := &Agent{ID: "with-exec", Category: "backend", Description: "go service", Triggers: []string{"go"}, Tools: ToolList{"Read", "Bash"}}
	sel := NewSelector(registryWith(noTools, withTools))

	ctx := models.TaskContext{Text: "go service", Keywords: []string{"go"}}
	a, _, _ := sel.Select(ctx, Filters{RequiredTools: []string{"Bash"}})
	if a.ID != "with-exec" {
		t.Fatalf("expected with-exec after tool filter, got %s", a.ID)
	}
}

func TestSelectIsPure(t *testing.T) {
	sel := NewSelector(registryWith(&Agent{ID: "go-expert", Category: "backend", Description: "go service", Triggers: []string{"go"}}))
	ctx := models.TaskContext{Text: "go service", Keywords: []string{"go"}}

	a1, s1, _ := sel.Select(ctx, Filters{})
	a2, s2, _ := sel.Select(ctx, Filters{})
	if a1.ID != a2.ID || s1 != s2 {
		t.Errorf("expected pure selection, got (%s,%f) vs (%s,%f)", a1.ID, s1, a2.ID, s2)
	}
}
