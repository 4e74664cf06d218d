// Package agent implements the agent registry and persona selector (C4):
// discovery of agent metadata from files, and deterministic weighted
// scoring of agents against a task context.
package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Agent is a named persona with metadata used to bias LLM prompts.
// Agents are stateless in the engine: they are selected, not instantiated.
type Agent struct {
	ID          string   `yaml:"id" json:"id"`
	Category    string   `yaml:"category" json:"category"`
	Description string   `yaml:"description" json:"description"`
	Triggers    []string `yaml:"triggers" json:"triggers,omitempty"`
	Tools       ToolList `yaml:"tools" json:"tools,omitempty"`
	Domains     []string `yaml:"domains" json:"domains,omitempty"`
	Languages   []string `yaml:"languages" json:"languages,omitempty"`
	Frameworks  []string `yaml:"frameworks" json:"frameworks,omitempty"`
	Priority    int      `yaml:"priority" json:"priority"`
	FilePath    string   `yaml:"-" json:"-"`
}

// FallbackAgentID is returned by Select when no agent clears MinSelectionScore.
const FallbackAgentID = "general-purpose"

// ToolList is a custom type that handles both comma-separated strings
// and YAML arrays for the tools field in agent frontmatter.
type ToolList []string

// UnmarshalYAML implements custom unmarshaling for ToolList.
// Accepts both formats:
//   - Comma-separated string: "Read, Write, Edit"
//   - YAML array: [Read, Write, Edit]
func (t *ToolList) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err == nil {
		parts := strings.Split(str, ",")
		*t = make(ToolList, 0, len(parts))
		for _, part := range parts {
			tool := strings.TrimSpace(part)
			if tool != "" {
				*t = append(*t, tool)
			}
		}
		return nil
	}

	var arr []string
	if err := value.Decode(&arr); err == nil {
		*t = ToolList(arr)
		return nil
	}

	return fmt.Errorf("tools must be either a comma-separated string or an array")
}

// MarshalJSON always serializes as a JSON array for consistency downstream.
func (t ToolList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(t))
}

// Registry manages discovered agents. Discovery acquires the write lock;
// lookups are read-locked, matching the read-mostly shared-resource policy.
type Registry struct {
	AgentsDir string

	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewRegistry creates a new agent registry rooted at agentsDir.
// If agentsDir is empty, uses ~/.claude/agents as default.
func NewRegistry(agentsDir string) *Registry {
	if agentsDir == "" {
		home, _ := os.UserHomeDir()
		agentsDir = filepath.Join(home, ".claude", "agents")
	}

	return &Registry{
		AgentsDir: agentsDir,
		agents:    make(map[string]*Agent),
	}
}

// Discover scans the agents directory and parses agent files. It is
// idempotent: calling it again re-reads the directory and replaces the
// in-memory set. Returns an empty registry (not an error) if the
// directory doesn't exist.
//
// Strategy: directory whitelisting + file filtering to reduce false warnings.
//   - Scans root level .md files (agent definitions)
//   - Scans numbered subdirectories: 01-*, 02-*, ..., 10-* (categorized agents)
//   - Skips special directories: examples/, transcripts/, logs/
//   - Skips README.md and *-framework.md files
func (r *Registry) Discover() (map[string]*Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.AgentsDir); os.IsNotExist(err) {
		return r.agents, nil
	}

	discovered := make(map[string]*Agent)
	err := filepath.Walk(r.AgentsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path == r.AgentsDir {
				return nil
			}

			relPath, err := filepath.Rel(r.AgentsDir, path)
			if err != nil {
				return err
			}

			dirName := strings.Split(relPath, string(filepath.Separator))[0]

			if dirName == "examples" || dirName == "transcripts" || dirName == "logs" {
				return filepath.SkipDir
			}

			if len(dirName) >= 3 && dirName[0] >= '0' && dirName[0] <= '9' && dirName[1] >= '0' && dirName[1] <= '9' && dirName[2] == '-' {
				return nil
			}

			return filepath.SkipDir
		}

		if !strings.HasSuffix(path, ".md") {
			return nil
		}

		basename := filepath.Base(path)
		if basename == "README.md" || strings.HasSuffix(basename, "-framework.md") {
			return nil
		}

		a, err := parseAgentFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse %s: %v\n", path, err)
			return nil
		}

		discovered[a.ID] = a
		return nil
	})
	if err != nil {
		return r.agents, err
	}

	r.agents = discovered
	return r.agents, nil
}

// Exists checks if an agent with the given id exists in the registry.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.agents[id]
	return exists
}

// Get retrieves an agent by id.
func (r *Registry) Get(id string) (*Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, exists := r.agents[id]
	return a, exists
}

// List returns all agents in the registry, sorted by id for deterministic
// iteration order (selection tie-breaking depends on this).
func (r *Registry) List() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents
}

// ListNames returns all registered agent ids.
func (r *Registry) ListNames() []string {
	ids := make([]string, 0)
	for _, a := range r.List() {
		ids = append(ids, a.ID)
	}
	return ids
}

// parseAgentFile parses a single agent file.
func parseAgentFile(path string) (*Agent, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	frontmatter, _ := extractFrontmatter(content)
	if frontmatter == nil {
		return nil, fmt.Errorf("no frontmatter found in %s", path)
	}

	var a Agent
	if err := yaml.Unmarshal(frontmatter, &a); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	a.FilePath = path

	if a.ID == "" {
		return nil, fmt.Errorf("agent id is required")
	}

	return &a, nil
}

// extractFrontmatter extracts YAML frontmatter from markdown content.
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := strings.Split(string(content), "\n")
	if len(lines) < 3 || lines[0] != "---" {
		return nil, content
	}

	for i := 1; i < len(lines); i++ {
		if lines[i] == "---" {
			frontmatter := []byte(strings.Join(lines[1:i], "\n"))
			body := []byte(strings.Join(lines[i+1:], "\n"))
			return frontmatter, body
		}
	}

	return nil, content
}
