// Package models holds the shared entity types that flow between the
// engine's components: commands, agents' task context, provider/router
// descriptors, validation findings, quality assessments and evidence.
package models

import "fmt"

// Command is the immutable result of parsing a textual invocation of the
// form "/<namespace>:<name> [flags] [positional]".
type Command struct {
	Namespace string            `json:"namespace"`
	Name      string            `json:"name"`
	Args      []string          `json:"args"`
	Flags     map[string]string `json:"flags"`
	RawText   string            `json:"raw_text"`
}

// FullName returns the canonical "namespace:name" identifier used to look
// up CommandMetadata in the registry.
func (c Command) FullName() string {
	return fmt.Sprintf("%s:%s", c.Namespace, c.Name)
}

// BoolFlag reports whether a boolean flag was set (present with no value,
// or explicitly "true"/"1").
func (c Command) BoolFlag(name string) bool {
	v, ok := c.Flags[name]
	if !ok {
		return false
	}
	return v == "" || v == "true" || v == "1"
}

// Expectations describes what side effects a command is expected to produce.
type Expectations struct {
	ExpectsFileChanges bool `yaml:"expects_file_changes" json:"expects_file_changes"`
	ExpectsTests       bool `yaml:"expects_tests" json:"expects_tests"`
	RequiresDiff       bool `yaml:"requires_diff" json:"requires_diff"`
}

// FlagSpec describes one accepted flag for a command.
type FlagSpec struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"` // "bool", "string", "int"
	Default  string   `yaml:"default" json:"default,omitempty"`
	Allowed  []string `yaml:"allowed" json:"allowed,omitempty"`
	Required bool     `yaml:"required" json:"required,omitempty"`
}

// CommandMetadata is the on-disk description of a registered command,
// loaded once and cached by identity of Name.
type CommandMetadata struct {
	Name              string       `yaml:"name" json:"name"`
	Category          string       `yaml:"category" json:"category"`
	Description       string       `yaml:"description" json:"description"`
	Complexity        string       `yaml:"complexity" json:"complexity"` // low|medium|high
	MCPServers        []string     `yaml:"mcp_servers" json:"mcp_servers,omitempty"`
	Personas          []string     `yaml:"personas" json:"personas,omitempty"`
	FlagsSpec         []FlagSpec   `yaml:"flags_spec" json:"flags_spec,omitempty"`
	RequiresEvidence  bool         `yaml:"requires_evidence" json:"requires_evidence"`
	RequiresConsensus bool         `yaml:"requires_consensus" json:"requires_consensus"`
	ConsensusTier     string       `yaml:"consensus_tier" json:"consensus_tier,omitempty"`
	DefaultAgent      string       `yaml:"default_agent" json:"default_agent,omitempty"`
	Expectations      Expectations `yaml:"expectations" json:"expectations"`

	FilePath string `yaml:"-" json:"-"`
}

// TaskContext is derived deterministically from a Command plus the working
// directory; it is the sole input to agent selection.
type TaskContext struct {
	Text               string   `json:"text"`
	Keywords           []string `json:"keywords"`
	FilePaths          []string `json:"file_paths"`
	FileExtensions     []string `json:"file_extensions"`
	DetectedLanguages  []string `json:"detected_languages"`
	DetectedFrameworks []string `json:"detected_frameworks"`
}

// IsEmpty reports whether the context carries no usable signal at all,
// the edge case that always routes selection to the fallback agent.
func (c TaskContext) IsEmpty() bool {
	return c.Text == "" && len(c.Keywords) == 0 && len(c.FilePaths) == 0
}
