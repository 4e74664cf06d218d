package models

// Capability is one optional feature a model may advertise.
type Capability string

const (
	CapabilityThinking    Capability = "thinking"
	CapabilityVision      Capability = "vision"
	CapabilityFast        Capability = "fast"
	CapabilityLongContext Capability = "long_context"
)

// ModelDescriptor identifies one routable model and its static properties.
type ModelDescriptor struct {
	Provider        string       `yaml:"provider" json:"provider"`
	ModelID         string       `yaml:"model_id" json:"model_id"`
	MaxContextTokens int         `yaml:"max_context_tokens" json:"max_context_tokens"`
	Capabilities    []Capability `yaml:"capabilities" json:"capabilities,omitempty"`
	Priority        int          `yaml:"priority" json:"priority"`
	CostHint        float64      `yaml:"cost_hint" json:"cost_hint"`
}

// HasCapability reports whether the descriptor advertises cap.
func (m ModelDescriptor) HasCapability(cap Capability) bool {
	for _, c := range m.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// TieBreak is a consensus disagreement resolution policy.
type TieBreak string

const (
	TieBreakPriority        TieBreak = "priority"
	TieBreakLongestMajority TieBreak = "longest-majority"
	TieBreakAbstain         TieBreak = "abstain"
)

// ConsensusQuery fans a prompt out to multiple models and votes on the result.
type ConsensusQuery struct {
	Prompt   string
	Models   []ModelDescriptor
	Quorum   int
	TieBreak TieBreak
}

// Vote is one model's contribution to a ConsensusResult.
type Vote struct {
	Model    ModelDescriptor        `json:"model"`
	Verdict  string                 `json:"verdict"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Err      string                 `json:"error,omitempty"`
	Cancelled bool                  `json:"cancelled,omitempty"`
}

// ConsensusResult is the outcome of fanning a ConsensusQuery out to voters.
type ConsensusResult struct {
	Votes           []Vote   `json:"votes"`
	WinningVerdict  string   `json:"winning_verdict,omitempty"`
	AgreementScore  float64  `json:"agreement_score"`
	Dissent         []string `json:"dissent,omitempty"`
	Reason          string   `json:"reason,omitempty"` // e.g. "insufficient_voters"
}
