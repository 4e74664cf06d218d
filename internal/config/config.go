// Package config implements the engine's layered configuration: hardcoded
// defaults, an optional YAML file merged key-by-key, and environment
// variable overrides applied last.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/harrison/scengine/internal/models"
	"gopkg.in/yaml.v3"
)

// HardMaxIterations is the absolute ceiling on agentic-loop iterations.
// No configuration path may raise it.
const HardMaxIterations = 5

// LoopConfig holds the agentic loop's tunable constants.
type LoopConfig struct {
	MaxIterations     int     `yaml:"max_iterations"`
	MinImprovement    float64 `yaml:"min_improvement"`
	OscillationWindow int     `yaml:"oscillation_window"`
	StagnationDelta   float64 `yaml:"stagnation_delta"`
	QualityTarget     float64 `yaml:"quality_target"`
}

// ProviderConfig names the environment variable an adapter reads its API
// key from, and its default base URL.
type ProviderConfig struct {
	Name      string `yaml:"name"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// RouterConfig maps task tiers to ordered candidate models.
type RouterConfig struct {
	Tiers map[string][]models.ModelDescriptor `yaml:"tiers"`
}

// TelemetryConfig controls where run evidence and the event log live.
type TelemetryConfig struct {
	MetricsDir string `yaml:"metrics_dir"`
}

// WorktreeConfig controls where ephemeral worktrees are created.
type WorktreeConfig struct {
	BaseDir string `yaml:"base_dir"`
}

// TimeoutConfig holds the per-operation deadlines from the concurrency model.
type TimeoutConfig struct {
	ProviderCall   time.Duration `yaml:"provider_call"`
	ConsensusQuery time.Duration `yaml:"consensus_query"`
	Stage          time.Duration `yaml:"stage"`
	Iteration      time.Duration `yaml:"iteration"`
	Run            time.Duration `yaml:"run"`
}

// EngineConfig is the root configuration tree for the engine.
type EngineConfig struct {
	LogLevel    string                     `yaml:"log_level"`
	LogFormat   string                     `yaml:"log_format"`
	OfflineMode bool                       `yaml:"offline_mode"`
	Loop        LoopConfig                 `yaml:"loop"`
	Weights     map[models.QualityDimension]float64 `yaml:"weights"`
	Providers   []ProviderConfig           `yaml:"providers"`
	Router      RouterConfig               `yaml:"router"`
	Telemetry   TelemetryConfig            `yaml:"telemetry"`
	Worktree    WorktreeConfig             `yaml:"worktree"`
	Timeouts    TimeoutConfig              `yaml:"timeouts"`
}

// DefaultConfig returns an EngineConfig with sensible default values.
func DefaultConfig() *EngineConfig {
	return &EngineConfig{
		LogLevel:    "info",
		LogFormat:   "console",
		OfflineMode: false,
		Loop: LoopConfig{
			MaxIterations:     3,
			MinImprovement:    5.0,
			OscillationWindow: 3,
			StagnationDelta:   2.0,
			QualityTarget:     90.0,
		},
		Weights: models.DefaultDimensionWeights(),
		Providers: []ProviderConfig{
			{Name: "anthropic", APIKeyEnv: "ANTHROPIC_API_KEY", BaseURL: "https://api.anthropic.com"},
			{Name: "openai", APIKeyEnv: "OPENAI_API_KEY", BaseURL: "https://api.openai.com"},
			{Name: "google", APIKeyEnv: "GOOGLE_API_KEY", BaseURL: "https://generativelanguage.googleapis.com"},
			{Name: "xai", APIKeyEnv: "XAI_API_KEY", BaseURL: "https://api.x.ai"},
		},
		Router: RouterConfig{
			Tiers: map[string][]models.ModelDescriptor{
				"deep_thinking": {
					{Provider: "anthropic", ModelID: "claude-opus-4", MaxContextTokens: 200_000, Priority: 100, Capabilities: []models.Capability{models.CapabilityThinking}},
					{Provider: "openai", ModelID: "o3", MaxContextTokens: 200_000, Priority: 90, Capabilities: []models.Capability{models.CapabilityThinking}},
				},
				"long_context": {
					{Provider: "google", ModelID: "gemini-2.5-pro", MaxContextTokens: 1_000_000, Priority: 100, Capabilities: []models.Capability{models.CapabilityLongContext}},
				},
				"fast_iteration": {
					{Provider: "anthropic", ModelID: "claude-haiku-4", MaxContextTokens: 200_000, Priority: 100, Capabilities: []models.Capability{models.CapabilityFast}},
					{Provider: "openai", ModelID: "gpt-4o-mini", MaxContextTokens: 128_000, Priority: 90, Capabilities: []models.Capability{models.CapabilityFast}},
				},
				"fallback": {
					{Provider: "xai", ModelID: "grok-3", MaxContextTokens: 128_000, Priority: 50},
				},
			},
		},
		Telemetry: TelemetryConfig{MetricsDir: ".runs"},
		Worktree:  WorktreeConfig{BaseDir: ".runs/worktrees"},
		Timeouts: TimeoutConfig{
			ProviderCall:   60 * time.Second,
			ConsensusQuery: 120 * time.Second,
			Stage:          300 * time.Second,
			Iteration:      600 * time.Second,
			Run:            1800 * time.Second,
		},
	}
}

// LoadConfig loads configuration from an optional YAML file. If the file
// doesn't exist, defaults (with environment overrides applied) are
// returned without error; a malformed file is an error.
func LoadConfig(path string) (*EngineConfig, error) {
	cfg := DefaultConfig()

	if path == "" {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var parsed EngineConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeKey(raw, "log_level", &cfg.LogLevel, parsed.LogLevel)
	mergeKey(raw, "log_format", &cfg.LogFormat, parsed.LogFormat)
	if _, ok := raw["offline_mode"]; ok {
		cfg.OfflineMode = parsed.OfflineMode
	}

	if loopSection, ok := raw["loop"].(map[string]interface{}); ok {
		mergeIntKey(loopSection, "max_iterations", &cfg.Loop.MaxIterations, parsed.Loop.MaxIterations)
		mergeFloatKey(loopSection, "min_improvement", &cfg.Loop.MinImprovement, parsed.Loop.MinImprovement)
		mergeIntKey(loopSection, "oscillation_window", &cfg.Loop.OscillationWindow, parsed.Loop.OscillationWindow)
		mergeFloatKey(loopSection, "stagnation_delta", &cfg.Loop.StagnationDelta, parsed.Loop.StagnationDelta)
		mergeFloatKey(loopSection, "quality_target", &cfg.Loop.QualityTarget, parsed.Loop.QualityTarget)
	}

	if len(parsed.Weights) > 0 {
		cfg.Weights = parsed.Weights
	}
	if len(parsed.Providers) > 0 {
		cfg.Providers = parsed.Providers
	}
	if len(parsed.Router.Tiers) > 0 {
		cfg.Router = parsed.Router
	}
	if tSection, ok := raw["telemetry"].(map[string]interface{}); ok {
		mergeKey(tSection, "metrics_dir", &cfg.Telemetry.MetricsDir, parsed.Telemetry.MetricsDir)
	}
	if wSection, ok := raw["worktree"].(map[string]interface{}); ok {
		mergeKey(wSection, "base_dir", &cfg.Worktree.BaseDir, parsed.Worktree.BaseDir)
	}
	if toSection, ok := raw["timeouts"].(map[string]interface{}); ok {
		mergeDurationKey(toSection, "provider_call", &cfg.Timeouts.ProviderCall, parsed.Timeouts.ProviderCall)
		mergeDurationKey(toSection, "consensus_query", &cfg.Timeouts.ConsensusQuery, parsed.Timeouts.ConsensusQuery)
		mergeDurationKey(toSection, "stage", &cfg.Timeouts.Stage, parsed.Timeouts.Stage)
		mergeDurationKey(toSection, "iteration", &cfg.Timeouts.Iteration, parsed.Timeouts.Iteration)
		mergeDurationKey(toSection, "run", &cfg.Timeouts.Run, parsed.Timeouts.Run)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func mergeKey(raw map[string]interface{}, key string, dst *string, val string) {
	if _, ok := raw[key]; ok {
		*dst = val
	}
}

func mergeIntKey(raw map[string]interface{}, key string, dst *int, val int) {
	if _, ok := raw[key]; ok {
		*dst = val
	}
}

func mergeFloatKey(raw map[string]interface{}, key string, dst *float64, val float64) {
	if _, ok := raw[key]; ok {
		*dst = val
	}
}

func mergeDurationKey(raw map[string]interface{}, key string, dst *time.Duration, val time.Duration) {
	if _, ok := raw[key]; ok {
		*dst = val
	}
}

// applyEnvOverrides applies the environment variables from the external
// interface table. These always take precedence over file and defaults.
func applyEnvOverrides(cfg *EngineConfig) {
	if v := os.Getenv("ENGINE_OFFLINE_MODE"); v != "" {
		cfg.OfflineMode = v == "true" || v == "1"
	}
	if v := os.Getenv("ENGINE_METRICS_DIR"); v != "" {
		cfg.Telemetry.MetricsDir = v
	}
	if v := os.Getenv("ENGINE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ENGINE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("ENGINE_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Loop.MaxIterations = ClampMaxIterations(n)
		}
	}
}

// ClampMaxIterations enforces the hard ceiling: requests to raise the
// configured maximum above HardMaxIterations are silently rejected.
func ClampMaxIterations(requested int) int {
	if requested > HardMaxIterations {
		return HardMaxIterations
	}
	if requested < 1 {
		return 1
	}
	return requested
}

// Validate returns a descriptive error for any impossible configuration
// state; it never panics.
func (c *EngineConfig) Validate() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("invalid log_format %q, must be one of: console, json", c.LogFormat)
	}

	if c.Loop.MaxIterations < 1 || c.Loop.MaxIterations > HardMaxIterations {
		return fmt.Errorf("loop.max_iterations must be in [1,%d], got %d", HardMaxIterations, c.Loop.MaxIterations)
	}

	sum := 0.0
	for _, w := range c.Weights {
		sum += w
	}
	if len(c.Weights) > 0 && (sum < 0.999 || sum > 1.001) {
		return fmt.Errorf("quality dimension weights must sum to 1.0, got %f", sum)
	}

	for _, p := range c.Providers {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.APIKeyEnv) == "" {
			return fmt.Errorf("provider entries must have a name and api_key_env")
		}
	}

	if c.Timeouts.Stage > 1800*time.Second {
		return fmt.Errorf("timeouts.stage must not exceed the hard cap of 1800s, got %s", c.Timeouts.Stage)
	}
	if c.Timeouts.Run > 3600*time.Second {
		return fmt.Errorf("timeouts.run must not exceed the hard cap of 3600s, got %s", c.Timeouts.Run)
	}

	return nil
}

// AvailableProviders returns the providers whose API key environment
// variable is actually set, given an environment view.
func (c *EngineConfig) AvailableProviders(env map[string]string) []string {
	available := make([]string, 0, len(c.Providers))
	for _, p := range c.Providers {
		if env[p.APIKeyEnv] != "" {
			available = append(available, p.Name)
		}
	}
	return available
}
