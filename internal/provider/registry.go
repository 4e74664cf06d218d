package provider

import (
	"context"
	"fmt"

	"github.com/harrison/scengine/internal/config"
)

// Registry builds and caches Client instances per provider name,
// honoring offline mode and missing credentials.
type Registry struct {
	cfg     *config.EngineConfig
	env     map[string]string
	clients map[string]Client
}

// NewRegistry builds a Registry over the given config and environment
// view (so credential lookups are testable without real env vars).
func NewRegistry(cfg *config.EngineConfig, env map[string]string) *Registry {
	return &Registry{cfg: cfg, env: env, clients: make(map[string]Client)}
}

// Client returns the adapter for a named provider, constructing it
// lazily on first use. Returns ProviderUnavailable if offline mode is
// set or the provider's credential is absent.
func (r *Registry) Client(name string) (Client, error) {
	if r.cfg.OfflineMode {
		return nil, &ProviderUnavailable{Provider: name, Detail: "engine running in offline mode"}
	}
	if c, ok := r.clients[name]; ok {
		return c, nil
	}

	var providerCfg *config.ProviderConfig
	for i := range r.cfg.Providers {
		if r.cfg.Providers[i].Name == name {
			providerCfg = &r.cfg.Providers[i]
			break
		}
	}
	if providerCfg == nil {
		return nil, &ProviderUnavailable{Provider: name, Detail: "no provider configuration found"}
	}

	apiKey := r.env[providerCfg.APIKeyEnv]
	if apiKey == "" {
		return nil, &ProviderUnavailable{Provider: name, Detail: fmt.Sprintf("%s not set", providerCfg.APIKeyEnv)}
	}

	var client Client
	switch name {
	case "anthropic":
		client = NewAnthropicClient(apiKey)
	case "openai":
		client = NewOpenAIClient(apiKey)
	default:
		client = NewHTTPJSONClient(name, providerCfg.BaseURL, apiKey)
	}

	r.clients[name] = client
	return client, nil
}

// RegisterForTest injects a pre-built client under name, bypassing
// credential lookup. Exported for use by other packages' tests that need
// to exercise routing/consensus against fakes without real API keys.
func (r *Registry) RegisterForTest(name string, client Client) {
	r.clients[name] = client
}

// ChatWithModel resolves the client for a model's provider and places
// the call, a convenience used by the router.
func (r *Registry) ChatWithModel(ctx context.Context, provider, modelID, prompt string, params ChatParams) (*ChatResponse, error) {
	client, err := r.Client(provider)
	if err != nil {
		return nil, err
	}
	return client.Chat(ctx, modelID, prompt, params)
}
