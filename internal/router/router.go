// Package router implements model routing and consensus (C3): tier-based
// selection of a candidate model list, and fanning a query out to
// multiple models with quorum-checked agreement scoring.
package router

import (
	"context"
	"fmt"
	"sort"

	"github.com/harrison/scengine/internal/config"
	"github.com/harrison/scengine/internal/models"
	"github.com/harrison/scengine/internal/provider"
)

// Router selects candidate models for a task tier and, when an adapter
// is unavailable (no credential, offline mode), falls through to the
// next-priority candidate in the same tier.
type Router struct {
	cfg      *config.EngineConfig
	registry *provider.Registry
}

// NewRouter builds a Router over the engine configuration and provider
// registry.
func NewRouter(cfg *config.EngineConfig, registry *provider.Registry) *Router {
	return &Router{cfg: cfg, registry: registry}
}

// SelectModel returns the highest-priority available model in tier,
// skipping any whose provider adapter is currently unavailable.
func (r *Router) SelectModel(tier string) (*models.ModelDescriptor, error) {
	candidates, ok := r.cfg.Router.Tiers[tier]
	if !ok || len(candidates) == 0 {
		return nil, fmt.Errorf("no models configured for tier %q", tier)
	}

	ordered := make([]models.ModelDescriptor, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	var lastErr error
	for _, m := range ordered {
		if _, err := r.registry.Client(m.Provider); err != nil {
			lastErr = err
			continue
		}
		model := m
		return &model, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no candidates in tier %q", tier)
	}
	return nil, fmt.Errorf("no available model in tier %q: %w", tier, lastErr)
}

// Chat routes a prompt through the given tier's selected model.
func (r *Router) Chat(ctx context.Context, tier, prompt string, params provider.ChatParams) (*provider.ChatResponse, *models.ModelDescriptor, error) {
	model, err := r.SelectModel(tier)
	if err != nil {
		return nil, nil, err
	}
	resp, err := r.registry.ChatWithModel(ctx, model.Provider, model.ModelID, prompt, params)
	if err != nil {
		return nil, model, err
	}
	return resp, model, nil
}
