package config

import (
	"strings"

	"github.com/crystaldolphin/gitcourier/internal/providers"
)

// MatchResult is the resolved LLM provider config and registry name for a model.
type MatchResult struct {
	Provider *ProviderConfig
	Name     string // e.g. "gemini", "openrouter"
}

// MatchProvider resolves which provider config and registry entry to use for model.
// If model is empty, agent.model is used.
//
// Priority order:
//  1. agent.provider when set
//  2. Explicit provider prefix in model string (e.g. "deepseek/deepseek-chat")
//  3. Keyword match in model name (registry order)
//  4. Fallback: first provider with an API key
func (c *Config) MatchProvider(model string) MatchResult {
	if model == "" {
		model = c.Agent.Model
	}
	if c.Agent.Provider != "" {
		if p := c.ProviderByName(c.Agent.Provider); p != nil {
			return MatchResult{Provider: p, Name: c.Agent.Provider}
		}
	}

	modelLower := strings.ToLower(model)
	modelPrefix, _, hasPrefix := strings.Cut(modelLower, "/")

	if hasPrefix {
		for _, spec := range providers.PROVIDERS {
			if spec.Name == modelPrefix {
				return MatchResult{Provider: c.ProviderByName(spec.Name), Name: spec.Name}
			}
		}
	}

	for _, spec := range providers.PROVIDERS {
		for _, kw := range spec.Keywords {
			if strings.Contains(modelLower, kw) {
				return MatchResult{Provider: c.ProviderByName(spec.Name), Name: spec.Name}
			}
		}
	}

	for _, spec := range providers.PROVIDERS {
		p := c.ProviderByName(spec.Name)
		if p != nil && p.APIKey != "" {
			return MatchResult{Provider: p, Name: spec.Name}
		}
	}

	return MatchResult{}
}

// ProviderParams assembles providers.Params for model.
func (c *Config) ProviderParams(model string) providers.Params {
	if model == "" {
		model = c.Agent.Model
	}
	m := c.MatchProvider(model)
	params := providers.Params{DefaultModel: model, ProviderName: m.Name}
	if m.Provider != nil {
		params.APIKey = m.Provider.APIKey
		params.APIBase = m.Provider.APIBase
		params.ExtraHeaders = m.Provider.ExtraHeaders
	}
	return params
}
