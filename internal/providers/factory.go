package providers

import (
	"fmt"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

// Params are the raw values needed to construct any schema.Model.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	APIKey       string
	APIBase      string
	ExtraHeaders map[string]string
	DefaultModel string
	ProviderName string // registry name, e.g. "gemini", "openrouter"
}

// New creates the schema.Model for the given params.
//
//   - gemini    → GeminiProvider (google.golang.org/genai)
//   - otherwise → OpenAIProvider (direct HTTP to any OpenAI-compatible endpoint)
func New(p Params) (schema.Model, error) {
	name := p.ProviderName
	if name == "" {
		if spec := FindByModel(p.DefaultModel); spec != nil {
			name = spec.Name
		}
	}

	if spec := FindByName(name); spec != nil && spec.IsNative {
		m, err := NewGeminiProvider(p.APIKey, p.DefaultModel)
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		return m, nil
	}
	return NewOpenAIProvider(p.APIKey, p.APIBase, p.DefaultModel, name, p.ExtraHeaders), nil
}
