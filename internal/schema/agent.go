package schema

import "time"

// AgentSettings holds the knobs of one orchestration loop.
type AgentSettings struct {
	Model         string
	MaxIterations int
	Temperature   float64
	MaxTokens     int
	ModelTimeout  time.Duration
}

func NewAgentSettings(model string, maxIterations int, temperature float64, maxTokens int, modelTimeout time.Duration) AgentSettings {
	return AgentSettings{
		Model:         model,
		MaxIterations: maxIterations,
		Temperature:   temperature,
		MaxTokens:     maxTokens,
		ModelTimeout:  modelTimeout,
	}
}
