package schema

import "context"

// GenerateOptions configures a single model request.
type GenerateOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewGenerateOptions builds GenerateOptions from agent settings values.
func NewGenerateOptions(model string, maxTokens int, temperature float64) GenerateOptions {
	return GenerateOptions{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// Model is the interface every model backend must satisfy.
// It accepts one free-text prompt and returns free text.
type Model interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	DefaultModel() string
}
