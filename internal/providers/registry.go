package providers

import "strings"

// ProviderSpec is the metadata record for one LLM provider.
type ProviderSpec struct {
	Name        string   // config field name, e.g. "gemini"
	Keywords    []string // model-name keywords for matching (lowercase)
	EnvKey      string   // env var consulted for the API key
	DisplayName string   // shown in `gitcourier status`

	// Gateway / local detection
	IsGateway           bool
	IsLocal             bool
	DetectByKeyPrefix   string
	DetectByBaseKeyword string
	DefaultAPIBase      string

	// StripModelPrefix drops "provider/" before sending the model name.
	StripModelPrefix bool

	// IsNative providers are served by a vendor SDK instead of the
	// OpenAI-compatible HTTP client.
	IsNative bool
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToTitle(s.Name[:1]) + s.Name[1:]
}

// PROVIDERS is the registry. Order = match priority.
var PROVIDERS = []ProviderSpec{
	{
		Name:        "custom",
		DisplayName: "Custom",
	},
	{
		Name:                "openrouter",
		Keywords:            []string{"openrouter"},
		EnvKey:              "OPENROUTER_API_KEY",
		DisplayName:         "OpenRouter",
		IsGateway:           true,
		DetectByKeyPrefix:   "sk-or-",
		DetectByBaseKeyword: "openrouter",
		DefaultAPIBase:      "https://openrouter.ai/api/v1",
	},
	{
		Name:        "gemini",
		Keywords:    []string{"gemini"},
		EnvKey:      "GEMINI_API_KEY",
		DisplayName: "Gemini",
		IsNative:    true,
	},
	{
		Name:           "openai",
		Keywords:       []string{"openai", "gpt"},
		EnvKey:         "OPENAI_API_KEY",
		DisplayName:    "OpenAI",
		DefaultAPIBase: "https://api.openai.com/v1",
	},
	{
		Name:           "deepseek",
		Keywords:       []string{"deepseek"},
		EnvKey:         "DEEPSEEK_API_KEY",
		DisplayName:    "DeepSeek",
		DefaultAPIBase: "https://api.deepseek.com/v1",
	},
	{
		Name:           "groq",
		Keywords:       []string{"groq"},
		EnvKey:         "GROQ_API_KEY",
		DisplayName:    "Groq",
		DefaultAPIBase: "https://api.groq.com/openai/v1",
	},
	{
		Name:                "ollama",
		Keywords:            []string{"ollama"},
		DisplayName:         "Ollama",
		IsLocal:             true,
		DetectByBaseKeyword: "11434",
		DefaultAPIBase:      "http://localhost:11434/v1",
		StripModelPrefix:    true,
	},
}

// FindByModel matches a standard provider by model-name keyword (case-insensitive).
// Gateways and local providers are matched by api key or api base instead.
func FindByModel(model string) *ProviderSpec {
	modelLower := strings.ToLower(model)
	modelPrefix, _, _ := strings.Cut(modelLower, "/")

	var std []int
	for i := range PROVIDERS {
		if !PROVIDERS[i].IsGateway && !PROVIDERS[i].IsLocal {
			std = append(std, i)
		}
	}

	// Prefer explicit provider prefix.
	if strings.Contains(modelLower, "/") {
		for _, i := range std {
			if modelPrefix == PROVIDERS[i].Name {
				return &PROVIDERS[i]
			}
		}
	}

	for _, i := range std {
		for _, kw := range PROVIDERS[i].Keywords {
			if strings.Contains(modelLower, kw) {
				return &PROVIDERS[i]
			}
		}
	}
	return nil
}

// FindGateway detects the gateway or local provider.
// Priority: (1) explicit provider name, (2) api key prefix, (3) api base keyword.
func FindGateway(providerName, apiKey, apiBase string) *ProviderSpec {
	if providerName != "" {
		if s := FindByName(providerName); s != nil && (s.IsGateway || s.IsLocal) {
			return s
		}
	}
	for i := range PROVIDERS {
		spec := &PROVIDERS[i]
		if spec.DetectByKeyPrefix != "" && strings.HasPrefix(apiKey, spec.DetectByKeyPrefix) {
			return spec
		}
		if spec.DetectByBaseKeyword != "" && strings.Contains(apiBase, spec.DetectByBaseKeyword) {
			return spec
		}
	}
	return nil
}

// FindByName returns the ProviderSpec whose Name equals name.
func FindByName(name string) *ProviderSpec {
	for i := range PROVIDERS {
		if PROVIDERS[i].Name == name {
			return &PROVIDERS[i]
		}
	}
	return nil
}

// IsLocal reports whether the named provider runs without an API key.
func IsLocal(name string) bool {
	spec := FindByName(name)
	return spec != nil && spec.IsLocal
}
