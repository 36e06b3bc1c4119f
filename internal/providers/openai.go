package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

const (
	openAIBase       = "https://api.openai.com/v1"
	defaultMaxTokens = 4096
)

// OpenAIProvider sends a prompt as a single user message to any
// OpenAI-compatible /chat/completions endpoint.
type OpenAIProvider struct {
	endpoint     string
	apiKey       string
	defaultModel string
	headers      map[string]string
	route        modelRoute
	client       *http.Client
}

// modelRoute says how a configured model name is rewritten before it is sent.
type modelRoute struct {
	prefix   string // "name/" removed when present
	gateway  bool   // gateways forward vendor prefixes untouched
	stripAll bool   // keep only the part after the last '/'
}

// NewOpenAIProvider constructs a provider from raw config values.
func NewOpenAIProvider(apiKey, apiBase, defaultModel, providerName string, extraHeaders map[string]string) *OpenAIProvider {
	route, base := routeFor(apiKey, apiBase, defaultModel, providerName)
	if apiBase != "" {
		base = apiBase
	}
	return &OpenAIProvider{
		endpoint:     strings.TrimRight(base, "/") + "/chat/completions",
		apiKey:       apiKey,
		defaultModel: defaultModel,
		headers:      extraHeaders,
		route:        route,
		client:       &http.Client{Timeout: 120 * time.Second},
	}
}

// routeFor picks the model rewrite rule and the default base URL. Gateways
// and local servers are detected first, then the provider owning the model.
func routeFor(apiKey, apiBase, model, providerName string) (modelRoute, string) {
	if gw := FindGateway(providerName, apiKey, apiBase); gw != nil {
		return modelRoute{prefix: gw.Name + "/", gateway: true, stripAll: gw.StripModelPrefix},
			orDefault(gw.DefaultAPIBase, openAIBase)
	}

	spec := FindByModel(model)
	if spec == nil {
		spec = FindByName(providerName)
	}
	if spec == nil {
		return modelRoute{}, openAIBase
	}
	return modelRoute{prefix: spec.Name + "/"}, orDefault(spec.DefaultAPIBase, openAIBase)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

func (p *OpenAIProvider) resolveModel(model string) string {
	r := p.route
	if r.stripAll {
		return model[strings.LastIndex(model, "/")+1:]
	}
	if r.prefix != "" && len(model) > len(r.prefix) && strings.EqualFold(model[:len(r.prefix)], r.prefix) {
		return model[len(r.prefix):]
	}
	if r.gateway {
		return model
	}
	if vendor, rest, ok := strings.Cut(model, "/"); ok && FindByName(strings.ToLower(vendor)) != nil {
		return rest
	}
	return model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// Generate implements schema.Model.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts schema.GenerateOptions) (string, error) {
	body := chatRequest{
		Model:       p.resolveModel(orDefault(opts.Model, p.defaultModel)),
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = defaultMaxTokens
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newHTTPError(resp.StatusCode, raw)
	}
	return completionText(raw)
}

// completionText extracts the first choice's message content.
func completionText(raw []byte) (string, error) {
	if !json.Valid(raw) {
		return "", errors.New("decode response: invalid JSON")
	}
	if msg, err := jsonparser.GetString(raw, "error", "message"); err == nil {
		return "", fmt.Errorf("provider error: %s", msg)
	}

	choice, typ, _, err := jsonparser.Get(raw, "choices", "[0]")
	if err != nil || typ != jsonparser.Object {
		return "", errors.New("provider returned no choices")
	}
	if reason, _ := jsonparser.GetString(choice, "finish_reason"); reason == "length" {
		slog.Warn("Model output truncated", "finish_reason", reason)
	}
	content, _ := jsonparser.GetString(choice, "message", "content")
	return strings.TrimSpace(content), nil
}
