package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

func TestOpenAIProvider_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  FUNCTION_CALL: verify|Changed \n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/", "openai/gpt-4o-mini", "openai", map[string]string{"X-Extra": "yes"})
	out, err := p.Generate(context.Background(), "What should I do next?", schema.NewGenerateOptions("", 256, 0.2))

	require.NoError(t, err)
	assert.Equal(t, "FUNCTION_CALL: verify|Changed", out)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 256, got["max_tokens"])

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "What should I do next?", msgs[0].(map[string]any)["content"])
}

func TestOpenAIProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("k", srv.URL, "gpt-4o", "openai", nil)
	_, err := p.Generate(context.Background(), "hi", schema.GenerateOptions{})

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Code)
	assert.Equal(t, "rate limit exceeded", httpErr.Body)
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("k", srv.URL, "gpt-4o", "openai", nil)
	_, err := p.Generate(context.Background(), "hi", schema.GenerateOptions{})

	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAIProvider_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewOpenAIProvider("k", srv.URL, "gpt-4o", "openai", nil)
	_, err := p.Generate(ctx, "hi", schema.GenerateOptions{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		name, model, provider, base, want string
	}{
		{"openai prefix stripped", "openai/gpt-4o", "openai", "", "gpt-4o"},
		{"openrouter keeps vendor", "openrouter/anthropic/claude-3.5", "openrouter", "", "anthropic/claude-3.5"},
		{"ollama strips everything", "ollama/llama3.2", "", "http://localhost:11434/v1", "llama3.2"},
		{"bare model untouched", "deepseek-chat", "deepseek", "", "deepseek-chat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewOpenAIProvider("", tt.base, tt.model, tt.provider, nil)
			assert.Equal(t, tt.want, p.resolveModel(tt.model))
		})
	}
}

func TestFindByModel(t *testing.T) {
	assert.Equal(t, "gemini", FindByModel("gemini-2.0-flash").Name)
	assert.Equal(t, "openai", FindByModel("gpt-4o").Name)
	assert.Equal(t, "deepseek", FindByModel("deepseek/deepseek-chat").Name)
	assert.Nil(t, FindByModel("mystery-model"))
}

func TestNew_PicksBackend(t *testing.T) {
	m, err := New(Params{DefaultModel: "gpt-4o", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIProvider{}, m)

	_, err = New(Params{DefaultModel: "gemini-2.0-flash"})
	assert.ErrorContains(t, err, "API key is required")
}

func TestCompletionText(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr string
	}{
		{"first choice", `{"choices":[{"message":{"content":"FINAL_ANSWER: [ok]"}},{"message":{"content":"x"}}]}`, "FINAL_ANSWER: [ok]", ""},
		{"null content", `{"choices":[{"message":{"content":null},"finish_reason":"length"}]}`, "", ""},
		{"error body", `{"error":{"message":"model not found"}}`, "", "provider error: model not found"},
		{"not json", `<html>`, "", "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := completionText([]byte(tt.raw))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
