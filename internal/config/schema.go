// Package config defines the configuration schema for gitcourier.
//
// The file lives at ~/.gitcourier/config.json by default; .yaml and .yml files
// are accepted too and use the same camelCase keys.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ProviderConfig holds credentials for one LLM provider.
type ProviderConfig struct {
	APIKey       string            `json:"apiKey" yaml:"apiKey"`
	APIBase      string            `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty" yaml:"extraHeaders,omitempty"`
}

// ProvidersConfig holds credentials for all supported LLM providers.
type ProvidersConfig struct {
	Custom     ProviderConfig `json:"custom" yaml:"custom"`
	Gemini     ProviderConfig `json:"gemini" yaml:"gemini"`
	OpenAI     ProviderConfig `json:"openai" yaml:"openai"`
	OpenRouter ProviderConfig `json:"openrouter" yaml:"openrouter"`
	DeepSeek   ProviderConfig `json:"deepseek" yaml:"deepseek"`
	Groq       ProviderConfig `json:"groq" yaml:"groq"`
	Ollama     ProviderConfig `json:"ollama" yaml:"ollama"`
}

// AgentConfig holds the orchestration loop settings.
type AgentConfig struct {
	Workspace           string  `json:"workspace" yaml:"workspace"`
	Model               string  `json:"model" yaml:"model"`
	Provider            string  `json:"provider,omitempty" yaml:"provider,omitempty"`
	MaxTokens           int     `json:"maxTokens" yaml:"maxTokens"`
	Temperature         float64 `json:"temperature" yaml:"temperature"`
	MaxIterations       int     `json:"maxIterations" yaml:"maxIterations"`
	ModelTimeoutSeconds int     `json:"modelTimeoutSeconds" yaml:"modelTimeoutSeconds"`
	// TaskTemplate turns a repository URL into a task; %s is the URL.
	TaskTemplate string `json:"taskTemplate" yaml:"taskTemplate"`
}

func defaultAgentConfig() AgentConfig {
	return AgentConfig{
		Workspace:           "~/.gitcourier/workspace",
		Model:               "gemini-2.0-flash",
		MaxTokens:           2048,
		Temperature:         0.2,
		MaxIterations:       8,
		ModelTimeoutSeconds: 10,
		TaskTemplate:        "Clone this repository '%s', take a pull and email the code changes.",
	}
}

// ModelTimeout returns the per-request model timeout.
func (a AgentConfig) ModelTimeout() time.Duration {
	return time.Duration(a.ModelTimeoutSeconds) * time.Second
}

// MailConfig configures SMTP delivery and the sent-mail verification.
type MailConfig struct {
	// SMTP (send)
	SMTPHost     string `json:"smtpHost" yaml:"smtpHost"`
	SMTPPort     int    `json:"smtpPort" yaml:"smtpPort"`
	SMTPUsername string `json:"smtpUsername" yaml:"smtpUsername"`
	SMTPPassword string `json:"smtpPassword" yaml:"smtpPassword"`
	SMTPUseSSL   bool   `json:"smtpUseSsl" yaml:"smtpUseSsl"`
	FromAddress  string `json:"fromAddress" yaml:"fromAddress"`

	// IMAP (sent-mail lookup)
	IMAPHost     string `json:"imapHost" yaml:"imapHost"`
	IMAPPort     int    `json:"imapPort" yaml:"imapPort"`
	IMAPUsername string `json:"imapUsername" yaml:"imapUsername"`
	IMAPPassword string `json:"imapPassword" yaml:"imapPassword"`
	IMAPUseSSL   bool   `json:"imapUseSsl" yaml:"imapUseSsl"`
	SentMailbox  string `json:"sentMailbox" yaml:"sentMailbox"`

	// Behaviour
	Recipient string `json:"recipient" yaml:"recipient"`
	Subject   string `json:"subject" yaml:"subject"`
	// SentCheck selects the sent-mail lookup: "imap" or "outbox".
	SentCheck           string `json:"sentCheck" yaml:"sentCheck"`
	VerifyCandidates    int    `json:"verifyCandidates" yaml:"verifyCandidates"`
	VerifyWindowSeconds int    `json:"verifyWindowSeconds" yaml:"verifyWindowSeconds"`
}

func defaultMailConfig() MailConfig {
	return MailConfig{
		SMTPHost:            "smtp.gmail.com",
		SMTPPort:            587,
		IMAPHost:            "imap.gmail.com",
		IMAPPort:            993,
		IMAPUseSSL:          true,
		SentMailbox:         "[Gmail]/Sent Mail",
		Subject:             "Message from GMail MCP Server",
		SentCheck:           "outbox",
		VerifyCandidates:    5,
		VerifyWindowSeconds: 60,
	}
}

// HostConfig describes how to reach the tool host (stdio subprocess or HTTP),
// and where `gitcourier serve --http` listens.
type HostConfig struct {
	Command  string            `json:"command" yaml:"command"`
	Args     []string          `json:"args" yaml:"args"`
	Env      map[string]string `json:"env" yaml:"env"`
	URL      string            `json:"url" yaml:"url"`
	Headers  map[string]string `json:"headers" yaml:"headers"`
	HTTPAddr string            `json:"httpAddr" yaml:"httpAddr"`
	// LedgerSize bounds how many results the host remembers for verification.
	LedgerSize int `json:"ledgerSize" yaml:"ledgerSize"`
	// GitTimeoutSeconds bounds each git invocation.
	GitTimeoutSeconds int `json:"gitTimeoutSeconds" yaml:"gitTimeoutSeconds"`
	Branch            string `json:"branch" yaml:"branch"`
}

func defaultHostConfig() HostConfig {
	return HostConfig{
		Args:              []string{},
		Env:               map[string]string{},
		Headers:           map[string]string{},
		HTTPAddr:          "127.0.0.1:8931",
		LedgerSize:        64,
		GitTimeoutSeconds: 120,
		Branch:            "main",
	}
}

// StoreConfig configures the sqlite run ledger and outbox.
type StoreConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

func defaultStoreConfig() StoreConfig {
	return StoreConfig{Enabled: true, Path: "~/.gitcourier/gitcourier.db"}
}

// WatchConfig is one scheduled run: a cron schedule plus a task or repo URL.
type WatchConfig struct {
	Name     string `json:"name" yaml:"name"`
	Schedule string `json:"schedule" yaml:"schedule"`
	Repo     string `json:"repo,omitempty" yaml:"repo,omitempty"`
	Task     string `json:"task,omitempty" yaml:"task,omitempty"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Config is the root configuration object.
type Config struct {
	Agent     AgentConfig     `json:"agent" yaml:"agent"`
	Providers ProvidersConfig `json:"providers" yaml:"providers"`
	Mail      MailConfig      `json:"mail" yaml:"mail"`
	Host      HostConfig      `json:"host" yaml:"host"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Watches   []WatchConfig   `json:"watches" yaml:"watches"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Agent:     defaultAgentConfig(),
		Providers: ProvidersConfig{},
		Mail:      defaultMailConfig(),
		Host:      defaultHostConfig(),
		Store:     defaultStoreConfig(),
		Watches:   []WatchConfig{},
		Log:       LogConfig{Level: "info"},
	}
}

// WorkspacePath returns the expanded absolute path to the agent workspace.
func (c *Config) WorkspacePath() string {
	ws := c.Agent.Workspace
	if ws == "" {
		ws = "~/.gitcourier/workspace"
	}
	return expandHome(ws)
}

// StorePath returns the expanded path of the sqlite database.
func (c *Config) StorePath() string {
	p := c.Store.Path
	if p == "" {
		p = filepath.Join(DataDir(), "gitcourier.db")
	}
	return expandHome(p)
}

// RepoDir is where clone_repo puts the repository.
func (c *Config) RepoDir() string {
	return filepath.Join(c.WorkspacePath(), "repository")
}

// TaskFor returns the task text of a watch.
func (c *Config) TaskFor(w WatchConfig) string {
	if w.Task != "" {
		return w.Task
	}
	return c.RepoTask(w.Repo)
}

// RepoTask renders the task template for a repository URL.
func (c *Config) RepoTask(url string) string {
	tmpl := c.Agent.TaskTemplate
	if !strings.Contains(tmpl, "%s") {
		tmpl = defaultAgentConfig().TaskTemplate
	}
	return strings.Replace(tmpl, "%s", url, 1)
}

// ProviderByName returns a pointer to the ProviderConfig field matching the
// given registry name. Returns nil if unknown.
func (c *Config) ProviderByName(name string) *ProviderConfig {
	switch name {
	case "custom":
		return &c.Providers.Custom
	case "gemini":
		return &c.Providers.Gemini
	case "openai":
		return &c.Providers.OpenAI
	case "openrouter":
		return &c.Providers.OpenRouter
	case "deepseek":
		return &c.Providers.DeepSeek
	case "groq":
		return &c.Providers.Groq
	case "ollama":
		return &c.Providers.Ollama
	}
	return nil
}

func expandHome(p string) string {
	if len(p) >= 2 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
