package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath returns the default configuration file path: ~/.gitcourier/config.json.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gitcourier/config.json"
	}
	return filepath.Join(home, ".gitcourier", "config.json")
}

// DataDir returns the gitcourier data directory: ~/.gitcourier.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gitcourier"
	}
	return filepath.Join(home, ".gitcourier")
}

// Environment variables that override file values.
const (
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvRecipient    = "RECEIVER_EMAIL_ID"
	EnvSMTPPassword = "GITCOURIER_SMTP_PASSWORD"
	EnvIMAPPassword = "GITCOURIER_IMAP_PASSWORD"
)

// Load reads and parses the config file at path, then applies environment
// overrides. If path is empty, ConfigPath() is used.
// On parse failure it logs a warning and returns DefaultConfig().
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnv(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := unmarshal(path, data, &cfg); err != nil {
		slog.Warn("Failed to parse config, using defaults", "path", path, "err", err)
		cfg = DefaultConfig()
	}
	applyEnv(&cfg)

	return &cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Providers.Gemini.APIKey, EnvGeminiKey)
	set(&cfg.Providers.OpenAI.APIKey, EnvOpenAIKey)
	set(&cfg.Mail.Recipient, EnvRecipient)
	set(&cfg.Mail.SMTPPassword, EnvSMTPPassword)
	set(&cfg.Mail.IMAPPassword, EnvIMAPPassword)
}

// Save writes cfg to path as indented JSON, or YAML for .yaml/.yml paths.
// If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
