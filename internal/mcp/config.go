package mcp

import "github.com/crystaldolphin/gitcourier/internal/config"

// ServerConfig holds the connection parameters for the tool host.
type ServerConfig struct {
	Command string
	Args    []string
	Env     map[string]string
	URL     string
	Headers map[string]string
}

// FromHostConfig converts the config-layer host settings.
func FromHostConfig(c config.HostConfig) ServerConfig {
	return ServerConfig{
		Command: c.Command,
		Args:    c.Args,
		Env:     c.Env,
		URL:     c.URL,
		Headers: c.Headers,
	}
}
