// Package mcp is the client side of the tool-host boundary: it speaks MCP
// JSON-RPC to the tool host over a stdio subprocess or HTTP and exposes the
// host's tools as schema.ToolDescriptors.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/crystaldolphin/gitcourier/internal/schema"
	"github.com/crystaldolphin/gitcourier/internal/tools"
)

// Client is a connected tool host. It implements schema.ToolHost.
type Client struct {
	c *client
}

var _ schema.ToolHost = (*Client)(nil)

// Connect starts (or dials) the tool host described by cfg and performs the
// MCP handshake.
func Connect(ctx context.Context, name string, cfg ServerConfig) (*Client, error) {
	c := newClient(name, cfg)
	if err := c.connect(ctx); err != nil {
		return nil, fmt.Errorf("connect tool host %q: %w", name, err)
	}
	slog.Info("Tool host connected", "host", name)
	return &Client{c: c}, nil
}

// ConnectPipe performs the handshake with a server already attached to r
// (server output) and w (server input).
func ConnectPipe(ctx context.Context, name string, r io.Reader, w io.WriteCloser) (*Client, error) {
	c := newPipeClient(name, r, w)
	if err := c.connect(ctx); err != nil {
		return nil, fmt.Errorf("connect tool host %q: %w", name, err)
	}
	return &Client{c: c}, nil
}

// ListTools implements schema.ToolHost. Parameter order follows each tool's
// input schema document.
func (h *Client) ListTools(ctx context.Context) ([]schema.ToolDescriptor, error) {
	raw, err := h.c.listTools(ctx)
	if err != nil {
		return nil, err
	}

	descs := make([]schema.ToolDescriptor, 0, len(raw))
	for _, t := range raw {
		if t.Name == "" {
			continue
		}
		d, err := tools.DescriptorFromSchema(t.Name, t.Description, t.InputSchema)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
		slog.Debug("Tool discovered", "host", h.c.name, "tool", d.Signature())
	}
	return descs, nil
}

// CallTool implements schema.ToolHost.
func (h *Client) CallTool(ctx context.Context, name string, args map[string]any) (*string, error) {
	raw, err := h.c.callTool(ctx, name, args)
	if err != nil {
		return nil, err
	}
	return decodeToolResult(name, raw)
}

// Close shuts the connection down and stops a subprocess host.
func (h *Client) Close() error {
	return h.c.close()
}
