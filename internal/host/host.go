// Package host is the tool host: an MCP server exposing the repository,
// email and verification tools, plus an in-process schema.ToolHost over the
// same tools.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/crystaldolphin/gitcourier/internal/schema"
	"github.com/crystaldolphin/gitcourier/internal/tools"
)

const ServerName = "gitcourier"

// Deps are the collaborators behind the tools.
type Deps struct {
	Repo       Repo
	Mailer     Mailer
	Verifier   Verifier
	RepoDir    string
	LedgerSize int
}

// Host owns the tool specs and the ledger of results they produced.
type Host struct {
	deps   Deps
	specs  []Spec
	byName map[string]int
	ledger *Ledger
}

// New builds a host serving the five standard tools.
func New(deps Deps) *Host {
	h := &Host{deps: deps, ledger: NewLedger(deps.LedgerSize)}
	h.specs = []Spec{
		h.reasoningSpec(),
		h.cloneSpec(),
		h.pullSpec(),
		h.sendEmailSpec(),
		h.verifySpec(),
	}
	h.byName = make(map[string]int, len(h.specs))
	for i, s := range h.specs {
		h.byName[s.Tool.Name] = i
	}
	return h
}

// Specs returns the served tools in advertised order.
func (h *Host) Specs() []Spec { return h.specs }

// Ledger exposes the result ledger.
func (h *Host) Ledger() *Ledger { return h.ledger }

// Call runs the named tool. Successful results of tools with a declared
// verification kind are recorded in the ledger.
func (h *Host) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	i, ok := h.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	spec := h.specs[i]

	slog.Info("Tool called", "tool", name)
	text, err := spec.Handle(ctx, args)
	if err != nil {
		slog.Warn("Tool failed", "tool", name, "err", err)
		return "", err
	}
	if spec.Verifies != schema.VerifyUnknown {
		h.ledger.Record(text, spec.Verifies)
	}
	return text, nil
}

// Register adds every tool to s.
func (h *Host) Register(s *server.MCPServer) {
	for _, spec := range h.specs {
		name := spec.Tool.Name
		s.AddTool(spec.Tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, err := h.Call(ctx, name, request.GetArguments())
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(text), nil
		})
	}
}

// NewServer returns an MCP server with the host's tools registered.
func (h *Host) NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	h.Register(s)
	return s
}

// Local is an in-process schema.ToolHost backed by a Host. Descriptors are
// derived from the same input schemas a remote client would see.
type Local struct {
	h *Host
}

var _ schema.ToolHost = (*Local)(nil)

func NewLocal(h *Host) *Local { return &Local{h: h} }

func (l *Local) ListTools(_ context.Context) ([]schema.ToolDescriptor, error) {
	descs := make([]schema.ToolDescriptor, 0, len(l.h.specs))
	for _, spec := range l.h.specs {
		raw, err := json.Marshal(spec.Tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal input schema of %s: %w", spec.Tool.Name, err)
		}
		d, err := tools.DescriptorFromSchema(spec.Tool.Name, spec.Tool.Description, raw)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

func (l *Local) CallTool(ctx context.Context, name string, args map[string]any) (*string, error) {
	text, err := l.h.Call(ctx, name, args)
	if err != nil {
		return nil, err
	}
	return &text, nil
}
