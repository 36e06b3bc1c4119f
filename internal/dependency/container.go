// Package dependency wires gitcourier services using go.uber.org/dig.
package dependency

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/dig"

	"github.com/crystaldolphin/gitcourier/internal/agent"
	"github.com/crystaldolphin/gitcourier/internal/config"
	"github.com/crystaldolphin/gitcourier/internal/gitops"
	"github.com/crystaldolphin/gitcourier/internal/host"
	"github.com/crystaldolphin/gitcourier/internal/mail"
	"github.com/crystaldolphin/gitcourier/internal/mcp"
	"github.com/crystaldolphin/gitcourier/internal/providers"
	"github.com/crystaldolphin/gitcourier/internal/schema"
	"github.com/crystaldolphin/gitcourier/internal/store"
	"github.com/crystaldolphin/gitcourier/internal/tools"
	"github.com/crystaldolphin/gitcourier/internal/verify"
)

// Container resolves services on first use. Callers use the typed getter
// methods; they never need to import dig directly.
type Container struct {
	d   *dig.Container
	cfg *config.Config
	db  *store.DB
}

// Ledger is the optional sqlite database. DB is nil when store.enabled is off.
type Ledger struct{ DB *store.DB }

// LLMModel is a named string type so dig can distinguish it from plain
// strings when injecting the effective model name.
type LLMModel string

// New registers every constructor. Nothing is built until a getter needs it.
func New(cfg *config.Config) (*Container, error) {
	c := &Container{d: dig.New(), cfg: cfg}

	ctors := []any{
		func() *config.Config { return cfg },
		c.newLedger,
		newOutbox,
		newSender,
		newSentChecker,
		newGit,
		newGate,
		newHost,
		newModel,
		resolveLLMModel,
	}
	for _, ctor := range ctors {
		if err := c.d.Provide(ctor); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) Config() *config.Config { return c.cfg }

// Host returns the tool host serving the five tools.
func (c *Container) Host() (*host.Host, error) {
	var h *host.Host
	err := c.d.Invoke(func(x *host.Host) { h = x })
	return h, err
}

// Model returns the configured model backend.
func (c *Container) Model() (schema.Model, error) {
	var m schema.Model
	err := c.d.Invoke(func(x schema.Model) { m = x })
	return m, err
}

// Store returns the sqlite database, or nil when the ledger is disabled.
func (c *Container) Store() (*store.DB, error) {
	var l Ledger
	err := c.d.Invoke(func(x Ledger) { l = x })
	return l.DB, err
}

// Close releases the database if it was opened.
func (c *Container) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// ToolHost returns the tool host the loop talks to: the in-process host, or
// an MCP connection described by the host config. The closer ends the
// connection.
func (c *Container) ToolHost(ctx context.Context, inProcess bool) (schema.ToolHost, io.Closer, error) {
	if inProcess || (c.cfg.Host.Command == "" && c.cfg.Host.URL == "") {
		h, err := c.Host()
		if err != nil {
			return nil, nil, err
		}
		return host.NewLocal(h), io.NopCloser(nil), nil
	}

	client, err := mcp.Connect(ctx, host.ServerName, mcp.FromHostConfig(c.cfg.Host))
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

// Service builds an agent service over toolHost: registry from its tool
// list, the configured model and, when enabled, the run ledger.
func (c *Container) Service(ctx context.Context, toolHost schema.ToolHost) (*agent.Service, error) {
	registry, err := tools.Load(ctx, toolHost)
	if err != nil {
		return nil, err
	}

	var (
		model  schema.Model
		name   LLMModel
		ledger Ledger
	)
	if err := c.d.Invoke(func(m schema.Model, n LLMModel, l Ledger) {
		model, name, ledger = m, n, l
	}); err != nil {
		return nil, err
	}

	settings := schema.NewAgentSettings(
		string(name),
		c.cfg.Agent.MaxIterations,
		c.cfg.Agent.Temperature,
		c.cfg.Agent.MaxTokens,
		c.cfg.Agent.ModelTimeout(),
	)
	loop := agent.NewLoop(model, registry, toolHost, settings, "")

	var recorder agent.RunRecorder
	if ledger.DB != nil {
		recorder = ledger.DB.Runs()
	}
	return agent.NewService(loop, recorder), nil
}

func (c *Container) newLedger(cfg *config.Config) (Ledger, error) {
	if !cfg.Store.Enabled {
		return Ledger{}, nil
	}
	db, err := store.Open(cfg.StorePath())
	if err != nil {
		return Ledger{}, err
	}
	c.db = db
	return Ledger{DB: db}, nil
}

func newOutbox(l Ledger) mail.Outbox {
	if l.DB == nil {
		return nil
	}
	return l.DB.Outbox()
}

func newSender(cfg *config.Config, outbox mail.Outbox) *mail.Sender {
	return mail.NewSender(cfg.Mail, outbox)
}

func newSentChecker(cfg *config.Config, outbox mail.Outbox) (verify.SentChecker, error) {
	switch cfg.Mail.SentCheck {
	case "imap":
		return mail.NewIMAPSentChecker(cfg.Mail, time.Now), nil
	case "", "outbox":
		if outbox == nil {
			return nil, fmt.Errorf("mail.sentCheck %q needs store.enabled", "outbox")
		}
		return mail.NewOutboxSentChecker(outbox,
			cfg.Mail.VerifyCandidates,
			time.Duration(cfg.Mail.VerifyWindowSeconds)*time.Second,
			time.Now,
		), nil
	default:
		return nil, fmt.Errorf("unknown mail.sentCheck %q (want imap or outbox)", cfg.Mail.SentCheck)
	}
}

func newGit(cfg *config.Config) *gitops.Git {
	return gitops.New(time.Duration(cfg.Host.GitTimeoutSeconds) * time.Second)
}

func newGate(cfg *config.Config, sent verify.SentChecker, sender *mail.Sender) *verify.Gate {
	log := gitops.BranchLog{RepoDir: cfg.RepoDir(), Branch: cfg.Host.Branch}
	return verify.NewGate(verify.OSDirs{}, log, sent, sender.Recipient(), sender.Subject())
}

func newHost(cfg *config.Config, git *gitops.Git, sender *mail.Sender, gate *verify.Gate) *host.Host {
	return host.New(host.Deps{
		Repo:       git,
		Mailer:     sender,
		Verifier:   gate,
		RepoDir:    cfg.RepoDir(),
		LedgerSize: cfg.Host.LedgerSize,
	})
}

func newModel(cfg *config.Config) (schema.Model, error) {
	params := cfg.ProviderParams("")
	if params.APIKey == "" && !providers.IsLocal(params.ProviderName) {
		return nil, fmt.Errorf("no API key configured for model %q: edit %s or set %s", cfg.Agent.Model, config.ConfigPath(), config.EnvGeminiKey)
	}
	return providers.New(params)
}

func resolveLLMModel(cfg *config.Config, m schema.Model) LLMModel {
	if cfg.Agent.Model != "" {
		return LLMModel(cfg.Agent.Model)
	}
	return LLMModel(m.DefaultModel())
}
