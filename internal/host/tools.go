package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/crystaldolphin/gitcourier/internal/schema"
	"github.com/crystaldolphin/gitcourier/internal/verify"
)

const (
	ToolShowReasoning = "show_reasoning"
	ToolCloneRepo     = "clone_repo"
	ToolPullRepo      = "pull_repo"
	ToolSendEmail     = "send_email"
	ToolVerify        = "verify"

	ReasoningShown = "Reasoning shown"
)

// Handler runs one tool against decoded arguments and returns its text.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Spec is one tool the host serves. Verifies declares the verification branch
// the tool's results imply; VerifyUnknown results are not recorded.
type Spec struct {
	Tool     mcp.Tool
	Verifies schema.VerifyKind
	Handle   Handler
}

// Repo clones and pulls the tracked repository.
type Repo interface {
	Clone(ctx context.Context, url, dir string) (bool, error)
	Pull(ctx context.Context, dir string) (bool, error)
}

// Mailer delivers a notification to the configured recipient.
type Mailer interface {
	Send(ctx context.Context, body string) (string, error)
	Recipient() string
}

// Verifier checks a previous result against system state.
type Verifier interface {
	Verify(ctx context.Context, s verify.Subject) verify.Verdict
}

func (h *Host) reasoningSpec() Spec {
	return Spec{
		Tool: mcp.NewTool(ToolShowReasoning,
			mcp.WithDescription("Show the step-by-step reasoning behind the current task. Each entry is one step."),
			mcp.WithArray("steps",
				mcp.Required(),
				mcp.Description("Reasoning steps in order"),
				mcp.Items(map[string]any{"type": "string"}),
			),
		),
		Verifies: schema.VerifyNone,
		Handle: func(_ context.Context, args map[string]any) (string, error) {
			steps, err := stringsArg(args, "steps")
			if err != nil {
				return "", err
			}
			slog.Info("Show reasoning", "steps", len(steps))
			for i, step := range steps {
				slog.Info(fmt.Sprintf("Step %d - %s", i+1, step))
			}
			return ReasoningShown, nil
		},
	}
}

func (h *Host) cloneSpec() Spec {
	return Spec{
		Tool: mcp.NewTool(ToolCloneRepo,
			mcp.WithDescription("Clone a git repository into the workspace. Returns the directory the repository lives in."),
			mcp.WithString("repo_url", mcp.Required(), mcp.Description("URL of the repository to clone")),
		),
		Verifies: schema.VerifyClone,
		Handle: func(ctx context.Context, args map[string]any) (string, error) {
			url, err := stringArg(args, "repo_url")
			if err != nil {
				return "", err
			}
			cloned, err := h.deps.Repo.Clone(ctx, url, h.deps.RepoDir)
			if err != nil {
				return "", err
			}
			if cloned {
				slog.Info("Repository cloned", "dir", h.deps.RepoDir)
			} else {
				slog.Info("Repository directory exists, skipping clone", "dir", h.deps.RepoDir)
			}
			return h.deps.RepoDir, nil
		},
	}
}

func (h *Host) pullSpec() Spec {
	return Spec{
		Tool: mcp.NewTool(ToolPullRepo,
			mcp.WithDescription("Pull the latest changes of a cloned repository. Returns Changed or NoChanges."),
			mcp.WithString("repo_dir", mcp.Required(), mcp.Description("Local directory of the repository")),
		),
		Verifies: schema.VerifyPull,
		Handle: func(ctx context.Context, args map[string]any) (string, error) {
			dir, err := stringArg(args, "repo_dir")
			if err != nil {
				return "", err
			}
			changed, err := h.deps.Repo.Pull(ctx, dir)
			if err != nil {
				return "", err
			}
			if changed {
				slog.Info("Repository updated", "dir", dir)
				return verify.PullChanged, nil
			}
			slog.Info("No changes detected", "dir", dir)
			return verify.PullNoChanges, nil
		},
	}
}

func (h *Host) sendEmailSpec() Spec {
	return Spec{
		Tool: mcp.NewTool(ToolSendEmail,
			mcp.WithDescription("Send an email with the given message to the configured recipient."),
			mcp.WithString("message", mcp.Required(), mcp.Description("Body of the email")),
		),
		Verifies: schema.VerifyEmail,
		Handle: func(ctx context.Context, args map[string]any) (string, error) {
			body, err := stringArg(args, "message")
			if err != nil {
				return "", err
			}
			to := h.deps.Mailer.Recipient()
			id, err := h.deps.Mailer.Send(ctx, body)
			if err != nil {
				slog.Error("Send email failed", "to", to, "err", err)
				return fmt.Sprintf("❌ Error sending email: %v", err), nil
			}
			return fmt.Sprintf("✅ Email sent successfully to %s! Message ID: %s", to, id), nil
		},
	}
}

func (h *Host) verifySpec() Spec {
	return Spec{
		Tool: mcp.NewTool(ToolVerify,
			mcp.WithDescription("Verify the outcome of a previous tool call. Pass that call's result text unchanged."),
			mcp.WithString("result", mcp.Required(), mcp.Description("Result text of the call to verify")),
		),
		Handle: func(ctx context.Context, args map[string]any) (string, error) {
			text, err := stringArg(args, "result")
			if err != nil {
				return "", err
			}
			kind, _ := h.ledger.Lookup(text)
			return h.deps.Verifier.Verify(ctx, verify.Subject{Kind: kind, Text: text}).Message, nil
		},
	}
}
