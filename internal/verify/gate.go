// Package verify decides whether a tool's reported outcome actually holds by
// checking the repository, the git log or the sent mailbox.
package verify

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

const (
	PassedBanner = "✅✅✅✅✅✅✅ Verification Passed ✅✅✅✅✅✅✅"
	FailedBanner = "❌❌❌❌❌❌❌ Verification Failed ❌❌❌❌❌❌❌"

	// PullChanged and PullNoChanges are the two results of a pull.
	PullChanged   = "Changed"
	PullNoChanges = "NoChanges"

	// PullLogMarker must appear in the branch log after a pull.
	PullLogMarker = "pull"
	// EmailSentPhrase must appear in the sent-mail check's report.
	EmailSentPhrase = "Email was sent successfully"
)

// DirChecker reports whether a directory exists on the host filesystem.
type DirChecker interface {
	IsDir(path string) bool
}

// GitLog returns the log text of the working repository.
type GitLog interface {
	Log(ctx context.Context) (string, error)
}

// SentChecker searches the sent mailbox. It reports a human-readable result
// text; "no match" is a text, not an error.
type SentChecker interface {
	WasSent(ctx context.Context, to, subject string) (string, error)
}

// OSDirs checks directories with os.Stat.
type OSDirs struct{}

func (OSDirs) IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// Subject is the result under verification. Kind is the verification branch
// declared by the tool that produced Text; VerifyUnknown means the branch is
// inferred from the shape of Text.
type Subject struct {
	Kind schema.VerifyKind
	Text string
}

// Verdict is the outcome of one verification.
type Verdict struct {
	Passed  bool
	Message string
}

func newVerdict(passed bool) Verdict {
	if passed {
		return Verdict{Passed: true, Message: PassedBanner}
	}
	return Verdict{Passed: false, Message: FailedBanner}
}

// Classify infers the verification branch from the shape of an untagged
// result, in priority order: path-shaped text is a clone, a pull sentinel is a
// pull and anything else is an email send.
func Classify(text string) schema.VerifyKind {
	switch {
	case IsProbablePath(text):
		return schema.VerifyClone
	case text == PullChanged || text == PullNoChanges:
		return schema.VerifyPull
	default:
		return schema.VerifyEmail
	}
}

// Gate runs the check matching a result's verification kind.
type Gate struct {
	dirs      DirChecker
	log       GitLog
	sent      SentChecker
	recipient string
	subject   string
}

// NewGate builds a gate. recipient and subject are the fixed filters of the
// email branch.
func NewGate(dirs DirChecker, log GitLog, sent SentChecker, recipient, subject string) *Gate {
	if dirs == nil {
		dirs = OSDirs{}
	}
	return &Gate{dirs: dirs, log: log, sent: sent, recipient: recipient, subject: subject}
}

// Verify checks s and renders the verdict. Collaborator failures count as a
// failed verification.
func (g *Gate) Verify(ctx context.Context, s Subject) Verdict {
	kind := s.Kind
	if kind == schema.VerifyUnknown {
		kind = Classify(s.Text)
	}

	var passed bool
	switch kind {
	case schema.VerifyNone:
		passed = true
	case schema.VerifyClone:
		passed = g.dirs.IsDir(s.Text)
	case schema.VerifyPull:
		passed = g.checkPull(ctx)
	default:
		passed = g.checkEmail(ctx)
	}

	slog.Info("Verification", "kind", kind, "passed", passed)
	return newVerdict(passed)
}

func (g *Gate) checkPull(ctx context.Context) bool {
	if g.log == nil {
		return false
	}
	text, err := g.log.Log(ctx)
	if err != nil {
		slog.Warn("Read git log failed", "err", err)
		return false
	}
	return strings.Contains(text, PullLogMarker)
}

// checkEmail asks whether a message with the configured recipient and subject
// was sent recently. The result under verification is not consulted, so any
// matching message inside the window satisfies it.
func (g *Gate) checkEmail(ctx context.Context) bool {
	if g.sent == nil {
		return false
	}
	text, err := g.sent.WasSent(ctx, g.recipient, g.subject)
	if err != nil {
		slog.Warn("Sent mail check failed", "err", err)
		return false
	}
	return strings.Contains(text, EmailSentPhrase)
}
