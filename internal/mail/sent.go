// Package mail sends the notification email over SMTP and answers the
// "was this email sent recently" question used by verification, either from
// the IMAP sent mailbox or from the local outbox.
package mail

import (
	"context"
	"fmt"
	"time"
)

// Clock returns the current time. Checkers compare send times against their
// own clock.
type Clock func() time.Time

const (
	DefaultCandidates = 5
	DefaultWindow     = 60 * time.Second
)

// SentMessage is one delivered message as recorded in the outbox.
type SentMessage struct {
	ID      string
	To      string
	Subject string
	SentAt  time.Time
}

// Outbox persists delivered messages and lists the most recent ones.
type Outbox interface {
	Record(ctx context.Context, m SentMessage) error
	// Recent returns at most n messages to `to` whose subject contains
	// subject, newest first.
	Recent(ctx context.Context, to, subject string, n int) ([]SentMessage, error)
}

// window holds the search limits shared by every sent checker.
type window struct {
	candidates int
	span       time.Duration
	now        Clock
}

func newWindow(candidates int, span time.Duration, now Clock) window {
	if candidates <= 0 {
		candidates = DefaultCandidates
	}
	if span <= 0 {
		span = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return window{candidates: candidates, span: span, now: now}
}

// evaluate reports success iff one of the send times lies in the inclusive
// window [now-span, now].
func (w window) evaluate(to, subject string, sent []time.Time) string {
	if len(sent) == 0 {
		return fmt.Sprintf("❌ No sent emails found matching To: %s, Subject: %s", to, subject)
	}

	now := w.now()
	from := now.Add(-w.span)
	for _, t := range sent {
		if !t.Before(from) && !t.After(now) {
			return fmt.Sprintf("✅ Email was sent successfully at %s UTC.", t.UTC().Format(time.DateTime))
		}
	}
	return fmt.Sprintf("❌ No emails were sent in the last %d seconds.", int(w.span/time.Second))
}

// OutboxSentChecker answers from the local outbox the SMTP sender writes to.
type OutboxSentChecker struct {
	outbox Outbox
	window
}

// NewOutboxSentChecker returns a checker over outbox. Zero candidates or span
// select the defaults; a nil clock means time.Now.
func NewOutboxSentChecker(outbox Outbox, candidates int, span time.Duration, now Clock) *OutboxSentChecker {
	return &OutboxSentChecker{outbox: outbox, window: newWindow(candidates, span, now)}
}

// WasSent implements verify.SentChecker.
func (c *OutboxSentChecker) WasSent(ctx context.Context, to, subject string) (string, error) {
	msgs, err := c.outbox.Recent(ctx, to, subject, c.candidates)
	if err != nil {
		return "", fmt.Errorf("outbox lookup: %w", err)
	}

	times := make([]time.Time, 0, len(msgs))
	for _, m := range msgs {
		times = append(times, m.SentAt)
	}
	return c.evaluate(to, subject, times), nil
}
