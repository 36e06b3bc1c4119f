package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type memOutbox struct {
	msgs []SentMessage
	err  error
	n    int
}

func (m *memOutbox) Record(_ context.Context, msg SentMessage) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *memOutbox) Recent(_ context.Context, to, subject string, n int) ([]SentMessage, error) {
	m.n = n
	if m.err != nil {
		return nil, m.err
	}
	var out []SentMessage
	for i := len(m.msgs) - 1; i >= 0 && len(out) < n; i-- {
		if m.msgs[i].To == to && strings.Contains(m.msgs[i].Subject, subject) {
			out = append(out, m.msgs[i])
		}
	}
	return out, nil
}

func TestWindow_InclusiveBounds(t *testing.T) {
	w := newWindow(5, time.Minute, clock)

	tests := []struct {
		name   string
		sent   time.Time
		passed bool
	}{
		{"exactly now", fixedNow, true},
		{"exactly window start", fixedNow.Add(-time.Minute), true},
		{"inside", fixedNow.Add(-30 * time.Second), true},
		{"just before window", fixedNow.Add(-time.Minute - time.Nanosecond), false},
		{"in the future", fixedNow.Add(time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := w.evaluate("a@b.c", "s", []time.Time{tt.sent})
			assert.Equal(t, tt.passed, strings.Contains(text, "Email was sent successfully"), text)
		})
	}
}

func TestWindow_NoCandidates(t *testing.T) {
	text := newWindow(0, 0, clock).evaluate("a@b.c", "Hello", nil)

	assert.Equal(t, "❌ No sent emails found matching To: a@b.c, Subject: Hello", text)
}

func TestWindow_SuccessText(t *testing.T) {
	text := newWindow(0, 0, clock).evaluate("a@b.c", "s", []time.Time{fixedNow.Add(-10 * time.Second)})

	assert.Equal(t, "✅ Email was sent successfully at 2025-03-14 09:29:50 UTC.", text)
}

func TestOutboxSentChecker(t *testing.T) {
	ob := &memOutbox{msgs: []SentMessage{
		{ID: "old", To: "a@b.c", Subject: "Message from GMail MCP Server", SentAt: fixedNow.Add(-time.Hour)},
		{ID: "other", To: "x@y.z", Subject: "Message from GMail MCP Server", SentAt: fixedNow},
	}}
	c := NewOutboxSentChecker(ob, 0, 0, clock)

	text, err := c.WasSent(context.Background(), "a@b.c", "GMail MCP")
	require.NoError(t, err)
	assert.Contains(t, text, "No emails were sent in the last 60 seconds")
	assert.Equal(t, DefaultCandidates, ob.n)

	ob.msgs = append(ob.msgs, SentMessage{ID: "new", To: "a@b.c", Subject: "Message from GMail MCP Server", SentAt: fixedNow.Add(-5 * time.Second)})
	text, err = c.WasSent(context.Background(), "a@b.c", "GMail MCP")
	require.NoError(t, err)
	assert.Contains(t, text, "Email was sent successfully")
}

func TestOutboxSentChecker_Error(t *testing.T) {
	c := NewOutboxSentChecker(&memOutbox{err: errors.New("db closed")}, 0, 0, clock)

	_, err := c.WasSent(context.Background(), "a@b.c", "s")
	assert.ErrorContains(t, err, "db closed")
}
