package mail

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/crystaldolphin/gitcourier/internal/config"
)

const (
	imapDialTimeout    = 15 * time.Second
	imapSessionTimeout = 30 * time.Second
)

// IMAPSentChecker searches the sent mailbox over IMAP4rev1. Every session is
// bounded by timeout unless ctx carries an earlier deadline.
type IMAPSentChecker struct {
	cfg     config.MailConfig
	dial    func(ctx context.Context) (net.Conn, error)
	timeout time.Duration
	window
}

// NewIMAPSentChecker returns a checker for the mailbox described by cfg.
func NewIMAPSentChecker(cfg config.MailConfig, now Clock) *IMAPSentChecker {
	c := &IMAPSentChecker{
		cfg:     cfg,
		timeout: imapSessionTimeout,
		window: newWindow(cfg.VerifyCandidates, time.Duration(cfg.VerifyWindowSeconds)*time.Second, now),
	}
	c.dial = c.dialServer
	return c
}

func (c *IMAPSentChecker) dialServer(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(c.cfg.IMAPHost, fmt.Sprintf("%d", c.cfg.IMAPPort))
	nd := &net.Dialer{Timeout: imapDialTimeout}
	if c.cfg.IMAPUseSSL {
		d := tls.Dialer{NetDialer: nd, Config: &tls.Config{ServerName: c.cfg.IMAPHost}}
		return d.DialContext(ctx, "tcp", addr)
	}
	return nd.DialContext(ctx, "tcp", addr)
}

// WasSent implements verify.SentChecker.
func (c *IMAPSentChecker) WasSent(ctx context.Context, to, subject string) (string, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return "", fmt.Errorf("imap connect: %w", err)
	}
	defer conn.Close()
	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	imap := newIMAPConn(conn)
	if _, err := imap.readline(); err != nil {
		return "", fmt.Errorf("imap greeting: %w", err)
	}

	user, pass := c.cfg.IMAPUsername, c.cfg.IMAPPassword
	if user == "" {
		user, pass = c.cfg.SMTPUsername, c.cfg.SMTPPassword
	}
	if _, err := imap.exec(fmt.Sprintf("LOGIN %s %s", quote(user), quote(pass))); err != nil {
		return "", fmt.Errorf("imap login: %w", err)
	}
	defer imap.exec("LOGOUT") //nolint:errcheck

	mailbox := c.cfg.SentMailbox
	if mailbox == "" {
		mailbox = "Sent"
	}
	if _, err := imap.exec("EXAMINE " + quote(mailbox)); err != nil {
		return "", fmt.Errorf("imap select %s: %w", mailbox, err)
	}

	seqs, err := imap.search(fmt.Sprintf("TO %s SUBJECT %s", quote(to), quote(subject)))
	if err != nil {
		return "", fmt.Errorf("imap search: %w", err)
	}
	if len(seqs) > c.candidates {
		seqs = seqs[len(seqs)-c.candidates:]
	}

	times := make([]time.Time, 0, len(seqs))
	for i := len(seqs) - 1; i >= 0; i-- {
		t, err := imap.internalDate(seqs[i])
		if err != nil {
			return "", fmt.Errorf("imap fetch %s: %w", seqs[i], err)
		}
		times = append(times, t)
	}
	return c.evaluate(to, subject, times), nil
}

// imapConn is a minimal tagged-command IMAP client: enough for LOGIN,
// EXAMINE, SEARCH and FETCH INTERNALDATE.
type imapConn struct {
	conn net.Conn
	r    *bufio.Reader
	tag  int
}

func newIMAPConn(conn net.Conn) *imapConn {
	return &imapConn{conn: conn, r: bufio.NewReader(conn)}
}

func (c *imapConn) readline() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return line, err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// exec sends one tagged command and returns the untagged lines that preceded
// its completion. A NO or BAD completion is an error.
func (c *imapConn) exec(command string) ([]string, error) {
	c.tag++
	tag := fmt.Sprintf("G%d", c.tag)
	if _, err := fmt.Fprintf(c.conn, "%s %s\r\n", tag, command); err != nil {
		return nil, err
	}

	var lines []string
	for {
		line, err := c.readline()
		if err != nil {
			return lines, err
		}
		switch {
		case strings.HasPrefix(line, tag+" OK"):
			return lines, nil
		case strings.HasPrefix(line, tag+" NO"), strings.HasPrefix(line, tag+" BAD"):
			return lines, fmt.Errorf("imap: %s", line)
		}
		lines = append(lines, line)
	}
}

// search returns the matching sequence numbers in ascending order.
func (c *imapConn) search(criteria string) ([]string, error) {
	lines, err := c.exec("SEARCH " + criteria)
	if err != nil {
		return nil, err
	}
	var seqs []string
	for _, line := range lines {
		if strings.HasPrefix(line, "* SEARCH") {
			seqs = append(seqs, strings.Fields(line)[2:]...)
		}
	}
	return seqs, nil
}

const internalDateLayout = "_2-Jan-2006 15:04:05 -0700"

func (c *imapConn) internalDate(seq string) (time.Time, error) {
	lines, err := c.exec(fmt.Sprintf("FETCH %s (INTERNALDATE)", seq))
	if err != nil {
		return time.Time{}, err
	}
	for _, line := range lines {
		_, rest, ok := strings.Cut(line, "INTERNALDATE \"")
		if !ok {
			continue
		}
		value, _, ok := strings.Cut(rest, "\"")
		if !ok {
			continue
		}
		return time.Parse(internalDateLayout, value)
	}
	return time.Time{}, fmt.Errorf("no INTERNALDATE in response for %s", seq)
}

// quote renders s as an IMAP quoted string.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
