package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crystaldolphin/gitcourier/internal/config"
)

// deliverFunc hands a composed message to the mail server.
type deliverFunc func(ctx context.Context, from string, to []string, msg []byte) error

// Sender delivers plain-text messages to the configured recipient.
type Sender struct {
	cfg     config.MailConfig
	outbox  Outbox
	now     Clock
	deliver deliverFunc
}

// NewSender returns an SMTP sender. outbox may be nil.
func NewSender(cfg config.MailConfig, outbox Outbox) *Sender {
	s := &Sender{cfg: cfg, outbox: outbox, now: time.Now}
	s.deliver = s.smtpDeliver
	return s
}

// Recipient is the fixed address every message goes to.
func (s *Sender) Recipient() string { return s.cfg.Recipient }

// Subject is the fixed subject line of every message.
func (s *Sender) Subject() string { return s.cfg.Subject }

// Send delivers body and returns the generated message id.
func (s *Sender) Send(ctx context.Context, body string) (string, error) {
	to := s.cfg.Recipient
	if to == "" {
		return "", fmt.Errorf("no recipient configured (set mail.recipient or %s)", config.EnvRecipient)
	}
	from := s.cfg.FromAddress
	if from == "" {
		from = s.cfg.SMTPUsername
	}

	id := uuid.NewString()
	sentAt := s.now()
	msg := compose(from, to, s.cfg.Subject, id, body, sentAt)

	if err := s.deliver(ctx, from, []string{to}, msg); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}

	if s.outbox != nil {
		rec := SentMessage{ID: id, To: to, Subject: s.cfg.Subject, SentAt: sentAt}
		if err := s.outbox.Record(ctx, rec); err != nil {
			slog.Warn("Record outbox entry failed", "id", id, "err", err)
		}
	}

	slog.Info("Email sent", "to", to, "id", id)
	return id, nil
}

func compose(from, to, subject, id, body string, date time.Time) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	fmt.Fprintf(&sb, "Date: %s\r\n", date.Format(time.RFC1123Z))
	fmt.Fprintf(&sb, "Message-ID: <%s@gitcourier>\r\n", id)
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(sb.String())
}

func (s *Sender) smtpDeliver(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.SMTPHost, fmt.Sprintf("%d", s.cfg.SMTPPort))
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)

	if !s.cfg.SMTPUseSSL {
		// SendMail upgrades with STARTTLS when the server offers it.
		return smtp.SendMail(addr, auth, from, to, msg)
	}

	d := tls.Dialer{Config: &tls.Config{ServerName: s.cfg.SMTPHost}}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
