package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crystaldolphin/gitcourier/internal/mail"
)

// Outbox records every message the SMTP sender delivered. It implements
// mail.Outbox.
type Outbox struct {
	db *sql.DB
}

var _ mail.Outbox = (*Outbox)(nil)

func (o *Outbox) Record(ctx context.Context, m mail.SentMessage) error {
	_, err := o.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO outbox (id, recipient, subject, sent_at) VALUES (?, ?, ?, ?)`,
		m.ID, m.To, m.Subject, m.SentAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record outbox %s: %w", m.ID, err)
	}
	return nil
}

// Recent returns at most n messages to `to` whose subject contains subject,
// newest first.
func (o *Outbox) Recent(ctx context.Context, to, subject string, n int) ([]mail.SentMessage, error) {
	rows, err := o.db.QueryContext(ctx,
		`SELECT id, recipient, subject, sent_at FROM outbox
		 WHERE recipient = ? AND instr(subject, ?) > 0
		 ORDER BY sent_at DESC
		 LIMIT ?`, to, subject, n)
	if err != nil {
		return nil, fmt.Errorf("recent outbox: %w", err)
	}
	defer rows.Close()

	var out []mail.SentMessage
	for rows.Next() {
		var (
			m      mail.SentMessage
			sentAt int64
		)
		if err := rows.Scan(&m.ID, &m.To, &m.Subject, &sentAt); err != nil {
			return nil, fmt.Errorf("recent outbox: %w", err)
		}
		m.SentAt = time.Unix(0, sentAt).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}
