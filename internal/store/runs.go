package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crystaldolphin/gitcourier/internal/agent"
	"github.com/crystaldolphin/gitcourier/internal/schema"
)

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID       string
	Task     string
	Outcome  agent.Outcome
	Status   string
	Error    string
	Started  time.Time
	Finished time.Time
	Turns    int
}

// RunStore records finished runs and their turns. It implements
// agent.RunRecorder.
type RunStore struct {
	db *sql.DB
}

var _ agent.RunRecorder = (*RunStore)(nil)

// SaveRun writes r and its history in one transaction.
func (s *RunStore) SaveRun(ctx context.Context, r agent.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var errText string
	if r.Err != nil {
		errText = r.Err.Error()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, task, outcome, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Task, r.Outcome.String(), r.Status, errText,
		r.Started.UnixNano(), r.Finished.UnixNano(),
	); err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}

	for _, t := range r.History {
		args, err := json.Marshal(t.Arguments)
		if err != nil {
			return fmt.Errorf("save run %s: encode arguments of iteration %d: %w", r.ID, t.Iteration, err)
		}
		if t.Arguments == nil {
			args = []byte("{}")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns (run_id, iteration, tool_name, arguments, result, error)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, t.Iteration, t.ToolName, string(args), nullString(t.Result), t.Err,
		); err != nil {
			return fmt.Errorf("save run %s: turn %d: %w", r.ID, t.Iteration, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to n runs, newest first.
func (s *RunStore) RecentRuns(ctx context.Context, n int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.task, r.outcome, r.status, r.error, r.started_at, r.finished_at,
		        (SELECT COUNT(*) FROM turns t WHERE t.run_id = r.id)
		 FROM runs r
		 ORDER BY r.started_at DESC
		 LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			rs                RunSummary
			outcome           string
			started, finished int64
		)
		if err := rows.Scan(&rs.ID, &rs.Task, &outcome, &rs.Status, &rs.Error, &started, &finished, &rs.Turns); err != nil {
			return nil, fmt.Errorf("recent runs: %w", err)
		}
		rs.Outcome = agent.ParseOutcome(outcome)
		rs.Started = time.Unix(0, started)
		rs.Finished = time.Unix(0, finished)
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Turns returns the recorded history of one run in iteration order.
func (s *RunStore) Turns(ctx context.Context, runID string) ([]schema.TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, tool_name, arguments, result, error
		 FROM turns WHERE run_id = ? ORDER BY iteration`, runID)
	if err != nil {
		return nil, fmt.Errorf("turns of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []schema.TurnRecord
	for rows.Next() {
		var (
			t      schema.TurnRecord
			args   string
			result sql.NullString
		)
		if err := rows.Scan(&t.Iteration, &t.ToolName, &args, &result, &t.Err); err != nil {
			return nil, fmt.Errorf("turns of %s: %w", runID, err)
		}
		if err := json.Unmarshal([]byte(args), &t.Arguments); err != nil {
			return nil, fmt.Errorf("turns of %s: decode arguments: %w", runID, err)
		}
		if result.Valid {
			t.Result = &result.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
