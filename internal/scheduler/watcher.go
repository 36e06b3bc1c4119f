// Package scheduler fires orchestration runs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/crystaldolphin/gitcourier/internal/agent"
)

// RunFunc executes one task to completion.
type RunFunc func(ctx context.Context, task string) agent.RunResult

// Job is one watch: a schedule and the task it runs.
type Job struct {
	Name     string
	Schedule string // standard 5-field spec or descriptor such as "@every 1h"
	Task     string
}

// Entry describes a registered job and its next fire time.
type Entry struct {
	Name string
	Next time.Time
}

// Watcher runs registered jobs on their schedules. Overlapping fires of the
// same job are skipped; different jobs may run concurrently.
type Watcher struct {
	run    RunFunc
	robfig *robfigcron.Cron

	mu  sync.Mutex
	ids map[string]robfigcron.EntryID
	ctx context.Context
}

// NewWatcher creates a Watcher that executes jobs with run.
func NewWatcher(run RunFunc) *Watcher {
	logger := slogLogger{}
	return &Watcher{
		run: run,
		robfig: robfigcron.New(
			robfigcron.WithLogger(logger),
			robfigcron.WithChain(
				robfigcron.Recover(logger),
				robfigcron.SkipIfStillRunning(logger),
			),
		),
		ids: make(map[string]robfigcron.EntryID),
		ctx: context.Background(),
	}
}

// Add registers job. Names must be unique.
func (w *Watcher) Add(job Job) error {
	if job.Name == "" {
		return errors.New("watch needs a name")
	}
	if job.Task == "" {
		return fmt.Errorf("watch %q has no task", job.Name)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.ids[job.Name]; ok {
		return fmt.Errorf("watch %q already registered", job.Name)
	}

	id, err := w.robfig.AddFunc(job.Schedule, func() { w.fire(job) })
	if err != nil {
		return fmt.Errorf("watch %q: schedule %q: %w", job.Name, job.Schedule, err)
	}
	w.ids[job.Name] = id
	slog.Info("Watch registered", "name", job.Name, "schedule", job.Schedule)
	return nil
}

// Entries lists registered jobs with their next fire time. Next is zero until
// the watcher runs.
func (w *Watcher) Entries() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Entry, 0, len(w.ids))
	for _, e := range w.robfig.Entries() {
		for name, id := range w.ids {
			if id == e.ID {
				out = append(out, Entry{Name: name, Next: e.Next})
			}
		}
	}
	return out
}

// Run starts the schedule and blocks until ctx is done. Runs in flight are
// cancelled through ctx and awaited before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	n := len(w.ids)
	w.mu.Unlock()

	w.robfig.Start()
	slog.Info("Watcher started", "watches", n)

	<-ctx.Done()
	<-w.robfig.Stop().Done()
	slog.Info("Watcher stopped")
	return nil
}

// Trigger runs the named job now through the same chain as a scheduled fire.
func (w *Watcher) Trigger(name string) error {
	w.mu.Lock()
	id, ok := w.ids[name]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("no watch named %q", name)
	}
	w.robfig.Entry(id).WrappedJob.Run()
	return nil
}

func (w *Watcher) fire(job Job) {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()

	slog.Info("Watch fired", "name", job.Name)
	res := w.run(ctx, job.Task)
	if res.Err != nil {
		slog.Warn("Watch run failed", "name", job.Name, "run", res.ID, "outcome", res.Outcome.String(), "err", res.Err)
		return
	}
	slog.Info("Watch run done", "name", job.Name, "run", res.ID, "outcome", res.Outcome.String(), "status", res.Status)
}

// slogLogger adapts slog to robfig's cron.Logger.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
