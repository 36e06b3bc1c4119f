package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crystaldolphin/gitcourier/internal/dependency"
	"github.com/crystaldolphin/gitcourier/internal/scheduler"
)

var (
	watchInProcess bool
	watchOnce      string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the configured watches on their schedules",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInProcess, "in-process", false, "Use the built-in tool host instead of the configured MCP server")
	watchCmd.Flags().StringVar(&watchOnce, "once", "", "Fire the named watch once and exit")
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Watches) == 0 {
		return errors.New("no watches configured (add entries under \"watches\")")
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	toolHost, closer, err := container.ToolHost(ctx, watchInProcess)
	if err != nil {
		return err
	}
	defer closer.Close()

	svc, err := container.Service(ctx, toolHost)
	if err != nil {
		return err
	}

	w := scheduler.NewWatcher(svc.Execute)
	for _, wc := range cfg.Watches {
		job := scheduler.Job{Name: wc.Name, Schedule: wc.Schedule, Task: cfg.TaskFor(wc)}
		if err := w.Add(job); err != nil {
			return err
		}
	}

	if watchOnce != "" {
		// Trigger runs on the watcher's background context; let Ctrl+C kill it.
		stop()
		return w.Trigger(watchOnce)
	}

	fmt.Fprintf(os.Stderr, "%s watching %d schedule(s). Press Ctrl+C to stop.\n", logo, len(cfg.Watches))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
