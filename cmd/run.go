package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/gitcourier/internal/agent"
	"github.com/crystaldolphin/gitcourier/internal/dependency"
	"github.com/crystaldolphin/gitcourier/internal/shared/cmdutils"
)

var (
	runRepo      string
	runInProcess bool
	runShowTurns bool
)

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Run one task to completion",
	Long: "Run one task through the orchestration loop. Give the task as arguments, " +
		"or --repo URL to use the configured task template.",
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runRepo, "repo", "r", "", "Repository URL for the task template")
	runCmd.Flags().BoolVar(&runInProcess, "in-process", false, "Use the built-in tool host instead of the configured MCP server")
	runCmd.Flags().BoolVar(&runShowTurns, "turns", true, "Print the turn history")
}

func runRun(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	task := strings.TrimSpace(strings.Join(args, " "))
	switch {
	case task != "" && runRepo != "":
		return errors.New("give either a task or --repo, not both")
	case runRepo != "":
		task = cfg.RepoTask(runRepo)
	case task == "":
		return errors.New("nothing to do: give a task or --repo URL")
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	toolHost, closer, err := container.ToolHost(ctx, runInProcess)
	if err != nil {
		return err
	}
	defer closer.Close()

	svc, err := container.Service(ctx, toolHost)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "  ↳ working on: %s\n", task)
	res := svc.Execute(ctx, task)
	cmdutils.PrintRun(os.Stdout, res, runShowTurns)

	if res.Outcome != agent.OutcomeTerminal {
		return fmt.Errorf("run %s ended %s", res.ID, res.Outcome)
	}
	return nil
}
