package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/gitcourier/internal/dependency"
	"github.com/crystaldolphin/gitcourier/internal/shared/llmutils"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recent runs, or show the turns of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to list")
}

func runHistory(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	db, err := container.Store()
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("run ledger is disabled (store.enabled = false)")
	}
	ctx := context.Background()

	if len(args) == 1 {
		turns, err := db.Runs().Turns(ctx, args[0])
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			fmt.Printf("No turns recorded for %s\n", args[0])
		}
		for _, t := range turns {
			fmt.Println(t.String())
		}
		return nil
	}

	runs, err := db.Runs().RecentRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		detail := llmutils.StringOrDefault(r.Status, r.Error)
		fmt.Printf("%s  %s  %-12s %2d turns  %s\n",
			r.Started.Local().Format("2006-01-02 15:04:05"), r.ID, r.Outcome, r.Turns,
			llmutils.Truncate(llmutils.StringOrDefault(detail, r.Task), 60))
	}
	return nil
}
