package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/gitcourier/internal/dependency"
	"github.com/crystaldolphin/gitcourier/internal/tools"
)

var toolsInProcess bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the tool host advertises",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsInProcess, "in-process", false, "List the built-in tool host")
}

func runTools(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	toolHost, closer, err := container.ToolHost(ctx, toolsInProcess)
	if err != nil {
		return err
	}
	defer closer.Close()

	registry, err := tools.Load(ctx, toolHost)
	if err != nil {
		return err
	}
	fmt.Println(registry.Describe())
	return nil
}
