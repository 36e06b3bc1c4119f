package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/gitcourier/internal/config"
	"github.com/crystaldolphin/gitcourier/internal/store"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration, workspace and run ledger",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		def := config.DefaultConfig()
		cfg = &def
	}
	_, statErr := os.Stat(cfgPath)
	if err := config.Save(cfg, cfgPath); err != nil {
		return err
	}
	if statErr == nil {
		fmt.Printf("✓ Config refreshed at %s (existing values kept)\n", cfgPath)
	} else {
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	workspace := cfg.WorkspacePath()
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	fmt.Printf("✓ Workspace at %s\n", workspace)

	if cfg.Store.Enabled {
		db, err := store.Open(cfg.StorePath())
		if err != nil {
			return err
		}
		_ = db.Close()
		fmt.Printf("✓ Run ledger at %s\n", cfg.StorePath())
	}

	fmt.Printf("\n%s gitcourier is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add a model API key and SMTP credentials to %s\n", cfgPath)
	fmt.Println("  2. Try it:  gitcourier run --in-process --repo https://github.com/owner/repo.git")
	return nil
}
