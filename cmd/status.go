package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/gitcourier/internal/config"
	"github.com/crystaldolphin/gitcourier/internal/providers"
	"github.com/crystaldolphin/gitcourier/internal/shared/cmdutils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gitcourier status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	fmt.Printf("%s gitcourier Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	fmt.Printf("Config:    %s %s\n", cfgPath, cmdutils.Mark(statErr == nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	ws := cfg.WorkspacePath()
	_, wsErr := os.Stat(ws)
	fmt.Printf("Workspace: %s %s\n", ws, cmdutils.Mark(wsErr == nil))

	if cfg.Store.Enabled {
		_, dbErr := os.Stat(cfg.StorePath())
		fmt.Printf("Ledger:    %s %s\n", cfg.StorePath(), cmdutils.Mark(dbErr == nil))
	} else {
		fmt.Println("Ledger:    (disabled)")
	}

	switch {
	case cfg.Host.URL != "":
		fmt.Printf("Tool host: %s\n", cfg.Host.URL)
	case cfg.Host.Command != "":
		fmt.Printf("Tool host: %s (stdio)\n", cfg.Host.Command)
	default:
		fmt.Println("Tool host: in-process")
	}
	fmt.Printf("Mail:      %s via %s:%d, sent check %q\n", cfg.Mail.Recipient, cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SentCheck)
	fmt.Printf("Model:     %s\n", cfg.Agent.Model)
	fmt.Printf("Watches:   %d\n\n", len(cfg.Watches))

	fmt.Println("Providers:")
	for _, spec := range providers.PROVIDERS {
		p := cfg.ProviderByName(spec.Name)
		if p == nil {
			continue
		}
		label := spec.Label()
		switch {
		case spec.IsLocal:
			if p.APIBase != "" {
				fmt.Printf("  %-20s ✓ %s\n", label, p.APIBase)
			} else {
				fmt.Printf("  %-20s (not set)\n", label)
			}
		case p.APIKey != "":
			fmt.Printf("  %-20s ✓\n", label)
		default:
			fmt.Printf("  %-20s (not set)\n", label)
		}
	}
	return nil
}
