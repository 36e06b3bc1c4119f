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
	"github.com/crystaldolphin/gitcourier/internal/host"
)

var (
	serveHTTP bool
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP tool host",
	Long:  "Serve the repository, email and verification tools over MCP on stdio, or over streamable HTTP with --http.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "Serve streamable HTTP instead of stdio")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default host.httpAddr)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	h, err := container.Host()
	if err != nil {
		return err
	}
	s := h.NewServer(version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if serveHTTP {
		addr := serveAddr
		if addr == "" {
			addr = cfg.Host.HTTPAddr
		}
		fmt.Fprintf(os.Stderr, "%s tool host on http://%s/mcp\n", logo, addr)
		g.Go(func() error { return host.ServeHTTP(gctx, s, addr) })
	} else {
		g.Go(func() error {
			err := host.ServeStdio(gctx, s, os.Stdin, os.Stdout)
			// stdin closed: the client is gone.
			stop()
			return err
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
