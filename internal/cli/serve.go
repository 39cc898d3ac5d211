// Package cli implements the threadher subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/threadher/threadher/internal/app"
	"github.com/threadher/threadher/internal/backup"
	"github.com/threadher/threadher/internal/config"
	"github.com/threadher/threadher/internal/server"
)

// NewServeCmd creates the 'serve' command for running the local HTTP server.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP server",
		Long: `Start the ThreadHer HTTP server.

Endpoints:
  POST /actions                    agent action-group events
  POST /tools/calculate-carbon     carbon estimator
  POST /tools/get-circular-options circular-options recommender
  POST /tools/analyze-garment      image analyzer
  POST /api/chat                   chat front door (when an agent is configured)
  GET  /api/chat/stream            streamed chat over websocket
  GET  /healthz                    liveness

Configuration is read from THREADHER_* environment variables.`,
		Example: `  threadher serve
  threadher serve --port 8080
  THREADHER_SECURITY_MODE=production THREADHER_API_TOKEN=... threadher serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.OutOrStdout(), host, port, cmd.Flags().Changed("port"))
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides THREADHER_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port, 0 picks a free port (overrides THREADHER_PORT)")

	return cmd
}

// runServe serves until ctx is done.
func runServe(ctx context.Context, out io.Writer, host string, port int, portSet bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if portSet {
		cfg.Server.Port = port
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	defer func() { _ = a.Close() }()

	addr, err := server.Start(ctx, cfg, a.ServerHandlers())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ThreadHer listening on http://%s\n", addr)

	if cfg.Storage.Engine == config.EngineSQLite && cfg.Backup.Interval > 0 {
		svc, err := backup.New(filepath.Join(cfg.Storage.DataPath, app.SQLiteFile), backup.Options{
			Dir:    cfg.Backup.Dir,
			Keep:   cfg.Backup.Keep,
			Verify: cfg.Backup.Verify,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := svc.Run(ctx, cfg.Backup.Interval); err != nil {
				log.Printf("threadher: backup loop stopped: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Printf("threadher: shutting down")
	return nil
}
