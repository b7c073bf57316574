package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackwell-systems/habitlens/internal/permission"
	"github.com/blackwell-systems/habitlens/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveRecheck time.Duration

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve usage over a local JSON API",
		Long: `Serve usage and permission state over a local HTTP API.

Endpoints (under /v1):
  GET  /health
  GET  /permission
  POST /permission/check
  POST /permission/request
  GET  /usage/today
  GET  /usage/yesterday
  GET  /usage/past/{days}
  GET  /usage/date/{YYYY-MM-DD}

The OpenAPI document is served at /v1/openapi.json. Usage access is
re-checked on SIGHUP and, with --recheck, on a fixed interval.`,
		Example: `  habitlens serve
  habitlens serve --addr :9000 --recheck 1m`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, 127.0.0.1:7777)")
	serveCmd.Flags().DurationVar(&serveRecheck, "recheck", 0, "also re-check usage access on this interval")

	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	if serveRecheck < 0 {
		return fmt.Errorf("--recheck must not be negative")
	}

	out := cmd.OutOrStdout()
	e, err := openEnv(out)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notices, stopNotices := e.perms.Subscribe()
	defer stopNotices()
	go notifyOnGrant(ctx, notices, e.settings, logger)

	release := e.perms.Activate(ctx, serveResumeSource(serveRecheck))
	defer release()

	handler, err := server.New(server.Config{
		Permission: e.perms,
		Usage:      e.usage,
		Version:    Version,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Serving usage API on http://%s/v1 (Ctrl+C to stop)\n", addr)
	return server.Serve(ctx, addr, handler, logger)
}

// serveResumeSource re-checks on SIGHUP and, when recheck is positive, on
// every interval as well.
func serveResumeSource(recheck time.Duration) permission.Sources {
	sources := permission.Sources{permission.NewSignalSource(syscall.SIGHUP)}
	if recheck > 0 {
		sources = append(sources, permission.NewIntervalSource(recheck))
	}
	return sources
}
