package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackwell-systems/habitlens/internal/config"
	"github.com/blackwell-systems/habitlens/internal/output"
	"github.com/blackwell-systems/habitlens/internal/store"
	"github.com/blackwell-systems/habitlens/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool
	watchOnce        bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Ingest shim sessions into the usage database",
		Long: `Ingest the foreground sessions written by habitlens-shim into the database.

The shim appends one line per application session to ~/.habitlens/usage.log.
The watcher tails that log, resolves each executable to its application
(aliases first, then the scanned inventory) and stores the sessions that
daily usage is computed from.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as a background process
  • Once: Ingest pending sessions and exit
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  habitlens watch

  # Run as background daemon
  habitlens watch --daemon

  # Stop running daemon
  habitlens watch --stop

  # Use custom PID and log files
  habitlens watch --daemon --pid-file /tmp/watch.pid --log-file /tmp/watch.log`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.habitlens/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.habitlens/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "ingest pending sessions and exit")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if watchPIDFile == "" {
		p, err := defaultPIDFile()
		if err != nil {
			return err
		}
		watchPIDFile = p
	}
	if watchLogFile == "" {
		p, err := defaultLogFile()
		if err != nil {
			return err
		}
		watchLogFile = p
	}

	if watchStop {
		return stopWatchDaemon(out)
	}
	if watchDaemon {
		return startWatchDaemon(out)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.CreateSchema(); err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	w, err := newWatcher(db)
	if err != nil {
		return err
	}

	switch {
	case watchDaemonChild:
		// Output is redirected to the log file.
		return w.RunDaemon(watchPIDFile)
	case watchOnce:
		n, err := w.ProcessOnce()
		if err != nil {
			return fmt.Errorf("failed to ingest sessions: %w", err)
		}
		fmt.Fprintf(out, "✓ Ingested %d sessions\n", n)
		return nil
	default:
		return runWatchForeground(out, w)
	}
}

func newWatcher(db *store.Store) (*watcher.Watcher, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config directory: %w", err)
	}
	aliases, err := config.LoadAliases(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}

	w, err := watcher.New(db, watcher.Options{Aliases: aliases, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return w, nil
}

func stopWatchDaemon(out io.Writer) error {
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	spinner := output.NewSpinner(out, "Stopping daemon...")
	spinner.Start()
	if err := watcher.StopDaemon(watchPIDFile, 10*time.Second); err != nil {
		spinner.Stop()
		if errors.Is(err, watcher.ErrDaemonNotRunning) {
			fmt.Fprintln(out, "Daemon is not running")
			return nil
		}
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon stopped")
	return nil
}

func startWatchDaemon(out io.Writer) error {
	spinner := output.NewSpinner(out, "Starting daemon...")
	spinner.Start()

	extra := append(globalArgs(), "--pid-file", watchPIDFile, "--log-file", watchLogFile)
	pid, err := watcher.StartDaemon(watchPIDFile, watchLogFile, extra...)
	if err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon started")

	fmt.Fprintf(out, "\nSession ingestion daemon started (PID %d)\n", pid)
	fmt.Fprintf(out, "  PID file: %s\n", watchPIDFile)
	fmt.Fprintf(out, "  Log file: %s\n", watchLogFile)
	fmt.Fprintf(out, "\nTo stop: habitlens watch --stop\n")
	return nil
}

func runWatchForeground(out io.Writer, w *watcher.Watcher) error {
	fmt.Fprintln(out, "Starting session ingestion (press Ctrl+C to stop)...")
	fmt.Fprintln(out)

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintln(out, "✓ Watcher started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	fmt.Fprintf(out, "\nReceived signal %v, shutting down...\n", sig)

	spinner := output.NewSpinner(out, "Stopping watcher...")
	spinner.Start()
	if err := w.Stop(); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	spinner.StopWithMessage("✓ Watcher stopped")
	return nil
}
