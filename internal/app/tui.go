package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackwell-systems/habitlens/internal/analyzer"
	"github.com/blackwell-systems/habitlens/internal/permission"
	"github.com/blackwell-systems/habitlens/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	tuiInterval    time.Duration
	tuiNoColor     bool
	tuiNoAltScreen bool

	tuiCmd = &cobra.Command{
		Use:   "tui",
		Short: "Live dashboard of today's usage",
		Long: `Open a live terminal dashboard of today's per-app usage.

Usage access is re-checked whenever the terminal regains focus or you press
r, so granting access in another window unlocks the dashboard without a
restart. Press g to open the usage-access settings and q to quit.`,
		Args: cobra.NoArgs,
		RunE: runTUI,
	}
)

func init() {
	tuiCmd.Flags().DurationVar(&tuiInterval, "interval", 0, "refresh interval (default from config, 30s)")
	tuiCmd.Flags().BoolVar(&tuiNoColor, "no-color", false, "disable colors")
	tuiCmd.Flags().BoolVar(&tuiNoAltScreen, "no-alt-screen", false, "render inline instead of in the alternate screen")

	RootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("interactive dashboard requires a TTY")
	}

	interval := tuiInterval
	if interval <= 0 {
		interval = cfg.TUI.Interval
	}
	if interval <= 0 {
		return fmt.Errorf("--interval must be > 0")
	}

	// The grant instructions would corrupt the screen; they go to stderr.
	e, err := openEnv(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Subscribe before activating so the first check is delivered.
	snaps, unsubscribe := e.perms.Subscribe()
	defer unsubscribe()
	notices, stopNotices := e.perms.Subscribe()
	defer stopNotices()
	go notifyOnGrant(ctx, notices, e.settings, logger)

	resume := permission.NewBroadcaster()
	release := e.perms.Activate(ctx, resume)
	defer release()

	return tui.Run(ctx, tui.Options{
		Interval:   interval,
		Timeout:    cfg.QueryTimeout,
		NoColor:    tuiNoColor,
		AltScreen:  !tuiNoAltScreen,
		Launches:   cfg.LaunchCountSupported,
		Permission: snaps,
		Initial:    e.perms.Snapshot(),
		Resume:     resume.Notify,
		Request:    e.perms.Request,
		Skipped:    promptSkipped(e),
		Fetch: func(ctx context.Context) ([]analyzer.AppUsage, error) {
			return e.analyzer.TopApps(ctx, 0, 0)
		},
	})
}
