package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/blackwell-systems/habitlens/internal/output"
	"github.com/blackwell-systems/habitlens/internal/shim"
	"github.com/blackwell-systems/habitlens/internal/usage"
	"github.com/blackwell-systems/habitlens/internal/watcher"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check tracking, shim and usage-access status",
	Long: `Display the current state of habitlens.

Shows:
  • Whether the ingestion daemon is running
  • Sessions recorded in total and in the last 24 hours
  • Shim count and whether the shim directory is on PATH
  • Number of applications in the inventory
  • The recorded usage-access mode and what the stats service reports
  • Whether usage access is granted

This command helps verify that usage tracking is working correctly.`,
	Example: `  # Check status
  habitlens status`,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(cfg.DBPath()); os.IsNotExist(err) {
		fmt.Fprintln(out, "habitlens is not set up. Run 'habitlens scan' to get started.")
		return nil
	}

	pidFile, err := defaultPIDFile()
	if err != nil {
		return err
	}
	running, err := watcher.IsDaemonRunning(pidFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	e, err := openEnv(out)
	if err != nil {
		return err
	}
	defer e.Close()

	apps, err := e.store.ListApps()
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}
	total, err := e.store.GetSessionCount()
	if err != nil {
		return err
	}
	now := time.Now()
	recent, err := e.store.ListSessions(now.Add(-24*time.Hour).UnixMilli(), now.UnixMilli())
	if err != nil {
		return err
	}
	since, err := e.store.GetFirstSessionTime()
	if err != nil {
		return err
	}

	shims, _ := shim.ListShims()
	pathOK, pathReason := shim.IsShimSetup()

	mode, err := e.ops.Mode()
	if err != nil {
		return fmt.Errorf("failed to read usage-access mode: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.QueryTimeout)
	defer cancel()
	snap := e.perms.Check(ctx)

	writeStatus(out, statusReport{
		Running:   running,
		PIDFile:   pidFile,
		Apps:      len(apps),
		Sessions:  total,
		Recent:    len(recent),
		Since:     since,
		Shims:     len(shims),
		PathOK:    pathOK,
		PathIssue: pathReason,
		Mode:      mode,
		Caps:      e.stats.Capabilities(),
		Now:       now,
	})
	fmt.Fprint(out, output.RenderPermission(snap, output.Options{Now: now, Color: output.IsColorEnabled(out), Skipped: promptSkipped(e)}))
	fmt.Fprintln(out)
	return nil
}

type statusReport struct {
	Running   bool
	PIDFile   string
	Apps      int
	Sessions  int
	Recent    int
	Since     time.Time
	Shims     int
	PathOK    bool
	PathIssue string
	Mode      string
	Caps      usage.Capabilities
	Now       time.Time
}

func writeStatus(out io.Writer, r statusReport) {
	const label = "%-14s"

	fmt.Fprintln(out)
	if r.Running {
		fmt.Fprintf(out, label+"running (since %s)\n", "Tracking:", daemonSince(r.PIDFile, r.Now))
	} else {
		fmt.Fprintf(out, label+"stopped  (run 'habitlens watch --daemon')\n", "Tracking:")
	}

	fmt.Fprintf(out, label+"%s total · %d in last 24h\n", "Sessions:", humanize.Comma(int64(r.Sessions)), r.Recent)
	if r.Running && r.Recent == 0 && r.Shims > 0 && !r.PathOK {
		fmt.Fprintf(out, "              ⚠ Daemon running but no sessions recorded. %s\n", r.PathIssue)
	}

	pathStatus := "PATH active ✓"
	if !r.PathOK {
		pathStatus = "PATH missing ⚠"
	}
	fmt.Fprintf(out, label+"%d commands · %s\n", "Shims:", r.Shims, pathStatus)
	fmt.Fprintf(out, label+"%d applications\n", "Inventory:", r.Apps)
	fmt.Fprintf(out, label+"%s\n", "Access mode:", r.Mode)
	fmt.Fprintf(out, label+"launch counts %s · categories %s\n", "Reports:", supported(r.Caps.LaunchCountSupported), supported(r.Caps.CategoriesSupported))

	if !r.Since.IsZero() {
		fmt.Fprintf(out, label+"%s\n", "Since:", humanize.RelTime(r.Since, r.Now, "ago", "from now"))
	}
}

func supported(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// daemonSince returns a human-readable age of the PID file (proxy for daemon start time).
func daemonSince(pidFile string, now time.Time) string {
	fi, err := os.Stat(pidFile)
	if err != nil {
		return "unknown"
	}
	return humanize.RelTime(fi.ModTime(), now, "ago", "from now")
}
