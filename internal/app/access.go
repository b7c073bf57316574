package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/habitlens/internal/output"
	"github.com/blackwell-systems/habitlens/internal/permission"
	"github.com/blackwell-systems/habitlens/internal/store"
	"github.com/blackwell-systems/habitlens/internal/usage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	accessFormat string

	accessCmd = &cobra.Command{
		Use:   "access",
		Short: "Check or change usage access",
		Long: `Usage access gates every usage query. habitlens checks it on start and
re-checks it whenever a long-running session (tui, serve) resumes, so a
grant made in another terminal is picked up without a restart.`,
	}

	accessCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Check whether usage access is granted",
		Args:  cobra.NoArgs,
		RunE:  runAccessCheck,
	}

	accessRequestCmd = &cobra.Command{
		Use:   "request",
		Short: "Open the usage-access settings surface",
		Long: `Open the configured usage-access settings surface (settings_command). When
no command is configured the grant instructions are printed instead.

Requesting access never changes the state by itself; the grant is observed
by the next check.`,
		Args: cobra.NoArgs,
		RunE: runAccessRequest,
	}

	accessGrantCmd = &cobra.Command{
		Use:   "grant",
		Short: "Grant usage access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAccessMode(cmd, store.ModeAllowed)
		},
	}

	accessRevokeCmd = &cobra.Command{
		Use:   "revoke",
		Short: "Revoke usage access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAccessMode(cmd, store.ModeIgnored)
		},
	}

	accessSkipCmd = &cobra.Command{
		Use:   "skip",
		Short: "Continue without usage access and stop being prompted",
		Args:  cobra.NoArgs,
		RunE:  runAccessSkip,
	}
)

func init() {
	accessCheckCmd.Flags().StringVar(&accessFormat, "format", "table", "output format: table, json or yaml")

	accessCmd.AddCommand(accessCheckCmd, accessRequestCmd, accessGrantCmd, accessRevokeCmd, accessSkipCmd)
	RootCmd.AddCommand(accessCmd)
}

func runAccessCheck(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(accessFormat)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	e, err := openEnv(out)
	if err != nil {
		return err
	}
	defer e.Close()

	snap := checkAccess(cmd.Context(), e.perms)
	if format != output.FormatTable {
		return output.Encode(out, format, accessView(snap))
	}
	fmt.Fprint(out, output.RenderPermission(snap, output.Options{Color: output.IsColorEnabled(out), Skipped: promptSkipped(e)}))
	return nil
}

func runAccessRequest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	e, err := openEnv(out)
	if err != nil {
		return err
	}
	defer e.Close()

	if snap := checkAccess(cmd.Context(), e.perms); snap.State == permission.Granted {
		fmt.Fprintln(out, "✓ Usage access is already granted")
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.QueryTimeout)
	defer cancel()
	if err := e.perms.Request(ctx); err != nil {
		return fmt.Errorf("failed to open usage-access settings: %w", err)
	}
	return nil
}

func setAccessMode(cmd *cobra.Command, mode string) error {
	out := cmd.OutOrStdout()
	e, err := openEnv(out)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.ops.SetMode(mode); err != nil {
		return err
	}

	// Re-check so the decision is recorded the same way a resume would.
	snap := checkAccess(cmd.Context(), e.perms)
	fmt.Fprint(out, output.RenderPermission(snap, output.Options{Color: output.IsColorEnabled(out), Skipped: promptSkipped(e)}))
	return nil
}

func runAccessSkip(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	e, err := openEnv(out)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.settings.SetPermissionSkipped(true); err != nil {
		return err
	}
	fmt.Fprintln(out, output.SkippedNotice)
	return nil
}

// promptSkipped reports whether the user skipped the grant prompt and has
// not granted access since.
func promptSkipped(e *env) bool {
	s, err := e.settings.Load()
	if err != nil {
		logger.Warn("failed to load settings", zap.Error(err))
		return false
	}
	return s.PermissionSkipped && !s.PermissionGranted
}

// skippedAccessError reports whether err is a permission error the user
// chose to continue without. Such views render empty instead of failing.
func skippedAccessError(e *env, err error) bool {
	if !errors.Is(err, usage.ErrPermissionDenied) && !errors.Is(err, usage.ErrPermissionUnavailable) {
		return false
	}
	return promptSkipped(e)
}

func checkAccess(parent context.Context, perms *permission.Controller) permission.Snapshot {
	ctx, cancel := context.WithTimeout(parent, cfg.QueryTimeout)
	defer cancel()
	return perms.Check(ctx)
}

// accessBody is the machine-readable form of a permission snapshot.
type accessBody struct {
	State     permission.State `json:"state" yaml:"state"`
	CheckedAt *time.Time       `json:"checkedAt,omitempty" yaml:"checkedAt,omitempty"`
	Error     string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func accessView(snap permission.Snapshot) accessBody {
	body := accessBody{State: snap.State, Error: snap.ErrText()}
	if !snap.CheckedAt.IsZero() {
		t := snap.CheckedAt
		body.CheckedAt = &t
	}
	return body
}
