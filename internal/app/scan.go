package app

import (
	"fmt"
	"io"

	"github.com/blackwell-systems/habitlens/internal/output"
	"github.com/blackwell-systems/habitlens/internal/scanner"
	"github.com/blackwell-systems/habitlens/internal/shell"
	"github.com/blackwell-systems/habitlens/internal/shim"
	"github.com/spf13/cobra"
)

var (
	scanQuiet     bool
	scanSkipShims bool
	scanNoPath    bool

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Discover installed applications and shim their executables",
		Long: `Scan the XDG application directories for .desktop entries and store the
installed applications (package id, label, executable, category) in the
habitlens database.

After the inventory is updated, scan installs the habitlens-shim binary into
~/.habitlens/bin and points a symlink at it for every application executable
found on PATH. The shim directory is added to your shell profile unless it
is already on PATH.

The scan command should be run:
  • After installing habitlens for the first time
  • After installing or removing applications`,
		Example: `  # Scan and refresh shims
  habitlens scan

  # Update the inventory only
  habitlens scan --skip-shims

  # Scan quietly (suppress output)
  habitlens scan --quiet`,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVar(&scanQuiet, "quiet", false, "suppress output")
	scanCmd.Flags().BoolVar(&scanSkipShims, "skip-shims", false, "update the inventory without touching shims")
	scanCmd.Flags().BoolVar(&scanNoPath, "no-path", false, "do not edit the shell profile")

	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if scanQuiet {
		out = io.Discard
	}

	e, err := openEnv(out)
	if err != nil {
		return err
	}
	defer e.Close()

	s := scanner.New(e.store, logger)

	spinner := output.NewSpinner(out, "Scanning application directories...")
	spinner.Start()
	result, err := s.ScanApps(cfg.DesktopDirs)
	if err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to scan applications: %w", err)
	}
	spinner.StopWithMessage(fmt.Sprintf("✓ Found %d applications (%d added, %d removed)",
		result.Found, result.Added, result.Removed))

	if scanSkipShims {
		return nil
	}
	return refreshShims(out, s)
}

// refreshShims installs the shim binary and brings the symlinks in line
// with the inventory.
func refreshShims(out io.Writer, s *scanner.Scanner) error {
	names, err := s.ExecNames()
	if err != nil {
		return fmt.Errorf("failed to list executables: %w", err)
	}

	if err := shim.InstallShimBinary(); err != nil {
		return fmt.Errorf("failed to install shim binary: %w", err)
	}

	added, removed, err := shim.RefreshShims(names)
	if err != nil {
		return fmt.Errorf("failed to refresh shims: %w", err)
	}
	fmt.Fprintf(out, "✓ Shims updated (%d added, %d removed)\n", added, removed)

	if scanNoPath {
		return nil
	}

	shimDir, err := shim.GetShimDir()
	if err != nil {
		return err
	}
	changed, configFile, err := shell.EnsurePathEntry(shimDir)
	if err != nil {
		// Not fatal: the user can add the directory by hand.
		fmt.Fprintf(out, "⚠ Could not update shell profile: %v\n", err)
		fmt.Fprintf(out, "  Add %s to the front of your PATH manually.\n", shimDir)
		return nil
	}
	if changed {
		fmt.Fprintf(out, "✓ Added %s to PATH in %s (restart your shell to activate)\n", shimDir, configFile)
	}

	if ok, reason := shim.IsShimSetup(); !ok && !changed {
		fmt.Fprintf(out, "⚠ %s\n", reason)
	}
	return nil
}
