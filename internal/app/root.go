package app

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/habitlens/internal/config"
	"github.com/blackwell-systems/habitlens/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

var (
	cfgFile string
	dbPath  string
	verbose bool

	// cfg and logger are resolved once per invocation in PersistentPreRunE.
	cfg    *config.Config
	logger = zap.NewNop()

	// RootCmd is the root command for habitlens
	RootCmd = &cobra.Command{
		Use:   "habitlens",
		Short: "Track which desktop apps you actually use, and for how long",
		Long: `habitlens records foreground sessions of your desktop applications and
turns them into per-app usage for today, yesterday, the past N days or any
single date.

Sessions are captured by PATH shims: 'habitlens scan' discovers installed
applications and shims their executables, and 'habitlens watch --daemon'
ingests the session log in the background. Reading usage requires usage
access, which you grant once with 'habitlens access grant'.

Quick Start:
  1. habitlens scan
  2. habitlens watch --daemon
  3. habitlens access request
  4. habitlens usage today

Examples:
  # Check tracking and permission status
  habitlens status

  # Most-used apps over the past week
  habitlens top --days 7

  # Live dashboard
  habitlens tui

  # Local JSON API
  habitlens serve`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadRuntime,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "habitlens: desktop app usage tracking")
			fmt.Fprintln(out)
			if _, err := os.Stat(cfg.DBPath()); os.IsNotExist(err) {
				fmt.Fprintln(out, "Run 'habitlens scan' to get started.")
			} else {
				fmt.Fprintln(out, "Tip: Run 'habitlens status' to check tracking status.")
				fmt.Fprintln(out, "     Run 'habitlens usage today' to see today's usage.")
			}
			fmt.Fprintln(out, "     Run 'habitlens --help' for all commands.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/habitlens/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.habitlens/habitlens.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.Version = Version
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadRuntime resolves configuration and the logger before any command
// runs. The --db flag overrides the config file and environment.
func loadRuntime(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if dbPath != "" {
		v.Set("db", dbPath)
	}

	path := cfgFile
	if cmd == configInitCmd {
		// The file is about to be written; it need not exist yet.
		path = ""
	}
	loaded, err := config.Load(v, path)
	if err != nil {
		return err
	}
	cfg = loaded

	l, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
		Verbose: verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// globalArgs returns the persistent flags to forward to a re-executed
// child process.
func globalArgs() []string {
	var args []string
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	if dbPath != "" {
		args = append(args, "--db", dbPath)
	}
	if verbose {
		args = append(args, "--verbose")
	}
	return args
}
