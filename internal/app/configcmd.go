package app

import (
	"fmt"
	"path/filepath"

	"github.com/blackwell-systems/habitlens/internal/config"
	"github.com/blackwell-systems/habitlens/internal/output"
	"github.com/spf13/cobra"
)

var (
	configForce  bool
	configFormat string

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration file",
		Long: `habitlens reads ~/.config/habitlens/config.yaml when it exists. Every key
can be overridden with a HABITLENS_ environment variable, for example
HABITLENS_QUERY_TIMEOUT=5s or HABITLENS_SERVE_ADDR=:9000.

Executable aliases live next to the config file in "aliases", one
exec=package.id per line.`,
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(configFormat)
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				format = output.FormatYAML
			}
			return output.Encode(cmd.OutOrStdout(), format, cfg)
		},
	}
)

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "output format: yaml or json")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	RootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return fmt.Errorf("failed to locate config directory: %w", err)
		}
		path = filepath.Join(dir, config.FileName)
	}

	if err := config.WriteDefault(path, configForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}
