package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the prokill configuration",
	}
	cmd.AddCommand(newConfigLintCmd(ctx))
	cmd.AddCommand(newConfigShowCmd(ctx))
	return cmd
}

func newConfigLintCmd(ctx *context) *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// PersistentPreRunE already loaded and validated the file.
			cfg := ctx.getConfig()
			if cfg.Path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file found; using defaults: OK")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", cfg.Path)
			return nil
		},
	}
}

func newConfigShowCmd(ctx *context) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.getConfig()
			if cfg.Path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.Path)
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}
}
