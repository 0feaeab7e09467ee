package main

import (
	"fmt"

	"github.com/pevans/quotescrape/config"
	"github.com/spf13/cobra"
)

func newInitCmd(global *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [--force]",
		Short: "Writes a config file with the default settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := global.configPath
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			written, err := config.WriteDefaultConfigFile(path, force)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(cmd.OutOrStdout(), "Config file %s already exists (use --force to overwrite)\n", path)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
