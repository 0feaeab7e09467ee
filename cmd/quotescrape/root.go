package main

import (
	"fmt"
	"log"

	"github.com/pevans/quotescrape/config"
	"github.com/pevans/quotescrape/runs"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	historyDSN string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "quotescrape",
		Short:         "quotescrape collects quotes from a paginated listing site into a CSV file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"Config file (default ~/.quotescrape/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.historyDSN, "history", "",
		fmt.Sprintf("Run history database; empty disables history (%s)", config.EnvHistoryDSN))

	rootCmd.AddCommand(
		newScrapeCmd(flags),
		newRunsCmd(flags),
		newInitCmd(flags),
	)

	return rootCmd
}

// loadSettings resolves defaults, the config file and the environment, then
// applies the persistent flags that were set explicitly.
func loadSettings(cmd *cobra.Command, flags *globalFlags) (config.Settings, error) {
	file, err := config.LoadConfigFile(flags.configPath)
	if err != nil {
		return config.Settings{}, err
	}

	settings, err := config.Resolve(file)
	if err != nil {
		return config.Settings{}, err
	}

	if cmd.Flags().Changed("history") {
		settings.HistoryDSN = flags.historyDSN
	}

	return settings, nil
}

// openHistory opens the run history, or returns nil when it is disabled.
func openHistory(dsn string) (*runs.RunStore, error) {
	if dsn == "" {
		return nil, nil
	}

	store, err := runs.NewRunStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return store, nil
}

func newLogger(cmd *cobra.Command) *log.Logger {
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}
