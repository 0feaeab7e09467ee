package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pevans/quotescrape/config"
	"github.com/pevans/quotescrape/runs"
	"github.com/spf13/cobra"
)

var errHistoryDisabled = fmt.Errorf("run history is disabled; set --history or %s", config.EnvHistoryDSN)

func newRunsCmd(global *globalFlags) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspects the history of scrape runs.",
	}

	var limit int
	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lists recent runs, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRequiredHistory(cmd, global)
			if err != nil {
				return err
			}
			defer store.Close()

			filter := runs.RunFilter{Limit: limit}
			if status != "" {
				filter.Status = &status
			}

			list, err := store.ListRuns(filter)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			printRunsTable(cmd.OutOrStdout(), list)
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show, 0 for all")
	listCmd.Flags().StringVar(&status, "status", "", "Only show runs with this status: running, succeeded or failed")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Shows one run. The id may be a unique prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRequiredHistory(cmd, global)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.FindRun(args[0])
			if errors.Is(err, runs.ErrRunNotFound) {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			if err != nil {
				return err
			}

			printRunDetail(cmd.OutOrStdout(), run)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Removes one run from the history. The id may be a unique prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRequiredHistory(cmd, global)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.FindRun(args[0])
			if errors.Is(err, runs.ErrRunNotFound) {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			if err != nil {
				return err
			}

			if err := store.DeleteRun(run.RunID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.RunID)
			return nil
		},
	}

	runsCmd.AddCommand(listCmd, showCmd, deleteCmd)
	return runsCmd
}

func openRequiredHistory(cmd *cobra.Command, global *globalFlags) (*runs.RunStore, error) {
	settings, err := loadSettings(cmd, global)
	if err != nil {
		return nil, err
	}
	if settings.HistoryDSN == "" {
		return nil, errHistoryDisabled
	}
	return openHistory(settings.HistoryDSN)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func printRunsTable(w io.Writer, list []runs.Run) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Started", "Status", "Pages", "Quotes", "Duration", "Output"})

	for _, run := range list {
		t.AppendRow(table.Row{
			run.RunID.String()[:8],
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Status,
			run.Pages,
			run.Quotes,
			formatDuration(&run),
			run.OutputPath,
		})
	}

	t.Render()
}

func printRunDetail(w io.Writer, run *runs.Run) {
	t := newTable(w)

	finished := "-"
	if run.FinishedAt != nil {
		finished = run.FinishedAt.Local().Format(time.RFC3339)
	}
	lastError := "-"
	if run.LastError != nil {
		lastError = *run.LastError
	}

	t.AppendRows([]table.Row{
		{"ID", run.RunID.String()},
		{"Status", run.Status},
		{"Start URL", run.StartURL},
		{"Output", run.OutputPath},
		{"Format", run.Format},
		{"Pages", strconv.Itoa(run.Pages)},
		{"Quotes", strconv.Itoa(run.Quotes)},
		{"Skipped", strconv.Itoa(run.Skipped)},
		{"Started", run.StartedAt.Local().Format(time.RFC3339)},
		{"Finished", finished},
		{"Duration", formatDuration(run)},
		{"Error", lastError},
	})
	if run.Selectors != nil {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Quote selector", run.Selectors.QuoteSelector},
			{"Next selector", run.Selectors.NextSelector},
			{"On missing field", run.Selectors.OnMissingField},
		})
	}
	if len(run.URLs) > 0 {
		t.AppendSeparator()
		for i, u := range run.URLs {
			t.AppendRow(table.Row{fmt.Sprintf("Page %d", i+1), u})
		}
	}

	t.Render()
}

func formatDuration(run *runs.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}
