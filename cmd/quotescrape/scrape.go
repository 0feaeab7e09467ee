package main

import (
	"fmt"
	"time"

	"github.com/pevans/quotescrape"
	"github.com/pevans/quotescrape/config"
	"github.com/pevans/quotescrape/export"
	"github.com/spf13/cobra"
)

type scrapeFlags struct {
	baseURL       string
	delay         time.Duration
	maxPages      int
	timeout       time.Duration
	userAgent     string
	format        string
	onMissing     string
	respectRobots bool
}

func newScrapeCmd(global *globalFlags) *cobra.Command {
	flags := &scrapeFlags{}

	cmd := &cobra.Command{
		Use:   "scrape [output]",
		Short: "Walks every listing page and writes the collected quotes.",
		Long: fmt.Sprintf(`Walks every listing page starting at the base URL and writes the collected
quotes to output (default %s). Nothing is written unless every page was
fetched and parsed.`, quotescrape.DefaultOutput),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, global)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &settings); err != nil {
				return err
			}

			history, err := openHistory(settings.HistoryDSN)
			if err != nil {
				return err
			}
			if history != nil {
				defer history.Close()
			}

			var output string
			if len(args) > 0 {
				output = args[0]
			}

			result, err := quotescrape.Scrape(cmd.Context(), quotescrape.Options{
				Settings: settings,
				Output:   output,
				History:  history,
				Logger:   newLogger(cmd),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d quotes from %d pages to %s\n",
				len(result.Quotes), result.Pages, result.Output)
			if result.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d malformed quotes\n", result.Skipped)
			}
			if result.Run != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Run ID: %s\n", result.Run.RunID)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.baseURL, "base-url", "", fmt.Sprintf("First listing page (%s)", config.EnvBaseURL))
	f.DurationVar(&flags.delay, "delay", 0, fmt.Sprintf("Minimum delay between page fetches (%s)", config.EnvDelay))
	f.IntVar(&flags.maxPages, "max-pages", 0, fmt.Sprintf("Stop after this many pages, 0 for no limit (%s)", config.EnvMaxPages))
	f.DurationVar(&flags.timeout, "timeout", 0, "Per request timeout")
	f.StringVar(&flags.userAgent, "user-agent", "", fmt.Sprintf("User-Agent header (%s)", config.EnvUserAgent))
	f.StringVar(&flags.format, "format", "", "Output format: csv or json")
	f.StringVar(&flags.onMissing, "on-missing", "", "Quotes missing text or author: fail or skip")
	f.BoolVar(&flags.respectRobots, "respect-robots", false, "Refuse pages disallowed by robots.txt")

	return cmd
}

// apply overrides settings with every flag set on the command line.
func (f *scrapeFlags) apply(cmd *cobra.Command, s *config.Settings) error {
	changed := cmd.Flags().Changed

	if changed("base-url") {
		s.BaseURL = f.baseURL
	}
	if changed("delay") {
		s.Delay = f.delay
	}
	if changed("max-pages") {
		if f.maxPages < 0 {
			return fmt.Errorf("--max-pages must not be negative")
		}
		s.MaxPages = f.maxPages
	}
	if changed("timeout") {
		if f.timeout <= 0 {
			return fmt.Errorf("--timeout must be positive")
		}
		s.Timeout = f.timeout
	}
	if changed("user-agent") {
		s.UserAgent = f.userAgent
	}
	if changed("format") {
		if !export.ValidFormat(f.format) {
			return fmt.Errorf("--format must be %s or %s", export.FormatCSV, export.FormatJSON)
		}
		s.Format = f.format
	}
	if changed("on-missing") {
		s.Page.OnMissingField = f.onMissing
		if err := s.Page.Validate(); err != nil {
			return err
		}
	}
	if changed("respect-robots") {
		s.RespectRobots = f.respectRobots
	}

	return nil
}
