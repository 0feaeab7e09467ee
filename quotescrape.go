// Package quotescrape collects quotes from a paginated listing site and
// writes them to a file.
package quotescrape

import (
	"context"
	"fmt"
	"log"

	"github.com/pevans/quotescrape/config"
	"github.com/pevans/quotescrape/discovery"
	"github.com/pevans/quotescrape/export"
	"github.com/pevans/quotescrape/quote"
	"github.com/pevans/quotescrape/runs"
)

// DefaultOutput is the output path used when none is given.
const DefaultOutput = "quotes.csv"

// Options configures a single Scrape call.
type Options struct {
	Settings config.Settings
	// Output file; defaults to DefaultOutput, or quotes.json for JSON
	Output string
	// Fetcher overrides the HTTP fetcher built from Settings
	Fetcher discovery.Fetcher
	// History records the run when set
	History *runs.RunStore
	Logger  *log.Logger
}

// Result describes a completed scrape.
type Result struct {
	Quotes  []quote.Quote
	Pages   int
	Skipped int
	URLs    []string // pages fetched, in order
	Output  string
	Run     *runs.Run // nil when history is disabled
}

// Scrape walks every listing page, writes the collected quotes and records
// the run in the history store. The output file is only written when the
// whole walk succeeds.
func Scrape(ctx context.Context, opts Options) (*Result, error) {
	settings := opts.Settings
	if settings.Format == "" {
		settings.Format = export.FormatCSV
	}
	if !export.ValidFormat(settings.Format) {
		return nil, fmt.Errorf("unsupported output format %q", settings.Format)
	}

	output := opts.Output
	if output == "" {
		output = DefaultOutput
		if settings.Format == export.FormatJSON {
			output = "quotes.json"
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = discovery.NewHTTPFetcher(settings.Timeout, settings.UserAgent)
	}

	var run *runs.Run
	if opts.History != nil {
		selectors := settings.Page
		var err error
		run, err = opts.History.CreateRun(settings.BaseURL, output, settings.Format, &selectors)
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		logger.Printf("INFO: Started run %s", run.RunID)
	}

	service := discovery.NewService(fetcher, settings.DiscoveryConfig())
	service.SetLogger(logger)

	res, err := service.Run(ctx, settings.BaseURL)
	if err == nil {
		err = export.WriteQuotes(res.Quotes, output, settings.Format)
	}

	if run != nil {
		outcome := runs.Outcome{Err: err}
		if res != nil {
			outcome.Pages = res.Pages
			outcome.Quotes = len(res.Quotes)
			outcome.Skipped = res.Skipped
			outcome.URLs = res.URLs
		}
		if ferr := opts.History.FinishRun(run.RunID, outcome); ferr != nil {
			logger.Printf("WARN: Failed to finish run %s: %v", run.RunID, ferr)
		} else if updated, gerr := opts.History.GetRun(run.RunID); gerr == nil {
			run = updated
		}
	}

	if err != nil {
		return nil, err
	}

	logger.Printf("INFO: Wrote %d quotes from %d pages to %s", len(res.Quotes), res.Pages, output)

	return &Result{
		Quotes:  res.Quotes,
		Pages:   res.Pages,
		Skipped: res.Skipped,
		URLs:    res.URLs,
		Output:  output,
		Run:     run,
	}, nil
}
