package discovery

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/pevans/quotescrape/quote"
	"github.com/pevans/quotescrape/scraper"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the first listing page fetched when no start URL is
// given.
const DefaultBaseURL = "https://quotes.toscrape.com/"

// DefaultDelay is the pause between consecutive page fetches.
const DefaultDelay = 500 * time.Millisecond

// Config holds configuration for the discovery service.
type Config struct {
	// First listing page to fetch
	BaseURL string
	// Minimum spacing between page fetches; zero or negative disables it
	Delay time.Duration
	// Maximum number of pages to fetch; zero means no limit
	MaxPages int
	// Check every page against the site's robots.txt
	RespectRobots bool
	// Agent matched against robots.txt groups
	UserAgent string
	// Selectors and missing field policy
	Page scraper.PageConfig
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   DefaultBaseURL,
		Delay:     DefaultDelay,
		MaxPages:  0,
		UserAgent: DefaultUserAgent,
		Page:      *scraper.NewPageConfig(),
	}
}

// Result is the outcome of a complete run.
type Result struct {
	Quotes  []quote.Quote
	Pages   int
	Skipped int
	URLs    []string // pages fetched, in order
}

// Service walks the paginated listing, one page at a time.
type Service struct {
	fetcher Fetcher
	config  *Config
	logger  *log.Logger
}

// NewService creates a new discovery service. A nil config uses
// DefaultConfig.
func NewService(fetcher Fetcher, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}

	return &Service{
		fetcher: fetcher,
		config:  config,
		logger:  log.Default(),
	}
}

// SetLogger replaces the logger used for progress messages.
func (s *Service) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Run fetches startURL (or the configured base URL when empty) and follows
// next-page links until a page has none. Any fetch or extraction error
// aborts the run; no partial result is returned.
func (s *Service) Run(ctx context.Context, startURL string) (*Result, error) {
	if startURL == "" {
		startURL = s.config.BaseURL
	}
	if err := s.config.Page.Validate(); err != nil {
		return nil, err
	}

	var robots *robotstxt.RobotsData
	if s.config.RespectRobots {
		var err error
		robots, err = s.loadRobots(ctx, startURL)
		if err != nil {
			return nil, err
		}
	}

	limiter := newThrottle(s.config.Delay)
	visited := make(map[string]bool)
	result := &Result{Quotes: []quote.Quote{}}

	current := startURL
	for {
		if s.config.MaxPages > 0 && result.Pages >= s.config.MaxPages {
			s.logger.Printf("WARN: Stopping at page limit (%d pages), next page %s not fetched", s.config.MaxPages, current)
			break
		}

		if robots != nil {
			allowed, err := robotsAllowed(robots, current, s.config.UserAgent)
			if err != nil {
				return nil, err
			}
			if !allowed {
				return nil, fmt.Errorf("%s: %w", current, ErrDisallowedByRobots)
			}
		}

		// The first Wait returns immediately; later ones enforce the delay.
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("interrupted before fetching %s: %w", current, err)
		}

		visited[visitKey(current)] = true
		doc, err := s.fetcher.Fetch(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", result.Pages+1, err)
		}
		result.Pages++
		result.URLs = append(result.URLs, current)

		quotes, skipped, err := ExtractQuotes(doc, s.config.Page)
		if err != nil {
			return nil, fmt.Errorf("failed to extract quotes from %s: %w", current, err)
		}
		if skipped > 0 {
			s.logger.Printf("WARN: Skipped %d malformed quotes on %s", skipped, current)
		}
		result.Quotes = append(result.Quotes, quotes...)
		result.Skipped += skipped

		s.logger.Printf("INFO: Page %d (%s): %d quotes", result.Pages, current, len(quotes))

		// Links resolve against the start URL, not the page they appear on.
		next, ok, err := FindNextPage(doc, startURL, s.config.Page)
		if err != nil {
			return nil, fmt.Errorf("failed to find next page on %s: %w", current, err)
		}
		if !ok {
			break
		}
		if visited[visitKey(next)] {
			s.logger.Printf("WARN: Next page %s was already fetched, stopping", next)
			break
		}
		current = next
	}

	return result, nil
}

// loadRobots fetches robots.txt through the fetcher, which must implement
// RobotsLoader.
func (s *Service) loadRobots(ctx context.Context, startURL string) (*robotstxt.RobotsData, error) {
	loader, ok := s.fetcher.(RobotsLoader)
	if !ok {
		return nil, fmt.Errorf("fetcher %T cannot load robots.txt", s.fetcher)
	}

	data, err := loader.Robots(ctx, startURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load robots.txt: %w", err)
	}
	return data, nil
}

// visitKey drops the fragment so #anchors do not defeat the cycle check.
func visitKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// newThrottle allows one fetch immediately and then one per delay.
func newThrottle(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
