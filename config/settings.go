// Package config resolves scrape settings from defaults, the YAML config
// file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pevans/quotescrape/discovery"
	"github.com/pevans/quotescrape/export"
	"github.com/pevans/quotescrape/scraper"
)

// Environment variables consulted by Resolve.
const (
	EnvBaseURL    = "QUOTESCRAPE_BASE_URL"
	EnvDelay      = "QUOTESCRAPE_DELAY"
	EnvMaxPages   = "QUOTESCRAPE_MAX_PAGES"
	EnvHistoryDSN = "QUOTESCRAPE_HISTORY_DSN"
	EnvUserAgent  = "QUOTESCRAPE_USER_AGENT"
)

// Settings is the effective configuration of one scrape.
type Settings struct {
	BaseURL       string
	Delay         time.Duration
	MaxPages      int
	Timeout       time.Duration
	UserAgent     string
	RespectRobots bool
	Format        string
	HistoryDSN    string // empty disables run history
	Page          scraper.PageConfig
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		BaseURL:   discovery.DefaultBaseURL,
		Delay:     discovery.DefaultDelay,
		Timeout:   discovery.DefaultTimeout,
		UserAgent: discovery.DefaultUserAgent,
		Format:    export.FormatCSV,
		Page:      *scraper.NewPageConfig(),
	}
}

// Resolve layers the config file (may be nil) and then the environment over
// Defaults. Command line flags are applied by the caller afterwards.
func Resolve(file *FileConfig) (Settings, error) {
	s := Defaults()

	if file != nil {
		if err := s.applyFile(file); err != nil {
			return Settings{}, err
		}
	}

	s.BaseURL = getEnv(EnvBaseURL, s.BaseURL)
	s.Delay = getEnvDuration(EnvDelay, s.Delay)
	// Negative page limits are ignored like other unparsable values.
	if maxPages := getEnvInt(EnvMaxPages, s.MaxPages); maxPages >= 0 {
		s.MaxPages = maxPages
	}
	s.HistoryDSN = getEnv(EnvHistoryDSN, s.HistoryDSN)
	s.UserAgent = getEnv(EnvUserAgent, s.UserAgent)

	return s, nil
}

func (s *Settings) applyFile(file *FileConfig) error {
	sc := file.Scrape

	if sc.BaseURL != "" {
		s.BaseURL = sc.BaseURL
	}
	if sc.Delay != "" {
		d, err := time.ParseDuration(sc.Delay)
		if err != nil {
			return fmt.Errorf("invalid scrape.delay %q: %w", sc.Delay, err)
		}
		s.Delay = d
	}
	if sc.MaxPages != nil {
		if *sc.MaxPages < 0 {
			return fmt.Errorf("scrape.max_pages must not be negative, got %d", *sc.MaxPages)
		}
		s.MaxPages = *sc.MaxPages
	}
	if sc.Timeout != "" {
		d, err := time.ParseDuration(sc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid scrape.timeout %q: %w", sc.Timeout, err)
		}
		s.Timeout = d
	}
	if sc.UserAgent != "" {
		s.UserAgent = sc.UserAgent
	}
	if sc.RespectRobots != nil {
		s.RespectRobots = *sc.RespectRobots
	}
	if sc.Format != "" {
		if !export.ValidFormat(sc.Format) {
			return fmt.Errorf("scrape.format must be %q or %q, got %q",
				export.FormatCSV, export.FormatJSON, sc.Format)
		}
		s.Format = sc.Format
	}

	s.Page = file.Selectors.WithDefaults()
	if err := s.Page.Validate(); err != nil {
		return fmt.Errorf("invalid selectors: %w", err)
	}

	if file.History.DSN != "" {
		s.HistoryDSN = file.History.DSN
	}

	return nil
}

// DiscoveryConfig converts the settings into a discovery service config.
func (s Settings) DiscoveryConfig() *discovery.Config {
	return &discovery.Config{
		BaseURL:       s.BaseURL,
		Delay:         s.Delay,
		MaxPages:      s.MaxPages,
		RespectRobots: s.RespectRobots,
		UserAgent:     s.UserAgent,
		Page:          s.Page,
	}
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses a duration from environment variable or returns default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvInt parses an int from environment variable or returns default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
