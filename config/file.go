package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pevans/quotescrape/scraper"
	"gopkg.in/yaml.v3"
)

// ScrapeConfig holds crawl settings from the config file. Durations are
// strings in time.ParseDuration syntax.
type ScrapeConfig struct {
	BaseURL       string `yaml:"base_url"`
	Delay         string `yaml:"delay"`
	MaxPages      *int   `yaml:"max_pages"`
	Timeout       string `yaml:"timeout"`
	UserAgent     string `yaml:"user_agent"`
	RespectRobots *bool  `yaml:"respect_robots"`
	Format        string `yaml:"format"`
}

// HistoryConfig locates the run history database.
type HistoryConfig struct {
	DSN string `yaml:"dsn"`
}

// FileConfig represents the structure of ~/.quotescrape/config.yaml.
type FileConfig struct {
	Scrape    ScrapeConfig       `yaml:"scrape"`
	Selectors scraper.PageConfig `yaml:"selectors"`
	History   HistoryConfig      `yaml:"history"`
}

// DefaultConfigPath returns ~/.quotescrape/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".quotescrape", "config.yaml"), nil
}

// LoadConfigFile loads configuration from path, or from DefaultConfigPath
// when path is empty. Returns nil if the file doesn't exist (not an error).
// Returns error if the file exists but cannot be parsed.
func LoadConfigFile(path string) (*FileConfig, error) {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// DefaultFileConfig returns a file configuration spelling out every default.
func DefaultFileConfig() *FileConfig {
	d := Defaults()
	maxPages := d.MaxPages
	respectRobots := d.RespectRobots

	return &FileConfig{
		Scrape: ScrapeConfig{
			BaseURL:       d.BaseURL,
			Delay:         d.Delay.String(),
			MaxPages:      &maxPages,
			Timeout:       d.Timeout.String(),
			UserAgent:     d.UserAgent,
			RespectRobots: &respectRobots,
			Format:        d.Format,
		},
		Selectors: d.Page,
		History:   HistoryConfig{DSN: d.HistoryDSN},
	}
}

// WriteDefaultConfigFile writes DefaultFileConfig to path, creating parent
// directories. An existing file is left alone unless force is set; the
// returned bool reports whether the file was written.
func WriteDefaultConfigFile(path string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	data, err := yaml.Marshal(DefaultFileConfig())
	if err != nil {
		return false, fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}
