package scraper

import "fmt"

// Missing field policies for PageConfig.OnMissingField.
const (
	// MissingFieldFail aborts extraction at the first quote container that
	// lacks its text or author.
	MissingFieldFail = "fail"
	// MissingFieldSkip drops such containers and keeps extracting.
	MissingFieldSkip = "skip"
)

// PageConfig defines how to extract quotes and the next-page link from a
// listing page. The zero value of any selector falls back to the default
// markup of quotes.toscrape.com.
type PageConfig struct {
	QuoteSelector    string `json:"quote_selector" yaml:"quote_selector"`
	TextSelector     string `json:"text_selector" yaml:"text_selector"`
	AuthorSelector   string `json:"author_selector" yaml:"author_selector"`
	TagSelector      string `json:"tag_selector" yaml:"tag_selector"`
	NextSelector     string `json:"next_selector" yaml:"next_selector"`
	NextLinkSelector string `json:"next_link_selector" yaml:"next_link_selector"`
	OnMissingField   string `json:"on_missing_field" yaml:"on_missing_field"` // "fail" or "skip"
}

// NewPageConfig creates a page configuration with default values.
func NewPageConfig() *PageConfig {
	return &PageConfig{
		QuoteSelector:    "div.quote",
		TextSelector:     "span.text",
		AuthorSelector:   "small.author",
		TagSelector:      "a.tag",
		NextSelector:     "li.next",
		NextLinkSelector: "a",
		OnMissingField:   MissingFieldFail,
	}
}

// WithDefaults returns a copy of c with every empty field replaced by its
// default value.
func (c PageConfig) WithDefaults() PageConfig {
	d := NewPageConfig()
	if c.QuoteSelector == "" {
		c.QuoteSelector = d.QuoteSelector
	}
	if c.TextSelector == "" {
		c.TextSelector = d.TextSelector
	}
	if c.AuthorSelector == "" {
		c.AuthorSelector = d.AuthorSelector
	}
	if c.TagSelector == "" {
		c.TagSelector = d.TagSelector
	}
	if c.NextSelector == "" {
		c.NextSelector = d.NextSelector
	}
	if c.NextLinkSelector == "" {
		c.NextLinkSelector = d.NextLinkSelector
	}
	if c.OnMissingField == "" {
		c.OnMissingField = d.OnMissingField
	}
	return c
}

// Validate checks the missing field policy.
func (c PageConfig) Validate() error {
	switch c.OnMissingField {
	case "", MissingFieldFail, MissingFieldSkip:
		return nil
	default:
		return fmt.Errorf("on_missing_field must be %q or %q, got %q",
			MissingFieldFail, MissingFieldSkip, c.OnMissingField)
	}
}
