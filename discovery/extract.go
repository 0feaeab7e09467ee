package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/quotescrape/quote"
	"github.com/pevans/quotescrape/scraper"
)

// ExtractionError reports page markup that did not match the configured
// structure.
type ExtractionError struct {
	Index int // zero-based quote container index, -1 for page-level elements
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	msg := "missing " + e.Field
	if e.Err != nil {
		msg = fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	if e.Index < 0 {
		return msg
	}
	return fmt.Sprintf("quote %d: %s", e.Index, msg)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ExtractQuotes returns every quote on the page in document order. With the
// "fail" policy the first container lacking its text or author aborts
// extraction with an *ExtractionError; with "skip" such containers are
// dropped and counted in skipped.
func ExtractQuotes(doc *goquery.Document, config scraper.PageConfig) (quotes []quote.Quote, skipped int, err error) {
	config = config.WithDefaults()
	quotes = []quote.Quote{}

	doc.Find(config.QuoteSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		q, qerr := extractQuote(s, i, config)
		if qerr != nil {
			if config.OnMissingField == scraper.MissingFieldSkip {
				skipped++
				return true
			}
			err = qerr
			return false
		}
		quotes = append(quotes, q)
		return true
	})

	if err != nil {
		return nil, 0, err
	}
	return quotes, skipped, nil
}

func extractQuote(s *goquery.Selection, index int, config scraper.PageConfig) (quote.Quote, error) {
	text, ok := firstText(s, config.TextSelector)
	if !ok {
		return quote.Quote{}, &ExtractionError{Index: index, Field: "text"}
	}

	author, ok := firstText(s, config.AuthorSelector)
	if !ok {
		return quote.Quote{}, &ExtractionError{Index: index, Field: "author"}
	}

	tags := []string{}
	s.Find(config.TagSelector).Each(func(_ int, tag *goquery.Selection) {
		if t := strings.TrimSpace(tag.Text()); t != "" {
			tags = append(tags, t)
		}
	})

	return quote.New(text, author, tags), nil
}

// firstText returns the trimmed text of the first match. A missing or blank
// element reports false.
func firstText(s *goquery.Selection, selector string) (string, bool) {
	match := s.Find(selector).First()
	if match.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(match.Text())
	return text, text != ""
}

// FindNextPage locates the next-page marker and resolves its link against
// base. It reports false when the page has no marker, which ends
// pagination.
func FindNextPage(doc *goquery.Document, base string, config scraper.PageConfig) (string, bool, error) {
	config = config.WithDefaults()

	marker := doc.Find(config.NextSelector).First()
	if marker.Length() == 0 {
		return "", false, nil
	}

	link := marker.Find(config.NextLinkSelector).First()
	if link.Length() == 0 && marker.Is(config.NextLinkSelector) {
		link = marker
	}

	href := strings.TrimSpace(link.AttrOr("href", ""))
	if href == "" {
		return "", false, &ExtractionError{Index: -1, Field: "next page link"}
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false, fmt.Errorf("invalid base URL %q: %w", base, err)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false, &ExtractionError{Index: -1, Field: "next page link", Err: err}
	}

	return baseURL.ResolveReference(ref).String(), true, nil
}
