package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent identifies quotescrape to the sites it fetches.
const DefaultUserAgent = "quotescrape/1.0 (paginated quote collector)"

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 10 * time.Second

// Fetcher retrieves one page and returns its parsed document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// TransportError describes a failed page fetch: a non-success HTTP status, a
// network-level failure or a body that could not be parsed as HTML.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("fetch %s (HTTP %d): %v", e.URL, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPFetcher fetches pages over HTTP. It never retries.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout and
// User-Agent. Zero values fall back to DefaultTimeout and DefaultUserAgent.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &HTTPFetcher{client: client}
}

// Fetch performs a GET request and parses the response body as HTML.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if err := checkPageURL(rawURL); err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	res, err := f.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return nil, &TransportError{URL: rawURL, StatusCode: res.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, &TransportError{
			URL:        rawURL,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("failed to parse HTML: %w", err),
		}
	}

	return doc, nil
}

// checkPageURL requires an absolute http or https URL.
func checkPageURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("invalid URL: scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("invalid URL: missing host")
	}
	return nil
}
