package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/temoto/robotstxt"
)

// ErrDisallowedByRobots is returned when robots.txt forbids fetching a page.
var ErrDisallowedByRobots = errors.New("disallowed by robots.txt")

// RobotsLoader is implemented by fetchers that can retrieve a site's
// robots.txt.
type RobotsLoader interface {
	Robots(ctx context.Context, siteURL string) (*robotstxt.RobotsData, error)
}

// Robots fetches and parses robots.txt for the host of siteURL. A missing
// file (4xx) allows everything; a server error (5xx) disallows everything.
func (f *HTTPFetcher) Robots(ctx context.Context, siteURL string) (*robotstxt.RobotsData, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()

	res, err := f.client.R().
		SetContext(ctx).
		Get(robotsURL)
	if err != nil {
		return nil, &TransportError{URL: robotsURL, Err: err}
	}

	data, err := robotstxt.FromStatusAndBytes(res.StatusCode(), res.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", robotsURL, err)
	}
	return data, nil
}

// robotsAllowed tests the path of pageURL against the rules for agent.
func robotsAllowed(data *robotstxt.RobotsData, pageURL, agent string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL: %w", err)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, agent), nil
}
