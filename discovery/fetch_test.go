package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHTTPFetcher_Success verifies a page is fetched and parsed
func TestHTTPFetcher_Success(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(renderPage([]testQuote{{text: "t", author: "a"}}, "/page/2/")))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, "test-agent/1.0")
	doc, err := fetcher.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Find("div.quote").Length())
	assert.Equal(t, "test-agent/1.0", gotAgent, "should send configured User-Agent")
}

// TestHTTPFetcher_DefaultUserAgent verifies the default User-Agent
func TestHTTPFetcher_DefaultUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	_, err := NewHTTPFetcher(0, "").Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, gotAgent)
}

// TestHTTPFetcher_NotFound verifies non-success status is a TransportError
func TestHTTPFetcher_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	pageURL := server.URL + "/page/2/"
	_, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), pageURL)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusNotFound, transportErr.StatusCode)
	assert.Equal(t, pageURL, transportErr.URL)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), pageURL)
}

// TestHTTPFetcher_ServerError verifies 5xx is a TransportError
func TestHTTPFetcher_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), server.URL)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
}

// TestHTTPFetcher_ConnectionRefused verifies network failure is a
// TransportError without status
func TestHTTPFetcher_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	pageURL := server.URL + "/"
	server.Close()

	_, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), pageURL)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 0, transportErr.StatusCode)
	assert.Equal(t, pageURL, transportErr.URL)
	assert.NotNil(t, transportErr.Err)
}

// TestHTTPFetcher_InvalidURL verifies relative or non-http URLs are rejected
func TestHTTPFetcher_InvalidURL(t *testing.T) {
	fetcher := NewHTTPFetcher(time.Second, "")

	for _, raw := range []string{"/page/2/", "ftp://example.com/", "http://"} {
		_, err := fetcher.Fetch(context.Background(), raw)

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr, "should reject %q", raw)
		assert.Equal(t, 0, transportErr.StatusCode)
	}
}

// TestHTTPFetcher_ContextCancelled verifies a cancelled context aborts the
// fetch
func TestHTTPFetcher_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPFetcher(time.Second, "").Fetch(ctx, server.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

// TestHTTPFetcher_Robots verifies robots.txt is fetched from the site root
func TestHTTPFetcher_Robots(t *testing.T) {
	server := newSiteServer(t, map[string]string{
		"/robots.txt": "User-agent: *\nDisallow: /private/\n",
	})

	data, err := NewHTTPFetcher(time.Second, "").Robots(context.Background(), server.URL+"/page/1/")
	require.NoError(t, err)

	assert.True(t, data.TestAgent("/page/1/", DefaultUserAgent))
	assert.False(t, data.TestAgent("/private/x", DefaultUserAgent))
}

// TestHTTPFetcher_RobotsMissing verifies a missing robots.txt allows all
func TestHTTPFetcher_RobotsMissing(t *testing.T) {
	server := newSiteServer(t, map[string]string{})

	data, err := NewHTTPFetcher(time.Second, "").Robots(context.Background(), server.URL)
	require.NoError(t, err)

	assert.True(t, data.TestAgent("/anything", DefaultUserAgent))
}
