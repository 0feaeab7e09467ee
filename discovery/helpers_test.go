package discovery

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// Test helper: one quote container in the site's markup
type testQuote struct {
	text   string
	author string
	tags   []string
}

// Test helper: render a listing page with the given quotes and optional
// next link
func renderPage(quotes []testQuote, nextHref string) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"container\"><div class=\"col-md-8\">\n")
	for _, q := range quotes {
		b.WriteString(`<div class="quote" itemscope itemtype="http://schema.org/CreativeWork">`)
		if q.text != "" {
			fmt.Fprintf(&b, "\n  <span class=\"text\" itemprop=\"text\">  %s  </span>", q.text)
		}
		if q.author != "" {
			fmt.Fprintf(&b, "\n  <span>by <small class=\"author\" itemprop=\"author\">\n%s\n</small></span>", q.author)
		}
		b.WriteString("\n  <div class=\"tags\">Tags:")
		for _, tag := range q.tags {
			fmt.Fprintf(&b, "\n    <a class=\"tag\" href=\"/tag/%s/page/1/\"> %s </a>", tag, tag)
		}
		b.WriteString("\n  </div>\n</div>\n")
	}
	b.WriteString("<nav><ul class=\"pager\">")
	if nextHref != "" {
		fmt.Fprintf(&b, `<li class="next"><a href="%s">Next <span aria-hidden="true">&rarr;</span></a></li>`, nextHref)
	}
	b.WriteString("</ul></nav></div></div></body></html>")
	return b.String()
}

// Test helper: parse HTML into a document
func parseDoc(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

// Test helper: serve fixed pages by path; unknown paths return 404
func newSiteServer(t *testing.T, pages map[string]string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

// Test helper: logger that discards output
func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
