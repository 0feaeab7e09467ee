// Package quote defines the record extracted from each listing page.
package quote

// Quote represents a single quotation found on a listing page. Values are
// created once during extraction and never mutated afterwards.
type Quote struct {
	Text   string `csv:"text" json:"text"`
	Author string `csv:"author" json:"author"`
	Tags   Tags   `csv:"tags" json:"tags"`
}

// New creates a quote, normalizing a nil tag list to an empty one so that
// every serialization renders "no tags" the same way.
func New(text, author string, tags []string) Quote {
	if tags == nil {
		tags = []string{}
	}
	return Quote{
		Text:   text,
		Author: author,
		Tags:   Tags(tags),
	}
}
