package export

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pevans/quotescrape/quote"
)

// encodeCSV writes the header row, taken from the csv tags of quote.Quote,
// and one row per quote. Tags are rendered as a single literal column by
// quote.Tags.MarshalCSV.
func encodeCSV(w io.Writer, quotes []quote.Quote) error {
	if err := gocsv.Marshal(quotes, w); err != nil {
		return fmt.Errorf("failed to encode CSV: %w", err)
	}
	return nil
}

// ReadQuotes reads a CSV file produced by WriteQuotes.
func ReadQuotes(path string) ([]quote.Quote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	quotes := []quote.Quote{}
	if err := gocsv.Unmarshal(f, &quotes); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return quotes, nil
}
