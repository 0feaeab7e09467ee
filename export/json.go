package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pevans/quotescrape/quote"
)

// encodeJSON writes an indented array; tags stay a real list.
func encodeJSON(w io.Writer, quotes []quote.Quote) error {
	data, err := json.MarshalIndent(quotes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal quotes: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return err
	}
	return nil
}
