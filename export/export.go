// Package export writes collected quotes to disk.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pevans/quotescrape/quote"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// IOError describes a failure to produce the output file.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ValidFormat reports whether format names a supported output format. The
// empty string selects CSV.
func ValidFormat(format string) bool {
	return format == "" || format == FormatCSV || format == FormatJSON
}

// WriteQuotes writes quotes to path in the given format, replacing any
// existing file. The content is written to a temporary file in the same
// directory and renamed into place, so a failure never leaves a truncated
// file at path.
func WriteQuotes(quotes []quote.Quote, path, format string) error {
	var encode func(io.Writer, []quote.Quote) error
	switch format {
	case "", FormatCSV:
		encode = encodeCSV
	case FormatJSON:
		encode = encodeJSON
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}

	if quotes == nil {
		quotes = []quote.Quote{}
	}

	return writeFile(path, func(w io.Writer) error {
		return encode(w, quotes)
	})
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IOError{Path: path, Op: "create", Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err = write(buf); err != nil {
		return &IOError{Path: path, Op: "write", Err: err}
	}
	if err = buf.Flush(); err != nil {
		return &IOError{Path: path, Op: "write", Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &IOError{Path: path, Op: "close", Err: err}
	}
	// CreateTemp uses 0600; output files are meant to be shared.
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return &IOError{Path: path, Op: "chmod", Err: err}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &IOError{Path: path, Op: "rename", Err: err}
	}

	return nil
}
