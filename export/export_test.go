package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pevans/quotescrape/quote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

// TestWriteQuotes_EmptyList verifies an empty list produces only the header
func TestWriteQuotes_EmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.csv")

	require.NoError(t, WriteQuotes(nil, path, FormatCSV))

	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"text", "author", "tags"}, rows[0])
}

// TestWriteQuotes_Rows verifies one row per quote in order
func TestWriteQuotes_Rows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.csv")
	quotes := []quote.Quote{
		quote.New("A", "X", []string{"t1"}),
		quote.New("B", "Y", nil),
		quote.New("C", "Z", []string{"t2", "t3"}),
	}

	require.NoError(t, WriteQuotes(quotes, path, ""))

	rows := readRows(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"text", "author", "tags"}, rows[0])
	assert.Equal(t, []string{"A", "X", "['t1']"}, rows[1])
	assert.Equal(t, []string{"B", "Y", "[]"}, rows[2])
	assert.Equal(t, []string{"C", "Z", "['t2', 't3']"}, rows[3])
}

// TestWriteQuotes_Quoting verifies embedded delimiters survive a round trip
func TestWriteQuotes_Quoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.csv")
	quotes := []quote.Quote{
		quote.New(`“A, B” said "C"`, "O'Brien, Jr.", []string{"don't", "x,y"}),
		quote.New("line one\nline two", "Anon", nil),
	}

	require.NoError(t, WriteQuotes(quotes, path, FormatCSV))

	read, err := ReadQuotes(path)
	require.NoError(t, err)
	assert.Equal(t, quotes, read)
}

// TestWriteQuotes_Overwrites verifies an existing file is replaced
func TestWriteQuotes_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content\nmore\nmore\n"), 0o644))

	require.NoError(t, WriteQuotes([]quote.Quote{quote.New("A", "X", nil)}, path, FormatCSV))

	rows := readRows(t, path)
	assert.Len(t, rows, 2)
}

// TestWriteQuotes_MissingDirectory verifies an unwritable path is an IOError
func TestWriteQuotes_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "quotes.csv")

	err := WriteQuotes(nil, path, FormatCSV)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "should return IOError, got %v", err)
	assert.Equal(t, path, ioErr.Path)
	assert.Equal(t, "create", ioErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestWriteQuotes_DirectoryTarget verifies no temp files are left behind on failure
func TestWriteQuotes_DirectoryTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0o644))

	err := WriteQuotes(nil, target, FormatCSV)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "should return IOError, got %v", err)
	assert.Equal(t, "rename", ioErr.Op)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "should remove temporary file")
}

// TestWriteQuotes_UnsupportedFormat verifies unknown formats are rejected
func TestWriteQuotes_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.xml")

	err := WriteQuotes(nil, path, "xml")

	assert.Error(t, err)
	assert.NoFileExists(t, path)
	assert.False(t, ValidFormat("xml"))
	assert.True(t, ValidFormat(""))
}

// TestWriteQuotes_JSON verifies the JSON format keeps tags as a list
func TestWriteQuotes_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.json")
	quotes := []quote.Quote{
		quote.New("A", "X", []string{"t1", "t2"}),
		quote.New("B", "Y", nil),
	}

	require.NoError(t, WriteQuotes(quotes, path, FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, []any{"t1", "t2"}, decoded[0]["tags"])
	assert.Equal(t, []any{}, decoded[1]["tags"])
}

// TestReadQuotes_Missing verifies a missing file is an IOError
func TestReadQuotes_Missing(t *testing.T) {
	_, err := ReadQuotes(filepath.Join(t.TempDir(), "nope.csv"))

	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr))
}
