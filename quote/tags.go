package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidTagList is returned when a tag list literal cannot be parsed.
var ErrInvalidTagList = errors.New("invalid tag list literal")

// Tags is the ordered list of category labels attached to a quote.
//
// In delimited output the list is rendered as a single bracketed literal,
// e.g. ['love', 'life'], which is the format existing consumers of the CSV
// file expect.
type Tags []string

// MarshalCSV renders the tag list as a single literal column value.
func (t Tags) MarshalCSV() (string, error) {
	return t.Literal(), nil
}

// UnmarshalCSV parses a literal produced by MarshalCSV.
func (t *Tags) UnmarshalCSV(s string) error {
	parsed, err := ParseTags(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON always emits an array, never null.
func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// Literal returns the bracketed, comma-separated, quoted rendering of the
// list. An empty list renders as [].
func (t Tags) Literal() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, tag := range t {
		if i > 0 {
			b.WriteString(", ")
		}
		writeQuoted(&b, tag)
	}
	b.WriteByte(']')
	return b.String()
}

// writeQuoted writes s using single quotes unless s contains a single quote
// and no double quote, in which case double quotes avoid escaping.
func writeQuoted(b *strings.Builder, s string) {
	q := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	b.WriteRune(q)
	for _, r := range s {
		switch {
		case r == q || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == ' ' || unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(b, `\u%04x`, r)
		default:
			fmt.Fprintf(b, `\U%08x`, r)
		}
	}
	b.WriteRune(q)
}

// ParseTags parses a tag list literal such as ['a', "b's"] back into a Tags
// value. An empty string is treated as an empty list.
func ParseTags(s string) (Tags, error) {
	p := &literalParser{src: strings.TrimSpace(s)}
	if p.src == "" {
		return Tags{}, nil
	}
	return p.parse()
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) parse() (Tags, error) {
	tags := Tags{}

	if !p.consume('[') {
		return nil, p.errorf("expected '['")
	}
	p.skipSpace()
	if p.consume(']') {
		return tags, p.end()
	}

	for {
		p.skipSpace()
		tag, err := p.quoted()
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)

		p.skipSpace()
		if p.consume(']') {
			return tags, p.end()
		}
		if !p.consume(',') {
			return nil, p.errorf("expected ',' or ']'")
		}
	}
}

func (p *literalParser) end() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return p.errorf("trailing characters")
	}
	return nil
}

func (p *literalParser) quoted() (string, error) {
	if p.pos >= len(p.src) {
		return "", p.errorf("unexpected end of input")
	}
	q := p.src[p.pos]
	if q != '\'' && q != '"' {
		return "", p.errorf("expected quote")
	}
	p.pos++

	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == q:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *literalParser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf("dangling escape")
	}
	c := p.src[p.pos]
	p.pos++

	switch c {
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'x':
		return p.hexRune(b, 2)
	case 'u':
		return p.hexRune(b, 4)
	case 'U':
		return p.hexRune(b, 8)
	default:
		return p.errorf("unknown escape \\%c", c)
	}
	return nil
}

func (p *literalParser) hexRune(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return p.errorf("short hex escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return p.errorf("bad hex escape")
	}
	p.pos += digits
	b.WriteRune(rune(n))
	return nil
}

func (p *literalParser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrInvalidTagList, fmt.Sprintf(format, args...), p.pos)
}
