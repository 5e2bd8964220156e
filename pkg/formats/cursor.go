package formats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Map syntax errors. A *ParseError wraps one of these.
var (
	ErrUnexpectedEOF      = errors.New("unexpected end of input")
	ErrUnexpectedChar     = errors.New("unexpected character")
	ErrUnterminatedString = errors.New("unterminated quoted string")
	ErrInvalidNumber      = errors.New("invalid number")
	ErrEmptyBrush         = errors.New("brush has no faces")
)

// ParseError reports where in the input a map failed to parse.
type ParseError struct {
	Offset int // byte offset into the input
	Line   int // 1-based
	Column int // 1-based, in bytes
	Err    error
	Detail string
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d, column %d: %v: %s", e.Line, e.Column, e.Err, e.Detail)
}

// Unwrap returns the sentinel error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

const byteOrderMark = "\uFEFF"

// Cursor reads a map source front to back. The position only moves forward.
type Cursor struct {
	src string
	pos int
}

// NewCursor returns a cursor at the start of src, past any UTF-8 byte order mark.
func NewCursor(src string) *Cursor {
	c := &Cursor{src: src}
	if strings.HasPrefix(src, byteOrderMark) {
		c.pos = len(byteOrderMark)
	}
	return c
}

// Offset returns the current byte offset.
func (c *Cursor) Offset() int {
	return c.pos
}

// Peek returns the next significant character without consuming anything.
// Whitespace and // comments are skipped. ok is false at the end of input.
func (c *Cursor) Peek() (ch byte, ok bool) {
	i := c.skipSpace(c.pos)
	if i >= len(c.src) {
		return 0, false
	}
	return c.src[i], true
}

// Skip consumes leading whitespace and exactly one character.
func (c *Cursor) Skip() (byte, error) {
	i := c.skipSpace(c.pos)
	if i >= len(c.src) {
		c.pos = i
		return 0, c.fail(i, ErrUnexpectedEOF, "")
	}
	c.pos = i + 1
	return c.src[i], nil
}

// Expect consumes the next significant character and fails unless it is want.
func (c *Cursor) Expect(want byte) error {
	start := c.skipSpace(c.pos)
	ch, err := c.Skip()
	if err != nil {
		return c.fail(start, ErrUnexpectedEOF, fmt.Sprintf("expected %q", want))
	}
	if ch != want {
		return c.fail(start, ErrUnexpectedChar, fmt.Sprintf("expected %q, found %q", want, ch))
	}
	return nil
}

// Token reads a quoted string or a bare word.
//
// Quoted strings end at the matching unescaped double quote. Escapes \' \" \\
// \n \r \t and \0 are decoded; any other escaped character stands for itself.
// Bare words run up to the next whitespace.
func (c *Cursor) Token() (string, error) {
	tok, _, err := c.token()
	return tok, err
}

// Number reads a token and parses it as a float.
func (c *Cursor) Number() (float64, error) {
	tok, start, err := c.token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, c.fail(start, ErrInvalidNumber, strconv.Quote(tok))
	}
	return v, nil
}

func (c *Cursor) token() (string, int, error) {
	start := c.skipSpace(c.pos)
	if start >= len(c.src) {
		c.pos = start
		return "", start, c.fail(start, ErrUnexpectedEOF, "expected token")
	}
	if c.src[start] == '"' {
		s, err := c.quoted(start)
		return s, start, err
	}
	end := start
	for end < len(c.src) && !isSpace(c.src[end]) {
		end++
	}
	c.pos = end
	return c.src[start:end], start, nil
}

func (c *Cursor) quoted(start int) (string, error) {
	var sb strings.Builder
	i := start + 1
	for i < len(c.src) {
		ch := c.src[i]
		switch ch {
		case '"':
			c.pos = i + 1
			return sb.String(), nil
		case '\\':
			if i+1 >= len(c.src) {
				i++
				continue
			}
			sb.WriteByte(unescape(c.src[i+1]))
			i += 2
		default:
			sb.WriteByte(ch)
			i++
		}
	}
	c.pos = len(c.src)
	return "", c.fail(start, ErrUnterminatedString, "")
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case '0':
		return 0
	default: // ' " \ and anything else
		return ch
	}
}

// skipSpace returns the index of the first significant byte at or after i.
func (c *Cursor) skipSpace(i int) int {
	for i < len(c.src) {
		switch {
		case isSpace(c.src[i]):
			i++
		case c.src[i] == '/' && i+1 < len(c.src) && c.src[i+1] == '/':
			for i < len(c.src) && c.src[i] != '\n' {
				i++
			}
		default:
			return i
		}
	}
	return i
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func (c *Cursor) fail(offset int, err error, detail string) *ParseError {
	line, col := lineColumn(c.src, offset)
	return &ParseError{Offset: offset, Line: line, Column: col, Err: err, Detail: detail}
}

func lineColumn(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - strings.LastIndexByte(before, '\n')
	return line, col
}
