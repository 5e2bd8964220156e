// Package encoding converts map sources and archive names to UTF-8.
package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Auto picks UTF-8 when the input is valid UTF-8 and Windows-1252 otherwise.
const Auto = "auto"

// ErrUnknownEncoding is returned for an encoding name that is not supported.
var ErrUnknownEncoding = errors.New("unknown encoding")

var encodings = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8,
	"utf8":         unicode.UTF8,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"cp437":        charmap.CodePage437,
	"euc-kr":       korean.EUCKR,
}

// Names returns the supported encoding names, sorted.
func Names() []string {
	names := []string{Auto}
	for name := range encodings {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

// Lookup returns the encoding registered under name. Matching ignores case.
// An empty name means Auto, for which Lookup returns nil.
func Lookup(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == Auto {
		return nil, nil
	}
	enc, ok := encodings[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Decode converts data in the named encoding to a UTF-8 string.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		if utf8.Valid(data) {
			return string(data), nil
		}
		enc = charmap.Windows1252
	}
	if enc == unicode.UTF8 {
		if !utf8.Valid(data) {
			return "", errors.New("decoding utf-8: invalid byte sequence")
		}
		return string(data), nil
	}

	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", name, err)
	}
	return string(result), nil
}

// NormalizePath normalizes an archive path for case-insensitive lookup.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ToLower(path)
}

// FixedString converts a fixed-size, NUL-padded name field to a string.
// Bytes after the first NUL are ignored. Non-UTF-8 names are read as
// Windows-1252.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	s, _ := Decode(data, Auto)
	return s
}

// PutFixedString copies s into a NUL-padded field of the given size.
// Longer names are truncated, leaving room for the terminator.
func PutFixedString(s string, size int) []byte {
	result := make([]byte, size)
	if size > 0 {
		copy(result[:size-1], s)
	}
	return result
}
