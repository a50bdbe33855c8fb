// Package encoding provides text decoding and path helpers for beatmap
// files.
package encoding

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewReader returns a reader that yields UTF-8 text from r.
// A leading UTF-8 BOM is stripped and UTF-16 input with a BOM is
// transcoded. Invalid UTF-8 is replaced with U+FFFD.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
