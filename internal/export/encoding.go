package export

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Base64 is the pseudo-encoding that base64-wraps an XML document.
const Base64 = "base64"

// pythonAliases maps Python codec spellings to their IANA names.
var pythonAliases = map[string]string{
	"latin-1":    "latin1",
	"latin_1":    "latin1",
	"iso8859-1":  "iso-8859-1",
	"iso8859-15": "iso-8859-15",
	"ascii":      "us-ascii",
	"cp-1252":    "windows-1252",
	"cp1252":     "windows-1252",
	"utf_16":     "utf-16",
	"sjis":       "shift_jis",
}

// LookupEncoding resolves a charset name, e.g. "utf-8", "latin-1", "ascii" or "utf-16".
// An empty name is UTF-8.
//
// Names resolve against the IANA registry, so "latin-1" is ISO-8859-1 and
// "ascii" rejects anything above 0x7F. The WHATWG index, which folds both into
// windows-1252, is only consulted for names IANA does not know.
func LookupEncoding(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := pythonAliases[n]; ok {
		n = alias
	}
	switch n {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	}

	if enc, err := ianaindex.IANA.Encoding(n); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(n); err == nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, name)
}

// IsBase64 reports whether name selects the base64 transform.
func IsBase64(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), Base64)
}

// transcode converts UTF-8 text into enc. Characters enc cannot
// represent are an error.
func transcode(text []byte, enc encoding.Encoding) ([]byte, error) {
	if enc == unicode.UTF8 {
		return text, nil
	}
	out, err := enc.NewEncoder().Bytes(text)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return out, nil
}
