package packet

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Charset converts wire strings (map names) between the server's byte
// encoding and UTF-8. The zero value is UTF-8.
type Charset struct {
	enc encoding.Encoding
}

// UTF8 is the default charset.
var UTF8 = Charset{}

// NewCharset resolves a WHATWG encoding label such as "utf-8" or "big5".
func NewCharset(label string) (Charset, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return Charset{}, fmt.Errorf("unknown charset %q: %w", label, err)
	}
	if enc == unicode.UTF8 {
		return UTF8, nil
	}
	return Charset{enc: enc}, nil
}

func (c Charset) decode(raw []byte) string {
	if c.enc == nil || isASCII(raw) {
		return string(raw)
	}
	decoded, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func (c Charset) encode(s string) []byte {
	if c.enc == nil || isASCII([]byte(s)) {
		return []byte(s)
	}
	encoded, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return encoded
}

func isASCII(raw []byte) bool {
	for _, b := range raw {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
