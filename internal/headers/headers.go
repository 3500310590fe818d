// Package headers implements the case-insensitive header field map shared by
// the request parser and the response writer.
package headers

import (
	"bytes"
	"errors"
	"strings"
)

// Headers stores field names lowercased. Repeated fields are combined into a
// single comma-separated value in arrival order.
type Headers map[string]string

var (
	ErrMalformedFieldLine = errors.New("malformed header field-line")
	ErrFieldLineTooLong   = errors.New("header field-line too long")

	crlf = []byte("\r\n")
)

// Per-line cap. The total header block is capped by the request parser.
const maxFieldLine = 8 * 1024

func New() Headers { return Headers{} }

func (h Headers) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Add appends value to any existing field of the same name.
func (h Headers) Add(name, value string) {
	name = strings.ToLower(name)
	if prev, ok := h[name]; ok {
		h[name] = prev + "," + value
	} else {
		h[name] = value
	}
}

// Set replaces any existing value.
func (h Headers) Set(name, value string) {
	h[strings.ToLower(name)] = value
}

// Parse consumes complete field-lines from data until it sees the blank line
// ending the header block. It returns the number of bytes consumed and
// done=true once the blank line has been consumed. A partial trailing line is
// left unconsumed for the next call.
func (h Headers) Parse(data []byte) (n int, done bool, err error) {
	off := 0
	for {
		idx := bytes.Index(data[off:], crlf)
		if idx == -1 {
			if len(data)-off > maxFieldLine {
				return 0, false, ErrFieldLineTooLong
			}
			return off, false, nil
		}
		if idx > maxFieldLine {
			return 0, false, ErrFieldLineTooLong
		}

		line := data[off : off+idx]
		off += idx + len(crlf)

		if len(line) == 0 {
			return off, true, nil
		}

		// Obsolete line folding.
		if line[0] == ' ' || line[0] == '\t' {
			return 0, false, ErrMalformedFieldLine
		}

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return 0, false, ErrMalformedFieldLine
		}

		name := line[:colon]
		// Field-name must be a valid token; this also rejects whitespace
		// between the name and the colon.
		if !isToken(name) {
			return 0, false, ErrMalformedFieldLine
		}

		value := strings.Trim(string(line[colon+1:]), " \t")
		h.Add(string(name), value)
	}
}

var tokenChars [256]bool

func init() {
	for c := byte('0'); c <= '9'; c++ {
		tokenChars[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		tokenChars[c] = true
	}
	for c := byte('a'); c <= 'z'; c++ {
		tokenChars[c] = true
	}
	for _, c := range []byte("!#$%&'*+-.^_`|~") {
		tokenChars[c] = true
	}
}

func isToken(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c > 127 || !tokenChars[c] {
			return false
		}
	}
	return true
}
