// Package request parses HTTP/1.x requests incrementally from a byte stream.
//
// Only the request line and header block are consumed: the server serves GET
// and rejects every other method before a body could matter, so no body
// phase exists.
package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"staticserver/internal/headers"
)

// Request is the parsed, immutable form of one HTTP request.
type Request struct {
	Line    RequestLine
	Headers headers.Headers

	state    parseState
	parseErr error
}

// RequestLine holds the three request-line components:
//
//	<method> <request-target> <HTTP-version>
type RequestLine struct {
	Method  string
	Target  string
	Version string // "1.0" or "1.1"
}

type parseState int

const (
	stateInitialized parseState = iota + 1
	stateParsingHeaders
	stateDone
	stateError
)

var (
	ErrMalformedRequestLine = errors.New("malformed request-line")
	ErrUnsupportedVersion   = errors.New("unsupported http version")
	ErrHeadersTooLarge      = errors.New("header block exceeds size limit")

	crlf = []byte("\r\n")

	supportedVersions = map[string]string{
		"HTTP/1.0": "1.0",
		"HTTP/1.1": "1.1",
	}
)

// Size caps, per RFC 9112 recommendations. They bound memory per connection
// and stop a client from feeding an endless start-line.
const (
	maxStartLine   = 8 * 1024
	maxHeaderBlock = 64 * 1024
)

func newRequest() *Request {
	return &Request{
		state:   stateInitialized,
		Headers: headers.New(),
	}
}

func (r *Request) done() bool   { return r.state == stateDone }
func (r *Request) failed() bool { return r.state == stateError }

func (r *Request) setErr(err error) error {
	r.parseErr = err
	r.state = stateError
	return err
}

// parse consumes as much of data as the current state allows and reports the
// number of bytes consumed. Returning (0, nil) means more bytes are needed.
func (r *Request) parse(data []byte) (int, error) {
	read := 0

outer:
	for {
		rest := data[read:]
		switch r.state {
		case stateInitialized:
			rl, n, err := parseRequestLine(rest)
			if err != nil {
				return 0, r.setErr(err)
			}
			if n == 0 {
				break outer
			}
			r.Line = rl
			read += n
			r.state = stateParsingHeaders

		case stateParsingHeaders:
			n, end, err := r.Headers.Parse(rest)
			if err != nil {
				return 0, r.setErr(err)
			}
			if n == 0 && !end {
				break outer
			}
			read += n
			if end {
				r.state = stateDone
				break outer
			}

		case stateDone, stateError:
			break outer

		default:
			return 0, r.setErr(fmt.Errorf("unknown parse state: %d", r.state))
		}
	}

	return read, nil
}

// FromReader reads from rd until a complete request head has been parsed.
//
// An EOF before any byte arrives is reported as io.EOF so callers can treat
// it as a silent disconnect rather than a protocol error. An EOF mid-request
// is io.ErrUnexpectedEOF.
func FromReader(rd io.Reader) (*Request, error) {
	req := newRequest()

	buf := make([]byte, 0, 256)
	tmp := make([]byte, 1024)
	total := 0

	for !req.done() {
		n, err := rd.Read(tmp)

		if n > 0 {
			total += n
			buf = append(buf, tmp[:n]...)

			if req.state == stateInitialized && len(buf) > maxStartLine {
				return nil, req.setErr(ErrMalformedRequestLine)
			}
			if total > maxHeaderBlock {
				return nil, req.setErr(ErrHeadersTooLarge)
			}

			readN, perr := req.parse(buf)
			if perr != nil {
				return nil, perr
			}
			if readN > 0 {
				copy(buf, buf[readN:])
				buf = buf[:len(buf)-readN]
			}
		}

		if err != nil {
			if err == io.EOF {
				if req.done() {
					break
				}
				if req.failed() {
					return nil, req.parseErr
				}
				if total == 0 {
					return nil, io.EOF
				}
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}

	if req.failed() {
		return nil, req.parseErr
	}
	return req, nil
}

// parseRequestLine parses one request line from s. It returns the number of
// bytes consumed including the CRLF; (zero RequestLine, 0, nil) means the
// terminator has not arrived yet.
func parseRequestLine(s []byte) (RequestLine, int, error) {
	idx := bytes.Index(s, crlf)
	if idx == -1 {
		return RequestLine{}, 0, nil
	}

	tokens := bytes.Fields(s[:idx])
	if len(tokens) != 3 {
		return RequestLine{}, 0, ErrMalformedRequestLine
	}

	method, target, version := tokens[0], tokens[1], tokens[2]

	// Any token is accepted as a method here; the connection handler maps
	// non-GET methods to 501. A non-token method is malformed outright.
	if !isMethodToken(method) {
		return RequestLine{}, 0, ErrMalformedRequestLine
	}
	if len(target) == 0 || target[0] != '/' {
		return RequestLine{}, 0, ErrMalformedRequestLine
	}

	ver, ok := supportedVersions[string(version)]
	if !ok {
		return RequestLine{}, 0, ErrUnsupportedVersion
	}

	return RequestLine{
		Method:  string(method),
		Target:  string(target),
		Version: ver,
	}, idx + len(crlf), nil
}

func isMethodToken(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
