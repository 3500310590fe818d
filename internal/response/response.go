// Package response serializes HTTP/1.1 responses: status line, header
// block, then body. File bodies are streamed rather than buffered.
package response

import (
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"sort"
	"strconv"

	"staticserver/internal/headers"
)

type StatusCode int

// The complete set of status codes this server emits on the wire.
// InternalServerError appears only in logs: it marks a body stream that
// failed after the 200 head was already committed.
const (
	StatusOK             StatusCode = 200
	StatusNotFound       StatusCode = 404
	StatusNotImplemented StatusCode = 501

	StatusInternalServerError StatusCode = 500
)

var reasonPhrases = map[StatusCode]string{
	StatusOK:                  "OK",
	StatusNotFound:            "Not Found",
	StatusNotImplemented:      "Not Implemented",
	StatusInternalServerError: "Internal Server Error",
}

// Reason returns the reason phrase for code, or "Unknown".
func Reason(code StatusCode) string {
	if r, ok := reasonPhrases[code]; ok {
		return r
	}
	return "Unknown"
}

const httpVersion = "HTTP/1.1"

var ErrHeadersCommitted = errors.New("response head already written")

// DefaultHeaders returns the headers every response carries: framing,
// content type, and the close notice (this server does not keep-alive).
func DefaultHeaders(contentType string, contentLen int64) headers.Headers {
	h := headers.New()
	h.Set("content-length", strconv.FormatInt(contentLen, 10))
	h.Set("content-type", contentType)
	h.Set("connection", "close")
	return h
}

// Writer emits one response onto conn. The write phases are strictly
// ordered: status line, headers, body.
type Writer struct {
	conn  io.Writer
	phase writePhase
}

type writePhase int

const (
	phaseStatusLine writePhase = iota + 1
	phaseHeaders
	phaseBody
)

func NewWriter(conn io.Writer) *Writer {
	return &Writer{conn: conn, phase: phaseStatusLine}
}

// HeadCommitted reports whether the status line has already been sent, after
// which the response status can no longer change.
func (w *Writer) HeadCommitted() bool {
	return w.phase > phaseStatusLine
}

func (w *Writer) WriteStatusLine(code StatusCode) error {
	if w.phase != phaseStatusLine {
		return ErrHeadersCommitted
	}
	if _, err := fmt.Fprintf(w.conn, "%s %d %s\r\n", httpVersion, int(code), Reason(code)); err != nil {
		return err
	}
	w.phase = phaseHeaders
	return nil
}

// WriteHeaders emits the header block in sorted canonical form followed by
// the terminating blank line.
func (w *Writer) WriteHeaders(h headers.Headers) error {
	if w.phase != phaseHeaders {
		return fmt.Errorf("writing headers in wrong phase: %d", w.phase)
	}

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := textproto.CanonicalMIMEHeaderKey(k)
		if _, err := fmt.Fprintf(w.conn, "%s: %s\r\n", name, h.Get(k)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w.conn, "\r\n"); err != nil {
		return err
	}
	w.phase = phaseBody
	return nil
}

// WriteBody writes an in-memory body (error pages, small generated content).
func (w *Writer) WriteBody(p []byte) (int, error) {
	if w.phase != phaseBody {
		return 0, fmt.Errorf("writing body in wrong phase: %d", w.phase)
	}
	return w.conn.Write(p)
}

// StreamBody copies the body from src without buffering it whole, bounding
// per-connection memory for large files. A mid-stream error is returned to
// the caller, which can only abort the connection: the head is already on
// the wire.
func (w *Writer) StreamBody(src io.Reader) (int64, error) {
	if w.phase != phaseBody {
		return 0, fmt.Errorf("writing body in wrong phase: %d", w.phase)
	}
	return io.Copy(w.conn, src)
}
