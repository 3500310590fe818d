package response

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staticserver/internal/headers"
)

func TestWriteFullResponse(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteStatusLine(StatusOK))
	require.NoError(t, w.WriteHeaders(DefaultHeaders("text/html", 12)))
	n, err := w.WriteBody([]byte("<h1>home</h1>"))
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, out, "Content-Type: text/html\r\n")
	assert.Contains(t, out, "Content-Length: 12\r\n")
	assert.Contains(t, out, "Connection: close\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\n<h1>home</h1>"))
}

func TestWriteStatusLines(t *testing.T) {
	for code, want := range map[StatusCode]string{
		StatusOK:             "HTTP/1.1 200 OK\r\n",
		StatusNotFound:       "HTTP/1.1 404 Not Found\r\n",
		StatusNotImplemented: "HTTP/1.1 501 Not Implemented\r\n",
	} {
		var buf bytes.Buffer
		require.NoError(t, NewWriter(&buf).WriteStatusLine(code))
		assert.Equal(t, want, buf.String())
	}
}

func TestHeadersSortedAndCanonical(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteStatusLine(StatusOK))

	h := headers.New()
	h.Set("content-type", "text/css")
	h.Set("content-length", "6")
	h.Set("connection", "close")
	require.NoError(t, w.WriteHeaders(h))

	want := "HTTP/1.1 200 OK\r\n" +
		"Connection: close\r\n" +
		"Content-Length: 6\r\n" +
		"Content-Type: text/css\r\n" +
		"\r\n"
	assert.Equal(t, want, buf.String())
}

func TestStreamBody(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteStatusLine(StatusOK))
	require.NoError(t, w.WriteHeaders(DefaultHeaders("application/octet-stream", 1<<16)))

	src := bytes.Repeat([]byte("x"), 1<<16)
	n, err := w.StreamBody(bytes.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, int64(1<<16), n)
	assert.True(t, bytes.HasSuffix(buf.Bytes(), src))
}

func TestPhaseOrderEnforced(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	_, err := w.WriteBody([]byte("early"))
	require.Error(t, err)

	require.NoError(t, w.WriteStatusLine(StatusOK))
	require.ErrorIs(t, w.WriteStatusLine(StatusNotFound), ErrHeadersCommitted)
	assert.True(t, w.HeadCommitted())
}

func TestStreamBodyPropagatesReadError(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteStatusLine(StatusOK))
	require.NoError(t, w.WriteHeaders(DefaultHeaders("text/plain", 100)))

	boom := errors.New("disk gone")
	_, err := w.StreamBody(io.MultiReader(strings.NewReader("partial"), errReader{boom}))
	require.ErrorIs(t, err, boom)
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
