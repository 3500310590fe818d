package headers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersParse(t *testing.T) {
	// Single field, terminated block
	h := New()
	data := []byte("Host: localhost:8080\r\n\r\n")
	n, done, err := h.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.True(t, done)
	assert.Equal(t, "localhost:8080", h.Get("host"))
	assert.Equal(t, "localhost:8080", h.Get("HOST"))

	// Whitespace around value is trimmed
	h = New()
	n, done, err = h.Parse([]byte("Accept:   text/html \t\r\n\r\n"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "text/html", h.Get("Accept"))
	_ = n

	// Repeated fields are comma-joined in order
	h = New()
	_, done, err = h.Parse([]byte("Vary: accept\r\nVary: encoding\r\n\r\n"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "accept,encoding", h.Get("vary"))

	// Space before the colon is malformed
	_, _, err = New().Parse([]byte("Host : localhost\r\n\r\n"))
	require.ErrorIs(t, err, ErrMalformedFieldLine)

	// Leading whitespace (obsolete folding) is malformed
	_, _, err = New().Parse([]byte(" Host: localhost\r\n\r\n"))
	require.ErrorIs(t, err, ErrMalformedFieldLine)

	// Missing colon
	_, _, err = New().Parse([]byte("no-colon-here\r\n\r\n"))
	require.ErrorIs(t, err, ErrMalformedFieldLine)

	// Value may contain further colons
	h = New()
	_, _, err = h.Parse([]byte("Referer: http://example.com/a\r\n\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/a", h.Get("referer"))
}

func TestHeadersParsePartial(t *testing.T) {
	// A partial trailing line is left for the next call
	h := New()
	n, done, err := h.Parse([]byte("Host: localhost\r\nAccept: text"))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, len("Host: localhost\r\n"), n)
	assert.Equal(t, "localhost", h.Get("host"))
	assert.Equal(t, "", h.Get("accept"))
}

func TestHeadersParseLineCap(t *testing.T) {
	long := bytes.Repeat([]byte("a"), maxFieldLine+1)
	_, _, err := New().Parse(long)
	require.ErrorIs(t, err, ErrFieldLineTooLong)

	line := append([]byte("x: "), bytes.Repeat([]byte("v"), maxFieldLine)...)
	line = append(line, crlf...)
	_, _, err = New().Parse(line)
	require.ErrorIs(t, err, ErrFieldLineTooLong)
}
