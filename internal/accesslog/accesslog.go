// Package accesslog is the logging sink for request outcomes. One event is
// emitted per processed request, as a single tab-separated line, so entries
// from concurrent connections never interleave mid-line.
package accesslog

import (
	"fmt"
	"io"
	"log"
	"time"
)

// Event carries everything the access log records about one request.
type Event struct {
	Time       time.Time
	ConnID     string // uuid assigned when the connection was accepted
	RemoteAddr string
	Method     string
	Target     string
	Status     int
	Outcome    string // resolver/handler classification, not wire-visible
	Duration   time.Duration
}

// Logger writes events to a destination chosen by the caller (stdout, a
// file). The underlying log.Logger serializes writes, which is the whole
// concurrency story here.
type Logger struct {
	out *log.Logger
}

func New(w io.Writer) *Logger {
	return &Logger{out: log.New(w, "", 0)}
}

// Log emits one line for e. Empty method/target (a request that never
// parsed) are recorded as "-" in Common-Log tradition.
func (l *Logger) Log(e Event) {
	l.out.Printf("%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s",
		e.Time.Format(time.RFC3339),
		e.ConnID,
		e.RemoteAddr,
		orDash(e.Method),
		orDash(e.Target),
		e.Status,
		orDash(e.Outcome),
		fmtDur(e.Duration),
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func fmtDur(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
