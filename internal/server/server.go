// Package server accepts connections and runs each through the request
// pipeline: parse, resolve, respond, log.
package server

import (
	"errors"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"staticserver/internal/accesslog"
	"staticserver/internal/config"
	"staticserver/internal/docroot"
	"staticserver/internal/errorpage"
	"staticserver/internal/mime"
	"staticserver/internal/request"
	"staticserver/internal/response"
)

// Outcomes recorded for failures the resolver never sees.
const (
	outcomeOK          = string(docroot.OutcomeOK)
	outcomeMalformed   = "malformed_request"
	outcomeUnsupported = "unsupported_method"
	outcomeStreamError = "stream_error"
)

type Server struct {
	cfg      *config.Config
	listener net.Listener
	resolver *docroot.Resolver
	pages    *errorpage.Pages
	logger   *accesslog.Logger
	closed   atomic.Bool

	// sem caps concurrent connections; a slot is taken before the worker
	// goroutine starts and released when it exits, so a saturated server
	// back-pressures the accept loop instead of growing without bound.
	sem chan struct{}
}

// Serve validates the document root, binds the listener, and starts
// accepting. A bind failure is returned to the caller; it is the only error
// that should be fatal to the process.
func Serve(cfg *config.Config, logger *accesslog.Logger) (*Server, error) {
	resolver, err := docroot.New(cfg.Site.Root, cfg.Site.DefaultDoc)
	if err != nil {
		return nil, err
	}

	l, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		listener: l,
		resolver: resolver,
		pages:    errorpage.Load(resolver.Root()),
		logger:   logger,
		sem:      make(chan struct{}, cfg.Server.MaxConns),
	}
	go s.listen()
	return s, nil
}

// Addr returns the bound listener address (useful when port 0 was asked).
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops the accept loop. Idempotent. Connections already being served
// run to completion.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) listen() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			// transient accept error; keep going
			continue
		}

		s.sem <- struct{}{}
		go func() {
			defer func() { <-s.sem }()
			s.handle(conn)
		}()
	}
}

// handle runs one connection through the pipeline. Errors stay confined to
// this connection: whatever happens here, the listener keeps accepting.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	start := time.Now()
	ev := accesslog.Event{
		Time:       start,
		ConnID:     uuid.NewString(),
		RemoteAddr: conn.RemoteAddr().String(),
	}

	_ = conn.SetReadDeadline(start.Add(s.cfg.Server.ReadTimeout.Std()))

	req, err := request.FromReader(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// connected and left without sending a request
			return
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			// stalled client reclaimed by the read deadline
			return
		}
		// Parse failures and unsupported versions all map to 501.
		s.writeErrorResponse(conn, response.StatusNotImplemented)
		ev.Status = int(response.StatusNotImplemented)
		ev.Outcome = outcomeMalformed
		ev.Duration = time.Since(start)
		s.logger.Log(ev)
		return
	}

	ev.Method = req.Line.Method
	ev.Target = req.Line.Target

	status, outcome := s.respond(conn, req)

	ev.Status = int(status)
	ev.Outcome = outcome
	ev.Duration = time.Since(start)
	s.logger.Log(ev)
}

// respond decides the status for a parsed request and writes the response.
// It reports what actually went on the wire (or 500 for an aborted stream).
func (s *Server) respond(conn net.Conn, req *request.Request) (response.StatusCode, string) {
	if req.Line.Method != "GET" {
		s.writeErrorResponse(conn, response.StatusNotImplemented)
		return response.StatusNotImplemented, outcomeUnsupported
	}

	resolved, err := s.resolver.Resolve(req.Line.Target)
	if err != nil {
		// Wire response is 404 for every resolve failure; only the log
		// tells a traversal probe from a missing page.
		s.writeErrorResponse(conn, response.StatusNotFound)
		return response.StatusNotFound, string(docroot.Classify(err))
	}

	f, err := os.Open(resolved.Path)
	if err != nil {
		s.writeErrorResponse(conn, response.StatusNotFound)
		return response.StatusNotFound, string(docroot.OutcomeNotFound)
	}
	defer f.Close()

	w := response.NewWriter(conn)
	if err := w.WriteStatusLine(response.StatusOK); err != nil {
		return response.StatusInternalServerError, outcomeStreamError
	}
	h := response.DefaultHeaders(mime.TypeByPath(resolved.Path), resolved.Size)
	if err := w.WriteHeaders(h); err != nil {
		return response.StatusInternalServerError, outcomeStreamError
	}
	if _, err := w.StreamBody(f); err != nil {
		// The 200 head is already committed; nothing to do but abort.
		return response.StatusInternalServerError, outcomeStreamError
	}

	return response.StatusOK, outcomeOK
}

func (s *Server) writeErrorResponse(conn io.Writer, code response.StatusCode) {
	body := s.pages.Body(code)
	w := response.NewWriter(conn)
	if err := w.WriteStatusLine(code); err != nil {
		return
	}
	if err := w.WriteHeaders(response.DefaultHeaders("text/html; charset=utf-8", int64(len(body)))); err != nil {
		return
	}
	_, _ = w.WriteBody(body)
}
