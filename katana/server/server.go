// Package server implements a per-connection state machine: read, feed
// the parser, dispatch through the router, serialize the response, and
// either keep the connection alive or close it. A Conn is driven by a
// katana/reactor.Reactor, whose goroutine supplies the single-threaded
// execution context this state machine assumes; Conn itself does no
// concurrency of its own.
//
// Grounded on nova/serve.go's recover-and-log shape and
// nova/middleware.go's RecoveryMiddleware for panic handling, adapted
// from wrapping an http.Handler to wrapping one parsed request's
// dispatch through katana/router.
package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/katana-http/katana/katana/arena"
	"github.com/katana-http/katana/katana/headers"
	"github.com/katana-http/katana/katana/httpparser"
	"github.com/katana-http/katana/katana/problem"
	"github.com/katana-http/katana/katana/router"
)

// Dispatcher is what a Conn hands completed requests to. It is
// satisfied by *router.Router, kept as an interface so tests can stub
// it and so codegen-emitted binding glue can wrap a Router without
// server depending on codegen.
type Dispatcher interface {
	Dispatch(ctx *router.Context) (problem.Details, bool, error)
}

// ResponseWriter accumulates a wire-format HTTP response. The server
// loop creates one per request and passes it to the dispatcher as
// router.Context.Writer, where codegen-emitted handler glue writes a
// successful response; it also uses one to emit each problem-details
// failure.
type ResponseWriter struct {
	buf bytes.Buffer
}

// WriteStatus begins a response with the given status line.
func (rw *ResponseWriter) WriteStatus(status int, reason string) {
	rw.buf.WriteString("HTTP/1.1 ")
	rw.buf.WriteString(strconv.Itoa(status))
	rw.buf.WriteString(" ")
	rw.buf.WriteString(reason)
	rw.buf.WriteString("\r\n")
}

// WriteHeader appends one header line.
func (rw *ResponseWriter) WriteHeader(name, value string) {
	rw.buf.WriteString(name)
	rw.buf.WriteString(": ")
	rw.buf.WriteString(value)
	rw.buf.WriteString("\r\n")
}

// EndHeaders writes the blank line separating headers from body.
func (rw *ResponseWriter) EndHeaders() { rw.buf.WriteString("\r\n") }

// WriteBody appends body bytes.
func (rw *ResponseWriter) WriteBody(b []byte) { rw.buf.Write(b) }

// Bytes returns the accumulated response.
func (rw *ResponseWriter) Bytes() []byte { return rw.buf.Bytes() }

// Config configures connection behavior not owned by the reactor pool.
type Config struct {
	MaxRequestsPerConn int // 0 means unlimited
	ReadBufferSize     int // initial read buffer capacity
}

// Conn drives one accepted connection through the read/parse/dispatch/
// write loop. It implements reactor.Conn.
type Conn struct {
	nc         net.Conn
	dispatcher Dispatcher
	cfg        Config

	arena    *arena.Arena
	parser   *httpparser.Parser
	reqCount int
	closed   bool
}

// NewConn wraps an accepted net.Conn for dispatch through d.
func NewConn(nc net.Conn, d Dispatcher, cfg Config) *Conn {
	a := arena.New(0)
	return &Conn{
		nc:         nc,
		dispatcher: d,
		cfg:        cfg,
		arena:      a,
		parser:     httpparser.New(a),
	}
}

// Close closes the underlying socket. Safe to call more than once.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.nc.Close()
}

// Run drives the connection until ctx is canceled, the peer closes, or
// the keep-alive policy ends the connection. Partial reads and short
// writes re-enter the same loop body on the next pass; since Conn.Run
// owns a single goroutine (supplied by the reactor), "next readiness
// event" is simply the next loop iteration rather than an epoll
// callback.
func (c *Conn) Run(ctx context.Context) {
	defer c.Close()

	readBuf := make([]byte, max(c.cfg.ReadBufferSize, 4096))
	for {
		if ctx.Err() != nil {
			return
		}
		if c.cfg.MaxRequestsPerConn > 0 && c.reqCount >= c.cfg.MaxRequestsPerConn {
			return
		}

		if deadline, ok := ctx.Deadline(); ok {
			_ = c.nc.SetReadDeadline(deadline)
		}

		n, err := c.nc.Read(readBuf)
		if n > 0 {
			if _, ferr := c.parser.Feed(readBuf[:n]); ferr != nil {
				c.writeParseError(ferr)
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return
			}
			slog.Default().Warn("server: read error", "error", err)
			return
		}

		if !c.parser.IsComplete() {
			continue
		}

		keepAlive, err := c.handleRequest()
		if err != nil {
			slog.Default().Error("server: handler panic-equivalent error", "error", err)
			return
		}
		c.reqCount++
		if !keepAlive {
			return
		}

		// Preserve any pipelined bytes already buffered past this
		// request before resetting parser/arena state.
		leftover := append([]byte(nil), c.parser.Unconsumed()...)
		c.parser.Reset()
		c.arena.Reset()
		if len(leftover) > 0 {
			if _, ferr := c.parser.Feed(leftover); ferr != nil {
				c.writeParseError(ferr)
				return
			}
		}
	}
}

// handleRequest dispatches the parsed request and writes the response.
// It recovers from handler panics per §7, turning them into a 500
// problem-details response rather than letting the connection crash the
// reactor goroutine, grounded on nova/middleware.go's
// RecoveryMiddleware.
func (c *Conn) handleRequest() (keepAlive bool, err error) {
	req := c.parser.Request()

	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("server: recovered handler panic", "panic", r)
			d := problem.InternalServerError("internal error")
			c.writeProblem(d)
			keepAlive = false
		}
	}()

	contentType, _ := req.Headers.Get("Content-Type")
	accept, _ := req.Headers.Get("Accept")
	var rw ResponseWriter
	rc := &router.Context{
		Method:             req.Method.String(),
		Path:               requestPath(req.URI),
		RawQuery:           requestQuery(req.URI),
		Headers:            &req.Headers,
		RequestContentType: contentType,
		Accept:             accept,
		Body:               req.Body,
		Arena:              c.arena,
		Writer:             &rw,
	}

	d, isProblem, derr := c.dispatcher.Dispatch(rc)
	if derr != nil {
		d = problem.InternalServerError(derr.Error())
		isProblem = true
	}
	if isProblem {
		c.writeProblem(d)
	} else if err := c.writeAll(rw.Bytes()); err != nil {
		slog.Default().Warn("server: write error", "error", err)
	}

	return c.keepAliveDecision(&req.Headers), nil
}

// requestPath strips a query string from a request-target, leaving the
// path the router matches against.
func requestPath(uri string) string {
	if idx := strings.IndexByte(uri, '?'); idx >= 0 {
		return uri[:idx]
	}
	return uri
}

// requestQuery returns a request-target's query string with the
// leading '?' stripped, or "" when there is none.
func requestQuery(uri string) string {
	if idx := strings.IndexByte(uri, '?'); idx >= 0 {
		return uri[idx+1:]
	}
	return ""
}

// keepAliveDecision applies the keep-alive policy: Connection: close is
// always honored; HTTP/1.0 requires an explicit keep-alive to stay open.
func (c *Conn) keepAliveDecision(h *headers.Map) bool {
	conn, _ := h.Get("Connection")
	conn = strings.ToLower(strings.TrimSpace(conn))
	if conn == "close" {
		return false
	}
	version := c.parser.Request().Version
	if version == "HTTP/1.0" {
		return conn == "keep-alive"
	}
	return true
}

func (c *Conn) writeParseError(err error) {
	c.writeProblem(problem.BadRequest(err.Error()))
}

func (c *Conn) writeProblem(d problem.Details) {
	body, err := d.MarshalJSON()
	if err != nil {
		slog.Default().Error("server: failed to marshal problem details", "error", err)
		return
	}
	var rw ResponseWriter
	rw.WriteStatus(d.Status, statusText(d.Status))
	rw.WriteHeader("Content-Type", problem.ContentType)
	rw.WriteHeader("Content-Length", strconv.Itoa(len(body)))
	rw.WriteHeader("Connection", "close")
	rw.EndHeaders()
	rw.WriteBody(body)

	if err := c.writeAll(rw.Bytes()); err != nil {
		slog.Default().Warn("server: write error", "error", err)
	}
}

// writeAll performs a vectored-friendly write: net.Buffers collapses to
// writev when the underlying conn supports it, and WriteTo already loops
// internally until the full buffer is written or an error occurs.
func (c *Conn) writeAll(b []byte) error {
	buffers := net.Buffers{b}
	_, err := buffers.WriteTo(c.nc)
	return err
}

func statusText(status int) string {
	switch status {
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 406:
		return "Not Acceptable"
	case 409:
		return "Conflict"
	case 415:
		return "Unsupported Media Type"
	case 422:
		return "Unprocessable Entity"
	case 500:
		return "Internal Server Error"
	case 503:
		return "Service Unavailable"
	default:
		return "Error"
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
