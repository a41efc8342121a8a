// Package httpparser implements an incremental HTTP/1.1 request parser.
// The caller's byte slice may be reused before Reset, so the parsed
// request does not alias it: the URI, version, header names and values,
// and body are copied into the supplied arena.Arena (or onto the Go heap
// when no arena is given). The parser's own input buffer and body
// accumulation buffer are ordinary Go-heap slices.
package httpparser

import (
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/katana-http/katana/katana/arena"
	"github.com/katana-http/katana/katana/headers"
)

// Size limits for request-line, header, header-count and body caps.
const (
	MaxURILength   = 2 * 1024
	MaxHeaderLine  = 8 * 1024
	MaxHeaderCount = 100
	MaxBodySize    = 10 * 1024 * 1024

	compactThreshold = 4096
)

// Method is one of the fixed HTTP method enumeration values.
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGet
	MethodPost
	MethodPut
	MethodDelete
	MethodPatch
	MethodHead
	MethodOptions
)

func parseMethod(s string) Method {
	switch s {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	case "PUT":
		return MethodPut
	case "DELETE":
		return MethodDelete
	case "PATCH":
		return MethodPatch
	case "HEAD":
		return MethodHead
	case "OPTIONS":
		return MethodOptions
	default:
		return MethodUnknown
	}
}

// String renders a Method back to its wire token ("UNKNOWN" for MethodUnknown).
func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodDelete:
		return "DELETE"
	case MethodPatch:
		return "PATCH"
	case MethodHead:
		return "HEAD"
	case MethodOptions:
		return "OPTIONS"
	default:
		return "UNKNOWN"
	}
}

// State is the parser's position in the incremental state machine.
type State uint8

const (
	StateRequestLine State = iota
	StateHeaders
	StateBody
	StateChunkSize
	StateChunkData
	StateChunkTrailer
	StateComplete
)

// Request is the parsed HTTP/1.1 request. Method is a fixed enumeration;
// URI, Version and Body are valid until the parser is Reset; Headers is
// arena-backed.
type Request struct {
	Method  Method
	URI     string
	Version string
	Headers headers.Map
	Body    []byte
}

// ParseError is a terminal parse failure; any malformed octet sequence
// yields one.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "httpparser: " + e.Reason }

func fail(reason string) error { return &ParseError{Reason: reason} }

// Parser is the incremental HTTP/1.1 state machine. Not safe for
// concurrent use; one per connection.
type Parser struct {
	arena *arena.Arena

	state   State
	buf     []byte
	readPos int // next unconsumed byte

	request Request

	headerCount     int
	contentLength   int64
	haveContentLen  bool
	chunked         bool
	chunkRemaining  int64
	bodyWritten     int64
	bodyBuf         []byte
	trailerExpected bool
	lastHeaderName  string
}

// New creates a Parser that copies arena-scoped data (header values, body
// bytes) through a. If a is nil, allocations happen on the Go heap
// instead, useful for tests that don't care about arena discipline.
func New(a *arena.Arena) *Parser {
	return &Parser{arena: a, state: StateRequestLine}
}

// Reset returns the parser to StateRequestLine, discarding all buffered
// and parsed state so the connection can be reused for the next request.
func (p *Parser) Reset() {
	p.state = StateRequestLine
	p.buf = p.buf[:0]
	p.readPos = 0
	p.request = Request{}
	p.headerCount = 0
	p.contentLength = 0
	p.haveContentLen = false
	p.chunked = false
	p.chunkRemaining = 0
	p.bodyWritten = 0
	p.bodyBuf = nil
	p.trailerExpected = false
}

// IsComplete reports whether a full request has been parsed.
func (p *Parser) IsComplete() bool { return p.state == StateComplete }

// Unconsumed returns bytes already buffered but not yet used by the
// completed request: the start of a pipelined next request, if any.
// Callers that support pipelining must capture this before Reset (which
// discards the internal buffer) and Feed it back afterward.
func (p *Parser) Unconsumed() []byte {
	return p.buf[p.readPos:]
}

// Request returns the parsed request. Only meaningful once IsComplete
// returns true.
func (p *Parser) Request() *Request { return &p.request }

func (p *Parser) allocString(s string) (string, error) {
	if p.arena == nil {
		return s, nil
	}
	return p.arena.String(s)
}

func (p *Parser) allocBytes(b []byte) ([]byte, error) {
	if p.arena == nil {
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	}
	return p.arena.Bytes(b)
}

// Feed consumes data incrementally. Calling Feed repeatedly with
// fragments of the same byte stream must produce the same terminal state
// and request as calling it once with the concatenation.
func (p *Parser) Feed(data []byte) (State, error) {
	if p.state == StateComplete {
		return p.state, nil
	}
	p.buf = append(p.buf, data...)

	for {
		progressed, err := p.step()
		if err != nil {
			return p.state, err
		}
		if !progressed {
			break
		}
		if p.state == StateComplete {
			break
		}
	}
	p.compact()
	return p.state, nil
}

// step attempts one state transition from currently buffered bytes.
// Returns progressed=false when more input is needed.
func (p *Parser) step() (bool, error) {
	switch p.state {
	case StateRequestLine:
		return p.stepRequestLine()
	case StateHeaders:
		return p.stepHeaders()
	case StateBody:
		return p.stepBody()
	case StateChunkSize:
		return p.stepChunkSize()
	case StateChunkData:
		return p.stepChunkData()
	case StateChunkTrailer:
		return p.stepChunkTrailer()
	default:
		return false, nil
	}
}

// findCRLF returns the index of the first CRLF at or after p.readPos, or -1.
func (p *Parser) findCRLF() int {
	rest := p.buf[p.readPos:]
	idx := indexCRLF(rest)
	if idx < 0 {
		return -1
	}
	return p.readPos + idx
}

func indexCRLF(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == '\r' && b[i+1] == '\n' {
			return i
		}
	}
	return -1
}

// indexBareLF returns the index of the first '\n' not immediately
// preceded by '\r', or -1. Used to fail fast on LF-only terminators
// instead of waiting for a size-cap to eventually trip.
func indexBareLF(b []byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] == '\n' && (i == 0 || b[i-1] != '\r') {
			return i
		}
	}
	return -1
}

func (p *Parser) stepRequestLine() (bool, error) {
	if bareIdx := indexBareLF(p.buf[p.readPos:]); bareIdx >= 0 {
		return false, fail("LF-only line terminator in request line")
	}
	idx := p.findCRLF()
	if idx < 0 {
		if len(p.buf)-p.readPos > MaxURILength+64 {
			return false, fail("request line too long")
		}
		return false, nil
	}
	line := p.buf[p.readPos:idx]
	p.readPos = idx + 2

	if err := p.parseRequestLine(line); err != nil {
		return false, err
	}
	p.state = StateHeaders
	return true, nil
}

func (p *Parser) parseRequestLine(line []byte) error {
	for _, c := range line {
		if c == 0 {
			return fail("NUL byte in request line")
		}
	}
	s := string(line)
	if s == "" || s[0] == ' ' || s[0] == '\t' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t' {
		return fail("leading or trailing whitespace in request line")
	}
	parts := strings.Split(s, " ")
	if len(parts) != 3 {
		return fail("malformed request line")
	}
	methodStr, uri, version := parts[0], parts[1], parts[2]
	if methodStr == "" || uri == "" || version == "" {
		return fail("malformed request line")
	}
	if strings.ContainsAny(methodStr, "\t") || strings.ContainsAny(uri, "\t") {
		return fail("tab separator in request line")
	}
	if len(uri) > MaxURILength {
		return fail("uri too long")
	}
	if !strings.HasPrefix(version, "HTTP/1.") {
		return fail("unsupported http version")
	}

	method := parseMethod(methodStr)
	uriCopy, err := p.allocString(uri)
	if err != nil {
		return err
	}
	versionCopy, err := p.allocString(version)
	if err != nil {
		return err
	}
	p.request.Method = method
	p.request.URI = uriCopy
	p.request.Version = versionCopy
	return nil
}

func (p *Parser) stepHeaders() (bool, error) {
	if bareIdx := indexBareLF(p.buf[p.readPos:]); bareIdx >= 0 {
		return false, fail("LF-only line terminator in header")
	}
	idx := p.findCRLF()
	if idx < 0 {
		if len(p.buf)-p.readPos > MaxHeaderLine {
			return false, fail("header line too long")
		}
		return false, nil
	}
	line := p.buf[p.readPos:idx]
	lineStart := p.readPos
	p.readPos = idx + 2

	if len(line) == 0 {
		return true, p.finishHeaders()
	}
	if len(line) > MaxHeaderLine {
		return false, fail("header line too long")
	}

	if line[0] == ' ' || line[0] == '\t' {
		// obs-fold continuation
		if p.headerCount == 0 {
			return false, fail("obs-fold continuation without a prior header")
		}
		return true, p.appendFold(line)
	}

	_ = lineStart
	p.headerCount++
	if p.headerCount > MaxHeaderCount {
		return false, fail("too many headers")
	}
	return true, p.parseHeaderLine(line)
}

func (p *Parser) parseHeaderLine(line []byte) error {
	colon := indexByte(line, ':')
	if colon < 0 {
		return fail("malformed header line")
	}
	name := strings.TrimSpace(string(line[:colon]))
	value := trimOWS(string(line[colon+1:]))
	if name == "" {
		return fail("empty header name")
	}
	if !httpguts.ValidHeaderFieldName(name) {
		return fail("invalid header field name")
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return fail("invalid header field value")
	}

	nameCopy, err := p.allocString(name)
	if err != nil {
		return err
	}
	valueCopy, err := p.allocString(value)
	if err != nil {
		return err
	}
	p.request.Headers.Set(nameCopy, valueCopy)
	p.lastHeaderName = nameCopy
	return nil
}

func (p *Parser) appendFold(line []byte) error {
	// Find the most recently set header and append, separated by a
	// single space. Since Map iteration order is unspecified we track
	// the last-set name ourselves via lastHeaderName.
	value := trimOWS(string(line))
	if p.lastHeaderName == "" {
		return fail("obs-fold continuation without a prior header")
	}
	existing, _ := p.request.Headers.Get(p.lastHeaderName)
	combined, err := p.allocString(existing + " " + value)
	if err != nil {
		return err
	}
	p.request.Headers.Set(p.lastHeaderName, combined)
	return nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func trimOWS(s string) string {
	return strings.Trim(s, " \t")
}

func (p *Parser) finishHeaders() error {
	if cl, ok := p.request.Headers.Get("Content-Length"); ok {
		n, err := parseContentLength(cl)
		if err != nil {
			return err
		}
		p.contentLength = n
		p.haveContentLen = true
	}
	if te, ok := p.request.Headers.Get("Transfer-Encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
		p.chunked = true
	}

	switch {
	case p.chunked:
		p.state = StateChunkSize
	case p.haveContentLen && p.contentLength > 0:
		if p.contentLength > MaxBodySize {
			return fail("body too large")
		}
		p.state = StateBody
	default:
		p.state = StateComplete
		return p.finalizeBody(nil)
	}
	return nil
}

// parseContentLength rejects negative values; a leading '+' is accepted
// since strconv.ParseInt already allows it and only negatives need
// rejecting.
func parseContentLength(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fail("invalid content-length")
	}
	if n < 0 {
		return 0, fail("negative content-length")
	}
	return n, nil
}

func (p *Parser) stepBody() (bool, error) {
	have := int64(len(p.buf) - p.readPos)
	need := p.contentLength - p.bodyWritten
	if have == 0 {
		return false, nil
	}
	take := have
	if take > need {
		take = need
	}
	p.bodyBuf = append(p.bodyBuf, p.buf[p.readPos:p.readPos+int(take)]...)
	p.readPos += int(take)
	p.bodyWritten += take

	if p.bodyWritten >= p.contentLength {
		p.state = StateComplete
		return true, p.finalizeBody(p.bodyBuf)
	}
	return take > 0, nil
}

func (p *Parser) finalizeBody(body []byte) error {
	b, err := p.allocBytes(body)
	if err != nil {
		return err
	}
	p.request.Body = b
	return nil
}

func (p *Parser) stepChunkSize() (bool, error) {
	idx := p.findCRLF()
	if idx < 0 {
		if len(p.buf)-p.readPos > MaxHeaderLine {
			return false, fail("chunk size line too long")
		}
		return false, nil
	}
	line := p.buf[p.readPos:idx]
	p.readPos = idx + 2

	sizeStr := string(line)
	if semi := strings.IndexByte(sizeStr, ';'); semi >= 0 {
		sizeStr = sizeStr[:semi]
	}
	sizeStr = strings.TrimSpace(sizeStr)
	n, err := strconv.ParseInt(sizeStr, 16, 64)
	if err != nil || n < 0 {
		return false, fail("invalid chunk size")
	}
	if int64(len(p.bodyBuf))+n > MaxBodySize {
		return false, fail("body too large")
	}
	p.chunkRemaining = n
	if n == 0 {
		p.state = StateChunkTrailer
		return true, nil
	}
	p.state = StateChunkData
	return true, nil
}

func (p *Parser) stepChunkData() (bool, error) {
	have := int64(len(p.buf) - p.readPos)
	if have == 0 {
		return false, nil
	}
	take := have
	if take > p.chunkRemaining {
		take = p.chunkRemaining
	}
	p.bodyBuf = append(p.bodyBuf, p.buf[p.readPos:p.readPos+int(take)]...)
	p.readPos += int(take)
	p.chunkRemaining -= take

	if p.chunkRemaining > 0 {
		return take > 0, nil
	}
	// consume the trailing CRLF after chunk data
	if len(p.buf)-p.readPos < 2 {
		return take > 0, nil
	}
	if p.buf[p.readPos] != '\r' || p.buf[p.readPos+1] != '\n' {
		return false, fail("malformed chunk terminator")
	}
	p.readPos += 2
	p.state = StateChunkSize
	return true, nil
}

func (p *Parser) stepChunkTrailer() (bool, error) {
	idx := p.findCRLF()
	if idx < 0 {
		return false, nil
	}
	line := p.buf[p.readPos:idx]
	p.readPos = idx + 2
	if len(line) == 0 {
		p.state = StateComplete
		return true, p.finalizeBody(p.bodyBuf)
	}
	// Trailer header: parsed but not surfaced on Request per spec scope.
	if indexByte(line, ':') < 0 {
		return false, fail("malformed trailer line")
	}
	return true, nil
}

// compact moves the unconsumed tail to the front of the buffer once the
// consumed prefix exceeds compactThreshold.
func (p *Parser) compact() {
	if p.readPos < compactThreshold {
		return
	}
	remaining := len(p.buf) - p.readPos
	copy(p.buf[:remaining], p.buf[p.readPos:])
	p.buf = p.buf[:remaining]
	p.readPos = 0
}
