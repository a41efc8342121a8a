package httpparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAll(t *testing.T, chunks ...string) *Parser {
	t.Helper()
	p := New(nil)
	for _, c := range chunks {
		_, err := p.Feed([]byte(c))
		require.NoError(t, err)
	}
	return p
}

func TestSimpleGetRequest(t *testing.T) {
	p := parseAll(t, "GET /health HTTP/1.1\r\nHost: example.com\r\n\r\n")
	require.True(t, p.IsComplete())
	req := p.Request()
	assert.Equal(t, MethodGet, req.Method)
	assert.Equal(t, "/health", req.URI)
	assert.Equal(t, "HTTP/1.1", req.Version)
	host, ok := req.Headers.Get("Host")
	assert.True(t, ok)
	assert.Equal(t, "example.com", host)
}

func TestIncrementalEqualsBatched(t *testing.T) {
	full := "POST /users HTTP/1.1\r\nHost: h\r\nContent-Length: 5\r\n\r\nhello"
	batched := parseAll(t, full)

	p := New(nil)
	for i := 0; i < len(full); i++ {
		_, err := p.Feed([]byte{full[i]})
		require.NoError(t, err)
	}
	require.True(t, p.IsComplete())
	assert.Equal(t, batched.Request().Method, p.Request().Method)
	assert.Equal(t, batched.Request().URI, p.Request().URI)
	assert.Equal(t, string(batched.Request().Body), string(p.Request().Body))
}

func TestContentLengthBody(t *testing.T) {
	p := parseAll(t, "POST /x HTTP/1.1\r\nContent-Length: 11\r\n\r\nhello world")
	require.True(t, p.IsComplete())
	assert.Equal(t, "hello world", string(p.Request().Body))
}

func TestChunkedBody(t *testing.T) {
	body := "4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
	p := parseAll(t, "POST /x HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n"+body)
	require.True(t, p.IsComplete())
	assert.Equal(t, "Wikipedia", string(p.Request().Body))
}

func TestChunkedWithTrailer(t *testing.T) {
	body := "3\r\nabc\r\n0\r\nX-Trailer: v\r\n\r\n"
	p := parseAll(t, "POST /x HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n"+body)
	require.True(t, p.IsComplete())
	assert.Equal(t, "abc", string(p.Request().Body))
}

func TestObsFoldContinuation(t *testing.T) {
	p := parseAll(t, "GET / HTTP/1.1\r\nX-Long: first\r\n second\r\n\r\n")
	require.True(t, p.IsComplete())
	v, ok := p.Request().Headers.Get("X-Long")
	require.True(t, ok)
	assert.Equal(t, "first second", v)
}

func TestObsFoldWithoutPriorHeaderFails(t *testing.T) {
	p := New(nil)
	_, err := p.Feed([]byte("GET / HTTP/1.1\r\n first\r\n\r\n"))
	assert.Error(t, err)
}

func TestUnknownMethod(t *testing.T) {
	p := parseAll(t, "FOO / HTTP/1.1\r\n\r\n")
	require.True(t, p.IsComplete())
	assert.Equal(t, MethodUnknown, p.Request().Method)
}

func TestNegativeContentLengthFails(t *testing.T) {
	p := New(nil)
	_, err := p.Feed([]byte("POST / HTTP/1.1\r\nContent-Length: -5\r\n\r\n"))
	require.Error(t, err)
}

func TestLeadingPlusContentLengthAccepted(t *testing.T) {
	// A leading '+' is accepted since Go's strconv.ParseInt allows it.
	p := parseAll(t, "POST / HTTP/1.1\r\nContent-Length: +5\r\n\r\nhello")
	require.True(t, p.IsComplete())
	assert.Equal(t, "hello", string(p.Request().Body))
}

func TestTabInURIFails(t *testing.T) {
	p := New(nil)
	_, err := p.Feed([]byte("GET /a\tb HTTP/1.1\r\n\r\n"))
	assert.Error(t, err)
}

func TestLeadingWhitespaceInRequestLineFails(t *testing.T) {
	p := New(nil)
	_, err := p.Feed([]byte(" GET / HTTP/1.1\r\n\r\n"))
	assert.Error(t, err)
}

func TestNulByteInRequestLineFails(t *testing.T) {
	p := New(nil)
	_, err := p.Feed([]byte("GET /a\x00b HTTP/1.1\r\n\r\n"))
	assert.Error(t, err)
}

func TestLFOnlyTerminatorFails(t *testing.T) {
	p := New(nil)
	_, err := p.Feed([]byte("GET / HTTP/1.1\n\n"))
	assert.Error(t, err)
}

func TestURITooLongFails(t *testing.T) {
	uriBytes := make([]byte, MaxURILength+10)
	for i := range uriBytes {
		uriBytes[i] = 'a'
	}
	longURI := "/" + string(uriBytes)
	p := New(nil)
	_, err := p.Feed([]byte("GET " + longURI + " HTTP/1.1\r\n\r\n"))
	assert.Error(t, err)
}

func TestTooManyHeadersFails(t *testing.T) {
	p := New(nil)
	req := "GET / HTTP/1.1\r\n"
	for i := 0; i < MaxHeaderCount+1; i++ {
		req += "X-H: v\r\n"
	}
	req += "\r\n"
	_, err := p.Feed([]byte(req))
	assert.Error(t, err)
}

func TestResetAllowsReuse(t *testing.T) {
	p := parseAll(t, "GET /a HTTP/1.1\r\n\r\n")
	require.True(t, p.IsComplete())
	p.Reset()
	assert.False(t, p.IsComplete())
	_, err := p.Feed([]byte("GET /b HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "/b", p.Request().URI)
}

func TestPipelinedRequestsOnSameBuffer(t *testing.T) {
	p := New(nil)
	_, err := p.Feed([]byte("GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	require.True(t, p.IsComplete())
	assert.Equal(t, "/a", p.Request().URI)

	rest := append([]byte(nil), p.Unconsumed()...)
	p.Reset()
	_, err = p.Feed(rest)
	require.NoError(t, err)
	require.True(t, p.IsComplete())
	assert.Equal(t, "/b", p.Request().URI)
}
