package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handlerOK(ctx *Context) error {
	return nil
}

func TestLiteralMatch(t *testing.T) {
	var rt Router
	var called bool
	rt.Add("GET", "/health", func(ctx *Context) error {
		called = true
		return nil
	})

	_, isErr, err := rt.Dispatch(&Context{Method: "GET", Path: "/health"})
	require.NoError(t, err)
	assert.False(t, isErr)
	assert.True(t, called)
}

func TestCaptureMatch(t *testing.T) {
	var rt Router
	var gotID string
	rt.Add("GET", "/users/{id}", func(ctx *Context) error {
		gotID = ctx.Params["id"]
		return nil
	})

	_, isErr, err := rt.Dispatch(&Context{Method: "GET", Path: "/users/42"})
	require.NoError(t, err)
	assert.False(t, isErr)
	assert.Equal(t, "42", gotID)
}

func TestLiteralOutranksCaptureAtSamePosition(t *testing.T) {
	var rt Router
	var hitLiteral, hitCapture bool
	rt.Add("GET", "/users/{id}", func(ctx *Context) error { hitCapture = true; return nil })
	rt.Add("GET", "/users/me", func(ctx *Context) error { hitLiteral = true; return nil })

	_, isErr, err := rt.Dispatch(&Context{Method: "GET", Path: "/users/me"})
	require.NoError(t, err)
	assert.False(t, isErr)
	assert.True(t, hitLiteral)
	assert.False(t, hitCapture)
}

func TestNotFound(t *testing.T) {
	var rt Router
	rt.Add("GET", "/health", handlerOK)

	d, isErr, err := rt.Dispatch(&Context{Method: "GET", Path: "/missing"})
	require.NoError(t, err)
	require.True(t, isErr)
	assert.Equal(t, 404, d.Status)
}

func TestMethodNotAllowed(t *testing.T) {
	var rt Router
	rt.Add("GET", "/health", handlerOK)

	d, isErr, err := rt.Dispatch(&Context{Method: "POST", Path: "/health"})
	require.NoError(t, err)
	require.True(t, isErr)
	assert.Equal(t, 405, d.Status)
}

func TestTrailingSlashIsSignificant(t *testing.T) {
	var rt Router
	rt.Add("GET", "/health", handlerOK)

	_, isErr, err := rt.Dispatch(&Context{Method: "GET", Path: "/health/"})
	require.NoError(t, err)
	assert.True(t, isErr)
}

func TestNoPercentDecoding(t *testing.T) {
	var rt Router
	var gotName string
	rt.Add("GET", "/files/{name}", func(ctx *Context) error {
		gotName = ctx.Params["name"]
		return nil
	})

	_, isErr, err := rt.Dispatch(&Context{Method: "GET", Path: "/files/a%20b"})
	require.NoError(t, err)
	assert.False(t, isErr)
	assert.Equal(t, "a%20b", gotName)
}

func TestConsumesRejectsWrongContentType(t *testing.T) {
	var rt Router
	rt.Add("POST", "/users", handlerOK, Consumes("application/json"))

	d, isErr, err := rt.Dispatch(&Context{
		Method:             "POST",
		Path:               "/users",
		RequestContentType: "text/plain",
	})
	require.NoError(t, err)
	require.True(t, isErr)
	assert.Equal(t, 415, d.Status)
}

func TestConsumesAcceptsMatchingContentTypeWithParams(t *testing.T) {
	var rt Router
	rt.Add("POST", "/users", handlerOK, Consumes("application/json"))

	_, isErr, err := rt.Dispatch(&Context{
		Method:             "POST",
		Path:               "/users",
		RequestContentType: "application/json; charset=utf-8",
	})
	require.NoError(t, err)
	assert.False(t, isErr)
}

func TestProducesNegotiatesOrRejects(t *testing.T) {
	var rt Router
	rt.Add("GET", "/users", handlerOK, Produces("application/json", "application/xml"))

	ctx := &Context{Method: "GET", Path: "/users", Accept: "application/xml"}
	_, isErr, err := rt.Dispatch(ctx)
	require.NoError(t, err)
	require.False(t, isErr)
	assert.Equal(t, "application/xml", ctx.ResponseType)

	d, isErr, err := rt.Dispatch(&Context{Method: "GET", Path: "/users", Accept: "text/csv"})
	require.NoError(t, err)
	require.True(t, isErr)
	assert.Equal(t, 406, d.Status)
}

func TestSegmentCountMismatchDoesNotMatch(t *testing.T) {
	var rt Router
	rt.Add("GET", "/a/{b}", handlerOK)

	_, isErr, err := rt.Dispatch(&Context{Method: "GET", Path: "/a"})
	require.NoError(t, err)
	assert.True(t, isErr)
}

func TestRootPattern(t *testing.T) {
	var rt Router
	var called bool
	rt.Add("GET", "/", func(ctx *Context) error { called = true; return nil })

	_, isErr, err := rt.Dispatch(&Context{Method: "GET", Path: "/"})
	require.NoError(t, err)
	assert.False(t, isErr)
	assert.True(t, called)
}
