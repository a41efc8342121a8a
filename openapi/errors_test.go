package openapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{ErrParse, "parse_error"},
		{ErrInvalidSpec, "invalid_spec"},
		{ErrLimitsExceeded, "limits_exceeded"},
		{Kind(99), "unknown_error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.kind.String())
	}
}

func TestLoadErrorMessageAndUnwrap(t *testing.T) {
	inner := errors.New("boom")

	withLoc := newError(ErrInvalidSpec, "paths./x.get", "%w", inner)
	assert.Contains(t, withLoc.Error(), "invalid_spec")
	assert.Contains(t, withLoc.Error(), "paths./x.get")
	assert.Contains(t, withLoc.Error(), "boom")
	assert.True(t, errors.Is(withLoc, inner))

	noLoc := newError(ErrParse, "", "%w", inner)
	assert.Equal(t, "openapi: parse_error: boom", noLoc.Error())
}
