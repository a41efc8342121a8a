package contentneg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMediaType(t *testing.T) {
	assert.Equal(t, "application/json", ExtractMediaType("application/json; charset=utf-8"))
	assert.Equal(t, "text/plain", ExtractMediaType(" text/plain "))
}

func TestFindContentType(t *testing.T) {
	idx := FindContentType("application/json; charset=utf-8", []string{"text/plain", "application/json"})
	assert.Equal(t, 1, idx)
	assert.Equal(t, -1, FindContentType("text/csv", []string{"application/json"}))
}

func TestNegotiateAbsentOrStarAcceptsFirst(t *testing.T) {
	mt, ok := NegotiateResponseType("", []string{"application/json", "application/xml"})
	assert.True(t, ok)
	assert.Equal(t, "application/json", mt)

	mt, ok = NegotiateResponseType("*/*", []string{"application/json", "application/xml"})
	assert.True(t, ok)
	assert.Equal(t, "application/json", mt)
}

func TestNegotiateSingleValueExactMatch(t *testing.T) {
	mt, ok := NegotiateResponseType("application/xml", []string{"application/json", "application/xml"})
	assert.True(t, ok)
	assert.Equal(t, "application/xml", mt)
}

func TestNegotiateTypeWildcard(t *testing.T) {
	mt, ok := NegotiateResponseType("application/*", []string{"text/plain", "application/xml"})
	assert.True(t, ok)
	assert.Equal(t, "application/xml", mt)
}

func TestNegotiateMultiTokenFirstAcceptableWins(t *testing.T) {
	mt, ok := NegotiateResponseType("text/csv, application/json;q=0.9", []string{"application/json"})
	assert.True(t, ok)
	assert.Equal(t, "application/json", mt)
}

func TestNegotiateNoMatch(t *testing.T) {
	_, ok := NegotiateResponseType("text/csv", []string{"application/json"})
	assert.False(t, ok)
}

func TestNegotiateEmptyProducesAlwaysFails(t *testing.T) {
	_, ok := NegotiateResponseType("*/*", nil)
	assert.False(t, ok)
}
