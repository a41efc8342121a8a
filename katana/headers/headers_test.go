package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCIEqual(t *testing.T) {
	assert.True(t, CIEqual("Content-Type", "content-type"))
	assert.True(t, CIEqual("HOST", "host"))
	assert.False(t, CIEqual("Host", "Hos"))
	assert.False(t, CIEqual("Accept", "Accept-Language"))
}

func TestSetGetPopularAndExtra(t *testing.T) {
	var m Map
	m.Set("Content-Type", "application/json")
	m.Set("X-Request-Id", "abc123")

	v, ok := m.Get("content-type")
	assert.True(t, ok)
	assert.Equal(t, "application/json", v)

	v, ok = m.Get("x-REQUEST-id")
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)

	_, ok = m.Get("Missing")
	assert.False(t, ok)
}

func TestOriginalCasingPreserved(t *testing.T) {
	var m Map
	m.Set("X-Custom-Header", "v")
	var gotName string
	m.Each(func(name, value string) {
		if value == "v" {
			gotName = name
		}
	})
	assert.Equal(t, "X-Custom-Header", gotName)
}

func TestClearResetsWithoutReleasing(t *testing.T) {
	var m Map
	m.Set("Host", "example.com")
	m.Set("X-Foo", "bar")
	assert.Equal(t, 2, m.Len())
	m.Clear()
	assert.Equal(t, 0, m.Len())
	_, ok := m.Get("Host")
	assert.False(t, ok)
}

func TestAddAppendsExisting(t *testing.T) {
	var m Map
	m.Set("Accept", "text/html")
	m.Add("Accept", "application/json")
	v, _ := m.Get("Accept")
	assert.Equal(t, "text/html, application/json", v)
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "X-Request-Id", CanonicalName("x-request-id"))
	assert.Equal(t, "Content-Type", CanonicalName("content-type"))
}

func TestRemove(t *testing.T) {
	var m Map
	m.Set("X-Foo", "1")
	m.Remove("x-foo")
	assert.False(t, m.Contains("X-Foo"))
}
