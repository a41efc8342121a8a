// Package headers implements a case-insensitive header store: canonical-
// name lookup with a fast path for a small set
// of "popular" header names, a dictionary fallback for everything else,
// and casing preserved on emission. The popular-name fast path is the Go
// analogue of the C++ original's headers_map (lower-cased key, separate
// original-casing map), here done with an interned slot array instead
// of a second hash map, since the popular set is fixed and tiny.
package headers

import "strings"

// popular lists the header names looked up on nearly every request; each
// gets a dedicated slot instead of a hash-map entry.
var popular = []string{
	"Host",
	"Content-Type",
	"Content-Length",
	"Connection",
	"Accept",
	"Accept-Language",
	"Cookie",
	"Transfer-Encoding",
}

var popularIndex = func() map[string]int {
	m := make(map[string]int, len(popular))
	for i, name := range popular {
		m[lowerASCII(name)] = i
	}
	return m
}()

// CIEqual reports whether a and b are equal ignoring ASCII case. A
// SIMD-accelerated variant is a target-language optimization not
// attempted here; this is the portable reference implementation.
func CIEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerByte(a[i]) != lowerByte(b[i]) {
			return false
		}
	}
	return true
}

func lowerByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func lowerASCII(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b[i] = lowerByte(s[i])
	}
	return string(b)
}

type popularSlot struct {
	present bool
	name    string // original casing as last set
	value   string
}

// Map is a case-insensitive header store. The zero value is usable.
type Map struct {
	slots    [len(popular)]popularSlot
	extra    map[string]*extraEntry
	iterKeys []string // insertion order of extra keys, for deterministic-enough iteration
}

type extraEntry struct {
	name  string
	value string
}

// Set stores value under name, canonicalizing lookups but preserving the
// casing of name as given (last write wins, like the original's
// headers_map::set).
func (m *Map) Set(name, value string) {
	lower := lowerASCII(name)
	if idx, ok := popularIndex[lower]; ok {
		m.slots[idx] = popularSlot{present: true, name: name, value: value}
		return
	}
	if m.extra == nil {
		m.extra = make(map[string]*extraEntry)
	}
	if _, exists := m.extra[lower]; !exists {
		m.iterKeys = append(m.iterKeys, lower)
	}
	m.extra[lower] = &extraEntry{name: name, value: value}
}

// Add appends value to an existing header's value using ", " as a
// separator, or sets it if absent.
func (m *Map) Add(name, value string) {
	if existing, ok := m.Get(name); ok {
		m.Set(name, existing+", "+value)
		return
	}
	m.Set(name, value)
}

// Get returns the value stored for name (any casing) and whether it was present.
func (m *Map) Get(name string) (string, bool) {
	lower := lowerASCII(name)
	if idx, ok := popularIndex[lower]; ok {
		s := m.slots[idx]
		return s.value, s.present
	}
	if m.extra == nil {
		return "", false
	}
	e, ok := m.extra[lower]
	if !ok {
		return "", false
	}
	return e.value, true
}

// Contains reports whether name is present, any casing.
func (m *Map) Contains(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Remove deletes name if present.
func (m *Map) Remove(name string) {
	lower := lowerASCII(name)
	if idx, ok := popularIndex[lower]; ok {
		m.slots[idx] = popularSlot{}
		return
	}
	if m.extra == nil {
		return
	}
	if _, ok := m.extra[lower]; ok {
		delete(m.extra, lower)
		for i, k := range m.iterKeys {
			if k == lower {
				m.iterKeys = append(m.iterKeys[:i], m.iterKeys[i+1:]...)
				break
			}
		}
	}
}

// Clear empties the map for reuse across requests, without releasing the
// backing extra map, so a connection can reuse one Map without growing
// it again on every request.
func (m *Map) Clear() {
	for i := range m.slots {
		m.slots[i] = popularSlot{}
	}
	for k := range m.extra {
		delete(m.extra, k)
	}
	m.iterKeys = m.iterKeys[:0]
}

// Pair is one (name, value) entry as returned by Each.
type Pair struct {
	Name  string
	Value string
}

// Each calls fn once per stored header. Iteration order is unspecified.
func (m *Map) Each(fn func(name, value string)) {
	for _, s := range m.slots {
		if s.present {
			fn(s.name, s.value)
		}
	}
	for _, k := range m.iterKeys {
		if e, ok := m.extra[k]; ok {
			fn(e.name, e.value)
		}
	}
}

// Len returns the number of stored headers.
func (m *Map) Len() int {
	n := 0
	for _, s := range m.slots {
		if s.present {
			n++
		}
	}
	return n + len(m.extra)
}

// CanonicalName mirrors net/textproto's MIME header canonicalization
// (Ab-Cd form) for headers outside the popular set, so emitted wire
// output looks conventional even for arbitrary header names.
func CanonicalName(name string) string {
	if name == "" {
		return name
	}
	b := []byte(name)
	upper := true
	for i, c := range b {
		switch {
		case upper && c >= 'a' && c <= 'z':
			b[i] = c - ('a' - 'A')
			upper = false
		case !upper && c >= 'A' && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
		if c == '-' {
			upper = true
		} else {
			upper = false
		}
	}
	return string(b)
}

// ParseCookies splits a Cookie header's "name=value; name2=value2" form
// into a name->value map. Malformed pairs (no '=') are skipped rather
// than rejected outright: a request with one bad cookie shouldn't lose
// every other cookie on it.
func ParseCookies(headerValue string) map[string]string {
	if headerValue == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(headerValue, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	return out
}
