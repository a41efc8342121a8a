// Package jsoncursor is the small, shared scalar-parsing utility module
// §4.8.2 calls for: generated Parse_T functions dispatch property
// names themselves, but every one of them bottoms out in the same
// handful of "read one JSON scalar starting here" primitives. Keeping
// those primitives in one hand-rolled cursor means codegen only ever
// emits calls into it, never a second copy of string-escaping or
// number-scanning logic.
package jsoncursor

import (
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/katana-http/katana/katana/arena"
)

// Cursor walks a JSON byte slice by hand, the same recursive-descent
// discipline §4.8.2 describes: skip whitespace, expect a structural
// token, dispatch. When Arena is non-nil, ParseString carves its
// result from the arena instead of the Go heap.
type Cursor struct {
	Data  []byte
	Pos   int
	Arena *arena.Arena
}

// New wraps data for parsing. alloc may be nil, in which case every
// parsed string is a plain Go-heap copy (AllocatorMode standard).
func New(data []byte, alloc *arena.Arena) *Cursor {
	return &Cursor{Data: data, Arena: alloc}
}

func (c *Cursor) AtEnd() bool { return c.Pos >= len(c.Data) }

func (c *Cursor) SkipWS() {
	for c.Pos < len(c.Data) {
		switch c.Data[c.Pos] {
		case ' ', '\t', '\n', '\r':
			c.Pos++
		default:
			return
		}
	}
}

func (c *Cursor) Peek() (byte, bool) {
	if c.AtEnd() {
		return 0, false
	}
	return c.Data[c.Pos], true
}

// Expect consumes b if it is the next non-whitespace byte.
func (c *Cursor) Expect(b byte) bool {
	c.SkipWS()
	if c.AtEnd() || c.Data[c.Pos] != b {
		return false
	}
	c.Pos++
	return true
}

// ParseNull consumes a literal `null`.
func (c *Cursor) ParseNull() bool {
	c.SkipWS()
	if c.Pos+4 <= len(c.Data) && string(c.Data[c.Pos:c.Pos+4]) == "null" {
		c.Pos += 4
		return true
	}
	return false
}

// ParseString consumes a JSON string literal, unescaping it. When the
// cursor has an Arena, the result (escaped or not) is copied into the
// arena and the returned string aliases that copy.
func (c *Cursor) ParseString() (string, bool) {
	c.SkipWS()
	if !c.Expect('"') {
		return "", false
	}
	start := c.Pos
	hasEscape := false
	for c.Pos < len(c.Data) {
		b := c.Data[c.Pos]
		if b == '"' {
			raw := c.Data[start:c.Pos]
			c.Pos++
			if !hasEscape {
				if c.Arena != nil {
					if v, err := c.Arena.String(string(raw)); err == nil {
						return v, true
					}
					return "", false
				}
				return string(raw), true
			}
			unescaped, ok := unescapeJSON(raw)
			if !ok {
				return "", false
			}
			if c.Arena != nil {
				if v, err := c.Arena.String(unescaped); err == nil {
					return v, true
				}
				return "", false
			}
			return unescaped, true
		}
		if b == '\\' {
			hasEscape = true
			c.Pos++
			if c.Pos >= len(c.Data) {
				return "", false
			}
			if c.Data[c.Pos] == 'u' {
				c.Pos += 5
				continue
			}
		}
		c.Pos++
	}
	return "", false
}

func unescapeJSON(raw []byte) (string, bool) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b != '\\' {
			out = append(out, b)
			continue
		}
		i++
		if i >= len(raw) {
			return "", false
		}
		switch raw[i] {
		case '"':
			out = append(out, '"')
		case '\\':
			out = append(out, '\\')
		case '/':
			out = append(out, '/')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			if i+4 >= len(raw) {
				return "", false
			}
			r1, err := strconv.ParseUint(string(raw[i+1:i+5]), 16, 32)
			if err != nil {
				return "", false
			}
			i += 4
			r := rune(r1)
			if utf16.IsSurrogate(r) && i+6 < len(raw) && raw[i+1] == '\\' && raw[i+2] == 'u' {
				r2, err := strconv.ParseUint(string(raw[i+3:i+7]), 16, 32)
				if err == nil {
					if decoded := utf16.DecodeRune(r, rune(r2)); decoded != utf8.RuneError {
						i += 6
						r = decoded
					}
				}
			}
			var buf [4]byte
			n := utf8.EncodeRune(buf[:], r)
			out = append(out, buf[:n]...)
		default:
			return "", false
		}
	}
	return string(out), true
}

// ParseNumber consumes a JSON number literal and returns its raw text,
// for the caller to convert to int64 or float64.
func (c *Cursor) ParseNumber() (string, bool) {
	c.SkipWS()
	start := c.Pos
	if !c.AtEnd() && (c.Data[c.Pos] == '-' || c.Data[c.Pos] == '+') {
		c.Pos++
	}
	sawDigit := false
	for c.Pos < len(c.Data) {
		b := c.Data[c.Pos]
		if b >= '0' && b <= '9' {
			sawDigit = true
			c.Pos++
			continue
		}
		if b == '.' || b == 'e' || b == 'E' || b == '+' || b == '-' {
			c.Pos++
			continue
		}
		break
	}
	if !sawDigit {
		c.Pos = start
		return "", false
	}
	return string(c.Data[start:c.Pos]), true
}

func (c *Cursor) ParseInt64() (int64, bool) {
	raw, ok := c.ParseNumber()
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *Cursor) ParseFloat64() (float64, bool) {
	raw, ok := c.ParseNumber()
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (c *Cursor) ParseBool() (bool, bool) {
	c.SkipWS()
	if c.Pos+4 <= len(c.Data) && string(c.Data[c.Pos:c.Pos+4]) == "true" {
		c.Pos += 4
		return true, true
	}
	if c.Pos+5 <= len(c.Data) && string(c.Data[c.Pos:c.Pos+5]) == "false" {
		c.Pos += 5
		return false, true
	}
	return false, false
}

// SkipValue consumes one arbitrary JSON value without interpreting it,
// used to discard unknown object properties (§4.8.2: "unknown
// properties are skipped").
func (c *Cursor) SkipValue() bool {
	c.SkipWS()
	b, ok := c.Peek()
	if !ok {
		return false
	}
	switch b {
	case '"':
		_, ok := c.ParseString()
		return ok
	case '{':
		return c.skipObject()
	case '[':
		return c.skipArray()
	case 't', 'f':
		_, ok := c.ParseBool()
		return ok
	case 'n':
		return c.ParseNull()
	default:
		_, ok := c.ParseNumber()
		return ok
	}
}

func (c *Cursor) skipObject() bool {
	if !c.Expect('{') {
		return false
	}
	c.SkipWS()
	if c.Expect('}') {
		return true
	}
	for {
		if _, ok := c.ParseString(); !ok {
			return false
		}
		if !c.Expect(':') {
			return false
		}
		if !c.SkipValue() {
			return false
		}
		c.SkipWS()
		if c.Expect(',') {
			continue
		}
		return c.Expect('}')
	}
}

func (c *Cursor) skipArray() bool {
	if !c.Expect('[') {
		return false
	}
	c.SkipWS()
	if c.Expect(']') {
		return true
	}
	for {
		if !c.SkipValue() {
			return false
		}
		c.SkipWS()
		if c.Expect(',') {
			continue
		}
		return c.Expect(']')
	}
}

// EscapeString renders s as a JSON string literal, used by generated
// SerializeT functions (§4.8.2: "strings are JSON-escaped").
func EscapeString(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for _, r := range s {
		switch r {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		default:
			if r < 0x20 {
				out = append(out, []byte(`\u`)...)
				out = append(out, []byte(strconv.FormatUint(uint64(r)+0x10000, 16))[1:]...)
				continue
			}
			var buf [4]byte
			n := utf8.EncodeRune(buf[:], r)
			out = append(out, buf[:n]...)
		}
	}
	out = append(out, '"')
	return string(out)
}
