// Package codegen emits Go source text from a resolved openapi.Document:
// entities, a hand-rolled JSON codec, validators, a route table, a
// handler interface, and binding glue (§4.8). Each schema is visited
// once per emitter. Context bundles indentation, target expression,
// structural position, and allocator mode; the emitters themselves take
// plain values (schema pointers, expression strings, an AllocatorMode)
// rather than a Context, and go/format re-indents their output.
package codegen

import "strings"

// Position is where, structurally, an emission currently sits: at the
// top level, inside an object's property, or inside an array element.
// It is carried by Context; no emitter currently reads it.
type Position int

const (
	PosTopLevel Position = iota
	PosObjectProperty
	PosArrayElement
)

// AllocatorMode selects how generated codec code acquires string and
// slice storage: Arena carves it from a request-scoped
// katana/arena.Arena (each parsed string is copied into the arena),
// Standard uses ordinary Go allocation. Both modes emit the same
// entity struct shape (§4.8, Design Notes: "arena-backed strings/
// vectors" is a parsing-time detail, not a type-shape one).
type AllocatorMode int

const (
	AllocatorArena AllocatorMode = iota
	AllocatorStandard
)

func (m AllocatorMode) String() string {
	if m == AllocatorStandard {
		return "standard"
	}
	return "arena"
}

// ParseAllocatorMode maps a CLI flag value to an AllocatorMode,
// defaulting to Arena on anything unrecognized.
func ParseAllocatorMode(s string) AllocatorMode {
	if s == "standard" {
		return AllocatorStandard
	}
	return AllocatorArena
}

// Context is a value type; mutators return a modified copy rather than
// aliasing the caller's Context.
type Context struct {
	Indent    int
	Target    string
	Position  Position
	Allocator AllocatorMode
}

// NewContext starts a fresh top-level emission context for mode.
func NewContext(mode AllocatorMode) Context {
	return Context{Allocator: mode}
}

func (c Context) Indented() Context {
	c.Indent++
	return c
}

func (c Context) WithTarget(target string) Context {
	c.Target = target
	return c
}

func (c Context) WithPosition(p Position) Context {
	c.Position = p
	return c
}

// Pad returns the current indentation as literal tabs, for emitters
// building Go source with a strings.Builder instead of go/printer.
func (c Context) Pad() string {
	return strings.Repeat("\t", c.Indent)
}
