package codegen

import (
	"fmt"
	"go/format"
	"sort"
	"strings"

	"github.com/katana-http/katana/openapi"
)

// PackageName is the package clause every generated artifact shares;
// the six files are meant to sit side by side in one output directory
// and reference each other's types directly.
const PackageName = "generated"

// RenderFile wraps body (type/func declarations already joined by the
// caller) in a package clause and import block, then runs it through
// go/format so every emitted artifact is go/format-clean (§4.8) even
// though the emitters themselves build source with a strings.Builder
// instead of go/ast+go/printer.
func RenderFile(pkg string, imports []string, body string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by katana-gen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	if len(imports) > 0 {
		sorted := append([]string(nil), imports...)
		sort.Strings(sorted)
		b.WriteString("import (\n")
		for _, imp := range sorted {
			fmt.Fprintf(&b, "\t%q\n", imp)
		}
		b.WriteString(")\n\n")
	}
	b.WriteString(body)

	formatted, err := format.Source([]byte(b.String()))
	if err != nil {
		return b.String(), fmt.Errorf("codegen: formatting output: %w", err)
	}
	return string(formatted), nil
}

// reachableSchemas walks doc in naming-pass order (operations, then
// any schema not reached from an operation) and returns every schema
// that needs an entity emitted for it, each exactly once, in a stable
// order driven by Document.Schemas (already document-ordered by the
// loader).
func reachableSchemas(doc *openapi.Document) []*openapi.Schema {
	seen := map[*openapi.Schema]bool{}
	var out []*openapi.Schema
	var visit func(s *openapi.Schema)
	visit = func(s *openapi.Schema) {
		if s == nil || seen[s] {
			return
		}
		seen[s] = true
		if isPlaceholderCycle(s) {
			return
		}
		out = append(out, s)
		for _, p := range s.Properties {
			visit(p.Type)
		}
		visit(s.Items)
		visit(s.AdditionalProperties)
		for _, c := range s.OneOf {
			visit(c)
		}
		for _, c := range s.AnyOf {
			visit(c)
		}
		for _, c := range s.AllOf {
			visit(c)
		}
	}
	for _, s := range doc.Schemas {
		visit(s)
	}
	return out
}

// isPlaceholderCycle reports whether s is the empty, still-unresolved
// ref artifact a $ref cycle leaves behind (§4.8.1: "skip (do not emit
// a circular self-alias)").
func isPlaceholderCycle(s *openapi.Schema) bool {
	return s.IsRef && s.Ref != ""
}

// GoScalarType maps a non-object, non-array schema to its Go scalar
// type (§4.8.1: "type alias to the corresponding scalar").
func GoScalarType(s *openapi.Schema) string {
	switch s.Kind {
	case openapi.KindString:
		return "string"
	case openapi.KindInteger:
		return "int64"
	case openapi.KindNumber:
		return "float64"
	case openapi.KindBoolean:
		return "bool"
	default:
		return "any"
	}
}

// GoFieldType derives the Go type used for a struct field or
// parameter binding for schema s, recursing into arrays and named
// object/enum types. Nullable/optional wrapping is the caller's
// responsibility (§4.8.1 keeps "optional container" orthogonal to the
// base type).
func GoFieldType(s *openapi.Schema) string {
	if s == nil {
		return "any"
	}
	switch s.Kind {
	case openapi.KindArray:
		return "[]" + GoFieldType(s.Items)
	case openapi.KindObject:
		if len(s.Properties) > 0 || s.Name != "" {
			return GoTypeName(s)
		}
		return "map[string]any"
	default:
		if s.IsEnum() {
			return GoTypeName(s)
		}
		return GoScalarType(s)
	}
}
