package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/katana-http/katana/openapi"
)

// GenerateEntities emits one Go type per schema reachable from the
// document (§4.8.1): an object schema becomes a struct, a
// string-enum becomes a sum type with String/Parse conversions, an
// array becomes a slice alias, and any other scalar becomes a defined
// type. A scalar alias carries a block of constants enumerating its
// constraint values and an init-time sanity check when a min/max pair
// could contradict itself; struct, enum and array types get no such
// constants or checks.
//
// Grounded on dto_generator.cpp's generate_dtos/generate_dto_for_schema/
// generate_enum_for_schema, translated from C++ struct+static_assert to
// a Go defined type plus exported constants and a guarding init().
func GenerateEntities(doc *openapi.Document, mode AllocatorMode) (string, error) {
	var b strings.Builder
	for _, s := range reachableSchemas(doc) {
		if s.Name == "" {
			continue
		}
		switch {
		case s.IsEnum():
			emitEnum(&b, s)
		case s.Kind == openapi.KindObject && len(s.Properties) > 0:
			emitStruct(&b, s, mode)
		case s.Kind == openapi.KindArray:
			fmt.Fprintf(&b, "// %s is a generated alias (§4.8.1: \"array of T\").\n", GoTypeName(s))
			fmt.Fprintf(&b, "type %s = %s\n\n", GoTypeName(s), GoFieldType(s))
		default:
			emitScalarAlias(&b, s)
		}
	}
	return RenderFile(PackageName, nil, b.String())
}

func emitScalarAlias(b *strings.Builder, s *openapi.Schema) {
	name := GoTypeName(s)
	fmt.Fprintf(b, "// %s is a generated scalar alias (§4.8.1).\n", name)
	fmt.Fprintf(b, "type %s %s\n\n", name, GoScalarType(s))
	emitScalarMetadata(b, name, s)
}

func emitScalarMetadata(b *strings.Builder, name string, s *openapi.Schema) {
	var consts []string
	add := func(k string, v string) { consts = append(consts, fmt.Sprintf("\t%s%s = %s", name, k, v)) }

	if s.MinLength != nil {
		add("MinLength", strconv.Itoa(*s.MinLength))
	}
	if s.MaxLength != nil {
		add("MaxLength", strconv.Itoa(*s.MaxLength))
	}
	if s.Pattern != "" {
		add("Pattern", strconv.Quote(s.Pattern))
	}
	if s.Minimum != nil {
		add("Minimum", formatFloat(*s.Minimum))
	}
	if s.Maximum != nil {
		add("Maximum", formatFloat(*s.Maximum))
	}
	if s.ExclusiveMinimum != nil {
		add("ExclusiveMinimum", formatFloat(*s.ExclusiveMinimum))
	}
	if s.ExclusiveMaximum != nil {
		add("ExclusiveMaximum", formatFloat(*s.ExclusiveMaximum))
	}
	if s.MultipleOf != nil {
		add("MultipleOf", formatFloat(*s.MultipleOf))
	}
	if s.MinItems != nil {
		add("MinItems", strconv.Itoa(*s.MinItems))
	}
	if s.MaxItems != nil {
		add("MaxItems", strconv.Itoa(*s.MaxItems))
	}
	if s.UniqueItems {
		add("UniqueItems", "true")
	}
	if len(consts) == 0 {
		return
	}
	b.WriteString("const (\n")
	b.WriteString(strings.Join(consts, "\n"))
	b.WriteString("\n)\n\n")

	if s.MinLength != nil && s.MaxLength != nil {
		emitSanityCheck(b, name, fmt.Sprintf("%sMinLength > %sMaxLength", name, name))
	}
	if s.Minimum != nil && s.Maximum != nil {
		emitSanityCheck(b, name, fmt.Sprintf("%sMinimum > %sMaximum", name, name))
	}
	if s.MinItems != nil && s.MaxItems != nil {
		emitSanityCheck(b, name, fmt.Sprintf("%sMinItems > %sMaxItems", name, name))
	}
}

// emitSanityCheck is the Go analogue of the original's
// static_assert(min <= max): Go has no compile-time assertion over
// runtime-style named constants derived from floats/strings, so the
// check runs once at process start instead.
func emitSanityCheck(b *strings.Builder, name, cond string) {
	fmt.Fprintf(b, "func init() {\n\tif %s {\n\t\tpanic(%q)\n\t}\n}\n\n", cond, name+": generated schema has contradictory min/max constraints")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func emitStruct(b *strings.Builder, s *openapi.Schema, mode AllocatorMode) {
	name := GoTypeName(s)
	fmt.Fprintf(b, "// %s is generated from an object schema (§4.8.1).\n", name)
	fmt.Fprintf(b, "type %s struct {\n", name)
	for _, p := range s.Properties {
		fieldType := GoFieldType(p.Type)
		if !p.Required || (p.Type != nil && p.Type.Nullable) {
			fieldType = "*" + fieldType
		}
		fmt.Fprintf(b, "\t%s %s `json:\"%s\"`\n", GoFieldName(p.Name), fieldType, p.Name)
	}
	b.WriteString("}\n\n")

	if len(s.Properties) > 0 {
		var required []string
		for _, p := range s.Properties {
			if p.Required {
				required = append(required, strconv.Quote(p.Name))
			}
		}
		fmt.Fprintf(b, "// %sRequiredFields lists the JSON property names that must be present.\n", name)
		fmt.Fprintf(b, "// The generated parser and validator track required fields themselves.\n")
		fmt.Fprintf(b, "var %sRequiredFields = map[string]bool{\n", name)
		for _, r := range required {
			fmt.Fprintf(b, "\t%s: true,\n", r)
		}
		b.WriteString("}\n\n")
	}

	_ = mode // arena vs. standard only changes the arena glue.go hands to jsoncursor, not the struct shape.
}

func emitEnum(b *strings.Builder, s *openapi.Schema) {
	name := GoTypeName(s)
	fmt.Fprintf(b, "// %s is a generated enum-of-strings (§4.8.1).\n", name)
	fmt.Fprintf(b, "type %s string\n\n", name)

	used := map[string]bool{}
	var caseNames []string
	b.WriteString("const (\n")
	for _, v := range s.Enum {
		caseName := EnumCaseName(v, used)
		caseNames = append(caseNames, caseName)
		fmt.Fprintf(b, "\t%s%s %s = %q\n", name, caseName, name, v)
	}
	b.WriteString(")\n\n")

	fmt.Fprintf(b, "// String implements fmt.Stringer for %s.\n", name)
	fmt.Fprintf(b, "func (v %s) String() string { return string(v) }\n\n", name)

	fmt.Fprintf(b, "// Valid%s reports whether v is one of the declared cases.\n", name)
	fmt.Fprintf(b, "func Valid%s(v %s) bool {\n\tswitch v {\n\tcase ", name, name)
	for i, c := range caseNames {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s%s", name, c)
	}
	b.WriteString(":\n\t\treturn true\n\tdefault:\n\t\treturn false\n\t}\n}\n\n")

	fmt.Fprintf(b, "// Parse%s validates and converts a raw string into %s.\n", name, name)
	fmt.Fprintf(b, "func Parse%s(raw string) (%s, bool) {\n", name, name)
	fmt.Fprintf(b, "\tv := %s(raw)\n\treturn v, Valid%s(v)\n}\n\n", name, name)
}
