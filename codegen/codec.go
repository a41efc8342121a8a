package codegen

import (
	"fmt"
	"strings"

	"github.com/katana-http/katana/openapi"
)

// GenerateCodec emits Parse_T/Serialize_T pairs for every named schema
// reachable from the document, plus Parse_T_array/Serialize_T_array
// for array-kind schemas (§4.8.2). Parsing is hand-rolled recursive
// descent over a katana/jsoncursor.Cursor: required-field tracking uses
// a per-field boolean, unknown properties are skipped, and nested
// objects/arrays dispatch to their own generated Parse function rather
// than inlining recursively (every reachable schema already has a name
// from the loader's naming pass, so there is no truly anonymous nesting
// left to flatten). A struct's Parse_T returns a third value naming the
// first required property found missing (§4.8.3's required_field_missing
// row), so callers can tell "body absent a required field" apart from
// "body malformed" and report the field (§4.8.6, §7, §8 scenario 3).
//
// Grounded on json_generator.cpp's parse_T/serialize_T shape, adapted
// from a C++ cursor over std::string_view to jsoncursor.Cursor, and
// from C++ optional<T> to Go's (T, bool) — extended to (T, bool, string)
// for object schemas specifically, to carry the missing-field name.
func GenerateCodec(doc *openapi.Document, mode AllocatorMode) (string, error) {
	var b strings.Builder
	for _, s := range reachableSchemas(doc) {
		if s.Name == "" || isPlaceholderCycle(s) {
			continue
		}
		switch {
		case s.Kind == openapi.KindObject && len(s.Properties) > 0:
			emitStructParse(&b, s)
			emitStructSerialize(&b, s)
		case s.Kind == openapi.KindArray:
			emitArrayParse(&b, s)
			emitArraySerialize(&b, s)
		case s.IsEnum():
			emitEnumSerialize(&b, s)
		default:
			emitScalarParse(&b, s)
			emitScalarSerialize(&b, s)
		}
	}
	return RenderFile(PackageName, []string{
		"strconv",
		"strings",
		"github.com/katana-http/katana/katana/jsoncursor",
	}, b.String())
}

// fieldParseStmt emits the statement block that reads one JSON value
// into varExpr (already the correct non-pointer type), returning
// failReturn (the enclosing Parse function's zero-value-plus-failure
// tuple, e.g. "v, false" or "v, false, \"\"" or "nil, false") on any
// failure. A present field that fails to parse is always a malformed-
// body error, never a missing-required-field one, so failReturn never
// carries a field name of its own here (see emitStructParse for where
// the missing-required-field name is produced).
func fieldParseStmt(varExpr string, s *openapi.Schema, failReturn string) string {
	switch {
	case s == nil:
		return fmt.Sprintf("if !cur.SkipValue() {\n\t\t\t\t\treturn %s\n\t\t\t\t}\n\t\t\t\t_ = %s", failReturn, varExpr)
	case s.IsEnum():
		return fmt.Sprintf(`raw, ok := cur.ParseString()
				if !ok {
					return %s
				}
				parsed, ok := Parse%s(raw)
				if !ok {
					return %s
				}
				%s = parsed`, failReturn, GoTypeName(s), failReturn, varExpr)
	case s.Kind == openapi.KindObject && len(s.Properties) > 0:
		return fmt.Sprintf(`parsed, ok, _ := Parse%s(cur)
				if !ok {
					return %s
				}
				%s = parsed`, GoTypeName(s), failReturn, varExpr)
	case s.Kind == openapi.KindArray:
		return fmt.Sprintf(`parsed, ok := Parse%sArray(cur)
				if !ok {
					return %s
				}
				%s = parsed`, GoTypeName(s), failReturn, varExpr)
	case s.Kind == openapi.KindString:
		return fmt.Sprintf(`parsed, ok := cur.ParseString()
				if !ok {
					return %s
				}
				%s = parsed`, failReturn, varExpr)
	case s.Kind == openapi.KindInteger:
		return fmt.Sprintf(`parsed, ok := cur.ParseInt64()
				if !ok {
					return %s
				}
				%s = parsed`, failReturn, varExpr)
	case s.Kind == openapi.KindNumber:
		return fmt.Sprintf(`parsed, ok := cur.ParseFloat64()
				if !ok {
					return %s
				}
				%s = parsed`, failReturn, varExpr)
	case s.Kind == openapi.KindBoolean:
		return fmt.Sprintf(`parsed, ok := cur.ParseBool()
				if !ok {
					return %s
				}
				%s = parsed`, failReturn, varExpr)
	default:
		return fmt.Sprintf("if !cur.SkipValue() {\n\t\t\t\t\treturn %s\n\t\t\t\t}\n\t\t\t\t_ = %s", failReturn, varExpr)
	}
}

// emitStructParse emits Parse_T for an object-with-properties schema.
// The third return value is the JSON name of the first required
// property absent from the document (§4.8.3's "required_field_missing"
// row), empty on success or on any other (malformed-body) failure —
// bodyBindStmts (glue.go) uses it to tell the two apart and build the
// right problem-details response.
func emitStructParse(b *strings.Builder, s *openapi.Schema) {
	name := GoTypeName(s)
	const fail = `v, false, ""`
	fmt.Fprintf(b, "// Parse%s parses one %s from cur (§4.8.2). The string\n", name, name)
	fmt.Fprintf(b, "// result is the name of a missing required field, if that is why\n")
	fmt.Fprintf(b, "// parsing failed; empty otherwise.\n")
	fmt.Fprintf(b, "func Parse%s(cur *jsoncursor.Cursor) (%s, bool, string) {\n", name, name)
	b.WriteString("\tvar v " + name + "\n")
	fmt.Fprintf(b, "\tif !cur.Expect('{') {\n\t\treturn %s\n\t}\n", fail)
	b.WriteString("\tcur.SkipWS()\n")
	for _, p := range s.Properties {
		if p.Required {
			fmt.Fprintf(b, "\tsaw%s := false\n", GoFieldName(p.Name))
		}
	}
	b.WriteString("\tif !cur.Expect('}') {\n\t\tfor {\n")
	fmt.Fprintf(b, "\t\t\tkey, ok := cur.ParseString()\n\t\t\tif !ok {\n\t\t\t\treturn %s\n\t\t\t}\n", fail)
	fmt.Fprintf(b, "\t\t\tif !cur.Expect(':') {\n\t\t\t\treturn %s\n\t\t\t}\n", fail)
	b.WriteString("\t\t\tswitch key {\n")
	for _, p := range s.Properties {
		field := GoFieldName(p.Name)
		fmt.Fprintf(b, "\t\t\tcase %q:\n", p.Name)
		if p.Required {
			fmt.Fprintf(b, "\t\t\t\t%s\n", fieldParseStmt("v."+field, p.Type, fail))
			fmt.Fprintf(b, "\t\t\t\tsaw%s = true\n", field)
		} else {
			baseType := GoFieldType(p.Type)
			fmt.Fprintf(b, "\t\t\t\tvar tmp%s %s\n", field, baseType)
			fmt.Fprintf(b, "\t\t\t\t%s\n", fieldParseStmt("tmp"+field, p.Type, fail))
			fmt.Fprintf(b, "\t\t\t\tv.%s = &tmp%s\n", field, field)
		}
	}
	fmt.Fprintf(b, "\t\t\tdefault:\n\t\t\t\tif !cur.SkipValue() {\n\t\t\t\t\treturn %s\n\t\t\t\t}\n", fail)
	b.WriteString("\t\t\t}\n")
	b.WriteString("\t\t\tcur.SkipWS()\n\t\t\tif cur.Expect(',') {\n\t\t\t\tcontinue\n\t\t\t}\n")
	fmt.Fprintf(b, "\t\t\tif cur.Expect('}') {\n\t\t\t\tbreak\n\t\t\t}\n\t\t\treturn %s\n\t\t}\n\t}\n", fail)
	for _, p := range s.Properties {
		if p.Required {
			fmt.Fprintf(b, "\tif !saw%s {\n\t\treturn v, false, %q\n\t}\n", GoFieldName(p.Name), p.Name)
		}
	}
	b.WriteString("\treturn v, true, \"\"\n}\n\n")
}

func serializeExpr(valueExpr string, s *openapi.Schema) string {
	switch {
	case s == nil:
		return `"null"`
	case s.IsEnum():
		return fmt.Sprintf("jsoncursor.EscapeString(%s.String())", valueExpr)
	case s.Kind == openapi.KindObject && len(s.Properties) > 0:
		return fmt.Sprintf("Serialize%s(%s)", GoTypeName(s), valueExpr)
	case s.Kind == openapi.KindArray:
		return fmt.Sprintf("Serialize%sArray(%s)", GoTypeName(s), valueExpr)
	case s.Kind == openapi.KindString:
		return fmt.Sprintf("jsoncursor.EscapeString(%s)", valueExpr)
	case s.Kind == openapi.KindInteger:
		return fmt.Sprintf("strconv.FormatInt(%s, 10)", valueExpr)
	case s.Kind == openapi.KindNumber:
		return fmt.Sprintf("strconv.FormatFloat(%s, 'g', -1, 64)", valueExpr)
	case s.Kind == openapi.KindBoolean:
		return fmt.Sprintf("strconv.FormatBool(%s)", valueExpr)
	default:
		return `"null"`
	}
}

func emitStructSerialize(b *strings.Builder, s *openapi.Schema) {
	name := GoTypeName(s)
	fmt.Fprintf(b, "// Serialize%s renders v as JSON text (§4.8.2).\n", name)
	fmt.Fprintf(b, "func Serialize%s(v %s) string {\n", name, name)
	b.WriteString("\tvar b strings.Builder\n\tb.WriteByte('{')\n\tfirst := true\n")
	for _, p := range s.Properties {
		field := GoFieldName(p.Name)
		if p.Required {
			fmt.Fprintf(b, "\tif !first {\n\t\tb.WriteByte(',')\n\t}\n\tfirst = false\n")
			fmt.Fprintf(b, "\tb.WriteString(%q)\n", p.Name+":")
			fmt.Fprintf(b, "\tb.WriteString(%s)\n", serializeExpr("v."+field, p.Type))
		} else {
			fmt.Fprintf(b, "\tif v.%s != nil {\n\t\tif !first {\n\t\t\tb.WriteByte(',')\n\t\t}\n\t\tfirst = false\n", field)
			fmt.Fprintf(b, "\t\tb.WriteString(%q)\n", p.Name+":")
			fmt.Fprintf(b, "\t\tb.WriteString(%s)\n\t}\n", serializeExpr("*v."+field, p.Type))
		}
	}
	b.WriteString("\tb.WriteByte('}')\n\treturn b.String()\n}\n\n")
}

func emitArrayParse(b *strings.Builder, s *openapi.Schema) {
	name := GoTypeName(s)
	elemType := GoFieldType(s.Items)
	fmt.Fprintf(b, "// Parse%sArray parses a JSON array of %s (§4.8.2).\n", name, elemType)
	fmt.Fprintf(b, "func Parse%sArray(cur *jsoncursor.Cursor) ([]%s, bool) {\n", name, elemType)
	b.WriteString("\tif !cur.Expect('[') {\n\t\treturn nil, false\n\t}\n\tcur.SkipWS()\n")
	fmt.Fprintf(b, "\tvar out []%s\n", elemType)
	b.WriteString("\tif cur.Expect(']') {\n\t\treturn out, true\n\t}\n\tfor {\n")
	fmt.Fprintf(b, "\t\tvar elem %s\n", elemType)
	b.WriteString("\t\t{\n\t\t\t" + strings.ReplaceAll(fieldParseStmt("elem", s.Items, "nil, false"), "\n\t\t\t\t", "\n\t\t\t") + "\n\t\t}\n")
	b.WriteString("\t\tout = append(out, elem)\n\t\tcur.SkipWS()\n\t\tif cur.Expect(',') {\n\t\t\tcontinue\n\t\t}\n")
	b.WriteString("\t\tif cur.Expect(']') {\n\t\t\tbreak\n\t\t}\n\t\treturn nil, false\n\t}\n\treturn out, true\n}\n\n")
}

func emitArraySerialize(b *strings.Builder, s *openapi.Schema) {
	name := GoTypeName(s)
	elemType := GoFieldType(s.Items)
	fmt.Fprintf(b, "// Serialize%sArray renders v as a JSON array (§4.8.2).\n", name)
	fmt.Fprintf(b, "func Serialize%sArray(v []%s) string {\n", name, elemType)
	b.WriteString("\tvar b strings.Builder\n\tb.WriteByte('[')\n\tfor i, elem := range v {\n\t\tif i > 0 {\n\t\t\tb.WriteByte(',')\n\t\t}\n")
	fmt.Fprintf(b, "\t\tb.WriteString(%s)\n\t}\n", serializeExpr("elem", s.Items))
	b.WriteString("\tb.WriteByte(']')\n\treturn b.String()\n}\n\n")
}

func emitScalarParse(b *strings.Builder, s *openapi.Schema) {
	name := GoTypeName(s)
	fmt.Fprintf(b, "// Parse%s parses one %s scalar (§4.8.2).\n", name, name)
	fmt.Fprintf(b, "func Parse%s(cur *jsoncursor.Cursor) (%s, bool) {\n", name, name)
	b.WriteString("\tvar v " + name + "\n")
	switch s.Kind {
	case openapi.KindString:
		b.WriteString("\traw, ok := cur.ParseString()\n\tif !ok {\n\t\treturn v, false\n\t}\n\treturn " + name + "(raw), true\n")
	case openapi.KindInteger:
		b.WriteString("\traw, ok := cur.ParseInt64()\n\tif !ok {\n\t\treturn v, false\n\t}\n\treturn " + name + "(raw), true\n")
	case openapi.KindNumber:
		b.WriteString("\traw, ok := cur.ParseFloat64()\n\tif !ok {\n\t\treturn v, false\n\t}\n\treturn " + name + "(raw), true\n")
	case openapi.KindBoolean:
		b.WriteString("\traw, ok := cur.ParseBool()\n\tif !ok {\n\t\treturn v, false\n\t}\n\treturn " + name + "(raw), true\n")
	default:
		b.WriteString("\treturn v, false\n")
	}
	b.WriteString("}\n\n")
}

func emitScalarSerialize(b *strings.Builder, s *openapi.Schema) {
	name := GoTypeName(s)
	fmt.Fprintf(b, "// Serialize%s renders v as JSON text (§4.8.2).\n", name)
	fmt.Fprintf(b, "func Serialize%s(v %s) string {\n", name, name)
	switch s.Kind {
	case openapi.KindString:
		b.WriteString("\treturn jsoncursor.EscapeString(string(v))\n")
	case openapi.KindInteger:
		b.WriteString("\treturn strconv.FormatInt(int64(v), 10)\n")
	case openapi.KindNumber:
		b.WriteString("\treturn strconv.FormatFloat(float64(v), 'g', -1, 64)\n")
	case openapi.KindBoolean:
		b.WriteString("\treturn strconv.FormatBool(bool(v))\n")
	default:
		b.WriteString("\treturn \"null\"\n")
	}
	b.WriteString("}\n\n")
}

// emitEnumSerialize adds Serialize_T for enum types; entities.go
// already emitted String/Parse for them.
func emitEnumSerialize(b *strings.Builder, s *openapi.Schema) {
	name := GoTypeName(s)
	fmt.Fprintf(b, "// Serialize%s renders v as a JSON string (§4.8.2).\n", name)
	fmt.Fprintf(b, "func Serialize%s(v %s) string {\n\treturn jsoncursor.EscapeString(v.String())\n}\n\n", name, name)
}
