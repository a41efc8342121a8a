package codegen

import (
	"fmt"
	"strings"

	"github.com/katana-http/katana/openapi"
)

// GenerateValidator emits Validate_T(v T) *validation.Error for every
// object schema reachable from the document (§4.8.3): fields are
// checked in declaration order and the first failing constraint wins.
// Optional fields short-circuit on a nil pointer; nested object/array
// fields recurse into the nested type's own Validate function and the
// field name is re-prefixed onto whatever failure comes back.
//
// Grounded on validator_generator.cpp's per-kind rule table (mirrored
// here from the identical table in §4.8.3) and katana/validation's
// shared ErrorCode vocabulary.
func GenerateValidator(doc *openapi.Document, mode AllocatorMode) (string, error) {
	schemas := reachableSchemas(doc)

	anyPattern := false
	anyNestedArrayOfObjects := false
	anyStruct := false
	for _, s := range schemas {
		if s.Name != "" && !isPlaceholderCycle(s) && s.Kind == openapi.KindObject && len(s.Properties) > 0 {
			anyStruct = true
		}
		for _, p := range s.Properties {
			if p.Type == nil {
				continue
			}
			if p.Type.Pattern != "" {
				anyPattern = true
			}
			if p.Type.Kind == openapi.KindArray && p.Type.Items != nil &&
				p.Type.Items.Kind == openapi.KindObject && len(p.Type.Items.Properties) > 0 {
				anyNestedArrayOfObjects = true
			}
		}
	}

	var b strings.Builder
	b.WriteString(`// itemsUnique reports whether every element of items is distinct,
// used for array schemas with uniqueItems (§4.8.3).
func itemsUnique[T comparable](items []T) bool {
	seen := make(map[T]bool, len(items))
	for _, it := range items {
		if seen[it] {
			return false
		}
		seen[it] = true
	}
	return true
}

// isMultipleOf reports whether v is an integer multiple of of,
// used for schemas with multipleOf (§4.8.3).
func isMultipleOf(v, of float64) bool {
	if of == 0 {
		return true
	}
	return math.Mod(v, of) == 0
}

`)
	for _, s := range schemas {
		if s.Name == "" || isPlaceholderCycle(s) {
			continue
		}
		if s.Kind == openapi.KindObject && len(s.Properties) > 0 {
			emitValidateStruct(&b, s)
		}
	}

	imports := []string{"math"}
	if anyStruct {
		imports = append(imports, "github.com/katana-http/katana/katana/validation")
	}
	if anyPattern {
		imports = append(imports, "regexp")
	}
	if anyNestedArrayOfObjects {
		imports = append(imports, "strconv")
	}
	return RenderFile(PackageName, imports, b.String())
}

func emitValidateStruct(b *strings.Builder, s *openapi.Schema) {
	name := GoTypeName(s)
	fmt.Fprintf(b, "// Validate%s walks v's fields in declaration order and returns\n", name)
	fmt.Fprintf(b, "// the first constraint violation found, or nil (§4.8.3).\n")
	fmt.Fprintf(b, "func Validate%s(v %s) *validation.Error {\n", name, name)
	for _, p := range s.Properties {
		field := GoFieldName(p.Name)
		stmts := validateFieldStmts(p.Name, "v."+field, p.Type)
		if stmts == "" {
			continue
		}
		if p.Required {
			b.WriteString(stmts)
		} else {
			fmt.Fprintf(b, "\tif v.%s != nil {\n", field)
			deref := strings.ReplaceAll(stmts, "v."+field, "(*v."+field+")")
			b.WriteString(indentBlock(deref))
			b.WriteString("\t}\n")
		}
	}
	b.WriteString("\treturn nil\n}\n\n")
}

func indentBlock(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "\t" + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// validateFieldStmts emits the `if <violation> { return &validation.Error{...} }`
// statements for one field's constraints, plus recursive delegation
// into a nested object/array's own Validate function.
func validateFieldStmts(fieldName, valueExpr string, s *openapi.Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	errStmt := func(code, constraintExpr string) string {
		if constraintExpr == "" {
			return fmt.Sprintf("\treturn &validation.Error{Field: %q, Code: validation.%s}\n", fieldName, code)
		}
		return fmt.Sprintf("\treturn &validation.Error{Field: %q, Code: validation.%s, Constraint: %s, HasValue: true}\n", fieldName, code, constraintExpr)
	}

	switch {
	case s.IsEnum():
		fmt.Fprintf(&b, "\tif !Valid%s(%s) {\n%s\t}\n", GoTypeName(s), valueExpr, errStmt("InvalidEnumValue", ""))
	case s.Kind == openapi.KindString:
		if s.MinLength != nil {
			fmt.Fprintf(&b, "\tif len(%s) < %d {\n%s\t}\n", valueExpr, *s.MinLength, errStmt("StringTooShort", fmt.Sprintf("%d", *s.MinLength)))
		}
		if s.MaxLength != nil {
			fmt.Fprintf(&b, "\tif len(%s) > %d {\n%s\t}\n", valueExpr, *s.MaxLength, errStmt("StringTooLong", fmt.Sprintf("%d", *s.MaxLength)))
		}
		switch s.Format {
		case "email":
			fmt.Fprintf(&b, "\tif !validation.IsValidEmail(%s) {\n%s\t}\n", valueExpr, errStmt("InvalidEmailFormat", ""))
		case "uuid":
			fmt.Fprintf(&b, "\tif !validation.IsValidUUID(%s) {\n%s\t}\n", valueExpr, errStmt("InvalidUUIDFormat", ""))
		case "date-time":
			fmt.Fprintf(&b, "\tif !validation.IsValidDateTime(%s) {\n%s\t}\n", valueExpr, errStmt("InvalidDateTimeFormat", ""))
		}
		if s.Pattern != "" {
			fmt.Fprintf(&b, "\tif !regexp.MustCompile(%q).MatchString(%s) {\n%s\t}\n", s.Pattern, valueExpr, errStmt("PatternMismatch", ""))
		}
	case s.Kind == openapi.KindInteger || s.Kind == openapi.KindNumber:
		numExpr := "float64(" + valueExpr + ")"
		if s.Minimum != nil {
			fmt.Fprintf(&b, "\tif %s < %s {\n%s\t}\n", numExpr, formatFloat(*s.Minimum), errStmt("ValueTooSmall", formatFloat(*s.Minimum)))
		}
		if s.Maximum != nil {
			fmt.Fprintf(&b, "\tif %s > %s {\n%s\t}\n", numExpr, formatFloat(*s.Maximum), errStmt("ValueTooLarge", formatFloat(*s.Maximum)))
		}
		if s.ExclusiveMinimum != nil {
			fmt.Fprintf(&b, "\tif %s <= %s {\n%s\t}\n", numExpr, formatFloat(*s.ExclusiveMinimum), errStmt("ValueBelowExclusiveMinimum", formatFloat(*s.ExclusiveMinimum)))
		}
		if s.ExclusiveMaximum != nil {
			fmt.Fprintf(&b, "\tif %s >= %s {\n%s\t}\n", numExpr, formatFloat(*s.ExclusiveMaximum), errStmt("ValueAboveExclusiveMaximum", formatFloat(*s.ExclusiveMaximum)))
		}
		if s.MultipleOf != nil {
			fmt.Fprintf(&b, "\tif !isMultipleOf(%s, %s) {\n%s\t}\n", numExpr, formatFloat(*s.MultipleOf), errStmt("ValueNotMultipleOf", formatFloat(*s.MultipleOf)))
		}
	case s.Kind == openapi.KindArray:
		if s.MinItems != nil {
			fmt.Fprintf(&b, "\tif len(%s) < %d {\n%s\t}\n", valueExpr, *s.MinItems, errStmt("ArrayTooSmall", fmt.Sprintf("%d", *s.MinItems)))
		}
		if s.MaxItems != nil {
			fmt.Fprintf(&b, "\tif len(%s) > %d {\n%s\t}\n", valueExpr, *s.MaxItems, errStmt("ArrayTooLarge", fmt.Sprintf("%d", *s.MaxItems)))
		}
		if s.UniqueItems {
			fmt.Fprintf(&b, "\tif !itemsUnique(%s) {\n%s\t}\n", valueExpr, errStmt("ArrayItemsNotUnique", ""))
		}
		if s.Items != nil && s.Items.Kind == openapi.KindObject && len(s.Items.Properties) > 0 {
			elemType := GoTypeName(s.Items)
			fmt.Fprintf(&b, "\tfor i := range %s {\n\t\tif err := Validate%s(%s[i]); err != nil {\n\t\t\treturn &validation.Error{Field: %q + \"[\" + strconv.Itoa(i) + \"].\" + err.Field, Code: err.Code, Constraint: err.Constraint, HasValue: err.HasValue}\n\t\t}\n\t}\n", valueExpr, elemType, valueExpr, fieldName)
		}
	}

	if s.Kind == openapi.KindObject && len(s.Properties) > 0 {
		nestedType := GoTypeName(s)
		fmt.Fprintf(&b, "\tif err := Validate%s(%s); err != nil {\n\t\treturn &validation.Error{Field: %q + \".\" + err.Field, Code: err.Code, Constraint: err.Constraint, HasValue: err.HasValue}\n\t}\n", nestedType, valueExpr, fieldName)
	}

	return b.String()
}
