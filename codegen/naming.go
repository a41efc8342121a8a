package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/katana-http/katana/openapi"
)

// ToPascalCase turns a sanitized identifier into an exported Go name.
// It splits on '_' and capitalizes each part; a part that already
// mixes case (e.g. an operationId like "listUsers") is assumed to
// already be word-cased internally and only has its first rune
// capitalized. Ported in spirit from generator_utils.cpp's
// to_snake_case (the inverse direction: Go wants exported CamelCase
// method and field names, not C++'s snake_case).
func ToPascalCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if hasUpper(p) {
			b.WriteString(strings.ToUpper(p[:1]) + p[1:])
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + strings.ToLower(p[1:]))
	}
	out := b.String()
	if out == "" {
		return "X"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "X" + out
	}
	return out
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// ToSnakeCase lower_snakes a CamelCase or mixedCase identifier.
// Ported from generator_utils.cpp's to_snake_case.
func ToSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GoTypeName resolves the exported Go identifier for a schema's entity
// type. By the time codegen runs, the loader's naming pass (§4.7) has
// already assigned every reachable schema a Name; this is the single
// point that turns that name into a Go-safe exported identifier.
func GoTypeName(s *openapi.Schema) string {
	if s == nil {
		return "any"
	}
	name := s.Name
	if name == "" {
		name = "Schema"
	}
	return ToPascalCase(openapi.SanitizeIdentifier(name))
}

// GoFieldName resolves the exported Go struct field name for an
// object property.
func GoFieldName(propName string) string {
	return ToPascalCase(openapi.SanitizeIdentifier(propName))
}

// GoMethodName resolves the exported Go handler-interface method name
// for an operationId (§4.8.5: "operations with an operation_id get a
// ... method name").
func GoMethodName(operationID string) string {
	return ToPascalCase(openapi.SanitizeIdentifier(operationID))
}

// GoParamName resolves an unexported Go local/parameter name.
func GoParamName(name string) string {
	id := openapi.SanitizeIdentifier(name)
	if strings.Trim(id, "_") == "" {
		return "v"
	}
	pascal := ToPascalCase(id)
	return strings.ToLower(pascal[:1]) + pascal[1:]
}

// EnumCaseName resolves one enum value's exported Go case identifier,
// avoiding collisions against the other cases of the same enum by
// prefixing "Value" (§4.8.1: "collisions are resolved by prefixing
// with value_").
func EnumCaseName(value string, used map[string]bool) string {
	base := ToPascalCase(openapi.SanitizeIdentifier(value))
	if base == "" {
		base = "Empty"
	}
	if unicode.IsDigit(rune(base[0])) {
		base = "Value" + base
	}
	candidate := base
	if used[candidate] {
		candidate = "Value" + base
	}
	for i := 1; used[candidate]; i++ {
		candidate = fmt.Sprintf("Value%s%d", base, i)
	}
	used[candidate] = true
	return candidate
}

// OperationBaseName derives a stable identifier for an operation
// lacking (or independent of) an operationId, used for route-table
// and glue naming: "GET /users/{id}" -> "GetUsersId".
func OperationBaseName(method, path string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '{' || r == '}' {
			return -1
		}
		if r == '/' || r == '-' || r == '.' {
			return '_'
		}
		return r
	}, path)
	return ToPascalCase(openapi.SanitizeIdentifier(strings.ToLower(method) + "_" + cleaned))
}
