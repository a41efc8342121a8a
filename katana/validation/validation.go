// Package validation holds the error-code vocabulary shared between
// codegen-emitted Validate* functions and the runtime JSON parser.
// The message table mirrors nova/router.go's localized
// validationMessages table in shape (a map from code to template), but
// Katana's vocabulary is generator-stable identifiers rather than
// free-form strings, since generated code needs to refer to them
// programmatically.
package validation

import (
	"regexp"
	"time"
)

// ErrorCode enumerates every validation failure the generated validators
// and the runtime can produce.
type ErrorCode uint8

const (
	RequiredFieldMissing ErrorCode = iota
	InvalidType
	StringTooShort
	StringTooLong
	InvalidEmailFormat
	InvalidUUIDFormat
	InvalidDateTimeFormat
	InvalidEnumValue
	PatternMismatch
	ValueTooSmall
	ValueTooLarge
	ValueBelowExclusiveMinimum
	ValueAboveExclusiveMaximum
	ValueNotMultipleOf
	ArrayTooSmall
	ArrayTooLarge
	ArrayItemsNotUnique
)

var messages = map[ErrorCode]string{
	RequiredFieldMissing:       "required field is missing",
	InvalidType:                "invalid type",
	StringTooShort:             "string too short",
	StringTooLong:              "string too long",
	InvalidEmailFormat:         "invalid email format",
	InvalidUUIDFormat:          "invalid uuid format",
	InvalidDateTimeFormat:      "invalid date-time format",
	InvalidEnumValue:           "invalid enum value",
	PatternMismatch:            "pattern mismatch",
	ValueTooSmall:              "value too small",
	ValueTooLarge:              "value too large",
	ValueBelowExclusiveMinimum: "value must be greater than minimum",
	ValueAboveExclusiveMaximum: "value must be less than maximum",
	ValueNotMultipleOf:         "value must be multiple of",
	ArrayTooSmall:              "array too small",
	ArrayTooLarge:              "array too large",
	ArrayItemsNotUnique:        "array items must be unique",
}

// Message returns the canonical message for code, or "unknown error" for
// an out-of-range value.
func (c ErrorCode) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return "unknown error"
}

// Error carries one validation failure: the offending field, the
// machine-checkable code, and (where meaningful) the violated constraint
// value.
type Error struct {
	Field      string
	Code       ErrorCode
	Constraint float64
	HasValue   bool
}

// Error implements the error interface as "<field>: <message>", matching
// the detail strings scenario 3/4 of §8 expect (e.g. "name: required
// field is missing").
func (e *Error) Error() string {
	return e.Field + ": " + e.Code.Message()
}

// Errors collects every violation found while validating one value; a
// generated Validate* function returns the first one and stops (§4.8.3
// is "first failure"), but the runtime JSON parser may accumulate more
// than one per document, so the slice type is shared.
type Errors []*Error

func (es Errors) Error() string {
	if len(es) == 0 {
		return "no validation errors"
	}
	s := es[0].Error()
	for _, e := range es[1:] {
		s += "; " + e.Error()
	}
	return s
}

// emailPattern is a deliberately permissive shape check, not a full
// RFC 5322 validator: generated code needs a fast yes/no, not a mail
// parser.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValidEmail reports whether s has a plausible email shape, used by
// generated validators for format: email fields (§4.8.3).
func IsValidEmail(s string) bool { return emailPattern.MatchString(s) }

// IsValidUUID reports whether s is a canonical hyphenated UUID, used
// by generated validators for format: uuid fields (§4.8.3).
func IsValidUUID(s string) bool { return uuidPattern.MatchString(s) }

// IsValidDateTime reports whether s parses as RFC 3339, used by
// generated validators for format: date-time fields (§4.8.3).
func IsValidDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
