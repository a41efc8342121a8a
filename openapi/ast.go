package openapi

// SchemaKind tags the shape a Schema describes (§3.2).
type SchemaKind uint8

const (
	KindObject SchemaKind = iota
	KindArray
	KindString
	KindInteger
	KindNumber
	KindBoolean
	KindNull
)

func (k SchemaKind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// ParamLocation is where a Parameter is carried on the wire (§3.2).
type ParamLocation uint8

const (
	InPath ParamLocation = iota
	InQuery
	InHeader
	InCookie
)

func (l ParamLocation) String() string {
	switch l {
	case InPath:
		return "path"
	case InQuery:
		return "query"
	case InHeader:
		return "header"
	case InCookie:
		return "cookie"
	default:
		return "unknown"
	}
}

// Property is one named, possibly-required field of an object Schema.
type Property struct {
	Name     string
	Type     *Schema
	Required bool
}

// Schema is the resolved, build-time representation of one OpenAPI
// schema node (§3.2). Schemas are owned by Document.Schemas and
// referred to by pointer elsewhere in the AST — the Go analogue of the
// original's arena-owned contiguous list (Design Notes: "arena +
// indices instead of shared pointers"; a Go slice of *Schema already
// gives stable-until-growth pointers without an arena, and the slice
// itself is the index space the naming pass and generator walk).
type Schema struct {
	Kind SchemaKind
	Name string // identifier assigned by the naming pass; may start empty

	Format      string
	Description string
	Default     string
	HasDefault  bool
	Nullable    bool
	Deprecated  bool

	// String constraints.
	MinLength *int
	MaxLength *int
	Pattern   string
	Enum      []string

	// Numeric constraints.
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64

	// Array constraints.
	Items       *Schema
	MinItems    *int
	MaxItems    *int
	UniqueItems bool

	// Object shape.
	Properties            []Property
	AdditionalProperties  *Schema
	AdditionalPropertiesOK bool // additionalProperties: true|false when no schema given
	Discriminator         string

	OneOf []*Schema
	AnyOf []*Schema
	AllOf []*Schema

	// Reference bookkeeping. IsRef and Ref survive resolution only for
	// placeholder schemas the loader could not resolve (§4.7: "Unknown
	// references are left as placeholder schemas").
	IsRef bool
	Ref   string

	// Naming context for ensure_inline_schema_names (§4.7).
	ParentContext string
	FieldContext  string
}

// IsEnum reports whether s is a string schema with enumerated values,
// which the generator emits as a sum type instead of a scalar alias.
func (s *Schema) IsEnum() bool {
	return s != nil && s.Kind == KindString && len(s.Enum) > 0
}

// Parameter is one operation or path-level parameter (§3.2).
type Parameter struct {
	Name     string
	In       ParamLocation
	Required bool
	Type     *Schema
}

// MediaType pairs a MIME type with the schema of its body (§3.2).
type MediaType struct {
	ContentType string
	Type        *Schema
}

// RequestBody is an operation's body (§3.2).
type RequestBody struct {
	Description string
	Content     []MediaType
}

// Response is one documented response for an operation (§3.2).
type Response struct {
	Status    int
	IsDefault bool
	Description string
	Content   []MediaType
}

// Operation is one method+path pairing with its parameters, optional
// body, and responses (§3.2).
type Operation struct {
	Method      string
	OperationID string
	Summary     string
	Description string
	Deprecated  bool
	Parameters  []Parameter
	Body        *RequestBody
	Responses   []Response

	XKatanaCache     string
	XKatanaAlloc     string
	XKatanaRateLimit string
}

// PathItem groups every operation declared for one URI template (§3.2).
type PathItem struct {
	Path       string
	Operations []Operation
}

// Document is the frozen, fully-resolved OpenAPI AST the generator
// reads (§3.2). Lifecycle: built during Load, mutated by the naming
// pass, then read-only for every generator pass.
type Document struct {
	OpenAPIVersion string
	InfoTitle      string
	InfoVersion    string

	Schemas []*Schema
	Paths   []*PathItem
}

// AddSchema appends a new, initially-anonymous schema of kind and
// returns it, mirroring document::add_inline_schema.
func (d *Document) AddSchema(kind SchemaKind) *Schema {
	s := &Schema{Kind: kind}
	d.Schemas = append(d.Schemas, s)
	return s
}
