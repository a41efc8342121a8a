package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Limits mirror §4.7's caps: schema nesting depth and total schema count.
const (
	maxSchemaDepth = 64
	maxSchemaCount = 10000
)

// LoadOptions configures Load.
type LoadOptions struct {
	// Strict turns unresolved $ref targets into a fatal ErrInvalidSpec
	// instead of leaving a placeholder schema (§4.7).
	Strict bool
	// NamingStyle selects the inline-schema naming convention:
	// "operation" (default) or "flat".
	NamingStyle string
}

// Load parses JSON OpenAPI 3.x document text into a fully resolved
// Document: components pass, paths pass, $ref resolution, allOf merge,
// then the naming pass (§4.7).
func Load(data []byte, opts LoadOptions) (*Document, error) {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, newError(ErrParse, "", "malformed JSON: %w", err)
	}
	if !strings.HasPrefix(probe.OpenAPI, "3.") {
		return nil, newError(ErrInvalidSpec, "openapi", "unsupported or missing openapi version %q, want 3.x", probe.OpenAPI)
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, newError(ErrParse, "", "malformed document: %w", err)
	}
	if raw.Info.Title == "" && raw.Info.Version == "" {
		return nil, newError(ErrInvalidSpec, "info", "missing required info object")
	}
	if len(raw.Paths) == 0 {
		return nil, newError(ErrInvalidSpec, "paths", "missing required paths object")
	}

	doc := &Document{
		OpenAPIVersion: raw.OpenAPI,
		InfoTitle:      raw.Info.Title,
		InfoVersion:    raw.Info.Version,
	}

	l := &loader{doc: doc, opts: opts, schemaIndex: map[string]*Schema{}}

	if raw.Components != nil {
		l.paramIndex = raw.Components.Parameters
		l.responseIndex = raw.Components.Responses
		l.requestBodyIndex = raw.Components.RequestBodies
		if err := l.loadComponentSchemas(raw.Components.Schemas); err != nil {
			return nil, err
		}
	}

	if err := l.loadPaths(raw.Paths); err != nil {
		return nil, err
	}

	l.resolveAllRefs()
	l.mergeAllOf()

	if opts.Strict {
		if loc, ref, ok := findUnresolvedRef(doc); ok {
			return nil, newError(ErrInvalidSpec, loc, "unresolved $ref %q", ref)
		}
	}

	style := opts.NamingStyle
	if style == "" {
		style = "operation"
	}
	ensureInlineSchemaNames(doc, style)

	if err := validateOperationIDs(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

type loader struct {
	doc         *Document
	opts        LoadOptions
	schemaIndex map[string]*Schema

	paramIndex       map[string]*rawParameter
	responseIndex    map[string]*rawResponse
	requestBodyIndex map[string]*rawRequestBody

	schemaCount int
}

// orderedEntry is one key/raw-value pair recovered from a JSON object
// whose member order the loader must preserve (§4.7: components pass is
// "document order"; schema property declaration order drives field and
// validator ordering downstream).
type orderedEntry struct {
	Key string
	Raw json.RawMessage
}

func decodeOrderedObject(raw json.RawMessage) ([]orderedEntry, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, nil
	}
	var entries []orderedEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		entries = append(entries, orderedEntry{Key: key, Raw: val})
	}
	return entries, nil
}

func (l *loader) loadComponentSchemas(raw json.RawMessage) error {
	entries, err := decodeOrderedObject(raw)
	if err != nil {
		return newError(ErrParse, "components.schemas", "%w", err)
	}
	for _, e := range entries {
		s, err := l.materializeSchema(e.Raw, e.Key, 0, "", "")
		if err != nil {
			return err
		}
		l.schemaIndex[e.Key] = s
	}
	return nil
}

// materializeSchema parses one raw schema node into a *Schema, registers
// it in doc.Schemas, and recurses into nested schemas (properties,
// items, additionalProperties, composites). name, when non-empty, is
// the component name to assign directly (components pass); parentCtx/
// fieldCtx seed the naming pass's context-aware fallback (§4.7/§4.8.1).
func (l *loader) materializeSchema(raw json.RawMessage, name string, depth int, parentCtx, fieldCtx string) (*Schema, error) {
	if depth > maxSchemaDepth {
		return nil, newError(ErrLimitsExceeded, name, "schema nesting exceeds depth %d", maxSchemaDepth)
	}
	l.schemaCount++
	if l.schemaCount > maxSchemaCount {
		return nil, newError(ErrLimitsExceeded, name, "schema count exceeds %d", maxSchemaCount)
	}

	var rs rawSchema
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, newError(ErrParse, name, "malformed schema: %w", err)
	}

	s := &Schema{Name: name, ParentContext: parentCtx, FieldContext: fieldCtx}
	l.doc.Schemas = append(l.doc.Schemas, s)

	if rs.Ref != "" {
		s.IsRef = true
		s.Ref = rs.Ref
		const prefix = "#/components/schemas/"
		if strings.HasPrefix(rs.Ref, prefix) {
			refName := strings.TrimPrefix(rs.Ref, prefix)
			if target, ok := l.schemaIndex[refName]; ok {
				return target, nil
			}
		}
		return s, nil
	}

	switch rs.Type {
	case "object", "":
		s.Kind = KindObject
	case "array":
		s.Kind = KindArray
	case "string":
		s.Kind = KindString
	case "integer":
		s.Kind = KindInteger
	case "number":
		s.Kind = KindNumber
	case "boolean":
		s.Kind = KindBoolean
	default:
		s.Kind = KindObject
	}

	s.Format = rs.Format
	s.Description = rs.Description
	s.Nullable = rs.Nullable
	s.Deprecated = rs.Deprecated
	s.Pattern = rs.Pattern
	s.MinLength = rs.MinLength
	s.MaxLength = rs.MaxLength
	s.Minimum = rs.Minimum
	s.Maximum = rs.Maximum
	s.ExclusiveMinimum = rs.ExclusiveMinimum
	s.ExclusiveMaximum = rs.ExclusiveMaximum
	s.MultipleOf = rs.MultipleOf
	s.MinItems = rs.MinItems
	s.MaxItems = rs.MaxItems
	s.UniqueItems = rs.UniqueItems
	if rs.Discriminator != nil {
		s.Discriminator = rs.Discriminator.PropertyName
	}

	if len(rs.Default) > 0 {
		s.HasDefault = true
		s.Default = literalText(rs.Default)
	}
	if len(rs.Enum) > 0 {
		vals, err := decodeEnumValues(rs.Enum)
		if err != nil {
			return nil, newError(ErrParse, name, "malformed enum: %w", err)
		}
		s.Enum = vals
		if s.Kind == KindObject {
			s.Kind = KindString
		}
	}

	if rs.Items != nil {
		raw, err := json.Marshal(rs.Items)
		if err != nil {
			return nil, err
		}
		items, err := l.materializeSchema(raw, "", depth+1, "", "")
		if err != nil {
			return nil, err
		}
		s.Items = items
	}

	if len(rs.Properties) > 0 {
		entries, err := decodeOrderedObject(rs.Properties)
		if err != nil {
			return nil, newError(ErrParse, name+".properties", "%w", err)
		}
		required := map[string]bool{}
		for _, r := range rs.Required {
			required[r] = true
		}
		for _, e := range entries {
			propParent := name
			if propParent == "" {
				propParent = parentCtx
			}
			propType, err := l.materializeSchema(e.Raw, "", depth+1, propParent, e.Key)
			if err != nil {
				return nil, err
			}
			s.Properties = append(s.Properties, Property{
				Name:     e.Key,
				Type:     propType,
				Required: required[e.Key],
			})
		}
	}

	if len(rs.AdditionalProperties) > 0 {
		var asBool bool
		if err := json.Unmarshal(rs.AdditionalProperties, &asBool); err == nil {
			s.AdditionalPropertiesOK = asBool
		} else {
			ap, err := l.materializeSchema(rs.AdditionalProperties, "", depth+1, "", "")
			if err != nil {
				return nil, err
			}
			s.AdditionalProperties = ap
			s.AdditionalPropertiesOK = true
		}
	} else {
		s.AdditionalPropertiesOK = true
	}

	for _, group := range []struct {
		in  []*rawSchema
		out *[]*Schema
	}{
		{rs.OneOf, &s.OneOf},
		{rs.AnyOf, &s.AnyOf},
		{rs.AllOf, &s.AllOf},
	} {
		for _, child := range group.in {
			raw, err := json.Marshal(child)
			if err != nil {
				return nil, err
			}
			cs, err := l.materializeSchema(raw, "", depth+1, "", "")
			if err != nil {
				return nil, err
			}
			*group.out = append(*group.out, cs)
		}
	}

	return s, nil
}

func literalText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func decodeEnumValues(raw json.RawMessage) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, literalText(it))
	}
	return out, nil
}

func (l *loader) loadPaths(raw json.RawMessage) error {
	entries, err := decodeOrderedObject(raw)
	if err != nil {
		return newError(ErrParse, "paths", "%w", err)
	}
	for _, e := range entries {
		var rp rawPathItem
		if err := json.Unmarshal(e.Raw, &rp); err != nil {
			return newError(ErrParse, "paths."+e.Key, "%w", err)
		}
		item := &PathItem{Path: e.Key}

		verbs := []struct {
			method string
			op     *rawOperation
		}{
			{"GET", rp.Get}, {"POST", rp.Post}, {"PUT", rp.Put},
			{"DELETE", rp.Delete}, {"PATCH", rp.Patch},
			{"HEAD", rp.Head}, {"OPTIONS", rp.Options},
		}
		for _, v := range verbs {
			if v.op == nil {
				continue
			}
			op, err := l.buildOperation(v.method, e.Key, v.op, rp.Parameters)
			if err != nil {
				return err
			}
			item.Operations = append(item.Operations, *op)
		}
		l.doc.Paths = append(l.doc.Paths, item)
	}
	return nil
}

func (l *loader) buildOperation(method, path string, raw *rawOperation, pathLevelParams []*rawParameter) (*Operation, error) {
	op := &Operation{
		Method:           method,
		OperationID:      raw.OperationID,
		Summary:          raw.Summary,
		Description:      raw.Description,
		Deprecated:       raw.Deprecated,
		XKatanaCache:     raw.XKatanaCache,
		XKatanaAlloc:     raw.XKatanaAlloc,
		XKatanaRateLimit: raw.XKatanaRateLimit,
	}

	loc := fmt.Sprintf("paths.%s.%s", path, strings.ToLower(method))

	// Path-level parameters first, then operation-level, matching §4.7's
	// "merging path-level parameters with operation-level ones".
	seen := map[string]bool{}
	for _, group := range [][]*rawParameter{pathLevelParams, raw.Parameters} {
		for _, rp := range group {
			rp, err := l.resolveParamRef(rp)
			if err != nil {
				return nil, newError(ErrInvalidSpec, loc, "%w", err)
			}
			key := rp.In + ":" + rp.Name
			if seen[key] {
				continue
			}
			seen[key] = true
			p, err := l.buildParameter(rp, loc)
			if err != nil {
				return nil, err
			}
			op.Parameters = append(op.Parameters, *p)
		}
	}

	if raw.RequestBody != nil {
		rb, err := l.resolveRequestBodyRef(raw.RequestBody)
		if err != nil {
			return nil, newError(ErrInvalidSpec, loc, "%w", err)
		}
		body, err := l.buildRequestBody(rb, loc)
		if err != nil {
			return nil, err
		}
		op.Body = body
	}

	respEntries, err := decodeOrderedObject(raw.Responses)
	if err != nil {
		return nil, newError(ErrParse, loc+".responses", "%w", err)
	}
	for _, e := range respEntries {
		var rr rawResponse
		if err := json.Unmarshal(e.Raw, &rr); err != nil {
			return nil, newError(ErrParse, loc+".responses", "%w", err)
		}
		resolved, err := l.resolveResponseRef(&rr)
		if err != nil {
			return nil, newError(ErrInvalidSpec, loc, "%w", err)
		}
		resp, err := l.buildResponse(e.Key, resolved, loc)
		if err != nil {
			return nil, err
		}
		op.Responses = append(op.Responses, *resp)
	}

	return op, nil
}

func (l *loader) resolveParamRef(p *rawParameter) (*rawParameter, error) {
	const prefix = "#/components/parameters/"
	for depth := 0; p.Ref != "" && depth < 8; depth++ {
		if !strings.HasPrefix(p.Ref, prefix) {
			return nil, fmt.Errorf("unsupported parameter $ref %q", p.Ref)
		}
		name := strings.TrimPrefix(p.Ref, prefix)
		target, ok := l.paramIndex[name]
		if !ok {
			return nil, fmt.Errorf("unresolved parameter $ref %q", p.Ref)
		}
		p = target
	}
	return p, nil
}

func (l *loader) resolveRequestBodyRef(rb *rawRequestBody) (*rawRequestBody, error) {
	const prefix = "#/components/requestBodies/"
	for depth := 0; rb.Ref != "" && depth < 8; depth++ {
		if !strings.HasPrefix(rb.Ref, prefix) {
			return nil, fmt.Errorf("unsupported requestBody $ref %q", rb.Ref)
		}
		name := strings.TrimPrefix(rb.Ref, prefix)
		target, ok := l.requestBodyIndex[name]
		if !ok {
			return nil, fmt.Errorf("unresolved requestBody $ref %q", rb.Ref)
		}
		rb = target
	}
	return rb, nil
}

func (l *loader) resolveResponseRef(rr *rawResponse) (*rawResponse, error) {
	const prefix = "#/components/responses/"
	for depth := 0; rr.Ref != "" && depth < 8; depth++ {
		if !strings.HasPrefix(rr.Ref, prefix) {
			return nil, fmt.Errorf("unsupported response $ref %q", rr.Ref)
		}
		name := strings.TrimPrefix(rr.Ref, prefix)
		target, ok := l.responseIndex[name]
		if !ok {
			return nil, fmt.Errorf("unresolved response $ref %q", rr.Ref)
		}
		rr = target
	}
	return rr, nil
}

func (l *loader) buildParameter(rp *rawParameter, loc string) (*Parameter, error) {
	var in ParamLocation
	switch rp.In {
	case "path":
		in = InPath
	case "query":
		in = InQuery
	case "header":
		in = InHeader
	case "cookie":
		in = InCookie
	default:
		return nil, newError(ErrInvalidSpec, loc, "unknown parameter location %q", rp.In)
	}
	required := rp.Required || in == InPath

	var schemaType *Schema
	if rp.Schema != nil {
		raw, err := json.Marshal(rp.Schema)
		if err != nil {
			return nil, err
		}
		s, err := l.materializeSchema(raw, "", 0, "", rp.Name)
		if err != nil {
			return nil, err
		}
		schemaType = s
	} else {
		schemaType = l.doc.AddSchema(KindString)
	}

	return &Parameter{Name: rp.Name, In: in, Required: required, Type: schemaType}, nil
}

func (l *loader) buildRequestBody(rb *rawRequestBody, loc string) (*RequestBody, error) {
	body := &RequestBody{Description: rb.Description}
	content, err := l.buildMediaTypes(rb.Content, loc+".requestBody")
	if err != nil {
		return nil, err
	}
	body.Content = content
	return body, nil
}

func (l *loader) buildResponse(status string, rr *rawResponse, loc string) (*Response, error) {
	resp := &Response{Description: rr.Description, IsDefault: status == "default"}
	if status == "default" {
		resp.Status = 0
	} else {
		n, err := strconv.Atoi(status)
		if err != nil || n < 100 || n > 599 {
			return nil, newError(ErrInvalidSpec, loc+".responses."+status, "invalid HTTP status %q", status)
		}
		resp.Status = n
	}
	content, err := l.buildMediaTypes(rr.Content, loc+".responses."+status)
	if err != nil {
		return nil, err
	}
	resp.Content = content
	return resp, nil
}

func (l *loader) buildMediaTypes(raw json.RawMessage, loc string) ([]MediaType, error) {
	entries, err := decodeOrderedObject(raw)
	if err != nil {
		return nil, newError(ErrParse, loc+".content", "%w", err)
	}
	var out []MediaType
	for _, e := range entries {
		var mt rawMediaType
		if err := json.Unmarshal(e.Raw, &mt); err != nil {
			return nil, newError(ErrParse, loc+".content."+e.Key, "%w", err)
		}
		var schemaType *Schema
		if mt.Schema != nil {
			raw, err := json.Marshal(mt.Schema)
			if err != nil {
				return nil, err
			}
			s, err := l.materializeSchema(raw, "", 0, "", "")
			if err != nil {
				return nil, err
			}
			schemaType = s
		}
		out = append(out, MediaType{ContentType: e.Key, Type: schemaType})
	}
	return out, nil
}

// refCtx carries cycle-detection state for one resolveAllRefs sweep,
// mirroring ref_resolution_context in the original loader.
type refCtx struct {
	index    map[string]*Schema
	visiting map[*Schema]bool
	visited  map[*Schema]bool
}

func resolveSchemaRef(s *Schema, ctx *refCtx) *Schema {
	if s == nil || !s.IsRef || s.Ref == "" {
		return s
	}
	if ctx.visiting[s] {
		return nil
	}
	if ctx.visited[s] {
		return s
	}
	ctx.visiting[s] = true

	const prefix = "#/components/schemas/"
	if strings.HasPrefix(s.Ref, prefix) {
		name := strings.TrimPrefix(s.Ref, prefix)
		if resolved, ok := ctx.index[name]; ok {
			if resolved != nil && resolved.IsRef {
				resolved = resolveSchemaRef(resolved, ctx)
			}
			delete(ctx.visiting, s)
			ctx.visited[s] = true
			return resolved
		}
	}
	delete(ctx.visiting, s)
	ctx.visited[s] = true
	return s
}

func resolveAllRefsInSchema(s *Schema, ctx *refCtx) {
	if s == nil || ctx.visited[s] {
		return
	}
	ctx.visited[s] = true

	for i := range s.Properties {
		p := &s.Properties[i]
		if p.Type != nil && p.Type.IsRef && p.Type.Ref != "" {
			if resolved := resolveSchemaRef(p.Type, ctx); resolved != nil && resolved != p.Type {
				p.Type = resolved
			}
		}
		if p.Type != nil {
			resolveAllRefsInSchema(p.Type, ctx)
		}
	}

	if s.Items != nil && s.Items.IsRef && s.Items.Ref != "" {
		if resolved := resolveSchemaRef(s.Items, ctx); resolved != nil && resolved != s.Items {
			s.Items = resolved
		}
	}
	if s.Items != nil {
		resolveAllRefsInSchema(s.Items, ctx)
	}

	if s.AdditionalProperties != nil && s.AdditionalProperties.IsRef && s.AdditionalProperties.Ref != "" {
		if resolved := resolveSchemaRef(s.AdditionalProperties, ctx); resolved != nil && resolved != s.AdditionalProperties {
			s.AdditionalProperties = resolved
		}
	}
	if s.AdditionalProperties != nil {
		resolveAllRefsInSchema(s.AdditionalProperties, ctx)
	}

	for i, child := range s.OneOf {
		if child != nil && child.IsRef && child.Ref != "" {
			if resolved := resolveSchemaRef(child, ctx); resolved != nil && resolved != child {
				s.OneOf[i] = resolved
				child = resolved
			}
		}
		resolveAllRefsInSchema(child, ctx)
	}
	for i, child := range s.AnyOf {
		if child != nil && child.IsRef && child.Ref != "" {
			if resolved := resolveSchemaRef(child, ctx); resolved != nil && resolved != child {
				s.AnyOf[i] = resolved
				child = resolved
			}
		}
		resolveAllRefsInSchema(child, ctx)
	}
	for i, child := range s.AllOf {
		if child != nil && child.IsRef && child.Ref != "" {
			if resolved := resolveSchemaRef(child, ctx); resolved != nil && resolved != child {
				s.AllOf[i] = resolved
				child = resolved
			}
		}
		resolveAllRefsInSchema(child, ctx)
	}
}

func (l *loader) resolveAllRefs() {
	ctx := &refCtx{index: l.schemaIndex, visiting: map[*Schema]bool{}, visited: map[*Schema]bool{}}
	for _, s := range l.doc.Schemas {
		resolveAllRefsInSchema(s, ctx)
	}
	for _, p := range l.doc.Paths {
		for oi := range p.Operations {
			op := &p.Operations[oi]
			for pi := range op.Parameters {
				fixupRoot(&op.Parameters[pi].Type, ctx)
			}
			if op.Body != nil {
				for mi := range op.Body.Content {
					fixupRoot(&op.Body.Content[mi].Type, ctx)
				}
			}
			for ri := range op.Responses {
				for mi := range op.Responses[ri].Content {
					fixupRoot(&op.Responses[ri].Content[mi].Type, ctx)
				}
			}
		}
	}
}

func fixupRoot(root **Schema, ctx *refCtx) {
	if *root == nil {
		return
	}
	if (*root).IsRef && (*root).Ref != "" {
		if resolved := resolveSchemaRef(*root, ctx); resolved != nil && resolved != *root {
			*root = resolved
		}
	}
	resolveAllRefsInSchema(*root, ctx)
}

// findUnresolvedRef walks every schema reachable from an operation (and,
// as a fallback, every component schema) looking for a placeholder left
// behind by resolveAllRefs: a $ref that named no known component or that
// closed a cycle (§4.7, strict mode). It reports the first one found.
func findUnresolvedRef(doc *Document) (location, ref string, found bool) {
	// Every $ref leaves a placeholder in doc.Schemas, even when it was
	// resolved; only refs that name no concrete component count.
	known := map[string]bool{}
	for _, s := range doc.Schemas {
		if s.Name != "" && !s.IsRef {
			known["#/components/schemas/"+s.Name] = true
		}
	}
	visited := map[*Schema]bool{}
	var walk func(s *Schema, loc string) bool
	walk = func(s *Schema, loc string) bool {
		if s == nil || visited[s] {
			return false
		}
		visited[s] = true
		if s.IsRef && s.Ref != "" && !known[s.Ref] {
			location, ref, found = loc, s.Ref, true
			return true
		}
		for _, p := range s.Properties {
			if walk(p.Type, loc) {
				return true
			}
		}
		if walk(s.Items, loc) {
			return true
		}
		if walk(s.AdditionalProperties, loc) {
			return true
		}
		for _, c := range s.OneOf {
			if walk(c, loc) {
				return true
			}
		}
		for _, c := range s.AnyOf {
			if walk(c, loc) {
				return true
			}
		}
		for _, c := range s.AllOf {
			if walk(c, loc) {
				return true
			}
		}
		return false
	}

	for _, p := range doc.Paths {
		for _, op := range p.Operations {
			loc := fmt.Sprintf("paths.%s.%s", p.Path, strings.ToLower(op.Method))
			for _, param := range op.Parameters {
				if walk(param.Type, loc) {
					return
				}
			}
			if op.Body != nil {
				for _, mt := range op.Body.Content {
					if walk(mt.Type, loc) {
						return
					}
				}
			}
			for _, resp := range op.Responses {
				for _, mt := range resp.Content {
					if walk(mt.Type, loc) {
						return
					}
				}
			}
		}
	}
	for _, s := range doc.Schemas {
		if walk(s, "components.schemas") {
			return
		}
	}
	return "", "", false
}

// mergeAllOf flattens every schema's allOf composite into its own
// Properties list, preserving order and keeping the first occurrence of
// a duplicated property name (§4.7).
func (l *loader) mergeAllOf() {
	seen := map[*Schema]bool{}
	for _, s := range l.doc.Schemas {
		mergeAllOfSchema(s, seen)
	}
}

func mergeAllOfSchema(s *Schema, seen map[*Schema]bool) {
	if s == nil || seen[s] {
		return
	}
	seen[s] = true
	for _, child := range s.AllOf {
		mergeAllOfSchema(child, seen)
	}
	for _, p := range s.Properties {
		if p.Type != nil {
			mergeAllOfSchema(p.Type, seen)
		}
	}
	if s.Items != nil {
		mergeAllOfSchema(s.Items, seen)
	}

	if len(s.AllOf) == 0 {
		return
	}

	var merged []Property
	seenNames := map[string]bool{}
	add := func(props []Property) {
		for _, p := range props {
			if seenNames[p.Name] {
				continue
			}
			seenNames[p.Name] = true
			merged = append(merged, p)
		}
	}
	for _, child := range s.AllOf {
		if child != nil {
			add(child.Properties)
		}
	}
	add(s.Properties)

	s.Properties = merged
	s.Kind = KindObject
}

func validateOperationIDs(doc *Document) error {
	seen := map[string]bool{}
	for _, p := range doc.Paths {
		for _, op := range p.Operations {
			if op.OperationID == "" {
				continue
			}
			if seen[op.OperationID] {
				return newError(ErrInvalidSpec, p.Path, "duplicate operationId %q", op.OperationID)
			}
			seen[op.OperationID] = true
		}
	}
	return nil
}

// SanitizeIdentifier rewrites name into `[A-Za-z_][A-Za-z0-9_]*`,
// mapping every other byte to '_' and prefixing an underscore if the
// result would start with a digit or be empty. Ported from
// generator_utils.cpp's sanitize_identifier.
func SanitizeIdentifier(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 2)
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	id := b.String()
	if id == "" || unicode.IsDigit(rune(id[0])) {
		id = "_" + id
	}
	return id
}

// ensureInlineSchemaNames assigns a unique identifier to every schema
// reachable from an operation's body, parameters, or responses that
// doesn't already have one, then sweeps any still-unnamed schema.
// Ported from generator_utils.cpp's ensure_inline_schema_names.
func ensureInlineSchemaNames(doc *Document, style string) {
	used := map[string]bool{}
	for _, s := range doc.Schemas {
		if s.Name != "" {
			used[s.Name] = true
		}
	}

	flat := style == "flat" || style == "short" || style == "sequential"
	inlineCounter := 0

	uniqueName := func(base string) string {
		base = SanitizeIdentifier(base)
		if base == "" {
			base = "schema"
		}
		candidate := base
		idx := 0
		for used[candidate] {
			idx++
			candidate = fmt.Sprintf("%s_%d", base, idx)
		}
		used[candidate] = true
		return candidate
	}

	nextFlatName := func() string {
		inlineCounter++
		return fmt.Sprintf("InlineSchema%d", inlineCounter)
	}

	assignIfEmpty := func(s *Schema, baseFn func() string) {
		if s == nil || s.Name != "" {
			return
		}
		if s.ParentContext != "" && s.FieldContext != "" {
			field := s.FieldContext
			field = strings.ToUpper(field[:1]) + field[1:]
			s.Name = uniqueName(s.ParentContext + "_" + field + "_t")
			return
		}
		s.Name = uniqueName(baseFn())
	}

	for _, path := range doc.Paths {
		for oi := range path.Operations {
			op := &path.Operations[oi]
			opBase := op.OperationID
			if opBase != "" {
				opBase = SanitizeIdentifier(opBase)
			} else {
				opBase = SanitizeIdentifier(strings.ToLower(op.Method) + "_" + path.Path)
			}

			if op.Body != nil {
				for mi := range op.Body.Content {
					media := &op.Body.Content[mi]
					idx := mi
					assignIfEmpty(media.Type, func() string {
						if flat {
							return nextFlatName()
						}
						return fmt.Sprintf("%s_body_%d", opBase, idx)
					})
				}
			}

			for pi := range op.Parameters {
				param := &op.Parameters[pi]
				assignIfEmpty(param.Type, func() string {
					if flat {
						return nextFlatName()
					}
					return opBase + "_param_" + SanitizeIdentifier(param.Name)
				})
			}

			for ri := range op.Responses {
				resp := &op.Responses[ri]
				status := "default"
				if !resp.IsDefault {
					status = strconv.Itoa(resp.Status)
				}
				for mi := range resp.Content {
					media := &resp.Content[mi]
					idx := mi
					assignIfEmpty(media.Type, func() string {
						if flat {
							return nextFlatName()
						}
						return fmt.Sprintf("%s_resp_%s_%d", opBase, status, idx)
					})
				}
			}
		}
	}

	for _, s := range doc.Schemas {
		assignIfEmpty(s, func() string {
			if flat {
				return nextFlatName()
			}
			return "schema"
		})
	}
}
