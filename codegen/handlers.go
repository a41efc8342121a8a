package codegen

import (
	"fmt"
	"strings"

	"github.com/katana-http/katana/openapi"
)

// successResponse picks the response glue.go treats as "the" handler
// return value: the first non-default 2xx response, returned with a nil
// media type when that response has no content. §4.8.5's tagged-union-over-media-types behavior for multi-content
// bodies is out of scope here (see DESIGN.md); the first declared
// media type of that response is used.
func successResponse(op *openapi.Operation) (*openapi.Response, *openapi.MediaType) {
	for i := range op.Responses {
		r := &op.Responses[i]
		if r.IsDefault || r.Status < 200 || r.Status >= 300 {
			continue
		}
		if len(r.Content) == 0 {
			return r, nil
		}
		return r, &r.Content[0]
	}
	return nil, nil
}

// bodyParamType resolves the Go type of an operation's request body
// parameter: the first media type's entity, or []byte when the body
// has no schema (e.g. a raw upload).
func bodyParamType(body *openapi.RequestBody) string {
	if body == nil || len(body.Content) == 0 {
		return "[]byte"
	}
	if body.Content[0].Type == nil {
		return "[]byte"
	}
	return GoFieldType(body.Content[0].Type)
}

func paramGoType(p *openapi.Parameter) string {
	t := GoFieldType(p.Type)
	if !p.Required {
		return "*" + t
	}
	return t
}

// handlerParams synthesizes one operation's method parameter list in
// §4.8.5's order: path parameters (declaration order), then query/
// header/cookie parameters (declaration order, optional wrapped),
// then the request body last.
func handlerParams(op *openapi.Operation) []string {
	params := []string{"ctx context.Context"}
	for _, p := range op.Parameters {
		if p.In != openapi.InPath {
			continue
		}
		params = append(params, fmt.Sprintf("%s %s", GoParamName(p.Name), paramGoType(&p)))
	}
	for _, p := range op.Parameters {
		if p.In == openapi.InPath {
			continue
		}
		pp := p
		params = append(params, fmt.Sprintf("%s %s", GoParamName(p.Name), paramGoType(&pp)))
	}
	if op.Body != nil && len(op.Body.Content) > 0 {
		params = append(params, "body "+bodyParamType(op.Body))
	}
	return params
}

// GenerateHandlers emits the Handler interface: one method per
// operation_id with a deterministically synthesized parameter list and
// a return type matching its success response's entity (§4.8.5).
//
// Grounded on router_generator.cpp's generate_handler_interfaces,
// translated from a C++ virtual base class to a Go interface.
func GenerateHandlers(doc *openapi.Document) (string, error) {
	var b strings.Builder
	b.WriteString("// Handler is implemented by the application: one method per\n")
	b.WriteString("// operation_id, parameters synthesized per §4.8.5.\n")
	b.WriteString("type Handler interface {\n")
	for _, path := range doc.Paths {
		for _, op := range path.Operations {
			if op.OperationID == "" {
				continue
			}
			_, mt := successResponse(&op)
			resultType := "struct{}"
			if mt != nil && mt.Type != nil {
				resultType = GoFieldType(mt.Type)
			}
			method := GoMethodName(op.OperationID)
			if op.XKatanaCache != "" {
				fmt.Fprintf(&b, "\t// %s: cache hint %q.\n", method, op.XKatanaCache)
			}
			if op.XKatanaRateLimit != "" {
				fmt.Fprintf(&b, "\t// %s: rate-limit hint %q.\n", method, op.XKatanaRateLimit)
			}
			fmt.Fprintf(&b, "\t%s(%s) (%s, error)\n", method, strings.Join(handlerParams(&op), ", "), resultType)
		}
	}
	b.WriteString("}\n\n")
	return RenderFile(PackageName, []string{"context"}, b.String())
}
