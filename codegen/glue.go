package codegen

import (
	"fmt"
	"strings"

	"github.com/katana-http/katana/openapi"
)

// GenerateGlue emits the binding glue (§4.8.6): one bindXxx function per
// operation_id that extracts and converts path/query/header/cookie
// parameters, parses and validates a request body when present, calls
// the matching Handler method, and serializes its result — plus a
// RegisterRoutes function that wires every bindXxx into a
// katana/router.Router.
//
// Content negotiation (404/405/415/406) is already owned by
// router.Dispatch before a route's Handler ever runs (§4.4), so glue
// only needs to produce 400 for parameter/body parsing and validation
// failures, and 500 for a handler-returned error; every other response
// is the handler's own serialized result.
//
// Grounded on router_generator.cpp's generate_binding_glue, adapted
// from a C++ std::function closure capturing typed arguments to a Go
// closure over *router.Context; the C++ optional-parameter handling
// becomes Go's nil-pointer convention, matching codegen/handlers.go's
// parameter synthesis order exactly.
func GenerateGlue(doc *openapi.Document, mode AllocatorMode) (string, error) {
	needsURL := false
	needsHeaders := false
	needsJSONCursor := false
	needsValidation := false
	for _, path := range doc.Paths {
		for _, op := range path.Operations {
			if op.OperationID == "" {
				continue
			}
			for _, p := range op.Parameters {
				switch p.In {
				case openapi.InPath, openapi.InQuery:
					needsURL = true
				case openapi.InCookie:
					needsHeaders = true
				}
			}
			if op.Body != nil && len(op.Body.Content) > 0 && op.Body.Content[0].Type != nil {
				needsJSONCursor = true
				bs := op.Body.Content[0].Type
				if bs.Kind == openapi.KindObject && len(bs.Properties) > 0 {
					needsValidation = true
				}
			}
		}
	}

	var b strings.Builder
	b.WriteString(gluePreamble)

	var registerLines []string
	for _, path := range doc.Paths {
		for _, op := range path.Operations {
			if op.OperationID == "" {
				continue
			}
			fnName := "bind" + GoMethodName(op.OperationID)
			emitBindFunc(&b, path.Path, &op, fnName, mode)

			var opts []string
			if consumes := mediaTypes(op.Body); len(consumes) > 0 {
				opts = append(opts, fmt.Sprintf("router.Consumes(%s)", quotedArgs(consumes)))
			}
			if produces := responseMediaTypes(op.Responses); len(produces) > 0 {
				opts = append(opts, fmt.Sprintf("router.Produces(%s)", quotedArgs(produces)))
			}
			optsStr := ""
			if len(opts) > 0 {
				optsStr = ", " + strings.Join(opts, ", ")
			}
			registerLines = append(registerLines, fmt.Sprintf(
				"\trt.Add(%q, %q, func(ctx *router.Context) error { return %s(ctx, impl) }%s)",
				op.Method, path.Path, fnName, optsStr))
		}
	}

	b.WriteString("// RegisterRoutes wires every generated operation into rt, dispatching\n")
	b.WriteString("// each matched request to the corresponding impl method (§4.8.6).\n")
	b.WriteString("func RegisterRoutes(rt *router.Router, impl Handler) {\n")
	b.WriteString(strings.Join(registerLines, "\n"))
	b.WriteString("\n}\n")

	imports := []string{
		"context",
		"strconv",
		"github.com/katana-http/katana/katana/problem",
		"github.com/katana-http/katana/katana/router",
	}
	if needsURL {
		imports = append(imports, "net/url")
	}
	if needsHeaders {
		imports = append(imports, "github.com/katana-http/katana/katana/headers")
	}
	if needsJSONCursor {
		imports = append(imports, "github.com/katana-http/katana/katana/jsoncursor")
	}
	if needsValidation {
		imports = append(imports, "github.com/katana-http/katana/katana/validation")
	}
	return RenderFile(PackageName, imports, b.String())
}

// gluePreamble defines the two helpers every bindXxx function shares:
// a problem-details writer and a status-line reason-phrase table.
const gluePreamble = `// writeProblem writes d directly to ctx.Writer. The calling bind
// function then returns nil, which router.Dispatch reports as a
// successful response (§4.4): the problem body is already the complete
// response, there is nothing left for Dispatch to add.
func writeProblem(ctx *router.Context, d problem.Details) {
	body, err := d.MarshalJSON()
	if err != nil {
		body = []byte(` + "`" + `{"title":"Internal Server Error","status":500}` + "`" + `)
	}
	ctx.Writer.WriteStatus(d.Status, d.Title)
	ctx.Writer.WriteHeader("Content-Type", problem.ContentType)
	ctx.Writer.WriteHeader("Content-Length", strconv.Itoa(len(body)))
	ctx.Writer.EndHeaders()
	ctx.Writer.WriteBody(body)
}

// statusReason maps a success status code to its reason phrase.
func statusReason(status int) string {
	switch status {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 202:
		return "Accepted"
	case 204:
		return "No Content"
	default:
		return "OK"
	}
}

`

// quotedArgs renders items as a comma-separated list of quoted string
// literals suitable for a variadic call site.
func quotedArgs(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

func indentLines(s, prefix string) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// paramConvertBlock emits the declare-and-convert statements for one
// scalar or enum parameter value already bound to rawExpr, reporting a
// 400 on conversion failure. Object/array-shaped parameters are not
// generated here (see DESIGN.md): OpenAPI's "simple" parameter styles
// are scalar/enum in practice, and the fallback below leaves varName
// as the raw string, which only compiles when the declared parameter
// type is itself string.
func paramConvertBlock(varName, rawExpr string, s *openapi.Schema, locLabel, paramName string, idx int) string {
	detail := fmt.Sprintf("invalid %s %q", locLabel, paramName)
	switch {
	case s.IsEnum():
		return fmt.Sprintf("%s, pok%d := Parse%s(%s)\nif !pok%d {\n\twriteProblem(ctx, problem.BadRequest(%q))\n\treturn nil\n}\n",
			varName, idx, GoTypeName(s), rawExpr, idx, detail)
	case s.Kind == openapi.KindInteger:
		return fmt.Sprintf("%s, perr%d := strconv.ParseInt(%s, 10, 64)\nif perr%d != nil {\n\twriteProblem(ctx, problem.BadRequest(%q))\n\treturn nil\n}\n",
			varName, idx, rawExpr, idx, detail)
	case s.Kind == openapi.KindNumber:
		return fmt.Sprintf("%s, perr%d := strconv.ParseFloat(%s, 64)\nif perr%d != nil {\n\twriteProblem(ctx, problem.BadRequest(%q))\n\treturn nil\n}\n",
			varName, idx, rawExpr, idx, detail)
	case s.Kind == openapi.KindBoolean:
		return fmt.Sprintf("%s, perr%d := strconv.ParseBool(%s)\nif perr%d != nil {\n\twriteProblem(ctx, problem.BadRequest(%q))\n\treturn nil\n}\n",
			varName, idx, rawExpr, idx, detail)
	default:
		return fmt.Sprintf("%s := %s\n", varName, rawExpr)
	}
}

// bodyBindStmts emits the parse-validate-assign block for an
// operation's request body, dispatching to the matching generated
// Parse_T by schema kind exactly as codec.go's fieldParseStmt does for
// nested fields. A body with no schema (an untyped upload) is bound as
// the raw bytes with no parse step. An object body's Parse_T reports a
// missing required property by name (§4.8.3); that becomes a 400 with
// "<field>: required field is missing" rather than the generic
// malformed-body message (§4.8.6, §7, §8 scenario 3).
func bodyBindStmts(body *openapi.RequestBody, mode AllocatorMode) string {
	if body == nil || len(body.Content) == 0 {
		return ""
	}
	s := body.Content[0].Type
	if s == nil {
		return "var body []byte\nbody = ctx.Body\n"
	}

	arenaArg := "nil"
	if mode == AllocatorArena {
		arenaArg = "ctx.Arena"
	}

	var parseCall string
	switch {
	case s.IsEnum():
		parseCall = fmt.Sprintf(`raw, ok := cur.ParseString()
if !ok {
	writeProblem(ctx, problem.BadRequest("malformed request body"))
	return nil
}
parsed, ok := Parse%s(raw)
if !ok {
	writeProblem(ctx, problem.BadRequest("malformed request body"))
	return nil
}
`, GoTypeName(s))
	case s.Kind == openapi.KindArray:
		parseCall = fmt.Sprintf(`parsed, ok := Parse%sArray(cur)
if !ok {
	writeProblem(ctx, problem.BadRequest("malformed request body"))
	return nil
}
`, GoTypeName(s))
	case s.Kind == openapi.KindObject && len(s.Properties) > 0:
		// Parse_T's third return is the name of a missing required
		// property, if that is why parsing failed (§4.8.3's
		// required_field_missing row); empty for any other failure.
		parseCall = fmt.Sprintf(`parsed, ok, missingField := Parse%s(cur)
if !ok {
	if missingField != "" {
		writeProblem(ctx, problem.BadRequest((&validation.Error{Field: missingField, Code: validation.RequiredFieldMissing}).Error()))
	} else {
		writeProblem(ctx, problem.BadRequest("malformed request body"))
	}
	return nil
}
`, GoTypeName(s))
	default:
		parseCall = fmt.Sprintf(`parsed, ok := Parse%s(cur)
if !ok {
	writeProblem(ctx, problem.BadRequest("malformed request body"))
	return nil
}
`, GoTypeName(s))
	}

	validateCall := ""
	if s.Kind == openapi.KindObject && len(s.Properties) > 0 {
		validateCall = fmt.Sprintf(`if verr := Validate%s(parsed); verr != nil {
	writeProblem(ctx, problem.BadRequest(verr.Error()))
	return nil
}
`, GoTypeName(s))
	}

	return fmt.Sprintf(`var body %s
{
	if len(ctx.Body) == 0 {
		writeProblem(ctx, problem.BadRequest("missing request body"))
		return nil
	}
	cur := jsoncursor.New(ctx.Body, %s)
%s%sbody = parsed
}
`, GoFieldType(s), arenaArg, indentLines(parseCall, "\t"), indentLines(validateCall, "\t"))
}

// responseBlock emits the final serialize-and-write statements for an
// operation's success response, per §4.8.5's response-selection rule
// (successResponse): no-content responses write an empty body.
func responseBlock(op *openapi.Operation) string {
	r, mt := successResponse(op)
	status := 200
	if r != nil {
		status = r.Status
	}
	reason := statusReason(status)
	if mt == nil || mt.Type == nil {
		return fmt.Sprintf("ctx.Writer.WriteStatus(%d, %q)\nctx.Writer.WriteHeader(\"Content-Length\", \"0\")\nctx.Writer.EndHeaders()\nreturn nil\n", status, reason)
	}
	return fmt.Sprintf(`data := []byte(%s)
ct := ctx.ResponseType
if ct == "" {
	ct = %q
}
ctx.Writer.WriteStatus(%d, %q)
ctx.Writer.WriteHeader("Content-Type", ct)
ctx.Writer.WriteHeader("Content-Length", strconv.Itoa(len(data)))
ctx.Writer.EndHeaders()
ctx.Writer.WriteBody(data)
return nil
`, serializeExpr("result", mt.Type), mt.ContentType, status, reason)
}

// emitBindFunc writes one bindXxx(ctx *router.Context, impl Handler)
// error function: parameter extraction and conversion, then body
// binding, then the handler call and response write, in §4.8.5's
// argument order.
func emitBindFunc(b *strings.Builder, path string, op *openapi.Operation, fnName string, mode AllocatorMode) {
	fmt.Fprintf(b, "// %s binds and validates %s %s before invoking impl (§4.8.6).\n", fnName, op.Method, path)
	fmt.Fprintf(b, "func %s(ctx *router.Context, impl Handler) error {\n", fnName)

	argNames := []string{"context.Background()"}
	idx := 0

	for _, p := range op.Parameters {
		if p.In != openapi.InPath {
			continue
		}
		varName := GoParamName(p.Name)
		rawVar := fmt.Sprintf("raw%d", idx)
		errVar := fmt.Sprintf("uerr%d", idx)
		fmt.Fprintf(b, "\t%s, %s := url.PathUnescape(ctx.Params[%q])\n", rawVar, errVar, p.Name)
		fmt.Fprintf(b, "\tif %s != nil {\n\t\twriteProblem(ctx, problem.BadRequest(%q))\n\t\treturn nil\n\t}\n", errVar, fmt.Sprintf("invalid path parameter %q", p.Name))
		b.WriteString(indentLines(paramConvertBlock(varName, rawVar, p.Type, "path parameter", p.Name, idx), "\t"))
		argNames = append(argNames, varName)
		idx++
	}

	needsQuery, needsCookies := false, false
	for _, p := range op.Parameters {
		switch p.In {
		case openapi.InQuery:
			needsQuery = true
		case openapi.InCookie:
			needsCookies = true
		}
	}
	if needsQuery {
		b.WriteString("\tqueryValues, _ := url.ParseQuery(ctx.RawQuery)\n")
	}
	if needsCookies {
		b.WriteString("\tcookieHeader, _ := ctx.Headers.Get(\"Cookie\")\n\tcookies := headers.ParseCookies(cookieHeader)\n")
	}

	for _, p := range op.Parameters {
		if p.In == openapi.InPath {
			continue
		}
		varName := GoParamName(p.Name)
		rawVar := fmt.Sprintf("raw%d", idx)
		presentVar := fmt.Sprintf("present%d", idx)
		locLabel := p.In.String() + " parameter"

		switch p.In {
		case openapi.InQuery:
			fmt.Fprintf(b, "\tvals%d, %s := queryValues[%q]\n\t%s := \"\"\n\tif %s && len(vals%d) > 0 {\n\t\t%s = vals%d[0]\n\t}\n",
				idx, presentVar, p.Name, rawVar, presentVar, idx, rawVar, idx)
		case openapi.InHeader:
			fmt.Fprintf(b, "\t%s, %s := ctx.Headers.Get(%q)\n", rawVar, presentVar, p.Name)
		case openapi.InCookie:
			fmt.Fprintf(b, "\t%s, %s := cookies[%q]\n", rawVar, presentVar, p.Name)
		}

		if p.Required {
			fmt.Fprintf(b, "\tif !%s {\n\t\twriteProblem(ctx, problem.BadRequest(%q))\n\t\treturn nil\n\t}\n",
				presentVar, fmt.Sprintf("missing required %s %q", locLabel, p.Name))
			b.WriteString(indentLines(paramConvertBlock(varName, rawVar, p.Type, locLabel, p.Name, idx), "\t"))
		} else {
			fmt.Fprintf(b, "\tvar %s %s\n", varName, paramGoType(&p))
			fmt.Fprintf(b, "\tif %s {\n", presentVar)
			tmpVar := fmt.Sprintf("tmp%d", idx)
			b.WriteString(indentLines(paramConvertBlock(tmpVar, rawVar, p.Type, locLabel, p.Name, idx), "\t\t"))
			fmt.Fprintf(b, "\t\t%s = &%s\n\t}\n", varName, tmpVar)
		}
		argNames = append(argNames, varName)
		idx++
	}

	if stmts := bodyBindStmts(op.Body, mode); stmts != "" {
		b.WriteString(indentLines(stmts, "\t"))
		argNames = append(argNames, "body")
	}

	_, mt := successResponse(op)
	callExpr := fmt.Sprintf("impl.%s(%s)", GoMethodName(op.OperationID), strings.Join(argNames, ", "))
	if mt == nil || mt.Type == nil {
		fmt.Fprintf(b, "\t_, err := %s\n", callExpr)
	} else {
		fmt.Fprintf(b, "\tresult, err := %s\n", callExpr)
	}
	b.WriteString("\tif err != nil {\n\t\twriteProblem(ctx, problem.InternalServerError(err.Error()))\n\t\treturn nil\n\t}\n")
	b.WriteString(indentLines(responseBlock(op), "\t"))
	b.WriteString("}\n\n")
}
