package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/katana-http/katana/openapi"
)

// GenerateRoutes emits the static route table (§4.8.4): per-route
// consumes/produces content-type lists, a single Routes slice, and a
// RouteMetadata entry per operation_id carrying its path-parameter
// count and whether it has a request body. Operations without an
// operation_id are skipped (§4.8.5 applies the same rule to handlers;
// a route with no callable handler method has nothing to dispatch to).
//
// Grounded on router_generator.cpp's route-table emission (§4.8.4's
// table verbatim); the C++ static_assert(!routes.empty()) becomes a Go
// init() panic, the same pattern entities.go uses for constraint
// sanity checks.
func GenerateRoutes(doc *openapi.Document) (string, error) {
	var b strings.Builder
	b.WriteString("// RouteMetadata describes one generated operation (§4.8.4).\n")
	b.WriteString("type RouteMetadata struct {\n\tPath string\n\tMethod string\n\tOperationID string\n\tPathParamCount int\n\tHasRequestBody bool\n}\n\n")
	b.WriteString("// Route is one entry of the generated route table (§4.8.4).\n")
	b.WriteString("type Route struct {\n\tPath string\n\tMethod string\n\tOperationID string\n\tConsumes []string\n\tProduces []string\n}\n\n")

	var routeLines []string
	var metaLines []string
	count := 0

	for _, path := range doc.Paths {
		for _, op := range path.Operations {
			if op.OperationID == "" {
				continue
			}
			count++

			consumes := mediaTypes(op.Body)
			produces := responseMediaTypes(op.Responses)
			pathParamCount := 0
			for _, p := range op.Parameters {
				if p.In == openapi.InPath {
					pathParamCount++
				}
			}

			routeLines = append(routeLines, fmt.Sprintf(
				"\t{Path: %q, Method: %q, OperationID: %q, Consumes: %s, Produces: %s},",
				path.Path, op.Method, op.OperationID, goStringSlice(consumes), goStringSlice(produces)))

			metaLines = append(metaLines, fmt.Sprintf(
				"\t%q: {Path: %q, Method: %q, OperationID: %q, PathParamCount: %d, HasRequestBody: %t},",
				op.OperationID, path.Path, op.Method, op.OperationID, pathParamCount, op.Body != nil))
		}
	}

	b.WriteString("// Routes lists every generated operation in document order (§4.8.4).\n")
	b.WriteString("var Routes = []Route{\n")
	b.WriteString(strings.Join(routeLines, "\n"))
	b.WriteString("\n}\n\n")

	b.WriteString("// RouteMetadataByOperationID indexes RouteMetadata by operation_id (§4.8.4).\n")
	b.WriteString("var RouteMetadataByOperationID = map[string]RouteMetadata{\n")
	b.WriteString(strings.Join(metaLines, "\n"))
	b.WriteString("\n}\n\n")

	fmt.Fprintf(&b, "func init() {\n\tif len(Routes) == 0 {\n\t\tpanic(%q)\n\t}\n}\n\n", "generated route table is empty")

	return RenderFile(PackageName, nil, b.String())
}

func mediaTypes(body *openapi.RequestBody) []string {
	if body == nil {
		return nil
	}
	out := make([]string, 0, len(body.Content))
	for _, mt := range body.Content {
		out = append(out, mt.ContentType)
	}
	return out
}

func responseMediaTypes(responses []openapi.Response) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range responses {
		for _, mt := range r.Content {
			if seen[mt.ContentType] {
				continue
			}
			seen[mt.ContentType] = true
			out = append(out, mt.ContentType)
		}
	}
	return out
}

func goStringSlice(items []string) string {
	if len(items) == 0 {
		return "nil"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}
