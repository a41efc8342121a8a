package codegen

import (
	"encoding/json"

	"github.com/katana-http/katana/openapi"
)

// DumpAST renders the resolved document as the debug JSON summary the
// --dump-ast flag exposes: one entry per path/operation and one per
// schema in doc.Schemas, each carrying just enough shape to eyeball what the
// loader resolved without re-deriving it from the generated source.
//
// Grounded on tools/katana_gen/ast_dump.cpp's dump_ast_summary, which
// hand-builds the same JSON with an ostringstream; Go gets the
// equivalent for free from struct tags and encoding/json, so there is
// no escape_json/field-by-field writer to port.
func DumpAST(doc *openapi.Document) ([]byte, error) {
	out := astDump{
		OpenAPI: doc.OpenAPIVersion,
		Title:   doc.InfoTitle,
		Version: doc.InfoVersion,
	}

	for _, p := range doc.Paths {
		pd := astPath{Path: p.Path}
		for _, op := range p.Operations {
			od := astOperation{
				Method:      op.Method,
				OperationID: op.OperationID,
				Summary:     op.Summary,
			}
			for _, param := range op.Parameters {
				od.Parameters = append(od.Parameters, astParameter{
					Name:     param.Name,
					In:       param.In.String(),
					Required: param.Required,
				})
			}
			if op.Body != nil && len(op.Body.Content) > 0 {
				rb := &astRequestBody{Description: op.Body.Description}
				for _, media := range op.Body.Content {
					rb.Content = append(rb.Content, astMediaType{ContentType: media.ContentType})
				}
				od.RequestBody = rb
			}
			for _, resp := range op.Responses {
				rd := astResponse{
					Status:      resp.Status,
					IsDefault:   resp.IsDefault,
					Description: resp.Description,
				}
				for _, media := range resp.Content {
					rd.Content = append(rd.Content, astMediaType{ContentType: media.ContentType})
				}
				od.Responses = append(od.Responses, rd)
			}
			pd.Operations = append(pd.Operations, od)
		}
		out.Paths = append(out.Paths, pd)
	}

	for _, s := range doc.Schemas {
		sd := astSchema{
			ID:   GoTypeName(s),
			Name: s.Name,
			Kind: s.Kind.String(),
		}
		for _, prop := range s.Properties {
			kind := "unknown"
			if prop.Type != nil {
				kind = prop.Type.Kind.String()
			}
			sd.Properties = append(sd.Properties, astProperty{
				Name:     prop.Name,
				Required: prop.Required,
				Kind:     kind,
			})
		}
		out.Schemas = append(out.Schemas, sd)
	}

	return json.Marshal(out)
}

type astDump struct {
	OpenAPI string         `json:"openapi"`
	Title   string         `json:"title"`
	Version string         `json:"version"`
	Paths   []astPath      `json:"paths"`
	Schemas []astSchema    `json:"schemas"`
}

type astPath struct {
	Path       string          `json:"path"`
	Operations []astOperation  `json:"operations"`
}

type astOperation struct {
	Method      string           `json:"method"`
	OperationID string           `json:"operationId"`
	Summary     string           `json:"summary"`
	Parameters  []astParameter   `json:"parameters"`
	RequestBody *astRequestBody  `json:"requestBody"`
	Responses   []astResponse    `json:"responses"`
}

type astParameter struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required"`
}

type astRequestBody struct {
	Description string         `json:"description"`
	Content     []astMediaType `json:"content"`
}

type astResponse struct {
	Status      int            `json:"status"`
	IsDefault   bool           `json:"default"`
	Description string         `json:"description"`
	Content     []astMediaType `json:"content"`
}

type astMediaType struct {
	ContentType string `json:"contentType"`
}

type astSchema struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Kind       string        `json:"kind"`
	Properties []astProperty `json:"properties"`
}

type astProperty struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Kind     string `json:"kind"`
}
