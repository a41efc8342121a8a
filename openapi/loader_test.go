package openapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "Widgets", "version": "1.0.0"},
  "paths": {
    "/widgets/{id}": {
      "get": {
        "operationId": "getWidget",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {
          "200": {
            "description": "ok",
            "content": {
              "application/json": {"schema": {"$ref": "#/components/schemas/Widget"}}
            }
          }
        }
      }
    }
  },
  "components": {
    "schemas": {
      "Widget": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string"}
        },
        "required": ["id"]
      }
    }
  }
}`

func TestLoadMinimalDocument(t *testing.T) {
	doc, err := Load([]byte(minimalDoc), LoadOptions{})
	require.NoError(t, err)
	require.Len(t, doc.Paths, 1)

	path := doc.Paths[0]
	assert.Equal(t, "/widgets/{id}", path.Path)
	require.Len(t, path.Operations, 1)

	op := path.Operations[0]
	assert.Equal(t, "GET", op.Method)
	assert.Equal(t, "getWidget", op.OperationID)
	require.Len(t, op.Parameters, 1)
	assert.Equal(t, InPath, op.Parameters[0].In)
	assert.True(t, op.Parameters[0].Required)

	require.Len(t, op.Responses, 1)
	resp := op.Responses[0]
	assert.Equal(t, 200, resp.Status)
	require.Len(t, resp.Content, 1)
	widget := resp.Content[0].Type
	require.NotNil(t, widget)
	assert.False(t, widget.IsRef)
	assert.Equal(t, KindObject, widget.Kind)
	assert.Equal(t, "Widget", widget.Name)
}

func TestLoadMalformedJSON(t *testing.T) {
	_, err := Load([]byte("{not json"), LoadOptions{})
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrParse, loadErr.Kind)
}

func TestLoadUnsupportedVersion(t *testing.T) {
	doc := `{"openapi": "2.0", "info": {"title": "x", "version": "1"}, "paths": {"/a": {}}}`
	_, err := Load([]byte(doc), LoadOptions{})
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrInvalidSpec, loadErr.Kind)
	assert.Equal(t, "openapi", loadErr.Location)
}

func TestLoadMissingInfo(t *testing.T) {
	doc := `{"openapi": "3.0.0", "info": {}, "paths": {"/a": {}}}`
	_, err := Load([]byte(doc), LoadOptions{})
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrInvalidSpec, loadErr.Kind)
	assert.Equal(t, "info", loadErr.Location)
}

func TestLoadMissingPaths(t *testing.T) {
	doc := `{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}}`
	_, err := Load([]byte(doc), LoadOptions{})
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrInvalidSpec, loadErr.Kind)
	assert.Equal(t, "paths", loadErr.Location)
}

func TestLoadAllOfMerge(t *testing.T) {
	doc := `{
  "openapi": "3.0.0",
  "info": {"title": "x", "version": "1"},
  "paths": {
    "/items": {
      "get": {
        "operationId": "listItems",
        "responses": {
          "200": {
            "description": "ok",
            "content": {
              "application/json": {"schema": {"$ref": "#/components/schemas/Extended"}}
            }
          }
        }
      }
    }
  },
  "components": {
    "schemas": {
      "Base": {"type": "object", "properties": {"id": {"type": "string"}}},
      "Extended": {
        "allOf": [
          {"$ref": "#/components/schemas/Base"},
          {"type": "object", "properties": {"name": {"type": "string"}}}
        ]
      }
    }
  }
}`
	d, err := Load([]byte(doc), LoadOptions{})
	require.NoError(t, err)

	var extended *Schema
	for _, s := range d.Schemas {
		if s.Name == "Extended" {
			extended = s
		}
	}
	require.NotNil(t, extended)
	assert.Equal(t, KindObject, extended.Kind)

	names := map[string]bool{}
	for _, p := range extended.Properties {
		names[p.Name] = true
	}
	assert.True(t, names["id"])
	assert.True(t, names["name"])
}

func TestLoadStrictModeUnresolvedRef(t *testing.T) {
	doc := `{
  "openapi": "3.0.0",
  "info": {"title": "x", "version": "1"},
  "paths": {
    "/items": {
      "get": {
        "operationId": "getItem",
        "responses": {
          "200": {
            "description": "ok",
            "content": {
              "application/json": {"schema": {"$ref": "#/components/schemas/Missing"}}
            }
          }
        }
      }
    }
  }
}`
	_, err := Load([]byte(doc), LoadOptions{Strict: true})
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrInvalidSpec, loadErr.Kind)

	_, err = Load([]byte(doc), LoadOptions{})
	require.NoError(t, err)
}

func TestLoadNamingStyleOperationVsFlat(t *testing.T) {
	doc := `{
  "openapi": "3.0.0",
  "info": {"title": "x", "version": "1"},
  "paths": {
    "/items": {
      "post": {
        "operationId": "createItem",
        "requestBody": {
          "content": {
            "application/json": {"schema": {"type": "object", "properties": {"name": {"type": "string"}}}}
          }
        },
        "responses": {
          "200": {"description": "ok"}
        }
      }
    }
  }
}`
	opDoc, err := Load([]byte(doc), LoadOptions{NamingStyle: "operation"})
	require.NoError(t, err)
	body := opDoc.Paths[0].Operations[0].Body.Content[0].Type
	assert.Contains(t, body.Name, "createItem")

	flatDoc, err := Load([]byte(doc), LoadOptions{NamingStyle: "flat"})
	require.NoError(t, err)
	flatBody := flatDoc.Paths[0].Operations[0].Body.Content[0].Type
	assert.Contains(t, flatBody.Name, "InlineSchema")
}

func TestLoadDuplicateOperationID(t *testing.T) {
	doc := `{
  "openapi": "3.0.0",
  "info": {"title": "x", "version": "1"},
  "paths": {
    "/a": {"get": {"operationId": "dup", "responses": {"200": {"description": "ok"}}}},
    "/b": {"get": {"operationId": "dup", "responses": {"200": {"description": "ok"}}}}
  }
}`
	_, err := Load([]byte(doc), LoadOptions{})
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrInvalidSpec, loadErr.Kind)
}

func TestSanitizeIdentifier(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"valid", "user_id", "user_id"},
		{"dashes", "user-id", "user_id"},
		{"leading_digit", "123abc", "_123abc"},
		{"empty", "", "_"},
		{"spaces", "a b c", "a_b_c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeIdentifier(tc.in))
		})
	}
}
