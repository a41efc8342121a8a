package codegen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katana-http/katana/openapi"
)

func TestDumpAST(t *testing.T) {
	doc, err := openapi.Load([]byte(fixtureSpec), openapi.LoadOptions{})
	require.NoError(t, err)

	out, err := DumpAST(doc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, "3.0.3", decoded["openapi"])
	assert.Equal(t, "Widgets", decoded["title"])
	assert.Equal(t, "1.0.0", decoded["version"])

	paths, ok := decoded["paths"].([]any)
	require.True(t, ok)
	require.Len(t, paths, 1)

	path := paths[0].(map[string]any)
	assert.Equal(t, "/widgets/{id}", path["path"])

	ops, ok := path["operations"].([]any)
	require.True(t, ok)
	require.Len(t, ops, 1)

	op := ops[0].(map[string]any)
	assert.Equal(t, "GET", op["method"])
	assert.Equal(t, "getWidget", op["operationId"])

	params, ok := op["parameters"].([]any)
	require.True(t, ok)
	require.Len(t, params, 1)
	param := params[0].(map[string]any)
	assert.Equal(t, "id", param["name"])
	assert.Equal(t, "path", param["in"])
	assert.Equal(t, true, param["required"])

	schemas, ok := decoded["schemas"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, schemas)

	var widget map[string]any
	for _, raw := range schemas {
		s := raw.(map[string]any)
		if s["name"] == "Widget" {
			widget = s
		}
	}
	require.NotNil(t, widget)
	assert.Equal(t, "Widget", widget["id"])
	assert.Equal(t, "object", widget["kind"])
}
