package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureSpec = `{
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

func TestParseArtifacts(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []Artifact
	}{
		{"empty", "", AllArtifacts},
		{"all", "all", AllArtifacts},
		{"single", "entities", []Artifact{ArtifactEntities}},
		{"subset", "entities, router", []Artifact{ArtifactEntities, ArtifactRouter}},
		{"all_mixed_in", "entities,all", AllArtifacts},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseArtifacts(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseArtifactsUnknownValue(t *testing.T) {
	_, err := ParseArtifacts("bogus")
	require.Error(t, err)
}

func TestGenerateCheckOnly(t *testing.T) {
	doc, res, err := Generate([]byte(fixtureSpec), Options{CheckOnly: true})
	require.NoError(t, err)
	assert.Nil(t, res)
	require.NotNil(t, doc)
	assert.Len(t, doc.Paths, 1)
}

func TestGenerateLoadError(t *testing.T) {
	_, _, err := Generate([]byte("not json"), Options{CheckOnly: true})
	require.Error(t, err)
}

func TestGenerateAllArtifactsProducesExpectedFiles(t *testing.T) {
	_, res, err := Generate([]byte(fixtureSpec), Options{})
	require.NoError(t, err)
	require.NotNil(t, res)

	for _, name := range []string{"entities.go", "codec.go", "validator.go", "routes.go", "handlers.go", "bindings.go"} {
		src, ok := res.Files[name]
		assert.True(t, ok, "missing %s", name)
		assert.NotEmpty(t, src)
	}
}

func TestGenerateSubsetOfArtifacts(t *testing.T) {
	_, res, err := Generate([]byte(fixtureSpec), Options{
		Artifacts: []Artifact{ArtifactEntities},
	})
	require.NoError(t, err)
	assert.Len(t, res.Files, 1)
	assert.Contains(t, res.Files, "entities.go")
}

func TestGenerateUnknownArtifact(t *testing.T) {
	_, _, err := Generate([]byte(fixtureSpec), Options{
		Artifacts: []Artifact{Artifact("bogus")},
	})
	require.Error(t, err)
}
