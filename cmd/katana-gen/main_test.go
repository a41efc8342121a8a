package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katana-http/katana/katana/clitool"
)

const minimalSpec = `{
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

// runGenCLI drives buildCLI()'s real command tree through clitool.Run,
// capturing stdout the way nova/cli_test.go's runCLI helper does.
func runGenCLI(t *testing.T, args []string) (string, error) {
	t.Helper()
	cli, err := clitool.NewCLI(buildCLI())
	require.NoError(t, err)

	oldOut := os.Stdout
	r, w, pipeErr := os.Pipe()
	require.NoError(t, pipeErr)
	os.Stdout = w

	runErr := cli.Run(append([]string{"katana-gen"}, args...))

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	os.Stdout = oldOut

	return buf.String(), runErr
}

func TestOpenAPICommandCheck(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "spec.json")
	require.NoError(t, os.WriteFile(input, []byte(minimalSpec), 0o644))

	out, err := runGenCLI(t, []string{"openapi", "--input", input, "--check"})
	require.NoError(t, err)
	assert.Contains(t, out, ": ok (1 paths, ")
}

func TestOpenAPICommandDumpAST(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "spec.json")
	require.NoError(t, os.WriteFile(input, []byte(minimalSpec), 0o644))

	out, err := runGenCLI(t, []string{"openapi", "--input", input, "--dump-ast"})
	require.NoError(t, err)
	assert.Contains(t, out, "getWidget")
}

func TestOpenAPICommandWritesFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "spec.json")
	output := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(input, []byte(minimalSpec), 0o644))

	out, err := runGenCLI(t, []string{"openapi", "--input", input, "--output", output, "--emit", "entities"})
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 file(s)")

	entries, readErr := os.ReadDir(output)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
}

func TestOpenAPICommandMissingRequiredFlag(t *testing.T) {
	_, err := runGenCLI(t, []string{"openapi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")
}

func TestOpenAPICommandInvalidSpec(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"openapi": "2.0"}`), 0o644))

	_, err := runGenCLI(t, []string{"openapi", "--input", input, "--check"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "openapi") || strings.Contains(err.Error(), "3."))
}

func TestUnknownCommand(t *testing.T) {
	_, err := runGenCLI(t, []string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "frobnicate"`)
}
