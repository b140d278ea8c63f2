package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphYAML = `
nodes:
  - id: render
    type: image_generator
  - id: prompt
    type: text_prompt
edges:
  - source: prompt
    sourceHandle: text
    target: render
    targetHandle: prompt
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeGraph(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCommands(t *testing.T) {
	path := writeGraph(t, graphYAML)

	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "canvasflow version "))

	out, err = runCLI(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Graph is valid!")

	out, err = runCLI(t, "order", path)
	require.NoError(t, err)
	assert.Equal(t, "1. prompt\n2. render\n", out)

	out, err = runCLI(t, "graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, "graph LR")

	out, err = runCLI(t, "nodes", "--json", "--category", "output")
	require.NoError(t, err)
	assert.Contains(t, out, `"gallery_output"`)
}

func TestRunCommand(t *testing.T) {
	path := writeGraph(t, graphYAML)

	out, err := runCLI(t, "run", path, "--dry-run", "--json", "--handlers", filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "completed"`)

	_, err = runCLI(t, "run", path, "--mode", "sometimes")
	assert.ErrorContains(t, err, "unknown execution mode")
}

func TestValidateRejectsMismatch(t *testing.T) {
	path := writeGraph(t, strings.Replace(graphYAML, "targetHandle: prompt", "targetHandle: style", 1))

	_, err := runCLI(t, "validate", path)
	assert.ErrorContains(t, err, "validation failed")
}
