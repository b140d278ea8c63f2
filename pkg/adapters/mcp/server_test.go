package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	mcpadapter "github.com/aretw0/canvasflow/pkg/adapters/mcp"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/aretw0/canvasflow/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StructuredContent json.RawMessage `json:"structuredContent"`
	IsError           bool            `json:"isError"`
}

// payload returns the structured content, or the text of a plain result.
func (r toolResult) payload() []byte {
	if len(r.StructuredContent) > 0 && string(r.StructuredContent) != "null" {
		return r.StructuredContent
	}
	if len(r.Content) == 0 {
		return nil
	}
	return []byte(r.Content[0].Text)
}

func (r toolResult) text() string {
	if len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

func newServer(t *testing.T) *mcpadapter.Server {
	t.Helper()
	h := runner.NewHandlers()
	h.SetFallback(runner.Echo(registry.Default()))
	return mcpadapter.NewServer(runner.New(registry.Default(), h), nil)
}

func call(t *testing.T, s *mcpadapter.Server, tool string, args map[string]any) toolResult {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": tool, "arguments": args},
	})
	require.NoError(t, err)

	resp := s.MCPServer().HandleMessage(context.Background(), msg)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result *toolResult `json:"result"`
		Error  any         `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Nil(t, envelope.Error, string(raw))
	require.NotNil(t, envelope.Result, string(raw))
	return *envelope.Result
}

func graphJSON(t *testing.T, g domain.Graph) string {
	t.Helper()
	raw, err := json.Marshal(g)
	require.NoError(t, err)
	return string(raw)
}

func chain() domain.Graph {
	return domain.Graph{
		Nodes: []domain.NodeInstance{
			{ID: "render", Type: registry.TypeImageGenerator},
			{ID: "prompt", Type: registry.TypeTextPrompt},
		},
		Edges: []domain.Connection{
			{ID: "e1", Source: "prompt", SourceHandle: "text", Target: "render", TargetHandle: "prompt"},
		},
	}
}

func TestServer_ListNodeTypes(t *testing.T) {
	s := newServer(t)

	res := call(t, s, "list_node_types", map[string]any{})
	var defs []domain.NodeTypeDefinition
	require.NoError(t, json.Unmarshal([]byte(res.text()), &defs))
	assert.Len(t, defs, 6)

	res = call(t, s, "list_node_types", map[string]any{"category": "input"})
	require.NoError(t, json.Unmarshal([]byte(res.text()), &defs))
	require.Len(t, defs, 1)
	assert.Equal(t, registry.TypeTextPrompt, defs[0].Type)
}

func TestServer_ValidateGraph(t *testing.T) {
	s := newServer(t)

	res := call(t, s, "validate_graph", map[string]any{"graph": graphJSON(t, chain())})
	require.False(t, res.IsError, res.text())
	var out mcpadapter.ValidationResponse
	require.NoError(t, json.Unmarshal(res.payload(), &out))
	assert.True(t, out.Valid)
	assert.Len(t, out.Edges, 1)

	bad := chain()
	bad.Edges[0].TargetHandle = "material"
	res = call(t, s, "validate_graph", map[string]any{"graph": graphJSON(t, bad)})
	require.NoError(t, json.Unmarshal(res.payload(), &out))
	assert.False(t, out.Valid)

	res = call(t, s, "validate_graph", map[string]any{"graph": "{"})
	assert.True(t, res.IsError)
}

func TestServer_ExecutionOrder(t *testing.T) {
	s := newServer(t)

	res := call(t, s, "execution_order", map[string]any{"graph": graphJSON(t, chain())})
	require.False(t, res.IsError)
	assert.Equal(t, "prompt\nrender", res.text())

	res = call(t, s, "execution_order", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, res.text(), "graph is required")
}

func TestServer_RunAndExport(t *testing.T) {
	s := newServer(t)
	g := graphJSON(t, chain())

	res := call(t, s, "run_graph", map[string]any{"graph": g, "mode": "manual"})
	require.False(t, res.IsError, res.text())
	var run mcpadapter.RunResponse
	require.NoError(t, json.Unmarshal(res.payload(), &run))
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, []string{"prompt", "render"}, run.Completed)

	res = call(t, s, "get_run", map[string]any{"run_id": run.RunID})
	var fetched mcpadapter.RunResponse
	require.NoError(t, json.Unmarshal(res.payload(), &fetched))
	assert.Equal(t, run.RunID, fetched.RunID)

	res = call(t, s, "export_mermaid", map[string]any{"graph": g, "run_id": run.RunID})
	require.False(t, res.IsError)
	assert.Contains(t, res.text(), "graph LR")
	assert.Contains(t, res.text(), "classDef completed")

	res = call(t, s, "run_graph", map[string]any{"graph": g, "mode": "sometimes"})
	assert.True(t, res.IsError)

	res = call(t, s, "get_run", map[string]any{"run_id": "missing"})
	assert.True(t, res.IsError)
}
