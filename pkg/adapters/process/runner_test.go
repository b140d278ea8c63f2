package process_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/canvasflow/pkg/adapters/process"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process fixtures use sh")
	}
}

func imageNode() domain.NodeInstance {
	return domain.NodeInstance{
		ID:   "render-1",
		Type: "image_generator",
		Data: map[string]any{"steps": 30},
	}
}

func TestRunner_PayloadOnStdin(t *testing.T) {
	requireShell(t)
	r := process.NewRunner()
	r.Register("image_generator", "sh", "-c", "cat")

	out, err := r.Execute(context.Background(), imageNode(), map[string]any{"prompt": "brick loft"})
	require.NoError(t, err)

	payload, ok := out.(map[string]any)
	require.True(t, ok, "JSON stdout is decoded")
	assert.Equal(t, "render-1", payload["node_id"])
	assert.Equal(t, "image_generator", payload["type"])
	assert.Equal(t, map[string]any{"steps": float64(30)}, payload["data"])
	assert.Equal(t, map[string]any{"prompt": "brick loft"}, payload["inputs"])
}

func TestRunner_TextOutputAndEnv(t *testing.T) {
	requireShell(t)
	r := process.NewRunner(process.WithHandlers(map[string]process.HandlerConfig{
		"image_generator": {
			Type:        "image_generator",
			Command:     "sh",
			Args:        []string{"-c", `echo "$CANVASFLOW_NODE_ID:$MODEL"`},
			Environment: map[string]string{"MODEL": "sdxl"},
		},
	}))

	out, err := r.Execute(context.Background(), imageNode(), nil)
	require.NoError(t, err)
	assert.Equal(t, "render-1:sdxl", out)
	assert.Equal(t, []string{"image_generator"}, r.Types())
}

func TestRunner_Failures(t *testing.T) {
	requireShell(t)
	r := process.NewRunner(process.WithHandlers(map[string]process.HandlerConfig{
		"slow":   {Type: "slow", Command: "sh", Args: []string{"-c", "exec sleep 5"}, Timeout: "50ms"},
		"broken": {Type: "broken", Command: "sh", Args: []string{"-c", "echo oops >&2; exit 3"}},
	}))
	ctx := context.Background()

	_, err := r.Execute(ctx, domain.NodeInstance{ID: "s", Type: "slow"}, nil)
	assert.ErrorContains(t, err, "timed out")

	_, err = r.Execute(ctx, domain.NodeInstance{ID: "b", Type: "broken"}, nil)
	assert.ErrorContains(t, err, "oops")

	_, err = r.Execute(ctx, domain.NodeInstance{ID: "x", Type: "unknown"}, nil)
	assert.ErrorIs(t, err, domain.ErrNoHandler)
}

func TestLoadHandlers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handlers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
handlers:
  - type: image_generator
    command: ./render.sh
    args: [--fast]
    env:
      MODEL: sdxl
    timeout: 2m
`), 0o644))

	handlers, err := process.LoadHandlers(path)
	require.NoError(t, err)
	require.Contains(t, handlers, "image_generator")
	h := handlers["image_generator"]
	assert.Equal(t, []string{"--fast"}, h.Args)
	assert.Equal(t, "sdxl", h.Environment["MODEL"])
	d, err := h.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, "2m0s", d.String())

	missing, err := process.LoadHandlers(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"handlers":[{"type":"a","command":"x","timeout":"soon"}]}`), 0o644))
	_, err = process.LoadHandlers(bad)
	assert.ErrorContains(t, err, "invalid timeout")

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("handlers:\n  - {type: a, command: x}\n  - {type: a, command: y}\n"), 0o644))
	_, err = process.LoadHandlers(dup)
	assert.ErrorContains(t, err, "duplicate")
}
