package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/canvasflow/internal/logging"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/aretw0/canvasflow/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(v any) runner.HandlerFunc {
	return func(context.Context, domain.NodeInstance, map[string]any) (any, error) {
		return v, nil
	}
}

func TestHandlers_LookupAndFallback(t *testing.T) {
	h := runner.NewHandlers()
	h.Register("image_generator", constant("img"))

	fn, ok := h.Lookup("image_generator")
	require.True(t, ok)
	out, err := fn(context.Background(), domain.NodeInstance{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "img", out)

	_, ok = h.Lookup("text_prompt")
	assert.False(t, ok)

	nodes := []domain.NodeInstance{{ID: "a", Type: "text_prompt"}, {ID: "b", Type: "image_generator"}, {ID: "c", Type: "text_prompt"}}
	assert.Equal(t, []string{"text_prompt"}, h.Missing(nodes))

	h.SetFallback(constant("fallback"))
	assert.Empty(t, h.Missing(nodes))
	assert.Equal(t, []string{"image_generator"}, h.Types())
}

func TestHandlers_MiddlewareOrder(t *testing.T) {
	h := runner.NewHandlers()
	var trace []string
	tag := func(name string) runner.Middleware {
		return func(next runner.HandlerFunc) runner.HandlerFunc {
			return func(ctx context.Context, n domain.NodeInstance, in map[string]any) (any, error) {
				trace = append(trace, name)
				return next(ctx, n, in)
			}
		}
	}
	h.Use(tag("outer"), tag("inner"))
	h.Register("t", func(context.Context, domain.NodeInstance, map[string]any) (any, error) {
		trace = append(trace, "handler")
		return nil, nil
	})

	fn, _ := h.Lookup("t")
	_, _ = fn(context.Background(), domain.NodeInstance{}, nil)
	assert.Equal(t, []string{"outer", "inner", "handler"}, trace)
}

func TestHandlers_ExecuteFunc(t *testing.T) {
	h := runner.NewHandlers()
	h.Register("text_prompt", func(_ context.Context, n domain.NodeInstance, _ map[string]any) (any, error) {
		return n.Data["text"], nil
	})
	fn := h.ExecuteFunc([]domain.NodeInstance{
		{ID: "p", Type: "text_prompt", Data: map[string]any{"text": "loft"}},
		{ID: "g", Type: "gallery_output"},
	})

	out, err := fn(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "loft", out)

	_, err = fn(context.Background(), "g", nil)
	assert.ErrorIs(t, err, domain.ErrNoHandler)

	_, err = fn(context.Background(), "ghost", nil)
	assert.Error(t, err)
}

func TestEcho_EmitsOnEveryOutputPort(t *testing.T) {
	echo := runner.Echo(registry.Default())
	node := domain.NodeInstance{ID: "img", Type: registry.TypeImageGenerator, Data: map[string]any{"steps": 30}}

	out, err := echo(context.Background(), node, map[string]any{"prompt": "loft"})
	require.NoError(t, err)
	ports, ok := out.(map[string]any)
	require.True(t, ok)
	require.Contains(t, ports, "image")
	summary := ports["image"].(map[string]any)
	assert.Equal(t, "img", summary["node_id"])
	assert.Equal(t, map[string]any{"prompt": "loft"}, summary["inputs"])

	out, err = echo(context.Background(), domain.NodeInstance{ID: "g", Type: registry.TypeGalleryOutput}, nil)
	require.NoError(t, err)
	assert.Equal(t, "g", out.(map[string]any)["node_id"])
}

func TestWithTimeout(t *testing.T) {
	slow := func(ctx context.Context, _ domain.NodeInstance, _ map[string]any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	_, err := runner.WithTimeout(10*time.Millisecond)(slow)(context.Background(), domain.NodeInstance{}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithLogging_PassesThrough(t *testing.T) {
	boom := errors.New("boom")
	fn := runner.WithLogging(logging.NewNop())(func(context.Context, domain.NodeInstance, map[string]any) (any, error) {
		return nil, boom
	})
	_, err := fn(context.Background(), domain.NodeInstance{ID: "x"}, nil)
	assert.ErrorIs(t, err, boom)
}
