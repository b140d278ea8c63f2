package registry_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() registry.IDGenerator {
	n := 0
	return func(typeKey string) string {
		n++
		return fmt.Sprintf("%s-%d", typeKey, n)
	}
}

func TestCreateNode_MergesDefaults(t *testing.T) {
	f := registry.NewFactory(registry.Default(), registry.WithIDGenerator(sequentialIDs()))

	node, err := f.CreateNode(registry.TypeImageGenerator, &domain.Position{X: 10, Y: 20}, map[string]any{
		"width": 512,
		"advanced": map[string]any{
			"sampler": "dpm",
		},
		"extra": "kept",
	})
	require.NoError(t, err)

	assert.Equal(t, "image_generator-1", node.ID)
	assert.Equal(t, domain.Position{X: 10, Y: 20}, node.Position)
	assert.Equal(t, 512, node.Data["width"])
	assert.Equal(t, 1024, node.Data["height"])
	assert.Equal(t, "kept", node.Data["extra"])

	advanced, ok := node.Data["advanced"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "dpm", advanced["sampler"])
	assert.Equal(t, 7.5, advanced["guidance"])

	// Defaults in the registry are untouched.
	def, _ := f.Definition(registry.TypeImageGenerator)
	assert.Equal(t, 1024, def.Defaults["width"])
	assert.Equal(t, "euler", def.Defaults["advanced"].(map[string]any)["sampler"])
}

func TestCreateNode_DefaultIDAndPosition(t *testing.T) {
	f := registry.NewFactory(registry.Default())

	a, err := f.CreateNode(registry.TypeTextPrompt, nil, nil)
	require.NoError(t, err)
	b, err := f.CreateNode(registry.TypeTextPrompt, nil, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.ID, "text_prompt-"))
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, domain.Position{}, a.Position)
	assert.Equal(t, "", a.Data["text"])
}

func TestCreateNode_UnknownType(t *testing.T) {
	f := registry.NewFactory(registry.Default())

	_, err := f.CreateNode("hologram", nil, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)
	assert.ErrorContains(t, err, "hologram")
}

func TestCreateNodes(t *testing.T) {
	f := registry.NewFactory(registry.Default(), registry.WithIDGenerator(sequentialIDs()))

	nodes, err := f.CreateNodes(
		registry.NodeSpec{Type: registry.TypeTextPrompt, Data: map[string]any{"text": "a cat"}},
		registry.NodeSpec{Type: registry.TypeImageGenerator},
	)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "a cat", nodes[0].Data["text"])

	_, err = f.CreateNodes(registry.NodeSpec{Type: registry.TypeTextPrompt}, registry.NodeSpec{Type: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)
	assert.ErrorContains(t, err, "node 1")
}

func TestValidateNodeData(t *testing.T) {
	f := registry.NewFactory(registry.Default())

	res := f.ValidateNodeData(registry.TypeImageGenerator, map[string]any{"prompt": 42})
	assert.True(t, res.Valid, "value types are not checked")
	assert.Empty(t, res.Errors)

	res = f.ValidateNodeData(registry.TypeImageGenerator, map[string]any{"style": "x"})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Missing required input: Prompt"}, res.Errors)

	res = f.ValidateNodeData(registry.TypeTextPrompt, nil)
	assert.True(t, res.Valid)

	res = f.ValidateNodeData("ghost", nil)
	assert.False(t, res.Valid)
}

func TestDecodeData(t *testing.T) {
	node := domain.NodeInstance{
		ID: "img",
		Data: map[string]any{
			"model":  "sdxl",
			"width":  "768",
			"height": 512.0,
			"advanced": map[string]any{
				"guidance": 4,
			},
		},
	}

	var cfg registry.ImageGeneratorConfig
	require.NoError(t, registry.DecodeData(node, &cfg))
	assert.Equal(t, "sdxl", cfg.Model)
	assert.Equal(t, 768, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
	assert.Equal(t, 4.0, cfg.Advanced.Guidance)

	var variants registry.VariantConfig
	err := registry.DecodeData(domain.NodeInstance{ID: "v", Data: map[string]any{"count": "many"}}, &variants)
	assert.ErrorContains(t, err, "node v")
}
