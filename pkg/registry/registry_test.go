package registry_test

import (
	"testing"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Catalog(t *testing.T) {
	reg := registry.Default()

	defs := reg.Definitions()
	require.Len(t, defs, 6)
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Type, defs[i].Type, "definitions must be sorted")
	}

	img, ok := reg.Definition(registry.TypeImageGenerator)
	require.True(t, ok)
	prompt, ok := img.Input("prompt")
	require.True(t, ok)
	assert.True(t, prompt.Required)
	assert.Equal(t, domain.PortText, prompt.Type)

	_, ok = reg.Definition("video_generator")
	assert.False(t, ok)
}

func TestDefinitionsByCategory(t *testing.T) {
	reg := registry.Default()

	processing := reg.DefinitionsByCategory(domain.CategoryProcessing)
	require.Len(t, processing, 2)
	assert.Equal(t, registry.TypeImageGenerator, processing[0].Type)
	assert.Equal(t, registry.TypeVariantGenerator, processing[1].Type)

	assert.Len(t, reg.DefinitionsByCategory(domain.CategoryUtility), 2)
	assert.Empty(t, reg.DefinitionsByCategory("unknown"))
}

func TestNew_RejectsBadCatalogs(t *testing.T) {
	_, err := registry.New(domain.NodeTypeDefinition{})
	assert.Error(t, err)

	dup := domain.NodeTypeDefinition{Type: "a"}
	_, err = registry.New(dup, dup)
	assert.ErrorContains(t, err, "duplicate node type")

	_, err = registry.New(domain.NodeTypeDefinition{
		Type:    "b",
		Outputs: []domain.Port{{ID: "x", Type: domain.PortText}, {ID: "x", Type: domain.PortImage}},
	})
	assert.ErrorContains(t, err, "duplicate output port")

	assert.Panics(t, func() { registry.MustNew(dup, dup) })
}

func TestDefinition_IsACopy(t *testing.T) {
	reg := registry.Default()

	def, _ := reg.Definition(registry.TypeStyleSettings)
	def.Defaults["style"] = "mutated"
	def.Outputs[0].ID = "mutated"

	again, _ := reg.Definition(registry.TypeStyleSettings)
	assert.Equal(t, "photorealistic", again.Defaults["style"])
	assert.Equal(t, "style", again.Outputs[0].ID)
}
