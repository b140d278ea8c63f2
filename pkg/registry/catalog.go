package registry

import "github.com/aretw0/canvasflow/pkg/domain"

// Built-in node type keys.
const (
	TypeTextPrompt       = "text_prompt"
	TypeImageGenerator   = "image_generator"
	TypeStyleSettings    = "style_settings"
	TypeMaterialSettings = "material_settings"
	TypeVariantGenerator = "variant_generator"
	TypeGalleryOutput    = "gallery_output"
)

// BuiltinDefinitions returns the node kinds offered by the canvas editor.
func BuiltinDefinitions() []domain.NodeTypeDefinition {
	return []domain.NodeTypeDefinition{
		{
			Type:        TypeTextPrompt,
			Label:       "Text Prompt",
			Description: "Free-form prompt text fed to generators.",
			Category:    domain.CategoryInput,
			Outputs: []domain.Port{
				{ID: "text", Label: "Text", Type: domain.PortText},
			},
			Defaults: map[string]any{
				"text":           "",
				"negativePrompt": "",
			},
		},
		{
			Type:        TypeImageGenerator,
			Label:       "Image Generator",
			Description: "Renders an image from a prompt, optionally styled.",
			Category:    domain.CategoryProcessing,
			Inputs: []domain.Port{
				{ID: "prompt", Label: "Prompt", Type: domain.PortText, Required: true},
				{ID: "style", Label: "Style", Type: domain.PortStyle},
				{ID: "material", Label: "Material", Type: domain.PortMaterial},
			},
			Outputs: []domain.Port{
				{ID: "image", Label: "Image", Type: domain.PortImage},
			},
			Defaults: map[string]any{
				"model":  "default",
				"width":  1024,
				"height": 1024,
				"steps":  30,
				"seed":   -1,
				"advanced": map[string]any{
					"guidance": 7.5,
					"sampler":  "euler",
				},
			},
		},
		{
			Type:        TypeStyleSettings,
			Label:       "Style",
			Description: "Rendering style applied by generators.",
			Category:    domain.CategoryUtility,
			Outputs: []domain.Port{
				{ID: "style", Label: "Style", Type: domain.PortStyle},
			},
			Defaults: map[string]any{
				"style":    "photorealistic",
				"strength": 0.8,
			},
		},
		{
			Type:        TypeMaterialSettings,
			Label:       "Material",
			Description: "Surface material applied by generators.",
			Category:    domain.CategoryUtility,
			Outputs: []domain.Port{
				{ID: "material", Label: "Material", Type: domain.PortMaterial},
			},
			Defaults: map[string]any{
				"material": "concrete",
				"finish":   "matte",
			},
		},
		{
			Type:        TypeVariantGenerator,
			Label:       "Variant Generator",
			Description: "Produces variations of a source image.",
			Category:    domain.CategoryProcessing,
			Inputs: []domain.Port{
				{ID: "sourceImage", Label: "Source Image", Type: domain.PortImage, Required: true},
				{ID: "prompt", Label: "Prompt", Type: domain.PortText},
			},
			Outputs: []domain.Port{
				{ID: "variants", Label: "Variants", Type: domain.PortVariants},
			},
			Defaults: map[string]any{
				"count":     4,
				"variation": 0.5,
			},
		},
		{
			Type:        TypeGalleryOutput,
			Label:       "Gallery",
			Description: "Collects images and variants for publishing.",
			Category:    domain.CategoryOutput,
			Inputs: []domain.Port{
				{ID: "images", Label: "Images", Type: domain.PortVariants, Required: true},
			},
			Defaults: map[string]any{
				"title":  "",
				"public": false,
			},
		},
	}
}

// Default returns a registry populated with the built-in catalog.
func Default() *Registry {
	return MustNew(BuiltinDefinitions()...)
}
