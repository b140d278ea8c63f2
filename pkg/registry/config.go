package registry

import (
	"fmt"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// TextPromptConfig is the data payload of a text_prompt node.
type TextPromptConfig struct {
	Text           string `mapstructure:"text"`
	NegativePrompt string `mapstructure:"negativePrompt"`
}

// ImageGeneratorConfig is the data payload of an image_generator node.
type ImageGeneratorConfig struct {
	Model    string `mapstructure:"model"`
	Width    int    `mapstructure:"width"`
	Height   int    `mapstructure:"height"`
	Steps    int    `mapstructure:"steps"`
	Seed     int64  `mapstructure:"seed"`
	Advanced struct {
		Guidance float64 `mapstructure:"guidance"`
		Sampler  string  `mapstructure:"sampler"`
	} `mapstructure:"advanced"`
}

// StyleConfig is the data payload of a style_settings node.
type StyleConfig struct {
	Style    string  `mapstructure:"style"`
	Strength float64 `mapstructure:"strength"`
}

// MaterialConfig is the data payload of a material_settings node.
type MaterialConfig struct {
	Material string `mapstructure:"material"`
	Finish   string `mapstructure:"finish"`
}

// VariantConfig is the data payload of a variant_generator node.
type VariantConfig struct {
	Count     int     `mapstructure:"count"`
	Variation float64 `mapstructure:"variation"`
}

// GalleryConfig is the data payload of a gallery_output node.
type GalleryConfig struct {
	Title  string `mapstructure:"title"`
	Public bool   `mapstructure:"public"`
}

// DecodeData decodes a node's data payload into out, converting loosely typed
// values (strings from form fields, float64 from JSON) where possible.
func DecodeData(node domain.NodeInstance, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(node.Data); err != nil {
		return fmt.Errorf("failed to decode data of node %s: %w", node.ID, err)
	}
	return nil
}
