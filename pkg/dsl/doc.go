/*
Package dsl builds workflow graphs in Go code instead of YAML or JSON files.

Nodes are created through the registry's factory, so each one starts from its
type's defaults. Build validates every connection and checks that the graph can
be ordered before returning it.

	b := dsl.New(registry.Default())

	b.Add("prompt", registry.TypeTextPrompt).Set("text", "a cabin in the woods")
	b.Add("render", registry.TypeImageGenerator).From("prompt", "text", "prompt")
	b.Add("gallery", registry.TypeGalleryOutput)
	b.Connect("render", "image", "gallery", "images")

	g, err := b.Build()
*/
package dsl
