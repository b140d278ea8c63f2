// Package file loads workflow graphs from disk and persists run snapshots as
// JSON files.
package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/canvasflow/internal/dto"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadGraph reads a YAML or JSON graph description from path.
func LoadGraph(path string) (domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("failed to read graph file: %w", err)
	}
	g, err := ParseGraph(data)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return g, nil
}

// ReadGraph parses a graph description from r.
func ReadGraph(r io.Reader) (domain.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("failed to read graph: %w", err)
	}
	return ParseGraph(data)
}

// ParseGraph decodes YAML (of which JSON is a subset) into a graph. Unknown
// top-level, node or edge keys are rejected; node data is free-form.
func ParseGraph(data []byte) (domain.Graph, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.Graph{}, fmt.Errorf("failed to parse graph: %w", err)
	}

	var doc dto.GraphDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return domain.Graph{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return domain.Graph{}, fmt.Errorf("invalid graph document: %w", err)
	}
	return doc.ToDomain()
}

// WriteGraph encodes g to w. JSON is used when asJSON is set, YAML otherwise.
func WriteGraph(w io.Writer, name string, g domain.Graph, asJSON bool) error {
	doc := dto.FromDomain(name, g)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// IsJSON reports whether path has a .json extension.
func IsJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
