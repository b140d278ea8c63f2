// Package registry holds the catalog of node types and the factory that
// creates node instances from it.
package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/canvasflow/pkg/domain"
)

// Registry is an immutable catalog of node type definitions.
// It is built once at start-up and shared freely between goroutines.
type Registry struct {
	defs map[string]domain.NodeTypeDefinition
}

// New builds a registry from the given definitions.
// It rejects empty or duplicate type keys and duplicate port ids.
func New(defs ...domain.NodeTypeDefinition) (*Registry, error) {
	r := &Registry{defs: make(map[string]domain.NodeTypeDefinition, len(defs))}
	for _, def := range defs {
		if def.Type == "" {
			return nil, fmt.Errorf("node type definition with empty type key")
		}
		if _, dup := r.defs[def.Type]; dup {
			return nil, fmt.Errorf("duplicate node type %q", def.Type)
		}
		if err := checkPorts(def.Type, "input", def.Inputs); err != nil {
			return nil, err
		}
		if err := checkPorts(def.Type, "output", def.Outputs); err != nil {
			return nil, err
		}
		r.defs[def.Type] = freeze(def)
	}
	return r, nil
}

// MustNew is like New but panics on an invalid catalog.
func MustNew(defs ...domain.NodeTypeDefinition) *Registry {
	r, err := New(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

func checkPorts(typeKey, direction string, ports []domain.Port) error {
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		if p.ID == "" {
			return fmt.Errorf("node type %q: %s port with empty id", typeKey, direction)
		}
		if seen[p.ID] {
			return fmt.Errorf("node type %q: duplicate %s port %q", typeKey, direction, p.ID)
		}
		if !p.Type.Valid() {
			return fmt.Errorf("node type %q: %s port %q has invalid type", typeKey, direction, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// freeze copies the slices and maps so callers cannot mutate a registered definition.
func freeze(def domain.NodeTypeDefinition) domain.NodeTypeDefinition {
	def.Inputs = slices.Clone(def.Inputs)
	def.Outputs = slices.Clone(def.Outputs)
	def.Defaults = deepCopy(def.Defaults)
	return def
}

// Definition returns a copy of the definition registered under typeKey.
func (r *Registry) Definition(typeKey string) (domain.NodeTypeDefinition, bool) {
	def, ok := r.defs[typeKey]
	if !ok {
		return domain.NodeTypeDefinition{}, false
	}
	return freeze(def), true
}

// Has reports whether typeKey is registered.
func (r *Registry) Has(typeKey string) bool {
	_, ok := r.defs[typeKey]
	return ok
}

// Definitions lists every definition ordered by type key.
func (r *Registry) Definitions() []domain.NodeTypeDefinition {
	out := make([]domain.NodeTypeDefinition, 0, len(r.defs))
	for _, key := range slices.Sorted(maps.Keys(r.defs)) {
		out = append(out, freeze(r.defs[key]))
	}
	return out
}

// DefinitionsByCategory lists the definitions of one category ordered by type key.
func (r *Registry) DefinitionsByCategory(cat domain.Category) []domain.NodeTypeDefinition {
	var out []domain.NodeTypeDefinition
	for _, def := range r.Definitions() {
		if def.Category == cat {
			out = append(out, def)
		}
	}
	return out
}

// OutputPort resolves an output port of a node type.
func (r *Registry) OutputPort(typeKey, portID string) (domain.Port, bool) {
	def, ok := r.defs[typeKey]
	if !ok {
		return domain.Port{}, false
	}
	return def.Output(portID)
}

// InputPort resolves an input port of a node type.
func (r *Registry) InputPort(typeKey, portID string) (domain.Port, bool) {
	def, ok := r.defs[typeKey]
	if !ok {
		return domain.Port{}, false
	}
	return def.Input(portID)
}

func deepCopy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}
