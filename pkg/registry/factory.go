package registry

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/google/uuid"
)

// IDGenerator produces a node id for a type key.
type IDGenerator func(typeKey string) string

// Factory creates node instances from a registry.
type Factory struct {
	registry *Registry
	newID    IDGenerator
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithIDGenerator replaces the default "<type>-<uuid>" id scheme.
func WithIDGenerator(gen IDGenerator) FactoryOption {
	return func(f *Factory) {
		f.newID = gen
	}
}

// NewFactory creates a factory over reg.
func NewFactory(reg *Registry, opts ...FactoryOption) *Factory {
	f := &Factory{
		registry: reg,
		newID:    defaultID,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func defaultID(typeKey string) string {
	return typeKey + "-" + uuid.NewString()
}

// Registry exposes the catalog backing the factory.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// NodeSpec describes one node for CreateNodes.
type NodeSpec struct {
	Type     string
	Position *domain.Position
	Data     map[string]any
}

// CreateNode instantiates typeKey at position, deep-merging data over the
// type's defaults. Keys in data win over defaults.
func (f *Factory) CreateNode(typeKey string, position *domain.Position, data map[string]any) (domain.NodeInstance, error) {
	def, ok := f.registry.Definition(typeKey)
	if !ok {
		return domain.NodeInstance{}, fmt.Errorf("%w: %s", domain.ErrUnknownNodeType, typeKey)
	}

	merged := def.Defaults
	if merged == nil {
		merged = make(map[string]any)
	}
	if len(data) > 0 {
		if err := mergo.Merge(&merged, deepCopy(data), mergo.WithOverride); err != nil {
			return domain.NodeInstance{}, fmt.Errorf("failed to merge data for %s: %w", typeKey, err)
		}
	}

	node := domain.NodeInstance{
		ID:   f.newID(typeKey),
		Type: typeKey,
		Data: merged,
	}
	if position != nil {
		node.Position = *position
	}
	return node, nil
}

// CreateNodes creates several nodes, stopping at the first failure.
func (f *Factory) CreateNodes(specs ...NodeSpec) ([]domain.NodeInstance, error) {
	nodes := make([]domain.NodeInstance, 0, len(specs))
	for i, spec := range specs {
		node, err := f.CreateNode(spec.Type, spec.Position, spec.Data)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// NodeDataValidation is the outcome of ValidateNodeData.
type NodeDataValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateNodeData checks that every required input port of typeKey has a key
// in data. Value types are not inspected.
func (f *Factory) ValidateNodeData(typeKey string, data map[string]any) NodeDataValidation {
	def, ok := f.registry.Definition(typeKey)
	if !ok {
		return NodeDataValidation{Errors: []string{fmt.Sprintf("Unknown node type: %s", typeKey)}}
	}

	var errs []string
	for _, port := range def.RequiredInputs() {
		if _, present := data[port.ID]; !present {
			errs = append(errs, fmt.Sprintf("Missing required input: %s", port.Label))
		}
	}
	return NodeDataValidation{Valid: len(errs) == 0, Errors: errs}
}

// Definition returns the definition registered under typeKey.
func (f *Factory) Definition(typeKey string) (domain.NodeTypeDefinition, bool) {
	return f.registry.Definition(typeKey)
}

// Definitions lists every registered definition.
func (f *Factory) Definitions() []domain.NodeTypeDefinition {
	return f.registry.Definitions()
}

// DefinitionsByCategory lists the definitions of one category.
func (f *Factory) DefinitionsByCategory(cat domain.Category) []domain.NodeTypeDefinition {
	return f.registry.DefinitionsByCategory(cat)
}
