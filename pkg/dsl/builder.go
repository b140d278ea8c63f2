package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/executor"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/aretw0/canvasflow/pkg/validator"
)

// ErrDuplicateNode is reported by Build when an id was added twice with
// different types.
var ErrDuplicateNode = errors.New("node added twice with different types")

// Builder accumulates nodes and edges in declaration order.
type Builder struct {
	factory   *registry.Factory
	validator *validator.Validator
	nodes     []*NodeBuilder
	index     map[string]*NodeBuilder
	edges     []domain.Connection
	errs      []error
}

// New creates a builder over reg. A nil registry means registry.Default().
func New(reg *registry.Registry) *Builder {
	if reg == nil {
		reg = registry.Default()
	}
	return &Builder{
		factory:   registry.NewFactory(reg),
		validator: validator.New(reg),
		index:     make(map[string]*NodeBuilder),
	}
}

// Add places a node of typeKey under id. Adding an existing id returns the
// existing builder.
func (b *Builder) Add(id, typeKey string) *NodeBuilder {
	if nb, ok := b.index[id]; ok {
		if nb.node.Type != typeKey {
			b.errs = append(b.errs, fmt.Errorf("%w: %s is %s, not %s", ErrDuplicateNode, id, nb.node.Type, typeKey))
		}
		return nb
	}

	node, err := b.factory.CreateNode(typeKey, nil, nil)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("node %s: %w", id, err))
		node = domain.NodeInstance{Type: typeKey, Data: map[string]any{}}
	}
	node.ID = id

	nb := &NodeBuilder{node: node, builder: b}
	b.nodes = append(b.nodes, nb)
	b.index[id] = nb
	return nb
}

// Connect adds an edge from source's output port to target's input port.
func (b *Builder) Connect(source, sourcePort, target, targetPort string) *Builder {
	b.edges = append(b.edges, domain.Connection{
		ID:           fmt.Sprintf("%s.%s-%s.%s", source, sourcePort, target, targetPort),
		Source:       source,
		SourceHandle: sourcePort,
		Target:       target,
		TargetHandle: targetPort,
	})
	return b
}

// Graph returns what has been declared so far without validating it.
func (b *Builder) Graph() domain.Graph {
	g := domain.Graph{
		Nodes: make([]domain.NodeInstance, len(b.nodes)),
		Edges: append([]domain.Connection(nil), b.edges...),
	}
	for i, nb := range b.nodes {
		g.Nodes[i] = nb.node
	}
	return g
}

// Build validates the declared graph. Every connection must pass the
// validator and the graph must have a topological order.
func (b *Builder) Build() (domain.Graph, error) {
	if len(b.errs) > 0 {
		return domain.Graph{}, errors.Join(b.errs...)
	}
	g := b.Graph()
	if err := validator.Errors(b.validator.ValidateGraph(g.Nodes, g.Edges)); err != nil {
		return domain.Graph{}, err
	}
	if _, err := executor.Build(g.Nodes, g.Edges); err != nil {
		return domain.Graph{}, err
	}
	return g, nil
}
