package dsl

import "github.com/aretw0/canvasflow/pkg/domain"

// NodeBuilder configures one node.
type NodeBuilder struct {
	node    domain.NodeInstance
	builder *Builder
}

// Set overrides one configuration key.
func (n *NodeBuilder) Set(key string, value any) *NodeBuilder {
	if n.node.Data == nil {
		n.node.Data = make(map[string]any)
	}
	n.node.Data[key] = value
	return n
}

// At positions the node on the canvas.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.Position{X: x, Y: y}
	return n
}

// From connects source's sourcePort into this node's inputPort.
func (n *NodeBuilder) From(source, sourcePort, inputPort string) *NodeBuilder {
	n.builder.Connect(source, sourcePort, n.node.ID, inputPort)
	return n
}

// To connects this node's outputPort into target's targetPort.
func (n *NodeBuilder) To(outputPort, target, targetPort string) *NodeBuilder {
	n.builder.Connect(n.node.ID, outputPort, target, targetPort)
	return n
}

// Build returns the node as configured so far.
func (n *NodeBuilder) Build() domain.NodeInstance {
	return n.node
}
