package dto

import (
	"fmt"

	"github.com/aretw0/canvasflow/pkg/domain"
)

// GraphDocument is the on-disk shape of a workflow graph. Field names follow
// the canvas editor's export (sourceHandle, targetHandle).
type GraphDocument struct {
	Name  string         `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Nodes []NodeDocument `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges []EdgeDocument `json:"edges" yaml:"edges" mapstructure:"edges"`
}

type NodeDocument struct {
	ID       string           `json:"id" yaml:"id" mapstructure:"id"`
	Type     string           `json:"type" yaml:"type" mapstructure:"type"`
	Position PositionDocument `json:"position" yaml:"position" mapstructure:"position"`
	Data     map[string]any   `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data"`
}

type PositionDocument struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

type EdgeDocument struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Source       string `json:"source" yaml:"source" mapstructure:"source"`
	Target       string `json:"target" yaml:"target" mapstructure:"target"`
	SourceHandle string `json:"sourceHandle" yaml:"sourceHandle" mapstructure:"sourceHandle"`
	TargetHandle string `json:"targetHandle" yaml:"targetHandle" mapstructure:"targetHandle"`
}

// ToDomain converts the document. Edges without an id get one derived from
// their endpoints.
func (d GraphDocument) ToDomain() (domain.Graph, error) {
	g := domain.Graph{
		Nodes: make([]domain.NodeInstance, 0, len(d.Nodes)),
		Edges: make([]domain.Connection, 0, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		if n.ID == "" || n.Type == "" {
			return domain.Graph{}, fmt.Errorf("node %d: id and type are required", i)
		}
		data := n.Data
		if data == nil {
			data = map[string]any{}
		}
		g.Nodes = append(g.Nodes, domain.NodeInstance{
			ID:       n.ID,
			Type:     n.Type,
			Position: domain.Position{X: n.Position.X, Y: n.Position.Y},
			Data:     data,
		})
	}
	for _, e := range d.Edges {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("e-%s-%s-%s-%s", e.Source, e.SourceHandle, e.Target, e.TargetHandle)
		}
		g.Edges = append(g.Edges, domain.Connection{
			ID:           id,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		})
	}
	return g, nil
}

// FromDomain is the inverse of ToDomain.
func FromDomain(name string, g domain.Graph) GraphDocument {
	d := GraphDocument{Name: name}
	for _, n := range g.Nodes {
		d.Nodes = append(d.Nodes, NodeDocument{
			ID:       n.ID,
			Type:     n.Type,
			Position: PositionDocument{X: n.Position.X, Y: n.Position.Y},
			Data:     n.Data,
		})
	}
	for _, e := range g.Edges {
		d.Edges = append(d.Edges, EdgeDocument(e))
	}
	return d
}
