package executor

import (
	"fmt"
	"slices"

	"github.com/aretw0/canvasflow/pkg/domain"
)

// DependencyGraph is the derived adjacency structure of a workflow.
// It is rebuilt from nodes and edges every time a run starts.
type DependencyGraph struct {
	nodes        []string
	types        map[string]string
	adjacency    map[string][]string
	inDegree     map[string]int
	dependencies map[string][]string
	dependents   map[string][]string
	order        []string
}

// Build derives the dependency graph of nodes and edges and computes its
// topological order. It fails with a *StructuralGraphError if an edge
// references a node outside the set or the edges contain a cycle.
func Build(nodes []domain.NodeInstance, edges []domain.Connection) (*DependencyGraph, error) {
	g := &DependencyGraph{
		nodes:        make([]string, 0, len(nodes)),
		types:        make(map[string]string, len(nodes)),
		adjacency:    make(map[string][]string, len(nodes)),
		inDegree:     make(map[string]int, len(nodes)),
		dependencies: make(map[string][]string, len(nodes)),
		dependents:   make(map[string][]string, len(nodes)),
	}

	for _, n := range nodes {
		if _, dup := g.types[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		g.nodes = append(g.nodes, n.ID)
		g.types[n.ID] = n.Type
		g.inDegree[n.ID] = 0
	}

	var dangling []string
	for _, e := range edges {
		_, srcOK := g.types[e.Source]
		_, dstOK := g.types[e.Target]
		if !srcOK || !dstOK {
			dangling = append(dangling, e.ID)
			continue
		}
		g.adjacency[e.Source] = append(g.adjacency[e.Source], e.Target)
		g.inDegree[e.Target]++
		if !slices.Contains(g.dependencies[e.Target], e.Source) {
			g.dependencies[e.Target] = append(g.dependencies[e.Target], e.Source)
			g.dependents[e.Source] = append(g.dependents[e.Source], e.Target)
		}
	}

	g.order = g.kahn()
	if len(dangling) > 0 || len(g.order) < len(g.nodes) {
		ordered := domain.NewNodeSet(g.order...)
		var unordered []string
		for _, id := range g.nodes {
			if !ordered.Has(id) {
				unordered = append(unordered, id)
			}
		}
		return nil, &StructuralGraphError{Unordered: unordered, DanglingEdges: dangling}
	}
	return g, nil
}

// kahn returns as much of a topological order as can be produced. The queue
// is seeded in node declaration order so the result is deterministic.
func (g *DependencyGraph) kahn() []string {
	degree := make(map[string]int, len(g.inDegree))
	for id, d := range g.inDegree {
		degree[id] = d
	}

	var queue []string
	for _, id := range g.nodes {
		if degree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)
		for _, next := range g.adjacency[current] {
			degree[next]--
			if degree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	return order
}

// Order returns the topological execution order.
func (g *DependencyGraph) Order() []string {
	return slices.Clone(g.order)
}

// Nodes returns node ids in declaration order.
func (g *DependencyGraph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Len is the number of nodes.
func (g *DependencyGraph) Len() int {
	return len(g.nodes)
}

// Dependencies returns the distinct upstream node ids of id.
func (g *DependencyGraph) Dependencies(id string) []string {
	return slices.Clone(g.dependencies[id])
}

// Dependents returns the distinct downstream node ids of id.
func (g *DependencyGraph) Dependents(id string) []string {
	return slices.Clone(g.dependents[id])
}

// Successors returns the raw adjacency list of id, one entry per edge.
func (g *DependencyGraph) Successors(id string) []string {
	return slices.Clone(g.adjacency[id])
}

// InDegree is the number of edges entering id.
func (g *DependencyGraph) InDegree(id string) int {
	return g.inDegree[id]
}

// Type returns the node type key of id.
func (g *DependencyGraph) Type(id string) string {
	return g.types[id]
}

// Descendants returns every node transitively reachable from id, in
// breadth-first order.
func (g *DependencyGraph) Descendants(id string) []string {
	seen := map[string]bool{id: true}
	queue := []string{id}
	var out []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.dependents[current] {
			if !seen[next] {
				seen[next] = true
				out = append(out, next)
				queue = append(queue, next)
			}
		}
	}
	return out
}

// Order is a convenience that builds the graph and returns its order.
func Order(nodes []domain.NodeInstance, edges []domain.Connection) ([]string, error) {
	g, err := Build(nodes, edges)
	if err != nil {
		return nil, err
	}
	return g.order, nil
}
