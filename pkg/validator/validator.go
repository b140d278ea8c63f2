// Package validator checks proposed connections between nodes: structural
// validity, port existence, type compatibility and cycle avoidance.
package validator

import (
	"fmt"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/registry"
)

// Validator checks connections against a node type registry.
type Validator struct {
	registry *registry.Registry
}

// New creates a validator over reg.
func New(reg *registry.Registry) *Validator {
	return &Validator{registry: reg}
}

// IsTypeCompatible reports whether a src port may feed a dst port.
func (v *Validator) IsTypeCompatible(src, dst domain.PortType) bool {
	return domain.Compatible(src, dst)
}

// ValidateConnection checks conn against nodes. Checks run in a fixed order
// and the first failure is returned.
func (v *Validator) ValidateConnection(conn domain.Connection, nodes []domain.NodeInstance) Result {
	if conn.Source == "" || conn.Target == "" || conn.SourceHandle == "" || conn.TargetHandle == "" {
		return invalid(CodeMissingParameters, "Missing connection parameters")
	}

	if conn.Source == conn.Target {
		return invalid(CodeSelfConnection, "Cannot connect a node to itself")
	}

	source, ok := findNode(nodes, conn.Source)
	if !ok {
		return invalid(CodeNodeNotFound, fmt.Sprintf("Source node not found: %s", conn.Source))
	}
	target, ok := findNode(nodes, conn.Target)
	if !ok {
		return invalid(CodeNodeNotFound, fmt.Sprintf("Target node not found: %s", conn.Target))
	}

	sourceDef, ok := v.registry.Definition(source.Type)
	if !ok {
		return invalid(CodeInvalidNodeType, fmt.Sprintf("Invalid node type: %s", source.Type))
	}
	targetDef, ok := v.registry.Definition(target.Type)
	if !ok {
		return invalid(CodeInvalidNodeType, fmt.Sprintf("Invalid node type: %s", target.Type))
	}

	out, ok := sourceDef.Output(conn.SourceHandle)
	if !ok {
		return invalid(CodePortNotFound, fmt.Sprintf("Source port %q not found on %s", conn.SourceHandle, sourceDef.Label))
	}
	in, ok := targetDef.Input(conn.TargetHandle)
	if !ok {
		return invalid(CodePortNotFound, fmt.Sprintf("Target port %q not found on %s", conn.TargetHandle, targetDef.Label))
	}

	if !v.IsTypeCompatible(out.Type, in.Type) {
		return Result{
			Code:  CodeTypeMismatch,
			Error: fmt.Sprintf("Type mismatch: cannot connect %s to %s", out.Type, in.Type),
			Hint:  fmt.Sprintf("Expected %s, got %s", in.Type, out.Type),
		}
	}

	if in.Required {
		return Result{Valid: true, Hint: fmt.Sprintf("Connected to required input %q", in.Label)}
	}
	return Result{Valid: true}
}

// ValidateGraph validates every edge independently. It does not look for
// cycles across the edge set; the executor's topological sort does that.
func (v *Validator) ValidateGraph(nodes []domain.NodeInstance, edges []domain.Connection) []EdgeResult {
	results := make([]EdgeResult, len(edges))
	for i, e := range edges {
		results[i] = EdgeResult{EdgeID: e.ID, Result: v.ValidateConnection(e, nodes)}
	}
	return results
}

// WouldCreateCycle reports whether adding conn to an acyclic edge set would
// close a cycle, i.e. whether conn.Source is reachable from conn.Target.
func (v *Validator) WouldCreateCycle(conn domain.Connection, nodes []domain.NodeInstance, edges []domain.Connection) bool {
	if conn.Source == conn.Target {
		return true
	}

	next := make(map[string][]string, len(nodes))
	for _, e := range edges {
		next[e.Source] = append(next[e.Source], e.Target)
	}

	visited := map[string]bool{conn.Target: true}
	queue := []string{conn.Target}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, n := range next[current] {
			if n == conn.Source {
				return true
			}
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}

// Target is an input port that a given output could feed.
type Target struct {
	NodeID string      `json:"node_id"`
	PortID string      `json:"port_id"`
	Port   domain.Port `json:"port"`
}

// ValidTargets lists every input port in nodes that the output port
// sourcePortID of sourceNodeID may connect to without failing validation or
// closing a cycle through edges.
func (v *Validator) ValidTargets(sourceNodeID, sourcePortID string, nodes []domain.NodeInstance, edges []domain.Connection) []Target {
	var out []Target
	for _, n := range nodes {
		if n.ID == sourceNodeID {
			continue
		}
		def, ok := v.registry.Definition(n.Type)
		if !ok {
			continue
		}
		for _, in := range def.Inputs {
			conn := domain.Connection{
				Source:       sourceNodeID,
				Target:       n.ID,
				SourceHandle: sourcePortID,
				TargetHandle: in.ID,
			}
			if !v.ValidateConnection(conn, nodes).Valid {
				continue
			}
			if v.WouldCreateCycle(conn, nodes, edges) {
				continue
			}
			out = append(out, Target{NodeID: n.ID, PortID: in.ID, Port: in})
		}
	}
	return out
}

func findNode(nodes []domain.NodeInstance, id string) (domain.NodeInstance, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return domain.NodeInstance{}, false
}
