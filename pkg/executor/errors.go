package executor

import (
	"fmt"
	"strings"

	"github.com/aretw0/canvasflow/pkg/domain"
)

// StructuralGraphError reports a graph that cannot be ordered.
type StructuralGraphError struct {
	// Unordered lists nodes left out of the topological order.
	Unordered []string
	// DanglingEdges lists edges whose endpoints are not in the node set.
	DanglingEdges []string
}

func (e *StructuralGraphError) Error() string {
	var parts []string
	if len(e.Unordered) > 0 {
		parts = append(parts, "unordered nodes: "+strings.Join(e.Unordered, ", "))
	}
	if len(e.DanglingEdges) > 0 {
		parts = append(parts, "dangling edges: "+strings.Join(e.DanglingEdges, ", "))
	}
	return fmt.Sprintf("%v (%s)", domain.ErrCycleOrDisconnectedGraph, strings.Join(parts, "; "))
}

func (e *StructuralGraphError) Unwrap() error {
	return domain.ErrCycleOrDisconnectedGraph
}

// NodeExecutionError wraps the failure of a node's execute callback.
type NodeExecutionError struct {
	NodeID string
	Err    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match domain.ErrNodeExecution.
func (e *NodeExecutionError) Is(target error) bool {
	return target == domain.ErrNodeExecution
}
