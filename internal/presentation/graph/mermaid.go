package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/aretw0/canvasflow/pkg/status"
)

// Overlay carries run state to paint on top of the graph.
type Overlay struct {
	Statuses    map[string]domain.NodeStatusValue
	CurrentNode string
}

// OverlayFromState derives an overlay from an execution state snapshot.
func OverlayFromState(s *domain.ExecutionState) *Overlay {
	if s == nil {
		return nil
	}
	o := &Overlay{Statuses: map[string]domain.NodeStatusValue{}, CurrentNode: s.CurrentNodeID}
	for id := range s.Completed {
		o.Statuses[id] = domain.NodeCompleted
	}
	for id := range s.Failed {
		o.Statuses[id] = domain.NodeError
	}
	for id := range s.Skipped {
		o.Statuses[id] = domain.NodeSkipped
	}
	return o
}

// OverlayFromStatuses derives an overlay from a status table.
func OverlayFromStatuses(statuses []domain.NodeStatus) *Overlay {
	o := &Overlay{Statuses: map[string]domain.NodeStatusValue{}}
	for _, s := range statuses {
		o.Statuses[s.NodeID] = s.Status
		if s.Status == domain.NodeRunning {
			o.CurrentNode = s.NodeID
		}
	}
	return o
}

// PortColor is the stroke color of edges carrying a port type.
func PortColor(t domain.PortType) string {
	switch t {
	case domain.PortText:
		return "#3b82f6"
	case domain.PortImage:
		return "#22c55e"
	case domain.PortStyle:
		return "#a855f7"
	case domain.PortMaterial:
		return "#f97316"
	case domain.PortVariants:
		return "#ec4899"
	}
	return "#9ca3af"
}

// EdgeLabel returns the label and color of an edge, derived from the type of
// its source port. ok is false when the port cannot be resolved.
func EdgeLabel(reg *registry.Registry, nodes []domain.NodeInstance, e domain.Connection) (label, color string, ok bool) {
	for _, n := range nodes {
		if n.ID != e.Source {
			continue
		}
		port, found := reg.OutputPort(n.Type, e.SourceHandle)
		if !found {
			return "", "", false
		}
		return port.Type.String(), PortColor(port.Type), true
	}
	return "", "", false
}

// GenerateMermaid renders g as a Mermaid flowchart. Node shapes follow the
// category of the node type:
//   - input: [/Parallelogram/]
//   - output: [[Subroutine]]
//   - utility: (Rounded)
//   - processing and unknown types: [Rectangle]
//
// Edges are labelled and colored by the port type they carry.
func GenerateMermaid(reg *registry.Registry, g domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, n := range g.Nodes {
		opener, closer := "[", "]"
		label := n.ID
		if def, ok := reg.Definition(n.Type); ok {
			switch def.Category {
			case domain.CategoryInput:
				opener, closer = "[/", "/]"
			case domain.CategoryOutput:
				opener, closer = "[[", "]]"
			case domain.CategoryUtility:
				opener, closer = "(", ")"
			}
			label = fmt.Sprintf("%s<br/>%s", def.Label, n.ID)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(n.ID), opener, escape(label), closer)
	}

	var linkStyles []string
	for i, e := range g.Edges {
		arrow := "-->"
		if label, color, ok := EdgeLabel(reg, g.Nodes, e); ok {
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
			linkStyles = append(linkStyles, fmt.Sprintf("    linkStyle %d stroke:%s,stroke-width:2px;\n", i, color))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.Source), arrow, sanitizeMermaidID(e.Target))
	}
	for _, s := range linkStyles {
		sb.WriteString(s)
	}

	if overlay != nil {
		writeOverlay(&sb, g, overlay)
	}
	return sb.String()
}

func writeOverlay(sb *strings.Builder, g domain.Graph, overlay *Overlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	for _, s := range []domain.NodeStatusValue{domain.NodeRunning, domain.NodeCompleted, domain.NodeError, domain.NodeSkipped} {
		fmt.Fprintf(sb, "    classDef %s fill:%s,stroke:#111827,color:#000;\n", s, status.Color(s))
	}
	// Declaration order keeps the output stable.
	for _, n := range g.Nodes {
		if n.ID == overlay.CurrentNode {
			fmt.Fprintf(sb, "    class %s %s;\n", sanitizeMermaidID(n.ID), domain.NodeRunning)
			continue
		}
		if s, ok := overlay.Statuses[n.ID]; ok && s != domain.NodeIdle {
			fmt.Fprintf(sb, "    class %s %s;\n", sanitizeMermaidID(n.ID), s)
		}
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
