package domain

// Category groups node types in the editor palette.
type Category string

const (
	CategoryInput      Category = "input"
	CategoryProcessing Category = "processing"
	CategoryOutput     Category = "output"
	CategoryUtility    Category = "utility"
)

// NodeTypeDefinition declares one kind of node: its ports and the default
// configuration new instances start from. Definitions are immutable once
// registered.
type NodeTypeDefinition struct {
	Type        string         `json:"type" yaml:"type"`
	Label       string         `json:"label" yaml:"label"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Category    Category       `json:"category" yaml:"category"`
	Inputs      []Port         `json:"inputs" yaml:"inputs"`
	Outputs     []Port         `json:"outputs" yaml:"outputs"`
	Defaults    map[string]any `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// Input looks up an input port by id.
func (d NodeTypeDefinition) Input(id string) (Port, bool) {
	return findPort(d.Inputs, id)
}

// Output looks up an output port by id.
func (d NodeTypeDefinition) Output(id string) (Port, bool) {
	return findPort(d.Outputs, id)
}

// RequiredInputs returns the input ports flagged as required, in order.
func (d NodeTypeDefinition) RequiredInputs() []Port {
	var out []Port
	for _, p := range d.Inputs {
		if p.Required {
			out = append(out, p)
		}
	}
	return out
}

func findPort(ports []Port, id string) (Port, bool) {
	for _, p := range ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Position is the canvas placement of a node. Presentation only.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeInstance is a node placed on a canvas.
type NodeInstance struct {
	ID       string         `json:"id" yaml:"id"`
	Type     string         `json:"type" yaml:"type"`
	Position Position       `json:"position" yaml:"position"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// Connection is a directed edge from an output port of Source to an input
// port of Target. It carries no type information of its own.
type Connection struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle" yaml:"sourceHandle"`
	TargetHandle string `json:"targetHandle" yaml:"targetHandle"`
}

// Graph is a workflow as described by the editor.
type Graph struct {
	Nodes []NodeInstance `json:"nodes" yaml:"nodes"`
	Edges []Connection   `json:"edges" yaml:"edges"`
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (NodeInstance, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeInstance{}, false
}

// NodeIDs returns node ids in declaration order.
func (g Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}
