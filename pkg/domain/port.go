package domain

import (
	"fmt"
)

// PortType is the closed set of value kinds that can flow along an edge.
type PortType uint8

const (
	PortText PortType = iota
	PortImage
	PortStyle
	PortMaterial
	PortVariants

	portTypeCount
)

var portTypeNames = [portTypeCount]string{
	PortText:     "text",
	PortImage:    "image",
	PortStyle:    "style",
	PortMaterial: "material",
	PortVariants: "variants",
}

// compatibility[source][target] reports whether a source port of one type may
// feed a target port of another. Sized by portTypeCount so a new PortType
// without a row fails to compile.
var compatibility = [portTypeCount][portTypeCount]bool{
	PortText:     {PortText: true},
	PortImage:    {PortImage: true, PortVariants: true},
	PortStyle:    {PortStyle: true},
	PortMaterial: {PortMaterial: true},
	PortVariants: {PortVariants: true},
}

// PortTypes lists every port type in declaration order.
func PortTypes() []PortType {
	out := make([]PortType, 0, portTypeCount)
	for t := PortType(0); t < portTypeCount; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is a declared port type.
func (t PortType) Valid() bool {
	return t < portTypeCount
}

func (t PortType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("PortType(%d)", uint8(t))
	}
	return portTypeNames[t]
}

// MarshalText encodes the port type by name.
func (t PortType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid port type %d", uint8(t))
	}
	return []byte(portTypeNames[t]), nil
}

// UnmarshalText decodes a port type name.
func (t *PortType) UnmarshalText(text []byte) error {
	parsed, err := ParsePortType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParsePortType resolves a port type by name.
func ParsePortType(name string) (PortType, error) {
	for i, n := range portTypeNames {
		if n == name {
			return PortType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown port type %q", name)
}

// Compatible reports whether a value produced on a source port of type src may
// be fed into a target port of type dst. The relation is directional.
func Compatible(src, dst PortType) bool {
	if src == dst {
		return true
	}
	if !src.Valid() || !dst.Valid() {
		return false
	}
	return compatibility[src][dst]
}

// Port is a named, typed input or output slot of a node type.
type Port struct {
	ID    string   `json:"id" yaml:"id"`
	Label string   `json:"label" yaml:"label"`
	Type  PortType `json:"type" yaml:"type"`
	// Required only applies to input ports.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
}
