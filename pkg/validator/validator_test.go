package validator_test

import (
	"testing"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/aretw0/canvasflow/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canvas() []domain.NodeInstance {
	return []domain.NodeInstance{
		{ID: "T", Type: registry.TypeTextPrompt},
		{ID: "I", Type: registry.TypeImageGenerator},
		{ID: "V", Type: registry.TypeVariantGenerator},
		{ID: "S", Type: registry.TypeStyleSettings},
		{ID: "G", Type: registry.TypeGalleryOutput},
		{ID: "X", Type: "hologram"},
	}
}

func edge(id, src, srcPort, dst, dstPort string) domain.Connection {
	return domain.Connection{ID: id, Source: src, SourceHandle: srcPort, Target: dst, TargetHandle: dstPort}
}

func TestValidateConnection(t *testing.T) {
	v := validator.New(registry.Default())
	nodes := canvas()

	tests := []struct {
		name  string
		conn  domain.Connection
		valid bool
		code  validator.Code
		error string
		hint  string
	}{
		{
			name:  "missing target handle",
			conn:  domain.Connection{Source: "T", Target: "I", SourceHandle: "text"},
			code:  validator.CodeMissingParameters,
			error: "Missing connection parameters",
		},
		{
			name:  "self connection",
			conn:  edge("e", "n1", "x", "n1", "y"),
			code:  validator.CodeSelfConnection,
			error: "Cannot connect a node to itself",
		},
		{
			name:  "unknown source",
			conn:  edge("e", "ghost", "text", "I", "prompt"),
			code:  validator.CodeNodeNotFound,
			error: "Source node not found: ghost",
		},
		{
			name:  "unknown target",
			conn:  edge("e", "T", "text", "ghost", "prompt"),
			code:  validator.CodeNodeNotFound,
			error: "Target node not found: ghost",
		},
		{
			name: "unregistered type",
			conn: edge("e", "X", "out", "I", "prompt"),
			code: validator.CodeInvalidNodeType,
		},
		{
			name:  "missing source port",
			conn:  edge("e", "T", "image", "I", "prompt"),
			code:  validator.CodePortNotFound,
			error: `Source port "image" not found on Text Prompt`,
		},
		{
			name:  "missing target port",
			conn:  edge("e", "T", "text", "I", "negative"),
			code:  validator.CodePortNotFound,
			error: `Target port "negative" not found on Image Generator`,
		},
		{
			name:  "text into image",
			conn:  edge("e", "T", "text", "V", "sourceImage"),
			code:  validator.CodeTypeMismatch,
			error: "Type mismatch: cannot connect text to image",
			hint:  "Expected image, got text",
		},
		{
			name:  "settings node has no inputs",
			conn:  edge("e", "I", "image", "S", "style"),
			code:  validator.CodePortNotFound,
			error: `Target port "style" not found on Style`,
		},
		{
			name:  "required input",
			conn:  edge("e", "T", "text", "I", "prompt"),
			valid: true,
			hint:  `Connected to required input "Prompt"`,
		},
		{
			name:  "optional input",
			conn:  edge("e", "S", "style", "I", "style"),
			valid: true,
		},
		{
			name:  "image widens to variants",
			conn:  edge("e", "I", "image", "G", "images"),
			valid: true,
			hint:  `Connected to required input "Images"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateConnection(tt.conn, nodes)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.code, res.Code)
			if tt.error != "" {
				assert.Equal(t, tt.error, res.Error)
			}
			assert.Equal(t, tt.hint, res.Hint)
		})
	}
}

func TestValidateConnection_SelfLoopAnyNodeSet(t *testing.T) {
	v := validator.New(registry.Default())
	for _, nodes := range [][]domain.NodeInstance{nil, canvas()} {
		res := v.ValidateConnection(edge("e", "n1", "x", "n1", "y"), nodes)
		assert.False(t, res.Valid)
		assert.Equal(t, "Cannot connect a node to itself", res.Error)
	}
}

func TestIsTypeCompatible(t *testing.T) {
	v := validator.New(registry.Default())
	assert.True(t, v.IsTypeCompatible(domain.PortImage, domain.PortImage))
	assert.True(t, v.IsTypeCompatible(domain.PortImage, domain.PortVariants))
	assert.False(t, v.IsTypeCompatible(domain.PortImage, domain.PortStyle))
	assert.False(t, v.IsTypeCompatible(domain.PortText, domain.PortImage))
}

func TestWouldCreateCycle(t *testing.T) {
	v := validator.New(registry.Default())
	nodes := []domain.NodeInstance{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	edges := []domain.Connection{
		edge("ab", "A", "o", "B", "i"),
		edge("bc", "B", "o", "C", "i"),
	}

	assert.True(t, v.WouldCreateCycle(edge("ca", "C", "o", "A", "i"), nodes, edges))
	assert.True(t, v.WouldCreateCycle(edge("ba", "B", "o", "A", "i"), nodes, edges))
	assert.True(t, v.WouldCreateCycle(edge("aa", "A", "o", "A", "i"), nodes, edges))
	assert.False(t, v.WouldCreateCycle(edge("ac", "A", "o", "C", "i"), nodes, edges))
	assert.False(t, v.WouldCreateCycle(edge("ab2", "A", "o", "B", "i"), nodes, nil))
}

func TestValidateGraph(t *testing.T) {
	v := validator.New(registry.Default())
	nodes := canvas()
	edges := []domain.Connection{
		edge("ok", "T", "text", "I", "prompt"),
		edge("bad", "T", "text", "V", "sourceImage"),
		edge("self", "I", "image", "I", "prompt"),
	}

	results := v.ValidateGraph(nodes, edges)
	require.Len(t, results, 3)
	assert.Equal(t, "ok", results[0].EdgeID)
	assert.True(t, results[0].Result.Valid)
	assert.Equal(t, validator.CodeTypeMismatch, results[1].Result.Code)
	assert.Equal(t, validator.CodeSelfConnection, results[2].Result.Code)

	err := validator.Errors(results)
	var graphErr *validator.GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Len(t, graphErr.Invalid, 2)
	assert.Contains(t, err.Error(), "edge bad: Type mismatch")

	assert.NoError(t, validator.Errors(results[:1]))
}

func TestValidTargets(t *testing.T) {
	v := validator.New(registry.Default())
	nodes := []domain.NodeInstance{
		{ID: "T", Type: registry.TypeTextPrompt},
		{ID: "I", Type: registry.TypeImageGenerator},
		{ID: "V", Type: registry.TypeVariantGenerator},
		{ID: "G", Type: registry.TypeGalleryOutput},
	}

	targets := v.ValidTargets("T", "text", nodes, nil)
	got := make([]string, len(targets))
	for i, tg := range targets {
		got[i] = tg.NodeID + "." + tg.PortID
	}
	assert.Equal(t, []string{"I.prompt", "V.prompt"}, got)

	// Parallel edges are not rejected; only cycles and invalid ports are.
	edges := []domain.Connection{edge("iv", "I", "image", "V", "sourceImage")}
	targets = v.ValidTargets("I", "image", nodes, edges)
	got = got[:0]
	for _, tg := range targets {
		got = append(got, tg.NodeID+"."+tg.PortID)
	}
	assert.Equal(t, []string{"V.sourceImage", "G.images"}, got)
}
