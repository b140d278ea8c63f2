package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour with a
// style matched to the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// CatalogMarkdown describes node type definitions as a markdown document,
// one section per type with its port tables.
func CatalogMarkdown(defs []domain.NodeTypeDefinition) string {
	var sb strings.Builder
	sb.WriteString("# Node types\n\n")
	for _, def := range defs {
		fmt.Fprintf(&sb, "## %s `%s`\n\n", def.Label, def.Type)
		fmt.Fprintf(&sb, "*%s*", def.Category)
		if def.Description != "" {
			fmt.Fprintf(&sb, " · %s", def.Description)
		}
		sb.WriteString("\n\n")
		writePorts(&sb, "Inputs", def.Inputs, true)
		writePorts(&sb, "Outputs", def.Outputs, false)
	}
	return sb.String()
}

func writePorts(sb *strings.Builder, title string, ports []domain.Port, showRequired bool) {
	if len(ports) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s**\n\n", title)
	if showRequired {
		sb.WriteString("| Port | Label | Type | Required |\n|---|---|---|---|\n")
	} else {
		sb.WriteString("| Port | Label | Type |\n|---|---|---|\n")
	}
	for _, p := range ports {
		if showRequired {
			req := ""
			if p.Required {
				req = "yes"
			}
			fmt.Fprintf(sb, "| `%s` | %s | %s | %s |\n", p.ID, p.Label, p.Type, req)
			continue
		}
		fmt.Fprintf(sb, "| `%s` | %s | %s |\n", p.ID, p.Label, p.Type)
	}
	sb.WriteString("\n")
}
