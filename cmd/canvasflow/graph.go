package main

import (
	"fmt"

	"github.com/aretw0/canvasflow/internal/presentation/graph"
	"github.com/aretw0/canvasflow/pkg/adapters/file"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <graph>",
	Short: "Export the graph visualization",
	Long:  `Outputs a Mermaid diagram (graph LR) of the workflow with edges colored by port type.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := file.LoadGraph(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(registry.Default(), g, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
