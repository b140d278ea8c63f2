package main

import (
	"fmt"

	"github.com/aretw0/canvasflow/pkg/adapters/file"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/aretw0/canvasflow/pkg/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph>",
	Short: "Check every connection of a graph",
	Long:  `Validates each edge against the port types of the node catalog and reports every rejected connection.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := file.LoadGraph(args[0])
		if err != nil {
			return err
		}
		v := validator.New(registry.Default())
		if err := validator.Errors(v.ValidateGraph(g.Nodes, g.Edges)); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Graph is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
