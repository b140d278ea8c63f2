package main

import (
	"fmt"

	"github.com/aretw0/canvasflow/pkg/adapters/file"
	"github.com/aretw0/canvasflow/pkg/executor"
	"github.com/spf13/cobra"
)

var orderCmd = &cobra.Command{
	Use:   "order <graph>",
	Short: "Print the execution order of a graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := file.LoadGraph(args[0])
		if err != nil {
			return err
		}
		order, err := executor.Order(g.Nodes, g.Edges)
		if err != nil {
			return err
		}
		for i, id := range order {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orderCmd)
}
