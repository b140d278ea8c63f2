package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/canvasflow/internal/cli"
	"github.com/aretw0/canvasflow/internal/presentation/tui"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the node type catalog",
	Long:  `Prints every registered node type with its input and output ports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		asJSON, _ := cmd.Flags().GetBool("json")

		reg := registry.Default()
		defs := reg.Definitions()
		if category != "" {
			defs = reg.DefinitionsByCategory(domain.Category(category))
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(defs)
		}

		md := tui.CatalogMarkdown(defs)
		if !cli.IsTerminal(out) {
			fmt.Fprint(out, md)
			return nil
		}
		rendered, err := tui.NewRenderer()(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd)
	nodesCmd.Flags().String("category", "", "Only list this category (input, processing, output, utility)")
	nodesCmd.Flags().Bool("json", false, "Print definitions as JSON")
}
