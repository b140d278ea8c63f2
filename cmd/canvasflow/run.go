package main

import (
	"context"

	"github.com/aretw0/canvasflow/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <graph>",
	Short: "Execute a workflow graph",
	Long: `Executes the graph in dependency order, running independent nodes concurrently.
Node work is performed by the commands configured in the handlers file; with
--dry-run, types without a handler echo their inputs instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := loggerFromFlags(cmd)
		if err != nil {
			return err
		}
		engineOpts, err := engineOptions(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		key, _ := cmd.Flags().GetString("key")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.Execute(ctx, cli.RunOptions{
			EngineOptions: engineOpts,
			GraphPath:     args[0],
			Key:           key,
			JSON:          asJSON,
			Mermaid:       mermaid,
			Out:           cmd.OutOrStdout(),
		}, logger)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addEngineFlags(runCmd)
	runCmd.Flags().Bool("json", false, "Print the final state as JSON")
	runCmd.Flags().Bool("mermaid", false, "Print a Mermaid diagram colored by the outcome")
	runCmd.Flags().String("key", "", "Workflow key; runs sharing a key never overlap")
}
