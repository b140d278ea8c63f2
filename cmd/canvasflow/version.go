package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/canvasflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of canvasflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "canvasflow version %s\n", strings.TrimSpace(canvasflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
