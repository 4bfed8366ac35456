package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/circuitry"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of circuitry",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "circuitry version %s\n", strings.TrimSpace(circuitry.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
