package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/circuitry/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph FILE",
	Short: "Export the circuit as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph LR) of the circuit. With --bits the circuit
is evaluated first and components with a high output are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bits, _ := cmd.Flags().GetString("bits")

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		doc, err := cli.ReadDocument(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		return cli.Graph(app, doc, bits, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("bits", "", "Stimulus to evaluate before drawing, e.g. 101")
}
