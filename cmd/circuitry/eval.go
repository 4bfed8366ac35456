package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/circuitry/internal/cli"
)

var evalCmd = &cobra.Command{
	Use:   "eval FILE BITS",
	Short: "Evaluate a circuit for one input combination",
	Long: `Loads a circuit document (JSON or YAML, "-" for stdin), drives its input
ports with BITS (first port first) and prints the output port values.`,
	Example: `  circuitry eval half-adder.yaml 11`,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		doc, err := cli.ReadDocument(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		bits := ""
		if len(args) > 1 {
			bits = args[1]
		}
		return cli.Eval(app, doc, bits, cmd.OutOrStdout())
	},
}

var tableCmd = &cobra.Command{
	Use:   "table FILE",
	Short: "Print the truth table of a circuit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		doc, err := cli.ReadDocument(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		return cli.Table(app, doc, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(tableCmd)
}
