package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/circuitry/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate PATH...",
	Short: "Check circuit documents for consistency",
	Long: `Checks circuit files, or every document of a library directory, for unknown
kinds, bad endpoints and doubly fed inputs. Unconnected inputs and feedback
loops are reported as warnings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := cli.Validate(cmd.Context(), app, args, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Circuits are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
