package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/circuitry/internal/cli"
)

var shellCmd = &cobra.Command{
	Use:   "shell [WORKSPACE]",
	Short: "Edit a workspace interactively",
	Long: `Opens a line editor on a workspace (default "main"). Every edit is recorded
in the undo history and saved to the configured store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		headless, _ := cmd.Flags().GetBool("headless")
		name := "main"
		if len(args) > 0 {
			name = args[0]
		}

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Shell(ctx, app, name, cmd.InOrStdin(), cmd.OutOrStdout(), headless)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().Bool("headless", false, "No prompts or banner, for scripted input")
}
