package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/circuitry/internal/cli"
	"github.com/aretw0/circuitry/pkg/codec"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage persisted workspaces",
}

var workspaceListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List workspaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.Workspaces(cmd.Context(), app, cmd.OutOrStdout())
	},
}

var workspaceExportCmd = &cobra.Command{
	Use:   "export NAME",
	Short: "Print a workspace document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("format")
		format, err := codec.ParseFormat(name)
		if err != nil {
			return err
		}
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.Export(cmd.Context(), app, args[0], format, cmd.OutOrStdout())
	},
}

var workspaceImportCmd = &cobra.Command{
	Use:   "import NAME FILE",
	Short: "Replace a workspace with a circuit document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		doc, err := cli.ReadDocument(args[1], cmd.InOrStdin())
		if err != nil {
			return err
		}
		return cli.Import(cmd.Context(), app, args[0], doc, cmd.OutOrStdout())
	},
}

var workspaceRemoveCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Delete a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Engine.Delete(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
	workspaceCmd.AddCommand(workspaceListCmd, workspaceExportCmd, workspaceImportCmd, workspaceRemoveCmd)
	workspaceExportCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
}
