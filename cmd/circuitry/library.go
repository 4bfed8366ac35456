package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/circuitry/internal/cli"
	"github.com/aretw0/circuitry/pkg/codec"
)

var libraryCmd = &cobra.Command{
	Use:     "library",
	Aliases: []string{"lib"},
	Short:   "Manage the custom component library",
}

var libraryListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List custom components with their port counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.LibraryList(app, cmd.OutOrStdout())
	},
}

var libraryShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print the document of a custom component",
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
		return cli.LibraryShow(cmd.Context(), app, args[0], format, cmd.OutOrStdout())
	},
}

var libraryAddCmd = &cobra.Command{
	Use:   "add NAME FILE",
	Short: "Save a circuit document as a custom component",
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
		return cli.LibraryAdd(cmd.Context(), app, args[0], doc, cmd.OutOrStdout())
	},
}

var libraryRemoveCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Delete a custom component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.LibraryRemove(cmd.Context(), app, args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryListCmd, libraryShowCmd, libraryAddCmd, libraryRemoveCmd)
	libraryShowCmd.Flags().StringP("format", "f", "yaml", "Output format: json or yaml")
}
