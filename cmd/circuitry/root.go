package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/circuitry/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "circuitry",
	Short: "Circuitry edits and simulates boolean logic circuits",
	Long: `Circuitry builds circuits from gates, ports and reusable custom components,
evaluates them, prints truth tables and serves them over HTTP or MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a circuitry.yaml config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().String("store", "", "Workspace store driver: memory, file or redis")
	rootCmd.PersistentFlags().String("library", "", "Read-only directory of custom component documents")
}

// loadApp builds the App from the persistent flags.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	opts := cli.Options{ConfigPath: configPath, Debug: debug, Overrides: map[string]string{}}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		opts.Overrides["store.driver"] = store
	}
	if lib, _ := cmd.Flags().GetString("library"); lib != "" {
		opts.Overrides["library.path"] = lib
	}

	cfg, err := cli.LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cmd.Context(), cfg, cli.CreateLogger(cfg))
}
