package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "dispatchd",
		Short: "Serve and inspect a dispatch endpoint map",
		Long: `dispatchd serves the demo endpoint map over HTTP and exposes the
tooling around it: the route table, URL building and TypeScript types.

Settings come from an optional YAML file and DISPATCH_* environment
variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		routesCmd(&configPath),
		urlCmd(&configPath),
		genTSCmd(&configPath),
		versionCmd(),
	)
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dispatchd %s (%s)\n", version, commit)
		},
	}
}
