package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "v1.0.0" // Overwritten at build time
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "allerscan",
		Short: "Recipe allergen and export risk analysis",
		Long: `allerscan runs the allergen analysis and the regulatory case lookup against the
local reference catalogs, the same way the HTTP server does.`,
		SilenceUsage: true,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newCasesCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "allerscan version %s\n", version)
		},
	}
}
