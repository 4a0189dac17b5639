package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facio",
	Short: "Generate a canonical LR(1) parsing table from a grammar",
	Long: `facio provides two features:
- Generates a portable LR(1) parsing table from a grammar description.
- Renders a generated table in a readable format, conflicts included.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}
