// Package main implements the floc CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"floc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "floc",
	Short: "LLVM IR to FLO object compiler",
	Long:  "floc compiles textual LLVM IR modules into FLO interchange objects.",
}

func main() {
	rootCmd.Version = version.Number()

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
