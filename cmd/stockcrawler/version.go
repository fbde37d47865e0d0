package main

import (
	"github.com/spf13/cobra"
)

// versionCmd prints the same text as --version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Print(versionText())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
