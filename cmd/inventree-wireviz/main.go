// Package main is the wireviz plugin backend command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "inventree-wireviz",
	Short: "Wire harness diagrams and BOMs for InvenTree parts",
	Long: `Serves the wireviz plugin endpoints and panel data, and offers offline
tools for checking harness files before they are uploaded.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, bomCmd, renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
