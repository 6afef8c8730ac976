package main

import (
	"log"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/startup"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := startup.Initialize(cmd.Context()); err != nil {
			return err
		}
		log.Println("Application has shut down gracefully.")
		return nil
	},
}
