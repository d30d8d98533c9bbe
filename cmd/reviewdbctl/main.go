// reviewdbctl is the operator CLI: bootstrap an admin account and bulk-load
// catalog fixtures from CSV files.
package main

import (
	"log"
	"os"

	"github.com/kratovich/reviewdb/internal/config"
	"github.com/kratovich/reviewdb/internal/database"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reviewdbctl",
		Short: "Admin tooling for the review database",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			database.Connect(cfg)
			database.Migrate()
		},
	}

	rootCmd.AddCommand(newCreateAdminCmd())
	rootCmd.AddCommand(newImportCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
