// Command reliabilityctl is the operator tool for the reliability backend:
// schema migration, manual entitlement grants and checks, and signing
// webhook payloads for local testing.
package main

import (
	"fmt"
	"os"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/logging"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// openDB is swapped out in tests.
var openDB = func(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(postgres.Open(cfg.DSN()))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reliabilityctl",
		Short:         "Operator commands for the vehicle reliability backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newSignWebhookCmd(), newGrantCmd(), newCheckCmd())
	return root
}

func main() {
	logging.Setup()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
