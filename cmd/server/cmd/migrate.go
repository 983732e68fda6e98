package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Apply the schema to the configured database and exit.

The schema uses CREATE ... IF NOT EXISTS, so running it twice is safe.

Example:
  finances migrate --db-driver postgres --db-dsn postgres://localhost/finances`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}
		slog.Info("schema up to date", "driver", cfg.Database.Driver)
		return nil
	},
}
