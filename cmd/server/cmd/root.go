// Package cmd provides CLI commands for the finances server.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ana-biscalchin/finances/config"
	"github.com/ana-biscalchin/finances/store/sqldb"
)

var (
	cfgFile  string
	debug    bool
	port     int
	dbDriver string
	dbDSN    string

	// cfg is loaded once in PersistentPreRunE and shared by subcommands.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "finances",
	Short: "Personal finance ledger and balance engine",
	Long: `finances tracks accounts, payment methods, categories and dated
income/expense/transfer transactions, and computes account balances.

Configuration is read from .env, an optional YAML file (--config) and
FINANCES_* environment variables. Flags override all of them.

Example:
  finances serve --port 8080
  finances serve --db-driver postgres --db-dsn postgres://localhost/finances
  finances migrate --db-dsn ./data/finances.db`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("port") {
			loaded.HTTP.Port = port
		}
		if flags.Changed("db-driver") {
			loaded.Database.Driver = dbDriver
		}
		if flags.Changed("db-dsn") {
			loaded.Database.DSN = dbDSN
		}
		if err := loaded.Validate(); err != nil {
			return err
		}

		// Setup logging
		slog.SetDefault(loaded.Log.NewLogger(os.Stderr, debug))
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (optional)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "database driver: sqlite3 or postgres")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db-dsn", "", "database DSN (SQLite path or PostgreSQL URL)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// openStore opens the configured database. Opening applies the schema.
func openStore() (*sqldb.Store, error) {
	slog.Debug("opening database", "driver", cfg.Database.Driver)
	store, err := sqldb.New(sqldb.Driver(cfg.Database.Driver), cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}
