/*
main.go - Application entry point

PURPOSE:
  Starts the finances CLI. Subcommands live in cmd/server/cmd.

STARTUP SEQUENCE (serve):
  1. Load config (.env, --config YAML, FINANCES_* env, flags)
  2. Build the slog logger
  3. Open the store (SQLite or PostgreSQL) and apply the schema
  4. Create services, handler and router
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./finances serve --db-dsn ./data/finances.db

  # Run with in-memory database
  ./finances serve --db-dsn ":memory:"

  # Run against PostgreSQL on a different port
  ./finances serve --db-driver postgres --db-dsn "postgres://localhost/finances?sslmode=disable" --port 3000

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - store/sqldb/sqldb.go: Database implementation
*/
package main

import (
	"os"

	"github.com/ana-biscalchin/finances/cmd/server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
