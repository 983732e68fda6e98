package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ana-biscalchin/finances/accounts"
	"github.com/ana-biscalchin/finances/api"
	"github.com/ana-biscalchin/finances/transactions"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API and serve until SIGINT or SIGTERM.

On shutdown the server stops accepting connections, waits up to 30s for
active requests, then closes the database.

Example:
  finances serve
  finances serve --port 3000 --debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config, 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	logger := slog.Default()
	handler := api.NewHandler(
		transactions.NewService(store, transactions.WithLogger(logger)),
		accounts.NewService(store, accounts.WithLogger(logger)),
		logger,
	)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.HTTP.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", server.Addr, "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
