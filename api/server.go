/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in the log line
  2. Logger:     slog request logging (RequestLogger)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Tracing:    OpenTelemetry server span + request metrics
  5. CORS:       Cross-origin requests for the configured origins

ROUTE GROUPS:
  /api/accounts/*         Accounts, balances, account-scoped windows
  /api/users/*            User-scoped windows and categories
  /api/payment-methods/*  Payment method catalog
  /api/categories/*       Category management
  /api/transactions/*     Transaction CRUD and filtered listing
  /metrics                Prometheus exposition
  /healthz                Liveness

SECURITY NOTE:
  No authentication middleware. user_id is taken from the request as-is.

SEE ALSO:
  - handlers.go, transactions.go: Handler implementations
  - middleware.go: Tracing and request logging
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ana-biscalchin/finances/metrics"
)

// NewRouter creates a new router with all routes configured. An empty
// origins list allows any origin.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(Tracing)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Account routes
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Patch("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
			r.Get("/{id}/balance", h.GetAccountBalance)
			r.Get("/{id}/balance/details", h.GetAccountBalanceDetails)
			r.Get("/{id}/balance/range", h.GetBalanceByDateRange)
			r.Get("/{id}/transactions", h.GetAccountTransactions)
			r.Get("/{id}/payment-methods", h.ListAccountPaymentMethods)
			r.Post("/{id}/payment-methods", h.AssociatePaymentMethod)
			r.Delete("/{id}/payment-methods/{pmID}", h.DisassociatePaymentMethod)
		})

		// User-scoped routes
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/transactions", h.GetUserTransactions)
			r.Get("/categories", h.ListUserCategories)
			r.Get("/accounts", h.ListUserAccounts)
		})

		// Payment method routes
		r.Route("/payment-methods", func(r chi.Router) {
			r.Get("/", h.ListPaymentMethods)
			r.Post("/", h.CreatePaymentMethod)
			r.Get("/{id}", h.GetPaymentMethod)
			r.Put("/{id}", h.UpdatePaymentMethod)
			r.Delete("/{id}", h.DeletePaymentMethod)
			r.Get("/{id}/accounts", h.ListPaymentMethodAccounts)
		})

		// Category routes
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Get("/{id}", h.GetCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Patch("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		// Transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Get("/{id}", h.GetTransaction)
			r.Put("/{id}", h.UpdateTransaction)
			r.Patch("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})
	})

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
