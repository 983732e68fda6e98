/*
handlers.go - HTTP API handlers for the finances ledger

PURPOSE:
  Exposes the account and transaction services via REST API. Handles HTTP
  request/response and JSON serialization, and delegates everything else to
  the services.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                          List accounts (?user_id=)
    POST   /api/accounts                          Create account
    GET    /api/accounts/{id}                     Get account
    PUT    /api/accounts/{id}                     Partial update / replace methods
    DELETE /api/accounts/{id}                     Delete account and its transactions
    GET    /api/accounts/{id}/balance             Current balance
    GET    /api/accounts/{id}/balance/details     Balance components
    GET    /api/accounts/{id}/balance/range       Balance components in [start, end]
    GET    /api/accounts/{id}/transactions        Account transactions (?window=)

  Payment methods:
    GET    /api/payment-methods                   List
    POST   /api/payment-methods                   Create (unique name)
    GET    /api/payment-methods/{id}/accounts     Accounts using the method
    GET    /api/accounts/{id}/payment-methods     Methods linked to the account
    POST   /api/accounts/{id}/payment-methods     Associate (idempotent)
    DELETE /api/accounts/{id}/payment-methods/{pmID}  Disassociate

  Users:
    GET    /api/users/{userID}/transactions       User transactions (?window=)
    GET    /api/users/{userID}/categories         User categories (?type=)
    GET    /api/users/{userID}/accounts           User accounts

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate category or payment method name)
  - 500: Internal errors (details are logged, not returned)

SEE ALSO:
  - transactions.go: Transaction, category and window handlers
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ana-biscalchin/finances/accounts"
	"github.com/ana-biscalchin/finances/ledger"
	"github.com/ana-biscalchin/finances/transactions"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	transactions *transactions.Service
	accounts     *accounts.Service
	logger       *slog.Logger
}

// NewHandler creates a handler over the two services. A nil logger uses
// slog.Default().
func NewHandler(txs *transactions.Service, accts *accounts.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{transactions: txs, accounts: accts, logger: logger}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns every account, or one user's accounts with ?user_id=.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	var (
		list []ledger.Account
		err  error
	)
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		list, err = h.accounts.ListAccountsByUser(r.Context(), userID)
	} else {
		list, err = h.accounts.ListAccounts(r.Context())
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTOs(list))
}

func (h *Handler) ListUserAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.accounts.ListAccountsByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTOs(list))
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.params())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(*account))
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*account))
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.UpdateAccount(r.Context(), chi.URLParam(r, "id"), req.params())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*account))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.accounts.DeleteAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "account not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

func (h *Handler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	balance, err := h.transactions.GetAccountBalance(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{AccountID: id, Balance: balance})
}

func (h *Handler) GetAccountBalanceDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	details, err := h.transactions.GetAccountBalanceDetails(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDetailsDTO(id, details))
}

// GetBalanceByDateRange takes ?start=&end=. A plain end date covers that
// whole day.
func (h *Handler) GetBalanceByDateRange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	start, end, err := rangeParams(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	details, err := h.transactions.GetBalanceByDateRange(r.Context(), id, start, end)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dto := toBalanceDetailsDTO(id, details)
	dto.Start, dto.End = &start, &end
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// PAYMENT METHOD HANDLERS
// =============================================================================

func (h *Handler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.accounts.ListPaymentMethods(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentMethodDTOs(methods))
}

func (h *Handler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req PaymentMethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pm, err := h.accounts.CreatePaymentMethod(r.Context(), req.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentMethodDTO(*pm))
}

func (h *Handler) GetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	pm, err := h.accounts.GetPaymentMethod(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if pm == nil {
		writeError(w, http.StatusNotFound, "payment method not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentMethodDTO(*pm))
}

func (h *Handler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req PaymentMethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pm, err := h.accounts.UpdatePaymentMethod(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentMethodDTO(*pm))
}

func (h *Handler) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.accounts.DeletePaymentMethod(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "payment method not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListPaymentMethodAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.accounts.ListAccountsByPaymentMethod(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTOs(list))
}

func (h *Handler) ListAccountPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.accounts.ListPaymentMethodsByAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentMethodDTOs(methods))
}

// AssociatePaymentMethod links a method to the account and returns the
// account. Linking twice is not an error.
func (h *Handler) AssociatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req AssociatePaymentMethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PaymentMethodID == "" {
		writeError(w, http.StatusBadRequest, "payment_method_id is required", nil)
		return
	}

	account, err := h.accounts.AssociatePaymentMethod(r.Context(), chi.URLParam(r, "id"), req.PaymentMethodID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*account))
}

func (h *Handler) DisassociatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	removed, err := h.accounts.DisassociatePaymentMethod(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "pmID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "association not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps an error kind to its status code. Anything that is
// not a client error is logged and answered with a generic message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if !ledger.IsClientError(err) {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   verr.Error(),
			Details: map[string]string{"field": verr.Field, "reason": verr.Reason},
		})
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	}
}

// decodeJSON reads the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}
