/*
transactions.go - Transaction, category and time-window handlers

ENDPOINTS:
  Transactions:
    GET    /api/transactions               Filtered listing (query below)
    POST   /api/transactions               Create (category by id or by name)
    GET    /api/transactions/{id}          Get
    PUT    /api/transactions/{id}          Partial update
    DELETE /api/transactions/{id}          Delete

  Categories:
    GET    /api/categories                 List (?user_id=, ?type=)
    POST   /api/categories                 Create (unique name per user)
    GET    /api/categories/{id}            Get
    PUT    /api/categories/{id}            Partial update
    DELETE /api/categories/{id}            Delete (transactions keep a null ref)

FILTER QUERY:
  account_id, category_id, payment_method_id, type, start_date, end_date,
  min_amount, max_amount, search, tags (comma list or repeated; all must match)

WINDOW QUERY (account and user transaction listings):
  (none)                         every transaction in scope
  window=current_month
  window=current_year
  window=last_days&days=N
  window=month&month=M&year=Y
  window=week&date=YYYY-MM-DD    Monday to Sunday containing date (default today)
  window=range&start=..&end=..   account scope only
*/
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ana-biscalchin/finances/ledger"
)

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFromQuery(r.URL.Query())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	txs, err := h.transactions.GetTransactionsWithFilters(r.Context(), filters)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, err := req.params()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	tx, err := h.transactions.CreateTransaction(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(*tx))
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.transactions.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if tx == nil {
		writeError(w, http.StatusNotFound, "transaction not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(*tx))
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req UpdateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, err := req.params()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	tx, err := h.transactions.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(*tx))
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.transactions.DeleteTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "transaction not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAccountTransactions lists an account's transactions, optionally within
// a window. An unknown account is 404.
func (h *Handler) GetAccountTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactionsInWindow(r, chi.URLParam(r, "id"), false)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// GetUserTransactions lists transactions across all of a user's accounts.
func (h *Handler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactionsInWindow(r, chi.URLParam(r, "userID"), true)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

func (h *Handler) transactionsInWindow(r *http.Request, id string, user bool) ([]ledger.Transaction, error) {
	ctx := r.Context()
	q := r.URL.Query()
	svc := h.transactions

	pick := func(
		account func(context.Context, string) ([]ledger.Transaction, error),
		forUser func(context.Context, string) ([]ledger.Transaction, error),
	) ([]ledger.Transaction, error) {
		if user {
			return forUser(ctx, id)
		}
		return account(ctx, id)
	}

	switch q.Get("window") {
	case "":
		return pick(svc.GetTransactionsByAccount, svc.GetTransactionsByUser)
	case "current_month":
		return pick(svc.GetTransactionsByCurrentMonth, svc.GetTransactionsByCurrentMonthForUser)
	case "current_year":
		return pick(svc.GetTransactionsByCurrentYear, svc.GetTransactionsByCurrentYearForUser)
	case "last_days":
		days, err := intParam(q, "days")
		if err != nil {
			return nil, err
		}
		if user {
			return svc.GetTransactionsByLastNDaysForUser(ctx, id, days)
		}
		return svc.GetTransactionsByLastNDays(ctx, id, days)
	case "month":
		month, err := intParam(q, "month")
		if err != nil {
			return nil, err
		}
		year, err := intParam(q, "year")
		if err != nil {
			return nil, err
		}
		if user {
			return svc.GetTransactionsByMonthAndYearForUser(ctx, id, month, year)
		}
		return svc.GetTransactionsByMonthAndYear(ctx, id, month, year)
	case "week":
		day := time.Now().UTC()
		if v := q.Get("date"); v != "" {
			t, err := parseTime("date", v)
			if err != nil {
				return nil, err
			}
			day = t
		}
		if user {
			return svc.GetTransactionsByWeekForUser(ctx, id, day)
		}
		return svc.GetTransactionsByWeek(ctx, id, day)
	case "range":
		if user {
			return nil, &ledger.ValidationError{Field: "window", Reason: "range is only available per account"}
		}
		start, end, err := rangeParams(r)
		if err != nil {
			return nil, err
		}
		return svc.GetTransactionsByDateRange(ctx, id, start, end)
	default:
		return nil, &ledger.ValidationError{
			Field:  "window",
			Reason: "must be current_month, current_year, last_days, month, week or range",
		}
	}
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// ListCategories returns every category, narrowed by ?user_id= and, with a
// user, by ?type=.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		list, err := h.transactions.ListCategories(r.Context())
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toCategoryDTOs(list))
		return
	}
	h.writeUserCategories(w, r, userID)
}

func (h *Handler) ListUserCategories(w http.ResponseWriter, r *http.Request) {
	h.writeUserCategories(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) writeUserCategories(w http.ResponseWriter, r *http.Request, userID string) {
	var (
		list []ledger.Category
		err  error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		list, err = h.transactions.ListCategoriesByUserAndType(r.Context(), userID, ledger.TransactionType(t))
	} else {
		list, err = h.transactions.ListCategoriesByUser(r.Context(), userID)
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTOs(list))
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.transactions.CreateCategory(r.Context(), req.params())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(*c))
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.transactions.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "category not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(*c))
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req UpdateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.transactions.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req.params())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(*c))
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.transactions.DeleteCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "category not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// QUERY PARSING
// =============================================================================

func filtersFromQuery(q url.Values) (ledger.TransactionFilters, error) {
	var f ledger.TransactionFilters

	f.AccountID = optionalParam(q, "account_id")
	f.CategoryID = optionalParam(q, "category_id")
	f.PaymentMethodID = optionalParam(q, "payment_method_id")
	if v := q.Get("type"); v != "" {
		t := ledger.TransactionType(v)
		f.Type = &t
	}

	if v := q.Get("start_date"); v != "" {
		t, err := parseTime("start_date", v)
		if err != nil {
			return f, err
		}
		f.StartDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := parseRangeEnd("end_date", v)
		if err != nil {
			return f, err
		}
		f.EndDate = &t
	}

	for _, bound := range []struct {
		key string
		dst **decimal.Decimal
	}{
		{"min_amount", &f.MinAmount},
		{"max_amount", &f.MaxAmount},
	} {
		v := q.Get(bound.key)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, &ledger.ValidationError{Field: bound.key, Reason: "must be a decimal number"}
		}
		*bound.dst = &d
	}

	f.Search = strings.TrimSpace(q.Get("search"))
	for _, v := range q["tags"] {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}
	return f, nil
}

// rangeParams reads ?start=&end=, both required.
func rangeParams(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		return time.Time{}, time.Time{}, &ledger.ValidationError{
			Field:  "start",
			Reason: "start and end are required",
		}
	}
	start, err := parseTime("start", q.Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseRangeEnd("end", q.Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// parseRangeEnd widens a plain date to the end of that day.
func parseRangeEnd(field, v string) (time.Time, error) {
	t, err := parseTime(field, v)
	if err != nil {
		return t, err
	}
	if isDateOnly(v) {
		t = ledger.EndOfDay(t)
	}
	return t, nil
}

func intParam(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, &ledger.ValidationError{Field: key, Reason: "is required"}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ledger.ValidationError{Field: key, Reason: "must be an integer"}
	}
	return n, nil
}

func optionalParam(q url.Values, key string) *string {
	if v := q.Get(key); v != "" {
		return &v
	}
	return nil
}
