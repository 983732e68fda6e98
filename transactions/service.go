/*
Package transactions is the ledger service: transaction rules, category
resolution, windowed queries and balances.

PURPOSE:
  Sits between callers (HTTP, CLI) and the storage ports. Every write is
  validated completely before anything is persisted, and multi-statement
  writes run in one storage transaction.

CREATE PIPELINE:
  Validate → ResolveCategory → Persist → Return

  1. Validate: account exists, category id exists, category name is
     non-blank, payment method exists, amount > 0, name non-blank, type
     valid, date not in the future.
  2. ResolveCategory: explicit id, else reuse-or-create by name for the
     account's owner (see resolver.go).
  3. Persist: insert and read back.

  Steps 2 and 3 share one WithTx, so an auto-created category never
  outlives a failed insert.

UPDATE:
  Unknown id → ErrTransactionNotFound. Only the fields present in the
  params are re-validated. A category name on update auto-creates with the
  new type if one is given, otherwise with the stored type.

QUERIES:
  Account-scoped queries check the account first (ErrAccountNotFound).
  Window arguments (range, days, month, year) are validated before any
  query runs. Windows are computed from the service clock.

EXAMPLE:
  svc := transactions.NewService(store, transactions.WithLogger(logger))

  tx, err := svc.CreateTransaction(ctx, ledger.CreateTransactionParams{
      AccountID:       accountID,
      CategoryName:    ptr("Groceries"),
      Name:            "Market",
      Amount:          decimal.RequireFromString("84.90"),
      Type:            ledger.TypeExpense,
      TransactionDate: time.Now(),
  })

SEE ALSO:
  - resolver.go:   Category resolution
  - categories.go: Category CRUD
  - ledger/rules.go: Value rules
*/
package transactions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ana-biscalchin/finances/ledger"
	"github.com/ana-biscalchin/finances/metrics"
)

// Service implements the ledger operations over a ledger.TxStore.
type Service struct {
	store   ledger.TxStore
	logger  *slog.Logger
	metrics *metrics.Ledger
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for future-date checks and window anchors.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics replaces metrics.Default. Pass nil to record nothing.
func WithMetrics(m *metrics.Ledger) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store ledger.TxStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  slog.Default(),
		metrics: metrics.Default,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// COMMANDS
// =============================================================================

func (s *Service) CreateTransaction(ctx context.Context, p ledger.CreateTransactionParams) (*ledger.Transaction, error) {
	account, err := s.validateCreate(ctx, p)
	if err != nil {
		return nil, s.rejected(ctx, "create transaction", err)
	}

	var (
		created    *ledger.Transaction
		autoCreate *ledger.Category
	)
	err = s.store.WithTx(ctx, func(tx ledger.Store) error {
		res, err := resolveCategory(ctx, tx, account.UserID,
			categoryIntent{ID: p.CategoryID, Name: p.CategoryName}, p.Type)
		if err != nil {
			return err
		}
		p.CategoryID = res.ID
		autoCreate = res.Created

		created, err = tx.CreateTransaction(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	if autoCreate != nil {
		s.categoryAutoCreated(ctx, autoCreate)
	}
	s.metrics.TransactionCreated(created.Type)
	return created, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, id string, p ledger.UpdateTransactionParams) (*ledger.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if existing == nil {
		return nil, &ledger.NotFoundError{Resource: ledger.ErrTransactionNotFound, ID: id}
	}

	if err := s.validateUpdate(ctx, p); err != nil {
		return nil, s.rejected(ctx, "update transaction", err)
	}

	var (
		updated    *ledger.Transaction
		autoCreate *ledger.Category
	)
	err = s.store.WithTx(ctx, func(tx ledger.Store) error {
		intent := categoryIntent{ID: p.CategoryID, Name: p.CategoryName}
		if intent.isSet() {
			account, err := tx.GetAccount(ctx, existing.AccountID)
			if err != nil {
				return fmt.Errorf("failed to load account: %w", err)
			}
			if account == nil {
				return &ledger.NotFoundError{Resource: ledger.ErrAccountNotFound, ID: existing.AccountID}
			}

			txType := existing.Type
			if p.Type != nil {
				txType = *p.Type
			}
			res, err := resolveCategory(ctx, tx, account.UserID, intent, txType)
			if err != nil {
				return err
			}
			p.CategoryID = res.ID
			autoCreate = res.Created
		}

		var err error
		updated, err = tx.UpdateTransaction(ctx, id, p)
		if err != nil {
			return err
		}
		if updated == nil {
			return &ledger.NotFoundError{Resource: ledger.ErrTransactionNotFound, ID: id}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if autoCreate != nil {
		s.categoryAutoCreated(ctx, autoCreate)
	}
	return updated, nil
}

// DeleteTransaction returns false when no transaction had this id.
func (s *Service) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.InfoContext(ctx, "transaction deleted", "transaction_id", id)
	}
	return deleted, nil
}

// =============================================================================
// READS
// =============================================================================

// GetTransaction returns nil when absent.
func (s *Service) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *Service) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *Service) GetTransactionsByAccount(ctx context.Context, accountID string) ([]ledger.Transaction, error) {
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListTransactionsByAccount(ctx, accountID)
}

func (s *Service) GetTransactionsByUser(ctx context.Context, userID string) ([]ledger.Transaction, error) {
	return s.store.ListTransactionsByUser(ctx, userID)
}

func (s *Service) GetTransactionsWithFilters(ctx context.Context, f ledger.TransactionFilters) ([]ledger.Transaction, error) {
	if f.StartDate != nil && f.EndDate != nil {
		if err := ledger.ValidateDateRange(*f.StartDate, *f.EndDate); err != nil {
			return nil, s.rejected(ctx, "filter transactions", err)
		}
	}
	return s.store.FindTransactions(ctx, f)
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Service) GetAccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	details, err := s.store.AccountBalance(ctx, accountID, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return details.CurrentBalance, nil
}

func (s *Service) GetAccountBalanceDetails(ctx context.Context, accountID string) (ledger.BalanceDetails, error) {
	return s.store.AccountBalance(ctx, accountID, nil)
}

// GetBalanceByDateRange restricts the income/expense sums to [start, end].
// The initial balance is always included.
func (s *Service) GetBalanceByDateRange(ctx context.Context, accountID string, start, end time.Time) (ledger.BalanceDetails, error) {
	w, err := ledger.Between(start, end)
	if err != nil {
		return ledger.BalanceDetails{}, s.rejected(ctx, "balance by date range", err)
	}
	return s.store.AccountBalance(ctx, accountID, &w)
}

// =============================================================================
// TIME WINDOWS - account scope checks the account, user scope does not
// =============================================================================

func (s *Service) GetTransactionsByDateRange(ctx context.Context, accountID string, start, end time.Time) ([]ledger.Transaction, error) {
	w, err := ledger.Between(start, end)
	if err != nil {
		return nil, s.rejected(ctx, "transactions by date range", err)
	}
	return s.accountWindow(ctx, accountID, w)
}

func (s *Service) GetTransactionsByCurrentMonth(ctx context.Context, accountID string) ([]ledger.Transaction, error) {
	return s.accountWindow(ctx, accountID, ledger.CurrentMonth(s.now()))
}

func (s *Service) GetTransactionsByCurrentMonthForUser(ctx context.Context, userID string) ([]ledger.Transaction, error) {
	return s.userWindow(ctx, userID, ledger.CurrentMonth(s.now()))
}

func (s *Service) GetTransactionsByCurrentYear(ctx context.Context, accountID string) ([]ledger.Transaction, error) {
	return s.accountWindow(ctx, accountID, ledger.CurrentYear(s.now()))
}

func (s *Service) GetTransactionsByCurrentYearForUser(ctx context.Context, userID string) ([]ledger.Transaction, error) {
	return s.userWindow(ctx, userID, ledger.CurrentYear(s.now()))
}

func (s *Service) GetTransactionsByLastNDays(ctx context.Context, accountID string, days int) ([]ledger.Transaction, error) {
	w, err := ledger.LastNDays(s.now(), days)
	if err != nil {
		return nil, s.rejected(ctx, "transactions by last days", err)
	}
	return s.accountWindow(ctx, accountID, w)
}

func (s *Service) GetTransactionsByLastNDaysForUser(ctx context.Context, userID string, days int) ([]ledger.Transaction, error) {
	w, err := ledger.LastNDays(s.now(), days)
	if err != nil {
		return nil, s.rejected(ctx, "transactions by last days", err)
	}
	return s.userWindow(ctx, userID, w)
}

func (s *Service) GetTransactionsByMonthAndYear(ctx context.Context, accountID string, month, year int) ([]ledger.Transaction, error) {
	w, err := ledger.MonthAndYear(month, year, s.now().Location())
	if err != nil {
		return nil, s.rejected(ctx, "transactions by month", err)
	}
	return s.accountWindow(ctx, accountID, w)
}

func (s *Service) GetTransactionsByMonthAndYearForUser(ctx context.Context, userID string, month, year int) ([]ledger.Transaction, error) {
	w, err := ledger.MonthAndYear(month, year, s.now().Location())
	if err != nil {
		return nil, s.rejected(ctx, "transactions by month", err)
	}
	return s.userWindow(ctx, userID, w)
}

// GetTransactionsByWeek covers the Monday-to-Sunday week containing day.
func (s *Service) GetTransactionsByWeek(ctx context.Context, accountID string, day time.Time) ([]ledger.Transaction, error) {
	return s.accountWindow(ctx, accountID, ledger.WeekOf(day))
}

func (s *Service) GetTransactionsByWeekForUser(ctx context.Context, userID string, day time.Time) ([]ledger.Transaction, error) {
	return s.userWindow(ctx, userID, ledger.WeekOf(day))
}

func (s *Service) accountWindow(ctx context.Context, accountID string, w ledger.Window) ([]ledger.Transaction, error) {
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.FindTransactionsInWindow(ctx, ledger.AccountScope(accountID), w)
}

func (s *Service) userWindow(ctx context.Context, userID string, w ledger.Window) ([]ledger.Transaction, error) {
	return s.store.FindTransactionsInWindow(ctx, ledger.UserScope(userID), w)
}

// =============================================================================
// VALIDATION
// =============================================================================

// validateCreate checks every precondition and returns the owning account.
func (s *Service) validateCreate(ctx context.Context, p ledger.CreateTransactionParams) (*ledger.Account, error) {
	account, err := s.loadAccount(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	if p.CategoryID != nil && *p.CategoryID != "" {
		if err := s.requireCategory(ctx, *p.CategoryID); err != nil {
			return nil, err
		}
	} else if p.CategoryName != nil {
		if err := ledger.ValidateCategoryName(*p.CategoryName); err != nil {
			return nil, err
		}
	}
	if p.PaymentMethodID != nil && *p.PaymentMethodID != "" {
		if err := s.requirePaymentMethod(ctx, *p.PaymentMethodID); err != nil {
			return nil, err
		}
	}
	if err := ledger.ValidateAmount(p.Amount); err != nil {
		return nil, err
	}
	if err := ledger.ValidateName("name", p.Name); err != nil {
		return nil, err
	}
	if err := ledger.ValidateTransactionType(p.Type); err != nil {
		return nil, err
	}
	if err := ledger.ValidateTransactionDate(p.TransactionDate, s.now()); err != nil {
		return nil, err
	}
	return account, nil
}

// validateUpdate checks only the fields present in p.
func (s *Service) validateUpdate(ctx context.Context, p ledger.UpdateTransactionParams) error {
	if p.CategoryID != nil && *p.CategoryID != "" {
		if err := s.requireCategory(ctx, *p.CategoryID); err != nil {
			return err
		}
	} else if p.CategoryName != nil {
		if err := ledger.ValidateCategoryName(*p.CategoryName); err != nil {
			return err
		}
	}
	if p.PaymentMethodID != nil && *p.PaymentMethodID != "" {
		if err := s.requirePaymentMethod(ctx, *p.PaymentMethodID); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := ledger.ValidateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Name != nil {
		if err := ledger.ValidateName("name", *p.Name); err != nil {
			return err
		}
	}
	if p.Type != nil {
		if err := ledger.ValidateTransactionType(*p.Type); err != nil {
			return err
		}
	}
	if p.TransactionDate != nil {
		if err := ledger.ValidateTransactionDate(*p.TransactionDate, s.now()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) loadAccount(ctx context.Context, id string) (*ledger.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, &ledger.NotFoundError{Resource: ledger.ErrAccountNotFound, ID: id}
	}
	return account, nil
}

func (s *Service) requireAccount(ctx context.Context, id string) error {
	_, err := s.loadAccount(ctx, id)
	return err
}

func (s *Service) requireCategory(ctx context.Context, id string) error {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}
	if c == nil {
		return &ledger.NotFoundError{Resource: ledger.ErrCategoryNotFound, ID: id}
	}
	return nil
}

func (s *Service) requirePaymentMethod(ctx context.Context, id string) error {
	pm, err := s.store.GetPaymentMethod(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load payment method: %w", err)
	}
	if pm == nil {
		return &ledger.NotFoundError{Resource: ledger.ErrPaymentMethodNotFound, ID: id}
	}
	return nil
}

// rejected records a validation failure and returns err unchanged.
func (s *Service) rejected(ctx context.Context, op string, err error) error {
	if ledger.IsValidation(err) {
		s.metrics.ValidationFailed(err)
		s.logger.DebugContext(ctx, "input rejected", "op", op, "error", err)
	}
	return err
}

func (s *Service) categoryAutoCreated(ctx context.Context, c *ledger.Category) {
	s.metrics.CategoryAutoCreated()
	s.logger.InfoContext(ctx, "category auto-created",
		"category_id", c.ID, "user_id", c.UserID, "name", c.Name, "type", c.Type)
}
