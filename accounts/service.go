/*
Package accounts manages accounts, payment methods and the associations
between them.

PURPOSE:
  Owns the account lifecycle and the many-to-many link to payment methods.
  Every write touching more than one row runs in a single storage
  transaction (see reconciler.go).

RULES:
  - An account is created with at least one payment method, each of which
    must exist. Later updates may leave it with none.
  - Payment method names are unique (checked here, not by storage).
  - Deleting an account cascades to its transactions and association rows.
  - Deleting a payment method unlinks it from accounts and transactions.

SEE ALSO:
  - reconciler.go: UpdateAccount, Associate, Disassociate
  - ledger/store.go: AccountStore, PaymentMethodStore
*/
package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ana-biscalchin/finances/ledger"
	"github.com/ana-biscalchin/finances/metrics"
)

type Service struct {
	store   ledger.TxStore
	logger  *slog.Logger
	metrics *metrics.Ledger
}

type Option func(*Service)

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
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// CreateAccount verifies every payment method, then inserts the account and
// its associations together.
func (s *Service) CreateAccount(ctx context.Context, p ledger.CreateAccountParams) (*ledger.Account, error) {
	if err := validateCreate(p); err != nil {
		return nil, s.rejected(ctx, "create account", err)
	}

	var created *ledger.Account
	err := s.store.WithTx(ctx, func(tx ledger.Store) error {
		for _, pmID := range p.PaymentMethodIDs {
			if err := requirePaymentMethod(ctx, tx, pmID); err != nil {
				return err
			}
		}
		var err error
		created, err = tx.CreateAccount(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account created",
		"account_id", created.ID, "user_id", created.UserID,
		"payment_methods", len(created.PaymentMethodIDs))
	return created, nil
}

// GetAccount returns nil when absent.
func (s *Service) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *Service) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *Service) ListAccountsByUser(ctx context.Context, userID string) ([]ledger.Account, error) {
	return s.store.ListAccountsByUser(ctx, userID)
}

// DeleteAccount returns false when absent.
func (s *Service) DeleteAccount(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteAccount(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.InfoContext(ctx, "account deleted", "account_id", id)
	}
	return deleted, nil
}

// =============================================================================
// PAYMENT METHODS
// =============================================================================

func (s *Service) CreatePaymentMethod(ctx context.Context, name string) (*ledger.PaymentMethod, error) {
	if err := ledger.ValidateName("name", name); err != nil {
		return nil, s.rejected(ctx, "create payment method", err)
	}

	var created *ledger.PaymentMethod
	err := s.store.WithTx(ctx, func(tx ledger.Store) error {
		existing, err := tx.GetPaymentMethodByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to look up payment method: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: %q (id: %s)", ledger.ErrDuplicatePaymentMethod, name, existing.ID)
		}
		created, err = tx.CreatePaymentMethod(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdatePaymentMethod renames a method. The new name must not belong to
// another method.
func (s *Service) UpdatePaymentMethod(ctx context.Context, id, name string) (*ledger.PaymentMethod, error) {
	if err := ledger.ValidateName("name", name); err != nil {
		return nil, s.rejected(ctx, "update payment method", err)
	}

	var updated *ledger.PaymentMethod
	err := s.store.WithTx(ctx, func(tx ledger.Store) error {
		if err := requirePaymentMethod(ctx, tx, id); err != nil {
			return err
		}
		clash, err := tx.GetPaymentMethodByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to look up payment method: %w", err)
		}
		if clash != nil && clash.ID != id {
			return fmt.Errorf("%w: %q (id: %s)", ledger.ErrDuplicatePaymentMethod, name, clash.ID)
		}
		updated, err = tx.UpdatePaymentMethod(ctx, id, name)
		if err != nil {
			return err
		}
		if updated == nil {
			return &ledger.NotFoundError{Resource: ledger.ErrPaymentMethodNotFound, ID: id}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetPaymentMethod returns nil when absent.
func (s *Service) GetPaymentMethod(ctx context.Context, id string) (*ledger.PaymentMethod, error) {
	return s.store.GetPaymentMethod(ctx, id)
}

func (s *Service) ListPaymentMethods(ctx context.Context) ([]ledger.PaymentMethod, error) {
	return s.store.ListPaymentMethods(ctx)
}

// DeletePaymentMethod returns false when absent.
func (s *Service) DeletePaymentMethod(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeletePaymentMethod(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.InfoContext(ctx, "payment method deleted", "payment_method_id", id)
	}
	return deleted, nil
}

func (s *Service) ListPaymentMethodsByAccount(ctx context.Context, accountID string) ([]ledger.PaymentMethod, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, &ledger.NotFoundError{Resource: ledger.ErrAccountNotFound, ID: accountID}
	}
	return s.store.ListPaymentMethodsByAccount(ctx, accountID)
}

func (s *Service) ListAccountsByPaymentMethod(ctx context.Context, paymentMethodID string) ([]ledger.Account, error) {
	if err := requirePaymentMethod(ctx, s.store, paymentMethodID); err != nil {
		return nil, err
	}
	return s.store.ListAccountsByPaymentMethod(ctx, paymentMethodID)
}

// =============================================================================
// VALIDATION
// =============================================================================

func validateCreate(p ledger.CreateAccountParams) error {
	if strings.TrimSpace(p.UserID) == "" {
		return ledger.Invalid("user_id", ledger.ErrEmptyName)
	}
	if err := ledger.ValidateName("institution_name", p.InstitutionName); err != nil {
		return err
	}
	if err := ledger.ValidateCurrency(p.Currency); err != nil {
		return err
	}
	if err := ledger.ValidateAccountType(p.AccountType); err != nil {
		return err
	}
	if len(p.PaymentMethodIDs) == 0 {
		return ledger.Invalid("payment_method_ids", ledger.ErrNoPaymentMethods)
	}
	return nil
}

func validateUpdate(p ledger.UpdateAccountParams) error {
	if p.InstitutionName != nil {
		if err := ledger.ValidateName("institution_name", *p.InstitutionName); err != nil {
			return err
		}
	}
	if p.Currency != nil {
		if err := ledger.ValidateCurrency(*p.Currency); err != nil {
			return err
		}
	}
	if p.AccountType != nil {
		if err := ledger.ValidateAccountType(*p.AccountType); err != nil {
			return err
		}
	}
	return nil
}

func requirePaymentMethod(ctx context.Context, store ledger.PaymentMethodStore, id string) error {
	pm, err := store.GetPaymentMethod(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load payment method: %w", err)
	}
	if pm == nil {
		return &ledger.NotFoundError{Resource: ledger.ErrPaymentMethodNotFound, ID: id}
	}
	return nil
}

func (s *Service) rejected(ctx context.Context, op string, err error) error {
	if ledger.IsValidation(err) {
		s.metrics.ValidationFailed(err)
		s.logger.DebugContext(ctx, "input rejected", "op", op, "error", err)
	}
	return err
}
