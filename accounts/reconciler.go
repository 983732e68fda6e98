package accounts

import (
	"context"
	"fmt"
	"slices"

	"github.com/ana-biscalchin/finances/ledger"
	"github.com/ana-biscalchin/finances/metrics"
)

// =============================================================================
// PAYMENT-METHOD RECONCILER
// =============================================================================
//
// The association set of an account changes in three ways:
//
//   UpdateAccount with PaymentMethodIDs  replace the whole set
//   AssociatePaymentMethod               add one, no-op when present
//   DisassociatePaymentMethod            remove one, false when absent
//
// Both parents are verified before any association row is inserted. A full
// replace shares the storage transaction of the scalar update, so an unknown
// method id found halfway through rolls back the scalar change as well.

// UpdateAccount merges the scalar fields of p and, when p.PaymentMethodIDs is
// non-nil, replaces the association set with it (duplicates ignored).
func (s *Service) UpdateAccount(ctx context.Context, id string, p ledger.UpdateAccountParams) (*ledger.Account, error) {
	if err := validateUpdate(p); err != nil {
		return nil, s.rejected(ctx, "update account", err)
	}

	var updated *ledger.Account
	err := s.store.WithTx(ctx, func(tx ledger.Store) error {
		ok, err := tx.UpdateAccountFields(ctx, id, p)
		if err != nil {
			return err
		}
		if !ok {
			return &ledger.NotFoundError{Resource: ledger.ErrAccountNotFound, ID: id}
		}

		if p.PaymentMethodIDs != nil {
			if err := replacePaymentMethods(ctx, tx, id, p.PaymentMethodIDs); err != nil {
				return err
			}
		}

		updated, err = tx.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if updated == nil {
			return &ledger.PersistenceError{Op: "update account", ID: id}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.PaymentMethodIDs != nil {
		s.metrics.Reconciled(metrics.OpReplace)
		s.logger.InfoContext(ctx, "account payment methods replaced",
			"account_id", id, "payment_methods", len(updated.PaymentMethodIDs))
	}
	return updated, nil
}

// replacePaymentMethods clears the account's associations and inserts the
// deduplicated target set, verifying each method before its insert.
func replacePaymentMethods(ctx context.Context, tx ledger.Store, accountID string, ids []string) error {
	if err := tx.ClearAccountPaymentMethods(ctx, accountID); err != nil {
		return err
	}
	for _, pmID := range dedupe(ids) {
		if err := requirePaymentMethod(ctx, tx, pmID); err != nil {
			return err
		}
		if err := tx.AddAccountPaymentMethod(ctx, accountID, pmID); err != nil {
			return err
		}
	}
	return nil
}

// AssociatePaymentMethod links the method to the account. Linking an
// already-linked method changes nothing and is not an error.
func (s *Service) AssociatePaymentMethod(ctx context.Context, accountID, paymentMethodID string) (*ledger.Account, error) {
	var (
		updated *ledger.Account
		added   bool
	)
	err := s.store.WithTx(ctx, func(tx ledger.Store) error {
		account, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		if account == nil {
			return &ledger.NotFoundError{Resource: ledger.ErrAccountNotFound, ID: accountID}
		}
		if err := requirePaymentMethod(ctx, tx, paymentMethodID); err != nil {
			return err
		}

		if slices.Contains(account.PaymentMethodIDs, paymentMethodID) {
			updated = account
			return nil
		}
		if err := tx.AddAccountPaymentMethod(ctx, accountID, paymentMethodID); err != nil {
			return err
		}
		added = true
		updated, err = tx.GetAccount(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if added {
		s.metrics.Reconciled(metrics.OpAssociate)
		s.logger.InfoContext(ctx, "payment method associated",
			"account_id", accountID, "payment_method_id", paymentMethodID)
	}
	return updated, nil
}

// DisassociatePaymentMethod returns true when a link was removed. A missing
// account or a method that was not linked yields false.
func (s *Service) DisassociatePaymentMethod(ctx context.Context, accountID, paymentMethodID string) (bool, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return false, nil
	}

	removed, err := s.store.RemoveAccountPaymentMethod(ctx, accountID, paymentMethodID)
	if err != nil {
		return false, err
	}
	if removed {
		s.metrics.Reconciled(metrics.OpDisassociate)
		s.logger.InfoContext(ctx, "payment method disassociated",
			"account_id", accountID, "payment_method_id", paymentMethodID)
	}
	return removed, nil
}

// dedupe keeps the first occurrence of each id, in order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
