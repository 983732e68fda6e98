package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ana-biscalchin/finances/ledger"
)

// =============================================================================
// PAYMENT METHOD STORE (ledger.PaymentMethodStore interface)
// =============================================================================

const paymentMethodColumns = `pm.id, pm.name, pm.created_at, pm.updated_at`

func (q *queries) CreatePaymentMethod(ctx context.Context, name string) (*ledger.PaymentMethod, error) {
	id := uuid.NewString()
	now := formatTime(q.now())

	_, err := q.exec(ctx, `
		INSERT INTO payment_methods (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, id, name, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment method: %w", err)
	}

	pm, err := q.GetPaymentMethod(ctx, id)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, &ledger.PersistenceError{Op: "create payment method", ID: id}
	}
	return pm, nil
}

func (q *queries) GetPaymentMethod(ctx context.Context, id string) (*ledger.PaymentMethod, error) {
	return q.getPaymentMethod(ctx, `SELECT `+paymentMethodColumns+` FROM payment_methods pm WHERE pm.id = ?`, id)
}

func (q *queries) GetPaymentMethodByName(ctx context.Context, name string) (*ledger.PaymentMethod, error) {
	return q.getPaymentMethod(ctx, `SELECT `+paymentMethodColumns+` FROM payment_methods pm WHERE pm.name = ?`, name)
}

func (q *queries) ListPaymentMethods(ctx context.Context) ([]ledger.PaymentMethod, error) {
	return q.listPaymentMethods(ctx, `SELECT `+paymentMethodColumns+` FROM payment_methods pm ORDER BY pm.name`)
}

// UpdatePaymentMethod renames the method. It returns nil for an unknown id.
func (q *queries) UpdatePaymentMethod(ctx context.Context, id, name string) (*ledger.PaymentMethod, error) {
	result, err := q.exec(ctx, `UPDATE payment_methods SET name = ?, updated_at = ? WHERE id = ?`,
		name, formatTime(q.now()), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment method: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return q.GetPaymentMethod(ctx, id)
}

// DeletePaymentMethod removes the method. Association rows cascade and
// transactions referencing it have payment_method_id set to NULL.
func (q *queries) DeletePaymentMethod(ctx context.Context, id string) (bool, error) {
	result, err := q.exec(ctx, `DELETE FROM payment_methods WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete payment method: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// =============================================================================
// ACCOUNT <-> PAYMENT METHOD ASSOCIATIONS
// =============================================================================

func (q *queries) ListAccountPaymentMethodIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := q.query(ctx, `
		SELECT payment_method_id FROM account_payment_methods
		WHERE account_id = ?
		ORDER BY payment_method_id
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query account payment methods: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *queries) ListPaymentMethodsByAccount(ctx context.Context, accountID string) ([]ledger.PaymentMethod, error) {
	return q.listPaymentMethods(ctx, `
		SELECT `+paymentMethodColumns+`
		FROM payment_methods pm
		INNER JOIN account_payment_methods apm ON apm.payment_method_id = pm.id
		WHERE apm.account_id = ?
		ORDER BY pm.name
	`, accountID)
}

func (q *queries) ListAccountsByPaymentMethod(ctx context.Context, paymentMethodID string) ([]ledger.Account, error) {
	return q.listAccounts(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		INNER JOIN account_payment_methods apm ON apm.account_id = a.id
		WHERE apm.payment_method_id = ?
		ORDER BY a.created_at DESC
	`, paymentMethodID)
}

// AddAccountPaymentMethod inserts one association row. A repeated pair
// violates the primary key; callers dedupe first.
func (q *queries) AddAccountPaymentMethod(ctx context.Context, accountID, paymentMethodID string) error {
	_, err := q.exec(ctx, `
		INSERT INTO account_payment_methods (account_id, payment_method_id)
		VALUES (?, ?)
	`, accountID, paymentMethodID)
	if err != nil {
		return fmt.Errorf("failed to associate payment method %s with account %s: %w",
			paymentMethodID, accountID, err)
	}
	return nil
}

func (q *queries) RemoveAccountPaymentMethod(ctx context.Context, accountID, paymentMethodID string) (bool, error) {
	result, err := q.exec(ctx, `
		DELETE FROM account_payment_methods
		WHERE account_id = ? AND payment_method_id = ?
	`, accountID, paymentMethodID)
	if err != nil {
		return false, fmt.Errorf("failed to disassociate payment method: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *queries) ClearAccountPaymentMethods(ctx context.Context, accountID string) error {
	if _, err := q.exec(ctx, `DELETE FROM account_payment_methods WHERE account_id = ?`, accountID); err != nil {
		return fmt.Errorf("failed to clear account payment methods: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (q *queries) getPaymentMethod(ctx context.Context, query string, arg string) (*ledger.PaymentMethod, error) {
	pm, err := scanPaymentMethod(q.queryRow(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return pm, err
}

func (q *queries) listPaymentMethods(ctx context.Context, query string, args ...any) ([]ledger.PaymentMethod, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	defer rows.Close()

	var methods []ledger.PaymentMethod
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, *pm)
	}
	return methods, rows.Err()
}

func scanPaymentMethod(s scanner) (*ledger.PaymentMethod, error) {
	var (
		pm                   ledger.PaymentMethod
		createdAt, updatedAt string
	)
	if err := s.Scan(&pm.ID, &pm.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if pm.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if pm.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &pm, nil
}
