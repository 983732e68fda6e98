package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ana-biscalchin/finances/ledger"
)

// =============================================================================
// ACCOUNT STORE (ledger.AccountStore interface)
// =============================================================================

const accountColumns = `a.id, a.user_id, a.institution_name, a.initial_balance,
	a.currency, a.account_type, a.created_at, a.updated_at`

// CreateAccount inserts the account row and one association row per distinct
// payment method id. Callers wanting both to commit together run it in WithTx.
func (q *queries) CreateAccount(ctx context.Context, p ledger.CreateAccountParams) (*ledger.Account, error) {
	id := uuid.NewString()
	now := formatTime(q.now())

	_, err := q.exec(ctx, `
		INSERT INTO accounts (id, user_id, institution_name, initial_balance,
			currency, account_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, p.UserID, p.InstitutionName, p.InitialBalance.String(),
		p.Currency, string(p.AccountType), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	seen := make(map[string]struct{}, len(p.PaymentMethodIDs))
	for _, pmID := range p.PaymentMethodIDs {
		if _, dup := seen[pmID]; dup {
			continue
		}
		seen[pmID] = struct{}{}
		if err := q.AddAccountPaymentMethod(ctx, id, pmID); err != nil {
			return nil, err
		}
	}

	account, err := q.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &ledger.PersistenceError{Op: "create account", ID: id}
	}
	return account, nil
}

func (q *queries) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	row := q.queryRow(ctx, `SELECT `+accountColumns+` FROM accounts a WHERE a.id = ?`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	pmIDs, err := q.ListAccountPaymentMethodIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	account.PaymentMethodIDs = pmIDs
	return account, nil
}

func (q *queries) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	return q.listAccounts(ctx, `SELECT `+accountColumns+` FROM accounts a ORDER BY a.created_at DESC`)
}

func (q *queries) ListAccountsByUser(ctx context.Context, userID string) ([]ledger.Account, error) {
	return q.listAccounts(ctx, `
		SELECT `+accountColumns+` FROM accounts a
		WHERE a.user_id = ?
		ORDER BY a.created_at DESC
	`, userID)
}

func (q *queries) UpdateAccountFields(ctx context.Context, id string, p ledger.UpdateAccountParams) (bool, error) {
	if !p.HasScalarChanges() {
		var one int
		err := q.queryRow(ctx, `SELECT 1 FROM accounts WHERE id = ?`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to check account: %w", err)
		}
		return true, nil
	}

	var set setClause
	if p.InstitutionName != nil {
		set.add("institution_name", *p.InstitutionName)
	}
	if p.InitialBalance != nil {
		set.add("initial_balance", p.InitialBalance.String())
	}
	if p.Currency != nil {
		set.add("currency", *p.Currency)
	}
	if p.AccountType != nil {
		set.add("account_type", string(*p.AccountType))
	}
	set.add("updated_at", formatTime(q.now()))

	result, err := q.exec(ctx, `UPDATE accounts SET `+set.String()+` WHERE id = ?`,
		append(set.args, id)...)
	if err != nil {
		return false, fmt.Errorf("failed to update account: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAccount removes the account. Its transactions and association rows
// go with it through ON DELETE CASCADE.
func (q *queries) DeleteAccount(ctx context.Context, id string) (bool, error) {
	result, err := q.exec(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete account: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// listAccounts drains the account rows before loading associations, since a
// SQLite store has a single connection.
func (q *queries) listAccounts(ctx context.Context, query string, args ...any) ([]ledger.Account, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	var accounts []ledger.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := q.attachPaymentMethodIDs(ctx, accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// attachPaymentMethodIDs fills PaymentMethodIDs for every account with one query.
func (q *queries) attachPaymentMethodIDs(ctx context.Context, accounts []ledger.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	index := make(map[string]int, len(accounts))
	args := make([]any, len(accounts))
	for i := range accounts {
		index[accounts[i].ID] = i
		args[i] = accounts[i].ID
		accounts[i].PaymentMethodIDs = []string{}
	}

	rows, err := q.query(ctx, `
		SELECT account_id, payment_method_id
		FROM account_payment_methods
		WHERE account_id IN (`+placeholders(len(args))+`)
		ORDER BY account_id, payment_method_id
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query account payment methods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var accountID, pmID string
		if err := rows.Scan(&accountID, &pmID); err != nil {
			return err
		}
		if i, ok := index[accountID]; ok {
			accounts[i].PaymentMethodIDs = append(accounts[i].PaymentMethodIDs, pmID)
		}
	}
	return rows.Err()
}

func scanAccount(s scanner) (*ledger.Account, error) {
	var (
		a                    ledger.Account
		initial, accountType string
		createdAt, updatedAt string
	)
	if err := s.Scan(&a.ID, &a.UserID, &a.InstitutionName, &initial,
		&a.Currency, &accountType, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if a.InitialBalance, err = decimal.NewFromString(initial); err != nil {
		return nil, fmt.Errorf("invalid initial balance for account %s: %w", a.ID, err)
	}
	a.AccountType = ledger.AccountType(accountType)
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
