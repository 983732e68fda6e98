package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ana-biscalchin/finances/ledger"
)

// =============================================================================
// TRANSACTION STORE (ledger.TransactionStore interface)
// =============================================================================

const transactionColumns = `t.id, t.account_id, t.category_id, t.payment_method_id,
	t.name, t.amount, t.type, t.transaction_date, t.description, t.payee,
	t.reference_number, t.tags_json, t.recurring_id, t.created_at, t.updated_at`

// Newest first; created_at breaks ties between rows on the same date.
const transactionOrder = ` ORDER BY t.transaction_date DESC, t.created_at DESC`

func (q *queries) CreateTransaction(ctx context.Context, p ledger.CreateTransactionParams) (*ledger.Transaction, error) {
	id := uuid.NewString()
	now := formatTime(q.now())

	tags, err := encodeTags(p.Tags)
	if err != nil {
		return nil, err
	}

	_, err = q.exec(ctx, `
		INSERT INTO transactions (id, account_id, category_id, payment_method_id,
			name, amount, type, transaction_date, description, payee,
			reference_number, tags_json, recurring_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, p.AccountID, nullable(p.CategoryID), nullable(p.PaymentMethodID),
		p.Name, p.Amount.String(), string(p.Type), formatTime(p.TransactionDate),
		nullable(p.Description), nullable(p.Payee), nullable(p.ReferenceNumber),
		tags, nullable(p.RecurringID), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	tx, err := q.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &ledger.PersistenceError{Op: "create transaction", ID: id}
	}
	return tx, nil
}

func (q *queries) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	tx, err := scanTransaction(q.queryRow(ctx, `SELECT `+transactionColumns+` FROM transactions t WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return tx, err
}

func (q *queries) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	return q.listTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions t`+transactionOrder)
}

func (q *queries) ListTransactionsByAccount(ctx context.Context, accountID string) ([]ledger.Transaction, error) {
	return q.listTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions t
		WHERE t.account_id = ?`+transactionOrder, accountID)
}

func (q *queries) ListTransactionsByUser(ctx context.Context, userID string) ([]ledger.Transaction, error) {
	return q.listTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions t
		INNER JOIN accounts a ON t.account_id = a.id
		WHERE a.user_id = ?`+transactionOrder, userID)
}

// FindTransactions applies the column filters in SQL and the amount/tag
// filters in Go, where decimal comparison is exact on every dialect. Search
// runs in SQL on PostgreSQL only: SQLite's LOWER folds ASCII alone, so
// "ônibus" would miss "Ônibus" there.
func (q *queries) FindTransactions(ctx context.Context, f ledger.TransactionFilters) ([]ledger.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if f.AccountID != nil {
		where = append(where, "t.account_id = ?")
		args = append(args, *f.AccountID)
	}
	if f.CategoryID != nil {
		where = append(where, "t.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.PaymentMethodID != nil {
		where = append(where, "t.payment_method_id = ?")
		args = append(args, *f.PaymentMethodID)
	}
	if f.Type != nil {
		where = append(where, "t.type = ?")
		args = append(args, string(*f.Type))
	}
	if f.StartDate != nil {
		where = append(where, "t.transaction_date >= ?")
		args = append(args, formatTime(*f.StartDate))
	}
	if f.EndDate != nil {
		where = append(where, "t.transaction_date <= ?")
		args = append(args, formatTime(*f.EndDate))
	}
	search := strings.TrimSpace(f.Search)
	if search != "" && q.driver == DriverPostgres {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		where = append(where, `(LOWER(t.name) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(t.description, '')) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(t.payee, '')) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
		search = ""
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions t
		INNER JOIN accounts a ON t.account_id = a.id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += transactionOrder

	all, err := q.listTransactions(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if f.MinAmount == nil && f.MaxAmount == nil && len(f.Tags) == 0 && search == "" {
		return all, nil
	}
	filtered := all[:0]
	for _, tx := range all {
		if f.MatchesAmount(tx.Amount) && tx.HasTags(f.Tags) && tx.MatchesSearch(search) {
			filtered = append(filtered, tx)
		}
	}
	return filtered, nil
}

func (q *queries) FindTransactionsInWindow(ctx context.Context, scope ledger.Scope, w ledger.Window) ([]ledger.Transaction, error) {
	start, end := formatTime(w.Start), formatTime(w.End)

	switch scope.Kind {
	case ledger.ScopeUser:
		return q.listTransactions(ctx, `
			SELECT `+transactionColumns+` FROM transactions t
			INNER JOIN accounts a ON t.account_id = a.id
			WHERE a.user_id = ? AND t.transaction_date >= ? AND t.transaction_date <= ?`+transactionOrder,
			scope.ID, start, end)
	default:
		return q.listTransactions(ctx, `
			SELECT `+transactionColumns+` FROM transactions t
			WHERE t.account_id = ? AND t.transaction_date >= ? AND t.transaction_date <= ?`+transactionOrder,
			scope.ID, start, end)
	}
}

// AccountBalance loads the initial balance and the (type, amount) pairs of
// the account's rows, then applies ledger.ComputeBalance.
func (q *queries) AccountBalance(ctx context.Context, accountID string, w *ledger.Window) (ledger.BalanceDetails, error) {
	var initialText string
	err := q.queryRow(ctx, `SELECT initial_balance FROM accounts WHERE id = ?`, accountID).Scan(&initialText)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.BalanceDetails{}, &ledger.NotFoundError{Resource: ledger.ErrAccountNotFound, ID: accountID}
	}
	if err != nil {
		return ledger.BalanceDetails{}, fmt.Errorf("failed to load account balance: %w", err)
	}
	initial, err := decimal.NewFromString(initialText)
	if err != nil {
		return ledger.BalanceDetails{}, fmt.Errorf("invalid initial balance for account %s: %w", accountID, err)
	}

	query := `SELECT type, amount FROM transactions WHERE account_id = ?`
	args := []any{accountID}
	if w != nil {
		query += ` AND transaction_date >= ? AND transaction_date <= ?`
		args = append(args, formatTime(w.Start), formatTime(w.End))
	}

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return ledger.BalanceDetails{}, fmt.Errorf("failed to query balance entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.BalanceEntry
	for rows.Next() {
		var typ, amount string
		if err := rows.Scan(&typ, &amount); err != nil {
			return ledger.BalanceDetails{}, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return ledger.BalanceDetails{}, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		entries = append(entries, ledger.BalanceEntry{Type: ledger.TransactionType(typ), Amount: d})
	}
	if err := rows.Err(); err != nil {
		return ledger.BalanceDetails{}, err
	}

	return ledger.ComputeBalance(initial, entries), nil
}

func (q *queries) UpdateTransaction(ctx context.Context, id string, p ledger.UpdateTransactionParams) (*ledger.Transaction, error) {
	if p.IsEmpty() {
		return q.GetTransaction(ctx, id)
	}

	var set setClause
	if p.CategoryID != nil {
		set.add("category_id", nullable(p.CategoryID))
	}
	if p.PaymentMethodID != nil {
		set.add("payment_method_id", nullable(p.PaymentMethodID))
	}
	if p.Name != nil {
		set.add("name", *p.Name)
	}
	if p.Amount != nil {
		set.add("amount", p.Amount.String())
	}
	if p.Type != nil {
		set.add("type", string(*p.Type))
	}
	if p.TransactionDate != nil {
		set.add("transaction_date", formatTime(*p.TransactionDate))
	}
	if p.Description != nil {
		set.add("description", nullable(p.Description))
	}
	if p.Payee != nil {
		set.add("payee", nullable(p.Payee))
	}
	if p.ReferenceNumber != nil {
		set.add("reference_number", nullable(p.ReferenceNumber))
	}
	if p.RecurringID != nil {
		set.add("recurring_id", nullable(p.RecurringID))
	}
	if p.Tags != nil {
		tags, err := encodeTags(*p.Tags)
		if err != nil {
			return nil, err
		}
		set.add("tags_json", tags)
	}
	set.add("updated_at", formatTime(q.now()))

	result, err := q.exec(ctx, `UPDATE transactions SET `+set.String()+` WHERE id = ?`,
		append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return q.GetTransaction(ctx, id)
}

func (q *queries) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	result, err := q.exec(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *queries) DeleteTransactionsByAccount(ctx context.Context, accountID string) (bool, error) {
	result, err := q.exec(ctx, `DELETE FROM transactions WHERE account_id = ?`, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to delete account transactions: %w", err)
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

func (q *queries) listTransactions(ctx context.Context, query string, args ...any) ([]ledger.Transaction, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func scanTransaction(s scanner) (*ledger.Transaction, error) {
	var (
		t                                   ledger.Transaction
		categoryID, paymentMethodID         sql.NullString
		description, payee, reference, tags sql.NullString
		recurringID                         sql.NullString
		amount, typ, date                   string
		createdAt, updatedAt                string
	)
	if err := s.Scan(&t.ID, &t.AccountID, &categoryID, &paymentMethodID,
		&t.Name, &amount, &typ, &date, &description, &payee,
		&reference, &tags, &recurringID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid stored amount for transaction %s: %w", t.ID, err)
	}
	t.Type = ledger.TransactionType(typ)
	t.CategoryID = ptr(categoryID)
	t.PaymentMethodID = ptr(paymentMethodID)
	t.Description = ptr(description)
	t.Payee = ptr(payee)
	t.ReferenceNumber = ptr(reference)
	t.RecurringID = ptr(recurringID)

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &t.Tags); err != nil {
			return nil, fmt.Errorf("invalid stored tags for transaction %s: %w", t.ID, err)
		}
	}
	if t.TransactionDate, err = parseTime(date); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// encodeTags stores nil as NULL and anything else as a JSON array.
func encodeTags(tags []string) (any, error) {
	if tags == nil {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
