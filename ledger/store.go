/*
store.go - Storage ports for the ledger

PURPOSE:
  Defines the interface between the ledger services and the relational
  store. Services depend on these ports, never on a concrete database, so
  transactional scoping and test doubles stay explicit.

KEY INTERFACES:
  AccountStore:       Accounts and their scalar fields
  PaymentMethodStore: Payment methods and the account association rows
  CategoryStore:      User-scoped categories
  TransactionStore:   Transaction CRUD, filters, windows, balance
  Store:              All of the above
  TxStore:            Store + WithTx for multi-statement sequences

MISS CONTRACT:
  Reads return (nil, nil) for a missing row. Deletes return false. The one
  exception is AccountBalance, which fails with ErrAccountNotFound because
  a balance has no meaningful "empty" value.

ATOMIC SEQUENCES:
  WithTx runs fn against a Store bound to one storage transaction. If fn
  returns an error every statement is rolled back and that same error is
  returned. Inside fn, use only the Store passed in.

IMPLEMENTATIONS:
  - store/sqldb: SQLite (mattn/go-sqlite3) and PostgreSQL (lib/pq)
*/
package ledger

import "context"

// =============================================================================
// ACCOUNTS
// =============================================================================

type AccountStore interface {
	CreateAccount(ctx context.Context, p CreateAccountParams) (*Account, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	ListAccountsByUser(ctx context.Context, userID string) ([]Account, error)

	// UpdateAccountFields merges the scalar fields of p. It returns false
	// when the account does not exist. PaymentMethodIDs is ignored here.
	UpdateAccountFields(ctx context.Context, id string, p UpdateAccountParams) (bool, error)

	DeleteAccount(ctx context.Context, id string) (bool, error)
}

// =============================================================================
// PAYMENT METHODS + ASSOCIATIONS
// =============================================================================

type PaymentMethodStore interface {
	CreatePaymentMethod(ctx context.Context, name string) (*PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, id string) (*PaymentMethod, error)
	GetPaymentMethodByName(ctx context.Context, name string) (*PaymentMethod, error)
	ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, id, name string) (*PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, id string) (bool, error)

	ListAccountPaymentMethodIDs(ctx context.Context, accountID string) ([]string, error)
	ListPaymentMethodsByAccount(ctx context.Context, accountID string) ([]PaymentMethod, error)
	ListAccountsByPaymentMethod(ctx context.Context, paymentMethodID string) ([]Account, error)

	AddAccountPaymentMethod(ctx context.Context, accountID, paymentMethodID string) error
	RemoveAccountPaymentMethod(ctx context.Context, accountID, paymentMethodID string) (bool, error)
	ClearAccountPaymentMethods(ctx context.Context, accountID string) error
}

// =============================================================================
// CATEGORIES
// =============================================================================

type CategoryStore interface {
	CreateCategory(ctx context.Context, p CreateCategoryParams) (*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)

	// FindCategoryByName matches (user_id, name) exactly.
	FindCategoryByName(ctx context.Context, userID, name string) (*Category, error)

	ListCategories(ctx context.Context) ([]Category, error)
	ListCategoriesByUser(ctx context.Context, userID string) ([]Category, error)
	ListCategoriesByUserAndType(ctx context.Context, userID string, t TransactionType) ([]Category, error)
	UpdateCategory(ctx context.Context, id string, p UpdateCategoryParams) (*Category, error)
	DeleteCategory(ctx context.Context, id string) (bool, error)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

type TransactionStore interface {
	// CreateTransaction persists p (CategoryName is ignored) and returns the
	// row read back. A failed read-back is a *PersistenceError.
	CreateTransaction(ctx context.Context, p CreateTransactionParams) (*Transaction, error)

	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	ListTransactions(ctx context.Context) ([]Transaction, error)
	ListTransactionsByAccount(ctx context.Context, accountID string) ([]Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID string) ([]Transaction, error)
	FindTransactions(ctx context.Context, f TransactionFilters) ([]Transaction, error)
	FindTransactionsInWindow(ctx context.Context, scope Scope, w Window) ([]Transaction, error)

	// AccountBalance applies ComputeBalance to the account's rows. A nil
	// window covers every transaction.
	AccountBalance(ctx context.Context, accountID string, w *Window) (BalanceDetails, error)

	// UpdateTransaction merges the present fields of p. It returns nil for
	// an unknown id. An empty p is a read-through.
	UpdateTransaction(ctx context.Context, id string, p UpdateTransactionParams) (*Transaction, error)

	DeleteTransaction(ctx context.Context, id string) (bool, error)
	DeleteTransactionsByAccount(ctx context.Context, accountID string) (bool, error)
}

// =============================================================================
// COMBINED + TRANSACTIONAL
// =============================================================================

type Store interface {
	AccountStore
	PaymentMethodStore
	CategoryStore
	TransactionStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a storage transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
