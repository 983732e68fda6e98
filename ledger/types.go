/*
Package ledger provides the core types and rules of the personal-finance ledger.

PURPOSE:
  This package holds everything the ledger services agree on: entity records,
  the value rules for money and dates, the error taxonomy, time windows, the
  balance formula and the storage ports. It has no knowledge of SQL or HTTP.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account:       A user-owned container with an initial balance and currency
  - PaymentMethod: A reusable label associated many-to-many with accounts
  - Category:      A user-scoped label for grouping transactions
  - Transaction:   A dated money movement typed income/expense/transfer
  - Params:        Create/Update inputs; pointer fields mean "present"

DESIGN PRINCIPLES:
  1. Precision: Money is decimal.Decimal, never float64
  2. Direction: Amount is always positive, Type carries the direction
  3. Explicit records: One struct per entity, mapped at the storage boundary

SEE ALSO:
  - rules.go:   Money/date value rules
  - balance.go: Balance formula (transfers excluded)
  - store.go:   Storage ports implemented by store/sqldb
*/
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMS
// =============================================================================

// TransactionType carries the direction of a transaction.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// AccountType is the closed set of account kinds.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountCreditCard AccountType = "credit_card"
	AccountPaymentApp AccountType = "payment_app"
	AccountCash       AccountType = "cash"
	AccountOther      AccountType = "other"
)

var accountTypes = map[AccountType]struct{}{
	AccountChecking:   {},
	AccountSavings:    {},
	AccountInvestment: {},
	AccountCreditCard: {},
	AccountPaymentApp: {},
	AccountCash:       {},
	AccountOther:      {},
}

func (t AccountType) Valid() bool {
	_, ok := accountTypes[t]
	return ok
}

// =============================================================================
// ENTITIES
// =============================================================================

type Account struct {
	ID               string
	UserID           string
	InstitutionName  string
	InitialBalance   decimal.Decimal
	Currency         string
	AccountType      AccountType
	PaymentMethodIDs []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type PaymentMethod struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID        string
	UserID    string
	Name      string
	Type      TransactionType
	Color     *string
	Icon      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction is a single dated money movement against one account.
// CategoryID and PaymentMethodID become nil when the referenced row is deleted.
type Transaction struct {
	ID              string
	AccountID       string
	CategoryID      *string
	PaymentMethodID *string
	Name            string
	Amount          decimal.Decimal
	Type            TransactionType
	TransactionDate time.Time
	Description     *string
	Payee           *string
	ReferenceNumber *string
	RecurringID     *string
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasTags reports whether the transaction carries every tag in want.
func (t Transaction) HasTags(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(t.Tags))
	for _, tag := range t.Tags {
		have[tag] = struct{}{}
	}
	for _, tag := range want {
		if _, ok := have[tag]; !ok {
			return false
		}
	}
	return true
}

// MatchesSearch reports whether term occurs in the name, description or
// payee, ignoring case with Unicode folding. An empty term matches.
func (t Transaction) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, field := range []*string{&t.Name, t.Description, t.Payee} {
		if field != nil && strings.Contains(strings.ToLower(*field), term) {
			return true
		}
	}
	return false
}

// TransactionFilters is a read-only query descriptor. A nil or empty field
// places no constraint on that dimension.
type TransactionFilters struct {
	AccountID       *string
	CategoryID      *string
	PaymentMethodID *string
	Type            *TransactionType
	StartDate       *time.Time
	EndDate         *time.Time
	MinAmount       *decimal.Decimal
	MaxAmount       *decimal.Decimal
	Search          string
	Tags            []string
}

// MatchesAmount applies the amount bounds with exact decimal comparison.
func (f TransactionFilters) MatchesAmount(amount decimal.Decimal) bool {
	if f.MinAmount != nil && amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	return true
}

// =============================================================================
// PARAMS - Inputs for create/update
// =============================================================================

type CreateAccountParams struct {
	UserID           string
	InstitutionName  string
	InitialBalance   decimal.Decimal
	Currency         string
	AccountType      AccountType
	PaymentMethodIDs []string
}

// UpdateAccountParams merges scalar fields. A non-nil PaymentMethodIDs
// replaces the whole association set.
type UpdateAccountParams struct {
	InstitutionName  *string
	InitialBalance   *decimal.Decimal
	Currency         *string
	AccountType      *AccountType
	PaymentMethodIDs []string
}

// HasScalarChanges reports whether any account column would change.
func (p UpdateAccountParams) HasScalarChanges() bool {
	return p.InstitutionName != nil || p.InitialBalance != nil ||
		p.Currency != nil || p.AccountType != nil
}

type CreateCategoryParams struct {
	UserID string
	Name   string
	Type   TransactionType
	Color  *string
	Icon   *string
}

type UpdateCategoryParams struct {
	Name  *string
	Type  *TransactionType
	Color *string
	Icon  *string
}

func (p UpdateCategoryParams) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.Color == nil && p.Icon == nil
}

// CreateTransactionParams describes a new transaction. Either CategoryID or
// CategoryName may be set; the service resolves the name to an id before
// the store sees it.
type CreateTransactionParams struct {
	AccountID       string
	CategoryID      *string
	CategoryName    *string
	PaymentMethodID *string
	Name            string
	Amount          decimal.Decimal
	Type            TransactionType
	TransactionDate time.Time
	Description     *string
	Payee           *string
	ReferenceNumber *string
	RecurringID     *string
	Tags            []string
}

// UpdateTransactionParams is a partial update. Tags, when non-nil, replaces
// the stored sequence. An empty string clears an optional text field.
type UpdateTransactionParams struct {
	CategoryID      *string
	CategoryName    *string
	PaymentMethodID *string
	Name            *string
	Amount          *decimal.Decimal
	Type            *TransactionType
	TransactionDate *time.Time
	Description     *string
	Payee           *string
	ReferenceNumber *string
	RecurringID     *string
	Tags            *[]string
}

// IsEmpty reports whether the update would change no stored column.
// CategoryName alone is not a column; it is resolved into CategoryID first.
func (p UpdateTransactionParams) IsEmpty() bool {
	return p.CategoryID == nil && p.PaymentMethodID == nil && p.Name == nil &&
		p.Amount == nil && p.Type == nil && p.TransactionDate == nil &&
		p.Description == nil && p.Payee == nil && p.ReferenceNumber == nil &&
		p.RecurringID == nil && p.Tags == nil
}
