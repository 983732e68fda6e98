/*
balance.go - Balance formula

PURPOSE:
  Computes an account balance from its initial balance and the typed
  amounts of its transactions. The store loads rows; this file owns the
  arithmetic so every caller applies the same rule.

FORMULA:
  current = initial_balance + Σ(income) − Σ(expense)

TRANSFERS:
  Transfers are EXCLUDED. A transfer moves money between holders but is not
  a net gain or loss for the reporting account in this model. Adding a
  transfer of any amount leaves the balance unchanged.

DATE RANGES:
  For a windowed balance only the income/expense sums are restricted to the
  window. The initial balance is not dated and is always included.

EXAMPLE:
  initial 1000, expense 25.50, income 500
  → {initial 1000, income 500, expense 25.50, current 1474.50}

SEE ALSO:
  - store/sqldb/transactions.go: Loads the entries for an account
*/
package ledger

import "github.com/shopspring/decimal"

// BalanceDetails are the four components of an account balance.
type BalanceDetails struct {
	InitialBalance decimal.Decimal
	TotalIncome    decimal.Decimal
	TotalExpense   decimal.Decimal
	CurrentBalance decimal.Decimal
}

// BalanceEntry is the minimal projection of a transaction the formula needs.
type BalanceEntry struct {
	Type   TransactionType
	Amount decimal.Decimal
}

// ComputeBalance applies the balance formula to entries.
func ComputeBalance(initial decimal.Decimal, entries []BalanceEntry) BalanceDetails {
	income := decimal.Zero
	expense := decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case TypeIncome:
			income = income.Add(e.Amount)
		case TypeExpense:
			expense = expense.Add(e.Amount)
		}
	}
	return BalanceDetails{
		InitialBalance: initial,
		TotalIncome:    income,
		TotalExpense:   expense,
		CurrentBalance: initial.Add(income).Sub(expense),
	}
}
