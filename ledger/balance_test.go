package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ana-biscalchin/finances/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeBalance_WorkedExample(t *testing.T) {
	// GIVEN: Initial 1000, expense 25.50, income 500
	// WHEN: Computing the balance
	// THEN: current = 1000 + 500 - 25.50 = 1474.50

	b := ledger.ComputeBalance(d("1000"), []ledger.BalanceEntry{
		{Type: ledger.TypeExpense, Amount: d("25.50")},
		{Type: ledger.TypeIncome, Amount: d("500")},
	})

	assert.True(t, b.InitialBalance.Equal(d("1000")))
	assert.True(t, b.TotalIncome.Equal(d("500")))
	assert.True(t, b.TotalExpense.Equal(d("25.50")))
	assert.True(t, b.CurrentBalance.Equal(d("1474.50")))
}

func TestComputeBalance_TransfersExcluded(t *testing.T) {
	entries := []ledger.BalanceEntry{
		{Type: ledger.TypeIncome, Amount: d("10")},
	}
	without := ledger.ComputeBalance(d("0"), entries)
	with := ledger.ComputeBalance(d("0"), append(entries, ledger.BalanceEntry{Type: ledger.TypeTransfer, Amount: d("1000000")}))

	assert.True(t, with.CurrentBalance.Equal(without.CurrentBalance))
	assert.True(t, with.TotalIncome.Equal(without.TotalIncome))
	assert.True(t, with.TotalExpense.Equal(without.TotalExpense))
}

func TestComputeBalance_Identity(t *testing.T) {
	// current = initial + income - expense for any mix, exactly
	entries := []ledger.BalanceEntry{
		{Type: ledger.TypeIncome, Amount: d("0.10")},
		{Type: ledger.TypeIncome, Amount: d("0.20")},
		{Type: ledger.TypeExpense, Amount: d("0.30")},
		{Type: ledger.TypeExpense, Amount: d("99.99")},
		{Type: ledger.TypeTransfer, Amount: d("5")},
	}
	b := ledger.ComputeBalance(d("-12.34"), entries)

	assert.True(t, b.TotalIncome.Equal(d("0.30")), "no float drift")
	assert.True(t, b.CurrentBalance.Equal(b.InitialBalance.Add(b.TotalIncome).Sub(b.TotalExpense)))
	assert.True(t, b.CurrentBalance.Equal(d("-112.33")))
}

func TestComputeBalance_NoEntries(t *testing.T) {
	b := ledger.ComputeBalance(d("42"), nil)

	assert.True(t, b.TotalIncome.IsZero())
	assert.True(t, b.TotalExpense.IsZero())
	assert.True(t, b.CurrentBalance.Equal(d("42")))
}

func TestTransaction_HasTags(t *testing.T) {
	tx := ledger.Transaction{Tags: []string{"food", "work"}}

	assert.True(t, tx.HasTags(nil))
	assert.True(t, tx.HasTags([]string{"food"}))
	assert.True(t, tx.HasTags([]string{"work", "food"}))
	assert.False(t, tx.HasTags([]string{"food", "travel"}))
}

func TestTransaction_MatchesSearch(t *testing.T) {
	payee := "Padaria São João"
	tx := ledger.Transaction{Name: "Ônibus", Payee: &payee}

	assert.True(t, tx.MatchesSearch(""))
	assert.True(t, tx.MatchesSearch("ônibus"))
	assert.True(t, tx.MatchesSearch("SÃO JOÃO"))
	assert.False(t, tx.MatchesSearch("metrô"))
}
