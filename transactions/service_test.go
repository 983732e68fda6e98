package transactions_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ana-biscalchin/finances/ledger"
	"github.com/ana-biscalchin/finances/metrics"
	"github.com/ana-biscalchin/finances/store/sqldb"
	"github.com/ana-biscalchin/finances/transactions"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Saturday, mid-month, so week and month windows differ
var now = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *transactions.Service
	store   *sqldb.Store
	account *ledger.Account
	reg     *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	store, err := sqldb.New(sqldb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	store.SetClock(func() time.Time { return now })

	reg := prometheus.NewRegistry()
	svc := transactions.NewService(store,
		transactions.WithClock(func() time.Time { return now }),
		transactions.WithMetrics(metrics.New(reg)),
	)

	pm, err := store.CreatePaymentMethod(context.Background(), "PIX")
	require.NoError(t, err)
	account, err := store.CreateAccount(context.Background(), ledger.CreateAccountParams{
		UserID:           "user-1",
		InstitutionName:  "Nubank",
		InitialBalance:   dec("1000"),
		Currency:         "BRL",
		AccountType:      ledger.AccountChecking,
		PaymentMethodIDs: []string{pm.ID},
	})
	require.NoError(t, err)

	return &fixture{svc: svc, store: store, account: account, reg: reg}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func (f *fixture) params(typ ledger.TransactionType, amount string, date time.Time) ledger.CreateTransactionParams {
	return ledger.CreateTransactionParams{
		AccountID:       f.account.ID,
		Name:            "Item",
		Amount:          dec(amount),
		Type:            typ,
		TransactionDate: date,
	}
}

func (f *fixture) categories(t *testing.T) []ledger.Category {
	t.Helper()
	cats, err := f.store.ListCategoriesByUser(context.Background(), "user-1")
	require.NoError(t, err)
	return cats
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreateTransaction_WorkedExample(t *testing.T) {
	// GIVEN: Account with initial balance 1000
	// WHEN: Recording an expense of 25.50 and an income of 500
	// THEN: Balance is 1474.50

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTransaction(ctx, f.params(ledger.TypeExpense, "25.50", now))
	require.NoError(t, err)
	_, err = f.svc.CreateTransaction(ctx, f.params(ledger.TypeIncome, "500", now))
	require.NoError(t, err)

	balance, err := f.svc.GetAccountBalance(ctx, f.account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("1474.50")), "got %s", balance)

	details, err := f.svc.GetAccountBalanceDetails(ctx, f.account.ID)
	require.NoError(t, err)
	assert.True(t, details.TotalExpense.Equal(dec("25.50")))
}

func TestCreateTransaction_CategoryName_ReuseFirst(t *testing.T) {
	// GIVEN: No categories
	// WHEN: Two transactions name the same category
	// THEN: One category is created, typed after the first transaction, and reused

	f := newFixture(t)
	ctx := context.Background()

	p := f.params(ledger.TypeExpense, "10", now)
	p.CategoryName = strPtr("Groceries")
	first, err := f.svc.CreateTransaction(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, first.CategoryID)

	p.Type = ledger.TypeIncome
	second, err := f.svc.CreateTransaction(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, *first.CategoryID, *second.CategoryID)
	cats := f.categories(t)
	require.Len(t, cats, 1)
	assert.Equal(t, ledger.TypeExpense, cats[0].Type)
}

func TestCreateTransaction_CategoryName_ScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.store.CreateCategory(ctx, ledger.CreateCategoryParams{UserID: "user-2", Name: "Rent", Type: ledger.TypeExpense})
	require.NoError(t, err)

	p := f.params(ledger.TypeExpense, "900", now)
	p.CategoryName = strPtr("Rent")
	tx, err := f.svc.CreateTransaction(ctx, p)
	require.NoError(t, err)

	assert.NotEqual(t, other.ID, *tx.CategoryID, "another user's category is never reused")
	assert.Len(t, f.categories(t), 1)
}

func TestCreateTransaction_CategoryID_WinsOverName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	food, err := f.svc.CreateCategory(ctx, ledger.CreateCategoryParams{UserID: "user-1", Name: "Food", Type: ledger.TypeExpense})
	require.NoError(t, err)

	p := f.params(ledger.TypeExpense, "10", now)
	p.CategoryID = &food.ID
	p.CategoryName = strPtr("Ignored")
	tx, err := f.svc.CreateTransaction(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, food.ID, *tx.CategoryID)
	assert.Len(t, f.categories(t), 1)
}

func TestCreateTransaction_EmptyCategoryIDFallsBackToName(t *testing.T) {
	// GIVEN: A request with an empty category id and a category name
	// WHEN: The transaction is created
	// THEN: The name is resolved as if no id had been sent

	f := newFixture(t)
	ctx := context.Background()

	p := f.params(ledger.TypeExpense, "10", now)
	p.CategoryID = strPtr("")
	p.CategoryName = strPtr("Food")
	tx, err := f.svc.CreateTransaction(ctx, p)
	require.NoError(t, err)

	require.NotNil(t, tx.CategoryID)
	cats := f.categories(t)
	require.Len(t, cats, 1)
	assert.Equal(t, "Food", cats[0].Name)
	assert.Equal(t, cats[0].ID, *tx.CategoryID)

	p.CategoryName = strPtr("   ")
	_, err = f.svc.CreateTransaction(ctx, p)
	assert.ErrorIs(t, err, ledger.ErrEmptyName)
}

func TestCreateTransaction_FutureDate(t *testing.T) {
	// GIVEN: A fixed clock
	// WHEN: Creating at now and at now+1s
	// THEN: now succeeds, now+1s fails with ErrFutureDate

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTransaction(ctx, f.params(ledger.TypeExpense, "1", now))
	assert.NoError(t, err)

	_, err = f.svc.CreateTransaction(ctx, f.params(ledger.TypeExpense, "1", now.Add(time.Second)))
	assert.ErrorIs(t, err, ledger.ErrFutureDate)
	assert.True(t, ledger.IsValidation(err))
}

func TestCreateTransaction_RejectsBeforeAnyWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(p *ledger.CreateTransactionParams)
		want   error
	}{
		{"unknown account", func(p *ledger.CreateTransactionParams) { p.AccountID = "missing" }, ledger.ErrAccountNotFound},
		{"unknown category", func(p *ledger.CreateTransactionParams) { p.CategoryID = strPtr("missing") }, ledger.ErrCategoryNotFound},
		{"blank category name", func(p *ledger.CreateTransactionParams) { p.CategoryName = strPtr("  ") }, ledger.ErrEmptyName},
		{"unknown payment method", func(p *ledger.CreateTransactionParams) { p.PaymentMethodID = strPtr("missing") }, ledger.ErrPaymentMethodNotFound},
		{"zero amount", func(p *ledger.CreateTransactionParams) { p.Amount = decimal.Zero }, ledger.ErrInvalidAmount},
		{"negative amount", func(p *ledger.CreateTransactionParams) { p.Amount = dec("-1") }, ledger.ErrInvalidAmount},
		{"blank name", func(p *ledger.CreateTransactionParams) { p.Name = "" }, ledger.ErrEmptyName},
		{"bad type", func(p *ledger.CreateTransactionParams) { p.Type = "refund" }, ledger.ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.params(ledger.TypeExpense, "10", now)
			p.CategoryName = strPtr("Would be created")
			tt.mutate(&p)

			_, err := f.svc.CreateTransaction(ctx, p)
			assert.ErrorIs(t, err, tt.want)

			txs, err := f.store.ListTransactions(ctx)
			require.NoError(t, err)
			assert.Empty(t, txs)
			assert.Empty(t, f.categories(t), "no category is created for a rejected transaction")
		})
	}
}

func TestCreateTransaction_WithPaymentMethodAndTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.params(ledger.TypeExpense, "42", now.Add(-time.Hour))
	p.PaymentMethodID = &f.account.PaymentMethodIDs[0]
	p.Tags = []string{"trip"}
	tx, err := f.svc.CreateTransaction(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, f.account.PaymentMethodIDs[0], *tx.PaymentMethodID)
	assert.Equal(t, []string{"trip"}, tx.Tags)
}

// =============================================================================
// UPDATE / DELETE
// =============================================================================

func TestUpdateTransaction_UnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateTransaction(context.Background(), "missing", ledger.UpdateTransactionParams{Name: strPtr("x")})
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestUpdateTransaction_CategoryTypeFallback(t *testing.T) {
	// GIVEN: A stored expense
	// WHEN: Updating with a new category name and no type
	// THEN: The new category takes the stored type

	f := newFixture(t)
	ctx := context.Background()
	tx, err := f.svc.CreateTransaction(ctx, f.params(ledger.TypeExpense, "10", now))
	require.NoError(t, err)

	updated, err := f.svc.UpdateTransaction(ctx, tx.ID, ledger.UpdateTransactionParams{CategoryName: strPtr("Transport")})
	require.NoError(t, err)
	require.NotNil(t, updated.CategoryID)

	cat, err := f.svc.GetCategory(ctx, *updated.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeExpense, cat.Type)

	income := ledger.TypeIncome
	updated, err = f.svc.UpdateTransaction(ctx, tx.ID, ledger.UpdateTransactionParams{
		CategoryName: strPtr("Bonus"),
		Type:         &income,
	})
	require.NoError(t, err)
	cat, err = f.svc.GetCategory(ctx, *updated.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeIncome, cat.Type)
	assert.Equal(t, ledger.TypeIncome, updated.Type)
}

func TestUpdateTransaction_RevalidatesPresentFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx, err := f.svc.CreateTransaction(ctx, f.params(ledger.TypeExpense, "10", now))
	require.NoError(t, err)

	future := now.Add(time.Minute)
	_, err = f.svc.UpdateTransaction(ctx, tx.ID, ledger.UpdateTransactionParams{TransactionDate: &future})
	assert.ErrorIs(t, err, ledger.ErrFutureDate)

	zero := decimal.Zero
	_, err = f.svc.UpdateTransaction(ctx, tx.ID, ledger.UpdateTransactionParams{Amount: &zero})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = f.svc.UpdateTransaction(ctx, tx.ID, ledger.UpdateTransactionParams{PaymentMethodID: strPtr("missing")})
	assert.ErrorIs(t, err, ledger.ErrPaymentMethodNotFound)

	got, err := f.svc.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("10")), "rejected updates change nothing")
}

func TestUpdateTransaction_ClearsCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.params(ledger.TypeExpense, "10", now)
	p.CategoryName = strPtr("Food")
	tx, err := f.svc.CreateTransaction(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, tx.CategoryID)

	updated, err := f.svc.UpdateTransaction(ctx, tx.ID, ledger.UpdateTransactionParams{CategoryID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
}

func TestUpdateTransaction_EmptyCategoryIDFallsBackToName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx, err := f.svc.CreateTransaction(ctx, f.params(ledger.TypeExpense, "10", now))
	require.NoError(t, err)
	require.Nil(t, tx.CategoryID)

	_, err = f.svc.UpdateTransaction(ctx, tx.ID, ledger.UpdateTransactionParams{
		CategoryID:   strPtr(""),
		CategoryName: strPtr(""),
	})
	assert.ErrorIs(t, err, ledger.ErrEmptyName, "the name is validated even next to an empty id")

	updated, err := f.svc.UpdateTransaction(ctx, tx.ID, ledger.UpdateTransactionParams{
		CategoryID:   strPtr(""),
		CategoryName: strPtr("Transport"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CategoryID)
	cats := f.categories(t)
	require.Len(t, cats, 1)
	assert.Equal(t, "Transport", cats[0].Name)
	assert.Equal(t, ledger.TypeExpense, cats[0].Type)
}

func TestDeleteTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx, err := f.svc.CreateTransaction(ctx, f.params(ledger.TypeIncome, "1", now))
	require.NoError(t, err)

	deleted, err := f.svc.DeleteTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.svc.DeleteTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := f.svc.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// QUERIES + WINDOWS
// =============================================================================

func TestTimeWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dates := map[string]time.Time{
		"this week":       time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
		"earlier month":   time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
		"earlier in year": time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC),
		"last year":       time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC),
	}
	for name, d := range dates {
		p := f.params(ledger.TypeExpense, "1", d)
		p.Name = name
		_, err := f.svc.CreateTransaction(ctx, p)
		require.NoError(t, err)
	}

	month, err := f.svc.GetTransactionsByCurrentMonth(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Len(t, month, 2)

	year, err := f.svc.GetTransactionsByCurrentYear(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Len(t, year, 3)

	week, err := f.svc.GetTransactionsByWeek(ctx, f.account.ID, now)
	require.NoError(t, err)
	require.Len(t, week, 1)
	assert.Equal(t, "this week", week[0].Name)

	last7, err := f.svc.GetTransactionsByLastNDays(ctx, f.account.ID, 7)
	require.NoError(t, err)
	assert.Len(t, last7, 1)

	dec2024, err := f.svc.GetTransactionsByMonthAndYear(ctx, f.account.ID, 12, 2024)
	require.NoError(t, err)
	assert.Len(t, dec2024, 1)

	forUser, err := f.svc.GetTransactionsByCurrentYearForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, forUser, 3)

	nobody, err := f.svc.GetTransactionsByCurrentMonthForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, nobody, "unknown user yields no rows, not an error")
}

func TestTimeWindows_ArgumentsCheckedFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetTransactionsByLastNDays(ctx, "missing", 0)
	assert.ErrorIs(t, err, ledger.ErrNonPositiveDuration, "days are checked before the account")

	_, err = f.svc.GetTransactionsByMonthAndYear(ctx, f.account.ID, 13, 2025)
	assert.ErrorIs(t, err, ledger.ErrInvalidMonth)

	_, err = f.svc.GetTransactionsByMonthAndYearForUser(ctx, "user-1", 1, 1800)
	assert.ErrorIs(t, err, ledger.ErrInvalidYear)

	_, err = f.svc.GetTransactionsByDateRange(ctx, f.account.ID, now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, ledger.ErrInvertedRange)

	_, err = f.svc.GetBalanceByDateRange(ctx, f.account.ID, now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, ledger.ErrInvertedRange)

	_, err = f.svc.GetTransactionsByCurrentMonth(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	_, err = f.svc.GetTransactionsByAccount(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestGetBalanceByDateRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTransaction(ctx, f.params(ledger.TypeIncome, "200", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = f.svc.CreateTransaction(ctx, f.params(ledger.TypeExpense, "50", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	b, err := f.svc.GetBalanceByDateRange(ctx, f.account.ID,
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), now)
	require.NoError(t, err)
	assert.True(t, b.TotalIncome.IsZero())
	assert.True(t, b.CurrentBalance.Equal(dec("950")))

	// A range covering every transaction agrees with the full balance
	total, err := f.svc.GetAccountBalance(ctx, f.account.ID)
	require.NoError(t, err)
	all, err := f.svc.GetBalanceByDateRange(ctx, f.account.ID,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), now)
	require.NoError(t, err)
	assert.True(t, all.CurrentBalance.Equal(total), "got %s, want %s", all.CurrentBalance, total)
	assert.True(t, all.CurrentBalance.Equal(dec("1150")))

	// A range with no transactions leaves only the initial balance
	empty, err := f.svc.GetBalanceByDateRange(ctx, f.account.ID,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, empty.TotalIncome.IsZero())
	assert.True(t, empty.TotalExpense.IsZero())
	assert.True(t, empty.CurrentBalance.Equal(f.account.InitialBalance), "got %s", empty.CurrentBalance)

	_, err = f.svc.GetBalanceByDateRange(ctx, "missing", now.Add(-time.Hour), now)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestGetTransactionsWithFilters_ResultsSatisfyFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, typ := range []ledger.TransactionType{ledger.TypeIncome, ledger.TypeExpense, ledger.TypeTransfer, ledger.TypeExpense} {
		_, err := f.svc.CreateTransaction(ctx, f.params(typ, "10", now.AddDate(0, 0, -i)))
		require.NoError(t, err)
	}

	expense := ledger.TypeExpense
	txs, err := f.svc.GetTransactionsWithFilters(ctx, ledger.TransactionFilters{AccountID: &f.account.ID, Type: &expense})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, ledger.TypeExpense, tx.Type)
	}

	start, end := now, now.AddDate(0, 0, -1)
	_, err = f.svc.GetTransactionsWithFilters(ctx, ledger.TransactionFilters{StartDate: &start, EndDate: &end})
	assert.ErrorIs(t, err, ledger.ErrInvertedRange)
}

func TestMetrics_AutoCreatedCategoryCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.params(ledger.TypeExpense, "10", now)
	p.CategoryName = strPtr("Pets")
	_, err := f.svc.CreateTransaction(ctx, p)
	require.NoError(t, err)
	_, err = f.svc.CreateTransaction(ctx, p)
	require.NoError(t, err)

	families, err := f.reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			values[mf.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), values["finances_categories_auto_created_total"])
	assert.Equal(t, float64(2), values["finances_transactions_created_total"])
}
