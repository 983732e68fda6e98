/*
Package metrics exposes Prometheus counters for ledger operations.

COUNTERS:
  finances_transactions_created_total{type}
  finances_categories_auto_created_total
  finances_validation_failures_total{rule}
  finances_payment_method_reconciliations_total{op}

USAGE:
  m := metrics.New(prometheus.NewRegistry())   // isolated, for tests
  m := metrics.Default                          // process-wide, served at /metrics

All methods are safe on a nil *Ledger, which records nothing.
*/
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ana-biscalchin/finances/ledger"
)

const namespace = "finances"

// Reconciliation operations.
const (
	OpReplace      = "replace"
	OpAssociate    = "associate"
	OpDisassociate = "disassociate"
)

// Ledger holds the ledger counters.
type Ledger struct {
	transactionsCreated   *prometheus.CounterVec
	categoriesAutoCreated prometheus.Counter
	validationFailures    *prometheus.CounterVec
	reconciliations       *prometheus.CounterVec
}

// Default is registered with the default Prometheus registry.
var Default = New(prometheus.DefaultRegisterer)

// New registers the counters with reg.
func New(reg prometheus.Registerer) *Ledger {
	f := promauto.With(reg)
	return &Ledger{
		transactionsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_created_total",
			Help:      "Transactions created, by type.",
		}, []string{"type"}),
		categoriesAutoCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "categories_auto_created_total",
			Help:      "Categories created implicitly from a transaction's category name.",
		}),
		validationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected inputs, by rule.",
		}, []string{"rule"}),
		reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_method_reconciliations_total",
			Help:      "Account payment-method association changes, by operation.",
		}, []string{"op"}),
	}
}

func (m *Ledger) TransactionCreated(t ledger.TransactionType) {
	if m == nil {
		return
	}
	m.transactionsCreated.WithLabelValues(string(t)).Inc()
}

func (m *Ledger) CategoryAutoCreated() {
	if m == nil {
		return
	}
	m.categoriesAutoCreated.Inc()
}

// ValidationFailed counts err when it is a validation error.
func (m *Ledger) ValidationFailed(err error) {
	if m == nil || !ledger.IsValidation(err) {
		return
	}
	m.validationFailures.WithLabelValues(RuleName(err)).Inc()
}

func (m *Ledger) Reconciled(op string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(op).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

var ruleNames = []struct {
	err  error
	name string
}{
	{ledger.ErrInvalidAmount, "amount"},
	{ledger.ErrFutureDate, "future_date"},
	{ledger.ErrInvertedRange, "date_range"},
	{ledger.ErrNonPositiveDuration, "days"},
	{ledger.ErrInvalidMonth, "month"},
	{ledger.ErrInvalidYear, "year"},
	{ledger.ErrEmptyName, "empty_name"},
	{ledger.ErrNameTooLong, "name_length"},
	{ledger.ErrInvalidType, "transaction_type"},
	{ledger.ErrInvalidAccountType, "account_type"},
	{ledger.ErrInvalidCurrency, "currency"},
	{ledger.ErrInvalidColor, "color"},
	{ledger.ErrIconTooLong, "icon"},
	{ledger.ErrTagsNotSequence, "tags"},
	{ledger.ErrNoPaymentMethods, "payment_methods"},
}

// RuleName maps a validation error to a bounded label value.
func RuleName(err error) string {
	for _, r := range ruleNames {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	var verr *ledger.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		return verr.Field
	}
	return "other"
}
