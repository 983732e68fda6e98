/*
Package sqldb provides a relational implementation of the ledger storage ports.

PURPOSE:
  Implements ledger.TxStore on database/sql. The same SQL runs on SQLite
  (mattn/go-sqlite3) and PostgreSQL (lib/pq); queries are written with '?'
  placeholders and rebound to $N for PostgreSQL.

INTERFACES IMPLEMENTED:
  ledger.AccountStore, ledger.PaymentMethodStore, ledger.CategoryStore,
  ledger.TransactionStore, ledger.TxStore

KEY TABLES:
  accounts:                Account rows (initial balance as decimal TEXT)
  payment_methods:         Payment method labels
  account_payment_methods: Many-to-many association, PK (account_id, payment_method_id)
  categories:              User-scoped categories
  transactions:            Ledger rows; FK to category/payment method is SET NULL on delete,
                           FK to account CASCADEs

ENCODING:
  - Money:  decimal.Decimal as TEXT, summed in Go (no float rounding)
  - Time:   RFC3339 UTC TEXT truncated to the second, so text order = time order
  - Tags:   JSON array TEXT

CONNECTIONS:
  SQLite is opened with a single connection: it has one writer anyway and a
  ":memory:" database exists per connection. PostgreSQL gets a regular pool.
  WithTx binds every statement in fn to one *sql.Tx; the ambient pool is
  used for everything else.

TRACING:
  Every statement runs inside an OpenTelemetry span carrying db.system,
  db.operation and the statement text. Without an SDK the tracer is a no-op.

USAGE:
  store, err := sqldb.New(sqldb.DriverSQLite, "./finances.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definitions
  - transactions.go, accounts.go, categories.go, payment_methods.go
*/
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ana-biscalchin/finances/ledger"
)

var tracer = otel.Tracer("github.com/ana-biscalchin/finances/store/sqldb")

// Driver names a database/sql driver this store can speak.
type Driver string

const (
	DriverSQLite   Driver = "sqlite3"
	DriverPostgres Driver = "postgres"
)

func (d Driver) Valid() bool {
	return d == DriverSQLite || d == DriverPostgres
}

// Store implements ledger.TxStore.
type Store struct {
	*queries
	db *sql.DB
}

var _ ledger.TxStore = (*Store)(nil)

// New opens the database, configures the pool and migrates the schema.
// For SQLite use ":memory:" for an in-memory database.
func New(driver Driver, dsn string) (*Store, error) {
	if !driver.Valid() {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(string(driver), connString(driver, dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch driver {
	case DriverSQLite:
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{
		queries: &queries{conn: db, driver: driver, now: time.Now},
		db:      db,
	}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func connString(driver Driver, dsn string) string {
	if driver != DriverSQLite {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_journal_mode=WAL"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock replaces the clock used for created_at/updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Migrate creates the schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.exec(ctx, schema)
	return err
}

const schema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		institution_name TEXT NOT NULL,
		initial_balance TEXT NOT NULL,
		currency TEXT NOT NULL,
		account_type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_user
		ON accounts(user_id);

	CREATE TABLE IF NOT EXISTS payment_methods (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS account_payment_methods (
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		payment_method_id TEXT NOT NULL REFERENCES payment_methods(id) ON DELETE CASCADE,
		PRIMARY KEY (account_id, payment_method_id)
	);

	CREATE INDEX IF NOT EXISTS idx_account_payment_methods_method
		ON account_payment_methods(payment_method_id);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		color TEXT,
		icon TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- (user_id, name) uniqueness is a service rule; this index serves the lookup
	CREATE INDEX IF NOT EXISTS idx_categories_user_name
		ON categories(user_id, name);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
		payment_method_id TEXT REFERENCES payment_methods(id) ON DELETE SET NULL,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		type TEXT NOT NULL,
		transaction_date TEXT NOT NULL,
		description TEXT,
		payee TEXT,
		reference_number TEXT,
		tags_json TEXT,
		recurring_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path: per-account listing and balance windows
	CREATE INDEX IF NOT EXISTS idx_transactions_account_date
		ON transactions(account_id, transaction_date DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_category
		ON transactions(category_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_payment_method
		ON transactions(payment_method_id);
	`

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. Any error from fn rolls
// everything back and is returned unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
	}()

	tx := &txStore{queries: &queries{conn: sqlTx, driver: s.driver, now: s.now}}
	if err := fn(tx); err != nil {
		sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore is the ledger.Store handed to WithTx callbacks.
type txStore struct {
	*queries
}

// =============================================================================
// QUERIES - Shared by Store and txStore
// =============================================================================

// conn is satisfied by both *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	conn   conn
	driver Driver
	now    func() time.Time
}

func (q *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, span := q.startSpan(ctx, "db.Exec", query)
	defer span.End()

	result, err := q.conn.ExecContext(ctx, q.rebind(query), args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (q *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx, span := q.startSpan(ctx, "db.Query", query)
	defer span.End()

	rows, err := q.conn.QueryContext(ctx, q.rebind(query), args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return rows, err
}

// queryRow keeps the span open until Scan, which is where sql.Row surfaces
// its errors (including sql.ErrNoRows).
func (q *queries) queryRow(ctx context.Context, query string, args ...any) *tracedRow {
	ctx, span := q.startSpan(ctx, "db.QueryRow", query)
	return &tracedRow{
		row:  q.conn.QueryRowContext(ctx, q.rebind(query), args...),
		span: span,
	}
}

type tracedRow struct {
	row  *sql.Row
	span trace.Span
}

func (r *tracedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if r.span != nil {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, err.Error())
		}
		r.span.End()
		r.span = nil
	}
	return err
}

func (q *queries) startSpan(ctx context.Context, name, query string) (context.Context, trace.Span) {
	system := "sqlite"
	if q.driver == DriverPostgres {
		system = "postgresql"
	}
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", system),
		attribute.String("db.operation", sqlVerb(query)),
		attribute.String("db.statement", compactStatement(query)),
	))
}

// rebind turns '?' placeholders into $1..$N for PostgreSQL.
func (q *queries) rebind(query string) string {
	if q.driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func sqlVerb(q string) string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// compactStatement collapses whitespace and caps the length for span attributes.
func compactStatement(q string) string {
	s := strings.Join(strings.Fields(q), " ")
	if len(s) > 256 {
		return s[:256] + "..."
	}
	return s
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t, nil
}

// nullable stores nil and "" as NULL.
func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// setClause accumulates "col = ?" assignments for partial updates.
type setClause struct {
	cols []string
	args []any
}

func (c *setClause) add(col string, v any) {
	c.cols = append(c.cols, col+" = ?")
	c.args = append(c.args, v)
}

func (c *setClause) empty() bool { return len(c.cols) == 0 }

func (c *setClause) String() string { return strings.Join(c.cols, ", ") }
