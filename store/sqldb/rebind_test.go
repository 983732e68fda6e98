package sqldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	pg := &queries{driver: DriverPostgres}
	lite := &queries{driver: DriverSQLite}

	q := `SELECT * FROM transactions WHERE account_id = ? AND amount > ? LIMIT ?`

	assert.Equal(t, `SELECT * FROM transactions WHERE account_id = $1 AND amount > $2 LIMIT $3`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q), "sqlite keeps '?' placeholders")
	assert.Equal(t, `SELECT 1`, pg.rebind(`SELECT 1`))
}

func TestConnString(t *testing.T) {
	assert.Equal(t, "finances.db?_foreign_keys=on&_journal_mode=WAL", connString(DriverSQLite, "finances.db"))
	assert.Equal(t, "file:x.db?cache=shared&_foreign_keys=on&_journal_mode=WAL", connString(DriverSQLite, "file:x.db?cache=shared"))
	assert.Equal(t, "postgres://u@h/db", connString(DriverPostgres, "postgres://u@h/db"))
}

func TestCompactStatement(t *testing.T) {
	assert.Equal(t, "SELECT a FROM b WHERE c = ?", compactStatement("\n\tSELECT a\n\t\tFROM b   WHERE c = ?\n"))
	assert.Equal(t, "UPDATE", sqlVerb("  update x set y = 1"))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
