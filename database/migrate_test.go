package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lengolf/model"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := testDB(t)

	applied, err := Migrate(db)
	require.NoError(t, err)
	assert.Greater(t, applied, 0)

	version, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, applied, version)

	applied, err = Migrate(db)
	require.NoError(t, err)
	assert.Zero(t, applied, "second run has nothing to apply")

	again, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, version, again)
}

func TestMigrate_RefusesNewerDatabase(t *testing.T) {
	db := testDB(t)
	_, err := db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)

	_, err = Migrate(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than this binary")
}

func TestSettings(t *testing.T) {
	db := testDB(t)
	_, err := Migrate(db)
	require.NoError(t, err)

	// Migration seeds the venue identity.
	got, err := GetSetting(db, "lengolf_name")
	require.NoError(t, err)
	assert.Equal(t, "LENGOLF CO. LTD.", got)

	_, err = GetSetting(db, "no_such_key")
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, SetSetting(db, "bank_name", "Kasikorn Bank"))
	require.NoError(t, SetSetting(db, "bank_name", "SCB"))
	got, err = GetSetting(db, "bank_name")
	require.NoError(t, err)
	assert.Equal(t, "SCB", got)

	all, err := GetAllSettings(db)
	require.NoError(t, err)
	assert.Equal(t, "SCB", all["bank_name"])
	assert.Equal(t, "3.00", all["default_wht_rate"])
}

func TestNextInvoiceNumber(t *testing.T) {
	db := testDB(t)
	_, err := Migrate(db)
	require.NoError(t, err)

	supplier, err := CreateSupplier(db, model.Supplier{Name: "Khun Som"})
	require.NoError(t, err)

	record := func(number string) {
		tx, err := db.Beginx()
		require.NoError(t, err)
		_, err = InsertInvoiceInTx(tx, model.Invoice{
			InvoiceNumber: number,
			SupplierID:    supplier,
			InvoiceDate:   "2025-07-15",
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	}
	next := func() string {
		tx, err := db.Beginx()
		require.NoError(t, err)
		defer tx.Rollback()
		n, err := NextInvoiceNumberInTx(tx, "202507")
		require.NoError(t, err)
		return n
	}

	// First invoice of the month is the bare base.
	assert.Equal(t, "202507", next())
	record("202507")
	assert.Equal(t, "202507-2", next())
	record("202507-2")
	record("202507-3")

	// A deleted invoice in the middle never frees its number.
	_, err = db.Exec(`DELETE FROM invoices WHERE invoice_number = '202507-2'`)
	require.NoError(t, err)
	assert.Equal(t, "202507-4", next())

	// Another month runs its own sequence.
	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	n, err := NextInvoiceNumberInTx(tx, "202508")
	require.NoError(t, err)
	assert.Equal(t, "202508", n)
}
