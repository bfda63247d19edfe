package datafix

import (
	"io"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lengolf/database"
	"lengolf/model"
)

var bangkok = time.FixedZone("ICT", 7*3600)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = database.Migrate(db)
	require.NoError(t, err)
	return db
}

func addStaff(t *testing.T, db *sqlx.DB, name string) int {
	t.Helper()
	id, err := database.CreateStaff(db, model.Staff{StaffName: name, IsActive: true})
	require.NoError(t, err)
	return id
}

func punch(t *testing.T, db *sqlx.DB, staffID int, action, at string) model.TimeEntry {
	t.Helper()
	saved, err := database.InsertTimeEntry(db, model.TimeEntry{StaffID: staffID, Action: action, EntryTime: at})
	require.NoError(t, err)
	return saved
}

func staffEntries(t *testing.T, db *sqlx.DB, staffID int) []model.TimeEntry {
	t.Helper()
	entries, err := database.GetTimeEntriesBetween(db, "0000-01-01T00:00:00Z", "9999-12-31T23:59:59Z", staffID)
	require.NoError(t, err)
	return entries
}

func entryTimes(entries []model.TimeEntry) []string {
	times := make([]string, len(entries))
	for i, e := range entries {
		times[i] = e.EntryTime
	}
	return times
}

func receiptRow(t *testing.T, db *sqlx.DB, txn model.POSTransaction) {
	t.Helper()
	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, database.InsertPOSTransactionsInTx(tx, []model.POSTransaction{txn}))
	require.NoError(t, tx.Commit())
}

func auditTrail(t *testing.T, db *sqlx.DB) []model.DataFix {
	t.Helper()
	fixes, err := database.ListDataFixes(db, 0)
	require.NoError(t, err)
	return fixes
}

func TestPunchOffset_Validation(t *testing.T) {
	db := testDB(t)

	_, err := PunchOffset(db, bangkok, PunchOffsetOptions{From: "2025-07-10", To: "2025-07-10", Hours: -7}, false)
	assert.ErrorContains(t, err, "staff id is required")

	_, err = PunchOffset(db, bangkok, PunchOffsetOptions{StaffID: 1, From: "2025-07-10", To: "2025-07-10"}, false)
	assert.ErrorContains(t, err, "hours must be non-zero")

	_, err = PunchOffset(db, bangkok, PunchOffsetOptions{StaffID: 1, From: "soon", To: "later", Hours: 1}, false)
	assert.Error(t, err)
}

func TestPunchOffset_DryRunLeavesDataAlone(t *testing.T) {
	db := testDB(t)
	anong := addStaff(t, db, "Anong")
	in := punch(t, db, anong, model.ActionClockIn, "2025-07-10T10:00:00Z")
	out := punch(t, db, anong, model.ActionClockOut, "2025-07-10T14:00:00Z")

	rep, err := PunchOffset(db, bangkok, PunchOffsetOptions{StaffID: anong, From: "2025-07-10", To: "2025-07-10", Hours: -7}, false)
	require.NoError(t, err)

	assert.Equal(t, "punch-offset", rep.FixName)
	assert.False(t, rep.Applied)
	assert.Equal(t, 2, rep.RowsAffected)
	assert.Equal(t, []string{"Entry", "Action", "Old Time", "New Time"}, rep.Header)
	assert.Equal(t, [][]string{
		{strconv.Itoa(in.ID), "clock_in", "2025-07-10T10:00:00Z", "2025-07-10T03:00:00Z"},
		{strconv.Itoa(out.ID), "clock_out", "2025-07-10T14:00:00Z", "2025-07-10T07:00:00Z"},
	}, rep.Rows)

	assert.Equal(t, []string{"2025-07-10T10:00:00Z", "2025-07-10T14:00:00Z"}, entryTimes(staffEntries(t, db, anong)))
	assert.Empty(t, auditTrail(t, db))
}

func TestPunchOffset_ApplyShiftsOnlyTargetedRows(t *testing.T) {
	db := testDB(t)
	anong := addStaff(t, db, "Anong")
	boon := addStaff(t, db, "Boon")
	punch(t, db, anong, model.ActionClockIn, "2025-07-10T10:00:00Z")
	punch(t, db, anong, model.ActionClockOut, "2025-07-10T14:00:00Z")
	punch(t, db, anong, model.ActionClockIn, "2025-07-12T10:00:00Z")
	punch(t, db, boon, model.ActionClockIn, "2025-07-10T11:00:00Z")

	rep, err := PunchOffset(db, bangkok, PunchOffsetOptions{StaffID: anong, From: "2025-07-10", To: "2025-07-10", Hours: -7}, true)
	require.NoError(t, err)
	assert.True(t, rep.Applied)
	assert.Equal(t, 2, rep.RowsAffected)

	assert.Equal(t, []string{"2025-07-10T03:00:00Z", "2025-07-10T07:00:00Z", "2025-07-12T10:00:00Z"},
		entryTimes(staffEntries(t, db, anong)))
	assert.Equal(t, []string{"2025-07-10T11:00:00Z"}, entryTimes(staffEntries(t, db, boon)))

	fixes := auditTrail(t, db)
	require.Len(t, fixes, 1)
	assert.Equal(t, "punch-offset", fixes[0].FixName)
	assert.Equal(t, 2, fixes[0].RowsAffected)
	assert.Contains(t, fixes[0].Params, `"hours":-7`)
	assert.Contains(t, fixes[0].Params, `"from":"2025-07-10"`)
}

func TestDedupePunches_DryRunThenApply(t *testing.T) {
	db := testDB(t)
	anong := addStaff(t, db, "Anong")
	boon := addStaff(t, db, "Boon")

	anongIn := punch(t, db, anong, model.ActionClockIn, "2025-07-10T09:00:00Z")
	anongDup := punch(t, db, anong, model.ActionClockIn, "2025-07-10T09:02:00Z")
	punch(t, db, anong, model.ActionClockOut, "2025-07-10T13:00:00Z")
	punch(t, db, anong, model.ActionClockOut, "2025-07-10T13:05:00Z")
	boonIn := punch(t, db, boon, model.ActionClockIn, "2025-07-10T10:00:00Z")
	boonDup := punch(t, db, boon, model.ActionClockIn, "2025-07-10T10:00:30Z")
	punch(t, db, boon, model.ActionClockOut, "2025-07-10T14:00:00Z")

	opts := DedupePunchesOptions{Progress: io.Discard}

	rep, err := DedupePunches(db, bangkok, opts, false)
	require.NoError(t, err)
	assert.Equal(t, "dedupe-punches", rep.FixName)
	assert.False(t, rep.Applied)
	assert.Equal(t, 2, rep.RowsAffected)
	assert.Equal(t, [][]string{
		{strconv.Itoa(anongDup.ID), "Anong", "clock_in", "2025-07-10T09:02:00Z", strconv.Itoa(anongIn.ID)},
		{strconv.Itoa(boonDup.ID), "Boon", "clock_in", "2025-07-10T10:00:30Z", strconv.Itoa(boonIn.ID)},
	}, rep.Rows)
	assert.Len(t, staffEntries(t, db, anong), 4)
	assert.Empty(t, auditTrail(t, db))

	rep, err = DedupePunches(db, bangkok, opts, true)
	require.NoError(t, err)
	assert.True(t, rep.Applied)

	// The five-minute gap between the two clock_outs sits outside the
	// default window, so only the kiosk double-submits go.
	assert.Equal(t, []string{"2025-07-10T09:00:00Z", "2025-07-10T13:00:00Z", "2025-07-10T13:05:00Z"},
		entryTimes(staffEntries(t, db, anong)))
	assert.Equal(t, []string{"2025-07-10T10:00:00Z", "2025-07-10T14:00:00Z"},
		entryTimes(staffEntries(t, db, boon)))

	fixes := auditTrail(t, db)
	require.Len(t, fixes, 1)
	assert.Equal(t, "dedupe-punches", fixes[0].FixName)
	assert.Contains(t, fixes[0].Params, `"windowMinutes":3`)
}

func TestDedupePunches_WindowAndRange(t *testing.T) {
	db := testDB(t)
	anong := addStaff(t, db, "Anong")
	punch(t, db, anong, model.ActionClockOut, "2025-07-10T13:00:00Z")
	punch(t, db, anong, model.ActionClockOut, "2025-07-10T13:05:00Z")

	rep, err := DedupePunches(db, bangkok, DedupePunchesOptions{Window: 10 * time.Minute, Progress: io.Discard}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.RowsAffected)

	// Both punches land on venue date 2025-07-10, so a scan of the 11th
	// sees nothing.
	rep, err = DedupePunches(db, bangkok, DedupePunchesOptions{Window: 10 * time.Minute, From: "2025-07-11", To: "2025-07-11", Progress: io.Discard}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.RowsAffected)

	_, err = DedupePunches(db, bangkok, DedupePunchesOptions{From: "2025-07-10", Progress: io.Discard}, false)
	assert.ErrorContains(t, err, "from and to must be given together")
}

func TestCloseOpenShifts_DryRunThenApply(t *testing.T) {
	db := testDB(t)
	anong := addStaff(t, db, "Anong")
	boon := addStaff(t, db, "Boon")
	chai := addStaff(t, db, "Chai")
	dao := addStaff(t, db, "Dao")

	// Anong never clocked out.
	open := punch(t, db, anong, model.ActionClockIn, "2025-07-10T05:00:00Z")
	// Boon's shift legitimately ran past midnight and is already closed.
	punch(t, db, boon, model.ActionClockIn, "2025-07-10T06:00:00Z")
	punch(t, db, boon, model.ActionClockOut, "2025-07-10T17:30:00Z")
	// Chai's open shift is on the next day and out of scope.
	punch(t, db, chai, model.ActionClockIn, "2025-07-11T05:00:00Z")
	// Dao clocked in after venue close, which cannot be auto-closed.
	late := punch(t, db, dao, model.ActionClockIn, "2025-07-10T16:30:00Z")

	opts := CloseOpenShiftsOptions{Date: "2025-07-10"}

	rep, err := CloseOpenShifts(db, bangkok, opts, false)
	require.NoError(t, err)
	assert.Equal(t, "close-open-shifts", rep.FixName)
	assert.False(t, rep.Applied)
	assert.Equal(t, 1, rep.RowsAffected)
	assert.Equal(t, [][]string{
		{strconv.Itoa(anong), "2025-07-10T05:00:00Z", "2025-07-10T16:00:00Z"},
		{strconv.Itoa(dao), "2025-07-10T16:30:00Z", "skipped: clock_in is after close time"},
	}, rep.Rows)
	assert.Len(t, staffEntries(t, db, anong), 1)

	rep, err = CloseOpenShifts(db, bangkok, opts, true)
	require.NoError(t, err)
	assert.True(t, rep.Applied)

	entries := staffEntries(t, db, anong)
	require.Len(t, entries, 2)
	assert.Equal(t, open.EntryTime, entries[0].EntryTime)
	assert.Equal(t, model.ActionClockOut, entries[1].Action)
	assert.Equal(t, "2025-07-10T16:00:00Z", entries[1].EntryTime)
	assert.Equal(t, "auto-closed at venue close", entries[1].Note)

	assert.Len(t, staffEntries(t, db, boon), 2)
	assert.Len(t, staffEntries(t, db, chai), 1)
	assert.Equal(t, []string{late.EntryTime}, entryTimes(staffEntries(t, db, dao)))

	fixes := auditTrail(t, db)
	require.Len(t, fixes, 1)
	assert.Equal(t, "close-open-shifts", fixes[0].FixName)
	assert.Contains(t, fixes[0].Params, `"at":"23:00"`)
}

func TestCloseOpenShifts_CustomCloseTime(t *testing.T) {
	db := testDB(t)
	anong := addStaff(t, db, "Anong")
	punch(t, db, anong, model.ActionClockIn, "2025-07-10T05:00:00Z")

	rep, err := CloseOpenShifts(db, bangkok, CloseOpenShiftsOptions{Date: "2025-07-10", At: "21:00"}, false)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "2025-07-10T14:00:00Z", rep.Rows[0][2])
}

func TestCloseOpenShifts_BadDate(t *testing.T) {
	db := testDB(t)
	_, err := CloseOpenShifts(db, bangkok, CloseOpenShiftsOptions{Date: "July 10"}, false)
	assert.ErrorContains(t, err, "failed to parse close time")
}

func TestReassignReceipt(t *testing.T) {
	db := testDB(t)
	receiptRow(t, db, model.POSTransaction{ReceiptNumber: "R-500", TxnTime: "2025-07-10T05:00:00Z", StaffName: "Fon", PaymentMethod: "cash", Subtotal: 100, VAT: 7, Total: 107})
	receiptRow(t, db, model.POSTransaction{ReceiptNumber: "R-500", TxnTime: "2025-07-10T05:01:00Z", StaffName: "Fon", PaymentMethod: "card", Subtotal: 200, VAT: 14, Total: 214})
	receiptRow(t, db, model.POSTransaction{ReceiptNumber: "R-501", TxnTime: "2025-07-10T06:00:00Z", StaffName: "Fon", PaymentMethod: "cash", Subtotal: 50, VAT: 3.5, Total: 53.5})

	rows, err := database.GetPOSTransactionsByReceipt(db, "R-500")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rep, err := ReassignReceipt(db, "R-500", "Nok", false)
	require.NoError(t, err)
	assert.Equal(t, "reassign-receipt", rep.FixName)
	assert.False(t, rep.Applied)
	assert.Equal(t, 2, rep.RowsAffected)
	assert.Equal(t, []string{strconv.Itoa(rows[0].ID), "2025-07-10T05:00:00Z", "Fon", "Nok", "107.00"}, rep.Rows[0])

	rows, err = database.GetPOSTransactionsByReceipt(db, "R-500")
	require.NoError(t, err)
	assert.Equal(t, "Fon", rows[0].StaffName)

	rep, err = ReassignReceipt(db, "R-500", "Nok", true)
	require.NoError(t, err)
	assert.True(t, rep.Applied)

	rows, err = database.GetPOSTransactionsByReceipt(db, "R-500")
	require.NoError(t, err)
	for _, r := range rows {
		assert.Equal(t, "Nok", r.StaffName)
	}
	other, err := database.GetPOSTransactionsByReceipt(db, "R-501")
	require.NoError(t, err)
	assert.Equal(t, "Fon", other[0].StaffName)

	fixes := auditTrail(t, db)
	require.Len(t, fixes, 1)
	assert.Contains(t, fixes[0].Params, `"receipt":"R-500"`)

	// An unknown receipt is a no-op even when applying.
	rep, err = ReassignReceipt(db, "R-999", "Nok", true)
	require.NoError(t, err)
	assert.False(t, rep.Applied)
	assert.Equal(t, 0, rep.RowsAffected)
	assert.Len(t, auditTrail(t, db), 1)

	_, err = ReassignReceipt(db, "R-500", "   ", false)
	assert.ErrorContains(t, err, "staff name is required")
}

func TestVoidReceipt(t *testing.T) {
	db := testDB(t)
	receiptRow(t, db, model.POSTransaction{ReceiptNumber: "R-600", TxnTime: "2025-07-10T05:00:00Z", StaffName: "Fon", PaymentMethod: "cash", Subtotal: 100, VAT: 7, Total: 107})
	receiptRow(t, db, model.POSTransaction{ReceiptNumber: "R-600", TxnTime: "2025-07-10T05:01:00Z", StaffName: "Fon", PaymentMethod: "cash", IsVoided: true})

	rows, err := database.GetPOSTransactionsByReceipt(db, "R-600")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rep, err := VoidReceipt(db, "R-600", "customer refund", false)
	require.NoError(t, err)
	assert.Equal(t, "void-receipt", rep.FixName)
	assert.False(t, rep.Applied)
	assert.Equal(t, 1, rep.RowsAffected)
	assert.Equal(t, [][]string{
		{strconv.Itoa(rows[0].ID), "2025-07-10T05:00:00Z", "107.00", "will void, total -> 0.00"},
		{strconv.Itoa(rows[1].ID), "2025-07-10T05:01:00Z", "0.00", "already voided"},
	}, rep.Rows)

	rows, err = database.GetPOSTransactionsByReceipt(db, "R-600")
	require.NoError(t, err)
	assert.False(t, rows[0].IsVoided)

	rep, err = VoidReceipt(db, "R-600", "customer refund", true)
	require.NoError(t, err)
	assert.True(t, rep.Applied)

	rows, err = database.GetPOSTransactionsByReceipt(db, "R-600")
	require.NoError(t, err)
	assert.True(t, rows[0].IsVoided)
	assert.Zero(t, rows[0].Total)

	fixes := auditTrail(t, db)
	require.Len(t, fixes, 1)
	assert.Equal(t, "void-receipt", fixes[0].FixName)
	assert.Contains(t, fixes[0].Params, `"originalTotals"`)
	assert.Contains(t, fixes[0].Params, `:107`)

	_, err = VoidReceipt(db, "R-600", " ", false)
	assert.ErrorContains(t, err, "reason is required")
}

func TestVoidReceipt_NothingLeftToVoid(t *testing.T) {
	db := testDB(t)
	receiptRow(t, db, model.POSTransaction{ReceiptNumber: "R-601", TxnTime: "2025-07-10T05:00:00Z", StaffName: "Fon", PaymentMethod: "cash", IsVoided: true})

	rep, err := VoidReceipt(db, "R-601", "duplicate charge", true)
	require.NoError(t, err)
	assert.False(t, rep.Applied)
	assert.Equal(t, 0, rep.RowsAffected)
	assert.Empty(t, auditTrail(t, db))
}
