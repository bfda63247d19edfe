package diag

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sebdah/goldie/v2"
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

func testEnv(db *sqlx.DB) Env {
	return Env{
		DB:         db,
		Loc:        bangkok,
		Now:        time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC),
		VenueOpen:  "10:00",
		VenueClose: "23:00",
	}
}

func punch(t *testing.T, db *sqlx.DB, staffID int, action, at string) {
	t.Helper()
	_, err := database.InsertTimeEntry(db, model.TimeEntry{StaffID: staffID, Action: action, EntryTime: at})
	require.NoError(t, err)
}

func receipt(t *testing.T, db *sqlx.DB, txn model.POSTransaction) {
	t.Helper()
	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, database.InsertPOSTransactionsInTx(tx, []model.POSTransaction{txn}))
	require.NoError(t, tx.Commit())
}

func TestRunAll_CleanDatabase(t *testing.T) {
	db := testDB(t)

	rep := RunAll(testEnv(db))
	assert.Equal(t, len(Checks()), rep.Checks)
	assert.Empty(t, rep.Findings)
	assert.False(t, rep.HasErrors())
	assert.Equal(t, "2025-07-20T12:00:00Z", rep.GeneratedAt)
}

func TestRunAll_FindsSeededProblems(t *testing.T) {
	db := testDB(t)

	anong, err := database.CreateStaff(db, model.Staff{StaffName: "Anong", IsActive: true})
	require.NoError(t, err)
	boon, err := database.CreateStaff(db, model.Staff{StaffName: "Boon", IsActive: true})
	require.NoError(t, err)

	// Anong clocked in and never out.
	punch(t, db, anong, model.ActionClockIn, "2025-07-20T04:00:00Z")
	// Boon's 17 hour pair trips the shift limit, and its clock-out lands
	// at 03:00 venue time, outside opening hours.
	punch(t, db, boon, model.ActionClockIn, "2025-07-19T03:00:00Z")
	punch(t, db, boon, model.ActionClockOut, "2025-07-19T20:00:00Z")

	receipt(t, db, model.POSTransaction{ReceiptNumber: "R-100", TxnTime: "2025-07-01T04:00:00Z", PaymentMethod: "cash", Subtotal: 100, VAT: 7, Total: 107})
	receipt(t, db, model.POSTransaction{ReceiptNumber: "R-100", TxnTime: "2025-07-01T05:00:00Z", PaymentMethod: "cash", Subtotal: 100, VAT: 7, Total: 107})
	receipt(t, db, model.POSTransaction{ReceiptNumber: "R-102", TxnTime: "2025-07-01T06:00:00Z", PaymentMethod: "card", Subtotal: 100, VAT: 7, Total: 110})
	receipt(t, db, model.POSTransaction{ReceiptNumber: "R-103", TxnTime: "2025-07-01T07:00:00Z", PaymentMethod: "cash", Subtotal: 200, VAT: 14, Total: 214, IsVoided: true})

	// Overlapping shifts imported straight into the table.
	_, err = database.CreateSchedule(db, model.Schedule{StaffID: anong, ScheduleDate: "2025-07-21", StartTime: "10:00", EndTime: "18:00"})
	require.NoError(t, err)
	_, err = database.CreateSchedule(db, model.Schedule{StaffID: anong, ScheduleDate: "2025-07-21", StartTime: "17:00", EndTime: "22:00"})
	require.NoError(t, err)

	coach, err := database.CreateCoach(db, model.Coach{CoachName: "Boss", DisplayName: "Pro Boss", IsActive: true})
	require.NoError(t, err)
	for _, start := range []string{"11:00", "11:30"} {
		require.NoError(t, database.InsertBookingInTx(db, model.Booking{
			ID: uuid.New().String(), CoachID: coach, BookingDate: "2025-07-22",
			StartTime: start, DurationMin: 60, Status: model.BookingStatusBooked,
			CreatedAt: database.UTCNow(),
		}))
	}

	singha, err := database.CreateProduct(db, model.Product{ProductName: "Singha", Category: "drinks", Unit: "bottle", IsActive: true})
	require.NoError(t, err)
	tees, err := database.CreateProduct(db, model.Product{ProductName: "Tees", Category: "range", Unit: "box", IsActive: true})
	require.NoError(t, err)
	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, database.InsertStockCountsInTx(tx, []model.StockCount{
		{ProductID: singha, CountDate: "2025-07-18", Quantity: -2},
		{ProductID: tees, CountDate: "2025-06-01", Quantity: 40},
	}))
	require.NoError(t, tx.Commit())

	// A legacy import left a schedule row pointing at a staff id that no
	// longer exists; replay that with enforcement off.
	_, err = db.Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = database.CreateSchedule(db, model.Schedule{StaffID: 999, ScheduleDate: "2025-07-23", StartTime: "10:00", EndTime: "18:00"})
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	rep := RunAll(testEnv(db))
	require.True(t, rep.HasErrors())

	counts := make(map[string]int)
	severity := make(map[string]string)
	for _, f := range rep.Findings {
		counts[f.Check]++
		severity[f.Check] = f.Severity
	}

	assert.Equal(t, map[string]int{
		"unpaired_punches":      1,
		"overlong_shifts":       1,
		"outside_hours_punches": 1,
		"duplicate_receipts":    1,
		"vat_mismatches":        1,
		"voided_with_total":     1,
		"schedule_overlaps":     1,
		"coach_double_bookings": 1,
		"negative_stock_counts": 1,
		"stale_stock_counts":    1,
		"missing_staff_refs":    1,
	}, counts)

	assert.Equal(t, SeverityError, severity["negative_stock_counts"])
	assert.Equal(t, SeverityError, severity["duplicate_receipts"])
	assert.Equal(t, SeverityError, severity["missing_staff_refs"])
	assert.Equal(t, SeverityWarn, severity["unpaired_punches"])
	assert.Equal(t, SeverityInfo, severity["stale_stock_counts"])
}

func TestRunAll_BadVenueClockBecomesFinding(t *testing.T) {
	db := testDB(t)
	env := testEnv(db)
	env.VenueOpen = "ten"

	// The punch check and all three POS checks validate the venue clock,
	// so each surfaces as a failed-check finding instead of aborting.
	rep := RunAll(env)
	require.Len(t, rep.Findings, 4)
	broken := make([]string, 0, 4)
	for _, f := range rep.Findings {
		assert.Equal(t, SeverityError, f.Severity)
		assert.Equal(t, "check failed", f.Subject)
		assert.Contains(t, f.Detail, "ten")
		broken = append(broken, f.Check)
	}
	assert.Equal(t, []string{"outside_hours_punches", "duplicate_receipts", "vat_mismatches", "voided_with_total"}, broken)
	assert.True(t, rep.HasErrors())
}

func TestWriteJSON(t *testing.T) {
	rep := Report{
		GeneratedAt: "2025-07-20T12:00:00Z",
		Checks:      12,
		Findings: []Finding{
			{Check: "negative_stock_counts", Severity: "ERROR", Subject: "Singha on 2025-07-18", Detail: "count 3 records quantity -2.00"},
			{Check: "stale_stock_counts", Severity: "INFO", Subject: "Tees", Detail: "never counted"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))

	g := goldie.New(t)
	g.Assert(t, "report", buf.Bytes())
}

func TestWriteTable(t *testing.T) {
	rep := Report{
		GeneratedAt: "2025-07-20T12:00:00Z",
		Checks:      12,
		Findings: []Finding{
			{Check: "negative_stock_counts", Severity: SeverityError, Subject: "Singha on 2025-07-18", Detail: "count 3 records quantity -2.00"},
			{Check: "unpaired_punches", Severity: SeverityWarn, Subject: "staff 1", Detail: "1 clock_ins never closed, 0 clock_outs without clock_in"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rep))

	out := buf.String()
	assert.Contains(t, out, "negative_stock_counts")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "2 findings across 12 checks: 1 error, 1 warn, 0 info")
}

func TestWriteTable_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, Report{Checks: 12, Findings: []Finding{}}))
	assert.Equal(t, "all 12 checks passed, no findings\n", buf.String())
}
