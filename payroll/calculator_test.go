package payroll

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
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

func addStaff(t *testing.T, db *sqlx.DB, name string, active bool) int {
	t.Helper()
	id, err := database.CreateStaff(db, model.Staff{StaffName: name, Nickname: name, Position: "floor", IsActive: active})
	require.NoError(t, err)
	return id
}

func addComp(t *testing.T, db *sqlx.DB, staffID int, base, otRate, holidayRate, allowance float64, eligible bool) {
	t.Helper()
	_, err := database.AddCompensation(db, model.Compensation{
		StaffID:               staffID,
		EffectiveFrom:         "2025-01-01",
		BaseSalary:            base,
		OTRatePerHour:         otRate,
		HolidayRatePerHour:    holidayRate,
		DailyAllowance:        allowance,
		ServiceChargeEligible: eligible,
	})
	require.NoError(t, err)
}

func punch(t *testing.T, db *sqlx.DB, staffID int, action, at string) {
	t.Helper()
	_, err := database.InsertTimeEntry(db, model.TimeEntry{StaffID: staffID, Action: action, EntryTime: at})
	require.NoError(t, err)
}

// workDay records a clean shift starting 10:00 venue time on date.
func workDay(t *testing.T, db *sqlx.DB, staffID int, date string, hours int) {
	t.Helper()
	punch(t, db, staffID, model.ActionClockIn, date+"T03:00:00Z")
	punch(t, db, staffID, model.ActionClockOut, fmt.Sprintf("%sT%02d:00:00Z", date, 3+hours))
}

func newTestCalculator(db *sqlx.DB) *Calculator {
	return NewCalculator(db, bangkok, DefaultParams())
}

func lineFor(t *testing.T, lines []model.PayrollLine, staffID int) model.PayrollLine {
	t.Helper()
	for _, l := range lines {
		if l.StaffID == staffID {
			return l
		}
	}
	t.Fatalf("no line for staff %d in %+v", staffID, lines)
	return model.PayrollLine{}
}

func TestCalculate_FullMonth(t *testing.T) {
	db := testDB(t)
	calc := newTestCalculator(db)

	// A works a 54-hour week including a public holiday, B a single day,
	// C has no pay package, D is salaried but never shows up.
	staffA := addStaff(t, db, "Anong", true)
	staffB := addStaff(t, db, "Boon", true)
	staffC := addStaff(t, db, "Chai", true)
	staffD := addStaff(t, db, "Dao", true)

	addComp(t, db, staffA, 15000, 100, 150, 100, true)
	addComp(t, db, staffB, 12000, 80, 120, 50, true)
	addComp(t, db, staffD, 10000, 90, 130, 60, true)

	// Monday July 7 through Saturday July 12, 9 hours each.
	for _, date := range []string{"2025-07-07", "2025-07-08", "2025-07-09", "2025-07-10", "2025-07-11", "2025-07-12"} {
		workDay(t, db, staffA, date, 9)
	}
	workDay(t, db, staffB, "2025-07-15", 8)
	workDay(t, db, staffC, "2025-07-16", 7)

	require.NoError(t, database.UpsertHoliday(db, model.PublicHoliday{HolidayDate: "2025-07-10", HolidayName: "Asarnha Bucha"}))
	require.NoError(t, database.UpsertServiceChargePot(db, model.ServiceChargePot{Month: "2025-07", TotalAmount: 1000.33}))

	run, err := calc.CreateRun("2025-07", "first cut")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusDraft, run.Status)

	run, err = calc.Calculate(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCalculated, run.Status)

	lines, err := database.GetPayrollLines(db, run.ID)
	require.NoError(t, err)
	require.Len(t, lines, 4)

	a := lineFor(t, lines, staffA)
	assert.Equal(t, 48.0, a.RegularHours)
	assert.Equal(t, 6.0, a.OTHours)
	assert.Equal(t, 9.0, a.HolidayHours)
	assert.Equal(t, 6, a.WorkingDays)
	assert.Equal(t, 15000.0, a.BasePay)
	assert.Equal(t, 600.0, a.OTPay)
	assert.Equal(t, 1350.0, a.HolidayPay)
	assert.Equal(t, 600.0, a.AllowancePay)
	assert.Equal(t, 500.17, a.ServiceChargePay)
	assert.Equal(t, 18050.17, a.GrossPay)

	b := lineFor(t, lines, staffB)
	assert.Equal(t, 8.0, b.RegularHours)
	assert.Equal(t, 0.0, b.OTHours)
	assert.Equal(t, 1, b.WorkingDays)
	assert.Equal(t, 500.16, b.ServiceChargePay)
	assert.Equal(t, 12550.16, b.GrossPay)

	// No pay package: hours recorded, money zero, flagged for review.
	c := lineFor(t, lines, staffC)
	assert.Equal(t, 7.0, c.RegularHours)
	assert.Equal(t, 0.0, c.BasePay)
	assert.Equal(t, 0.0, c.GrossPay)

	// Salaried with zero working days: base pay, no allowance, no share
	// of the pot.
	d := lineFor(t, lines, staffD)
	assert.Equal(t, 0, d.WorkingDays)
	assert.Equal(t, 10000.0, d.BasePay)
	assert.Equal(t, 0.0, d.AllowancePay)
	assert.Equal(t, 0.0, d.ServiceChargePay)

	assert.Equal(t, 40600.33, run.TotalGross)

	flags, err := database.GetPayrollFlags(db, run.ID)
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, staffC, flags[0].StaffID)
	assert.Equal(t, model.FlagMissingCompensation, flags[0].Kind)
}

func TestCalculate_CrossMonthWeekHasNoOvertime(t *testing.T) {
	db := testDB(t)
	calc := newTestCalculator(db)

	staffID := addStaff(t, db, "Anong", true)
	addComp(t, db, staffID, 15000, 100, 150, 100, true)

	// July 1-6 2025 sit in the week of Monday June 30, which June owns.
	// 60 hours in that week earn no July overtime.
	for _, date := range []string{"2025-07-01", "2025-07-02", "2025-07-03", "2025-07-04", "2025-07-05", "2025-07-06"} {
		workDay(t, db, staffID, date, 10)
	}

	run, err := calc.CreateRun("2025-07", "")
	require.NoError(t, err)
	_, err = calc.Calculate(context.Background(), run.ID)
	require.NoError(t, err)

	lines, err := database.GetPayrollLines(db, run.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 60.0, lines[0].RegularHours)
	assert.Equal(t, 0.0, lines[0].OTHours)
	assert.Equal(t, 0.0, lines[0].OTPay)
}

func TestCalculate_MidnightShiftCountsInStartMonth(t *testing.T) {
	db := testDB(t)
	calc := newTestCalculator(db)

	staffID := addStaff(t, db, "Anong", true)
	addComp(t, db, staffID, 15000, 100, 150, 100, true)

	// Clock in 23:00 July 31, out 04:00 August 1 venue time. All five
	// hours belong to July 31.
	punch(t, db, staffID, model.ActionClockIn, "2025-07-31T16:00:00Z")
	punch(t, db, staffID, model.ActionClockOut, "2025-07-31T21:00:00Z")

	run, err := calc.CreateRun("2025-07", "")
	require.NoError(t, err)
	_, err = calc.Calculate(context.Background(), run.ID)
	require.NoError(t, err)

	lines, err := database.GetPayrollLines(db, run.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5.0, lines[0].RegularHours)
}

func TestCalculate_FinalizedRunIsImmutable(t *testing.T) {
	db := testDB(t)
	calc := newTestCalculator(db)

	staffID := addStaff(t, db, "Anong", true)
	addComp(t, db, staffID, 15000, 100, 150, 100, true)
	workDay(t, db, staffID, "2025-07-08", 8)

	run, err := calc.CreateRun("2025-07", "")
	require.NoError(t, err)
	_, err = calc.Calculate(context.Background(), run.ID)
	require.NoError(t, err)

	run, err = calc.Finalize(run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFinalized, run.Status)
	assert.True(t, run.FinalizedAt.Valid)

	_, err = calc.Calculate(context.Background(), run.ID)
	assert.ErrorIs(t, err, ErrRunFinalized)

	_, err = calc.Finalize(run.ID)
	assert.ErrorIs(t, err, ErrRunFinalized)

	_, err = calc.CreateRun("2025-07", "second try")
	assert.ErrorIs(t, err, ErrRunFinalized)
}

func TestFinalize_RequiresCalculatedRun(t *testing.T) {
	db := testDB(t)
	calc := newTestCalculator(db)

	run, err := calc.CreateRun("2025-07", "")
	require.NoError(t, err)

	_, err = calc.Finalize(run.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not been calculated")
}

func TestCalculate_RerunReplacesResults(t *testing.T) {
	db := testDB(t)
	calc := newTestCalculator(db)

	staffID := addStaff(t, db, "Anong", true)
	addComp(t, db, staffID, 15000, 100, 150, 100, true)
	workDay(t, db, staffID, "2025-07-08", 8)

	run, err := calc.CreateRun("2025-07", "")
	require.NoError(t, err)
	_, err = calc.Calculate(context.Background(), run.ID)
	require.NoError(t, err)

	workDay(t, db, staffID, "2025-07-09", 8)
	_, err = calc.Calculate(context.Background(), run.ID)
	require.NoError(t, err)

	lines, err := database.GetPayrollLines(db, run.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 16.0, lines[0].RegularHours)
	assert.Equal(t, 2, lines[0].WorkingDays)
}

func TestCalculate_InactiveStaffWithoutHoursDropped(t *testing.T) {
	db := testDB(t)
	calc := newTestCalculator(db)

	former := addStaff(t, db, "Former", false)
	addComp(t, db, former, 9000, 80, 120, 50, true)

	current := addStaff(t, db, "Current", true)
	addComp(t, db, current, 15000, 100, 150, 100, true)
	workDay(t, db, current, "2025-07-08", 8)

	run, err := calc.CreateRun("2025-07", "")
	require.NoError(t, err)
	_, err = calc.Calculate(context.Background(), run.ID)
	require.NoError(t, err)

	lines, err := database.GetPayrollLines(db, run.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, current, lines[0].StaffID)
}

func TestCalculate_ServiceChargeNeedsAWorkingDay(t *testing.T) {
	db := testDB(t)
	calc := newTestCalculator(db)

	// Both are eligible on paper; only the one with a real working day
	// shares the pot. Four hours is under the six-hour threshold.
	worker := addStaff(t, db, "Worker", true)
	addComp(t, db, worker, 15000, 100, 150, 100, true)
	workDay(t, db, worker, "2025-07-08", 9)

	shortDay := addStaff(t, db, "Short", true)
	addComp(t, db, shortDay, 15000, 100, 150, 100, true)
	workDay(t, db, shortDay, "2025-07-08", 4)

	require.NoError(t, database.UpsertServiceChargePot(db, model.ServiceChargePot{Month: "2025-07", TotalAmount: 300}))

	run, err := calc.CreateRun("2025-07", "")
	require.NoError(t, err)
	_, err = calc.Calculate(context.Background(), run.ID)
	require.NoError(t, err)

	lines, err := database.GetPayrollLines(db, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, lineFor(t, lines, worker).ServiceChargePay)
	assert.Equal(t, 0.0, lineFor(t, lines, shortDay).ServiceChargePay)
}

func TestCreateRun_BadMonth(t *testing.T) {
	db := testDB(t)
	calc := newTestCalculator(db)

	_, err := calc.CreateRun("July 2025", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM")
}

func TestDistributeServiceCharge(t *testing.T) {
	shares := DistributeServiceCharge(1000.33, []int{2, 1})
	assert.Equal(t, 500.17, shares[1])
	assert.Equal(t, 500.16, shares[2])

	total := 0
	for _, v := range shares {
		total += int(math.Round(v * 100))
	}
	assert.Equal(t, 100033, total)
}

func TestDistributeServiceCharge_EvenSplit(t *testing.T) {
	shares := DistributeServiceCharge(900, []int{1, 2, 3})
	for id := 1; id <= 3; id++ {
		assert.Equal(t, 300.0, shares[id])
	}
}

func TestDistributeServiceCharge_Empty(t *testing.T) {
	assert.Empty(t, DistributeServiceCharge(1000, nil))
	assert.Empty(t, DistributeServiceCharge(0, []int{1, 2}))
	assert.Empty(t, DistributeServiceCharge(-50, []int{1, 2}))
}
