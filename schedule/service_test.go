package schedule

import (
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

func addStaff(t *testing.T, db *sqlx.DB, name string) int {
	t.Helper()
	id, err := database.CreateStaff(db, model.Staff{StaffName: name, IsActive: true})
	require.NoError(t, err)
	return id
}

func shiftOn(staffID int, date, start, end string) model.Schedule {
	return model.Schedule{StaffID: staffID, ScheduleDate: date, StartTime: start, EndTime: end, Location: "bay"}
}

func TestCreate_RejectsOverlap(t *testing.T) {
	db := testDB(t)
	staffID := addStaff(t, db, "Anong")

	_, err := Create(db, shiftOn(staffID, "2025-07-08", "10:00", "18:00"))
	require.NoError(t, err)

	_, err = Create(db, shiftOn(staffID, "2025-07-08", "17:00", "22:00"))
	assert.ErrorIs(t, err, ErrOverlap)
}

func TestCreate_BackToBackShiftsAllowed(t *testing.T) {
	db := testDB(t)
	staffID := addStaff(t, db, "Anong")

	_, err := Create(db, shiftOn(staffID, "2025-07-08", "10:00", "18:00"))
	require.NoError(t, err)

	// Ends exactly when the next begins: not an overlap.
	_, err = Create(db, shiftOn(staffID, "2025-07-08", "18:00", "22:00"))
	assert.NoError(t, err)
}

func TestCreate_OtherStaffUnaffected(t *testing.T) {
	db := testDB(t)
	a := addStaff(t, db, "Anong")
	b := addStaff(t, db, "Boon")

	_, err := Create(db, shiftOn(a, "2025-07-08", "10:00", "18:00"))
	require.NoError(t, err)

	_, err = Create(db, shiftOn(b, "2025-07-08", "10:00", "18:00"))
	assert.NoError(t, err)
}

func TestCreate_Validation(t *testing.T) {
	db := testDB(t)
	staffID := addStaff(t, db, "Anong")

	_, err := Create(db, shiftOn(staffID, "08/07/2025", "10:00", "18:00"))
	assert.Error(t, err)

	_, err = Create(db, shiftOn(staffID, "2025-07-08", "18:00", "10:00"))
	assert.Error(t, err)

	_, err = Create(db, shiftOn(staffID, "2025-07-08", "10:00", "10:00"))
	assert.Error(t, err)
}

func TestUpdate_IgnoresItself(t *testing.T) {
	db := testDB(t)
	staffID := addStaff(t, db, "Anong")

	created, err := Create(db, shiftOn(staffID, "2025-07-08", "10:00", "18:00"))
	require.NoError(t, err)

	// Extending the same row must not collide with itself.
	created.EndTime = "19:00"
	assert.NoError(t, Update(db, created))
}

func TestConflicts_FindsImportedOverlap(t *testing.T) {
	db := testDB(t)
	staffID := addStaff(t, db, "Anong")

	// Insert directly, the way an import would, bypassing the guard.
	_, err := database.CreateSchedule(db, shiftOn(staffID, "2025-07-08", "10:00", "18:00"))
	require.NoError(t, err)
	_, err = database.CreateSchedule(db, shiftOn(staffID, "2025-07-08", "16:00", "22:00"))
	require.NoError(t, err)
	_, err = database.CreateSchedule(db, shiftOn(staffID, "2025-07-09", "10:00", "18:00"))
	require.NoError(t, err)

	conflicts, err := Conflicts(db, "2025-07-01", "2025-07-31")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, staffID, conflicts[0].StaffID)
	assert.Equal(t, "2025-07-08", conflicts[0].Date)
}

func TestWeekGrid(t *testing.T) {
	db := testDB(t)
	staffID := addStaff(t, db, "Anong")

	_, err := Create(db, shiftOn(staffID, "2025-07-08", "10:00", "18:00"))
	require.NoError(t, err)
	_, err = Create(db, shiftOn(staffID, "2025-07-13", "12:00", "20:00"))
	require.NoError(t, err)

	grid, err := WeekGrid(db, "2025-07-07", bangkok)
	require.NoError(t, err)
	require.Len(t, grid, 7)

	assert.Equal(t, "2025-07-07", grid[0].Date)
	assert.Equal(t, "Monday", grid[0].Weekday)
	assert.NotNil(t, grid[0].Schedules)
	assert.Empty(t, grid[0].Schedules)

	require.Len(t, grid[1].Schedules, 1)
	assert.Equal(t, "10:00", grid[1].Schedules[0].StartTime)

	assert.Equal(t, "Sunday", grid[6].Weekday)
	require.Len(t, grid[6].Schedules, 1)
}

func TestWeekGrid_BadStart(t *testing.T) {
	db := testDB(t)
	_, err := WeekGrid(db, "next monday", bangkok)
	assert.Error(t, err)
}
