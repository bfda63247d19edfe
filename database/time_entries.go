package database

import (
	"database/sql"
	"fmt"
	"lengolf/model"
)

const timeEntryColumns = `id, staff_id, action, entry_time, note, created_at`

func InsertTimeEntry(db DBTX, e model.TimeEntry) (model.TimeEntry, error) {
	if e.CreatedAt == "" {
		e.CreatedAt = UTCNow()
	}
	const q = `
		INSERT INTO time_entries (staff_id, action, entry_time, note, created_at)
		VALUES (:staff_id, :action, :entry_time, :note, :created_at)`
	res, err := db.NamedExec(q, e)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("failed to insert time entry for staff %d: %w", e.StaffID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("failed to get new time entry id: %w", err)
	}
	e.ID = int(id)
	return e, nil
}

// GetTimeEntriesBetween returns entries with fromUTC <= entry_time < toUTC
// ordered by time then id, so pairing is deterministic for simultaneous
// punches. staffID 0 means all staff.
func GetTimeEntriesBetween(db DBTX, fromUTC, toUTC string, staffID int) ([]model.TimeEntry, error) {
	q := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE entry_time >= ? AND entry_time < ?`
	args := []interface{}{fromUTC, toUTC}
	if staffID != 0 {
		q += ` AND staff_id = ?`
		args = append(args, staffID)
	}
	q += ` ORDER BY entry_time, id`

	var entries []model.TimeEntry
	if err := db.Select(&entries, q, args...); err != nil {
		return nil, fmt.Errorf("failed to get time entries between %s and %s: %w", fromUTC, toUTC, err)
	}
	return entries, nil
}

// GetLastTimeEntry returns the most recent punch for one staff member, or
// sql.ErrNoRows when they have never punched.
func GetLastTimeEntry(db DBTX, staffID int) (model.TimeEntry, error) {
	var e model.TimeEntry
	err := db.Get(&e, `
		SELECT `+timeEntryColumns+`
		FROM time_entries
		WHERE staff_id = ?
		ORDER BY entry_time DESC, id DESC
		LIMIT 1`, staffID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.TimeEntry{}, err
		}
		return model.TimeEntry{}, fmt.Errorf("failed to get last time entry for staff %d: %w", staffID, err)
	}
	return e, nil
}
