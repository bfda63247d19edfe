package database

import (
	"database/sql"
	"fmt"
	"lengolf/model"
)

const scheduleColumns = `id, staff_id, schedule_date, start_time, end_time, location, note`

func CreateSchedule(db DBTX, s model.Schedule) (int, error) {
	const q = `
		INSERT INTO schedules (staff_id, schedule_date, start_time, end_time, location, note)
		VALUES (:staff_id, :schedule_date, :start_time, :end_time, :location, :note)`
	res, err := db.NamedExec(q, s)
	if err != nil {
		return 0, fmt.Errorf("failed to create schedule for staff %d on %s: %w", s.StaffID, s.ScheduleDate, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new schedule id: %w", err)
	}
	return int(id), nil
}

func UpdateSchedule(db DBTX, s model.Schedule) error {
	const q = `
		UPDATE schedules SET
			staff_id = :staff_id,
			schedule_date = :schedule_date,
			start_time = :start_time,
			end_time = :end_time,
			location = :location,
			note = :note
		WHERE id = :id`
	res, err := db.NamedExec(q, s)
	if err != nil {
		return fmt.Errorf("failed to update schedule %d: %w", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func DeleteSchedule(db DBTX, id int) error {
	res, err := db.Exec(`DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func GetScheduleByID(db DBTX, id int) (model.Schedule, error) {
	var s model.Schedule
	err := db.Get(&s, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Schedule{}, err
		}
		return model.Schedule{}, fmt.Errorf("failed to get schedule %d: %w", id, err)
	}
	return s, nil
}

// GetSchedulesBetween returns schedules with from <= schedule_date <= to.
// staffID 0 means all staff.
func GetSchedulesBetween(db DBTX, from, to string, staffID int) ([]model.Schedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM schedules WHERE schedule_date >= ? AND schedule_date <= ?`
	args := []interface{}{from, to}
	if staffID != 0 {
		q += ` AND staff_id = ?`
		args = append(args, staffID)
	}
	q += ` ORDER BY schedule_date, staff_id, start_time, id`

	var schedules []model.Schedule
	if err := db.Select(&schedules, q, args...); err != nil {
		return nil, fmt.Errorf("failed to get schedules between %s and %s: %w", from, to, err)
	}
	return schedules, nil
}

// GetSchedulesForStaffDate returns one staff member's shifts on one date,
// used for overlap checks inside the create/update transaction.
func GetSchedulesForStaffDate(db DBTX, staffID int, date string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := db.Select(&schedules, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE staff_id = ? AND schedule_date = ?
		ORDER BY start_time, id`, staffID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedules for staff %d on %s: %w", staffID, date, err)
	}
	return schedules, nil
}
