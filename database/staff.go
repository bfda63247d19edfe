package database

import (
	"database/sql"
	"fmt"
	"lengolf/model"
)

const staffColumns = `id, staff_name, nickname, position, is_active, line_user_id`

func GetAllStaff(db DBTX, activeOnly bool) ([]model.Staff, error) {
	q := `SELECT ` + staffColumns + ` FROM staff`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY id`

	var staff []model.Staff
	if err := db.Select(&staff, q); err != nil {
		return nil, fmt.Errorf("failed to get staff list: %w", err)
	}
	return staff, nil
}

func GetStaffByID(db DBTX, id int) (model.Staff, error) {
	var s model.Staff
	err := db.Get(&s, `SELECT `+staffColumns+` FROM staff WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Staff{}, err
		}
		return model.Staff{}, fmt.Errorf("failed to get staff %d: %w", id, err)
	}
	return s, nil
}

func CreateStaff(db DBTX, s model.Staff) (int, error) {
	const q = `
		INSERT INTO staff (staff_name, nickname, position, is_active, line_user_id)
		VALUES (:staff_name, :nickname, :position, :is_active, :line_user_id)`
	res, err := db.NamedExec(q, s)
	if err != nil {
		return 0, fmt.Errorf("failed to create staff %s: %w", s.StaffName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new staff id: %w", err)
	}
	return int(id), nil
}

func UpdateStaff(db DBTX, s model.Staff) error {
	const q = `
		UPDATE staff SET
			staff_name = :staff_name,
			nickname = :nickname,
			position = :position,
			is_active = :is_active,
			line_user_id = :line_user_id
		WHERE id = :id`
	res, err := db.NamedExec(q, s)
	if err != nil {
		return fmt.Errorf("failed to update staff %d: %w", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const compensationColumns = `id, staff_id, effective_from, base_salary, ot_rate_per_hour,
	holiday_rate_per_hour, daily_allowance, service_charge_eligible`

func AddCompensation(db DBTX, c model.Compensation) (int, error) {
	const q = `
		INSERT INTO staff_compensation
			(staff_id, effective_from, base_salary, ot_rate_per_hour,
			 holiday_rate_per_hour, daily_allowance, service_charge_eligible)
		VALUES
			(:staff_id, :effective_from, :base_salary, :ot_rate_per_hour,
			 :holiday_rate_per_hour, :daily_allowance, :service_charge_eligible)`
	res, err := db.NamedExec(q, c)
	if err != nil {
		return 0, fmt.Errorf("failed to add compensation for staff %d: %w", c.StaffID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new compensation id: %w", err)
	}
	return int(id), nil
}

// GetCompensationAsOf returns the latest compensation row effective on or
// before asOf ("2006-01-02"). sql.ErrNoRows means the staff member has no
// package covering that date; payroll flags it instead of guessing.
func GetCompensationAsOf(db DBTX, staffID int, asOf string) (model.Compensation, error) {
	var c model.Compensation
	err := db.Get(&c, `
		SELECT `+compensationColumns+`
		FROM staff_compensation
		WHERE staff_id = ? AND effective_from <= ?
		ORDER BY effective_from DESC, id DESC
		LIMIT 1`, staffID, asOf)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Compensation{}, err
		}
		return model.Compensation{}, fmt.Errorf("failed to get compensation for staff %d as of %s: %w", staffID, asOf, err)
	}
	return c, nil
}

func GetCompensationsForStaff(db DBTX, staffID int) ([]model.Compensation, error) {
	var comps []model.Compensation
	err := db.Select(&comps, `
		SELECT `+compensationColumns+`
		FROM staff_compensation
		WHERE staff_id = ?
		ORDER BY effective_from DESC`, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to get compensation history for staff %d: %w", staffID, err)
	}
	return comps, nil
}

func UpsertHoliday(db DBTX, h model.PublicHoliday) error {
	const q = `
		INSERT INTO public_holidays (holiday_date, holiday_name)
		VALUES (:holiday_date, :holiday_name)
		ON CONFLICT(holiday_date) DO UPDATE SET holiday_name = excluded.holiday_name`
	if _, err := db.NamedExec(q, h); err != nil {
		return fmt.Errorf("failed to upsert holiday %s: %w", h.HolidayDate, err)
	}
	return nil
}

func DeleteHoliday(db DBTX, date string) error {
	if _, err := db.Exec(`DELETE FROM public_holidays WHERE holiday_date = ?`, date); err != nil {
		return fmt.Errorf("failed to delete holiday %s: %w", date, err)
	}
	return nil
}

func GetHolidaysBetween(db DBTX, from, to string) ([]model.PublicHoliday, error) {
	var holidays []model.PublicHoliday
	err := db.Select(&holidays, `
		SELECT holiday_date, holiday_name
		FROM public_holidays
		WHERE holiday_date >= ? AND holiday_date <= ?
		ORDER BY holiday_date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays between %s and %s: %w", from, to, err)
	}
	return holidays, nil
}
