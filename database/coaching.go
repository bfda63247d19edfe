package database

import (
	"database/sql"
	"fmt"
	"lengolf/model"
)

func GetAllCoaches(db DBTX, activeOnly bool) ([]model.Coach, error) {
	q := `SELECT id, coach_name, display_name, is_active FROM coaches`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY id`

	var coaches []model.Coach
	if err := db.Select(&coaches, q); err != nil {
		return nil, fmt.Errorf("failed to get coaches: %w", err)
	}
	return coaches, nil
}

func GetCoachByID(db DBTX, id int) (model.Coach, error) {
	var c model.Coach
	err := db.Get(&c, `SELECT id, coach_name, display_name, is_active FROM coaches WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Coach{}, err
		}
		return model.Coach{}, fmt.Errorf("failed to get coach %d: %w", id, err)
	}
	return c, nil
}

func CreateCoach(db DBTX, c model.Coach) (int, error) {
	const q = `
		INSERT INTO coaches (coach_name, display_name, is_active)
		VALUES (:coach_name, :display_name, :is_active)`
	res, err := db.NamedExec(q, c)
	if err != nil {
		return 0, fmt.Errorf("failed to create coach %s: %w", c.CoachName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new coach id: %w", err)
	}
	return int(id), nil
}

func AddAvailabilityRule(db DBTX, r model.AvailabilityRule) (int, error) {
	const q = `
		INSERT INTO coach_availability (coach_id, weekday, start_time, end_time)
		VALUES (:coach_id, :weekday, :start_time, :end_time)`
	res, err := db.NamedExec(q, r)
	if err != nil {
		return 0, fmt.Errorf("failed to add availability rule for coach %d: %w", r.CoachID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new availability rule id: %w", err)
	}
	return int(id), nil
}

func GetAvailabilityRules(db DBTX, coachID, weekday int) ([]model.AvailabilityRule, error) {
	var rules []model.AvailabilityRule
	err := db.Select(&rules, `
		SELECT id, coach_id, weekday, start_time, end_time
		FROM coach_availability
		WHERE coach_id = ? AND weekday = ?
		ORDER BY start_time, id`, coachID, weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to get availability rules for coach %d: %w", coachID, err)
	}
	return rules, nil
}

func AddDateOverride(db DBTX, o model.DateOverride) (int, error) {
	const q = `
		INSERT INTO coach_date_overrides (coach_id, override_date, start_time, end_time, is_unavailable)
		VALUES (:coach_id, :override_date, :start_time, :end_time, :is_unavailable)`
	res, err := db.NamedExec(q, o)
	if err != nil {
		return 0, fmt.Errorf("failed to add date override for coach %d on %s: %w", o.CoachID, o.OverrideDate, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new date override id: %w", err)
	}
	return int(id), nil
}

func GetDateOverrides(db DBTX, coachID int, date string) ([]model.DateOverride, error) {
	var overrides []model.DateOverride
	err := db.Select(&overrides, `
		SELECT id, coach_id, override_date, start_time, end_time, is_unavailable
		FROM coach_date_overrides
		WHERE coach_id = ? AND override_date = ?
		ORDER BY start_time, id`, coachID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get date overrides for coach %d on %s: %w", coachID, date, err)
	}
	return overrides, nil
}

const bookingColumns = `id, coach_id, booking_date, start_time, duration_min,
	customer_name, customer_phone, status, created_at`

func InsertBookingInTx(db DBTX, b model.Booking) error {
	const q = `
		INSERT INTO coach_bookings
			(id, coach_id, booking_date, start_time, duration_min,
			 customer_name, customer_phone, status, created_at)
		VALUES
			(:id, :coach_id, :booking_date, :start_time, :duration_min,
			 :customer_name, :customer_phone, :status, :created_at)`
	if _, err := db.NamedExec(q, b); err != nil {
		return fmt.Errorf("failed to insert booking %s: %w", b.ID, err)
	}
	return nil
}

// GetActiveBookings returns the booked (not cancelled) slots for one coach
// and date.
func GetActiveBookings(db DBTX, coachID int, date string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := db.Select(&bookings, `
		SELECT `+bookingColumns+`
		FROM coach_bookings
		WHERE coach_id = ? AND booking_date = ? AND status = ?
		ORDER BY start_time, id`, coachID, date, model.BookingStatusBooked)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings for coach %d on %s: %w", coachID, date, err)
	}
	return bookings, nil
}

func GetBookingByID(db DBTX, id string) (model.Booking, error) {
	var b model.Booking
	err := db.Get(&b, `SELECT `+bookingColumns+` FROM coach_bookings WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Booking{}, err
		}
		return model.Booking{}, fmt.Errorf("failed to get booking %s: %w", id, err)
	}
	return b, nil
}

func CancelBooking(db DBTX, id string) error {
	res, err := db.Exec(`UPDATE coach_bookings SET status = ? WHERE id = ? AND status = ?`,
		model.BookingStatusCancelled, id, model.BookingStatusBooked)
	if err != nil {
		return fmt.Errorf("failed to cancel booking %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetActiveBookingsBetween returns booked slots for all coaches in a date
// range, for the double-booking scan.
func GetActiveBookingsBetween(db DBTX, from, to string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := db.Select(&bookings, `
		SELECT `+bookingColumns+`
		FROM coach_bookings
		WHERE booking_date >= ? AND booking_date <= ? AND status = ?
		ORDER BY coach_id, booking_date, start_time, id`, from, to, model.BookingStatusBooked)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings between %s and %s: %w", from, to, err)
	}
	return bookings, nil
}
