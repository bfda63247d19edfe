// Package schedule manages planned staff shifts and compares them against
// the punches that actually happened.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"lengolf/database"
	"lengolf/model"
)

// ErrOverlap is returned when a shift would overlap an existing one for the
// same staff member and date.
var ErrOverlap = errors.New("schedule overlaps an existing shift")

// Create inserts a shift after checking it against the staff member's other
// shifts that date, inside one transaction.
func Create(db *sqlx.DB, s model.Schedule) (model.Schedule, error) {
	if err := validate(s); err != nil {
		return model.Schedule{}, err
	}

	tx, err := db.Beginx()
	if err != nil {
		return model.Schedule{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkOverlap(tx, s); err != nil {
		return model.Schedule{}, err
	}
	id, err := database.CreateSchedule(tx, s)
	if err != nil {
		return model.Schedule{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Schedule{}, fmt.Errorf("failed to commit schedule: %w", err)
	}
	s.ID = id
	return s, nil
}

// Update rewrites a shift with the same overlap rule, ignoring the row
// being replaced.
func Update(db *sqlx.DB, s model.Schedule) error {
	if err := validate(s); err != nil {
		return err
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkOverlap(tx, s); err != nil {
		return err
	}
	if err := database.UpdateSchedule(tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

func validate(s model.Schedule) error {
	if _, err := time.Parse("2006-01-02", s.ScheduleDate); err != nil {
		return fmt.Errorf("schedule date must be YYYY-MM-DD, got %q", s.ScheduleDate)
	}
	start, err := parseClock(s.StartTime)
	if err != nil {
		return err
	}
	end, err := parseClock(s.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("end time %s must be after start time %s", s.EndTime, s.StartTime)
	}
	return nil
}

func checkOverlap(tx database.DBTX, s model.Schedule) error {
	existing, err := database.GetSchedulesForStaffDate(tx, s.StaffID, s.ScheduleDate)
	if err != nil {
		return err
	}
	start, _ := parseClock(s.StartTime)
	end, _ := parseClock(s.EndTime)
	for _, other := range existing {
		if other.ID == s.ID {
			continue
		}
		oStart, _ := parseClock(other.StartTime)
		oEnd, _ := parseClock(other.EndTime)
		if start < oEnd && oStart < end {
			return fmt.Errorf("%w: %s-%s conflicts with shift %d (%s-%s)",
				ErrOverlap, s.StartTime, s.EndTime, other.ID, other.StartTime, other.EndTime)
		}
	}
	return nil
}

// Conflicts scans a date range for staff double-booked by data imported
// around the overlap guard (or created before it existed).
func Conflicts(db database.DBTX, from, to string) ([]model.ScheduleConflict, error) {
	schedules, err := database.GetSchedulesBetween(db, from, to, 0)
	if err != nil {
		return nil, err
	}

	type key struct {
		staffID int
		date    string
	}
	grouped := make(map[key][]model.Schedule)
	var order []key
	for _, s := range schedules {
		k := key{s.StaffID, s.ScheduleDate}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], s)
	}

	var conflicts []model.ScheduleConflict
	for _, k := range order {
		group := grouped[k]
		for i := 0; i < len(group); i++ {
			aStart, _ := parseClock(group[i].StartTime)
			aEnd, _ := parseClock(group[i].EndTime)
			for j := i + 1; j < len(group); j++ {
				bStart, _ := parseClock(group[j].StartTime)
				bEnd, _ := parseClock(group[j].EndTime)
				if aStart < bEnd && bStart < aEnd {
					conflicts = append(conflicts, model.ScheduleConflict{
						StaffID: k.staffID,
						Date:    k.date,
						A:       group[i],
						B:       group[j],
					})
				}
			}
		}
	}
	return conflicts, nil
}

// WeekDay is one column of the weekly grid.
type WeekDay struct {
	Date      string           `json:"date"`
	Weekday   string           `json:"weekday"`
	Schedules []model.Schedule `json:"schedules"`
}

// WeekGrid returns seven days of shifts starting at start (any date; the
// front desk usually passes a Monday). Days without shifts still appear.
func WeekGrid(db database.DBTX, start string, loc *time.Location) ([]WeekDay, error) {
	first, err := time.ParseInLocation("2006-01-02", start, loc)
	if err != nil {
		return nil, fmt.Errorf("start date must be YYYY-MM-DD, got %q", start)
	}
	last := first.AddDate(0, 0, 6)

	schedules, err := database.GetSchedulesBetween(db, first.Format("2006-01-02"), last.Format("2006-01-02"), 0)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string][]model.Schedule)
	for _, s := range schedules {
		byDate[s.ScheduleDate] = append(byDate[s.ScheduleDate], s)
	}

	grid := make([]WeekDay, 0, 7)
	for i := 0; i < 7; i++ {
		day := first.AddDate(0, 0, i)
		date := day.Format("2006-01-02")
		schedules := byDate[date]
		if schedules == nil {
			schedules = []model.Schedule{}
		}
		grid = append(grid, WeekDay{
			Date:      date,
			Weekday:   day.Weekday().String(),
			Schedules: schedules,
		})
	}
	return grid, nil
}

// parseClock converts a venue-local "15:04" string to minutes past midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("time must be HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
