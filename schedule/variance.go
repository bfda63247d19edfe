package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"lengolf/database"
	"lengolf/model"
	"lengolf/timeclock"
)

type VarianceOptions struct {
	// Grace is how far a punch may drift from plan before it counts as
	// late or an early leave.
	Grace   time.Duration
	Pairing timeclock.Options
}

func DefaultVarianceOptions() VarianceOptions {
	return VarianceOptions{
		Grace:   15 * time.Minute,
		Pairing: timeclock.DefaultOptions(),
	}
}

// Variance compares one month of planned shifts against paired punches.
// Every scheduled row gets exactly one status; days worked with no plan at
// all are reported as unscheduled.
func Variance(db *sqlx.DB, month string, loc *time.Location, opts VarianceOptions) ([]model.VarianceRow, error) {
	monthStart, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return nil, fmt.Errorf("month must be YYYY-MM, got %q", month)
	}
	firstDate := monthStart.Format("2006-01-02")
	lastDate := monthStart.AddDate(0, 1, -1).Format("2006-01-02")

	schedules, err := database.GetSchedulesBetween(db, firstDate, lastDate, 0)
	if err != nil {
		return nil, err
	}

	// Fetch one extra day so a shift crossing out of the month still finds
	// its clock-out.
	fromUTC, toUTC, err := timeclock.WindowUTC(firstDate, monthStart.AddDate(0, 1, 0).Format("2006-01-02"), loc)
	if err != nil {
		return nil, err
	}
	entries, err := database.GetTimeEntriesBetween(db, fromUTC, toUTC, 0)
	if err != nil {
		return nil, err
	}
	shifts, _, err := timeclock.Pair(entries, loc, opts.Pairing)
	if err != nil {
		return nil, err
	}

	staff, err := database.GetAllStaff(db, false)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(staff))
	for _, s := range staff {
		names[s.ID] = s.StaffName
	}

	type key struct {
		staffID int
		date    string
	}
	worked := make(map[key][]timeclock.Shift)
	for _, s := range shifts {
		if !inMonth(s.Date, month) {
			continue
		}
		k := key{s.StaffID, s.Date}
		worked[k] = append(worked[k], s)
	}

	scheduled := make(map[key]bool)
	var rows []model.VarianceRow
	for _, sched := range schedules {
		k := key{sched.StaffID, sched.ScheduleDate}
		scheduled[k] = true

		startMin, _ := parseClock(sched.StartTime)
		endMin, _ := parseClock(sched.EndTime)
		scheduledHours := float64(endMin-startMin) / 60

		row := model.VarianceRow{
			StaffID:        sched.StaffID,
			StaffName:      names[sched.StaffID],
			Date:           sched.ScheduleDate,
			ScheduledHours: scheduledHours,
		}

		dayShifts := worked[k]
		if len(dayShifts) == 0 {
			row.Status = model.VarianceAbsent
			row.HoursDelta = -scheduledHours
			rows = append(rows, row)
			continue
		}

		var actual float64
		firstIn := dayShifts[0].ClockIn
		lastOut := dayShifts[0].ClockOut
		for _, s := range dayShifts {
			actual += s.Hours
			if s.ClockIn.Before(firstIn) {
				firstIn = s.ClockIn
			}
			if s.ClockOut.After(lastOut) {
				lastOut = s.ClockOut
			}
		}
		row.ActualHours = actual
		row.HoursDelta = actual - scheduledHours

		day, err := time.ParseInLocation("2006-01-02", sched.ScheduleDate, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule date %q: %w", sched.ScheduleDate, err)
		}
		plannedStart := day.Add(time.Duration(startMin) * time.Minute)
		plannedEnd := day.Add(time.Duration(endMin) * time.Minute)

		switch {
		case firstIn.After(plannedStart.Add(opts.Grace)):
			row.Status = model.VarianceLate
		case lastOut.Before(plannedEnd.Add(-opts.Grace)):
			row.Status = model.VarianceLeftEarly
		default:
			row.Status = model.VarianceWorked
		}
		rows = append(rows, row)
	}

	// Worked days nobody planned.
	for k, dayShifts := range worked {
		if scheduled[k] {
			continue
		}
		var actual float64
		for _, s := range dayShifts {
			actual += s.Hours
		}
		rows = append(rows, model.VarianceRow{
			StaffID:     k.staffID,
			StaffName:   names[k.staffID],
			Date:        k.date,
			ActualHours: actual,
			HoursDelta:  actual,
			Status:      model.VarianceUnscheduled,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		if rows[i].StaffID != rows[j].StaffID {
			return rows[i].StaffID < rows[j].StaffID
		}
		return rows[i].Status < rows[j].Status
	})
	return rows, nil
}

func inMonth(date, month string) bool {
	return len(date) >= 7 && date[:7] == month
}
