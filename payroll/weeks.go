package payroll

import (
	"fmt"
	"time"
)

// Weeks run Monday through Sunday. A week belongs to the month containing
// its Monday, so every week is paid exactly once even when it straddles a
// month boundary.

func monthBounds(month string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("month must be YYYY-MM, got %q", month)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// mondayOf returns the Monday of t's week at venue-local midnight.
func mondayOf(t time.Time) time.Time {
	daysPastMonday := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -daysPastMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
}

// ownedWeeks returns the Monday of every week the month owns.
func ownedWeeks(month string, loc *time.Location) ([]time.Time, error) {
	start, end, err := monthBounds(month, loc)
	if err != nil {
		return nil, err
	}
	monday := mondayOf(start)
	if monday.Before(start) {
		monday = monday.AddDate(0, 0, 7)
	}
	var mondays []time.Time
	for monday.Before(end) {
		mondays = append(mondays, monday)
		monday = monday.AddDate(0, 0, 7)
	}
	return mondays, nil
}

// weekDates lists the seven venue-local dates of the week starting monday.
func weekDates(monday time.Time) []string {
	dates := make([]string, 7)
	for i := 0; i < 7; i++ {
		dates[i] = monday.AddDate(0, 0, i).Format("2006-01-02")
	}
	return dates
}

// entryWindowUTC pads the month by six days before and one day after, in
// RFC3339 UTC, so cross-boundary weeks and the shift crossing into the first
// of the next month can be fully paired.
func entryWindowUTC(month string, loc *time.Location) (string, string, error) {
	start, end, err := monthBounds(month, loc)
	if err != nil {
		return "", "", err
	}
	from := start.AddDate(0, 0, -6)
	to := end.AddDate(0, 0, 1)
	return from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339), nil
}

func inMonth(date, month string) bool {
	return len(date) >= 7 && date[:7] == month
}

// lastDayOf returns the final date of the month, used as the as-of date for
// compensation lookups.
func lastDayOf(month string, loc *time.Location) (string, error) {
	_, end, err := monthBounds(month, loc)
	if err != nil {
		return "", err
	}
	return end.AddDate(0, 0, -1).Format("2006-01-02"), nil
}
