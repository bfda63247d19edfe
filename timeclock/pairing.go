// Package timeclock turns raw staff punches into attributed shifts. Pairing
// never corrects data: anything suspicious becomes a flag for human review
// and is excluded from paid hours.
package timeclock

import (
	"fmt"
	"sort"
	"time"

	"lengolf/model"
)

type Options struct {
	// DedupeWindow drops a same-action punch strictly closer than this to
	// the previous retained punch.
	DedupeWindow time.Duration
	// MaxShift excludes shifts longer than this from paid hours.
	MaxShift time.Duration
}

func DefaultOptions() Options {
	return Options{
		DedupeWindow: 3 * time.Minute,
		MaxShift:     16 * time.Hour,
	}
}

// Shift is one paired clock-in/clock-out. Date is the venue-local date of
// the clock-in: a shift crossing midnight belongs wholly to the day it
// started.
type Shift struct {
	StaffID    int
	ClockInID  int
	ClockOutID int
	ClockIn    time.Time
	ClockOut   time.Time
	Date       string
	Hours      float64
}

// Flag marks one punch or shift that needs review.
type Flag struct {
	StaffID int
	Kind    string
	EntryID int
	Date    string
	Detail  string
}

type punch struct {
	id     int
	action string
	at     time.Time
}

// Pair groups entries per staff member, sorted by time then entry id, and
// walks them into shifts. The returned slices are ordered by staff id then
// time, so identical inputs always produce identical output.
func Pair(entries []model.TimeEntry, loc *time.Location, opts Options) ([]Shift, []Flag, error) {
	if opts.DedupeWindow == 0 && opts.MaxShift == 0 {
		opts = DefaultOptions()
	}

	byStaff := make(map[int][]punch)
	for _, e := range entries {
		at, err := time.Parse(time.RFC3339, e.EntryTime)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse entry %d time %q: %w", e.ID, e.EntryTime, err)
		}
		byStaff[e.StaffID] = append(byStaff[e.StaffID], punch{id: e.ID, action: e.Action, at: at})
	}

	staffIDs := make([]int, 0, len(byStaff))
	for id := range byStaff {
		staffIDs = append(staffIDs, id)
	}
	sort.Ints(staffIDs)

	var shifts []Shift
	var flags []Flag
	for _, staffID := range staffIDs {
		punches := byStaff[staffID]
		sort.Slice(punches, func(i, j int) bool {
			if !punches[i].at.Equal(punches[j].at) {
				return punches[i].at.Before(punches[j].at)
			}
			return punches[i].id < punches[j].id
		})

		staffShifts, staffFlags := pairStaff(staffID, punches, loc, opts)
		shifts = append(shifts, staffShifts...)
		flags = append(flags, staffFlags...)
	}
	return shifts, flags, nil
}

func pairStaff(staffID int, punches []punch, loc *time.Location, opts Options) ([]Shift, []Flag) {
	var shifts []Shift
	var flags []Flag

	var prev *punch
	var open *punch
	for i := range punches {
		p := punches[i]

		// Strictly-less-than: a repeat exactly on the window boundary
		// is a real punch.
		if prev != nil && p.action == prev.action && p.at.Sub(prev.at) < opts.DedupeWindow {
			flags = append(flags, Flag{
				StaffID: staffID,
				Kind:    model.FlagDuplicatePunch,
				EntryID: p.id,
				Date:    localDate(p.at, loc),
				Detail:  fmt.Sprintf("%s repeated %s after entry %d", p.action, p.at.Sub(prev.at), prev.id),
			})
			continue
		}
		prev = &punches[i]

		switch p.action {
		case model.ActionClockIn:
			if open != nil {
				flags = append(flags, Flag{
					StaffID: staffID,
					Kind:    model.FlagMissingClockout,
					EntryID: open.id,
					Date:    localDate(open.at, loc),
					Detail:  fmt.Sprintf("clock_in at %s never closed", open.at.Format(time.RFC3339)),
				})
			}
			open = &punches[i]

		case model.ActionClockOut:
			if open == nil {
				flags = append(flags, Flag{
					StaffID: staffID,
					Kind:    model.FlagOrphanClockout,
					EntryID: p.id,
					Date:    localDate(p.at, loc),
					Detail:  fmt.Sprintf("clock_out at %s without clock_in", p.at.Format(time.RFC3339)),
				})
				continue
			}

			duration := p.at.Sub(open.at)
			if duration > opts.MaxShift {
				flags = append(flags, Flag{
					StaffID: staffID,
					Kind:    model.FlagOverlongShift,
					EntryID: open.id,
					Date:    localDate(open.at, loc),
					Detail:  fmt.Sprintf("shift of %.2f hours exceeds %.0f hour limit", duration.Hours(), opts.MaxShift.Hours()),
				})
				open = nil
				continue
			}

			shifts = append(shifts, Shift{
				StaffID:    staffID,
				ClockInID:  open.id,
				ClockOutID: p.id,
				ClockIn:    open.at,
				ClockOut:   p.at,
				Date:       localDate(open.at, loc),
				Hours:      duration.Hours(),
			})
			open = nil
		}
	}

	if open != nil {
		flags = append(flags, Flag{
			StaffID: staffID,
			Kind:    model.FlagMissingClockout,
			EntryID: open.id,
			Date:    localDate(open.at, loc),
			Detail:  fmt.Sprintf("clock_in at %s never closed", open.at.Format(time.RFC3339)),
		})
	}
	return shifts, flags
}

func localDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// WindowUTC converts an inclusive venue-local date range into the RFC3339
// UTC half-open interval [from 00:00, to+1day 00:00) used by entry queries.
func WindowUTC(fromDate, toDate string, loc *time.Location) (string, string, error) {
	from, err := time.ParseInLocation("2006-01-02", fromDate, loc)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse from date %q: %w", fromDate, err)
	}
	to, err := time.ParseInLocation("2006-01-02", toDate, loc)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse to date %q: %w", toDate, err)
	}
	return from.UTC().Format(time.RFC3339), to.AddDate(0, 0, 1).UTC().Format(time.RFC3339), nil
}
