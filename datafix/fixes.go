package datafix

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"lengolf/database"
	"lengolf/model"
	"lengolf/timeclock"
)

// PunchOffsetOptions shifts punch times by whole hours. The usual case is
// repairing an import that stored venue-local times as if they were UTC,
// which needs a -7 hour correction.
type PunchOffsetOptions struct {
	StaffID int
	From    string // venue-local date, inclusive
	To      string // venue-local date, inclusive
	Hours   int
}

func PunchOffset(db *sqlx.DB, loc *time.Location, opts PunchOffsetOptions, apply bool) (*Report, error) {
	if opts.StaffID <= 0 {
		return nil, fmt.Errorf("staff id is required")
	}
	if opts.Hours == 0 {
		return nil, fmt.Errorf("hours must be non-zero")
	}
	fromUTC, toUTC, err := timeclock.WindowUTC(opts.From, opts.To, loc)
	if err != nil {
		return nil, err
	}

	entries, err := database.GetTimeEntriesBetween(db, fromUTC, toUTC, opts.StaffID)
	if err != nil {
		return nil, err
	}

	rep := newReport("punch-offset", map[string]interface{}{
		"staffId": opts.StaffID,
		"from":    opts.From,
		"to":      opts.To,
		"hours":   opts.Hours,
	}, "Entry", "Action", "Old Time", "New Time")

	offset := time.Duration(opts.Hours) * time.Hour
	shifted := make(map[int]string, len(entries))
	for _, e := range entries {
		at, err := time.Parse(time.RFC3339, e.EntryTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry %d time %q: %w", e.ID, e.EntryTime, err)
		}
		newTime := at.Add(offset).UTC().Format(time.RFC3339)
		shifted[e.ID] = newTime
		rep.addRow(fmt.Sprintf("%d", e.ID), e.Action, e.EntryTime, newTime)
	}
	rep.RowsAffected = len(shifted)

	if !apply || len(shifted) == 0 {
		return rep, nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to start fix transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if _, err := tx.Exec(`UPDATE time_entries SET entry_time = ? WHERE id = ?`, shifted[e.ID], e.ID); err != nil {
			return nil, fmt.Errorf("failed to update entry %d: %w", e.ID, err)
		}
	}
	if err := rep.audit(tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fix: %w", err)
	}
	rep.Applied = true
	return rep, nil
}

// DedupePunchesOptions deletes the later copies of repeated punches. The
// kiosk double-submits when the network hiccups, leaving two identical
// punches seconds apart.
type DedupePunchesOptions struct {
	Window   time.Duration // zero means the pairing default
	From     string        // venue-local date, empty scans all history
	To       string
	Progress io.Writer
}

func DedupePunches(db *sqlx.DB, loc *time.Location, opts DedupePunchesOptions, apply bool) (*Report, error) {
	window := opts.Window
	if window <= 0 {
		window = timeclock.DefaultOptions().DedupeWindow
	}

	fromUTC, toUTC := "0000-01-01T00:00:00Z", "9999-12-31T23:59:59Z"
	if opts.From != "" || opts.To != "" {
		if opts.From == "" || opts.To == "" {
			return nil, fmt.Errorf("from and to must be given together")
		}
		var err error
		fromUTC, toUTC, err = timeclock.WindowUTC(opts.From, opts.To, loc)
		if err != nil {
			return nil, err
		}
	}

	staff, err := database.GetAllStaff(db, false)
	if err != nil {
		return nil, err
	}

	rep := newReport("dedupe-punches", map[string]interface{}{
		"windowMinutes": int(window / time.Minute),
		"from":          opts.From,
		"to":            opts.To,
	}, "Entry", "Staff", "Action", "Time", "Duplicate Of")

	bar := staffBar(len(staff), opts.Progress)
	var doomed []int
	for _, s := range staff {
		entries, err := database.GetTimeEntriesBetween(db, fromUTC, toUTC, s.ID)
		if err != nil {
			return nil, err
		}
		dups, err := findDuplicates(entries, window)
		if err != nil {
			return nil, err
		}
		for _, d := range dups {
			doomed = append(doomed, d.entry.ID)
			rep.addRow(fmt.Sprintf("%d", d.entry.ID), s.StaffName, d.entry.Action, d.entry.EntryTime, fmt.Sprintf("%d", d.keptID))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	rep.RowsAffected = len(doomed)

	if !apply || len(doomed) == 0 {
		return rep, nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to start fix transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := sqlx.In(`DELETE FROM time_entries WHERE id IN (?)`, doomed)
	if err != nil {
		return nil, fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := tx.Exec(tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to delete duplicates: %w", err)
	}
	if err := rep.audit(tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fix: %w", err)
	}
	rep.Applied = true
	return rep, nil
}

type duplicate struct {
	entry  model.TimeEntry
	keptID int
}

// findDuplicates mirrors the pairing dedupe rule: a punch repeating the
// previous kept punch's action strictly inside the window is a duplicate.
func findDuplicates(entries []model.TimeEntry, window time.Duration) ([]duplicate, error) {
	type punch struct {
		entry model.TimeEntry
		at    time.Time
	}
	punches := make([]punch, 0, len(entries))
	for _, e := range entries {
		at, err := time.Parse(time.RFC3339, e.EntryTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry %d time %q: %w", e.ID, e.EntryTime, err)
		}
		punches = append(punches, punch{entry: e, at: at})
	}
	sort.SliceStable(punches, func(i, j int) bool {
		if punches[i].at.Equal(punches[j].at) {
			return punches[i].entry.ID < punches[j].entry.ID
		}
		return punches[i].at.Before(punches[j].at)
	})

	var dups []duplicate
	var prev *punch
	for i := range punches {
		p := punches[i]
		if prev != nil && p.entry.Action == prev.entry.Action && p.at.Sub(prev.at) < window {
			dups = append(dups, duplicate{entry: p.entry, keptID: prev.entry.ID})
			continue
		}
		prev = &punches[i]
	}
	return dups, nil
}

// CloseOpenShiftsOptions inserts the clock_outs staff forgot. At is a
// venue-local clock, normally venue close.
type CloseOpenShiftsOptions struct {
	Date string
	At   string
}

func CloseOpenShifts(db *sqlx.DB, loc *time.Location, opts CloseOpenShiftsOptions, apply bool) (*Report, error) {
	if opts.At == "" {
		opts.At = "23:00"
	}
	day, err := time.ParseInLocation("2006-01-02 15:04", opts.Date+" "+opts.At, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse close time: %w", err)
	}
	closeAt := day.UTC()

	// Scan one day past the target so a shift that legitimately closed
	// after midnight is not treated as open.
	nextDate := day.AddDate(0, 0, 1).Format("2006-01-02")
	fromUTC, toUTC, err := timeclock.WindowUTC(opts.Date, nextDate, loc)
	if err != nil {
		return nil, err
	}
	entries, err := database.GetTimeEntriesBetween(db, fromUTC, toUTC, 0)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]model.TimeEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	_, flags, err := timeclock.Pair(entries, loc, timeclock.Options{})
	if err != nil {
		return nil, err
	}

	rep := newReport("close-open-shifts", map[string]interface{}{
		"date": opts.Date,
		"at":   opts.At,
	}, "Staff", "Clock In", "Inserted Clock Out")

	var inserts []model.TimeEntry
	for _, f := range flags {
		if f.Kind != model.FlagMissingClockout || f.Date != opts.Date {
			continue
		}
		open, ok := byID[f.EntryID]
		if !ok {
			continue
		}
		openAt, err := time.Parse(time.RFC3339, open.EntryTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry %d time %q: %w", open.ID, open.EntryTime, err)
		}
		if !closeAt.After(openAt) {
			rep.addRow(fmt.Sprintf("%d", f.StaffID), open.EntryTime, "skipped: clock_in is after close time")
			continue
		}
		inserts = append(inserts, model.TimeEntry{
			StaffID:   f.StaffID,
			Action:    model.ActionClockOut,
			EntryTime: closeAt.Format(time.RFC3339),
			Note:      "auto-closed at venue close",
		})
		rep.addRow(fmt.Sprintf("%d", f.StaffID), open.EntryTime, closeAt.Format(time.RFC3339))
	}
	rep.RowsAffected = len(inserts)

	if !apply || len(inserts) == 0 {
		return rep, nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to start fix transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range inserts {
		if _, err := database.InsertTimeEntry(tx, e); err != nil {
			return nil, err
		}
	}
	if err := rep.audit(tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fix: %w", err)
	}
	rep.Applied = true
	return rep, nil
}

// ReassignReceipt moves every row of a receipt to a different staff name.
func ReassignReceipt(db *sqlx.DB, receipt, staffName string, apply bool) (*Report, error) {
	if strings.TrimSpace(staffName) == "" {
		return nil, fmt.Errorf("staff name is required")
	}
	txns, err := database.GetPOSTransactionsByReceipt(db, receipt)
	if err != nil {
		return nil, err
	}

	rep := newReport("reassign-receipt", map[string]interface{}{
		"receipt": receipt,
		"staff":   staffName,
	}, "Row", "Time", "Old Staff", "New Staff", "Total")
	for _, t := range txns {
		rep.addRow(fmt.Sprintf("%d", t.ID), t.TxnTime, t.StaffName, staffName, fmt.Sprintf("%.2f", t.Total))
	}
	rep.RowsAffected = len(txns)

	if !apply || len(txns) == 0 {
		return rep, nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to start fix transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE pos_transactions SET staff_name = ?, updated_at = ? WHERE receipt_number = ?`,
		staffName, database.UTCNow(), receipt); err != nil {
		return nil, fmt.Errorf("failed to reassign receipt %s: %w", receipt, err)
	}
	if err := rep.audit(tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fix: %w", err)
	}
	rep.Applied = true
	return rep, nil
}

// VoidReceipt marks a receipt voided and zeroes its total. The original
// totals survive in the audit params.
func VoidReceipt(db *sqlx.DB, receipt, reason string, apply bool) (*Report, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("reason is required")
	}
	txns, err := database.GetPOSTransactionsByReceipt(db, receipt)
	if err != nil {
		return nil, err
	}

	originals := make(map[string]float64)
	rep := newReport("void-receipt", map[string]interface{}{
		"receipt": receipt,
		"reason":  reason,
	}, "Row", "Time", "Total", "Status")

	var affected int
	for _, t := range txns {
		if t.IsVoided {
			rep.addRow(fmt.Sprintf("%d", t.ID), t.TxnTime, fmt.Sprintf("%.2f", t.Total), "already voided")
			continue
		}
		originals[fmt.Sprintf("%d", t.ID)] = t.Total
		rep.addRow(fmt.Sprintf("%d", t.ID), t.TxnTime, fmt.Sprintf("%.2f", t.Total), "will void, total -> 0.00")
		affected++
	}
	rep.Params["originalTotals"] = originals
	rep.RowsAffected = affected

	if !apply || affected == 0 {
		return rep, nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to start fix transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE pos_transactions SET is_voided = 1, total = 0, updated_at = ? WHERE receipt_number = ? AND is_voided = 0`,
		database.UTCNow(), receipt); err != nil {
		return nil, fmt.Errorf("failed to void receipt %s: %w", receipt, err)
	}
	if err := rep.audit(tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fix: %w", err)
	}
	rep.Applied = true
	return rep, nil
}
