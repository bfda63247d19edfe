// Package diag runs read-only integrity checks over the operational store
// and reports anything a human should look at before trusting payroll or
// the POS review numbers.
package diag

import (
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"lengolf/coaching"
	"lengolf/database"
	"lengolf/model"
	"lengolf/posreview"
	"lengolf/schedule"
	"lengolf/timeclock"
)

const (
	SeverityInfo  = "INFO"
	SeverityWarn  = "WARN"
	SeverityError = "ERROR"
)

// Entry times are stored as RFC3339 UTC text, so plain string bounds scan
// the full history.
const (
	allFromUTC  = "0000-01-01T00:00:00Z"
	allToUTC    = "9999-12-31T23:59:59Z"
	allFromDate = "2000-01-01"
)

// Env carries everything a check may read. Checks never write.
type Env struct {
	DB             *sqlx.DB
	Loc            *time.Location
	Now            time.Time
	VenueOpen      string
	VenueClose     string
	Pairing        timeclock.Options
	StaleCountDays int
}

func (e Env) now() time.Time {
	if e.Now.IsZero() {
		return time.Now()
	}
	return e.Now
}

func (e Env) today() string {
	return e.now().In(e.Loc).Format("2006-01-02")
}

// Finding is one row in the diagnostic report.
type Finding struct {
	Check    string `json:"check"`
	Severity string `json:"severity"`
	Subject  string `json:"subject"`
	Detail   string `json:"detail"`
}

// Check is a named probe. Run returns findings without Check or Severity
// set; the runner stamps them.
type Check struct {
	Name     string
	Severity string
	Run      func(env Env) ([]Finding, error)
}

// Checks returns the full registry in report order.
func Checks() []Check {
	return []Check{
		{Name: "unpaired_punches", Severity: SeverityWarn, Run: checkUnpairedPunches},
		{Name: "overlong_shifts", Severity: SeverityWarn, Run: checkOverlongShifts},
		{Name: "outside_hours_punches", Severity: SeverityInfo, Run: checkOutsideHoursPunches},
		{Name: "duplicate_receipts", Severity: SeverityError, Run: checkPOSKind(posreview.AnomalyDuplicateReceipt)},
		{Name: "vat_mismatches", Severity: SeverityWarn, Run: checkPOSKind(posreview.AnomalyVATMismatch)},
		{Name: "voided_with_total", Severity: SeverityWarn, Run: checkPOSKind(posreview.AnomalyVoidNonzero)},
		{Name: "schedule_overlaps", Severity: SeverityWarn, Run: checkScheduleOverlaps},
		{Name: "coach_double_bookings", Severity: SeverityWarn, Run: checkDoubleBookings},
		{Name: "negative_stock_counts", Severity: SeverityError, Run: checkNegativeStockCounts},
		{Name: "stale_stock_counts", Severity: SeverityInfo, Run: checkStaleStockCounts},
		{Name: "faq_duplicates", Severity: SeverityWarn, Run: checkFAQDuplicates},
		{Name: "missing_staff_refs", Severity: SeverityError, Run: checkMissingStaffRefs},
	}
}

func pairAll(env Env) ([]timeclock.Shift, []timeclock.Flag, error) {
	entries, err := database.GetTimeEntriesBetween(env.DB, allFromUTC, allToUTC, 0)
	if err != nil {
		return nil, nil, err
	}
	return timeclock.Pair(entries, env.Loc, env.Pairing)
}

func checkUnpairedPunches(env Env) ([]Finding, error) {
	_, flags, err := pairAll(env)
	if err != nil {
		return nil, err
	}

	type counts struct{ missing, orphan int }
	byStaff := make(map[int]*counts)
	for _, f := range flags {
		if f.Kind != model.FlagMissingClockout && f.Kind != model.FlagOrphanClockout {
			continue
		}
		c := byStaff[f.StaffID]
		if c == nil {
			c = &counts{}
			byStaff[f.StaffID] = c
		}
		if f.Kind == model.FlagMissingClockout {
			c.missing++
		} else {
			c.orphan++
		}
	}

	ids := make([]int, 0, len(byStaff))
	for id := range byStaff {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var findings []Finding
	for _, id := range ids {
		c := byStaff[id]
		findings = append(findings, Finding{
			Subject: fmt.Sprintf("staff %d", id),
			Detail:  fmt.Sprintf("%d clock_ins never closed, %d clock_outs without clock_in", c.missing, c.orphan),
		})
	}
	return findings, nil
}

func checkOverlongShifts(env Env) ([]Finding, error) {
	_, flags, err := pairAll(env)
	if err != nil {
		return nil, err
	}
	var findings []Finding
	for _, f := range flags {
		if f.Kind != model.FlagOverlongShift {
			continue
		}
		findings = append(findings, Finding{
			Subject: fmt.Sprintf("staff %d on %s", f.StaffID, f.Date),
			Detail:  f.Detail,
		})
	}
	return findings, nil
}

func checkOutsideHoursPunches(env Env) ([]Finding, error) {
	openMin, err := clockMinutes(env.VenueOpen)
	if err != nil {
		return nil, fmt.Errorf("invalid venue open time %q: %w", env.VenueOpen, err)
	}
	closeMin, err := clockMinutes(env.VenueClose)
	if err != nil {
		return nil, fmt.Errorf("invalid venue close time %q: %w", env.VenueClose, err)
	}

	entries, err := database.GetTimeEntriesBetween(env.DB, allFromUTC, allToUTC, 0)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, e := range entries {
		at, err := time.Parse(time.RFC3339, e.EntryTime)
		if err != nil {
			findings = append(findings, Finding{
				Subject: fmt.Sprintf("entry %d staff %d", e.ID, e.StaffID),
				Detail:  fmt.Sprintf("unparseable entry_time %q", e.EntryTime),
			})
			continue
		}
		local := at.In(env.Loc)
		minute := local.Hour()*60 + local.Minute()
		if minute >= openMin && minute <= closeMin {
			continue
		}
		findings = append(findings, Finding{
			Subject: fmt.Sprintf("entry %d staff %d", e.ID, e.StaffID),
			Detail:  fmt.Sprintf("%s at %s is outside venue hours %s-%s", e.Action, local.Format("2006-01-02 15:04"), env.VenueOpen, env.VenueClose),
		})
	}
	return findings, nil
}

func checkPOSKind(kind string) func(Env) ([]Finding, error) {
	return func(env Env) ([]Finding, error) {
		opts := posreview.AnomalyOptions{VenueOpen: env.VenueOpen, VenueClose: env.VenueClose}
		anomalies, err := posreview.Anomalies(env.DB, allFromDate, env.today(), env.Loc, opts)
		if err != nil {
			return nil, err
		}
		var findings []Finding
		for _, a := range anomalies {
			if a.Kind != kind {
				continue
			}
			findings = append(findings, Finding{
				Subject: fmt.Sprintf("receipt %s on %s", a.ReceiptNumber, a.Date),
				Detail:  a.Detail,
			})
		}
		return findings, nil
	}
}

func checkScheduleOverlaps(env Env) ([]Finding, error) {
	conflicts, err := schedule.Conflicts(env.DB, allFromDate, "9999-12-31")
	if err != nil {
		return nil, err
	}
	var findings []Finding
	for _, c := range conflicts {
		findings = append(findings, Finding{
			Subject: fmt.Sprintf("staff %d on %s", c.StaffID, c.Date),
			Detail:  fmt.Sprintf("%s-%s overlaps %s-%s", c.A.StartTime, c.A.EndTime, c.B.StartTime, c.B.EndTime),
		})
	}
	return findings, nil
}

func checkDoubleBookings(env Env) ([]Finding, error) {
	doubles, err := coaching.DoubleBookings(env.DB, allFromDate, "9999-12-31")
	if err != nil {
		return nil, err
	}
	var findings []Finding
	for _, d := range doubles {
		findings = append(findings, Finding{
			Subject: fmt.Sprintf("coach %d on %s", d.CoachID, d.Date),
			Detail:  fmt.Sprintf("booking %s (%s, %d min) overlaps booking %s (%s, %d min)", d.A.ID, d.A.StartTime, d.A.DurationMin, d.B.ID, d.B.StartTime, d.B.DurationMin),
		})
	}
	return findings, nil
}

func checkNegativeStockCounts(env Env) ([]Finding, error) {
	var rows []struct {
		ID          int     `db:"id"`
		ProductName string  `db:"product_name"`
		CountDate   string  `db:"count_date"`
		Quantity    float64 `db:"quantity"`
	}
	err := env.DB.Select(&rows, `
		SELECT c.id, p.product_name, c.count_date, c.quantity
		FROM stock_counts c
		JOIN products p ON p.id = c.product_id
		WHERE c.quantity < 0
		ORDER BY c.count_date, c.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock counts: %w", err)
	}
	var findings []Finding
	for _, r := range rows {
		findings = append(findings, Finding{
			Subject: fmt.Sprintf("%s on %s", r.ProductName, r.CountDate),
			Detail:  fmt.Sprintf("count %d records quantity %.2f", r.ID, r.Quantity),
		})
	}
	return findings, nil
}

func checkStaleStockCounts(env Env) ([]Finding, error) {
	days := env.StaleCountDays
	if days <= 0 {
		days = 14
	}
	cutoff := env.now().In(env.Loc).AddDate(0, 0, -days).Format("2006-01-02")

	var rows []struct {
		ProductName string  `db:"product_name"`
		LastCount   *string `db:"last_count"`
	}
	err := env.DB.Select(&rows, `
		SELECT p.product_name, MAX(c.count_date) AS last_count
		FROM products p
		LEFT JOIN stock_counts c ON c.product_id = p.id
		WHERE p.is_active = 1
		GROUP BY p.id, p.product_name
		HAVING last_count IS NULL OR last_count < ?
		ORDER BY p.product_name`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to scan count freshness: %w", err)
	}
	var findings []Finding
	for _, r := range rows {
		detail := "never counted"
		if r.LastCount != nil {
			detail = fmt.Sprintf("last counted %s, more than %d days ago", *r.LastCount, days)
		}
		findings = append(findings, Finding{Subject: r.ProductName, Detail: detail})
	}
	return findings, nil
}

func checkFAQDuplicates(env Env) ([]Finding, error) {
	var rows []struct {
		Language string `db:"language"`
		Question string `db:"question"`
		N        int    `db:"n"`
	}
	err := env.DB.Select(&rows, `
		SELECT language, question, COUNT(*) AS n
		FROM faq_entries
		WHERE is_active = 1
		GROUP BY language, question
		HAVING COUNT(*) > 1
		ORDER BY language, question`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan faq entries: %w", err)
	}
	var findings []Finding
	for _, r := range rows {
		findings = append(findings, Finding{
			Subject: fmt.Sprintf("[%s] %s", r.Language, r.Question),
			Detail:  fmt.Sprintf("%d active entries share this question", r.N),
		})
	}
	return findings, nil
}

func checkMissingStaffRefs(env Env) ([]Finding, error) {
	var rows []struct {
		Tbl     string `db:"tbl"`
		RowID   int    `db:"row_id"`
		StaffID int    `db:"staff_id"`
	}
	err := env.DB.Select(&rows, `
		SELECT 'time_entries' AS tbl, t.id AS row_id, t.staff_id AS staff_id
		FROM time_entries t LEFT JOIN staff s ON s.id = t.staff_id
		WHERE s.id IS NULL
		UNION ALL
		SELECT 'staff_compensation', sc.id, sc.staff_id
		FROM staff_compensation sc LEFT JOIN staff s ON s.id = sc.staff_id
		WHERE s.id IS NULL
		UNION ALL
		SELECT 'schedules', sd.id, sd.staff_id
		FROM schedules sd LEFT JOIN staff s ON s.id = sd.staff_id
		WHERE s.id IS NULL
		UNION ALL
		SELECT 'stock_counts', c.id, c.staff_id
		FROM stock_counts c LEFT JOIN staff s ON s.id = c.staff_id
		WHERE c.staff_id IS NOT NULL AND s.id IS NULL
		ORDER BY tbl, row_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan staff references: %w", err)
	}
	var findings []Finding
	for _, r := range rows {
		findings = append(findings, Finding{
			Subject: fmt.Sprintf("%s row %d", r.Tbl, r.RowID),
			Detail:  fmt.Sprintf("references staff %d which does not exist", r.StaffID),
		})
	}
	return findings, nil
}

func clockMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
