// Package payroll calculates monthly pay for venue staff from paired time
// clock shifts, weekly overtime, public holidays and the service charge pot.
package payroll

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"lengolf/database"
	"lengolf/model"
	"lengolf/timeclock"
)

// ErrRunFinalized is returned for any attempt to change a finalized run.
var ErrRunFinalized = errors.New("payroll run is finalized")

type Params struct {
	// StandardWeeklyHours is the weekly threshold above which hours are
	// overtime.
	StandardWeeklyHours float64
	// WorkingDayMinHours is the minimum attributed hours for a date to
	// count as a working day for the daily allowance.
	WorkingDayMinHours float64
	// Pairing is handed through to the time clock.
	Pairing timeclock.Options
	// Concurrency bounds the per-staff calculation fan-out.
	Concurrency int
}

func DefaultParams() Params {
	return Params{
		StandardWeeklyHours: 48,
		WorkingDayMinHours:  6,
		Pairing:             timeclock.DefaultOptions(),
		Concurrency:         4,
	}
}

type Calculator struct {
	db     *sqlx.DB
	loc    *time.Location
	params Params
}

func NewCalculator(db *sqlx.DB, loc *time.Location, params Params) *Calculator {
	if params.Concurrency <= 0 {
		params.Concurrency = 4
	}
	return &Calculator{db: db, loc: loc, params: params}
}

// CreateRun opens a draft run for a month. Draft and calculated runs may
// coexist, but once a month is finalized no new run can be opened for it.
func (c *Calculator) CreateRun(month, note string) (model.PayrollRun, error) {
	if _, _, err := monthBounds(month, c.loc); err != nil {
		return model.PayrollRun{}, err
	}
	existing, err := database.ListPayrollRuns(c.db, month)
	if err != nil {
		return model.PayrollRun{}, err
	}
	for _, r := range existing {
		if r.Status == model.RunStatusFinalized {
			return model.PayrollRun{}, fmt.Errorf("%w: month %s already has finalized run %s", ErrRunFinalized, month, r.ID)
		}
	}
	run := model.PayrollRun{
		ID:        uuid.NewString(),
		Month:     month,
		Status:    model.RunStatusDraft,
		CreatedAt: database.UTCNow(),
		Note:      note,
	}
	if err := database.CreatePayrollRun(c.db, run); err != nil {
		return model.PayrollRun{}, err
	}
	return run, nil
}

// Calculate computes every staff line for the run's month and replaces the
// stored results. A draft or calculated run can be recalculated any number
// of times; a finalized run cannot.
func (c *Calculator) Calculate(ctx context.Context, runID string) (model.PayrollRun, error) {
	run, err := database.GetPayrollRun(c.db, runID)
	if err != nil {
		return model.PayrollRun{}, err
	}
	if run.Status == model.RunStatusFinalized {
		return model.PayrollRun{}, ErrRunFinalized
	}

	input, err := c.loadMonth(run.Month)
	if err != nil {
		return model.PayrollRun{}, err
	}

	results := make([]*staffResult, len(input.staff))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(c.params.Concurrency)
	for i := range input.staff {
		g.Go(func() error {
			res, err := c.calculateStaff(input.staff[i], input)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.PayrollRun{}, err
	}

	// Inactive staff only appear when the month actually involves them.
	kept := results[:0]
	for _, res := range results {
		if res.staff.IsActive || res.worked() {
			kept = append(kept, res)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].staff.ID < kept[j].staff.ID })

	var eligible []int
	for _, res := range kept {
		if res.serviceChargeEligible {
			eligible = append(eligible, res.staff.ID)
		}
	}
	shares := DistributeServiceCharge(input.pot.TotalAmount, eligible)

	var lines []model.PayrollLine
	var flags []model.PayrollFlag
	var totalGross float64
	for _, res := range kept {
		line := res.line
		line.ServiceChargePay = shares[res.staff.ID]
		line.GrossPay = round2(line.BasePay + line.OTPay + line.HolidayPay + line.AllowancePay + line.ServiceChargePay)
		totalGross += line.GrossPay
		lines = append(lines, line)
		flags = append(flags, res.flags...)
	}
	totalGross = round2(totalGross)

	tx, err := c.db.Beginx()
	if err != nil {
		return model.PayrollRun{}, fmt.Errorf("failed to start calculation transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-check inside the transaction: a concurrent finalize between the
	// status read above and this point must not be overwritten.
	var status string
	if err := tx.Get(&status, `SELECT status FROM payroll_runs WHERE id = ?`, runID); err != nil {
		return model.PayrollRun{}, fmt.Errorf("failed to recheck run status: %w", err)
	}
	if status == model.RunStatusFinalized {
		return model.PayrollRun{}, ErrRunFinalized
	}

	if err := database.ReplacePayrollResultsInTx(tx, runID, lines, flags, totalGross); err != nil {
		return model.PayrollRun{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.PayrollRun{}, fmt.Errorf("failed to commit calculation: %w", err)
	}

	return database.GetPayrollRun(c.db, runID)
}

// Finalize locks a calculated run. Draft runs must be calculated first.
func (c *Calculator) Finalize(runID string) (model.PayrollRun, error) {
	run, err := database.GetPayrollRun(c.db, runID)
	if err != nil {
		return model.PayrollRun{}, err
	}
	switch run.Status {
	case model.RunStatusFinalized:
		return model.PayrollRun{}, ErrRunFinalized
	case model.RunStatusDraft:
		return model.PayrollRun{}, fmt.Errorf("run %s has not been calculated", runID)
	}
	if err := database.FinalizePayrollRun(c.db, runID); err != nil {
		return model.PayrollRun{}, err
	}
	return database.GetPayrollRun(c.db, runID)
}

// monthInput is everything Calculate reads, loaded up front so the per-staff
// fan-out never touches the database.
type monthInput struct {
	month    string
	staff    []model.Staff
	entries  map[int][]model.TimeEntry
	comps    map[int]model.Compensation
	holidays map[string]bool
	pot      model.ServiceChargePot
	mondays  []time.Time
}

func (c *Calculator) loadMonth(month string) (*monthInput, error) {
	staff, err := database.GetAllStaff(c.db, false)
	if err != nil {
		return nil, err
	}

	fromUTC, toUTC, err := entryWindowUTC(month, c.loc)
	if err != nil {
		return nil, err
	}
	entries, err := database.GetTimeEntriesBetween(c.db, fromUTC, toUTC, 0)
	if err != nil {
		return nil, err
	}
	byStaff := make(map[int][]model.TimeEntry)
	for _, e := range entries {
		byStaff[e.StaffID] = append(byStaff[e.StaffID], e)
	}

	asOf, err := lastDayOf(month, c.loc)
	if err != nil {
		return nil, err
	}
	comps := make(map[int]model.Compensation)
	for _, s := range staff {
		comp, err := database.GetCompensationAsOf(c.db, s.ID, asOf)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, err
		}
		comps[s.ID] = comp
	}

	start, end, err := monthBounds(month, c.loc)
	if err != nil {
		return nil, err
	}
	holidayRows, err := database.GetHolidaysBetween(c.db, start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	holidays := make(map[string]bool, len(holidayRows))
	for _, h := range holidayRows {
		holidays[h.HolidayDate] = true
	}

	pot, err := database.GetServiceChargePot(c.db, month)
	if err != nil {
		return nil, err
	}

	mondays, err := ownedWeeks(month, c.loc)
	if err != nil {
		return nil, err
	}

	return &monthInput{
		month:    month,
		staff:    staff,
		entries:  byStaff,
		comps:    comps,
		holidays: holidays,
		pot:      pot,
		mondays:  mondays,
	}, nil
}

type staffResult struct {
	staff                 model.Staff
	line                  model.PayrollLine
	flags                 []model.PayrollFlag
	serviceChargeEligible bool
}

// worked reports whether the month touches this staff member at all.
func (r *staffResult) worked() bool {
	return r.line.RegularHours > 0 || r.line.OTHours > 0 || len(r.flags) > 0
}

func (c *Calculator) calculateStaff(staff model.Staff, input *monthInput) (*staffResult, error) {
	shifts, pairFlags, err := timeclock.Pair(input.entries[staff.ID], c.loc, c.params.Pairing)
	if err != nil {
		return nil, fmt.Errorf("failed to pair punches for staff %d: %w", staff.ID, err)
	}

	res := &staffResult{staff: staff}
	for _, f := range pairFlags {
		res.flags = append(res.flags, model.PayrollFlag{
			StaffID: staff.ID,
			Kind:    f.Kind,
			Date:    f.Date,
			Detail:  f.Detail,
		})
	}

	daily := make(map[string]float64)
	for _, s := range shifts {
		daily[s.Date] += s.Hours
	}

	var monthHours, holidayHours float64
	workingDays := 0
	for date, hours := range daily {
		if !inMonth(date, input.month) {
			continue
		}
		monthHours += hours
		if input.holidays[date] {
			holidayHours += hours
		}
		if hours >= c.params.WorkingDayMinHours {
			workingDays++
		}
	}

	var otHours float64
	for _, monday := range input.mondays {
		var weekHours float64
		for _, date := range weekDates(monday) {
			weekHours += daily[date]
		}
		if weekHours > c.params.StandardWeeklyHours {
			otHours += weekHours - c.params.StandardWeeklyHours
		}
	}

	regularHours := monthHours - otHours
	if regularHours < 0 {
		regularHours = 0
	}

	line := model.PayrollLine{
		StaffID:      staff.ID,
		StaffName:    staff.StaffName,
		RegularHours: round2(regularHours),
		OTHours:      round2(otHours),
		HolidayHours: round2(holidayHours),
		WorkingDays:  workingDays,
	}

	comp, ok := input.comps[staff.ID]
	if !ok {
		if staff.IsActive || len(daily) > 0 {
			res.flags = append(res.flags, model.PayrollFlag{
				StaffID: staff.ID,
				Kind:    model.FlagMissingCompensation,
				Date:    input.month + "-01",
				Detail:  fmt.Sprintf("no compensation effective by end of %s", input.month),
			})
		}
		res.line = line
		return res, nil
	}

	line.BasePay = round2(comp.BaseSalary)
	line.OTPay = round2(otHours * comp.OTRatePerHour)
	line.HolidayPay = round2(holidayHours * comp.HolidayRatePerHour)
	line.AllowancePay = round2(float64(workingDays) * comp.DailyAllowance)

	res.line = line
	// The pot is split only among staff who actually showed up this month.
	res.serviceChargeEligible = comp.ServiceChargeEligible && workingDays >= 1
	return res, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
